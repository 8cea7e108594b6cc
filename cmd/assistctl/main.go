package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	// Global flags
	serverURL string

	// Ask command flags
	sessionID string

	// Ingest command flags
	displayName string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "assistctl",
	Short:   "Operate the campus assistant service",
	Version: version,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <scope> <file>",
	Short: "Upload a handbook document into a scope",
	Long: `Upload a handbook document into a scope.

The scope must be empty; delete the existing handbook first to replace it.

Examples:
  # Upload the campus handbook
  assistctl ingest campus handbook-2025.txt

  # Upload with an explicit display name
  assistctl ingest global global-handbook.txt --name "University Handbook 2025"`,
	Args: cobra.ExactArgs(2),
	RunE: runIngest,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <scope>",
	Short: "Delete the handbook of a scope",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active handbook of every scope",
	RunE:  showStatus,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the assistant one question",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServerURL(), "base URL of the assistant service")

	ingestCmd.Flags().StringVar(&displayName, "name", "", "display name for the handbook (defaults to the file name)")
	askCmd.Flags().StringVar(&sessionID, "session", "", "session ID to continue (defaults to a fresh session)")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(askCmd)
}

func defaultServerURL() string {
	if v := os.Getenv("ASSIST_SERVER_URL"); v != "" {
		return v
	}
	return "http://localhost:9020"
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Minute}
}

func runIngest(cmd *cobra.Command, args []string) error {
	scope, path := args[0], args[1]

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/v1/handbook/upload?scope=%s", serverURL, url.QueryEscape(scope))
	if displayName != "" {
		endpoint += "&name=" + url.QueryEscape(displayName)
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("upload failed: status %d: %s", resp.StatusCode, string(raw))
	}

	var result struct {
		Scope      string `json:"scope"`
		ChunkCount int    `json:"chunk_count"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	fmt.Printf("Ingested %s into scope %s (%d chunks)\n", filepath.Base(path), result.Scope, result.ChunkCount)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	scope := args[0]

	endpoint := fmt.Sprintf("%s/v1/handbook?scope=%s", serverURL, url.QueryEscape(scope))
	req, err := http.NewRequest(http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete failed: status %d: %s", resp.StatusCode, string(raw))
	}
	fmt.Printf("Deleted handbook for scope %s\n", scope)
	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	resp, err := httpClient().Get(serverURL + "/v1/handbook")
	if err != nil {
		return fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status request failed: status %d: %s", resp.StatusCode, string(raw))
	}

	var result struct {
		Handbooks []struct {
			Scope       string    `json:"scope"`
			DisplayName string    `json:"display_name"`
			ChunkCount  int       `json:"chunk_count"`
			UploadedAt  time.Time `json:"uploaded_at"`
		} `json:"handbooks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.Handbooks) == 0 {
		fmt.Println("No handbooks uploaded")
		return nil
	}
	for _, hb := range result.Handbooks {
		fmt.Printf("%-8s %-40s %5d chunks  uploaded %s\n",
			hb.Scope, hb.DisplayName, hb.ChunkCount, hb.UploadedAt.Format(time.RFC3339))
	}
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	payload, err := json.Marshal(map[string]string{
		"message":    question,
		"session_id": sessionID,
	})
	if err != nil {
		return err
	}

	resp, err := httpClient().Post(serverURL+"/v1/chat", "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chat request failed: status %d: %s", resp.StatusCode, string(raw))
	}

	var result struct {
		Answer string `json:"answer"`
		Scope  string `json:"scope"`
		Topic  string `json:"topic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Println(result.Answer)
	fmt.Printf("\n[session %s | scope %s | topic %s]\n", sessionID, result.Scope, result.Topic)
	return nil
}
