package chathttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"campus-assist/internal/domain"
	"campus-assist/internal/infra/logger"
	"campus-assist/internal/usecase"
)

const defaultListLimit = 50

// Handler exposes the chat, retrieval, handbook, and feedback operations
// over HTTP.
type Handler struct {
	chat      usecase.ChatUsecase
	retriever usecase.ResolveContextUsecase
	ingestion usecase.IngestDocumentUsecase
	handbooks domain.HandbookRepository
	inquiries domain.InquiryRepository
	feedback  domain.FeedbackRepository
	progress  *domain.ProgressHub
	clog      *logger.ContextLogger
}

func NewHandler(
	chat usecase.ChatUsecase,
	retriever usecase.ResolveContextUsecase,
	ingestion usecase.IngestDocumentUsecase,
	handbooks domain.HandbookRepository,
	inquiries domain.InquiryRepository,
	feedback domain.FeedbackRepository,
	progress *domain.ProgressHub,
) *Handler {
	return &Handler{
		chat:      chat,
		retriever: retriever,
		ingestion: ingestion,
		handbooks: handbooks,
		inquiries: inquiries,
		feedback:  feedback,
		progress:  progress,
		clog:      logger.NewContextLogger("campus-assist"),
	}
}

// RegisterRoutes attaches every handler to the echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	v1 := e.Group("/v1")
	v1.POST("/chat", h.Chat)
	v1.POST("/chat/stream", h.ChatStream)
	v1.POST("/retrieve", h.Retrieve)
	v1.POST("/handbook/upload", h.UploadHandbook)
	v1.DELETE("/handbook", h.DeleteHandbook)
	v1.GET("/handbook", h.ListHandbooks)
	v1.GET("/handbook/progress", h.HandbookProgress)
	v1.POST("/feedback", h.SubmitFeedback)
	v1.GET("/feedback", h.ListFeedback)
	v1.GET("/inquiries", h.ListInquiries)
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type passageResponse struct {
	ChunkID      string  `json:"chunk_id"`
	Content      string  `json:"content"`
	SectionTitle string  `json:"section_title"`
	Score        float32 `json:"score"`
}

type chatResponse struct {
	Answer   string            `json:"answer"`
	Scope    string            `json:"scope"`
	Topic    string            `json:"topic"`
	Language string            `json:"language"`
	Passages []passageResponse `json:"passages"`
}

func toPassageResponses(passages []domain.Passage) []passageResponse {
	out := make([]passageResponse, 0, len(passages))
	for _, p := range passages {
		out = append(out, passageResponse{
			ChunkID:      p.ChunkID.String(),
			Content:      p.Content,
			SectionTitle: p.SectionTitle,
			Score:        p.Score,
		})
	}
	return out
}

// Chat runs one whole chat turn.
// (POST /v1/chat)
func (h *Handler) Chat(ctx echo.Context) error {
	var req chatRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.SessionID == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "missing session_id"})
	}

	reqCtx := logger.WithSessionID(ctx.Request().Context(), req.SessionID)
	h.clog.WithContext(reqCtx).Info("chat_received")

	output, err := h.chat.Execute(reqCtx, usecase.ChatInput{
		Message:   req.Message,
		SessionID: req.SessionID,
	})
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusOK, chatResponse{
		Answer:   output.Answer,
		Scope:    string(output.Scope),
		Topic:    string(output.Topic),
		Language: string(output.Language),
		Passages: toPassageResponses(output.Passages),
	})
}

// ChatStream runs one chat turn as a server-sent event stream. Events are
// named meta, delta, done, and error, with JSON payloads.
// (POST /v1/chat/stream)
func (h *Handler) ChatStream(ctx echo.Context) error {
	var req chatRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.SessionID == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "missing session_id"})
	}

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)

	reqCtx := logger.WithSessionID(ctx.Request().Context(), req.SessionID)
	h.clog.WithContext(reqCtx).Info("chat_stream_opened")

	events := h.chat.Stream(reqCtx, usecase.ChatInput{
		Message:   req.Message,
		SessionID: req.SessionID,
	})
	for ev := range events {
		if err := writeSSE(res, string(ev.Kind), ev.Payload); err != nil {
			return nil
		}
	}
	return nil
}

func writeSSE(res *echo.Response, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	res.Flush()
	return nil
}

type retrieveRequest struct {
	Query       string `json:"query"`
	ForcedTopic string `json:"forced_topic"`
}

type retrieveResponse struct {
	Scope    string            `json:"scope"`
	Topic    string            `json:"topic"`
	Passages []passageResponse `json:"passages"`
}

// Retrieve resolves grounding passages without generating an answer.
// (POST /v1/retrieve)
func (h *Handler) Retrieve(ctx echo.Context) error {
	var req retrieveRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Query == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "missing query"})
	}

	var forced domain.Topic
	if req.ForcedTopic != "" {
		topic, err := domain.ParseTopic(req.ForcedTopic)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		forced = topic
	}

	output, err := h.retriever.Execute(ctx.Request().Context(), usecase.ResolveContextInput{
		Query:       req.Query,
		ForcedTopic: forced,
	})
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusOK, retrieveResponse{
		Scope:    string(output.Scope),
		Topic:    string(output.Topic),
		Passages: toPassageResponses(output.Passages),
	})
}

// UploadHandbook ingests a document for a scope. The document arrives as a
// multipart "file" field, or as the raw request body for plain text uploads.
// (POST /v1/handbook/upload?scope=)
func (h *Handler) UploadHandbook(ctx echo.Context) error {
	scope, err := domain.ParseScope(ctx.QueryParam("scope"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	name, raw, err := readUpload(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if len(raw) == 0 {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "empty document"})
	}

	reqCtx := logger.WithStage(logger.WithScope(ctx.Request().Context(), string(scope)), "upload")
	h.clog.WithContext(reqCtx).Info("handbook_upload_received", slog.Int("bytes", len(raw)))

	output, err := h.ingestion.Ingest(reqCtx, usecase.IngestDocumentInput{
		RawText:     string(raw),
		Scope:       scope,
		DisplayName: name,
	})
	if err != nil {
		if errors.Is(err, domain.ErrScopeOccupied) {
			return ctx.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		}
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusCreated, map[string]interface{}{
		"scope":       string(scope),
		"chunk_count": output.ChunkCount,
	})
}

func readUpload(ctx echo.Context) (string, []byte, error) {
	file, err := ctx.FormFile("file")
	if err == nil {
		src, err := file.Open()
		if err != nil {
			return "", nil, fmt.Errorf("failed to open upload: %w", err)
		}
		defer func() { _ = src.Close() }()
		raw, err := io.ReadAll(src)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read upload: %w", err)
		}
		return file.Filename, raw, nil
	}

	raw, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read body: %w", err)
	}
	name := ctx.QueryParam("name")
	if name == "" {
		name = "handbook.txt"
	}
	return name, raw, nil
}

// DeleteHandbook removes the handbook and chunks of one scope.
// (DELETE /v1/handbook?scope=)
func (h *Handler) DeleteHandbook(ctx echo.Context) error {
	scope, err := domain.ParseScope(ctx.QueryParam("scope"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	reqCtx := logger.WithScope(ctx.Request().Context(), string(scope))
	h.clog.WithContext(reqCtx).Info("handbook_delete_received")

	if err := h.ingestion.DeleteScope(reqCtx, scope); err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return ctx.JSON(http.StatusOK, map[string]string{"scope": string(scope), "status": "deleted"})
}

type handbookResponse struct {
	ID          string    `json:"id"`
	Scope       string    `json:"scope"`
	DisplayName string    `json:"display_name"`
	ChunkCount  int       `json:"chunk_count"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// ListHandbooks reports the active handbook of every scope.
// (GET /v1/handbook)
func (h *Handler) ListHandbooks(ctx echo.Context) error {
	handbooks, err := h.handbooks.List(ctx.Request().Context())
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	out := make([]handbookResponse, 0, len(handbooks))
	for _, hb := range handbooks {
		out = append(out, handbookResponse{
			ID:          hb.ID.String(),
			Scope:       string(hb.Scope),
			DisplayName: hb.DisplayName,
			ChunkCount:  hb.ChunkCount,
			UploadedAt:  hb.UploadedAt,
		})
	}
	return ctx.JSON(http.StatusOK, map[string]interface{}{"handbooks": out})
}

// HandbookProgress streams ingestion progress events over SSE until the
// client disconnects.
// (GET /v1/handbook/progress)
func (h *Handler) HandbookProgress(ctx echo.Context) error {
	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	sub := h.progress.Subscribe()
	defer h.progress.Unsubscribe(sub)

	done := ctx.Request().Context().Done()
	for {
		select {
		case <-done:
			return nil
		case ev, ok := <-sub:
			if !ok {
				return nil
			}
			if err := writeSSE(res, "progress", ev); err != nil {
				return nil
			}
		}
	}
}

type feedbackRequest struct {
	SessionID string `json:"session_id"`
	Rating    string `json:"rating"`
	Comment   string `json:"comment"`
}

// SubmitFeedback records a user rating of an answer.
// (POST /v1/feedback)
func (h *Handler) SubmitFeedback(ctx echo.Context) error {
	var req feedbackRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	rating := domain.FeedbackRating(req.Rating)
	if rating != domain.FeedbackPositive && rating != domain.FeedbackNegative {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "rating must be positive or negative"})
	}

	fb := domain.NewFeedback(req.SessionID, rating, req.Comment)
	if err := h.feedback.Insert(ctx.Request().Context(), fb); err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusCreated, map[string]string{"feedback_id": fb.FeedbackID})
}

type feedbackItemResponse struct {
	FeedbackID string    `json:"feedback_id"`
	SessionID  string    `json:"session_id"`
	Rating     string    `json:"rating"`
	Comment    string    `json:"comment"`
	Resolved   bool      `json:"resolved"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListFeedback returns the newest feedback entries plus the total count.
// (GET /v1/feedback)
func (h *Handler) ListFeedback(ctx echo.Context) error {
	limit := parseLimit(ctx.QueryParam("limit"))

	items, err := h.feedback.ListRecent(ctx.Request().Context(), limit)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	total, err := h.feedback.Count(ctx.Request().Context())
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	out := make([]feedbackItemResponse, 0, len(items))
	for _, fb := range items {
		out = append(out, feedbackItemResponse{
			FeedbackID: fb.FeedbackID,
			SessionID:  fb.SessionID,
			Rating:     string(fb.Rating),
			Comment:    fb.Comment,
			Resolved:   fb.Resolved,
			CreatedAt:  fb.CreatedAt,
		})
	}
	return ctx.JSON(http.StatusOK, map[string]interface{}{"feedback": out, "total": total})
}

type inquiryResponse struct {
	InquiryID   string    `json:"inquiry_id"`
	SessionID   string    `json:"session_id"`
	UserQuery   string    `json:"user_query"`
	BotResponse string    `json:"bot_response"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListInquiries returns the newest inquiry records.
// (GET /v1/inquiries)
func (h *Handler) ListInquiries(ctx echo.Context) error {
	limit := parseLimit(ctx.QueryParam("limit"))

	items, err := h.inquiries.ListRecent(ctx.Request().Context(), limit)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	out := make([]inquiryResponse, 0, len(items))
	for _, inq := range items {
		out = append(out, inquiryResponse{
			InquiryID:   inq.InquiryID,
			SessionID:   inq.SessionID,
			UserQuery:   inq.UserQuery,
			BotResponse: inq.BotResponse,
			Status:      string(inq.Status),
			CreatedAt:   inq.CreatedAt,
		})
	}
	return ctx.JSON(http.StatusOK, map[string]interface{}{"inquiries": out})
}

func parseLimit(raw string) int {
	if raw == "" {
		return defaultListLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > 500 {
		return defaultListLimit
	}
	return n
}
