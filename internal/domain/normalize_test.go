package domain_test

import (
	"strings"
	"testing"

	"campus-assist/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDocument_PipeTable(t *testing.T) {
	raw := "Fees\n| Tuition | 15000 |\n| Misc | 2500 |\nEnd"
	out := domain.NormalizeDocument(raw)

	assert.Contains(t, out, "Table:")
	assert.Contains(t, out, "- Tuition: 15000")
	assert.Contains(t, out, "- Misc: 2500")
	assert.Contains(t, out, "End")
	assert.NotContains(t, out, "|")
}

func TestNormalizeDocument_TwoColumnRows(t *testing.T) {
	raw := "BS Information Technology    4 years\nBS Computer Science    4 years"
	out := domain.NormalizeDocument(raw)

	assert.Contains(t, out, "Table:")
	assert.Contains(t, out, "- BS Information Technology: 4 years")
	assert.Contains(t, out, "- BS Computer Science: 4 years")
}

func TestNormalizeDocument_TabsCountAsColumnGap(t *testing.T) {
	raw := "Registrar\tRoom 101"
	out := domain.NormalizeDocument(raw)

	assert.Contains(t, out, "- Registrar: Room 101")
}

func TestNormalizeDocument_OffenseRows(t *testing.T) {
	raw := "First offense: written warning\nSecond offense: suspension"
	out := domain.NormalizeDocument(raw)

	assert.Contains(t, out, "Table:")
	assert.Contains(t, out, "- First offense: written warning")
	assert.Contains(t, out, "- Second offense: suspension")
}

func TestNormalizeDocument_PlainProseUntouched(t *testing.T) {
	raw := "The campus library is open on weekdays.\nIt closes at five."
	out := domain.NormalizeDocument(raw)

	assert.Equal(t, raw, out)
}

func TestNormalizeDocument_CRLF(t *testing.T) {
	raw := "line one\r\nline two\rline three"
	out := domain.NormalizeDocument(raw)

	assert.Equal(t, []string{"line one", "line two", "line three"}, strings.Split(out, "\n"))
}

func TestNormalizeDocument_Deterministic(t *testing.T) {
	raw := "| A | 1 |\nFirst offense: warning\nplain line"
	assert.Equal(t, domain.NormalizeDocument(raw), domain.NormalizeDocument(raw))
}

func TestNormalizeDocument_BlankLinesPreserved(t *testing.T) {
	raw := "para one\n\npara two"
	out := domain.NormalizeDocument(raw)
	assert.Equal(t, "para one\n\npara two", out)
}
