package enrich

import (
	"context"
	"strings"

	"github.com/kuitang/cloudnotes/internal/i18n"
)

// Mock is the --no-ai enricher: a deterministic pair derived from the
// content itself, with the same never-fails contract as the real service.
type Mock struct{}

// NewMock creates the mock enricher.
func NewMock() *Mock {
	return &Mock{}
}

// Enhance titles the note with its first two words and files it under the
// language's fallback category.
func (m *Mock) Enhance(_ context.Context, content string, lang i18n.Lang) Result {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return i18nFallback(lang)
	}
	if len(fields) > 2 {
		fields = fields[:2]
	}
	return Result{
		Title:    strings.Join(fields, " "),
		Category: i18n.FallbackPair(lang).Category,
	}
}
