package core

import (
	"context"
)

// PageExtractor pulls plain text out of a document file, one entry per page.
// Formats without pages return a single entry.
type PageExtractor interface {
	ExtractPages(ctx context.Context, path string) ([]string, error)
}
