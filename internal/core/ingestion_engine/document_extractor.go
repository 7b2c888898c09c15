package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"code.sajari.com/docconv"
	"github.com/ledongthuc/pdf"

	"github.com/markdave123-py/Fixpress/internal/core"
)

var (
	_ core.PageExtractor = (*DocconvExtractor)(nil)
	_ core.PageExtractor = (*PDFPageExtractor)(nil)
)

// DocconvExtractor implements core.PageExtractor using sajari/docconv.
// It covers docx/odt/rtf/html/txt manuals; form feeds in the body are treated as page breaks.
type DocconvExtractor struct {
	useReadability bool
}

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

// ExtractPages converts the file with docconv, choosing the parser from the file extension.
func (e *DocconvExtractor) ExtractPages(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	contentType := docconv.MimeTypeByExtension(path)
	if contentType == "application/octet-stream" {
		contentType = sniffContentType(f)
		if _, err := f.Seek(0, 0); err != nil {
			return nil, err
		}
	}

	res, err := docconv.Convert(f, contentType, e.useReadability)
	if err != nil {
		return nil, fmt.Errorf("docconv %s: %w", contentType, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(res.Body) == "" {
		log.Printf("[WARN] docconv: extracted empty text for content type '%s'", contentType)
	}

	return strings.Split(res.Body, "\f"), nil
}

// PDFPageExtractor reads PDFs page by page with ledongthuc/pdf.
type PDFPageExtractor struct{}

func NewPDFPageExtractor() *PDFPageExtractor {
	return &PDFPageExtractor{}
}

// ExtractPages returns the plain text of every page in document order.
// The parser panics on some corrupt files, so panics surface as errors.
func (e *PDFPageExtractor) ExtractPages(ctx context.Context, path string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("corrupt pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	if total == 0 {
		return nil, errors.New("pdf has no pages")
	}

	fonts := make(map[string]*pdf.Font)
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := p.Font(name)
				fonts[name] = &font
			}
		}
		text, err := p.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// JoinPages concatenates page texts, each prefixed with its page marker.
func JoinPages(pages []string) string {
	var b strings.Builder
	for i, p := range pages {
		fmt.Fprintf(&b, pageMarker, i+1)
		b.WriteString(p)
	}
	return b.String()
}

// isPDF checks the file signature rather than trusting names or headers.
func isPDF(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, 5)
	n, _ := f.Read(head)
	return n == 5 && string(head) == "%PDF-"
}

func sniffContentType(f *os.File) string {
	head := make([]byte, 512)
	n, _ := f.Read(head)
	ct := http.DetectContentType(head[:n])
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return ct
}
