package bookgen

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var contentTypes = map[string]string{
	"pdf":  "application/pdf",
	"epub": "application/epub+zip",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

var styles = map[string]bool{
	"modern": true, "classic": true, "elegant": true, "minimalist": true,
}

// Result describes one finished generation run.
type Result struct {
	ObjectKey   string
	ContentType string
	Pages       int
}

// Service turns an uploaded conversation export into a stored book artifact.
type Service struct {
	store  ObjectStore
	logger *zap.SugaredLogger
}

func NewService(store ObjectStore, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, logger: logger}
}

// Generate extracts the zip, paginates the conversations, renders the
// requested format and stores the artifact.
func (s *Service) Generate(ctx context.Context, userID int64, title, format, style string, archive io.ReaderAt, size int64) (*Result, error) {
	format = strings.ToLower(format)
	ct, ok := contentTypes[format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %q (pdf, epub or docx)", format)
	}
	if !styles[strings.ToLower(style)] {
		return nil, fmt.Errorf("unsupported style %q", style)
	}
	if title == "" {
		title = "Mon Livre Souvenir"
	}

	convs, err := ExtractArchive(archive, size)
	if err != nil {
		return nil, err
	}
	pages := Paginate(convs)

	var artifact []byte
	switch format {
	case "pdf":
		artifact = RenderPDF(title, pages)
	case "epub":
		artifact, err = RenderEPUB(title, pages)
	case "docx":
		artifact, err = RenderDOCX(title, pages)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}

	key := fmt.Sprintf("books/%d/%s.%s", userID, uuid.NewString(), format)
	if err := s.store.Put(ctx, key, artifact, ct); err != nil {
		return nil, err
	}

	s.logger.Infow("book generated",
		"user_id", userID, "format", format, "pages", len(pages), "bytes", len(artifact))

	return &Result{ObjectKey: key, ContentType: ct, Pages: len(pages)}, nil
}

// Open streams a previously generated artifact.
func (s *Service) Open(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	return s.store.Get(ctx, objectKey)
}
