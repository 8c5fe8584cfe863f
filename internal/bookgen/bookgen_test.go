package bookgen

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type memStore struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("no object %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func buildZip(t *testing.T, entries map[string]string) (*bytes.Reader, int64) {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return bytes.NewReader(buf.Bytes()), int64(buf.Len())
}

func TestGeneratePDFFromTextExport(t *testing.T) {
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, fmt.Sprintf("12/05/2023, 21:%02d - Awa: message numéro %d", i, i))
	}
	r, size := buildZip(t, map[string]string{"chat_awa.txt": strings.Join(lines, "\n")})

	svc := NewService(newMemStore(), zap.NewNop().Sugar())
	res, err := svc.Generate(context.Background(), 1, "Notre conversation", "pdf", "modern", r, size)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// 30 messages at 12 per page.
	if res.Pages != 3 {
		t.Errorf("pages = %d, want 3", res.Pages)
	}
	if res.ContentType != "application/pdf" {
		t.Errorf("content type = %s", res.ContentType)
	}
}

func TestGenerateFromJSONExport(t *testing.T) {
	r, size := buildZip(t, map[string]string{
		"export.json": `[{"sender":"Jean","text":"Bonjour"},{"sender":"Marie","text":"Très bien merci"}]`,
	})

	svc := NewService(newMemStore(), zap.NewNop().Sugar())
	res, err := svc.Generate(context.Background(), 1, "", "epub", "classic", r, size)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Pages != 1 {
		t.Errorf("pages = %d, want 1", res.Pages)
	}
}

func TestGenerateRejectsUnknownFormat(t *testing.T) {
	r, size := buildZip(t, map[string]string{"a.txt": "salut"})
	svc := NewService(newMemStore(), zap.NewNop().Sugar())
	if _, err := svc.Generate(context.Background(), 1, "t", "mobi", "modern", r, size); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestGenerateRejectsEmptyArchive(t *testing.T) {
	r, size := buildZip(t, map[string]string{"photo.jpg": "not text"})
	svc := NewService(newMemStore(), zap.NewNop().Sugar())
	if _, err := svc.Generate(context.Background(), 1, "t", "pdf", "modern", r, size); err == nil {
		t.Error("archive without conversations accepted")
	}
}

func TestExtractArchiveRejectsGarbage(t *testing.T) {
	raw := []byte("this is not a zip file")
	if _, err := ExtractArchive(bytes.NewReader(raw), int64(len(raw))); err == nil {
		t.Error("non-zip input accepted")
	}
}

func TestRenderPDFIsWellFormed(t *testing.T) {
	pdf := RenderPDF("Titre", []Page{{Heading: "chat", Lines: []string{"Awa: salut (test)"}}})
	if !bytes.HasPrefix(pdf, []byte("%PDF-1.4")) {
		t.Error("missing pdf header")
	}
	if !bytes.Contains(pdf, []byte("%%EOF")) {
		t.Error("missing pdf trailer")
	}
	if !bytes.Contains(pdf, []byte(`Awa: salut \(test\)`)) {
		t.Error("parentheses not escaped in content stream")
	}
}
