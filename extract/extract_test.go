package extract

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// writeDOCX builds a minimal .docx in dir whose document.xml contains the
// given paragraphs.
func writeDOCX(t *testing.T, dir string, paragraphs []string) string {
	t.Helper()

	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>`)
		if err := xmlEscape(&body, p); err != nil {
			t.Fatal(err)
		}
		body.WriteString(`</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	path := filepath.Join(dir, "cv.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(body.String()))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return path
}

func xmlEscape(b *strings.Builder, s string) error {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	_, err := b.WriteString(r.Replace(s))
	return err
}

func TestServiceExtractDOCX(t *testing.T) {
	path := writeDOCX(t, t.TempDir(), []string{"A", "", "   ", "B"})

	svc := NewService(zap.NewNop())
	got := svc.Extract(path)

	assert.Equal(t, "A\nB", got)
}

func TestServiceExtractDiagnostics(t *testing.T) {
	svc := NewService(zap.NewNop())

	t.Run("empty path", func(t *testing.T) {
		assert.Equal(t, "No CV file provided.", svc.Extract(""))
		assert.Equal(t, "No CV file provided.", svc.Extract("   "))
	})

	t.Run("unsupported extension", func(t *testing.T) {
		got := svc.Extract("/tmp/photo.png")
		assert.Equal(t, "Unsupported file type: .png. Please upload PDF or DOCX.", got)
	})

	t.Run("missing file", func(t *testing.T) {
		got := svc.Extract(filepath.Join(t.TempDir(), "nope.docx"))
		assert.True(t, strings.HasPrefix(got, "Error reading CV file: "), got)
	})

	t.Run("corrupt docx", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.docx")
		require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))
		got := svc.Extract(path)
		assert.Contains(t, got, "Error reading CV file:")
	})
}

func TestServiceExtractMissingDocumentXML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	_, err = zw.Create("word/other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	svc := NewService(zap.NewNop())
	got := svc.Extract(path)
	assert.Contains(t, got, "docx missing word/document.xml")
}

type stubExtractor struct {
	text string
}

func (s *stubExtractor) Extract(string) (string, error) { return s.text, nil }
func (s *stubExtractor) SupportedTypes() []string       { return []string{".txt"} }

func TestServiceRegister(t *testing.T) {
	svc := NewService(nil)
	svc.Register(".TXT", &stubExtractor{text: "plain"})

	assert.Equal(t, "plain", svc.Extract("/tmp/cv.txt"))
}

func TestDOCXExtractorSupportedTypes(t *testing.T) {
	assert.Equal(t, []string{".docx"}, NewDOCXExtractor().SupportedTypes())
}
