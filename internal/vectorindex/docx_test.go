package vectorindex

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeDocx writes a minimal Word document whose body holds one <w:p> per
// paragraph. Each paragraph is a list of runs.
func writeDocx(t *testing.T, path string, paragraphs ...[]string) {
	t.Helper()
	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, runs := range paragraphs {
		body.WriteString(`<w:p>`)
		for _, r := range runs {
			body.WriteString(`<w:r><w:t xml:space="preserve">` + r + `</w:t></w:r>`)
		}
		body.WriteString(`</w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<Types/>`))
	require.NoError(t, err)
	w, err = zw.Create(docxBody)
	require.NoError(t, err)
	_, err = w.Write([]byte(body.String()))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestReadDocx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.docx")
	writeDocx(t, path,
		[]string{"Go tour - https://go.dev/tour - Interactive intro - with exercises"},
		[]string{"Effective ", "Go - https://go.dev/doc/effective_go"},
		[]string{"   "},
		[]string{"Heading without a link"},
		[]string{"Escaped &amp; title - https://example.com/a?x=1&amp;y=2 - Ampersands"},
	)

	docs, err := readFile(path)
	require.NoError(t, err)

	assert.Equal(t, []Document{
		{Title: "Go tour", URL: "https://go.dev/tour", Description: "Interactive intro - with exercises"},
		{Title: "Effective Go", URL: "https://go.dev/doc/effective_go"},
		{Title: "Escaped & title", URL: "https://example.com/a?x=1&y=2", Description: "Ampersands"},
	}, docs)
}

func TestReadDocx_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.docx")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	_, err := readFile(path)
	assert.ErrorContains(t, err, "open docx")
}

func TestReadDocx_MissingBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	_, err = zw.Create("docProps/app.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = readFile(path)
	assert.ErrorContains(t, err, "docx has no word/document.xml")
}

func TestBuild_MixesJSONAndDocx(t *testing.T) {
	data := t.TempDir()
	writeData(t, data, map[string]string{
		"python.json": `[{"title": "Python for loops", "url": "https://docs.python.org/3/tutorial/controlflow.html"}]`,
		"broken.docx": `not a zip`,
	})
	writeDocx(t, filepath.Join(data, "go.docx"),
		[]string{"Go channels - https://go.dev/tour/concurrency/2 - Goroutines communicate over channels"},
	)
	out := filepath.Join(t.TempDir(), "index.db")

	n, err := Build(context.Background(), data, out, HashEmbedder{}, quietLogger)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ix, err := Load(context.Background(), out, HashEmbedder{})
	require.NoError(t, err)
	docs, err := ix.Search(context.Background(), "channels", 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "https://go.dev/tour/concurrency/2", docs[0].URL)
}
