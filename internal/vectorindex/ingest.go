package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// ErrNoDocuments is returned by Build when the data folder yields nothing
// to index. The output file is left untouched.
var ErrNoDocuments = errors.New("no resources found to index")

// ReadDir loads every *.json and *.docx file in dir. A JSON file holds an
// array of {title, url, description} records; a DOCX file holds one
// "Title - URL - Description" record per paragraph. Unreadable files are
// logged and skipped; records without both title and url are dropped.
func ReadDir(dir string, logger *slog.Logger) ([]Document, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var files []string
	for _, pattern := range []string{"*.json", "*.docx"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("list data files: %w", err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	logger.Info("resource files found", slog.String("dir", dir), slog.Int("files", len(files)))

	var docs []Document
	for _, file := range files {
		loaded, err := readFile(file)
		if err != nil {
			logger.Warn("resource file skipped", slog.String("file", file), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("resource file loaded", slog.String("file", file), slog.Int("items", len(loaded)))
		docs = append(docs, loaded...)
	}
	return docs, nil
}

func readFile(path string) ([]Document, error) {
	var (
		records []Document
		err     error
	)
	if strings.EqualFold(filepath.Ext(path), ".docx") {
		records, err = readDocx(path)
	} else {
		records, err = readJSON(path)
	}
	if err != nil {
		return nil, err
	}

	docs := records[:0]
	for _, r := range records {
		r.Title = strings.TrimSpace(r.Title)
		r.URL = strings.TrimSpace(r.URL)
		r.Description = strings.TrimSpace(r.Description)
		r.Score = 0
		if r.Title == "" || r.URL == "" {
			continue
		}
		docs = append(docs, r)
	}
	return docs, nil
}

func readJSON(path string) ([]Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []Document
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return records, nil
}

// EmbedText is the text embedded for a document.
func EmbedText(d Document) string {
	return d.Title + " " + d.Description
}

// Build indexes every resource under dir and writes the index to out,
// returning the number of documents written.
func Build(ctx context.Context, dir, out string, embedder Embedder, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	docs, err := ReadDir(dir, logger)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, ErrNoDocuments
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = EmbedText(d)
	}
	logger.Info("embedding resources", slog.Int("documents", len(docs)), slog.String("embedder", embedder.Name()))
	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed documents: %w", err)
	}
	if _, err := New(embedder, docs, vectors); err != nil {
		return 0, fmt.Errorf("embedder output: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return 0, fmt.Errorf("create index dir: %w", err)
	}
	store, err := CreateStore(out)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	if err := store.Replace(ctx, docs, vectors); err != nil {
		return 0, err
	}
	logger.Info("index written", slog.String("path", out), slog.Int("documents", len(docs)))
	return len(docs), nil
}
