// Package extract turns uploaded files into plain text for chunking.
// It is the boundary to the file-format collaborators; a failure here
// surfaces as a per-document ingestion failure, never a batch failure.
package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/docuchat/docuchat/internal/domain"
)

// File is an uploaded file as received from the transport layer.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Extractor converts a file into plain text.
type Extractor interface {
	Extract(ctx context.Context, file File) (string, error)
}

// FitzExtractor extracts text from PDFs and EPUBs via go-fitz, passes
// plain-text formats through unchanged, and encodes images as base64
// so their raw content can still be embedded.
type FitzExtractor struct{}

// NewFitzExtractor creates the default extractor.
func NewFitzExtractor() *FitzExtractor {
	return &FitzExtractor{}
}

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
}

// Extract returns the plain text of the file. Unsupported formats fail
// with a *domain.ExtractionError.
func (e *FitzExtractor) Extract(ctx context.Context, file File) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Name))
	if ext == "" && file.ContentType != "" {
		if exts, err := mime.ExtensionsByType(file.ContentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}

	switch {
	case ext == ".pdf" || ext == ".epub":
		text, err := extractDocument(file.Data)
		if err != nil {
			return "", &domain.ExtractionError{Filename: file.Name, Err: err}
		}
		return text, nil
	case ext == ".txt" || ext == ".md":
		return string(file.Data), nil
	case imageExts[ext]:
		return base64.StdEncoding.EncodeToString(file.Data), nil
	default:
		return "", &domain.ExtractionError{
			Filename: file.Name,
			Err:      fmt.Errorf("unsupported file format: %s", ext),
		}
	}
}

func extractDocument(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}
	defer doc.Close()

	var parts []string
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err == nil && strings.TrimSpace(text) != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}
