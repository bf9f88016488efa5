package extract

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuchat/docuchat/internal/domain"
)

func TestExtract_PlainText(t *testing.T) {
	e := NewFitzExtractor()
	text, err := e.Extract(context.Background(), File{Name: "notes.txt", Data: []byte("hello world")})
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestExtract_Markdown(t *testing.T) {
	e := NewFitzExtractor()
	text, err := e.Extract(context.Background(), File{Name: "README.md", Data: []byte("# title")})
	require.NoError(t, err)
	assert.Equal(t, "# title", text)
}

func TestExtract_Image(t *testing.T) {
	e := NewFitzExtractor()
	raw := []byte{0x89, 0x50, 0x4e, 0x47}
	text, err := e.Extract(context.Background(), File{Name: "chart.png", Data: raw})
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(raw), text)
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	e := NewFitzExtractor()
	_, err := e.Extract(context.Background(), File{Name: "archive.tar.gz", Data: []byte("x")})
	require.Error(t, err)

	var exterr *domain.ExtractionError
	require.True(t, errors.As(err, &exterr))
	assert.Equal(t, "archive.tar.gz", exterr.Filename)
}
