package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	contractID := uuid.New()

	path, err := store.Upload(ctx, contractID, "employment agreement.pdf", strings.NewReader("%PDF- fake content"))
	require.NoError(t, err)
	assert.Contains(t, path, contractID.String())
	assert.Contains(t, path, "employment_agreement")
	assert.NotContains(t, path, " ")

	reader, err := store.Download(ctx, path)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "%PDF- fake content", string(data))

	require.NoError(t, store.Delete(ctx, path))
	_, err = store.Download(ctx, path)
	assert.ErrorContains(t, err, "not found")
}

func TestLocalStorageDeleteMissingFile(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	// Deleting a path that does not exist is not an error
	assert.NoError(t, store.Delete(context.Background(), "contracts/ab/missing.pdf"))
}

func TestContentTypeForFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"contract.pdf", "application/pdf"},
		{"contract.PDF", "application/pdf"},
		{"notes.txt", "text/plain"},
		{"agreement.doc", "application/msword"},
		{"agreement.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"archive.zip", "application/octet-stream"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ContentTypeForFilename(tt.filename), tt.filename)
	}
}
