package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// uploadRequest builds a multipart upload request with the given form
// fields and one file part carrying an explicit content type
func uploadRequest(t *testing.T, fields map[string]string, filename, contentType string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if filename != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/contracts/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// errorCode decodes the handler's error envelope and returns its code
func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	return resp.Error.Code
}

func uploadRouter(h *ContractHandler) *gin.Engine {
	r := gin.New()
	r.POST("/api/contracts/upload", h.UploadContract)
	r.GET("/api/contracts/:id", h.GetContract)
	return r
}

func TestUploadContractMissingUserID(t *testing.T) {
	h := NewContractHandler(nil, nil)
	w := httptest.NewRecorder()

	req := uploadRequest(t, nil, "contract.txt", "text/plain", []byte("clause text"))
	uploadRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_USER_ID", errorCode(t, w))
}

func TestUploadContractInvalidUserID(t *testing.T) {
	h := NewContractHandler(nil, nil)
	w := httptest.NewRecorder()

	req := uploadRequest(t, map[string]string{"user_id": "not-a-uuid"},
		"contract.txt", "text/plain", []byte("clause text"))
	uploadRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_USER_ID", errorCode(t, w))
}

func TestUploadContractMissingFile(t *testing.T) {
	h := NewContractHandler(nil, nil)
	w := httptest.NewRecorder()

	req := uploadRequest(t, map[string]string{"user_id": uuid.New().String()}, "", "", nil)
	uploadRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FILE", errorCode(t, w))
}

func TestUploadContractFileTooLarge(t *testing.T) {
	h := NewContractHandler(nil, nil)
	h.maxFileSize = 10
	w := httptest.NewRecorder()

	req := uploadRequest(t, map[string]string{"user_id": uuid.New().String()},
		"contract.txt", "text/plain", bytes.Repeat([]byte("a"), 32))
	uploadRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "FILE_TOO_LARGE", errorCode(t, w))
}

func TestUploadContractDisallowedFileType(t *testing.T) {
	h := NewContractHandler(nil, nil)
	w := httptest.NewRecorder()

	req := uploadRequest(t, map[string]string{"user_id": uuid.New().String()},
		"payload.exe", "application/octet-stream", []byte{0x4d, 0x5a})
	uploadRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FILE_TYPE", errorCode(t, w))
}

func TestGetContractInvalidID(t *testing.T) {
	h := NewContractHandler(nil, nil)
	w := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodGet, "/api/contracts/not-a-uuid", nil)
	uploadRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", errorCode(t, w))
}
