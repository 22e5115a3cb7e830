package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func assessmentRouter(h *AssessmentHandler) *gin.Engine {
	r := gin.New()
	r.POST("/api/contracts/:id/assess", h.StartAssessment)
	r.GET("/api/contracts/:id/report", h.GetReport)
	r.GET("/api/contracts/:id/terms", h.GetTerms)
	r.GET("/api/jobs/:id", h.GetJobStatus)
	return r
}

func TestAssessmentHandlersRejectMalformedIDs(t *testing.T) {
	h := NewAssessmentHandler(nil)
	router := assessmentRouter(h)

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"start assessment", http.MethodPost, "/api/contracts/not-a-uuid/assess"},
		{"get report", http.MethodGet, "/api/contracts/not-a-uuid/report"},
		{"get terms", http.MethodGet, "/api/contracts/not-a-uuid/terms"},
		{"get job status", http.MethodGet, "/api/jobs/not-a-uuid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "INVALID_ID", errorCode(t, w))
		})
	}
}
