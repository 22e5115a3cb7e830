package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"clauseguard-backend/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func testGenaiClient(t *testing.T) *genai.Client {
	t.Helper()
	client, err := genai.NewClient(context.Background(), option.WithAPIKey("test-key"))
	require.NoError(t, err)
	return client
}

// generationResponse wraps model text in the generateContent response shape
func generationResponse(text string) string {
	payload := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]interface{}{
						{"text": text},
					},
				},
				"finishReason": "STOP",
			},
		},
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func TestGeminiClassifierParsesFencedResponse(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	modelAnswer := "```json\n" + `{
		"risks": [
			{
				"title": "Long Non-Compete Duration",
				"description": "The non-compete clause extends for 2 years.",
				"severity": "HIGH",
				"category": "Covenants",
				"recommendation": "Negotiate the period down to 6-12 months"
			}
		]
	}` + "\n```"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, generationResponse(modelAnswer))
	}))
	defer server.Close()

	classifier := NewGeminiClassifier(
		GeminiWithClient(testGenaiClient(t)),
		GeminiWithEndpoints(server.URL, server.URL),
	)

	seg := Segment{ID: "seg-1", Text: "The Contractor shall not compete for two years."}
	records, err := classifier.Classify(context.Background(), seg, &DocumentContext{SegmentCount: 1})
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "Long Non-Compete Duration", records[0].Title)
	assert.Equal(t, models.SeverityHigh, records[0].Severity)
	assert.Equal(t, models.CategoryCovenants, records[0].Category)
	require.NotNil(t, records[0].Recommendation)
	assert.NoError(t, ValidateRecord(records[0]))
}

func TestGeminiClassifierDropsOutOfTaxonomy(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	modelAnswer := `{
		"risks": [
			{"title": "Warranty Gap", "description": "No warranty coverage.", "severity": "high", "category": "warranty"},
			{"title": "Uncapped Indemnification", "description": "No monetary cap.", "severity": "high", "category": "liability"}
		]
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, generationResponse(modelAnswer))
	}))
	defer server.Close()

	classifier := NewGeminiClassifier(
		GeminiWithClient(testGenaiClient(t)),
		GeminiWithEndpoints(server.URL, server.URL),
	)

	seg := Segment{ID: "seg-1", Text: "The Contractor shall indemnify the Company."}
	records, err := classifier.Classify(context.Background(), seg, &DocumentContext{SegmentCount: 1})
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, models.CategoryLiability, records[0].Category)
}

func TestGeminiClassifierMalformedAnswerFailsSegmentOnly(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, generationResponse("I could not analyze this clause."))
	}))
	defer server.Close()

	classifier := NewGeminiClassifier(
		GeminiWithClient(testGenaiClient(t)),
		GeminiWithEndpoints(server.URL, server.URL),
	)

	seg := Segment{ID: "seg-1", Text: "Some clause."}
	_, err := classifier.Classify(context.Background(), seg, &DocumentContext{SegmentCount: 1})

	// A malformed answer is a per-segment failure, not a systemic one
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrClassifierUnavailable))
}

func TestGeminiClassifierAuthFailureIsUnavailable(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "bad-key")

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	classifier := NewGeminiClassifier(
		GeminiWithClient(testGenaiClient(t)),
		GeminiWithEndpoints(server.URL, server.URL),
	)

	seg := Segment{ID: "seg-1", Text: "Some clause."}
	_, err := classifier.Classify(context.Background(), seg, &DocumentContext{SegmentCount: 1})

	assert.ErrorIs(t, err, ErrClassifierUnavailable)
	// 401 is not retried
	assert.Equal(t, int32(1), requests.Load())
}

func TestGeminiClassifierRetryBackoffHonorsCancellation(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	// Every attempt fails with a retryable status, forcing the backoff
	// wait between attempts
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	classifier := NewGeminiClassifier(
		GeminiWithClient(testGenaiClient(t)),
		GeminiWithEndpoints(server.URL, server.URL),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	seg := Segment{ID: "seg-1", Text: "Some clause."}
	start := time.Now()
	_, err := classifier.Classify(ctx, seg, &DocumentContext{SegmentCount: 1})
	elapsed := time.Since(start)

	// The deadline fires during the first backoff window; the call must
	// return promptly instead of sleeping out the full backoff
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, initialBackoff)
}

func TestGeminiClassifierMissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	classifier := NewGeminiClassifier(GeminiWithClient(testGenaiClient(t)))

	seg := Segment{ID: "seg-1", Text: "Some clause."}
	_, err := classifier.Classify(context.Background(), seg, &DocumentContext{SegmentCount: 1})
	assert.ErrorIs(t, err, ErrClassifierUnavailable)
}

func TestGeminiClassifierMissingClient(t *testing.T) {
	classifier := NewGeminiClassifier()

	seg := Segment{ID: "seg-1", Text: "Some clause."}
	_, err := classifier.Classify(context.Background(), seg, &DocumentContext{SegmentCount: 1})
	assert.ErrorIs(t, err, ErrClassifierUnavailable)
}

// stubRetriever returns a fixed pattern list for any query
type stubRetriever struct {
	patterns []models.ClausePattern
}

func (s *stubRetriever) SearchSimilar(ctx context.Context, embedding []float64, limit int) ([]models.ClausePattern, error) {
	return s.patterns, nil
}

func TestGeminiClassifierPromptCarriesRetrievedPatterns(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	var prompt string
	generation := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		prompt = req.Contents[0].Parts[0].Text
		fmt.Fprint(w, generationResponse(`{"risks": []}`))
	}))
	defer generation.Close()

	embedding := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		values := make([]float64, 768)
		values[0] = 1
		json.NewEncoder(w).Encode(map[string]interface{}{
			"embedding": map[string]interface{}{"values": values},
		})
	}))
	defer embedding.Close()

	classifier := NewGeminiClassifier(
		GeminiWithClient(testGenaiClient(t)),
		GeminiWithEndpoints(generation.URL, embedding.URL),
		GeminiWithPatternRetriever(&stubRetriever{patterns: []models.ClausePattern{
			{
				ClauseText: "Contractor receives commission only, with no base pay.",
				Category:   models.CategoryCompensation,
				Severity:   models.SeverityHigh,
				Title:      "No Guaranteed Compensation Floor",
			},
		}}),
	)

	seg := Segment{ID: "seg-1", Text: "Compensation is paid solely from commission."}
	records, err := classifier.Classify(context.Background(), seg, &DocumentContext{SegmentCount: 1})
	require.NoError(t, err)
	assert.Empty(t, records)

	assert.Contains(t, prompt, seg.Text)
	assert.Contains(t, prompt, "No Guaranteed Compensation Floor")
	assert.Contains(t, prompt, "compensation, termination, ip, covenants, confidentiality, liability")
}

func TestParseClassifierResponse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{
			name:  "bare json",
			input: `{"risks": []}`,
			want:  0,
		},
		{
			name:  "json fence",
			input: "```json\n{\"risks\": [{\"title\": \"t\", \"description\": \"d\", \"severity\": \"low\", \"category\": \"ip\"}]}\n```",
			want:  1,
		},
		{
			name:  "plain fence",
			input: "```\n{\"risks\": []}\n```",
			want:  0,
		},
		{
			name:    "prose",
			input:   "no risks found",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := parseClassifierResponse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, parsed.Risks, tt.want)
		})
	}
}
