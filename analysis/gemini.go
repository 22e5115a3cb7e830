package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"clauseguard-backend/models"

	"github.com/google/generative-ai-go/genai"
)

const (
	defaultEmbeddingAPI  = "https://generativelanguage.googleapis.com/v1beta/models/gemini-embedding-001:embedContent"
	defaultGenerationAPI = "https://generativelanguage.googleapis.com/v1beta/models/gemini-3-pro-preview:generateContent"
	maxRetries           = 3
	initialBackoff       = time.Second
	maxPromptChars       = 30000
)

// PatternRetriever looks up annotated example clauses similar to a
// query embedding. Implemented by the clause pattern repository.
type PatternRetriever interface {
	SearchSimilar(ctx context.Context, embedding []float64, limit int) ([]models.ClausePattern, error)
}

// GeminiClassifier classifies segments with the Gemini generation API.
// When a pattern retriever is configured, the prompt carries the most
// similar annotated clauses from the knowledge base as grounded
// examples.
type GeminiClassifier struct {
	client        *genai.Client
	retriever     PatternRetriever
	generationAPI string
	embeddingAPI  string
	httpClient    *http.Client
}

// GeminiClassifierOption is a functional option for GeminiClassifier
type GeminiClassifierOption func(*GeminiClassifier)

// GeminiWithClient sets the Gemini client
func GeminiWithClient(client *genai.Client) GeminiClassifierOption {
	return func(c *GeminiClassifier) {
		c.client = client
	}
}

// GeminiWithPatternRetriever sets the clause pattern retriever
func GeminiWithPatternRetriever(r PatternRetriever) GeminiClassifierOption {
	return func(c *GeminiClassifier) {
		c.retriever = r
	}
}

// GeminiWithEndpoints overrides the REST endpoints (used in tests)
func GeminiWithEndpoints(generationAPI, embeddingAPI string) GeminiClassifierOption {
	return func(c *GeminiClassifier) {
		c.generationAPI = generationAPI
		c.embeddingAPI = embeddingAPI
	}
}

// NewGeminiClassifier creates a Gemini-backed classifier
func NewGeminiClassifier(opts ...GeminiClassifierOption) *GeminiClassifier {
	c := &GeminiClassifier{
		generationAPI: defaultGenerationAPI,
		embeddingAPI:  defaultEmbeddingAPI,
		httpClient:    &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// classifierResponse is the JSON shape the model is asked to return
type classifierResponse struct {
	Risks []struct {
		Title          string `json:"title"`
		Description    string `json:"description"`
		Severity       string `json:"severity"`
		Category       string `json:"category"`
		Recommendation string `json:"recommendation,omitempty"`
	} `json:"risks"`
}

// Classify sends one segment to the generation API and parses the
// returned risk list. Out-of-taxonomy categories are dropped with a
// logged diagnostic. A malformed model answer fails only this segment;
// transport and auth failures surface as ErrClassifierUnavailable.
func (c *GeminiClassifier) Classify(ctx context.Context, seg Segment, doc *DocumentContext) ([]models.RiskRecord, error) {
	if c.client == nil {
		return nil, fmt.Errorf("%w: gemini client not set", ErrClassifierUnavailable)
	}

	prompt := c.buildPrompt(ctx, seg, doc)

	text, err := c.callGenerationAPI(ctx, prompt, 0)
	if err != nil {
		return nil, err
	}

	parsed, err := parseClassifierResponse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse classifier response: %w", err)
	}

	records := make([]models.RiskRecord, 0, len(parsed.Risks))
	for _, risk := range parsed.Risks {
		rec := models.RiskRecord{
			Title:       risk.Title,
			Description: risk.Description,
			Severity:    models.Severity(strings.ToLower(risk.Severity)),
			Category:    models.Category(strings.ToLower(risk.Category)),
		}
		if !rec.Category.IsValid() {
			log.Printf("Warning: Dropping out-of-taxonomy finding %q (category %q) for segment %s", risk.Title, risk.Category, seg.ID)
			continue
		}
		if risk.Recommendation != "" {
			recommendation := risk.Recommendation
			rec.Recommendation = &recommendation
		}
		records = append(records, rec)
	}
	return records, nil
}

// buildPrompt assembles the extraction prompt for one segment,
// including retrieved example clauses when a retriever is configured
func (c *GeminiClassifier) buildPrompt(ctx context.Context, seg Segment, doc *DocumentContext) string {
	var examples strings.Builder
	if c.retriever != nil {
		patterns, err := c.retrievePatterns(ctx, seg.Text)
		if err != nil {
			log.Printf("Warning: Failed to retrieve clause patterns for %s: %v. Continuing without examples.", seg.ID, err)
		}
		for _, p := range patterns {
			examples.WriteString(fmt.Sprintf("Clause: %s\nRisk: %s (category: %s, severity: %s)\n\n",
				p.ClauseText, p.Title, p.Category, p.Severity))
		}
	}

	var contextNotes strings.Builder
	if doc.HasPerpetualDuration {
		contextNotes.WriteString("- Another clause in this contract makes obligations perpetual or indefinite.\n")
	}
	if !doc.HasLiabilityCap {
		contextNotes.WriteString("- No clause in this contract caps liability.\n")
	}
	if !doc.HasCompensationFloor {
		contextNotes.WriteString("- No clause in this contract guarantees a compensation floor.\n")
	}

	prompt := fmt.Sprintf(`You are a contract risk assessment expert. Analyze this contract clause and identify potential risks from the contractor/employee's perspective.

CLAUSE:
%s

DOCUMENT CONTEXT:
%s

SIMILAR ANNOTATED CLAUSES:
%s

For each identified risk:
1. Categorize into one of these categories: compensation, termination, ip, covenants, confidentiality, liability
2. Assign severity: "high" for quantifiable financial or legal exposure (uncapped liability, missing compensation floor), "medium" for procedural asymmetries (notice periods, vague termination grounds), "low" for stylistic or low-exposure issues
3. Provide a clear description of the risk and its contractual basis
4. Include a specific recommendation to address or mitigate the risk

Format your response exactly like this example:
{
    "risks": [
        {
            "title": "Long Non-Compete Duration",
            "description": "The non-compete clause extends for 2 years, which is longer than industry standard.",
            "severity": "high",
            "category": "covenants",
            "recommendation": "Negotiate to reduce the non-compete period to 6-12 months"
        }
    ]
}

If the clause carries no risk, return {"risks": []}.
IMPORTANT: Return only the JSON object, no other text.`,
		seg.Text, contextNotes.String(), examples.String())

	if len(prompt) > maxPromptChars {
		prompt = prompt[:maxPromptChars] + "\n\n[Content truncated due to length...]"
		log.Printf("Warning: Prompt too long for segment %s, truncating to %d chars", seg.ID, maxPromptChars)
	}
	return prompt
}

// retrievePatterns embeds the segment text and queries the pattern
// knowledge base for the closest annotated clauses
func (c *GeminiClassifier) retrievePatterns(ctx context.Context, text string) ([]models.ClausePattern, error) {
	embedding, err := c.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	return c.retriever.SearchSimilar(ctx, embedding, 3)
}

// parseClassifierResponse decodes the model answer, tolerating the
// markdown code fences Gemini sometimes wraps JSON in
func parseClassifierResponse(text string) (*classifierResponse, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var parsed classifierResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

// callGenerationAPI calls the Gemini generation API directly via HTTP
func (c *GeminiClassifier) callGenerationAPI(ctx context.Context, prompt string, temperature float64) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("%w: GEMINI_API_KEY not set", ErrClassifierUnavailable)
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature": temperature,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.generationAPI, bytes.NewBuffer(jsonData))
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusOK {
			text, err := decodeGenerationResponse(resp.Body)
			resp.Body.Close()
			if err != nil {
				lastErr = err
				continue
			}
			return text, nil
		}

		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		// Don't retry on 400 or 401 errors
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return "", fmt.Errorf("%w: API error %d - %s", ErrClassifierUnavailable, resp.StatusCode, string(bodyBytes))
		}
		lastErr = fmt.Errorf("API error: %d - %s", resp.StatusCode, string(bodyBytes))
	}

	return "", fmt.Errorf("%w: after %d attempts: %v", ErrClassifierUnavailable, maxRetries, lastErr)
}

// decodeGenerationResponse extracts the concatenated candidate text
// from a generateContent response body
func decodeGenerationResponse(body io.Reader) (string, error) {
	var apiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason,omitempty"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason,omitempty"`
		} `json:"promptFeedback,omitempty"`
		Error struct {
			Code    int    `json:"code,omitempty"`
			Message string `json:"message,omitempty"`
		} `json:"error,omitempty"`
	}

	if err := json.NewDecoder(body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if apiResp.Error.Message != "" {
		return "", fmt.Errorf("API error: %s (code: %d)", apiResp.Error.Message, apiResp.Error.Code)
	}
	if apiResp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("API blocked prompt: %s", apiResp.PromptFeedback.BlockReason)
	}
	if len(apiResp.Candidates) == 0 {
		return "", fmt.Errorf("API returned no candidates")
	}

	var responseText strings.Builder
	for i, candidate := range apiResp.Candidates {
		if candidate.FinishReason != "" && candidate.FinishReason != "STOP" {
			log.Printf("Warning: Candidate %d finished with reason: %s", i, candidate.FinishReason)
		}
		for _, part := range candidate.Content.Parts {
			responseText.WriteString(part.Text)
		}
	}

	result := responseText.String()
	if result == "" {
		return "", fmt.Errorf("API returned empty content")
	}
	return result, nil
}

// embeddingRequest represents an embedding API request
type embeddingRequest struct {
	Model                string       `json:"model"`
	Content              contentInput `json:"content"`
	TaskType             string       `json:"task_type,omitempty"`
	OutputDimensionality int          `json:"output_dimensionality,omitempty"`
}

type contentInput struct {
	Parts []partInput `json:"parts"`
}

type partInput struct {
	Text string `json:"text"`
}

// embeddingResponse represents an embedding API response
type embeddingResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

// GenerateEmbedding embeds a piece of clause text into a normalized
// 768-dimension vector via the Gemini embedding API
func (c *GeminiClassifier) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	reqBody := embeddingRequest{
		Model: "models/gemini-embedding-001",
		Content: contentInput{
			Parts: []partInput{{Text: text}},
		},
		TaskType:             "RETRIEVAL_QUERY",
		OutputDimensionality: 768,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.embeddingAPI, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusOK {
			var apiResp embeddingResponse
			err := json.NewDecoder(resp.Body).Decode(&apiResp)
			resp.Body.Close()
			if err != nil {
				lastErr = fmt.Errorf("failed to decode response: %w", err)
				continue
			}
			return normalize(apiResp.Embedding.Values), nil
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("API error: %d", resp.StatusCode)
		}
		lastErr = fmt.Errorf("API error: %d", resp.StatusCode)
	}

	return nil, fmt.Errorf("embedding failed after %d attempts: %v", maxRetries, lastErr)
}

// normalize scales a vector to unit length
func normalize(embedding []float64) []float64 {
	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range embedding {
			embedding[i] /= norm
		}
	}
	return embedding
}
