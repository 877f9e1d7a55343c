package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBackendURL = "https://api.anthropic.com"
	backendAPIVersion = "2023-06-01"
	backendTimeout    = 120 * time.Second
	maxSummaryTokens  = 1024

	// Haiku-class pricing, USD per million tokens.
	inputCostPerMTok  = 1.00
	outputCostPerMTok = 5.00
)

// ClaudeBackend implements Summarizer against the Anthropic messages API.
// It is a thin request/response wrapper around one POST per document.
type ClaudeBackend struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClaudeBackend creates a backend with the given API key and model.
func NewClaudeBackend(apiKey, model string) *ClaudeBackend {
	return &ClaudeBackend{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBackendURL,
		httpClient: &http.Client{
			Timeout: backendTimeout,
		},
	}
}

// NewClaudeBackendWithBaseURL creates a backend pointing at a custom endpoint
// (for testing).
func NewClaudeBackendWithBaseURL(apiKey, model, baseURL string) *ClaudeBackend {
	b := NewClaudeBackend(apiKey, model)
	b.baseURL = strings.TrimRight(baseURL, "/")
	return b
}

type backendMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type backendRequest struct {
	Model     string           `json:"model"`
	MaxTokens int              `json:"max_tokens"`
	Messages  []backendMessage `json:"messages"`
}

type backendResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Summarize sends one document's extracted text to the model and returns the
// summary with token and cost accounting.
func (b *ClaudeBackend) Summarize(ctx context.Context, req SummaryRequest) (SummaryResult, error) {
	body, err := json.Marshal(backendRequest{
		Model:     b.model,
		MaxTokens: maxSummaryTokens,
		Messages:  []backendMessage{{Role: "user", Content: summaryPrompt(req)}},
	})
	if err != nil {
		return SummaryResult{}, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return SummaryResult{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", b.apiKey)
	httpReq.Header.Set("anthropic-version", backendAPIVersion)

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return SummaryResult{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return SummaryResult{}, fmt.Errorf("summarization backend returned %d: %s",
			resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed backendResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return SummaryResult{}, fmt.Errorf("decoding response: %w", err)
	}
	if len(parsed.Content) == 0 || parsed.Content[0].Text == "" {
		return SummaryResult{}, fmt.Errorf("backend returned no summary text")
	}

	in := parsed.Usage.InputTokens
	out := parsed.Usage.OutputTokens
	return SummaryResult{
		Summary:      parsed.Content[0].Text,
		Model:        b.model,
		InputTokens:  in,
		OutputTokens: out,
		CostUSD:      float64(in)/1e6*inputCostPerMTok + float64(out)/1e6*outputCostPerMTok,
	}, nil
}

// summaryPrompt frames one document for the model.
func summaryPrompt(req SummaryRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are analyzing a Los Angeles City Council document for council file %s.\n\n", req.CouncilFile)
	fmt.Fprintf(&sb, "Document name: %s\n", req.Title)
	if req.Category != "" {
		fmt.Fprintf(&sb, "Document category: %s\n", req.Category)
	}
	sb.WriteString(`
Please provide a concise summary (2-4 paragraphs) that covers:

1. What is being proposed - the main action or recommendation
2. Why - the rationale, background, or problem being addressed
3. Key details - important numbers, dates, locations, or stakeholders
4. Impact - who this affects and how

Focus on information that would help a resident understand what's happening and why it matters.
If this is a motion, explain what the motion is asking for.
If this is a committee report, explain the committee's recommendation and reasoning.
If this is an appeal, explain what is being appealed and the appellant's concerns.

Document text:

`)
	sb.WriteString(req.Text)
	return sb.String()
}
