// Package gemini implements the Gemini generateContent wire protocol. It
// differs from the chat-completion vendors: the API key travels as a URL
// query parameter, conversations use user/model roles under contents, and
// system messages have no role of their own and are folded into the
// systemInstruction side channel.
package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sqlscribe/sqlscribe/internal/llm"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Provider implements llm.Provider for Gemini.
type Provider struct {
	defaultModel string
	baseURL      string
	client       *http.Client
}

// NewProvider creates the Gemini adapter.
func NewProvider(defaultModel string) llm.Provider {
	return newProvider(defaultBaseURL, defaultModel)
}

func newProvider(baseURL, defaultModel string) *Provider {
	if defaultModel == "" {
		defaultModel = "gemini-1.5-flash"
	}
	return &Provider{
		defaultModel: defaultModel,
		baseURL:      baseURL,
		client:       &http.Client{Timeout: 120 * time.Second},
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return "gemini" }

// AvailableModels returns list of supported models.
func (p *Provider) AvailableModels() []string {
	return []string{
		"gemini-1.5-pro",
		"gemini-1.5-flash",
		"gemini-2.0-flash",
	}
}

// DefaultModel returns the default model.
func (p *Provider) DefaultModel() string { return p.defaultModel }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

type geminiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate performs one non-streaming call.
func (p *Provider) Generate(ctx context.Context, messages []llm.Message, opts llm.Options) (*llm.Response, error) {
	resp, err := p.post(ctx, "generateContent", "", messages, opts)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, &llm.ProviderError{Provider: p.Name(), StatusCode: resp.StatusCode,
			Message: fmt.Sprintf("undecodable response body: %v", err)}
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, &llm.ProviderError{Provider: p.Name(), StatusCode: resp.StatusCode,
			Message: "response contained no candidates"}
	}

	var content strings.Builder
	for _, part := range gr.Candidates[0].Content.Parts {
		content.WriteString(part.Text)
	}

	return &llm.Response{
		Content: content.String(),
		Usage: &llm.Usage{
			PromptTokens:     gr.UsageMetadata.PromptTokenCount,
			CompletionTokens: gr.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      gr.UsageMetadata.TotalTokenCount,
		},
	}, nil
}

// GenerateStream performs one streaming call. Frames arrive in the same
// data: framing as the chat vendors but without a [DONE] sentinel; the
// stream ends at EOF.
func (p *Provider) GenerateStream(ctx context.Context, messages []llm.Message, opts llm.Options) (<-chan llm.StreamChunk, error) {
	resp, err := p.post(ctx, "streamGenerateContent", "alt=sse", messages, opts)
	if err != nil {
		return nil, err
	}

	ch := make(chan llm.StreamChunk)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		emit := func(chunk llm.StreamChunk) bool {
			select {
			case ch <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			var frame geminiResponse
			if err := json.Unmarshal([]byte(data), &frame); err != nil {
				continue
			}
			if len(frame.Candidates) == 0 || len(frame.Candidates[0].Content.Parts) == 0 {
				continue
			}
			if !emit(llm.StreamChunk{Content: frame.Candidates[0].Content.Parts[0].Text}) {
				return
			}
		}
		emit(llm.StreamChunk{Done: true})
	}()

	return ch, nil
}

func (p *Provider) post(ctx context.Context, method, extraQuery string, messages []llm.Message, opts llm.Options) (*http.Response, error) {
	model := opts.Model
	if model == "" {
		model = p.defaultModel
	}

	req := geminiRequest{}
	req.GenerationConfig.Temperature = opts.Temperature
	req.GenerationConfig.MaxOutputTokens = opts.MaxTokens

	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			if req.SystemInstruction == nil {
				req.SystemInstruction = &geminiContent{}
			}
			req.SystemInstruction.Parts = append(req.SystemInstruction.Parts, geminiPart{Text: m.Content})
			continue
		}
		role := "user"
		if m.Role == llm.RoleAssistant {
			role = "model"
		}
		req.Contents = append(req.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:%s?key=%s", p.baseURL, model, method, url.QueryEscape(opts.APIKey))
	if extraQuery != "" {
		endpoint += "&" + extraQuery
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &llm.TransportError{Provider: p.Name(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		perr := &llm.ProviderError{Provider: p.Name(), StatusCode: resp.StatusCode}
		var ge geminiError
		if err := json.Unmarshal(raw, &ge); err == nil && ge.Error.Message != "" {
			perr.Message = ge.Error.Message
		}
		return nil, perr
	}
	return resp, nil
}
