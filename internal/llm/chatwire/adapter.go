// Package chatwire implements the OpenAI-compatible chat-completion wire
// protocol shared by several vendors. Each vendor package configures an
// Adapter with its own base URL and model list; the request/response shape
// translation lives here exactly once.
package chatwire

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sqlscribe/sqlscribe/internal/llm"
)

// Config describes one vendor speaking the chat-completion protocol.
type Config struct {
	Name         string
	BaseURL      string
	DefaultModel string
	Models       []string
}

// Adapter implements llm.Provider over the chat-completion wire shape.
type Adapter struct {
	cfg    Config
	client *http.Client
}

// New creates an adapter for one chat-completion vendor.
func New(cfg Config) *Adapter {
	return &Adapter{
		cfg:    cfg,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

// Name returns the provider identifier.
func (a *Adapter) Name() string { return a.cfg.Name }

// AvailableModels returns list of supported models.
func (a *Adapter) AvailableModels() []string { return a.cfg.Models }

// DefaultModel returns the default model.
func (a *Adapter) DefaultModel() string { return a.cfg.DefaultModel }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type chatStreamFrame struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

type vendorError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate performs one non-streaming completion call.
func (a *Adapter) Generate(ctx context.Context, messages []llm.Message, opts llm.Options) (*llm.Response, error) {
	resp, err := a.post(ctx, messages, opts, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, &llm.ProviderError{
			Provider:   a.cfg.Name,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("undecodable response body: %v", err),
		}
	}
	if len(chatResp.Choices) == 0 {
		return nil, &llm.ProviderError{
			Provider:   a.cfg.Name,
			StatusCode: resp.StatusCode,
			Message:    "response contained no choices",
		}
	}

	return &llm.Response{
		Content: chatResp.Choices[0].Message.Content,
		Usage: &llm.Usage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:      chatResp.Usage.TotalTokens,
		},
	}, nil
}

// GenerateStream performs one streaming completion call. Malformed frames
// are skipped; the channel always ends with a single Done chunk and is then
// closed, including when the transport closes mid-frame.
func (a *Adapter) GenerateStream(ctx context.Context, messages []llm.Message, opts llm.Options) (<-chan llm.StreamChunk, error) {
	resp, err := a.post(ctx, messages, opts, true)
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
			if data == "[DONE]" {
				break
			}
			var frame chatStreamFrame
			if err := json.Unmarshal([]byte(data), &frame); err != nil {
				continue // best-effort: drop the malformed frame
			}
			if len(frame.Choices) == 0 || frame.Choices[0].Delta.Content == "" {
				continue
			}
			if !emit(llm.StreamChunk{Content: frame.Choices[0].Delta.Content}) {
				return
			}
		}
		// Scanner errors (abrupt close mid-frame) fall through here as well:
		// the partial frame is dropped and the stream still terminates.
		emit(llm.StreamChunk{Done: true})
	}()

	return ch, nil
}

func (a *Adapter) post(ctx context.Context, messages []llm.Message, opts llm.Options, stream bool) (*http.Response, error) {
	model := opts.Model
	if model == "" {
		model = a.cfg.DefaultModel
	}

	wireMessages := make([]chatMessage, len(messages))
	for i, m := range messages {
		wireMessages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    wireMessages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stream:      stream,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+opts.APIKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, &llm.TransportError{Provider: a.cfg.Name, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, a.readError(resp)
	}
	return resp, nil
}

func (a *Adapter) readError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	perr := &llm.ProviderError{Provider: a.cfg.Name, StatusCode: resp.StatusCode}
	var ve vendorError
	if err := json.Unmarshal(raw, &ve); err == nil && ve.Error.Message != "" {
		perr.Message = ve.Error.Message
	}
	return perr
}
