package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"tripscout/internal/domain"
)

const anthropicAPIBase = "https://api.anthropic.com/v1/messages"

// AnthropicProvider calls the Anthropic Messages API with function-calling
// enabled: tool definitions go out on each request, tool_use blocks come back
// as domain.ToolInvocations.
type AnthropicProvider struct {
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
	version   string
	baseURL   string
}

// NewAnthropicProvider returns an Anthropic-backed LLMProvider.
func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	return &AnthropicProvider{
		apiKey:    apiKey,
		model:     model,
		maxTokens: 1024,
		client:    &http.Client{},
		version:   "2023-06-01",
		baseURL:   anthropicAPIBase,
	}
}

type anthropicRequest struct {
	Model     string                  `json:"model"`
	MaxTokens int                     `json:"max_tokens"`
	System    string                  `json:"system,omitempty"`
	Messages  []anthropicMessage      `json:"messages"`
	Tools     []domain.ToolDefinition `json:"tools,omitempty"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

// anthropicBlock is the union of the content block shapes this provider
// sends and receives: text, tool_use, tool_result.
type anthropicBlock struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

type anthropicResponse struct {
	Content    []anthropicBlock `json:"content"`
	StopReason string           `json:"stop_reason"`
}

// Chat implements domain.LLMProvider.
func (p *AnthropicProvider) Chat(ctx context.Context, system string, history []domain.ChatMessage, tools []domain.ToolDefinition) (*domain.ChatReply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body := anthropicRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		System:    system,
		Messages:  toWireMessages(history),
		Tools:     tools,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("anthropic marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("anthropic request: %w", err)
	}
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", p.version)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("anthropic api: %s", resp.Status)
	}

	var out anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("anthropic decode: %w", err)
	}
	return fromWireResponse(out), nil
}

// toWireMessages converts the domain transcript to Anthropic content blocks.
func toWireMessages(history []domain.ChatMessage) []anthropicMessage {
	out := make([]anthropicMessage, 0, len(history))
	for _, msg := range history {
		var blocks []anthropicBlock
		if msg.Text != "" {
			blocks = append(blocks, anthropicBlock{Type: "text", Text: msg.Text})
		}
		for _, call := range msg.ToolCalls {
			blocks = append(blocks, anthropicBlock{
				Type:  "tool_use",
				ID:    call.ID,
				Name:  call.Name,
				Input: call.Args,
			})
		}
		for _, res := range msg.ToolResults {
			blocks = append(blocks, anthropicBlock{
				Type:      "tool_result",
				ToolUseID: res.InvocationID,
				Content:   toolResultContent(res),
				IsError:   !res.OK(),
			})
		}
		if len(blocks) == 0 {
			continue
		}
		out = append(out, anthropicMessage{Role: msg.Role, Content: blocks})
	}
	return out
}

// toolResultContent renders a result for the model: the serialized value on
// success, the error message on failure.
func toolResultContent(res domain.ToolResult) string {
	if !res.OK() {
		return res.ErrorMessage
	}
	return string(res.Value)
}

func fromWireResponse(resp anthropicResponse) *domain.ChatReply {
	reply := &domain.ChatReply{StopReason: resp.StopReason}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			reply.Text += block.Text
		case "tool_use":
			reply.ToolCalls = append(reply.ToolCalls, domain.ToolInvocation{
				ID:   block.ID,
				Name: block.Name,
				Args: block.Input,
			})
		}
	}
	return reply
}

var _ domain.LLMProvider = (*AnthropicProvider)(nil)
