package llm

import (
	"context"
	"sync"

	"tripscout/internal/domain"
)

// ScriptedProvider replays a fixed sequence of replies. It backs offline
// demos and tests where a real model is unavailable; once the script is
// exhausted it answers with a canned text reply.
type ScriptedProvider struct {
	mu      sync.Mutex
	replies []*domain.ChatReply
}

// NewScriptedProvider returns a provider that answers with the given replies
// in order.
func NewScriptedProvider(replies ...*domain.ChatReply) *ScriptedProvider {
	return &ScriptedProvider{replies: replies}
}

// Chat implements domain.LLMProvider by popping the next scripted reply.
func (p *ScriptedProvider) Chat(ctx context.Context, _ string, _ []domain.ChatMessage, _ []domain.ToolDefinition) (*domain.ChatReply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.replies) == 0 {
		return &domain.ChatReply{
			Text:       "I'm running in scripted mode with no replies left. Configure the anthropic provider for a real conversation.",
			StopReason: "end_turn",
		}, nil
	}
	next := p.replies[0]
	p.replies = p.replies[1:]
	return next, nil
}

var _ domain.LLMProvider = (*ScriptedProvider)(nil)
