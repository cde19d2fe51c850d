// Package mock provides a test double for llm.Provider.
package mock

import (
	"context"
	"sync"

	"github.com/LBKdotdev/the-scoop/pkg/provider/llm"
)

// Provider is a configurable llm.Provider for tests. Set CompleteResponse
// or CompleteErr before use; requests are recorded for assertions.
type Provider struct {
	mu sync.Mutex

	// CompleteResponse is returned by Complete when CompleteErr is nil.
	CompleteResponse *llm.CompletionResponse

	// CompleteErr, when non-nil, is returned by Complete.
	CompleteErr error

	// Requests records every request passed to Complete, in order.
	Requests []llm.CompletionRequest
}

// Compile-time interface check.
var _ llm.Provider = (*Provider)(nil)

// Complete implements llm.Provider.
func (p *Provider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.Requests = append(p.Requests, req)
	p.mu.Unlock()

	if p.CompleteErr != nil {
		return nil, p.CompleteErr
	}
	if p.CompleteResponse != nil {
		return p.CompleteResponse, nil
	}
	return &llm.CompletionResponse{}, nil
}

// Name implements llm.Provider.
func (p *Provider) Name() string { return "mock" }
