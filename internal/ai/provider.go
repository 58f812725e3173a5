package ai

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"resumelift/internal/errors"
	"resumelift/internal/types"
)

// ProviderID identifies a completion vendor.
type ProviderID string

const (
	ProviderOpenAI    ProviderID = "openai"
	ProviderAnthropic ProviderID = "anthropic"
	ProviderGemini    ProviderID = "gemini"
)

// Valid reports whether the ID names a built-in vendor.
func (p ProviderID) Valid() bool {
	switch p {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
		return true
	}
	return false
}

func (p ProviderID) String() string {
	return string(p)
}

// CompletionRequest carries one prompt pair plus generation parameters.
// Credentials travel per request so a fallback target can use its own key
// without rebuilding the adapter.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float32
	APIKey       string
}

// CompletionResponse is the uniform result every adapter reduces its
// vendor-specific response shape to.
type CompletionResponse struct {
	Text  string
	Usage *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// Provider interface for completion vendor adapters. Implementations map the
// request into the vendor envelope, attach credentials, and extract the
// single textual completion. One outbound call per invocation; retries live
// in the retry controller, never here.
type Provider interface {
	ID() ProviderID
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	ListModels(ctx context.Context, apiKey string) ([]types.ModelInfo, error)
}

// Registry maps provider IDs to adapters. It is built once at startup;
// adding a vendor means registering another adapter, not editing a branch.
type Registry struct {
	mu        sync.RWMutex
	providers map[ProviderID]Provider
}

// NewRegistry creates a registry holding the given adapters.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[ProviderID]Provider, len(providers))}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// DefaultRegistry creates a registry with the three built-in adapters
// pointed at their production endpoints.
func DefaultRegistry(client *http.Client, logger *errors.Logger) *Registry {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return NewRegistry(
		NewOpenAIProvider("", client, logger),
		NewAnthropicProvider("", client, logger),
		NewGeminiProvider("", client, logger),
	)
}

// Register adds or replaces an adapter.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID()] = p
}

// Lookup resolves an adapter by ID.
func (r *Registry) Lookup(id ProviderID) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}

// IDs lists the registered provider IDs in stable order.
func (r *Registry) IDs() []ProviderID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ProviderID, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
