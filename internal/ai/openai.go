package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"resumelift/internal/errors"
	"resumelift/internal/types"
)

const defaultOpenAIBaseURL = "https://api.openai.com"

// OpenAIProvider speaks the chat-completions wire format.
type OpenAIProvider struct {
	baseURL string
	client  *http.Client
	logger  *errors.Logger
}

// Ensure OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates the adapter. An empty baseURL selects the
// production endpoint.
func NewOpenAIProvider(baseURL string, client *http.Client, logger *errors.Logger) *OpenAIProvider {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &OpenAIProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

func (p *OpenAIProvider) ID() ProviderID {
	return ProviderOpenAI
}

// Complete implements Provider over POST /v1/chat/completions.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	messages := make([]map[string]string, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.SystemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.UserPrompt})

	body := map[string]any{
		"model":       req.Model,
		"messages":    messages,
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
	}

	raw, status, header, err := sendJSON(ctx, p.client, p.logger, p.baseURL+"/v1/chat/completions", body, map[string]string{
		"Authorization": "Bearer " + req.APIKey,
	})
	if err != nil {
		return nil, ClassifyTransport(ProviderOpenAI, err)
	}
	if status/100 != 2 {
		return nil, ClassifyStatus(ProviderOpenAI, status, header.Get("Retry-After"), raw, openAIErrorMessage(raw))
	}

	var envelope struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int64 `json:"prompt_tokens"`
			CompletionTokens int64 `json:"completion_tokens"`
			TotalTokens      int64 `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &Error{Provider: ProviderOpenAI, Kind: KindUnknown, StatusCode: status,
			Message: "response envelope did not decode", Err: err}
	}
	if len(envelope.Choices) == 0 || strings.TrimSpace(envelope.Choices[0].Message.Content) == "" {
		return nil, &Error{Provider: ProviderOpenAI, Kind: KindUnknown, StatusCode: status,
			Message: "response contained no completion text"}
	}

	return &CompletionResponse{
		Text: envelope.Choices[0].Message.Content,
		Usage: &TokenUsage{
			InputTokens:  envelope.Usage.PromptTokens,
			OutputTokens: envelope.Usage.CompletionTokens,
			TotalTokens:  envelope.Usage.TotalTokens,
		},
	}, nil
}

// ListModels implements Provider over GET /v1/models, filtered through the
// static catalog.
func (p *OpenAIProvider) ListModels(ctx context.Context, apiKey string) ([]types.ModelInfo, error) {
	raw, status, header, err := getJSON(ctx, p.client, p.logger, p.baseURL+"/v1/models", map[string]string{
		"Authorization": "Bearer " + apiKey,
	})
	if err != nil {
		return nil, ClassifyTransport(ProviderOpenAI, err)
	}
	if status/100 != 2 {
		return nil, ClassifyStatus(ProviderOpenAI, status, header.Get("Retry-After"), raw, openAIErrorMessage(raw))
	}

	var envelope struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &Error{Provider: ProviderOpenAI, Kind: KindUnknown, StatusCode: status,
			Message: "model listing did not decode", Err: err}
	}

	models := make([]types.ModelInfo, 0, len(envelope.Data))
	for _, m := range envelope.Data {
		if !catalogAdmits(ProviderOpenAI, m.ID) {
			continue
		}
		models = append(models, annotateModel(ProviderOpenAI, m.ID, ""))
	}
	sortModels(models)
	return models, nil
}

// openAIErrorMessage extracts the message from the vendor error envelope.
func openAIErrorMessage(raw []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	return envelope.Error.Message
}
