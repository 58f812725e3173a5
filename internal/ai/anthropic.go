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

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
)

// AnthropicProvider speaks the messages wire format.
type AnthropicProvider struct {
	baseURL string
	client  *http.Client
	logger  *errors.Logger
}

// Ensure AnthropicProvider implements Provider
var _ Provider = (*AnthropicProvider)(nil)

// NewAnthropicProvider creates the adapter. An empty baseURL selects the
// production endpoint.
func NewAnthropicProvider(baseURL string, client *http.Client, logger *errors.Logger) *AnthropicProvider {
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &AnthropicProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

func (p *AnthropicProvider) ID() ProviderID {
	return ProviderAnthropic
}

func (p *AnthropicProvider) headers(apiKey string) map[string]string {
	return map[string]string{
		"x-api-key":         apiKey,
		"anthropic-version": anthropicVersion,
	}
}

// Complete implements Provider over POST /v1/messages.
func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	body := map[string]any{
		"model":       req.Model,
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
		"messages": []map[string]string{
			{"role": "user", "content": req.UserPrompt},
		},
	}
	if req.SystemPrompt != "" {
		body["system"] = req.SystemPrompt
	}

	raw, status, header, err := sendJSON(ctx, p.client, p.logger, p.baseURL+"/v1/messages", body, p.headers(req.APIKey))
	if err != nil {
		return nil, ClassifyTransport(ProviderAnthropic, err)
	}
	if status/100 != 2 {
		return nil, ClassifyStatus(ProviderAnthropic, status, header.Get("Retry-After"), raw, anthropicErrorMessage(raw))
	}

	var envelope struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int64 `json:"input_tokens"`
			OutputTokens int64 `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &Error{Provider: ProviderAnthropic, Kind: KindUnknown, StatusCode: status,
			Message: "response envelope did not decode", Err: err}
	}
	if len(envelope.Content) == 0 || strings.TrimSpace(envelope.Content[0].Text) == "" {
		return nil, &Error{Provider: ProviderAnthropic, Kind: KindUnknown, StatusCode: status,
			Message: "response contained no completion text"}
	}

	return &CompletionResponse{
		Text: envelope.Content[0].Text,
		Usage: &TokenUsage{
			InputTokens:  envelope.Usage.InputTokens,
			OutputTokens: envelope.Usage.OutputTokens,
			TotalTokens:  envelope.Usage.InputTokens + envelope.Usage.OutputTokens,
		},
	}, nil
}

// ListModels implements Provider over GET /v1/models, filtered through the
// static catalog.
func (p *AnthropicProvider) ListModels(ctx context.Context, apiKey string) ([]types.ModelInfo, error) {
	raw, status, header, err := getJSON(ctx, p.client, p.logger, p.baseURL+"/v1/models", p.headers(apiKey))
	if err != nil {
		return nil, ClassifyTransport(ProviderAnthropic, err)
	}
	if status/100 != 2 {
		return nil, ClassifyStatus(ProviderAnthropic, status, header.Get("Retry-After"), raw, anthropicErrorMessage(raw))
	}

	var envelope struct {
		Data []struct {
			ID          string `json:"id"`
			DisplayName string `json:"display_name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &Error{Provider: ProviderAnthropic, Kind: KindUnknown, StatusCode: status,
			Message: "model listing did not decode", Err: err}
	}

	models := make([]types.ModelInfo, 0, len(envelope.Data))
	for _, m := range envelope.Data {
		if !catalogAdmits(ProviderAnthropic, m.ID) {
			continue
		}
		models = append(models, annotateModel(ProviderAnthropic, m.ID, m.DisplayName))
	}
	sortModels(models)
	return models, nil
}

// anthropicErrorMessage extracts the message from the vendor error envelope.
func anthropicErrorMessage(raw []byte) string {
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
