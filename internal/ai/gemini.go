package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"resumelift/internal/errors"
	"resumelift/internal/types"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiProvider speaks the generateContent wire format.
type GeminiProvider struct {
	baseURL string
	client  *http.Client
	logger  *errors.Logger
}

// Ensure GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates the adapter. An empty baseURL selects the
// production endpoint.
func NewGeminiProvider(baseURL string, client *http.Client, logger *errors.Logger) *GeminiProvider {
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &GeminiProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

func (p *GeminiProvider) ID() ProviderID {
	return ProviderGemini
}

// Complete implements Provider over POST /v1beta/models/{model}:generateContent.
func (p *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	body := map[string]any{
		"contents": []map[string]any{
			{
				"role":  "user",
				"parts": []map[string]string{{"text": req.UserPrompt}},
			},
		},
		"generationConfig": map[string]any{
			"maxOutputTokens": req.MaxTokens,
			"temperature":     req.Temperature,
		},
	}
	if req.SystemPrompt != "" {
		body["systemInstruction"] = map[string]any{
			"parts": []map[string]string{{"text": req.SystemPrompt}},
		}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.baseURL, req.Model)
	raw, status, header, err := sendJSON(ctx, p.client, p.logger, url, body, map[string]string{
		"x-goog-api-key": req.APIKey,
	})
	if err != nil {
		return nil, ClassifyTransport(ProviderGemini, err)
	}
	if status/100 != 2 {
		return nil, ClassifyStatus(ProviderGemini, status, header.Get("Retry-After"), raw, geminiErrorMessage(raw))
	}

	var envelope struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		UsageMetadata struct {
			PromptTokenCount     int64 `json:"promptTokenCount"`
			CandidatesTokenCount int64 `json:"candidatesTokenCount"`
			TotalTokenCount      int64 `json:"totalTokenCount"`
		} `json:"usageMetadata"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &Error{Provider: ProviderGemini, Kind: KindUnknown, StatusCode: status,
			Message: "response envelope did not decode", Err: err}
	}
	if len(envelope.Candidates) == 0 ||
		len(envelope.Candidates[0].Content.Parts) == 0 ||
		strings.TrimSpace(envelope.Candidates[0].Content.Parts[0].Text) == "" {
		return nil, &Error{Provider: ProviderGemini, Kind: KindUnknown, StatusCode: status,
			Message: "response contained no completion text"}
	}

	return &CompletionResponse{
		Text: envelope.Candidates[0].Content.Parts[0].Text,
		Usage: &TokenUsage{
			InputTokens:  envelope.UsageMetadata.PromptTokenCount,
			OutputTokens: envelope.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  envelope.UsageMetadata.TotalTokenCount,
		},
	}, nil
}

// ListModels implements Provider over GET /v1beta/models, filtered through
// the static catalog. Gemini names come back as "models/<id>".
func (p *GeminiProvider) ListModels(ctx context.Context, apiKey string) ([]types.ModelInfo, error) {
	raw, status, header, err := getJSON(ctx, p.client, p.logger, p.baseURL+"/v1beta/models", map[string]string{
		"x-goog-api-key": apiKey,
	})
	if err != nil {
		return nil, ClassifyTransport(ProviderGemini, err)
	}
	if status/100 != 2 {
		return nil, ClassifyStatus(ProviderGemini, status, header.Get("Retry-After"), raw, geminiErrorMessage(raw))
	}

	var envelope struct {
		Models []struct {
			Name        string `json:"name"`
			DisplayName string `json:"displayName"`
		} `json:"models"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &Error{Provider: ProviderGemini, Kind: KindUnknown, StatusCode: status,
			Message: "model listing did not decode", Err: err}
	}

	models := make([]types.ModelInfo, 0, len(envelope.Models))
	for _, m := range envelope.Models {
		id := strings.TrimPrefix(m.Name, "models/")
		if !catalogAdmits(ProviderGemini, id) {
			continue
		}
		models = append(models, annotateModel(ProviderGemini, id, m.DisplayName))
	}
	sortModels(models)
	return models, nil
}

// geminiErrorMessage extracts the message from the vendor error envelope.
func geminiErrorMessage(raw []byte) string {
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
