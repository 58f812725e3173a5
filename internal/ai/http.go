package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"resumelift/internal/errors"

	"github.com/google/uuid"
)

// sendJSON posts a JSON body and returns the raw response body, status, and
// headers. Transport failures return an error; non-2xx statuses do not, so
// the caller can classify them with the body in hand.
func sendJSON(ctx context.Context, client *http.Client, logger *errors.Logger, url string, body any, headers map[string]string) ([]byte, int, http.Header, error) {
	bs, err := json.Marshal(body)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return doRequest(client, logger, req, len(bs))
}

// getJSON issues a GET and returns the raw response body, status, and
// headers with the same non-2xx contract as sendJSON.
func getJSON(ctx context.Context, client *http.Client, logger *errors.Logger, url string, headers map[string]string) ([]byte, int, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return doRequest(client, logger, req, 0)
}

func doRequest(client *http.Client, logger *errors.Logger, req *http.Request, contentLength int) ([]byte, int, http.Header, error) {
	reqID := uuid.New().String()
	start := time.Now()

	if logger != nil {
		logger.Debug("Provider HTTP request",
			"req_id", reqID,
			"method", req.Method,
			"url", req.URL.Redacted(),
			"content_length", contentLength)
	}

	resp, err := client.Do(req)
	if err != nil {
		if logger != nil {
			logger.Warn("Provider HTTP request failed",
				"req_id", reqID,
				"error", err.Error(),
				"elapsed_ms", time.Since(start).Milliseconds())
		}
		return nil, 0, nil, err
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil && logger != nil {
			logger.Warn("Provider response body close failed", "req_id", reqID, "error", cerr.Error())
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, resp.Header, fmt.Errorf("read response: %w", err)
	}

	if logger != nil {
		logger.Debug("Provider HTTP response",
			"req_id", reqID,
			"status", resp.StatusCode,
			"bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds())
	}

	return raw, resp.StatusCode, resp.Header, nil
}
