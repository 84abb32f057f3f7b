// Package openai classifies waste images through the OpenAI
// chat-completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/3xyy/Sortify/internal/classify"
)

const defaultBaseURL = "https://api.openai.com/v1"

type Engine struct {
	APIKey  string
	Model   string
	baseURL string
	httpc   *http.Client
}

func New(key, model string) *Engine {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		// Vision requests can sit a while before first headers arrive.
		ResponseHeaderTimeout: 120 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
	}
	return &Engine{
		APIKey:  strings.TrimSpace(key),
		Model:   strings.TrimSpace(model),
		baseURL: defaultBaseURL,
		// Timeout stays 0: the per-request context bounds the call.
		httpc: &http.Client{Timeout: 0, Transport: tr},
	}
}

// WithBaseURL overrides the API endpoint (tests, proxies).
func (e *Engine) WithBaseURL(u string) *Engine {
	if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
		e.baseURL = u
	}
	return e
}

func (e *Engine) Name() string { return "openai" }

// completionResponse is the minimally needed slice of the chat envelope.
type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify makes exactly one chat-completions call with the image as a
// structured attachment and JSON-object output mode requested.
func (e *Engine) Classify(ctx context.Context, in classify.Input) (classify.Result, error) {
	if e.APIKey == "" {
		return classify.Result{}, classify.ErrNoAPIKey
	}

	body := map[string]any{
		"model": e.Model,
		"messages": []any{
			map[string]any{
				"role":    "system",
				"content": classify.SystemPrompt,
			},
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "text", "text": classify.UserPrompt(in.City)},
					map[string]any{"type": "image_url", "image_url": map[string]any{"url": in.ImageURL}},
				},
			},
		},
		"max_completion_tokens": 4000,
		"response_format":       map[string]any{"type": "json_object"},
	}

	payload, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return classify.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return classify.Result{}, &classify.UpstreamError{Provider: e.Name(), Body: err.Error()}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return classify.Result{}, &classify.UpstreamError{
			Provider: e.Name(),
			Status:   resp.StatusCode,
			Body:     truncate(raw, 1024),
		}
	}

	var env completionResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return classify.Result{}, &classify.MalformedError{Provider: e.Name(), Reason: "bad envelope: " + err.Error()}
	}
	if len(env.Choices) == 0 {
		return classify.Result{}, &classify.MalformedError{Provider: e.Name(), Reason: "no choices in response"}
	}
	return classify.DecodeResult(e.Name(), env.Choices[0].Message.Content)
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
