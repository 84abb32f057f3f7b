// Package gemini classifies waste images through Google Gemini.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/3xyy/Sortify/internal/classify"
	"github.com/3xyy/Sortify/internal/util"
)

type Engine struct {
	APIKey string
	Model  string
	httpc  *http.Client
}

func New(apiKey, model string) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
		httpc:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *Engine) Name() string { return "gemini" }

// Classify makes a single GenerateContent call with JSON output mode.
// One attempt only: failures surface immediately rather than multiplying
// upstream cost behind the caller's back.
func (e *Engine) Classify(ctx context.Context, in classify.Input) (classify.Result, error) {
	if e.APIKey == "" {
		return classify.Result{}, classify.ErrNoAPIKey
	}

	imgBytes, mime, err := e.imageBytes(ctx, in.ImageURL)
	if err != nil {
		return classify.Result{}, err
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return classify.Result{}, &classify.UpstreamError{Provider: e.Name(), Body: err.Error()}
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(classify.SystemPrompt)},
	}

	parts := []genai.Part{
		genai.Text(classify.UserPrompt(in.City)),
		&genai.Blob{MIMEType: mime, Data: imgBytes},
	}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return classify.Result{}, &classify.UpstreamError{Provider: e.Name(), Body: err.Error()}
	}
	txt := firstText(resp)
	if txt == "" {
		return classify.Result{}, &classify.MalformedError{Provider: e.Name(), Reason: "empty response"}
	}

	out, err := classify.DecodeResult(e.Name(), txt)
	if err != nil {
		return classify.Result{}, err
	}
	// Gemini is fed raw bytes, so it cannot echo the source reference.
	if out.ImageURL == "" {
		out.ImageURL = in.ImageURL
	}
	return out, nil
}

// imageBytes turns the request's image reference into inline bytes, which
// is the only form the Blob part accepts.
func (e *Engine) imageBytes(ctx context.Context, ref string) ([]byte, string, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		b, err := util.Download(ctx, e.httpc, ref)
		if err != nil {
			return nil, "", &classify.UpstreamError{Provider: e.Name(), Body: "fetch image: " + err.Error()}
		}
		return b, util.PickMIME("", b), nil
	}
	b, hint, err := util.DecodeBase64MaybeDataURL(ref)
	if err != nil {
		return nil, "", fmt.Errorf("gemini: bad image base64: %w", err)
	}
	return b, util.PickMIME(hint, b), nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return strings.TrimSpace(b.String())
}

func ptrFloat32(f float32) *float32 { return &f }
