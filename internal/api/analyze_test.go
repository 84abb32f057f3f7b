package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/3xyy/Sortify/internal/classify"
	"github.com/3xyy/Sortify/internal/config"
	"github.com/3xyy/Sortify/internal/ratelimit"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

// stubEngine is a deterministic upstream stand-in.
type stubEngine struct {
	result classify.Result
	err    error
	calls  int
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) Classify(ctx context.Context, in classify.Input) (classify.Result, error) {
	s.calls++
	if s.err != nil {
		return classify.Result{}, s.err
	}
	return s.result, nil
}

func stubResult() classify.Result {
	return classify.Result{
		ItemName:      "Plastic Bottle",
		Category:      classify.CategoryRecycle,
		Confidence:    92,
		MaterialType:  "#1 PET plastic",
		Contamination: "Clean - ready to recycle",
		Instructions:  []string{"Empty the bottle", "Rinse with water", "Place in blue bin"},
		LocalRule:     "San Francisco requires rigid plastics in the blue bin",
		CO2Saved:      "0.04 kg CO2 saved by recycling",
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Engine:          "stub",
		MinAppVersion:   "12.12.25.04.50",
		RateLimitMax:    10,
		RateLimitWindow: 60 * time.Second,
		MaxImageBytes:   1024,
		MaxCityLength:   100,
		UpstreamTimeout: 5 * time.Second,
	}
}

func newTestRouter(cfg *config.Config, eng classify.Engine) *gin.Engine {
	h := NewHandler(cfg, classify.NewEngines(eng), ratelimit.New(cfg.RateLimitMax, cfg.RateLimitWindow), zap.NewNop())
	return NewRouter(h, zap.NewNop())
}

func postAnalyze(r *gin.Engine, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validBody() string {
	return `{"imageData":"data:image/jpeg;base64,QUJDREVG","city":"San Francisco","appVersion":"12.12.25.04.50"}`
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("response not JSON: %v (%s)", err, w.Body.String())
	}
	return m
}

func TestAnalyzeSuccess(t *testing.T) {
	stub := &stubEngine{result: stubResult()}
	r := newTestRouter(testConfig(), stub)

	w := postAnalyze(r, validBody(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var got classify.Result
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	want := stubResult()
	if got.ItemName != want.ItemName || got.Category != want.Category || got.Confidence != want.Confidence {
		t.Errorf("result altered in transit: %+v", got)
	}
	if len(got.Instructions) != 3 || got.Instructions[0] != "Empty the bottle" {
		t.Errorf("instructions altered: %v", got.Instructions)
	}
	if w.Header().Get("X-RateLimit-Remaining") == "" {
		t.Error("missing X-RateLimit-Remaining header")
	}
	if stub.calls != 1 {
		t.Errorf("model called %d times, want exactly 1", stub.calls)
	}
}

func TestAnalyzeIdempotentAgainstDeterministicStub(t *testing.T) {
	stub := &stubEngine{result: stubResult()}
	r := newTestRouter(testConfig(), stub)

	first := decodeBody(t, postAnalyze(r, validBody(), nil))
	second := decodeBody(t, postAnalyze(r, validBody(), nil))
	if first["itemName"] != second["itemName"] || first["category"] != second["category"] {
		t.Errorf("identical requests diverged: %v vs %v", first, second)
	}
}

func TestAnalyzeOutdatedVersion(t *testing.T) {
	stub := &stubEngine{result: stubResult()}
	r := newTestRouter(testConfig(), stub)

	body := `{"imageData":"data:image/jpeg;base64,QUJD","city":"Oslo","appVersion":"12.12.25.04.49"}`
	w := postAnalyze(r, body, nil)
	if w.Code != http.StatusUpgradeRequired {
		t.Fatalf("status = %d, want 426", w.Code)
	}
	m := decodeBody(t, w)
	if m["requiredVersion"] != "12.12.25.04.50" {
		t.Errorf("requiredVersion = %v", m["requiredVersion"])
	}
	if m["currentVersion"] != "12.12.25.04.49" {
		t.Errorf("currentVersion = %v", m["currentVersion"])
	}
	if m["updateRequired"] != true {
		t.Errorf("updateRequired = %v", m["updateRequired"])
	}
	if stub.calls != 0 {
		t.Errorf("outdated client reached the model (%d calls)", stub.calls)
	}
}

func TestAnalyzeMissingVersion(t *testing.T) {
	r := newTestRouter(testConfig(), &stubEngine{result: stubResult()})

	body := `{"imageData":"data:image/jpeg;base64,QUJD","city":"Oslo"}`
	w := postAnalyze(r, body, nil)
	if w.Code != http.StatusUpgradeRequired {
		t.Fatalf("status = %d, want 426 (fail closed)", w.Code)
	}
	if m := decodeBody(t, w); m["currentVersion"] != "unknown" {
		t.Errorf("currentVersion = %v, want unknown", m["currentVersion"])
	}
}

func TestAnalyzeRateLimited(t *testing.T) {
	stub := &stubEngine{result: stubResult()}
	r := newTestRouter(testConfig(), stub)
	headers := map[string]string{"X-Forwarded-For": "203.0.113.7"}

	for i := 0; i < 10; i++ {
		if w := postAnalyze(r, validBody(), headers); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, w.Code)
		}
	}

	w := postAnalyze(r, validBody(), headers)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("11th request: status = %d, want 429", w.Code)
	}
	m := decodeBody(t, w)
	retryAfter, ok := m["retryAfter"].(float64)
	if !ok || retryAfter <= 0 || retryAfter > 60 {
		t.Errorf("retryAfter = %v, want in (0, 60]", m["retryAfter"])
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if stub.calls != 10 {
		t.Errorf("model called %d times, want 10", stub.calls)
	}
}

func TestAnalyzeRateLimitIdentitiesIndependent(t *testing.T) {
	r := newTestRouter(testConfig(), &stubEngine{result: stubResult()})

	for i := 0; i < 10; i++ {
		postAnalyze(r, validBody(), map[string]string{"X-Forwarded-For": "203.0.113.7"})
	}
	w := postAnalyze(r, validBody(), map[string]string{"X-Forwarded-For": "198.51.100.9"})
	if w.Code != http.StatusOK {
		t.Fatalf("second identity got %d, want 200", w.Code)
	}
}

func TestAnalyzeOutdatedClientDoesNotBurnSlot(t *testing.T) {
	r := newTestRouter(testConfig(), &stubEngine{result: stubResult()})
	headers := map[string]string{"X-Forwarded-For": "203.0.113.7"}
	oldBody := `{"imageData":"data:image/jpeg;base64,QUJD","city":"Oslo","appVersion":"01.01.01.01.01"}`

	for i := 0; i < 20; i++ {
		postAnalyze(r, oldBody, headers)
	}
	for i := 0; i < 10; i++ {
		if w := postAnalyze(r, validBody(), headers); w.Code != http.StatusOK {
			t.Fatalf("request %d after version rejections: status = %d", i+1, w.Code)
		}
	}
}

func TestAnalyzeInvalidCity(t *testing.T) {
	stub := &stubEngine{result: stubResult()}
	r := newTestRouter(testConfig(), stub)

	body := `{"imageData":"data:image/jpeg;base64,QUJD","city":"<script>","appVersion":"12.12.25.04.50"}`
	w := postAnalyze(r, body, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if stub.calls != 0 {
		t.Error("invalid city reached the model")
	}
}

func TestAnalyzeCityStripped(t *testing.T) {
	var gotCity string
	stub := &stubEngine{result: stubResult()}
	cfg := testConfig()
	h := NewHandler(cfg, classify.NewEngines(captureEngine{stub, &gotCity}), ratelimit.New(10, time.Minute), zap.NewNop())
	r := NewRouter(h, zap.NewNop())

	body := `{"imageData":"data:image/jpeg;base64,QUJD","city":"San< Francisco","appVersion":"12.12.25.04.50"}`
	w := postAnalyze(r, body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if gotCity != "San Francisco" {
		t.Errorf("city passed to engine = %q, want stripped %q", gotCity, "San Francisco")
	}
}

// captureEngine records the sanitized city the handler hands to the model.
type captureEngine struct {
	inner *stubEngine
	city  *string
}

func (c captureEngine) Name() string { return "stub" }

func (c captureEngine) Classify(ctx context.Context, in classify.Input) (classify.Result, error) {
	*c.city = in.City
	return c.inner.Classify(ctx, in)
}

func TestAnalyzeInvalidImage(t *testing.T) {
	r := newTestRouter(testConfig(), &stubEngine{result: stubResult()})

	cases := []string{
		`{"imageData":"","city":"Oslo","appVersion":"12.12.25.04.50"}`,
		`{"imageData":"!!! not an image !!!","city":"Oslo","appVersion":"12.12.25.04.50"}`,
	}
	for _, body := range cases {
		if w := postAnalyze(r, body, nil); w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestAnalyzeImageOverEncodedCap(t *testing.T) {
	r := newTestRouter(testConfig(), &stubEngine{result: stubResult()})

	// Over the 1024*1.4 encoded allowance but under the body reader cap.
	img := strings.Repeat("A", 1450)
	body := fmt.Sprintf(`{"imageData":"%s","city":"Oslo","appVersion":"12.12.25.04.50"}`, img)
	w := postAnalyze(r, body, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestAnalyzeBodyTooLarge(t *testing.T) {
	r := newTestRouter(testConfig(), &stubEngine{result: stubResult()})

	// Over MaxImageBytes*3/2 = 1536; the long string value makes the
	// reader hit the cap before the decoder can finish.
	body := `{"imageData":"` + strings.Repeat("A", 4096) + `"}`
	w := postAnalyze(r, body, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if m := decodeBody(t, w); m["error"] != genericErrorMessage {
		t.Errorf("error = %v, want generic message", m["error"])
	}
}

func TestAnalyzeBadJSON(t *testing.T) {
	r := newTestRouter(testConfig(), &stubEngine{result: stubResult()})

	w := postAnalyze(r, `{"imageData": `, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestAnalyzeUpstreamMalformed(t *testing.T) {
	stub := &stubEngine{err: &classify.MalformedError{Provider: "stub", Reason: "empty response"}}
	r := newTestRouter(testConfig(), stub)

	w := postAnalyze(r, validBody(), nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	m := decodeBody(t, w)
	if m["error"] != processFailedMessage {
		t.Errorf("error = %v, want generic processing message", m["error"])
	}
	// Upstream detail must never leak into the response body.
	if strings.Contains(w.Body.String(), "empty response") || strings.Contains(w.Body.String(), "stub") {
		t.Errorf("diagnostic detail leaked: %s", w.Body.String())
	}
}

func TestAnalyzeUpstreamUnavailable(t *testing.T) {
	stub := &stubEngine{err: &classify.UpstreamError{Provider: "stub", Status: 503, Body: "overloaded"}}
	r := newTestRouter(testConfig(), stub)

	w := postAnalyze(r, validBody(), nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	if strings.Contains(w.Body.String(), "overloaded") {
		t.Errorf("upstream body leaked: %s", w.Body.String())
	}
}

func TestAnalyzeMissingCredential(t *testing.T) {
	stub := &stubEngine{err: classify.ErrNoAPIKey}
	r := newTestRouter(testConfig(), stub)

	w := postAnalyze(r, validBody(), nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestAnalyzeUnknownEngine(t *testing.T) {
	cfg := testConfig()
	cfg.Engine = "nonexistent"
	r := newTestRouter(cfg, &stubEngine{result: stubResult()})

	w := postAnalyze(r, validBody(), nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestPreflight(t *testing.T) {
	r := newTestRouter(testConfig(), &stubEngine{result: stubResult()})

	req := httptest.NewRequest(http.MethodOptions, "/v1/analyze", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS origin header")
	}
}
