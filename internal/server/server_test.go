package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/commentguard/commentguard/internal/observability/otel"
	"github.com/commentguard/commentguard/internal/pipeline"
	"github.com/commentguard/commentguard/internal/policy"
	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, opts Options) *gin.Engine {
	t.Helper()
	proc, err := pipeline.NewProcessor(policy.MustGetPreset("strict"), pipeline.Options{})
	if err != nil {
		t.Fatalf("NewProcessor failed: %v", err)
	}
	return New(proc, opts)
}

func do(r http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type evalResponse struct {
	ID           json.RawMessage     `json:"id"`
	Outcome      string              `json:"outcome"`
	Action       string              `json:"action"`
	FeedbackText string              `json:"feedback_text"`
	Error        *pipeline.ErrorBody `json:"error"`
}

func TestEvaluate(t *testing.T) {
	r := newRouter(t, Options{})

	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantOutcome string
		wantCode    int
	}{
		{"spam", `{"id":"c1","assessment":{"spam":{"isSpam":true}}}`, http.StatusOK, "reject", 0},
		{"clean", `{"assessment":{"spam":{"isSpam":false},"health":{"overallScore":5}}}`, http.StatusOK, "publish", 0},
		{"low score", `{"assessment":{"health":{"overallScore":1}}}`, http.StatusOK, "", 0},
		{"provider failure", `{"assessment_error":"503"}`, http.StatusOK, "hold", pipeline.CodeAssessmentUnavailable},
		{"bad json", `{"assessment":`, http.StatusBadRequest, "", pipeline.CodeParseError},
		{"bad id", `{"id":[1],"assessment":{}}`, http.StatusBadRequest, "", pipeline.CodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/v1/evaluate", tt.body, nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			var resp evalResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if tt.wantOutcome != "" && resp.Outcome != tt.wantOutcome {
				t.Errorf("outcome = %q, want %q", resp.Outcome, tt.wantOutcome)
			}
			gotCode := 0
			if resp.Error != nil {
				gotCode = resp.Error.Code
			}
			if gotCode != tt.wantCode {
				t.Errorf("error = %+v, want code %d", resp.Error, tt.wantCode)
			}
		})
	}
}

func TestEvaluate_LowScoreCarriesFeedback(t *testing.T) {
	r := newRouter(t, Options{})
	w := do(r, http.MethodPost, "/v1/evaluate", `{"assessment":{"health":{"overallScore":1}}}`, nil)

	var resp evalResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Outcome == "publish" || resp.Outcome == "hold" {
		t.Fatalf("outcome = %q", resp.Outcome)
	}
	if resp.FeedbackText == "" {
		t.Error("missing feedback text")
	}
	if strings.ContainsAny(resp.FeedbackText, "0123456789") {
		t.Errorf("feedback leaks the score: %q", resp.FeedbackText)
	}
}

func TestEvaluate_BodyLimit(t *testing.T) {
	r := newRouter(t, Options{MaxBodyBytes: 64})
	body := `{"assessment":"` + strings.Repeat("x", 200) + `"}`
	w := do(r, http.MethodPost, "/v1/evaluate", body, nil)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	r := newRouter(t, Options{})

	w := do(r, http.MethodGet, "/healthz", "", http.Header{RequestIDHeader: {"req-abc"}})
	if got := w.Header().Get(RequestIDHeader); got != "req-abc" {
		t.Errorf("echoed id = %q", got)
	}

	w = do(r, http.MethodGet, "/healthz", "", nil)
	if got := w.Header().Get(RequestIDHeader); len(got) != 36 {
		t.Errorf("generated id = %q, want a uuid", got)
	}

	w = do(r, http.MethodGet, "/healthz", "", http.Header{RequestIDHeader: {strings.Repeat("z", 500)}})
	if got := w.Header().Get(RequestIDHeader); len(got) != 36 {
		t.Errorf("oversized id should be replaced, got %d bytes", len(got))
	}
}

func TestHealth(t *testing.T) {
	w := do(newRouter(t, Options{}), http.MethodGet, "/healthz", "", nil)
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if w.Code != http.StatusOK || body["status"] != "ok" || body["version"] == "" {
		t.Errorf("health = %d %v", w.Code, body)
	}
}

func TestPolicy(t *testing.T) {
	w := do(newRouter(t, Options{}), http.MethodGet, "/v1/policy", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var cfg map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg["name"] == nil || cfg["spam_handling"] != "delete" {
		t.Errorf("policy = %v", cfg)
	}
	if _, ok := cfg["health"].(map[string]any)["min_score"]; !ok {
		t.Errorf("policy missing health.min_score: %v", cfg["health"])
	}
}

func TestUnknownRoute(t *testing.T) {
	w := do(newRouter(t, Options{}), http.MethodGet, "/v2/evaluate", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestEvaluate_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	r := newRouter(t, Options{Tracing: otel.InitWithProvider(tp)})

	do(r, http.MethodPost, "/v1/evaluate", `{"assessment":{"spam":{"isSpam":true}}}`, nil)

	names := map[string]bool{}
	for _, s := range recorder.Ended() {
		names[s.Name()] = true
	}
	for _, want := range []string{"commentguard.http.evaluate", "commentguard.pipeline.request", "commentguard.evaluate"} {
		if !names[want] {
			t.Errorf("missing span %s (got %v)", want, names)
		}
	}
}

func TestEvaluate_LogsRequestEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := &recordingLogger{buf: &buf}
	r := newRouter(t, Options{Logger: logger})

	do(r, http.MethodPost, "/v1/evaluate", `{"assessment":{"spam":{"isSpam":true}}}`, nil)

	if !strings.Contains(buf.String(), "http.request") || !strings.Contains(buf.String(), "pipeline.decision") {
		t.Errorf("events = %q", buf.String())
	}
}

type recordingLogger struct {
	buf *bytes.Buffer
}

func (l *recordingLogger) Debug(component, msg string, fields ...any) {}
func (l *recordingLogger) Info(component, msg string, fields ...any)  {}
func (l *recordingLogger) Warn(component, msg string, fields ...any)  {}
func (l *recordingLogger) Error(component, msg string, fields ...any) {}
func (l *recordingLogger) Close() error                               { return nil }

func (l *recordingLogger) Event(_ context.Context, event string, _ map[string]any) {
	l.buf.WriteString(event + "\n")
}
