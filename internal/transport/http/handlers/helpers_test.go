package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"

	"solvo/internal/app/server"
	"solvo/internal/domain/ptl"
	"solvo/internal/domain/reports"
	"solvo/internal/platform/ai"
	"solvo/internal/platform/config"
)

const (
	adminEmail    = "admin@test.local"
	adminPassword = "ChangeMe123!"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

// stubAI answers every model call with canned content.
type stubAI struct {
	reply ai.ToolReply
}

func (stubAI) Configured() bool { return true }

func (stubAI) RiskAnalysis(_ context.Context, in ptl.RiskContext) (ptl.Narrative, error) {
	return ptl.Narrative{
		Analysis:   in.MemberName + " shows no retention concerns this week.",
		Mitigation: []string{"Keep the weekly one-on-one."},
	}, nil
}

func (s stubAI) CallTools(context.Context, string, string, []*genai.FunctionDeclaration) (ai.ToolReply, error) {
	return s.reply, nil
}

func (stubAI) CoachingPlan(_ context.Context, in ai.CoachingInput) (ai.CoachingPlan, error) {
	return ai.CoachingPlan{
		Summary:     "Steady week for " + in.Member.Name + ".",
		Strengths:   []string{"Consistent delivery"},
		FocusAreas:  []string{"Client follow-ups"},
		ActionItems: []string{"Book two client calls"},
	}, nil
}

func (stubAI) DashboardSummary(_ context.Context, d reports.Dashboard) (ai.DashboardBrief, error) {
	return ai.DashboardBrief{Headline: "Team on track", Highlights: []string{"No overdue work"}}, nil
}

func testConfig() config.Config {
	return config.Config{
		Addr:               ":0",
		Environment:        "test",
		StorageBackend:     config.BackendMemory,
		StoragePrefix:      "solvo-test",
		JWTSecret:          "test-secret",
		TokenTTL:           time.Hour,
		DataEncryptionKey:  strings.Repeat("ab", 32),
		SeedAdminEmail:     adminEmail,
		SeedAdminPassword:  adminPassword,
		AITimeout:          5 * time.Second,
		NarrativeCacheSize: 16,
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 1000,
		Timezone:           "UTC",
		MetricsEnabled:     true,
	}
}

func startServer(t *testing.T, opts ...server.Option) (*server.App, *httptest.Server) {
	t.Helper()
	opts = append([]server.Option{server.WithAI(stubAI{})}, opts...)
	app, err := server.New(context.Background(), testConfig(), opts...)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	ts := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		ts.Close()
		app.Close()
	})
	return app, ts
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("expected token")
	}
	return token
}

func do(t *testing.T, client *http.Client, method, url, token string, body any, headers map[string]string) (int, []byte, http.Header) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	return resp.StatusCode, raw, resp.Header
}

func sendStatus(t *testing.T, client *http.Client, method, url, token string, body any, want int) envelope {
	t.Helper()
	status, raw, _ := do(t, client, method, url, token, body, nil)
	if status != want {
		t.Fatalf("expected status %d, got %d: %s", want, status, string(raw))
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return env
}

func postJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	return sendStatus(t, client, http.MethodPost, url, token, body, http.StatusOK)
}

func postJSONStatus(t *testing.T, client *http.Client, url, token string, body any, want int) envelope {
	t.Helper()
	return sendStatus(t, client, http.MethodPost, url, token, body, want)
}

func putJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	return sendStatus(t, client, http.MethodPut, url, token, body, http.StatusOK)
}

func getJSON(t *testing.T, client *http.Client, url, token string) envelope {
	t.Helper()
	return sendStatus(t, client, http.MethodGet, url, token, nil, http.StatusOK)
}

func getJSONStatus(t *testing.T, client *http.Client, url, token string, want int) envelope {
	t.Helper()
	return sendStatus(t, client, http.MethodGet, url, token, nil, want)
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("failed to decode data: %v (%s)", err, string(env.Data))
	}
	return out
}

// mutationItem unwraps the {item, persisted} body workspace changes return.
func mutationItem(t *testing.T, env envelope) map[string]any {
	t.Helper()
	body := decode[map[string]any](t, env)
	if persisted, _ := body["persisted"].(bool); !persisted {
		t.Fatalf("expected persisted mutation, got %+v", body)
	}
	item, ok := body["item"].(map[string]any)
	if !ok {
		t.Fatalf("expected item object, got %+v", body["item"])
	}
	return item
}

func envelopeErrorCode(env envelope) string {
	errMap, ok := env.Error.(map[string]any)
	if !ok {
		return ""
	}
	code, _ := errMap["code"].(string)
	return code
}

func assertValidationErrorField(t *testing.T, env envelope, field string) {
	t.Helper()
	if code := envelopeErrorCode(env); code != "validation_error" {
		t.Fatalf("expected validation_error, got %+v", env.Error)
	}
	errMap, ok := env.Error.(map[string]any)
	if !ok {
		t.Fatalf("expected error object, got %T", env.Error)
	}
	details, ok := errMap["details"].(map[string]any)
	if !ok {
		t.Fatalf("expected details object, got %+v", errMap["details"])
	}
	fieldsRaw, ok := details["fields"].([]any)
	if !ok {
		t.Fatalf("expected details.fields array, got %+v", details["fields"])
	}
	for _, item := range fieldsRaw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if value, _ := entry["field"].(string); value == field {
			return
		}
	}
	t.Fatalf("expected validation field %q in %+v", field, fieldsRaw)
}
