package genai_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"medflow/internal/genai"
	"medflow/internal/prompts"
)

func jsonCfg() prompts.StageConfig {
	return prompts.StageConfig{
		Model:          "test-model",
		Temperature:    0.2,
		MaxTokens:      100,
		SystemPrompt:   "system",
		ResponseFormat: prompts.ResponseFormatJSON,
	}
}

func TestGenerateTextMode(t *testing.T) {
	gw := genai.NewGateway(func(ctx context.Context, req genai.Request) (string, error) {
		if req.JSONMode {
			t.Fatal("text stage requested JSON mode")
		}
		if req.Model != "test-model" || req.System != "system" {
			t.Fatalf("config not threaded: %+v", req)
		}
		return "SUBJECTIVE:\npatient reports pain", nil
	})
	cfg := jsonCfg()
	cfg.ResponseFormat = "text"
	res, err := gw.Generate(context.Background(), cfg, "user msg")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.JSON != nil {
		t.Fatal("text mode populated JSON")
	}
	if res.Text == "" {
		t.Fatal("empty text result")
	}
}

func TestGenerateJSONMode(t *testing.T) {
	gw := genai.NewGateway(func(ctx context.Context, req genai.Request) (string, error) {
		if !req.JSONMode {
			t.Fatal("JSON stage did not request JSON mode")
		}
		return `{"request_type":"laboratory_tests"}`, nil
	})
	res, err := gw.Generate(context.Background(), jsonCfg(), "user msg")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.JSON["request_type"] != "laboratory_tests" {
		t.Fatalf("JSON not parsed: %#v", res.JSON)
	}
}

func TestGenerateMalformedJSON(t *testing.T) {
	gw := genai.NewGateway(func(ctx context.Context, req genai.Request) (string, error) {
		return "this is not json", nil
	})
	_, err := gw.Generate(context.Background(), jsonCfg(), "user msg")
	var malformed genai.MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedError, got %v", err)
	}
	if malformed.Raw != "this is not json" {
		t.Fatalf("raw reply not carried: %+v", malformed)
	}
}

func TestGenerateTransportFailure(t *testing.T) {
	boom := errors.New("upstream exploded")
	gw := genai.NewGateway(func(ctx context.Context, req genai.Request) (string, error) {
		return "", boom
	})
	_, err := gw.Generate(context.Background(), jsonCfg(), "user msg")
	var genErr genai.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatal("upstream error not wrapped")
	}
}

func TestOpenAITransportRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-123" {
			t.Fatalf("missing auth header: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	transport := &genai.OpenAITransport{APIKey: "key-123", BaseURL: srv.URL}
	out, err := transport.Complete(context.Background(), genai.Request{Model: "m", System: "s", User: "u", JSONMode: true})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != `{"ok":true}` {
		t.Fatalf("unexpected content: %q", out)
	}
}

func TestOpenAITransportErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit_error"}}`))
	}))
	defer srv.Close()

	transport := &genai.OpenAITransport{APIKey: "k", BaseURL: srv.URL}
	_, err := transport.Complete(context.Background(), genai.Request{Model: "m"})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "openai: rate limited (rate_limit_error)" {
		t.Fatalf("unexpected error message: %q", got)
	}
}

func TestOpenAITransportRequiresKey(t *testing.T) {
	transport := &genai.OpenAITransport{}
	if _, err := transport.Complete(context.Background(), genai.Request{Model: "m"}); err == nil {
		t.Fatal("expected error without api key")
	}
}
