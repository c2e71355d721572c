package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/storybook-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, srv *httptest.Server, cfg Config) *client {
	t.Helper()
	cfg.APIKey = "sk-test"
	cfg.BaseURL = srv.URL
	c, err := NewClient(logger.Nop(), cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	impl := c.(*client)
	impl.sleep = func(time.Duration) {}
	return impl
}

func TestGenerateTextExtractsAssistantOutput(t *testing.T) {
	t.Parallel()

	var gotBody responsesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/responses" {
			t.Errorf("path: want=%q got=%q", "/v1/responses", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("auth header: want=%q got=%q", "Bearer sk-test", got)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{"output":[{"type":"message","role":"assistant","content":[{"type":"output_text","text":"Tom and the Moon\n\nOnce upon a time."}]}]}`))
	}))
	defer srv.Close()

	temp := 0.7
	c := newTestClient(t, srv, Config{Model: "gpt-4", Temperature: &temp, MaxOutputTokens: 1000})
	text, err := c.GenerateText(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != "Tom and the Moon\n\nOnce upon a time." {
		t.Fatalf("GenerateText: unexpected text %q", text)
	}
	if gotBody.Model != "gpt-4" || len(gotBody.Input) != 2 || gotBody.MaxOutputTokens != 1000 {
		t.Fatalf("request body: unexpected %+v", gotBody)
	}
	if gotBody.Temperature == nil || *gotBody.Temperature != 0.7 {
		t.Fatalf("temperature: want=0.7 got=%v", gotBody.Temperature)
	}
}

func TestGenerateTextDropsRejectedTemperature(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		var req responsesRequest
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &req)
		if n == 1 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"Unsupported parameter: 'temperature' is not supported with this model.","param":"temperature"}}`))
			return
		}
		if req.Temperature != nil {
			t.Errorf("second call: temperature should be omitted")
		}
		_, _ = w.Write([]byte(`{"output":[{"type":"message","role":"assistant","content":[{"type":"output_text","text":"ok"}]}]}`))
	}))
	defer srv.Close()

	temp := 0.7
	c := newTestClient(t, srv, Config{Temperature: &temp})
	text, err := c.GenerateText(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != "ok" || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("GenerateText: want text=ok calls=2 got text=%q calls=%d", text, calls)
	}
}

func TestGenerateImageReturnsHostedURL(t *testing.T) {
	t.Parallel()

	var gotReq imagesGenerationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotReq)
		_, _ = w.Write([]byte(`{"data":[{"url":"https://images.example/tmp/1.png","revised_prompt":"r"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Config{})
	img, err := c.GenerateImage(context.Background(), "a fox")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if img.URL != "https://images.example/tmp/1.png" {
		t.Fatalf("URL: want=%q got=%q", "https://images.example/tmp/1.png", img.URL)
	}
	if gotReq.Model != "dall-e-3" || gotReq.Size != "1024x1024" || gotReq.ResponseFormat != "url" {
		t.Fatalf("request: unexpected %+v", gotReq)
	}
}

func TestGenerateImageDecodesInlinePayload(t *testing.T) {
	t.Parallel()

	payload := base64.StdEncoding.EncodeToString([]byte("\x89PNG fake"))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"b64_json":"` + payload + `"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Config{ImageModel: "gpt-image-1"})
	img, err := c.GenerateImage(context.Background(), "a fox")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if string(img.Bytes) != "\x89PNG fake" || img.MimeType != "image/png" {
		t.Fatalf("inline image: unexpected %+v", img)
	}
}

func TestSafetyRejectionIsClassified(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		want bool
	}{
		{name: "code", body: `{"error":{"code":"content_policy_violation","message":"Your request was rejected."}}`, want: true},
		{name: "message", body: `{"error":{"message":"Your request was rejected as a result of our safety system."}}`, want: true},
		{name: "other 400", body: `{"error":{"message":"Invalid size."}}`, want: false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := newTestClient(t, srv, Config{})
			_, err := c.GenerateImage(context.Background(), "scene")
			if err == nil {
				t.Fatalf("GenerateImage: expected error")
			}
			if got := IsContentPolicyViolation(err); got != tc.want {
				t.Fatalf("IsContentPolicyViolation: want=%v got=%v (err=%v)", tc.want, got, err)
			}
		})
	}
}

func TestRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"url":"https://images.example/ok.png"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Config{MaxRetries: 2})
	if _, err := c.GenerateImage(context.Background(), "scene"); err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("calls: want=3 got=%d", got)
	}
}

func TestNoRetryByDefault(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Config{})
	if _, err := c.GenerateText(context.Background(), "s", "u"); err == nil {
		t.Fatalf("GenerateText: expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("calls: want=1 got=%d", got)
	}
}
