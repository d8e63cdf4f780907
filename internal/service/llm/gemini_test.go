package llm

import (
	"chatpat/internal/config"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewGeminiProvider(context.Background(), &config.LLMConfig{
		GeminiAPIKey:     "key",
		GeminiTextModel:  "text-model",
		GeminiImageModel: "image-model",
	}, srv.URL)
	if err != nil {
		t.Fatalf("NewGeminiProvider() error = %v", err)
	}
	return p
}

func TestNewGeminiProvider_RequiresKey(t *testing.T) {
	if _, err := NewGeminiProvider(context.Background(), &config.LLMConfig{}, ""); err == nil {
		t.Error("NewGeminiProvider() expected error without API key")
	}
}

func TestGeminiProvider_GenerateText(t *testing.T) {
	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "text-model") {
			t.Errorf("path = %q, want text model", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"hello"}]}}]}`))
	})

	text, err := p.GenerateText(context.Background(), "hi")
	if err != nil {
		t.Fatalf("GenerateText() error = %v", err)
	}
	if text != "hello" {
		t.Errorf("GenerateText() = %q, want %q", text, "hello")
	}
}

func TestGeminiProvider_GenerateImage(t *testing.T) {
	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "image-model") {
			t.Errorf("path = %q, want image model", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"here"},{"inlineData":{"mimeType":"image/jpeg","data":"YWJj"}}]}}]}`))
	})

	img, err := p.GenerateImage(context.Background(), "draw a cat")
	if err != nil {
		t.Fatalf("GenerateImage() error = %v", err)
	}
	if img == nil || string(img.Data) != "abc" || img.MIMEType != "image/jpeg" {
		t.Errorf("GenerateImage() = %+v", img)
	}
}

func TestGeminiProvider_GenerateImage_TextOnly(t *testing.T) {
	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"no picture today"}]}}]}`))
	})

	img, err := p.GenerateImage(context.Background(), "draw a cat")
	if !errors.Is(err, ErrNoImageData) {
		t.Fatalf("GenerateImage() error = %v, want ErrNoImageData", err)
	}
	if img != nil {
		t.Errorf("GenerateImage() = %+v, want nil", img)
	}
}

func TestGeminiProvider_UpstreamError(t *testing.T) {
	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"bad","status":"INVALID_ARGUMENT"}}`))
	})

	if _, err := p.GenerateText(context.Background(), "hi"); err == nil {
		t.Error("GenerateText() expected error")
	}
}
