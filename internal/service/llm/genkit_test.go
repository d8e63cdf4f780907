package llm

import (
	"testing"

	"github.com/firebase/genkit/go/ai"
)

func TestImageFromResponse(t *testing.T) {
	tests := []struct {
		name     string
		resp     *ai.ModelResponse
		wantData string
		wantMIME string
		wantNil  bool
	}{
		{
			name:    "nil response",
			resp:    nil,
			wantNil: true,
		},
		{
			name:    "text only",
			resp:    &ai.ModelResponse{Message: ai.NewModelTextMessage("no image")},
			wantNil: true,
		},
		{
			name: "media part",
			resp: &ai.ModelResponse{Message: &ai.Message{
				Role: ai.RoleModel,
				Content: []*ai.Part{
					ai.NewTextPart("here you go"),
					ai.NewMediaPart("image/webp", "data:image/webp;base64,YWJj"),
				},
			}},
			wantData: "abc",
			wantMIME: "image/webp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := imageFromResponse(tt.resp)
			if err != nil {
				t.Fatalf("imageFromResponse() error = %v", err)
			}
			if tt.wantNil {
				if img != nil {
					t.Errorf("imageFromResponse() = %+v, want nil", img)
				}
				return
			}
			if img == nil || string(img.Data) != tt.wantData || img.MIMEType != tt.wantMIME {
				t.Errorf("imageFromResponse() = %+v", img)
			}
		})
	}
}

func TestImageFromResponse_BadMedia(t *testing.T) {
	resp := &ai.ModelResponse{Message: &ai.Message{
		Role:    ai.RoleModel,
		Content: []*ai.Part{ai.NewMediaPart("image/png", "https://example.com/cat.png")},
	}}
	if _, err := imageFromResponse(resp); err == nil {
		t.Error("imageFromResponse() expected error for non data URI media")
	}
}

func TestLocalAPIKey(t *testing.T) {
	if got := localAPIKey(""); got != "unused" {
		t.Errorf("localAPIKey(\"\") = %q", got)
	}
	if got := localAPIKey("sk-1"); got != "sk-1" {
		t.Errorf("localAPIKey(sk-1) = %q", got)
	}
}
