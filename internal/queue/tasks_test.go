package queue

import (
	"testing"
	"time"
)

func TestRenderPictureTaskRoundTrip(t *testing.T) {
	payload := RenderPicturePayload{
		RenderID: "render-123",
		Preset:   "hero",
		Image:    "images/lighthouse.jpg",
		Overrides: map[string]string{
			"source_small": "images/lighthouse-cropped.jpg",
		},
		Markup:      "picture",
		RequestedAt: time.Now().UTC(),
	}

	task, err := NewRenderPictureTask(payload)
	if err != nil {
		t.Fatalf("NewRenderPictureTask returned error: %v", err)
	}
	if task.Type() != TypeRenderPicture {
		t.Fatalf("expected task type %q, got %q", TypeRenderPicture, task.Type())
	}

	parsed, err := ParseRenderPicturePayload(task)
	if err != nil {
		t.Fatalf("ParseRenderPicturePayload returned error: %v", err)
	}

	if parsed.RenderID != payload.RenderID {
		t.Fatalf("expected render_id %q, got %q", payload.RenderID, parsed.RenderID)
	}
	if parsed.Overrides["source_small"] != "images/lighthouse-cropped.jpg" {
		t.Fatalf("expected override to survive the round trip, got %v", parsed.Overrides)
	}
}
