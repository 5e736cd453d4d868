package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const TypeRenderPicture = "picture:render"

// RenderPicturePayload carries everything the worker needs to perform one
// picture render and report its outcome.
type RenderPicturePayload struct {
	RenderID    string            `json:"render_id"`
	Preset      string            `json:"preset"`
	Image       string            `json:"image"`
	Overrides   map[string]string `json:"overrides,omitempty"`
	Markup      string            `json:"markup,omitempty"`
	WebhookURL  string            `json:"webhook_url,omitempty"`
	RequestedAt time.Time         `json:"requested_at"`
}

func NewRenderPictureTask(payload RenderPicturePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal render payload: %w", err)
	}
	return asynq.NewTask(TypeRenderPicture, body), nil
}

func ParseRenderPicturePayload(task *asynq.Task) (RenderPicturePayload, error) {
	var payload RenderPicturePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RenderPicturePayload{}, fmt.Errorf("unmarshal render payload: %w", err)
	}
	return payload, nil
}
