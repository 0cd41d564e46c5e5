// Package research runs the asynchronous AI research jobs that the
// run_ai_research automation action enqueues. Research never happens inside
// the automation execution path; the engine only creates the job row.
package research

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/tracklane/tracklane-be/internal/core/activity"
	"github.com/tracklane/tracklane-be/internal/core/jobs"
)

// JobType is the queue type key for research jobs.
const JobType = "ai_research"

// Payload is the research job payload written by the automation action.
type Payload struct {
	ProjectID    uuid.UUID `json:"project_id"`
	EntityType   string    `json:"entity_type"`
	EntityID     uuid.UUID `json:"entity_id"`
	Topic        string    `json:"topic"`
	Prompt       string    `json:"prompt,omitempty"`
	AutomationID uuid.UUID `json:"automation_id"`
}

// Handler executes research jobs against OpenAI and stores the findings as
// an activity on the researched entity.
type Handler struct {
	client      *openai.Client
	model       string
	activitySvc *activity.Service
}

// NewHandler creates a research job handler
func NewHandler(apiKey string, activitySvc *activity.Service) *Handler {
	return &Handler{
		client:      openai.NewClient(apiKey),
		model:       "gpt-4o-mini",
		activitySvc: activitySvc,
	}
}

// GetType returns the job type this handler processes
func (h *Handler) GetType() string {
	return JobType
}

// Handle runs one research job
func (h *Handler) Handle(ctx context.Context, job *jobs.Job) error {
	var payload Payload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("invalid research payload: %w", err)
	}

	prompt := payload.Prompt
	if prompt == "" {
		prompt = fmt.Sprintf("Research the %s with topic %q and summarize the findings relevant to a sales team in a few short paragraphs.", payload.EntityType, payload.Topic)
	}

	resp, err := h.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: h.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a B2B sales research assistant. Be factual and concise."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
		MaxTokens:   800,
	})
	if err != nil {
		return fmt.Errorf("openai error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("no response from OpenAI")
	}

	findings := resp.Choices[0].Message.Content

	err = h.activitySvc.LogForEntity(ctx, payload.ProjectID, payload.EntityType, payload.EntityID,
		"research", fmt.Sprintf("AI research: %s", payload.Topic), findings,
		map[string]interface{}{
			"automation_id": payload.AutomationID.String(),
			"job_id":        job.ID.String(),
		})
	if err != nil {
		return fmt.Errorf("failed to store research findings: %w", err)
	}

	return nil
}
