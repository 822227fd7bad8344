// Package ai wraps the two generative collaborators the portal uses:
// activity summarization and profile picture suggestion. Both are
// request/response calls whose failures propagate directly to the
// caller — there is no read-side subscription to reconcile their
// state, unlike document writes.
package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/geekforce/central.go/pkg/status"
)

const summaryPrompt = `You are an AI assistant helping managers coordinate their teams. You will receive a team member's name, a list of their task assignments, and a list of their calendar events. Your job is to create a brief summary of their recent and expected activity, including suggested next steps and potential conflicts.

Team Member Name: %s
Task Assignments: %s
Calendar Events: %s`

// SummaryRequest is the input of the activity summary flow. All three
// fields are free text prepared by the caller.
type SummaryRequest struct {
	MemberName string
	Tasks      string
	Events     string
}

type SummaryResponse struct {
	Summary string
}

// generator is the seam between the flow and the hosted model, so
// tests run against a canned implementation.
type generator interface {
	generate(ctx context.Context, prompt string) (string, error)
}

// Summarizer produces activity summaries via the Gemini API.
type Summarizer struct {
	gen generator
}

// SummarizerConfig configures NewSummarizer. Model defaults to
// gemini-2.0-flash.
type SummarizerConfig struct {
	APIKey string
	Model  string
}

func NewSummarizer(ctx context.Context, cfg SummarizerConfig) (*Summarizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	return &Summarizer{gen: &genaiGenerator{client: client, model: model}}, nil
}

// Summarize renders the prompt and calls the model. Upstream failures
// come back as a status.Error with KindUpstreamService.
func (s *Summarizer) Summarize(ctx context.Context, req SummaryRequest) (*SummaryResponse, error) {
	if req.MemberName == "" {
		return nil, fmt.Errorf("%w: member name is required", status.ErrInvalidArgument)
	}

	prompt := fmt.Sprintf(summaryPrompt, req.MemberName, req.Tasks, req.Events)

	text, err := s.gen.generate(ctx, prompt)
	if err != nil {
		return nil, &status.Error{Kind: status.KindUpstreamService, Message: err.Error()}
	}

	return &SummaryResponse{Summary: text}, nil
}

type genaiGenerator struct {
	client *genai.Client
	model  string
}

func (g *genaiGenerator) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
