package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geekforce/central.go/pkg/status"
)

type cannedGenerator struct {
	prompt string
	text   string
	err    error
}

func (g *cannedGenerator) generate(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.text, g.err
}

func TestSummarize(t *testing.T) {
	gen := &cannedGenerator{text: "Penny is on track."}
	s := &Summarizer{gen: gen}

	resp, err := s.Summarize(context.Background(), SummaryRequest{
		MemberName: "Penny",
		Tasks:      "- Fix the boot loop (Todo)",
		Events:     "- Briefing on 2026-08-30",
	})
	require.NoError(t, err)
	assert.Equal(t, "Penny is on track.", resp.Summary)

	assert.Contains(t, gen.prompt, "Team Member Name: Penny")
	assert.Contains(t, gen.prompt, "Task Assignments: - Fix the boot loop (Todo)")
	assert.Contains(t, gen.prompt, "Calendar Events: - Briefing on 2026-08-30")
	assert.True(t, strings.HasPrefix(gen.prompt, "You are an AI assistant"))
}

func TestSummarizeUpstreamFailure(t *testing.T) {
	s := &Summarizer{gen: &cannedGenerator{err: errors.New("quota exceeded")}}

	_, err := s.Summarize(context.Background(), SummaryRequest{MemberName: "Penny"})
	require.Error(t, err)

	var descriptor *status.Error
	require.ErrorAs(t, err, &descriptor)
	assert.Equal(t, status.KindUpstreamService, descriptor.Kind)
	assert.Contains(t, descriptor.Message, "quota exceeded")
}

func TestSummarizeRequiresMemberName(t *testing.T) {
	s := &Summarizer{gen: &cannedGenerator{}}
	_, err := s.Summarize(context.Background(), SummaryRequest{})
	require.ErrorIs(t, err, status.ErrInvalidArgument)
}
