package portal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	central "github.com/geekforce/central.go"
	"github.com/geekforce/central.go/pkg/ai"
	"github.com/geekforce/central.go/pkg/models"
)

// ErrNoSummarizer is returned by Insights when the portal was built
// without an activity summarizer.
var ErrNoSummarizer = errors.New("no summarizer configured")

// Insights builds the activity summary for one member: their tasks
// and calendar events are collected concurrently, rendered as text
// lists and handed to the summary collaborator.
func (p *Portal) Insights(ctx context.Context, memberID string) (string, error) {
	if p.summarizer == nil {
		return "", ErrNoSummarizer
	}

	var member models.Member
	var tasks []models.Task
	var events []models.CalendarEvent

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		docs, err := p.fetchOnce(gctx, central.Query{
			Collection: models.CollectionUsers,
			Doc:        memberID,
		})
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			return fmt.Errorf("no member %s", memberID)
		}
		return docs[0].As(&member)
	})

	g.Go(func() error {
		docs, err := p.fetchOnce(gctx, central.Query{Collection: models.CollectionTasks}.
			Where("assigneeId", central.OpEqual, memberID))
		if err != nil {
			return err
		}
		for _, d := range docs {
			var task models.Task
			if err := d.As(&task); err != nil {
				return err
			}
			tasks = append(tasks, task)
		}
		return nil
	})

	g.Go(func() error {
		docs, err := p.fetchOnce(gctx, central.Query{Collection: models.CollectionEvents}.
			Where("attendeeIds", central.OpArrayContains, memberID).
			SortBy("startTime", central.Asc))
		if err != nil {
			return err
		}
		for _, d := range docs {
			var event models.CalendarEvent
			if err := d.As(&event); err != nil {
				return err
			}
			events = append(events, event)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return "", err
	}

	res, err := p.summarizer.Summarize(ctx, ai.SummaryRequest{
		MemberName: member.Username,
		Tasks:      renderTasks(tasks),
		Events:     renderEvents(events),
	})
	if err != nil {
		return "", err
	}
	return res.Summary, nil
}

func renderTasks(tasks []models.Task) string {
	if len(tasks) == 0 {
		return "No task assignments."
	}
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		line := fmt.Sprintf("- %s (%s)", t.Title, t.Status)
		if t.DueDate != "" {
			line += ", due " + t.DueDate
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func renderEvents(events []models.CalendarEvent) string {
	if len(events) == 0 {
		return "No calendar events."
	}
	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, fmt.Sprintf("- %s, %s to %s",
			e.Title,
			e.StartTime.Format("2006-01-02 15:04"),
			e.EndTime.Format("15:04"),
		))
	}
	return strings.Join(lines, "\n")
}
