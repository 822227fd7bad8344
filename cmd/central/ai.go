package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/geekforce/central.go/pkg/ai"
)

func newSuggestPfpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest-pfp <description>",
		Short: "Suggest a profile picture for a description and print the data URI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			suggester := &ai.PictureSuggester{}
			res, err := suggester.Suggest(ctx, ai.PictureRequest{Description: args[0]})
			if err != nil {
				return err
			}
			fmt.Println(res.DataURI)
			return nil
		},
	}
}

func newSummarizeCommand() *cobra.Command {
	var memberName, tasks, events, model string

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Generate an activity summary for a member from task and event lists",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKey := os.Getenv("GEMINI_API_KEY")
			if apiKey == "" {
				return fmt.Errorf("GEMINI_API_KEY is not set")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			summarizer, err := ai.NewSummarizer(ctx, ai.SummarizerConfig{APIKey: apiKey, Model: model})
			if err != nil {
				return err
			}

			res, err := summarizer.Summarize(ctx, ai.SummaryRequest{
				MemberName: memberName,
				Tasks:      tasks,
				Events:     events,
			})
			if err != nil {
				return err
			}
			fmt.Println(res.Summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&memberName, "member", "", "member name")
	cmd.Flags().StringVar(&tasks, "tasks", "", "task assignments, free text")
	cmd.Flags().StringVar(&events, "events", "", "calendar events, free text")
	cmd.Flags().StringVar(&model, "model", "", "model override")
	_ = cmd.MarkFlagRequired("member")
	return cmd
}
