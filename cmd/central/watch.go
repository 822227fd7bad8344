package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	central "github.com/geekforce/central.go"
)

func newWatchCommand() *cobra.Command {
	var orderBy string
	var desc bool

	cmd := &cobra.Command{
		Use:   "watch <collection>",
		Short: "Subscribe to a collection and print each snapshot until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := newLogger()

			connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			client, err := central.Connect(connectCtx, central.Config{URL: flagURL, Logger: log})
			if err != nil {
				return fmt.Errorf("error connecting to %s: %w", flagURL, err)
			}
			defer client.Close(context.Background())

			query := central.Query{Collection: args[0]}
			if orderBy != "" {
				dir := central.Asc
				if desc {
					dir = central.Desc
				}
				query = query.SortBy(orderBy, dir)
			}

			unsubscribe, err := client.Subscribe(query, func(s central.Snapshot) {
				switch {
				case s.Loading:
					log.Info("waiting for first snapshot", "collection", args[0])
				case s.Err != nil:
					log.Error("subscription failed", "error", s.Err)
					stop()
				default:
					fmt.Printf("--- snapshot (%d documents) ---\n", len(s.Docs))
					for _, d := range s.Docs {
						fmt.Printf("%s: %v\n", d.ID, d.Fields)
					}
				}
			})
			if err != nil {
				return err
			}
			defer unsubscribe()

			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&orderBy, "order-by", "", "field to order the snapshot by")
	cmd.Flags().BoolVar(&desc, "desc", false, "order descending")
	return cmd
}
