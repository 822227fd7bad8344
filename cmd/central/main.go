// Command central is a terminal companion for the GeekForce Central
// backend: tail a live collection, or run the AI helper flows without
// opening the portal.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/geekforce/central.go/pkg/logger"
	"github.com/geekforce/central.go/pkg/logger/zero"
)

var (
	flagURL     string
	flagVerbose bool
)

func main() {
	root := &cobra.Command{
		Use:           "central",
		Short:         "GeekForce Central command line companion",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagURL, "url", "ws://localhost:8400", "Central backend base URL")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newWatchCommand())
	root.AddCommand(newSuggestPfpCommand())
	root.AddCommand(newSummarizeCommand())

	if err := root.Execute(); err != nil {
		newLogger().Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newLogger() logger.Logger {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr}
	return zero.New(zerolog.New(writer).Level(level).With().Timestamp().Logger())
}
