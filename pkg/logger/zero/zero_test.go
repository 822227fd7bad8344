package zero_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/geekforce/central.go/pkg/logger/zero"
)

func TestZeroLogger(t *testing.T) {
	buff := bytes.NewBuffer(nil)
	log := zero.New(zerolog.New(buff).With().Timestamp().Logger())

	log.Info("subscription opened", "collection", "tasks")

	require.Contains(t, buff.String(), "subscription opened")
	require.Contains(t, buff.String(), `"collection":"tasks"`)
}
