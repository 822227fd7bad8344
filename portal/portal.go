// Package portal implements the GeekForce Central team operations on
// top of the SDK: the member roster, the task board, team chat, the
// mission calendar, profiles and AI activity insights.
//
// Every write goes through the client's non-blocking dispatchers and
// every read is a live subscription; the portal never waits on a
// write to update what it shows.
package portal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	central "github.com/geekforce/central.go"
	"github.com/geekforce/central.go/pkg/ai"
	"github.com/geekforce/central.go/pkg/logger"
	"github.com/geekforce/central.go/pkg/models"
	"github.com/geekforce/central.go/pkg/status"
)

// Summarizer is the activity summary collaborator; *ai.Summarizer
// satisfies it, tests plug in a canned one.
type Summarizer interface {
	Summarize(ctx context.Context, req ai.SummaryRequest) (*ai.SummaryResponse, error)
}

// Config configures a Portal. Client is required; the rest default.
type Config struct {
	Client     *central.Client
	Logger     logger.Logger
	Summarizer Summarizer
	Pictures   *ai.PictureSuggester
}

type Portal struct {
	client     *central.Client
	logger     logger.Logger
	summarizer Summarizer
	pictures   *ai.PictureSuggester
}

func New(cfg Config) *Portal {
	log := cfg.Logger
	if log == nil {
		log = logger.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	pictures := cfg.Pictures
	if pictures == nil {
		pictures = &ai.PictureSuggester{}
	}
	return &Portal{
		client:     cfg.Client,
		logger:     log,
		summarizer: cfg.Summarizer,
		pictures:   pictures,
	}
}

// Session exposes the auth session for login/signup screens.
func (p *Portal) Session() *central.Session {
	return p.client.Session()
}

// View is a typed rendering of one snapshot: decoded items, or the
// loading flag, or a terminal error.
type View[T any] struct {
	Items   []T
	Loading bool
	Err     error
}

// watch adapts a raw snapshot stream into typed views. Documents that
// fail to decode are dropped and logged rather than wedging the view.
func watch[T any](p *Portal, q central.Query, fn func(View[T])) (central.Unsubscribe, error) {
	return p.client.Subscribe(q, func(s central.Snapshot) {
		v := View[T]{Loading: s.Loading, Err: s.Err}
		for _, d := range s.Docs {
			var item T
			if err := d.As(&item); err != nil {
				p.logger.Warn("dropping undecodable document", "collection", q.Collection, "id", d.ID, "error", err)
				continue
			}
			v.Items = append(v.Items, item)
		}
		fn(v)
	})
}

// WatchRoster feeds the dashboard member cards.
func (p *Portal) WatchRoster(fn func(View[models.Member])) (central.Unsubscribe, error) {
	return watch[models.Member](p, central.Query{Collection: models.CollectionUsers}, fn)
}

// requireUser resolves the signed-in user for operations that stamp
// authorship.
func (p *Portal) requireUser() (*central.User, error) {
	user := p.client.Session().User()
	if user == nil {
		return nil, fmt.Errorf("%w: not signed in", status.ErrInvalidArgument)
	}
	return user, nil
}

// fetchOnce resolves a query to its current result set: subscribe,
// take the first settled snapshot, unsubscribe.
func (p *Portal) fetchOnce(ctx context.Context, q central.Query) ([]central.Document, error) {
	type result struct {
		docs []central.Document
		err  error
	}
	ch := make(chan result, 1)

	unsubscribe, err := p.client.Subscribe(q, func(s central.Snapshot) {
		if s.Loading {
			return
		}
		r := result{docs: s.Docs, err: s.Err}
		select {
		case ch <- r:
		default:
		}
	})
	if err != nil {
		return nil, err
	}
	defer unsubscribe()

	select {
	case r := <-ch:
		return r.docs, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
