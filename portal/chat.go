package portal

import (
	"fmt"
	"strings"

	central "github.com/geekforce/central.go"
	"github.com/geekforce/central.go/pkg/models"
	"github.com/geekforce/central.go/pkg/status"
)

// SendMessage dispatches a chat message to the team channel. The
// timestamp is assigned by the server so clock skew between agents
// never reorders the channel.
func (p *Portal) SendMessage(content string) (central.DocRef, error) {
	user, err := p.requireUser()
	if err != nil {
		return central.DocRef{}, err
	}
	if strings.TrimSpace(content) == "" {
		return central.DocRef{}, fmt.Errorf("%w: empty message", status.ErrInvalidArgument)
	}

	return p.client.EnqueueCreate(central.Collection(models.CollectionMessages), central.Fields{
		"senderId":  user.UID,
		"content":   content,
		"timestamp": models.ServerTimestamp,
	})
}

// WatchMessages feeds the chat page, oldest message first.
func (p *Portal) WatchMessages(fn func(View[models.ChatMessage])) (central.Unsubscribe, error) {
	q := central.Query{Collection: models.CollectionMessages}.SortBy("timestamp", central.Asc)
	return watch[models.ChatMessage](p, q, fn)
}
