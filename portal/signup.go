package portal

import (
	"context"
	"fmt"
	"time"

	central "github.com/geekforce/central.go"
	"github.com/geekforce/central.go/pkg/ai"
	"github.com/geekforce/central.go/pkg/models"
	"github.com/geekforce/central.go/pkg/status"
)

const (
	defaultRole        = "Field Agent"
	defaultDescription = "A new GeekForce recruit, ready for missions!"

	ensureProfileTimeout = 10 * time.Second
)

// SignUp dispatches account creation and arranges for the member
// profile to be created once the identity service confirms the user.
//
// Two independent signals race to trigger profile creation: the
// advisory signup callback and the auth-state change event. Both run
// EnsureProfile, which is idempotent, so whichever lands first wins
// and the second is a no-op. The returned function removes the state
// listener once signup handling is done with (e.g. after navigation).
func (p *Portal) SignUp(creds central.Credentials, username string, cb central.AuthCallback) (func(), error) {
	session := p.client.Session()

	remove := session.OnStateChange(func(user *central.User) {
		if user == nil {
			return
		}
		p.ensureProfileLogged(user, username, creds.Email)
	})

	err := session.SignUp(creds, func(authErr *status.Error) {
		if authErr == nil {
			if user := session.User(); user != nil {
				p.ensureProfileLogged(user, username, creds.Email)
			}
		}
		if cb != nil {
			cb(authErr)
		}
	})
	if err != nil {
		remove()
		return nil, err
	}
	return remove, nil
}

func (p *Portal) ensureProfileLogged(user *central.User, username, email string) {
	ctx, cancel := context.WithTimeout(context.Background(), ensureProfileTimeout)
	defer cancel()
	if err := p.EnsureProfile(ctx, user, username, email); err != nil {
		p.logger.Error("error ensuring member profile", "uid", user.UID, "error", err)
	}
}

// EnsureProfile creates the member document for a fresh account if it
// does not exist yet. The guard is an existence check rather than a
// lock: the racing triggers originate in different processes of the
// identity service, so there is nothing local to lock. The write
// itself is a merge upsert, so even two interleaved calls converge on
// one intact profile.
func (p *Portal) EnsureProfile(ctx context.Context, user *central.User, username, email string) error {
	docs, err := p.fetchOnce(ctx, central.Query{
		Collection: models.CollectionUsers,
		Doc:        user.UID,
	})
	if err != nil {
		return fmt.Errorf("error checking for existing profile: %w", err)
	}
	if len(docs) > 0 {
		return nil
	}

	return p.client.EnqueueUpsert(central.Doc(models.CollectionUsers, user.UID), central.Fields{
		"id":             user.UID,
		"username":       username,
		"email":          email,
		"role":           defaultRole,
		"status":         models.StatusOnline,
		"description":    defaultDescription,
		"profilePicture": fmt.Sprintf("%s/seed/%s/200/200", ai.DefaultPictureBaseURL, user.UID),
	})
}
