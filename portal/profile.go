package portal

import (
	"context"
	"fmt"

	central "github.com/geekforce/central.go"
	"github.com/geekforce/central.go/pkg/ai"
	"github.com/geekforce/central.go/pkg/models"
	"github.com/geekforce/central.go/pkg/status"
)

// UpdateProfile dispatches a merge write of the given profile fields
// onto the member document.
func (p *Portal) UpdateProfile(memberID string, fields central.Fields) error {
	if memberID == "" {
		return fmt.Errorf("%w: member id is required", status.ErrInvalidArgument)
	}
	return p.client.EnqueueUpsert(central.Doc(models.CollectionUsers, memberID), fields)
}

// SetStatus dispatches an online/away/offline presence change.
func (p *Portal) SetStatus(memberID string, to models.MemberStatus) error {
	return p.UpdateProfile(memberID, central.Fields{"status": to})
}

// GeneratePicture runs the profile picture suggestion flow and
// returns the data URI. The caller decides whether to apply it via
// UpdateProfile; the flow itself writes nothing.
func (p *Portal) GeneratePicture(ctx context.Context, description string) (string, error) {
	res, err := p.pictures.Suggest(ctx, ai.PictureRequest{Description: description})
	if err != nil {
		return "", err
	}
	return res.DataURI, nil
}
