package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"github.com/geekforce/central.go/pkg/status"
)

// DefaultPictureBaseURL is the placeholder image service keyed by
// seed.
const DefaultPictureBaseURL = "https://picsum.photos"

// PictureRequest is the input of the profile picture suggestion flow.
type PictureRequest struct {
	Description string
}

// PictureResponse carries the suggested picture as a self-describing
// data URI: "data:<mimetype>;base64,<payload>".
type PictureResponse struct {
	DataURI string
}

// Seed derives a deterministic 32-bit seed from a description using a
// multiply-by-31 rolling hash with wraparound. The same description
// always yields the same seed, so repeated suggestions are stable.
func Seed(description string) uint32 {
	var seed int32
	for _, ch := range []byte(description) {
		seed = (seed << 5) - seed + int32(ch)
	}

	// int64 widening so the minimum value negates cleanly.
	v := int64(seed)
	if v < 0 {
		v = -v
	}
	return uint32(v)
}

// PictureSuggester fetches seeded placeholder images and encodes them
// as data URIs.
type PictureSuggester struct {
	// BaseURL defaults to DefaultPictureBaseURL. Tests point it at a
	// local server.
	BaseURL string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// ImageURL is the exact URL Suggest will fetch for a description.
func (p *PictureSuggester) ImageURL(description string) string {
	base := p.BaseURL
	if base == "" {
		base = DefaultPictureBaseURL
	}
	return fmt.Sprintf("%s/seed/%d/200/200", base, Seed(description))
}

// Suggest fetches the seeded image and returns it as a data URI.
// Non-2xx upstream responses come back as a status.Error with
// KindUpstreamService.
func (p *PictureSuggester) Suggest(ctx context.Context, req PictureRequest) (*PictureResponse, error) {
	if req.Description == "" {
		return nil, fmt.Errorf("%w: description is required", status.ErrInvalidArgument)
	}

	httpClient := p.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	url := p.ImageURL(req.Description)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, &status.Error{Kind: status.KindUpstreamService, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &status.Error{
			Kind:    status.KindUpstreamService,
			Message: fmt.Sprintf("failed to fetch image from %s: %s", url, resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &status.Error{Kind: status.KindUpstreamService, Message: err.Error()}
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	return &PictureResponse{
		DataURI: fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(body)),
	}, nil
}
