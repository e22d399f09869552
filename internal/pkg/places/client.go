package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bragfeed/bragfeed/internal/pkg/env"
)

const defaultAPIBaseURL = "https://places.googleapis.com/v1"

// BusinessDetails is the aggregate profile state reported by the reviews
// provider for one place.
type BusinessDetails struct {
	Name        string
	Address     string
	ReviewCount int
	Rating      float64
}

// ReviewRecord is one review as returned by the provider. Time is epoch
// seconds.
type ReviewRecord struct {
	AuthorName  string
	AuthorImage string
	Time        int64
	Link        string
	Rating      int
	Text        string
}

// Source is the opaque external review data source. The refresh pipeline
// only depends on this interface.
type Source interface {
	GetBusinessDetails(ctx context.Context, placeID string) (*BusinessDetails, error)
	GetReviews(ctx context.Context, placeID string) ([]ReviewRecord, error)
}

// Client fetches business profiles and reviews over HTTP.
type Client struct {
	APIKey     string
	APIBaseURL string

	HTTPClient *http.Client
}

// NewClientFromEnv builds a client from PLACES_* environment configuration.
func NewClientFromEnv() *Client {
	return &Client{
		APIKey:     strings.TrimSpace(env.GetEnv("PLACES_API_KEY", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("PLACES_API_BASE_URL", defaultAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *Client) GetBusinessDetails(ctx context.Context, placeID string) (*BusinessDetails, error) {
	body, err := c.get(ctx, "/details", placeID)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Result struct {
			Name             string  `json:"name"`
			FormattedAddress string  `json:"formatted_address"`
			UserRatingsTotal int     `json:"user_ratings_total"`
			Rating           float64 `json:"rating"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw.Result.Name) == "" {
		return nil, errors.New("place details response missing business name")
	}

	return &BusinessDetails{
		Name:        strings.TrimSpace(raw.Result.Name),
		Address:     strings.TrimSpace(raw.Result.FormattedAddress),
		ReviewCount: raw.Result.UserRatingsTotal,
		Rating:      raw.Result.Rating,
	}, nil
}

func (c *Client) GetReviews(ctx context.Context, placeID string) ([]ReviewRecord, error) {
	body, err := c.get(ctx, "/reviews", placeID)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Result struct {
			Reviews []struct {
				AuthorName      string `json:"author_name"`
				ProfilePhotoURL string `json:"profile_photo_url"`
				AuthorURL       string `json:"author_url"`
				Rating          int    `json:"rating"`
				Text            string `json:"text"`
				Time            int64  `json:"time"`
			} `json:"reviews"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	out := make([]ReviewRecord, 0, len(raw.Result.Reviews))
	for _, r := range raw.Result.Reviews {
		out = append(out, ReviewRecord{
			AuthorName:  strings.TrimSpace(r.AuthorName),
			AuthorImage: strings.TrimSpace(r.ProfilePhotoURL),
			Time:        r.Time,
			Link:        strings.TrimSpace(r.AuthorURL),
			Rating:      r.Rating,
			Text:        r.Text,
		})
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path, placeID string) ([]byte, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("PLACES_API_KEY is not configured")
	}
	if strings.TrimSpace(placeID) == "" {
		return nil, errors.New("place id is required")
	}

	u, err := url.Parse(strings.TrimRight(c.APIBaseURL, "/") + path)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("place_id", placeID)
	q.Set("key", c.APIKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("places request failed: status=%d body=%s", resp.StatusCode, string(body))
	}
	return body, nil
}
