package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"soundcheck/internal/auth"
	"soundcheck/internal/game"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Signup(ctx context.Context, email, password, username string) (auth.Session, error) {
	var out auth.Session
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/auth/signup", "", map[string]any{
		"email":    email,
		"password": password,
		"username": username,
	}, &out, "")
	return out, err
}

func (c *Client) Login(ctx context.Context, email, password string) (auth.Session, error) {
	var out auth.Session
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	}, &out, "")
	return out, err
}

func (c *Client) CreateBand(ctx context.Context, token, name, idem string) (int64, error) {
	var out struct {
		ID int64 `json:"id"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/bands", token, map[string]any{
		"name": name,
	}, &out, idem)
	return out.ID, err
}

func (c *Client) Dashboard(ctx context.Context, token string, bandID int64) (game.Dashboard, error) {
	var out game.Dashboard
	err := c.jsonRequest(ctx, http.MethodGet, fmt.Sprintf("/v1/bands/%d/dashboard", bandID), token, nil, &out, "")
	return out, err
}

func (c *Client) Venues(ctx context.Context, token string) ([]game.VenueView, error) {
	var out struct {
		Venues []game.VenueView `json:"venues"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/venues", token, nil, &out, "")
	return out.Venues, err
}

func (c *Client) BookGig(ctx context.Context, token string, bandID, venueID, priceCents int64, daysBooked int, idem string) (game.GigView, error) {
	var out game.GigView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/gigs", token, map[string]any{
		"band_id":            bandID,
		"venue_id":           venueID,
		"ticket_price_cents": priceCents,
		"days_booked":        daysBooked,
	}, &out, idem)
	return out, err
}

func (c *Client) GigDetail(ctx context.Context, token string, gigID int64) (game.GigView, error) {
	var out game.GigView
	err := c.jsonRequest(ctx, http.MethodGet, fmt.Sprintf("/v1/gigs/%d", gigID), token, nil, &out, "")
	return out, err
}

func (c *Client) CompleteGig(ctx context.Context, token string, gigID int64, rating float64, grade string) (game.OutcomeView, error) {
	var out game.OutcomeView
	err := c.jsonRequest(ctx, http.MethodPost, fmt.Sprintf("/v1/gigs/%d/complete", gigID), token, map[string]any{
		"rating": rating,
		"grade":  grade,
	}, &out, "")
	return out, err
}

func (c *Client) GigOutcome(ctx context.Context, token string, gigID int64) (game.OutcomeView, error) {
	var out game.OutcomeView
	err := c.jsonRequest(ctx, http.MethodGet, fmt.Sprintf("/v1/gigs/%d/outcome", gigID), token, nil, &out, "")
	return out, err
}

func (c *Client) CityLedgers(ctx context.Context, token string, bandID int64) ([]game.CityLedgerView, error) {
	var out struct {
		Cities []game.CityLedgerView `json:"cities"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, fmt.Sprintf("/v1/bands/%d/cities", bandID), token, nil, &out, "")
	return out.Cities, err
}

func (c *Client) Leaderboard(ctx context.Context, token string) ([]game.LeaderboardRow, error) {
	var out struct {
		Rows []game.LeaderboardRow `json:"rows"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/leaderboard", token, nil, &out, "")
	return out.Rows, err
}

// Do replays a queued command verbatim, preserving its idempotency key so
// retries of an already-applied mutation come back as clean conflicts.
func (c *Client) Do(ctx context.Context, token, method, path string, body map[string]any, idem string) error {
	return c.jsonRequest(ctx, method, path, token, body, nil, idem)
}

func (c *Client) jsonRequest(ctx context.Context, method, path, token string, payload, out any, idem string) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
