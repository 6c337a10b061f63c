// Package hub is the client for the drop hub API. Each operation is one
// request/response exchange; the client keeps no state between calls.
package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/opoerator/drop/internal/config"
	"github.com/opoerator/drop/internal/errors"
	"github.com/opoerator/drop/internal/record"
)

// requestTimeout bounds each exchange. No retry on failure.
const requestTimeout = 30 * time.Second

// Client talks to the hub over authenticated HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a hub client from the resolved configuration. Fails before
// any network activity when no API key is available.
func New(cfg *config.Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewConfig(
			"no API key found; set DROP_API_KEY or INGEST_API_KEY, or create a .env file with INGEST_API_KEY=...")
	}
	return &Client{
		baseURL:    cfg.HubURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: requestTimeout},
	}, nil
}

// CreateInput contains parameters for posting a new drop.
type CreateInput struct {
	FromAgent string   `json:"from_agent"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	DropType  string   `json:"drop_type"`
	Tags      []string `json:"tags"`
}

// ListInput contains filters for listing drops. Zero values are omitted
// from the query string.
type ListInput struct {
	FromAgent string
	DropType  string
	Since     string // ISO timestamp lower bound
	Limit     int
}

// dropEnvelope wraps single-record hub responses.
type dropEnvelope struct {
	Drop record.Record `json:"drop"`
}

// dropsEnvelope wraps collection hub responses.
type dropsEnvelope struct {
	Drops []record.Record `json:"drops"`
}

// Create posts a drop and returns the stored record as the hub sees it,
// including the server-assigned id and CDN URL when its upload succeeded.
func (c *Client) Create(ctx context.Context, in CreateInput) (*record.Record, error) {
	if in.Tags == nil {
		in.Tags = []string{}
	}
	var env dropEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/agent-drops", in, nil, &env); err != nil {
		return nil, err
	}
	return &env.Drop, nil
}

// List fetches drops matching the given filters.
func (c *Client) List(ctx context.Context, in ListInput) ([]record.Record, error) {
	params := url.Values{}
	if in.FromAgent != "" {
		params.Set("from_agent", in.FromAgent)
	}
	if in.DropType != "" {
		params.Set("drop_type", in.DropType)
	}
	if in.Since != "" {
		params.Set("since", in.Since)
	}
	if in.Limit > 0 {
		params.Set("limit", strconv.Itoa(in.Limit))
	}

	var env dropsEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/agent-drops", nil, params, &env); err != nil {
		return nil, err
	}
	return env.Drops, nil
}

// Read fetches a single drop by id.
func (c *Client) Read(ctx context.Context, id string) (*record.Record, error) {
	var env dropEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/agent-drops/"+url.PathEscape(id), nil, nil, &env); err != nil {
		return nil, err
	}
	return &env.Drop, nil
}

// do performs one exchange. Non-2xx responses become TRANSPORT errors
// carrying the response body verbatim.
func (c *Client) do(ctx context.Context, method, path string, body any, params url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.NewInternal(err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return errors.NewInternal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewTransport(0, err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.NewTransport(resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return errors.NewInternal(fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}
