// Package client is a typed HTTP client for the MedShelf API. Every method
// returns the decoded response or an error; non-2xx responses become
// *APIError carrying the server's error text. There are no retries.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ghuser/medshelf/pkg/optional"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string

	body []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("medshelf: %d %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Medicine mirrors the API record.
type Medicine struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Brand     *string   `json:"brand"`
	Dosage    *string   `json:"dosage"`
	Quantity  int       `json:"quantity"`
	Lot       *string   `json:"lot"`
	ExpiresAt *string   `json:"expires_at"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MedicineInput is the body for Create, Update and Replace. Absent fields
// are not sent; optional.Null sends an explicit null.
type MedicineInput struct {
	Name      optional.Value[string] `json:"name,omitzero"`
	Brand     optional.Value[string] `json:"brand,omitzero"`
	Dosage    optional.Value[string] `json:"dosage,omitzero"`
	Quantity  optional.Value[int]    `json:"quantity,omitzero"`
	Lot       optional.Value[string] `json:"lot,omitzero"`
	ExpiresAt optional.Value[string] `json:"expires_at,omitzero"`
	Notes     optional.Value[string] `json:"notes,omitzero"`
}

// Page is one page of List results.
type Page struct {
	Items    []Medicine `json:"items"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
}

// ListParams are the List query; zero values are omitted.
type ListParams struct {
	Search   string
	Page     int
	PageSize int
}

// Stats are the server-side dashboard aggregates.
type Stats struct {
	Total              int `json:"total"`
	LowStock           int `json:"lowStock"`
	ExpiringSoon       int `json:"expiringSoon"`
	LowStockThreshold  int `json:"lowStockThreshold"`
	ExpiringWithinDays int `json:"expiringWithinDays"`
}

// StatsParams override the thresholds; nil uses the server defaults.
type StatsParams struct {
	Search     string
	LowStock   *int
	WithinDays *int
}

// Health is the /api/health body.
type Health struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks"`
}

// Client talks to one MedShelf API.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default traced client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for baseURL, e.g. "http://localhost:4000". A
// trailing "/api" is optional.
func New(baseURL string, opts ...Option) *Client {
	base := strings.TrimRight(baseURL, "/")
	base = strings.TrimSuffix(base, "/api")
	c := &Client{
		baseURL: base + "/api",
		http: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health reports dependency status. A degraded service answers 503 with
// the per-check detail, which is returned alongside the *APIError.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	err := c.do(ctx, http.MethodGet, "/health", nil, nil, &h)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable {
		if json.Unmarshal(apiErr.body, &h) == nil {
			return &h, err
		}
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) List(ctx context.Context, p ListParams) (*Page, error) {
	q := url.Values{}
	if p.Search != "" {
		q.Set("q", p.Search)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(p.PageSize))
	}
	var page Page
	if err := c.do(ctx, http.MethodGet, "/medicines", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) Get(ctx context.Context, id int64) (*Medicine, error) {
	var m Medicine
	if err := c.do(ctx, http.MethodGet, medicinePath(id), nil, nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) Create(ctx context.Context, in MedicineInput) (*Medicine, error) {
	var m Medicine
	if err := c.do(ctx, http.MethodPost, "/medicines", nil, in, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Update sends a PATCH: only the fields set in in are changed.
func (c *Client) Update(ctx context.Context, id int64, in MedicineInput) (*Medicine, error) {
	var m Medicine
	if err := c.do(ctx, http.MethodPatch, medicinePath(id), nil, in, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Replace sends a PUT: absent and null fields keep their stored value.
func (c *Client) Replace(ctx context.Context, id int64, in MedicineInput) (*Medicine, error) {
	var m Medicine
	if err := c.do(ctx, http.MethodPut, medicinePath(id), nil, in, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, medicinePath(id), nil, nil, nil)
}

func (c *Client) Stats(ctx context.Context, p StatsParams) (*Stats, error) {
	q := url.Values{}
	if p.Search != "" {
		q.Set("q", p.Search)
	}
	if p.LowStock != nil {
		q.Set("lowStock", strconv.Itoa(*p.LowStock))
	}
	if p.WithinDays != nil {
		q.Set("withinDays", strconv.Itoa(*p.WithinDays))
	}
	var s Stats
	if err := c.do(ctx, http.MethodGet, "/medicines/stats", q, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Report downloads the XLSX report for search into w.
func (c *Client) Report(ctx context.Context, search string, w io.Writer) error {
	q := url.Values{}
	if search != "" {
		q.Set("q", search)
	}
	resp, err := c.send(ctx, http.MethodGet, "/medicines/report.xlsx", q, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("medshelf: read report: %w", err)
	}
	return nil
}

func medicinePath(id int64) string {
	return "/medicines/" + strconv.FormatInt(id, 10)
}

// do sends the request and decodes a 2xx body into out. 204 leaves out
// untouched.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	resp, err := c.send(ctx, method, path, q, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNoContent || out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("medshelf: decode %s %s: %w", method, path, err)
	}
	return nil
}

// send performs the request and returns the response for 2xx statuses.
// Any other status is read and closed and returned as *APIError.
func (c *Client) send(ctx context.Context, method, path string, q url.Values, in any) (*http.Response, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("medshelf: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("medshelf: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("medshelf: %s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close() //nolint:errcheck
	return nil, newAPIError(resp)
}

// newAPIError prefers the JSON "error" field, then the raw body text, then
// the status line.
func newAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := strings.TrimSpace(string(raw))

	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	if msg == "" {
		msg = resp.Status
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg, body: raw}
}
