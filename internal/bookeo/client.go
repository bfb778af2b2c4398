package bookeo

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

	"go.uber.org/zap"

	"github.com/cte-escapes/waiver-backend/config"
)

// StatusError is a non-2xx response from the Bookeo API.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bookeo %s: unexpected status %d", e.Op, e.Code)
}

// Client calls the Bookeo REST API. All requests carry the API key pair as
// query parameters and run under the client's bounded timeout.
type Client struct {
	baseURL   string
	apiKey    string
	secretKey string
	http      *http.Client
	logger    *zap.Logger
}

// NewClient creates a Bookeo client. A nil httpClient gets one with the
// configured timeout.
func NewClient(cfg config.BookeoConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		secretKey: cfg.SecretKey,
		http:      httpClient,
		logger:    logger,
	}
}

// SearchBookings lists bookings whose time window intersects [start, end],
// with participant details expanded for identity matching.
func (c *Client) SearchBookings(ctx context.Context, start, end time.Time) ([]Booking, error) {
	q := url.Values{}
	q.Set("startTime", start.Format(time.RFC3339))
	q.Set("endTime", end.Format(time.RFC3339))
	q.Set("expandParticipants", "true")

	var list BookingList
	if err := c.get(ctx, "search bookings", "/bookings", q, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// ListBookings lists bookings for revenue reporting, including canceled ones.
func (c *Client) ListBookings(ctx context.Context, start, end time.Time) ([]Booking, error) {
	q := url.Values{}
	q.Set("startTime", start.Format(time.RFC3339))
	q.Set("endTime", end.Format(time.RFC3339))
	q.Set("itemsPerPage", strconv.Itoa(100))
	q.Set("includeCanceled", "true")

	var list BookingList
	if err := c.get(ctx, "list bookings", "/bookings", q, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// GetPerson fetches the full customer document, or the linked-person
// sub-resource when the person is a participant distinct from the booker.
func (c *Client) GetPerson(ctx context.Context, customerID, personID string) (*PersonDocument, error) {
	var doc PersonDocument
	if err := c.get(ctx, "get person", personPath(customerID, personID), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdatePerson writes a modified person document back. mode=backend skips
// customer-facing notification emails.
func (c *Client) UpdatePerson(ctx context.Context, customerID, personID string, doc *PersonDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("bookeo update person: encode: %w", err)
	}

	u, err := c.buildURL(personPath(customerID, personID), url.Values{"mode": {"backend"}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("bookeo update person: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("bookeo update person: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("bookeo update rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("customer_id", customerID))
		return &StatusError{Op: "update person", Code: resp.StatusCode}
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values, out interface{}) error {
	u, err := c.buildURL(path, q)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("bookeo %s: %w", op, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("bookeo %s: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Op: op, Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("bookeo %s: decode: %w", op, err)
	}
	return nil
}

// buildURL joins the base URL, path and query, always appending the API key
// pair. No string concatenation of caller-supplied values happens anywhere.
func (c *Client) buildURL(path string, q url.Values) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("bookeo url: %w", err)
	}
	merged := url.Values{}
	for k, vs := range q {
		merged[k] = vs
	}
	merged.Set("apiKey", c.apiKey)
	merged.Set("secretKey", c.secretKey)
	u.RawQuery = merged.Encode()
	return u.String(), nil
}

func personPath(customerID, personID string) string {
	if personID != "" && personID != customerID {
		return "/customers/" + url.PathEscape(customerID) + "/linkedpeople/" + url.PathEscape(personID)
	}
	return "/customers/" + url.PathEscape(customerID)
}
