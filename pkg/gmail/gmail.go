package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bert143-oss/email-scribe-connect/pkg/helpers"
	"github.com/bert143-oss/email-scribe-connect/pkg/types"
)

const (
	defaultBaseURL    = "https://gmail.googleapis.com"
	defaultMaxResults = 10
	defaultBodyLimit  = 500
)

var ErrMissingToken = errors.New("access token is required")

// APIError is a non-success reply from the Gmail API. Listing failures
// carry it up so the caller can propagate the upstream status code.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gmail: %d %s", e.StatusCode, e.Body)
}

type Client struct {
	httpClient *http.Client
	logger     *log.Logger
	baseURL    string
	bodyLimit  int
}

func NewClient(logger *log.Logger, baseURL string, bodyLimit int) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if bodyLimit <= 0 {
		bodyLimit = defaultBodyLimit
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		baseURL:    baseURL,
		bodyLimit:  bodyLimit,
	}
}

// WithLogger returns a copy of the client that logs through logger. Handlers
// use it to carry their request-scoped logger into hydration, so degradation
// lines keep the request's correlation id.
func (c *Client) WithLogger(logger *log.Logger) *Client {
	derived := *c
	derived.logger = logger
	return &derived
}

// ListMessages lists up to maxResults message ids for the mailbox the token
// belongs to and hydrates each into an Email. Listing failure is fatal for
// the call; hydration failures only shrink the result set.
func (c *Client) ListMessages(ctx context.Context, token string, maxResults int) ([]types.Email, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	ids, err := c.ListMessageIDs(ctx, token, maxResults)
	if err != nil {
		return nil, err
	}

	return c.HydrateMessages(ctx, token, ids), nil
}

func (c *Client) ListMessageIDs(ctx context.Context, token string, maxResults int) ([]string, error) {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/gmail/v1/users/me/messages", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	q := req.URL.Query()
	q.Set("maxResults", fmt.Sprintf("%d", maxResults))
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	var list struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(list.Messages))
	for _, m := range list.Messages {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// HydrateMessages fetches every id concurrently and returns the subset that
// hydrated, in listing order. A failed message is logged and dropped, it
// never fails the batch.
func (c *Client) HydrateMessages(ctx context.Context, token string, ids []string) []types.Email {
	results := make([]*types.Email, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			email, err := c.FetchMessage(ctx, token, id)
			if err != nil {
				c.logger.Error("hydrate message", "id", id, "error", err)
				return
			}
			results[i] = &email
		}(i, id)
	}
	wg.Wait()

	out := make([]types.Email, 0, len(ids))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

type bodyData struct {
	Data string `json:"data"`
}

type payload struct {
	MimeType string `json:"mimeType"`
	Headers  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"headers"`
	Body  bodyData  `json:"body"`
	Parts []payload `json:"parts"`
}

// FetchMessage hydrates a single message id. Headers are matched by exact
// name; absent subject and sender fall back to placeholders so the record
// always renders.
func (c *Client) FetchMessage(ctx context.Context, token, id string) (types.Email, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/gmail/v1/users/me/messages/%s", c.baseURL, id), nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.Email{}, err
	}

	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return types.Email{}, fmt.Errorf("fetch %s: %d", id, resp.StatusCode)
	}

	var msg struct {
		ID      string  `json:"id"`
		Snippet string  `json:"snippet"`
		Payload payload `json:"payload"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return types.Email{}, err
	}

	h := map[string]string{}
	for _, v := range msg.Payload.Headers {
		h[v.Name] = v.Value
	}

	email := types.Email{
		ID:      id,
		Subject: h["Subject"],
		From:    h["From"],
		Date:    h["Date"],
		Snippet: msg.Snippet,
		Body:    c.extractBody(msg.Payload),
	}
	if email.Subject == "" {
		email.Subject = "No Subject"
	}
	if email.From == "" {
		email.From = "Unknown Sender"
	}
	return email, nil
}

// extractBody returns the message body as plain text, capped to the
// configured limit. A top-level body wins; otherwise the first text/plain
// part found depth-first does. Later plain parts and HTML alternatives are
// skipped on purpose.
func (c *Client) extractBody(p payload) string {
	data := p.Body.Data
	if data == "" {
		data = findPlainPart(p.Parts)
	}
	if data == "" {
		return ""
	}

	decoded, _ := decodeBase64URL(data)
	return helpers.Truncate(decoded, c.bodyLimit, "...")
}

func findPlainPart(parts []payload) string {
	for _, p := range parts {
		if p.MimeType == "text/plain" && p.Body.Data != "" {
			return p.Body.Data
		}
		if d := findPlainPart(p.Parts); d != "" {
			return d
		}
	}
	return ""
}

func decodeBase64URL(s string) (string, error) {
	if m := len(s) % 4; m != 0 {
		s += strings.Repeat("=", 4-m)
	}
	s = strings.ReplaceAll(s, "-", "+")
	s = strings.ReplaceAll(s, "_", "/")
	b, err := base64.StdEncoding.DecodeString(s)
	return string(b), err
}
