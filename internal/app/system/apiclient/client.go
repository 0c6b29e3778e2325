// internal/app/system/apiclient/client.go
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/clinsync/internal/domain/models"
	"go.uber.org/zap"
)

// maxErrorBody caps how much of a failed response body is kept on StatusError.
const maxErrorBody = 4 << 10

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == code
}

// Client talks to the ClinSync matching backend.
type Client struct {
	base string
	http *http.Client
	log  *zap.Logger
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string {
	return c.base
}

// New builds a Client for baseURL. A nil httpClient gets a client with a
// 15 second timeout.
func New(baseURL string, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base url must be http or https, got %q", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{base: u.String(), http: httpClient, log: logger}, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Dashboard reads                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// OrganizationTrials returns the trials owned by an organization.
func (c *Client) OrganizationTrials(ctx context.Context, orgID string) ([]models.Trial, error) {
	var body struct {
		Trials []models.Trial `json:"trials"`
	}
	if err := c.do(ctx, http.MethodGet, "/orgs/"+url.PathEscape(orgID), nil, &body); err != nil {
		return nil, err
	}
	return body.Trials, nil
}

// TrialMatches returns the candidate matches for one trial.
func (c *Client) TrialMatches(ctx context.Context, trialID string) ([]models.Match, error) {
	var body struct {
		Matches []models.Match `json:"matches"`
	}
	if err := c.do(ctx, http.MethodGet, "/trials/"+url.PathEscape(trialID), nil, &body); err != nil {
		return nil, err
	}
	return body.Matches, nil
}

// User returns one candidate profile.
func (c *Client) User(ctx context.Context, userID string) (models.Candidate, error) {
	var body struct {
		User models.Candidate `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil, &body); err != nil {
		return models.Candidate{}, err
	}
	return body.User, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Actions                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// ApproveMatch marks a match approved on the backend.
func (c *Client) ApproveMatch(ctx context.Context, matchID string) error {
	return c.do(ctx, http.MethodPost, "/approve/"+url.PathEscape(matchID), nil, nil)
}

// RejectMatch marks a match rejected on the backend.
func (c *Client) RejectMatch(ctx context.Context, matchID string) error {
	return c.do(ctx, http.MethodPost, "/reject/"+url.PathEscape(matchID), nil, nil)
}

// CreateTrial posts a new trial and returns the backend's copy of it.
func (c *Client) CreateTrial(ctx context.Context, t models.Trial) (models.Trial, error) {
	var created models.Trial
	if err := c.do(ctx, http.MethodPost, "/trials", t, &created); err != nil {
		return models.Trial{}, err
	}
	if created.ID == "" {
		// Some backend builds answer with a bare acknowledgement.
		created = t
	}
	return created, nil
}

// LoginOrg authenticates an organization.
func (c *Client) LoginOrg(ctx context.Context, creds models.Credentials) (models.Organization, error) {
	var org models.Organization
	if err := c.do(ctx, http.MethodPost, "/login-org", creds, &org); err != nil {
		return models.Organization{}, err
	}
	if org.IsZero() {
		return models.Organization{}, fmt.Errorf("POST /login-org: response has no organization id")
	}
	return org, nil
}

// SignupOrg registers a new organization.
func (c *Client) SignupOrg(ctx context.Context, details models.SignupDetails) (models.Organization, error) {
	var org models.Organization
	if err := c.do(ctx, http.MethodPost, "/signup-org", details, &org); err != nil {
		return models.Organization{}, err
	}
	if org.IsZero() {
		return models.Organization{}, fmt.Errorf("POST /signup-org: response has no organization id")
	}
	return org, nil
}

// Ping checks that the backend answers at all.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/", nil, nil)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Transport                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s %s: encode request: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("%s %s: build request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(b)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
