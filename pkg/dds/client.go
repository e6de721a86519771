package dds

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"eodmsdds/pkg/auth"
	"eodmsdds/pkg/config"
	errs "eodmsdds/pkg/errors"
	"eodmsdds/pkg/logger"
	"eodmsdds/pkg/retry"
)

// tokenRefreshMargin renews the access token this long before expiry
const tokenRefreshMargin = 60 * time.Second

// Client is an EODMS DDS API client. A single client serves both item
// metadata retrieval and download URL resolution; it owns token
// authentication against the AAA service.
type Client struct {
	httpClient *http.Client
	// streamClient has no overall timeout; archive bodies can take longer
	// than any sane request deadline to stream
	streamClient *http.Client
	domain       string
	catalog      string
	account      *auth.Account
	retryCfg     *retry.Config
	logger       logger.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a new DDS client bound to an account and deployment
// environment
func NewClient(account *auth.Account, cfg *config.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	retryCfg := &retry.Config{
		MaxAttempts: cfg.Retry.MaxAttempts,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    cfg.Retry.BaseDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			Multiplier:   cfg.Retry.BackoffMultiplier,
			JitterFactor: 0.1,
		},
		RetryIf: retry.DefaultRetryIf,
		Context: context.Background(),
		Logger:  log,
	}

	return &Client{
		httpClient:   &http.Client{Timeout: cfg.Items.Timeout},
		streamClient: &http.Client{Timeout: 0},
		domain:       DomainForEnvironment(cfg.EODMS.Environment),
		catalog:      cfg.EODMS.Catalog,
		account:      account,
		retryCfg:     retryCfg,
		logger:       log,
	}
}

// Domain returns the API domain the client is bound to
func (c *Client) Domain() string {
	return c.domain
}

// Catalog returns the catalog the client queries
func (c *Client) Catalog() string {
	return c.catalog
}

// throttleError carries the Retry-After hint from a 429 response
type throttleError struct {
	err        *errs.Error
	retryAfter time.Duration
}

func (t *throttleError) Error() string             { return t.err.Error() }
func (t *throttleError) Unwrap() error             { return t.err }
func (t *throttleError) RetryAfter() time.Duration { return t.retryAfter }

// errorFromResponse converts a non-success response into a typed error
func errorFromResponse(resp *http.Response, body []byte) error {
	message := fmt.Sprintf("server returned status %d", resp.StatusCode)
	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		message = fmt.Sprintf("%s: %s", parsed.Error, parsed.Message)
	}

	apiErr := &errs.Error{Message: message, Code: resp.StatusCode}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		apiErr.Type = errs.ErrorTypeRateLimit
		var retryAfter time.Duration
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.ParseFloat(ra, 64); err == nil {
				retryAfter = time.Duration(secs * float64(time.Second))
			}
		}
		return &throttleError{err: apiErr, retryAfter: retryAfter}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		apiErr.Type = errs.ErrorTypeAuth
	case resp.StatusCode == http.StatusNotFound:
		apiErr.Type = errs.ErrorTypeNotFound
	case resp.StatusCode >= 500:
		apiErr.Type = errs.ErrorTypeServerError
	default:
		apiErr.Type = errs.ErrorTypeUnknown
	}
	return apiErr
}

// login authenticates against the AAA service and caches the access token
func (c *Client) login(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{
		"username": c.account.Username,
		"password": c.account.Password,
	})
	if err != nil {
		return &errs.Error{Type: errs.ErrorTypeUnknown, Message: fmt.Sprintf("failed to encode login payload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, LoginURL(c.domain), bytes.NewReader(payload))
	if err != nil {
		return &errs.Error{Type: errs.ErrorTypeUnknown, Message: fmt.Sprintf("failed to create login request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &errs.Error{Type: errs.ErrorTypeNetwork, Message: fmt.Sprintf("login request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.Error{Type: errs.ErrorTypeNetwork, Message: fmt.Sprintf("failed to read login response: %v", err)}
	}

	c.logger.DebugWithFields("AAA login completed", map[string]interface{}{
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if resp.StatusCode != http.StatusOK {
		return errorFromResponse(resp, body)
	}

	var login loginResponse
	if err := json.Unmarshal(body, &login); err != nil {
		return &errs.Error{Type: errs.ErrorTypeParsing, Message: fmt.Sprintf("failed to parse login response: %v", err)}
	}
	if login.AccessToken == "" {
		return &errs.Error{Type: errs.ErrorTypeAuth, Message: "login response missing access token", Code: resp.StatusCode}
	}

	c.accessToken = login.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(login.ExpiresIn) * time.Second)

	return nil
}

// getAccessToken returns a valid access token, logging in when the cached
// token is missing or near expiry
func (c *Client) getAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Until(c.tokenExpiry) > tokenRefreshMargin {
		return c.accessToken, nil
	}

	err := retry.Do(func() error {
		return c.login(ctx)
	}, c.retryCfg)
	if err != nil {
		return "", err
	}

	return c.accessToken, nil
}

// getJSON performs an authenticated GET and returns the response body.
// 200 and 202 both carry item payloads.
func (c *Client) getJSON(ctx context.Context, url string) ([]byte, error) {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var body []byte
	err = retry.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return &errs.Error{Type: errs.ErrorTypeUnknown, Message: fmt.Sprintf("failed to create request: %v", err)}
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &errs.Error{Type: errs.ErrorTypeNetwork, Message: fmt.Sprintf("network error: %v", err)}
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &errs.Error{Type: errs.ErrorTypeNetwork, Message: fmt.Sprintf("failed to read response: %v", err)}
		}

		logger.LogRequest(c.logger, http.MethodGet, url, resp.StatusCode, time.Since(start))

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
			respErr := errorFromResponse(resp, data)
			var throttled *throttleError
			if errors.As(respErr, &throttled) {
				logger.LogRateLimit(url, int(throttled.RetryAfter().Seconds()))
			}
			return respErr
		}

		body = data
		return nil
	}, c.retryCfg)
	if err != nil {
		return nil, err
	}

	return body, nil
}

// GetItem fetches metadata for a single catalog entry
func (c *Client) GetItem(ctx context.Context, collection, archiveID string) (*Item, error) {
	url := ItemURL(c.domain, c.catalog, collection, archiveID)

	body, err := c.getJSON(ctx, url)
	if err != nil {
		return nil, err
	}

	var item Item
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, &errs.Error{Type: errs.ErrorTypeParsing, Message: fmt.Sprintf("failed to parse item: %v", err)}
	}
	item.Raw = json.RawMessage(body)

	return &item, nil
}
