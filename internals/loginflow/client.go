package loginflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// IssueResult is the server's answer to an issuance request.
type IssueResult struct {
	Message string
	// ResendCooldown is the resend throttle the server wants clients to
	// honor, in seconds. Zero when the server didn't say.
	ResendCooldown int
}

// Client is the flow's view of the server-side challenge coordinator.
type Client interface {
	// IssueChallenge asks the server to email a login code.
	IssueChallenge(ctx context.Context, email string) (IssueResult, error)
	// VerifyChallenge submits the code; on success the session cookie lands
	// in the client's jar.
	VerifyChallenge(ctx context.Context, email, code string) (string, error)
}

// HTTPClient talks JSON to the ping-buddy server. The cookie jar holds the
// session cookie after a successful verify.
type HTTPClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	jar, _ := cookiejar.New(nil)
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
	}
}

func (c *HTTPClient) IssueChallenge(ctx context.Context, email string) (IssueResult, error) {
	out, err := c.post(ctx, "/otp/generate", map[string]string{"email": email})
	if err != nil {
		return IssueResult{}, err
	}
	return IssueResult{Message: out.Message, ResendCooldown: out.ResendCooldown}, nil
}

func (c *HTTPClient) VerifyChallenge(ctx context.Context, email, code string) (string, error) {
	out, err := c.post(ctx, "/otp/verify", map[string]string{"email": email, "otp": code})
	if err != nil {
		return "", err
	}
	return out.Message, nil
}

type responseBody struct {
	Message        string `json:"message"`
	ResendCooldown int    `json:"resend_cooldown"`
}

func (c *HTTPClient) post(ctx context.Context, path string, payload any) (responseBody, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return responseBody{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return responseBody{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return responseBody{}, err
	}
	defer resp.Body.Close()

	var out responseBody
	// A missing or garbled body still yields a usable status-based error.
	_ = json.NewDecoder(resp.Body).Decode(&out)

	if resp.StatusCode != http.StatusOK {
		if out.Message != "" {
			return responseBody{}, errors.New(out.Message)
		}
		return responseBody{}, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	return out, nil
}
