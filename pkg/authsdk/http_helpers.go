package authsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// userAgent identifies SDK traffic in the service's access log.
const userAgent = "worklog-authsdk"

// maxResponseBody caps how much of a response the SDK will buffer.
const maxResponseBody = 1 << 20

// doRequest sends an anonymous request to path.
func (c *SDKClient) doRequest(ctx context.Context, method, path string, body io.Reader, headers map[string]string) (*http.Response, error) {
	return c.send(ctx, method, path, body, headers)
}

// doAuthRequest sends a request as the session's account. With client-side
// scope checks enabled, a missing scope fails before anything is sent.
func (s *Session) doAuthRequest(
	ctx context.Context,
	method, path string,
	body io.Reader,
	headers map[string]string,
	requiredScopes ...string,
) (*http.Response, error) {
	if err := s.checkScopes(requiredScopes...); err != nil {
		return nil, err
	}
	token, err := s.validToken()
	if err != nil {
		return nil, err
	}

	h := map[string]string{"Authorization": "Bearer " + token}
	for k, v := range headers {
		h[k] = v
	}
	return s.client.send(ctx, method, path, body, h)
}

func (c *SDKClient) send(ctx context.Context, method, path string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("authsdk: build %s %s: %w", method, path, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authsdk: %s %s: %w", method, path, err)
	}
	return resp, nil
}

// decodeJSON reads resp into target when it carries want, and otherwise
// converts the body into an *APIError or *ValidationError.
func decodeJSON(resp *http.Response, target any, want int) error {
	body, err := readBody(resp)
	if err != nil {
		return err
	}
	if err := statusError(resp, body, want); err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("authsdk: decode response: %w", err)
	}
	return nil
}

// checkStatusNoContent is decodeJSON for endpoints that answer 204.
func checkStatusNoContent(resp *http.Response) error {
	body, err := readBody(resp)
	if err != nil {
		return err
	}
	return statusError(resp, body, http.StatusNoContent)
}

func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("authsdk: read response: %w", err)
	}
	return body, nil
}

func statusError(resp *http.Response, body []byte, want int) error {
	if resp.StatusCode == want {
		return nil
	}
	if err := parseErrorResponse(resp, body); err != nil {
		return err
	}
	return fmt.Errorf("authsdk: unexpected status %d, want %d", resp.StatusCode, want)
}
