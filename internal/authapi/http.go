package authapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClient talks to the license service over form-encoded POST requests,
// one endpoint for all operations, discriminated by the "type" field.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Init(ctx context.Context, req InitRequest) (*Response, error) {
	form := url.Values{}
	form.Set("type", "init")
	form.Set("ver", req.Version)
	form.Set("name", req.AppName)
	form.Set("ownerid", req.OwnerID)
	if req.IntegrityHash != "" {
		form.Set("hash", req.IntegrityHash)
	}
	return c.post(ctx, form)
}

func (c *HTTPClient) License(ctx context.Context, req LicenseRequest) (*Response, error) {
	form := url.Values{}
	form.Set("type", "license")
	form.Set("key", req.LicenseKey)
	form.Set("hwid", req.HWID)
	form.Set("sessionid", req.SessionID)
	form.Set("name", req.AppName)
	form.Set("ownerid", req.OwnerID)
	return c.post(ctx, form)
}

func (c *HTTPClient) CheckSession(ctx context.Context, req CheckRequest) (*Response, error) {
	form := url.Values{}
	form.Set("type", "check")
	form.Set("sessionid", req.SessionID)
	form.Set("name", req.AppName)
	form.Set("ownerid", req.OwnerID)
	return c.post(ctx, form)
}

func (c *HTTPClient) post(ctx context.Context, form url.Values) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrUnavailable, httpResp.StatusCode, strings.TrimSpace(string(body)))
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}
