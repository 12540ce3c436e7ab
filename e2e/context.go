package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TestContext carries the last HTTP exchange of a scenario.
type TestContext struct {
	BaseURL    string
	HTTPClient *http.Client

	lastStatus  int
	lastHeaders http.Header
	lastBody    []byte
	remembered  map[string]any
}

// NewTestContext creates a context targeting baseURL.
func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		remembered: make(map[string]any),
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastHeaders = nil
	tc.lastBody = nil
	tc.remembered = make(map[string]any)
}

func (tc *TestContext) Do(ctx context.Context, method, path string) error {
	req, err := http.NewRequestWithContext(ctx, method, tc.BaseURL+path, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	tc.lastStatus = resp.StatusCode
	tc.lastHeaders = resp.Header
	tc.lastBody = body
	return nil
}

func (tc *TestContext) GetLastStatusCode() int {
	return tc.lastStatus
}

func (tc *TestContext) GetLastHeader(name string) string {
	return tc.lastHeaders.Get(name)
}

func (tc *TestContext) GetLastBody() []byte {
	return bytes.Clone(tc.lastBody)
}

// GetResponseField reads a top-level field of a JSON object response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var obj map[string]any
	if err := json.Unmarshal(tc.lastBody, &obj); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	v, ok := obj[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response", field)
	}
	return v, nil
}

// GetResponseList decodes a JSON array response.
func (tc *TestContext) GetResponseList() ([]map[string]any, error) {
	var list []map[string]any
	if err := json.Unmarshal(tc.lastBody, &list); err != nil {
		return nil, fmt.Errorf("response is not a JSON array: %w", err)
	}
	return list, nil
}

func (tc *TestContext) Remember(key string, v any) {
	tc.remembered[key] = v
}

func (tc *TestContext) Recall(key string) (any, bool) {
	v, ok := tc.remembered[key]
	return v, ok
}
