package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apierrors "github.com/stwalsh4118/proptax/internal/errors"
	"github.com/stwalsh4118/proptax/internal/models"
	"github.com/stwalsh4118/proptax/internal/services"
	"github.com/stwalsh4118/proptax/internal/sse"
)

// apiClient is a thin client for the property tax API.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

func newAPIClient(baseURL, token string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		// Timeout stays zero: assistant streams are bounded by the context.
		http: &http.Client{Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: timeout,
		}},
	}
}

func (c *apiClient) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}
	return resp, nil
}

func decodeAPIError(resp *http.Response) error {
	var envelope apierrors.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error.Code == "" {
		return &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode), Message: strings.TrimSpace(string(raw))}
	}
	return &APIError{Status: resp.StatusCode, Code: envelope.Error.Code, Message: envelope.Error.Message}
}

func (c *apiClient) decode(ctx context.Context, method, path string, body, out interface{}) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Login exchanges credentials for a bearer token.
func (c *apiClient) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	var out struct {
		Data services.AuthResult `json:"data"`
	}
	err := c.decode(ctx, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// Estimate requests a one-off tax breakdown.
func (c *apiClient) Estimate(ctx context.Context, attrs models.PropertyAttributes) (*services.TaxEstimate, error) {
	var out services.TaxEstimate
	err := c.decode(ctx, http.MethodPost, "/api/v1/tax-estimate", map[string]interface{}{
		"property": attrs,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Ask streams an assistant answer, calling onDelta for each piece of text as
// it arrives. It returns the complete answer.
func (c *apiClient) Ask(ctx context.Context, question string, includeRecords bool, onDelta func(string)) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/v1/tax-assistant", map[string]interface{}{
		"question":        question,
		"include_records": includeRecords,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return sse.Consume(resp.Body, onDelta)
}
