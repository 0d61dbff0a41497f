/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package customer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"account-ledger-go/internal/metrics"
	"account-ledger-go/internal/models"
	"account-ledger-go/internal/store"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// Compile-time check: *Client must satisfy Oracle.
var _ Oracle = (*Client)(nil)

const maxResponseBytes = 1 << 20

// envelope is the response wrapper used by the customer service
type envelope[T any] struct {
	StatusCode int    `json:"statusCode"`
	Status     string `json:"status"`
	Message    string `json:"message"`
	Data       T      `json:"data"`
}

type customerPayload struct {
	Person struct {
		Name           string `json:"name"`
		Identification string `json:"identification"`
	} `json:"person"`
	Status *bool `json:"status"`
}

// Client looks customers up over the customer service REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

func NewClient(cfg models.CustomerConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("customer service URL cannot be empty")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid customer service URL %q: %w", cfg.BaseURL, err)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("customer service timeout must be positive, got %v", cfg.Timeout)
	}

	httpClient, err := createCustomHttpClient(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		timeout:    cfg.Timeout,
	}, nil
}

func createCustomHttpClient(timeout time.Duration) (*http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: timeout,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   timeout,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

// Exists asks the customer service whether customerId is known
func (c *Client) Exists(ctx context.Context, customerId string) (bool, error) {
	started := time.Now()
	zap.L().Debug("Checking customer existence", zap.String("customer_id", customerId))

	var body envelope[bool]
	status, err := c.get(ctx, "/api/v1/customers/exists/"+url.PathEscape(customerId), &body)
	if err != nil {
		metrics.ObserveOracle("exists", "error", started)
		zap.L().Warn("Customer existence check failed", zap.String("customer_id", customerId), zap.Error(err))
		return false, err
	}
	if status == http.StatusNotFound {
		metrics.ObserveOracle("exists", "not_found", started)
		return false, nil
	}

	outcome := "not_found"
	if body.Data {
		outcome = "found"
	}
	metrics.ObserveOracle("exists", outcome, started)
	return body.Data, nil
}

// Customer fetches the display data of customerId
func (c *Client) Customer(ctx context.Context, customerId string) (*models.Customer, error) {
	started := time.Now()
	zap.L().Debug("Fetching customer", zap.String("customer_id", customerId))

	var body envelope[*customerPayload]
	status, err := c.get(ctx, "/api/v1/customers/"+url.PathEscape(customerId), &body)
	if err != nil {
		metrics.ObserveOracle("customer", "error", started)
		zap.L().Warn("Customer lookup failed", zap.String("customer_id", customerId), zap.Error(err))
		return nil, err
	}
	if status == http.StatusNotFound || body.Data == nil {
		metrics.ObserveOracle("customer", "not_found", started)
		return nil, fmt.Errorf("%w: id %s", store.ErrCustomerNotFound, customerId)
	}

	metrics.ObserveOracle("customer", "found", started)
	active := true
	if body.Data.Status != nil {
		active = *body.Data.Status
	}
	return &models.Customer{
		Id:             customerId,
		Name:           body.Data.Person.Name,
		Identification: body.Data.Person.Identification,
		Status:         active,
	}, nil
}

// get performs a bounded GET and decodes a 2xx body into out. A 404 is
// returned as a status with no error and out left untouched.
func (c *Client) get(ctx context.Context, path string, out any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: unable to build request: %w", store.ErrOracleUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, fmt.Errorf("%w: timed out after %v: %w", store.ErrOracleUnavailable, c.timeout, err)
		}
		return 0, fmt.Errorf("%w: %w", store.ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return resp.StatusCode, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("%w: unexpected status %d", store.ErrOracleUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: unable to decode response: %w", store.ErrOracleUnavailable, err)
	}
	return resp.StatusCode, nil
}
