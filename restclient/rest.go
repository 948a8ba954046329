// Copyright 2015 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restclient

// This file provides the HTTP transport shared by every resource.

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/diffeo/go-surveygizmo/gizmo"
	"github.com/diffeo/go-surveygizmo/restdata"
	"github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries a per-request identifier, repeated across
// retries, so that client and server logs can be matched up.
const RequestIDHeader = "X-Request-Id"

// Client performs HTTP requests against the API.  It is safe for
// concurrent use once constructed.
type Client struct {
	config  gizmo.Config
	baseURL string
	http    *http.Client
	logger  *logrus.Logger
}

// New creates a client from a validated configuration.
func New(config gizmo.Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if _, err := url.Parse(config.BaseURL()); err != nil {
		return nil, err
	}
	return &Client{
		config:  config,
		baseURL: config.BaseURL(),
		http:    &http.Client{Timeout: config.Timeout},
		logger:  config.GetLogger(),
	}, nil
}

// Config returns the configuration the client was built with.
func (c *Client) Config() gizmo.Config {
	return c.config
}

// Get retrieves path with the given query values.
func (c *Client) Get(ctx context.Context, path string, values url.Values) (*restdata.Response, error) {
	return c.Do(ctx, http.MethodGet, path, values)
}

// Put creates a resource at path; the attributes travel as query
// values.
func (c *Client) Put(ctx context.Context, path string, values url.Values) (*restdata.Response, error) {
	return c.Do(ctx, http.MethodPut, path, values)
}

// Post updates the resource at path.
func (c *Client) Post(ctx context.Context, path string, values url.Values) (*restdata.Response, error) {
	return c.Do(ctx, http.MethodPost, path, values)
}

// Delete deletes the resource at path.
func (c *Client) Delete(ctx context.Context, path string) (*restdata.Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// Do performs one logical request, retrying transient failures
// according to the configured policy.  path is relative to the
// versioned API root.  A non-nil error means the request failed at
// the transport or protocol level; a server-reported failure is a
// successful return with Response.OK false.
func (c *Client) Do(ctx context.Context, method, path string, values url.Values) (*restdata.Response, error) {
	query := url.Values{}
	for k, vs := range values {
		query[k] = append([]string(nil), vs...)
	}
	query.Set("api_token", c.config.APIToken)
	query.Set("api_token_secret", c.config.APITokenSecret)
	target := c.baseURL + path + "?" + query.Encode()

	requestID := uuid.NewV4().String()
	log := c.logger.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	var (
		resp    *restdata.Response
		attempt int
	)
	operation := func() error {
		attempt++
		var err error
		resp, err = c.attempt(ctx, method, target, requestID, log.WithField("attempt", attempt))
		if err != nil && !c.retryable(ctx, err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		retriesTotal.WithLabelValues(method).Inc()
		log.WithFields(logrus.Fields{
			"err":     err,
			"attempt": attempt,
			"wait":    wait,
		}).Warn("Retrying request")
	}

	err := backoff.RetryNotify(operation, c.backOff(ctx), notify)
	if err != nil {
		if c.retryable(ctx, err) {
			err = ErrTransport{Attempts: attempt, Err: err}
		}
		log.WithField("err", err).Debug("Request failed")
		return nil, err
	}
	if c.config.Debug {
		log.WithFields(logrus.Fields{
			"result_ok": resp.OK,
			"message":   resp.Message,
			"data":      resp.Data,
		}).Info("Response")
	}
	return resp, nil
}

// backOff builds the retry schedule for one request.
func (c *Client) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.RetryInterval
	if c.config.MaxRetryInterval > 0 {
		b.MaxInterval = c.config.MaxRetryInterval
	}
	b.MaxElapsedTime = 0
	b.Clock = c.config.GetClock()
	b.Reset()
	retries := c.config.Retries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// attempt makes a single HTTP round trip.
func (c *Client) attempt(ctx context.Context, method, target, requestID string, log *logrus.Entry) (*restdata.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", restdata.JSONMediaType)
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	httpResp, err := c.http.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues(method, "error").Inc()
		return nil, err
	}
	defer httpResp.Body.Close()
	requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	requestsTotal.WithLabelValues(method, strconv.Itoa(httpResp.StatusCode)).Inc()
	log.WithField("status", httpResp.StatusCode).Debug("Request")

	if err = checkHTTPStatus(httpResp); err != nil {
		return nil, err
	}
	return restdata.ReadResponse(httpResp.Header.Get("Content-Type"), httpResp.Body)
}

// retryable decides whether err deserves another attempt.
func (c *Client) retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var protocol restdata.ErrProtocol
	if errors.As(err, &protocol) {
		return false
	}
	var rateLimited ErrRateLimited
	if errors.As(err, &rateLimited) {
		return true
	}
	var httpErr ErrHTTP
	if errors.As(err, &httpErr) {
		return c.config.RetryEverything
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	return c.config.RetryEverything
}

// ErrHTTP is a catch-all error for non-successes returned from the
// REST endpoint.
type ErrHTTP struct {
	// StatusCode and Status describe the failing HTTP response.
	StatusCode int
	Status     string

	// Body holds the contents of the message body, presumed to
	// be text.
	Body string
}

func (e ErrHTTP) Error() string {
	return fmt.Sprintf("Bad response code %v", e.Status)
}

// ErrRateLimited is returned when the API answers 429 Too Many
// Requests.  It is always retried.
type ErrRateLimited struct {
	RetryAfter string
}

func (e ErrRateLimited) Error() string {
	if e.RetryAfter != "" {
		return "Rate limit exceeded, retry after " + e.RetryAfter
	}
	return "Rate limit exceeded"
}

// ErrTransport is returned when a retryable failure persists through
// every allowed attempt.
type ErrTransport struct {
	Attempts int
	Err      error
}

func (e ErrTransport) Error() string {
	return fmt.Sprintf("request failed after %d attempt(s): %v", e.Attempts, e.Err)
}

// Unwrap returns the last underlying failure.
func (e ErrTransport) Unwrap() error {
	return e.Err
}

// checkHTTPStatus examines an HTTP response and returns an error if
// it is not successful.
func checkHTTPStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited{RetryAfter: resp.Header.Get("Retry-After")}
	}
	var body []byte
	if resp.Body != nil {
		body, _ = ioutil.ReadAll(resp.Body)
	}
	return ErrHTTP{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
}
