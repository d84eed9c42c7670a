// Package wireclient is the single HTTP wrapper every outbound call passes
// through (spec.md §4.7): it acquires the global rate limiter, applies a
// per-call timeout, serializes/deserializes JSON, classifies the response
// into a metric bucket, and maps transport/timeout/parse failures onto a
// tagged WireError. Grounded on the teacher's internal/bitcoin/client.go
// pattern of building a raw JSON request, posting it with a bespoke
// timeout, and hand-decoding the response rather than trusting a generic
// RPC library to get error semantics right.
package wireclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rawblock/goldrush-engine/internal/metrics"
	"github.com/rawblock/goldrush-engine/internal/ratelimit"
	"github.com/rawblock/goldrush-engine/pkg/model"
)

// Status sentinels for failures that never reached a real HTTP status line
// (spec.md §4.7).
const (
	StatusTransport = 0
	StatusUnknown   = 666
	StatusTimeout   = 667
)

// WireError is returned by every Client method on a non-2xx response
// (except Dig's 404/422, see Dig) or a local failure, carrying the numeric status so stage policies can switch
// on it without re-parsing (spec.md §3, §7).
type WireError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *WireError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: status %d: %v", e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: status %d", e.Endpoint, e.Status)
}

func (e *WireError) Unwrap() error { return e.Err }

// Client is the sole entry point for talking to the remote game server.
type Client struct {
	http   *http.Client
	base   string
	global *ratelimit.Limiter
	sink   *metrics.Sink
}

// New builds a Client against baseURL (e.g. "http://localhost:8000"),
// acquiring `global` before every request and emitting one metrics.Event
// per call to `sink`.
func New(baseURL string, global *ratelimit.Limiter, sink *metrics.Sink) *Client {
	return &Client{
		http:   &http.Client{},
		base:   baseURL,
		global: global,
		sink:   sink,
	}
}

// post performs one JSON POST under the global rate limiter and the given
// per-call timeout, returning the raw response body on any status code
// (the caller decides how to interpret non-2xx bodies).
func (c *Client) post(ctx context.Context, path string, timeout time.Duration, payload interface{}) (int, []byte, error) {
	if err := c.global.Acquire(ctx); err != nil {
		return StatusTransport, nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return StatusUnknown, nil, fmt.Errorf("marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return StatusUnknown, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if reqCtx.Err() == context.DeadlineExceeded {
			return StatusTimeout, nil, err
		}
		return StatusTransport, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return StatusUnknown, nil, fmt.Errorf("read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}

func (c *Client) emit(stage metrics.Stage, status int, success bool, cost float64, coinValue int) {
	if c.sink == nil {
		return
	}
	c.sink.Emit(metrics.Event{
		Stage:        stage,
		StatusBucket: metrics.StatusBucket(status),
		Success:      success,
		CostPoints:   cost,
		CoinValue:    coinValue,
	})
}

// Explore issues one /explore request (spec.md §6). Callers own the retry
// policy (spec.md §4.2: probe retries indefinitely on any error).
func (c *Client) Explore(ctx context.Context, timeout time.Duration, area model.Area) (model.Tile, error) {
	cost := metrics.ExploreCost(area.SizeX, area.SizeY)
	status, body, err := c.post(ctx, "/explore", timeout, area)
	if err != nil {
		c.emit(metrics.StageExplore, status, false, cost, 0)
		return model.Tile{}, &WireError{Endpoint: "/explore", Status: status, Err: err}
	}
	if status != http.StatusOK {
		c.emit(metrics.StageExplore, status, false, cost, 0)
		return model.Tile{}, &WireError{Endpoint: "/explore", Status: status}
	}

	var tile model.Tile
	if err := json.Unmarshal(body, &tile); err != nil {
		c.emit(metrics.StageExplore, StatusUnknown, false, cost, 0)
		return model.Tile{}, &WireError{Endpoint: "/explore", Status: StatusUnknown, Err: err}
	}
	c.emit(metrics.StageExplore, status, true, cost, 0)
	return tile, nil
}

// AcquireLicense issues one /licenses request with the given payment
// (possibly empty, for a free attempt).
func (c *Client) AcquireLicense(ctx context.Context, timeout time.Duration, payment model.CoinList) (model.License, error) {
	if payment == nil {
		payment = model.CoinList{}
	}
	status, body, err := c.post(ctx, "/licenses", timeout, payment)
	if err != nil {
		c.emit(metrics.StageLicense, status, false, 0, 0)
		return model.License{}, &WireError{Endpoint: "/licenses", Status: status, Err: err}
	}
	if status != http.StatusOK {
		c.emit(metrics.StageLicense, status, false, 0, 0)
		return model.License{}, &WireError{Endpoint: "/licenses", Status: status}
	}

	var lic model.License
	if err := json.Unmarshal(body, &lic); err != nil {
		c.emit(metrics.StageLicense, StatusUnknown, false, 0, 0)
		return model.License{}, &WireError{Endpoint: "/licenses", Status: StatusUnknown, Err: err}
	}
	c.emit(metrics.StageLicense, status, true, 0, len(payment))
	return lic, nil
}

// Dig issues one /dig request. 404/422 are returned as a nil treasure
// list with a nil error, so the Digger applies the business-semantic
// policy of spec.md §4.4/§7 (treat as an empty treasure list but consume
// the license use) through its ordinary success path.
func (c *Client) Dig(ctx context.Context, timeout time.Duration, dig model.Dig) ([]model.Treasure, error) {
	cost := metrics.DigCost(dig.Depth)
	status, body, err := c.post(ctx, "/dig", timeout, dig)
	if err != nil {
		c.emit(metrics.StageDig, status, false, cost, 0)
		return nil, &WireError{Endpoint: "/dig", Status: status, Err: err}
	}
	if status == http.StatusNotFound || status == http.StatusUnprocessableEntity {
		// Business-semantic: no treasure at this depth/position, but the
		// license use is consumed server-side (spec.md §4.4, §7).
		c.emit(metrics.StageDig, status, true, cost, 0)
		return nil, nil
	}
	if status != http.StatusOK {
		c.emit(metrics.StageDig, status, false, cost, 0)
		return nil, &WireError{Endpoint: "/dig", Status: status}
	}

	var raw []string
	if err := json.Unmarshal(body, &raw); err != nil {
		c.emit(metrics.StageDig, StatusUnknown, false, cost, 0)
		return nil, &WireError{Endpoint: "/dig", Status: StatusUnknown, Err: err}
	}
	treasures := make([]model.Treasure, len(raw))
	for i, t := range raw {
		treasures[i] = model.Treasure(t)
	}
	c.emit(metrics.StageDig, status, true, cost, 0)
	return treasures, nil
}

// Cash issues one /cash request for a single treasure.
func (c *Client) Cash(ctx context.Context, timeout time.Duration, treasure model.Treasure) (model.CoinList, error) {
	status, body, err := c.post(ctx, "/cash", timeout, string(treasure))
	if err != nil {
		c.emit(metrics.StageCash, status, false, metrics.CashCost, 0)
		return nil, &WireError{Endpoint: "/cash", Status: status, Err: err}
	}
	if status != http.StatusOK {
		c.emit(metrics.StageCash, status, false, metrics.CashCost, 0)
		return nil, &WireError{Endpoint: "/cash", Status: status}
	}

	var coins model.CoinList
	if err := json.Unmarshal(body, &coins); err != nil {
		c.emit(metrics.StageCash, StatusUnknown, false, metrics.CashCost, 0)
		return nil, &WireError{Endpoint: "/cash", Status: StatusUnknown, Err: err}
	}
	c.emit(metrics.StageCash, status, true, metrics.CashCost, len(coins))
	return coins, nil
}

// IsRetryable reports whether err (expected to be a *WireError) represents
// a transient failure under spec.md §7's taxonomy: transport, timeout,
// 429, 5xx, or a local deserialization failure. 402/404/409/422 are
// business-semantic and handled by stage-specific policy instead.
func IsRetryable(err error) bool {
	we, ok := err.(*WireError)
	if !ok {
		return true
	}
	switch we.Status {
	case http.StatusPaymentRequired, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
		return false
	default:
		return true
	}
}
