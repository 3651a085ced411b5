// Package deviceapi is the concrete HTTP transport to the device's REST
// API: it implements engine.Transport over one shared *http.Client, Basic
// auth, and optional TLS verification skip.
package deviceapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/edirooss/mtsync/internal/action"
	"github.com/edirooss/mtsync/internal/config"
	"github.com/edirooss/mtsync/internal/engine"
	"github.com/edirooss/mtsync/internal/model"
)

// DefaultTimeout bounds a single request, guarding against a device that
// accepts a connection and then never answers.
const DefaultTimeout = 30 * time.Second

// Client is a single device's REST endpoint. It is safe for concurrent
// use: one client serves both the concurrent analysis reads and the
// serial execution writes.
type Client struct {
	base     *url.URL
	username string
	password string
	runID    string
	http     *http.Client
	log      *zap.Logger
}

// New builds a Client from connection settings. scheme defaults to
// "https"; callers that trust the device's certificate may still set
// settings.IgnoreCertificateErrors to skip verification on self-signed
// deployments, common on factory-provisioned RouterOS appliances.
func New(settings config.Settings, runID string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}

	tr := &http.Transport{}
	if settings.IgnoreCertificateErrors {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- opt-in, settings.IgnoreCertificateErrors
	}

	return &Client{
		base: &url.URL{
			Scheme: "https",
			Host:   settings.Hostname,
			Path:   "/rest",
		},
		username: settings.Username,
		password: settings.Password,
		runID:    runID,
		http: &http.Client{
			Transport: tr,
			Timeout:   DefaultTimeout,
		},
		log: log.Named("deviceapi"),
	}
}

func (c *Client) resolve(path string) *url.URL {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	return &u
}

func (c *Client) newRequest(ctx context.Context, method string, u *url.URL, body any) (*http.Request, error) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("deviceapi: encode body: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("deviceapi: build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", c.runID)
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	start := time.Now()
	c.log.Debug("request", zap.String("method", req.Method), zap.String("url", req.URL.String()))

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("deviceapi: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("deviceapi: read response body: %w", err)
	}

	c.log.Debug("response",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("deviceapi: %s %s: server error %d: %s", req.Method, req.URL.Path, resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}

// GetCollection issues a GET against path with dynamic=false and a
// .proplist restricted to proplist, returning the device's current items
// for that collection.
func (c *Client) GetCollection(ctx context.Context, path string, proplist []string) ([]model.Item, error) {
	u := c.resolve(path)
	q := u.Query()
	q.Set("dynamic", "false")
	q.Set(".proplist", strings.Join(proplist, ","))
	u.RawQuery = q.Encode()

	req, err := c.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	raw, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var items []model.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("deviceapi: decode collection %s: %w", path, err)
	}
	return items, nil
}

// GetLeaf issues a plain GET against path, returning the device's current
// leaf settings map.
func (c *Client) GetLeaf(ctx context.Context, path string) (model.Item, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.resolve(path), nil)
	if err != nil {
		return nil, err
	}
	raw, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return model.Item{}, nil
	}

	var item model.Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("deviceapi: decode leaf %s: %w", path, err)
	}
	return item, nil
}

// errorBody mirrors the shape of a RouterOS REST error response:
// {"error": 400, "message": "...", "detail": "..."}. Message is unused by
// the engine (it only inspects Detail for the "no such command" move
// exception) but is kept for log context.
type errorBody struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
	Detail  string          `json:"detail"`
}

// Execute issues the HTTP call a.Kind maps to: PATCH to <path>/<id>, PUT
// to <path>, DELETE to <path>/<id> with no body, POST to <path>/set or
// <path>/move with SetDict as the body.
func (c *Client) Execute(ctx context.Context, a action.Action) (*engine.Response, error) {
	var (
		method string
		body   any
	)
	switch a.Kind {
	case action.PATCH:
		method, body = http.MethodPatch, stripID(a.SetDict)
	case action.PUT:
		method, body = http.MethodPut, stripID(a.SetDict)
	case action.DELETE:
		method, body = http.MethodDelete, nil
	case action.POST:
		method, body = http.MethodPost, a.SetDict
	default:
		return nil, fmt.Errorf("deviceapi: unknown action kind %v", a.Kind)
	}

	req, err := c.newRequest(ctx, method, c.resolve(a.Path), body)
	if err != nil {
		return nil, err
	}
	raw, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err != nil {
		// Non-JSON or non-error body on a mutating call: treat as success,
		// since RouterOS's REST API returns the created resource's JSON
		// body on a successful PUT and we have nothing useful to do with it.
		return nil, nil
	}
	if len(eb.Error) == 0 {
		return nil, nil
	}
	errText := eb.Message
	if errText == "" {
		errText = string(eb.Error)
	}
	return &engine.Response{Error: errText, Detail: eb.Detail}, nil
}

func stripID(item model.Item) model.Item {
	if _, ok := item[model.IDKey]; !ok {
		return item
	}
	out := item.Clone()
	delete(out, model.IDKey)
	return out
}
