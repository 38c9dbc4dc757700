// Package baas talks to the hosted backend's auth and object storage REST
// endpoints.
package baas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Khangurai/zap-admin/internal/entities"
	"github.com/Khangurai/zap-admin/internal/observability"
)

const provider = "baas"

type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string
	httpClient *http.Client
}

func NewClient(baseURL, anonKey, serviceKey string, timeout time.Duration) *Client {
	if serviceKey == "" {
		serviceKey = anonKey
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type apiError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"message"`
	Msg              string `json:"msg"`
}

func (e apiError) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// StatusError is a non-2xx answer. It unwraps to ErrUnauthorized for
// 401/403 and to ErrUpstream otherwise.
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Op, e.Code, e.Message)
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden {
		return entities.ErrUnauthorized
	}
	return entities.ErrUpstream
}

// call sends body as JSON when it is not a reader and decodes a 2xx
// response into out when out is non-nil. bearer defaults to the anon key.
func (c *Client) call(ctx context.Context, op, method, path, bearer string, headers map[string]string, body any, out any) (err error) {
	start := time.Now()
	defer func() { observability.ObserveExternal(provider, op, start, err) }()

	var rdr io.Reader
	contentType := "application/json"
	switch b := body.(type) {
	case nil:
	case io.Reader:
		rdr = b
		contentType = ""
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	if rdr != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", op, err.Error(), entities.ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		var ae apiError
		_ = json.Unmarshal(raw, &ae)
		msg := ae.text()
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return &StatusError{Op: op, Code: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s decode: %w", op, err)
	}
	return nil
}
