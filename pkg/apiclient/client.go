package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/mserebryaakov/aggregator-client-service/pkg/storage"
	"github.com/sirupsen/logrus"
)

const authRequiredMessage = "Требуется авторизация для выполнения этого действия"

type ApiClientLogHook struct{}

func (h *ApiClientLogHook) Fire(entry *logrus.Entry) error {
	entry.Message = "ApiClient: " + entry.Message
	return nil
}

func (h *ApiClientLogHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	RetryDelay time.Duration
}

// RequestOptions carries per-request configuration. A nil options value is
// valid and means defaults.
type RequestOptions struct {
	Headers  map[string]string
	Progress func(transferred int64)
}

// UnauthorizedHandler consumes the single global auth-failure signal.
type UnauthorizedHandler func(message string)

type Client struct {
	client     http.Client
	log        *logrus.Entry
	store      storage.Storage
	baseURL    string
	retryCount int
	retryDelay time.Duration

	mu             sync.Mutex
	onUnauthorized UnauthorizedHandler
}

func NewClient(cfg Config, store storage.Storage, log *logrus.Entry) *Client {
	c := http.Client{
		Timeout: cfg.Timeout,
	}

	return &Client{
		client:     c,
		log:        log,
		store:      store,
		baseURL:    cfg.BaseURL,
		retryCount: cfg.RetryCount,
		retryDelay: cfg.RetryDelay,
	}
}

// SetUnauthorizedHandler registers the listener invoked on every 401.
// Only one handler is held at a time.
func (c *Client) SetUnauthorizedHandler(handler UnauthorizedHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = handler
}

func (c *Client) Get(ctx context.Context, path string, out interface{}, opts *RequestOptions) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out, opts)
}

func (c *Client) Post(ctx context.Context, path string, body interface{}, out interface{}, opts *RequestOptions) error {
	payload, err := marshalBody(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, payload, "application/json", out, opts)
}

func (c *Client) Put(ctx context.Context, path string, body interface{}, out interface{}, opts *RequestOptions) error {
	payload, err := marshalBody(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, path, payload, "application/json", out, opts)
}

func (c *Client) Patch(ctx context.Context, path string, body interface{}, out interface{}, opts *RequestOptions) error {
	payload, err := marshalBody(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPatch, path, payload, "application/json", out, opts)
}

func (c *Client) Delete(ctx context.Context, path string, out interface{}, opts *RequestOptions) error {
	return c.do(ctx, http.MethodDelete, path, nil, "", out, opts)
}

// Upload sends a multipart form with a single file part plus optional
// text fields.
func (c *Client) Upload(ctx context.Context, path string, fields map[string]string, fileField, fileName string, file io.Reader, out interface{}, opts *RequestOptions) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return fmt.Errorf("failed to write form field %s - %v", name, err)
		}
	}

	part, err := writer.CreateFormFile(fileField, fileName)
	if err != nil {
		return fmt.Errorf("failed to create form file - %v", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to copy file content - %v", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body - %v", err)
	}

	return c.do(ctx, http.MethodPost, path, buf.Bytes(), writer.FormDataContentType(), out, opts)
}

// Download streams the response body into w instead of decoding it.
func (c *Client) Download(ctx context.Context, path string, w io.Writer, opts *RequestOptions) error {
	return c.doStream(ctx, path, w, opts)
}

func marshalBody(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshal request body - %v", err)
	}
	return payload, nil
}

// do executes the request with the fixed-delay retry policy: only network,
// timeout and 5xx outcomes are retried, up to retryCount extra attempts.
// A 401 is never retried and triggers the global unauthorized side effect.
func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string, out interface{}, opts *RequestOptions) error {
	for attempt := 0; ; attempt++ {
		apiErr := c.doOnce(ctx, method, path, body, contentType, out, opts)
		if apiErr == nil {
			return nil
		}

		if apiErr.Type == AuthenticationError {
			return c.handleUnauthorized(apiErr)
		}

		if !retryable(apiErr.Type) || attempt >= c.retryCount || ctx.Err() != nil {
			return apiErr
		}

		c.log.Debugf("retrying %s %s, attempts left: %d", method, path, c.retryCount-attempt)

		select {
		case <-ctx.Done():
			return apiErr
		case <-time.After(c.retryDelay):
		}
	}
}

func (c *Client) doOnce(ctx context.Context, method, path string, body []byte, contentType string, out interface{}, opts *RequestOptions) *Error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Type: UnknownError, Message: err.Error()}
	}

	c.setHeaders(req, contentType, opts)

	resp, err := c.client.Do(req)
	if err != nil {
		transportErr := classifyTransport(err)
		c.log.Debugf("%s %s failed - %v", method, path, err)
		return transportErr
	}
	defer resp.Body.Close()

	bts, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Type: NetworkError, Message: "Ошибка сети. Проверьте подключение к интернету."}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := classifyStatus(resp.StatusCode, bts)
		c.log.Debugf("%s %s - %d %s", method, path, apiErr.Status, apiErr.Type)
		return apiErr
	}

	if opts != nil && opts.Progress != nil {
		opts.Progress(int64(len(bts)))
	}

	if out != nil && len(bts) > 0 {
		if err := json.Unmarshal(bts, out); err != nil {
			c.log.Errorf("%s %s - failed to decode response body - %v", method, path, err)
			return &Error{Type: UnknownError, Status: resp.StatusCode, Message: "failed to decode response body"}
		}
	}

	return nil
}

func (c *Client) doStream(ctx context.Context, path string, w io.Writer, opts *RequestOptions) error {
	for attempt := 0; ; attempt++ {
		apiErr := c.streamOnce(ctx, path, w, opts)
		if apiErr == nil {
			return nil
		}

		if apiErr.Type == AuthenticationError {
			return c.handleUnauthorized(apiErr)
		}

		if !retryable(apiErr.Type) || attempt >= c.retryCount || ctx.Err() != nil {
			return apiErr
		}

		select {
		case <-ctx.Done():
			return apiErr
		case <-time.After(c.retryDelay):
		}
	}
}

func (c *Client) streamOnce(ctx context.Context, path string, w io.Writer, opts *RequestOptions) *Error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &Error{Type: UnknownError, Message: err.Error()}
	}

	c.setHeaders(req, "", opts)

	resp, err := c.client.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bts, _ := io.ReadAll(resp.Body)
		return classifyStatus(resp.StatusCode, bts)
	}

	var written int64
	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				return &Error{Type: UnknownError, Message: writeErr.Error()}
			}
			written += int64(n)
			if opts != nil && opts.Progress != nil {
				opts.Progress(written)
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return &Error{Type: NetworkError, Message: "Ошибка сети. Проверьте подключение к интернету."}
		}
	}
}

func (c *Client) setHeaders(req *http.Request, contentType string, opts *RequestOptions) {
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if token, ok := c.resolveToken(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if opts != nil {
		for name, value := range opts.Headers {
			req.Header.Set(name, value)
		}
	}
}

// resolveToken checks the structured auth record first, then the plain
// token fallback.
func (c *Client) resolveToken() (string, bool) {
	value, ok, err := c.store.Load(storage.KeyAuthStore)
	if err == nil && ok {
		var record struct {
			User struct {
				Token string `json:"token"`
			} `json:"user"`
		}
		if json.Unmarshal(value, &record) == nil && record.User.Token != "" {
			return record.User.Token, true
		}
	}

	value, ok, err = c.store.Load(storage.KeyAuthToken)
	if err == nil && ok && len(value) > 0 {
		return string(value), true
	}

	return "", false
}

// handleUnauthorized clears persisted auth state, signals the registered
// listener once and rewrites the error message before returning it.
func (c *Client) handleUnauthorized(apiErr *Error) error {
	c.log.Warnf("unauthorized access detected, clearing auth data")

	if err := c.store.Clear(storage.KeyAuthStore); err != nil {
		c.log.Errorf("failed to clear auth store - %v", err)
	}
	if err := c.store.Clear(storage.KeyAuthToken); err != nil {
		c.log.Errorf("failed to clear auth token - %v", err)
	}

	c.mu.Lock()
	handler := c.onUnauthorized
	c.mu.Unlock()

	if handler != nil {
		handler(authRequiredMessage)
	}

	apiErr.Message = authRequiredMessage
	return apiErr
}
