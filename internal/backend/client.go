// Package backend предоставляет клиент вторичного бэкенда (комбо и настройки оплаты).
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// ErrUpstream возвращается, если вторичный бэкенд недоступен или не настроен.
var ErrUpstream = errors.New("upstream failure")

const (
	maxResponseSize = 10 << 20
	requestTimeout  = 10 * time.Second

	checkAttempts = 5
	checkDelay    = 5 * time.Second
)

// forwardedHeaders перечисляет заголовки запроса, передаваемые бэкенду.
var forwardedHeaders = []string{"Authorization", "Content-Type", "Accept"}

// Client инкапсулирует HTTP-взаимодействие с вторичным бэкендом.
type Client struct {
	baseURL string
	maxBody int64
	// checker повторяет только проверку доступности; запросы Forward отправляются один раз.
	checker *retryablehttp.Client
}

// Response содержит ответ бэкенда, возвращаемый клиенту без изменений.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// NewClient создаёт клиент для обращения к бэкенду по указанному адресу.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = checkAttempts - 1
	rc.RetryWaitMin = checkDelay
	rc.RetryWaitMax = checkDelay
	rc.Backoff = constantBackoff
	rc.CheckRetry = retryOnTransportError
	rc.HTTPClient.Timeout = requestTimeout
	rc.Logger = leveledLogger{logger.Sugar()}

	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL != "" && !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	return &Client{baseURL: baseURL, maxBody: maxResponseSize, checker: rc}
}

// Configured сообщает, задан ли адрес бэкенда.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// Check проверяет, что бэкенд принимает соединения. Любой HTTP-ответ считается успехом;
// сетевые ошибки повторяются с постоянной задержкой.
func (c *Client) Check(ctx context.Context) error {
	if !c.Configured() {
		return fmt.Errorf("%w: backend url not configured", ErrUpstream)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/api/", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.checker.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	resp.Body.Close()
	return nil
}

// Forward отправляет запрос на path бэкенда (относительно /api) и возвращает его ответ.
// Запросы не повторяются.
func (c *Client) Forward(ctx context.Context, method, path, rawQuery string, header http.Header, body io.Reader) (*Response, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("%w: backend url not configured", ErrUpstream)
	}

	url := c.baseURL + "/api/" + strings.TrimLeft(path, "/")
	if rawQuery != "" {
		url += "?" + rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for _, h := range forwardedHeaders {
		if v := header.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}

	resp, err := c.checker.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUpstream, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}
	if int64(len(data)) > c.maxBody {
		return nil, fmt.Errorf("%w: %s %s: response exceeds %d bytes", ErrUpstream, method, path, c.maxBody)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

func constantBackoff(minWait, _ time.Duration, _ int, _ *http.Response) time.Duration {
	return minWait
}

func retryOnTransportError(ctx context.Context, _ *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return err != nil, nil
}

// leveledLogger направляет журнал retryablehttp в zap.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
