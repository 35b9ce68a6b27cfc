package jobqueue

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/fantasy-scoring/internal/platform/logging"
	"github.com/riskibarqy/fantasy-scoring/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const internalJobTokenHeader = "X-Internal-Job-Token"

var (
	errQStashTransient = crerr.New("qstash transient failure")
	ErrInvalidJobPath  = crerr.New("job path is required")
)

type QStashPublisherConfig struct {
	BaseURL          string
	Token            string
	TargetBaseURL    string
	Retries          int
	InternalJobToken string
	Timeout          time.Duration
	CircuitBreaker   resilience.CircuitBreakerConfig
}

// QStashPublisher schedules internal HTTP jobs (ranking recomputes) through Upstash QStash.
// QStash calls back TargetBaseURL+path and forwards the internal job token header.
type QStashPublisher struct {
	client           *http.Client
	baseURL          string
	token            string
	targetBaseURL    string
	retries          int
	internalJobToken string
	logger           *logging.Logger
	breaker          *resilience.CircuitBreaker
}

func NewQStashPublisher(cfg QStashPublisherConfig, logger *logging.Logger) (*QStashPublisher, error) {
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL, err := validateHTTPBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid QSTASH_BASE_URL")
	}
	targetBaseURL, err := validateHTTPBaseURL(cfg.TargetBaseURL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid QSTASH_TARGET_BASE_URL")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, crerr.New("qstash token is required")
	}

	return &QStashPublisher{
		client:           &http.Client{Timeout: timeout},
		baseURL:          baseURL,
		token:            strings.TrimSpace(cfg.Token),
		targetBaseURL:    targetBaseURL,
		retries:          cfg.Retries,
		internalJobToken: strings.TrimSpace(cfg.InternalJobToken),
		logger:           logger.With("component", "qstash_publisher"),
		breaker:          resilience.NewCircuitBreakerFromConfig(cfg.CircuitBreaker),
	}, nil
}

// Enqueue publishes payload as a POST to the target path. Identical deduplicationIDs
// are collapsed by QStash.
func (p *QStashPublisher) Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error {
	path = "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "/" {
		return ErrInvalidJobPath
	}
	if payload == nil {
		payload = map[string]any{}
	}

	body, err := sonic.Marshal(payload)
	if err != nil {
		return crerr.Wrap(err, "marshal job payload")
	}

	targetURL := p.targetBaseURL + path
	publishURL := p.baseURL + "/v2/publish/" + targetURL
	headers := p.headers(delay, deduplicationID)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("qstash.target_url", targetURL),
			attribute.String("qstash.path", path),
			attribute.String("qstash.deduplication_id", deduplicationID),
			attribute.String("qstash.delay", formatDelay(delay)),
		)
	}

	err = p.breaker.Do(func() error {
		return p.publish(ctx, publishURL, targetURL, headers, body)
	}, isTransient)
	if err != nil {
		if crerr.Is(err, resilience.ErrCircuitOpen) {
			p.logger.WarnContext(ctx, "qstash circuit breaker rejected request", "path", path, "state", p.breaker.State())
			return fmt.Errorf("qstash is temporarily unavailable: %w", err)
		}
		return err
	}

	p.logger.InfoContext(ctx, "qstash job published",
		"path", path,
		"delay", formatDelay(delay),
		"deduplication_id", deduplicationID,
		"headers", describeHeaders(headers),
	)
	return nil
}

func (p *QStashPublisher) headers(delay time.Duration, deduplicationID string) http.Header {
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+p.token)
	h.Set("Content-Type", "application/json")
	h.Set("Upstash-Method", http.MethodPost)
	if p.retries > 0 {
		h.Set("Upstash-Retries", strconv.Itoa(p.retries))
	}
	if delay > 0 {
		h.Set("Upstash-Delay", formatDelay(delay))
	}
	if id := strings.TrimSpace(deduplicationID); id != "" {
		h.Set("Upstash-Deduplication-Id", id)
	}
	if p.internalJobToken != "" {
		h.Set("Upstash-Forward-"+internalJobTokenHeader, p.internalJobToken)
	}
	return h
}

func (p *QStashPublisher) publish(ctx context.Context, publishURL, targetURL string, headers http.Header, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, publishURL, bytes.NewReader(body))
	if err != nil {
		return crerr.Wrap(err, "create qstash request")
	}
	req.Header = headers

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: publish qstash job target_url=%s: %v", errQStashTransient, targetURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 == 2 {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if isRetryableStatus(resp.StatusCode) {
		return fmt.Errorf("%w: publish qstash job status=%d target_url=%s body=%s",
			errQStashTransient, resp.StatusCode, targetURL, strings.TrimSpace(string(raw)))
	}
	return fmt.Errorf("publish qstash job status=%d target_url=%s body=%s",
		resp.StatusCode, targetURL, strings.TrimSpace(string(raw)))
}

func formatDelay(delay time.Duration) string {
	seconds := int(delay.Round(time.Second).Seconds())
	if seconds <= 0 {
		return "0s"
	}
	return strconv.Itoa(seconds) + "s"
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

// describeHeaders renders the Upstash headers for logs with secrets masked.
func describeHeaders(h http.Header) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	for _, key := range []string{
		"Upstash-Method",
		"Upstash-Retries",
		"Upstash-Delay",
		"Upstash-Deduplication-Id",
		"Upstash-Forward-" + internalJobTokenHeader,
	} {
		value := h.Get(key)
		if value == "" {
			continue
		}
		if strings.HasPrefix(key, "Upstash-Forward-") {
			value = "***"
		}
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(key)
		_ = buf.WriteByte('=')
		_, _ = buf.WriteString(value)
	}
	return buf.String()
}

func isTransient(err error) bool {
	return crerr.Is(err, errQStashTransient)
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
