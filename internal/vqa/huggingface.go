package vqa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultTimeout = 30 * time.Second

// HFProvider posts questions to a Hugging Face inference router endpoint.
// One Answer call is exactly one POST; nothing is retried.
type HFProvider struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
	limiter  *rate.Limiter
	log      *zap.Logger
}

// Option configures an HFProvider.
type Option func(*HFProvider)

func WithEndpoint(url string) Option {
	return func(p *HFProvider) {
		if url = strings.TrimSpace(url); url != "" {
			p.endpoint = url
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(p *HFProvider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(p *HFProvider) {
		if c != nil {
			p.client = c
		}
	}
}

// WithRateLimit caps outgoing requests per minute. Zero or less disables it.
func WithRateLimit(perMinute int) Option {
	return func(p *HFProvider) {
		if perMinute <= 0 {
			p.limiter = nil
			return
		}
		p.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(p *HFProvider) {
		if l != nil {
			p.log = l
		}
	}
}

func NewHFProvider(opts ...Option) *HFProvider {
	p := &HFProvider{
		endpoint: DefaultEndpoint,
		timeout:  defaultTimeout,
		client:   &http.Client{},
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With(zap.String("component", "vqa"), zap.String("endpoint", p.endpoint))
	return p
}

func (p *HFProvider) Name() string { return "huggingface" }

func (p *HFProvider) Endpoint() string { return p.endpoint }

func (p *HFProvider) Answer(ctx context.Context, req Request) (Result, error) {
	key := strings.TrimSpace(req.APIKey)
	if key == "" {
		return Result{}, ErrNoAPIKey
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return Result{}, fmt.Errorf("vqa: rate limit: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	body, err := json.Marshal(payload{Inputs: inputs{Image: req.Image, Question: req.Question}})
	if err != nil {
		return Result{}, fmt.Errorf("vqa: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("vqa: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+key)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		p.log.Warn("request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return Result{}, fmt.Errorf("vqa: post: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("vqa: read response: %w", err)
	}
	p.log.Debug("response received",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(raw)),
		zap.Duration("elapsed", time.Since(start)),
	)

	res, err := ParseResponse(raw)
	if err != nil {
		p.log.Info("response not usable", zap.Int("status", resp.StatusCode), zap.Error(err))
		return res, err
	}
	return res, nil
}
