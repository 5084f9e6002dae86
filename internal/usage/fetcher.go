// Package usage fetches rate-limit and credit status for stored accounts
// from the ChatGPT backend.
package usage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/janekbaraniewski/codexswitch/internal/core"
	"github.com/janekbaraniewski/codexswitch/internal/parsers"
)

const (
	DefaultBaseURL = "https://chatgpt.com/backend-api"
	DefaultTimeout = 30 * time.Second

	usagePath       = "/wham/usage"
	userAgent       = "codex-cli/1.0.0"
	accountIDHeader = "chatgpt-account-id"

	maxResponseBodySize = 1 << 20

	msgAPIKeyUnsupported = "usage info not available for API key accounts"
)

type Fetcher struct {
	client         *http.Client
	baseURL        string
	maxConcurrency int
	limiter        *rate.Limiter
	log            *zap.Logger
}

type Option func(*Fetcher)

func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) { f.client = client }
}

func WithBaseURL(baseURL string) Option {
	return func(f *Fetcher) { f.baseURL = normalizeBaseURL(baseURL) }
}

// WithMaxConcurrency caps in-flight requests in FetchAll. Zero means one
// request per account.
func WithMaxConcurrency(n int) Option {
	return func(f *Fetcher) { f.maxConcurrency = n }
}

// WithRateLimit paces all requests made by the fetcher. A non-positive rps
// disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(f *Fetcher) {
		if rps <= 0 {
			f.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(f *Fetcher) { f.log = log.Named("usage") }
}

func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  &http.Client{Timeout: DefaultTimeout},
		baseURL: DefaultBaseURL,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return DefaultBaseURL
	}
	return baseURL
}

// FetchUsage returns acct's usage. Failures are reported in the Error field
// of the result; FetchUsage itself never fails.
func (f *Fetcher) FetchUsage(ctx context.Context, acct core.StoredAccount) core.UsageInfo {
	switch auth := acct.Auth.(type) {
	case core.APIKeyAuth:
		plan := core.PlanAPIKey
		msg := msgAPIKeyUnsupported
		return core.UsageInfo{AccountID: acct.ID, PlanType: &plan, Error: &msg}
	case core.ChatGPTAuth:
		info, err := f.fetchChatGPTUsage(ctx, acct.ID, auth)
		if err != nil {
			f.log.Debug("usage fetch failed", zap.String("account", acct.Name), zap.Error(err))
			return core.NewUsageError(acct.ID, err.Error())
		}
		return info
	default:
		return core.NewUsageError(acct.ID, fmt.Sprintf("unknown auth mode %T", acct.Auth))
	}
}

func (f *Fetcher) fetchChatGPTUsage(ctx context.Context, accountID string, auth core.ChatGPTAuth) (core.UsageInfo, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return core.UsageInfo{}, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+usagePath, nil)
	if err != nil {
		return core.UsageInfo{}, fmt.Errorf("creating usage request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+auth.AccessToken)
	if auth.AccountID != nil && *auth.AccountID != "" {
		req.Header.Set(accountIDHeader, *auth.AccountID)
	}

	f.log.Debug("requesting usage",
		zap.String("url", req.URL.String()),
		zap.Any("headers", parsers.RedactHeaders(req.Header)))

	resp, err := f.client.Do(req)
	if err != nil {
		return core.UsageInfo{}, fmt.Errorf("usage request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodySize))
		f.log.Debug("usage endpoint returned error", zap.Int("status", resp.StatusCode))
		return core.NewUsageError(accountID, "API error: "+statusText(resp.StatusCode)), nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return core.UsageInfo{}, fmt.Errorf("reading usage response: %w", err)
	}

	payload, err := parseStatusPayload(body)
	if err != nil {
		return core.UsageInfo{}, err
	}

	info := toUsageInfo(accountID, payload)
	f.log.Debug("usage fetched",
		zap.String("account_id", accountID),
		zap.Stringp("plan_type", info.PlanType),
		zap.Float64p("primary_used_percent", info.PrimaryUsedPercent))
	return info, nil
}

func statusText(code int) string {
	if text := http.StatusText(code); text != "" {
		return fmt.Sprintf("%d %s", code, text)
	}
	return fmt.Sprintf("%d", code)
}

// FetchAll fetches usage for every account concurrently. The result has one
// entry per account in input order; one account failing does not affect the
// others.
func (f *Fetcher) FetchAll(ctx context.Context, accounts []core.StoredAccount) []core.UsageInfo {
	results := make([]core.UsageInfo, len(accounts))

	var g errgroup.Group
	if f.maxConcurrency > 0 {
		g.SetLimit(f.maxConcurrency)
	}
	for i, acct := range accounts {
		g.Go(func() error {
			results[i] = f.FetchUsage(ctx, acct)
			return nil
		})
	}
	_ = g.Wait()

	f.log.Debug("usage refresh complete", zap.Int("accounts", len(accounts)))
	return results
}
