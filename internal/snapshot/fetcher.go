// Package snapshot implements the Market Snapshot Fetcher (C1): a
// fleet-wide, rate-limited, request-coalesced cache over the price feed,
// with staleness-tolerant fallback.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"tokenarena/internal/cache"
	"tokenarena/internal/concurrency"
	"tokenarena/internal/models"
)

const (
	cacheKey        = "cache:snapshot"
	inflightKey     = "inflight:snapshot"
	creditKeyFmt    = "credits:%s" // YYYY-MM
	maxTokens       = 50
	maxAgeWeek      = 7 * 24 * 60 // minutes
	numeraireUSDPeg = 300.0       // peg constant used by VolumeSpike scoring too
)

// Gateway is the single shared instance every Coordinator and read endpoint
// calls into. It must not be constructed per-Coordinator. The snapshot
// cache, the in-flight marker and the monthly credit counter live in the
// shared blob store; the per-minute rate gate is an in-process token bucket,
// so it is enforced per process, not across the fleet.
type Gateway struct {
	store      cache.Store
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *concurrency.CircuitBreaker
	feedURL    string
	feedAPIKey string
	cacheTTL   time.Duration
	inflightTTL time.Duration
	monthlyCap int

	mu sync.Mutex // unused; in-flight coordination goes through the blob-store marker
}

// NewGateway builds the shared snapshot gateway.
func NewGateway(store cache.Store, feedURL, feedAPIKey string, cacheTTL, inflightTTL time.Duration, ratePerMinute, monthlyCap int) *Gateway {
	return &Gateway{
		store:       store,
		httpClient:  &http.Client{Timeout: 8 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(float64(ratePerMinute)/60.0), ratePerMinute),
		breaker:     concurrency.NewCircuitBreaker(concurrency.CircuitBreakerConfig{Name: "snapshot-feed", FailureThreshold: 5, RecoveryTimeout: 30 * time.Second}),
		feedURL:     feedURL,
		feedAPIKey:  feedAPIKey,
		cacheTTL:    cacheTTL,
		inflightTTL: inflightTTL,
		monthlyCap:  monthlyCap,
	}
}

// GetSnapshot returns the current market. When skipCache is set (every
// simulation tick does so), the cache is bypassed for freshness, but
// coalescing and rate/quota gates still apply.
func (g *Gateway) GetSnapshot(ctx context.Context, skipCache bool) (models.Snapshot, error) {
	if !skipCache {
		if snap, ok := g.readCache(ctx); ok {
			return snap, nil
		}
	}

	if !g.limiter.Allow() {
		log.Printf("[SNAPSHOT] rate gate tripped, falling back to stale cache")
		return g.staleOrFallback(ctx), nil
	}
	if g.monthlyCreditsExhausted(ctx) {
		log.Printf("[SNAPSHOT] monthly credit cap reached, falling back to stale cache")
		return g.staleOrFallback(ctx), nil
	}

	gotLock, err := g.store.SetNX(ctx, inflightKey, []byte("1"), g.inflightTTL)
	if err != nil {
		log.Printf("[SNAPSHOT] inflight marker error: %v", err)
	}
	if !gotLock {
		time.Sleep(time.Second)
		if snap, ok := g.readCache(ctx); ok {
			return snap, nil
		}
		return g.staleOrFallback(ctx), nil
	}
	defer g.store.Del(ctx, inflightKey)

	var snap models.Snapshot
	fetchErr := g.breaker.Call(func() error {
		var innerErr error
		snap, innerErr = g.fetchUpstream(ctx)
		return innerErr
	})
	if fetchErr != nil {
		log.Printf("[SNAPSHOT] upstream fetch failed: %v", fetchErr)
		return g.staleOrFallback(ctx), nil
	}

	g.incrementCredits(ctx)
	g.writeCache(ctx, snap)
	return snap, nil
}

func (g *Gateway) readCache(ctx context.Context) (models.Snapshot, bool) {
	raw, ok, err := g.store.Get(ctx, cacheKey)
	if err != nil || !ok {
		return models.Snapshot{}, false
	}
	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return models.Snapshot{}, false
	}
	return snap, true
}

func (g *Gateway) writeCache(ctx context.Context, snap models.Snapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := g.store.Set(ctx, cacheKey, raw, g.cacheTTL); err != nil {
		log.Printf("[SNAPSHOT] cache write failed: %v", err)
	}
}

// staleOrFallback returns the cached snapshot marked stale if the cache
// entry has not yet expired (it is written with cacheTTL), else a hard-coded
// synthetic snapshot. This is the only path that surfaces the fallback.
func (g *Gateway) staleOrFallback(ctx context.Context) models.Snapshot {
	if snap, ok := g.readCache(ctx); ok {
		snap.Stale = true
		return snap
	}
	return fallbackSnapshot()
}

func fallbackSnapshot() models.Snapshot {
	return models.Snapshot{
		Fallback:  true,
		FetchedAt: time.Now().Unix(),
		Tokens: []models.Token{
			{
				Address:        "0xfallback",
				Symbol:         "FALLBACK",
				PriceNumeraire: 1.0,
				LiquidityNum:   1000,
				AgeMinutes:     60,
				VolumeUSD24h:   50000,
				PriceChange24h: 0,
			},
		},
	}
}

func (g *Gateway) monthlyCreditsExhausted(ctx context.Context) bool {
	key := fmt.Sprintf(creditKeyFmt, time.Now().Format("2006-01"))
	raw, ok, _ := g.store.Get(ctx, key)
	if !ok {
		return false
	}
	used := parseCount(raw)
	if used >= int64(float64(g.monthlyCap)*0.9) {
		log.Printf("[SNAPSHOT] monthly credit usage at %d/%d (90%%+)", used, g.monthlyCap)
	} else if used >= int64(float64(g.monthlyCap)*0.8) {
		log.Printf("[SNAPSHOT] monthly credit usage at %d/%d (80%%+)", used, g.monthlyCap)
	}
	return used >= int64(g.monthlyCap)
}

func (g *Gateway) incrementCredits(ctx context.Context) {
	key := fmt.Sprintf(creditKeyFmt, time.Now().Format("2006-01"))
	if _, err := g.store.Incr(ctx, key, 32*24*time.Hour); err != nil {
		log.Printf("[SNAPSHOT] credit counter increment failed: %v", err)
	}
}

// UsageStats reports the fleet-wide gates' current state for the admin
// api-usage endpoint.
type UsageStats struct {
	MonthlyCreditsUsed int64   `json:"monthly_credits_used"`
	MonthlyCreditCap   int     `json:"monthly_credit_cap"`
	RateLimitPerMinute float64 `json:"rate_limit_per_minute"`
}

// Usage reads the current month's credit counter without mutating it.
func (g *Gateway) Usage(ctx context.Context) UsageStats {
	key := fmt.Sprintf(creditKeyFmt, time.Now().Format("2006-01"))
	raw, ok, _ := g.store.Get(ctx, key)
	used := int64(0)
	if ok {
		used = parseCount(raw)
	}
	return UsageStats{
		MonthlyCreditsUsed: used,
		MonthlyCreditCap:   g.monthlyCap,
		RateLimitPerMinute: float64(g.limiter.Limit()) * 60.0,
	}
}

func parseCount(b []byte) int64 {
	var n int64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int64(c-'0')
	}
	return n
}

// poolRecord is the upstream feed's per-pool shape.
type poolRecord struct {
	BaseTokenAddress string  `json:"base_token_address"`
	Symbol           string  `json:"symbol"`
	PriceNumeraire   float64 `json:"price_numeraire"`
	PriceUSD         float64 `json:"price_usd"`
	LiquidityUSD     float64 `json:"liquidity_usd"`
	VolumeUSD24h     float64 `json:"volume_usd_24h"`
	PoolCreatedAt    int64   `json:"pool_created_at"` // unix seconds
	PriceChange24h   float64 `json:"price_change_24h"`
	TaxPct           float64 `json:"tax_pct"`
	Honeypot         bool    `json:"honeypot"`
	OwnershipRenounced bool  `json:"ownership_renounced"`
	LiquidityLocked  bool    `json:"liquidity_locked"`
}

// fetchUpstreamRetryConfig bounds the retry to a couple of fast attempts;
// the circuit breaker around fetchUpstream handles sustained outages, this
// just rides out a single dropped connection or transient 5xx.
var fetchUpstreamRetryConfig = concurrency.BackoffConfig{
	InitialDelay: 150 * time.Millisecond,
	MaxDelay:     1 * time.Second,
	Multiplier:   2.0,
	Jitter:       true,
	MaxRetries:   2,
}

func (g *Gateway) fetchUpstream(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot
	err := concurrency.RetryWithBackoff(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		s, err := g.doFetchUpstream(ctx)
		if err != nil {
			return err
		}
		snap = s
		return nil
	}, fetchUpstreamRetryConfig)
	return snap, err
}

func (g *Gateway) doFetchUpstream(ctx context.Context) (models.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.feedURL, nil)
	if err != nil {
		return models.Snapshot{}, err
	}
	if g.feedAPIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.feedAPIKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return models.Snapshot{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Snapshot{}, fmt.Errorf("price feed returned status %d", resp.StatusCode)
	}

	var pools []poolRecord
	if err := json.NewDecoder(resp.Body).Decode(&pools); err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to parse price feed response: %w", err)
	}

	return transform(pools), nil
}

// transform maps upstream pool records to Tokens per the fetcher's
// transformation rule (§4.1): numeraire-first pricing, liquidity in
// numeraire, age in minutes, and exclusion of non-positive price, sub-1
// liquidity, or week-plus age.
func transform(pools []poolRecord) models.Snapshot {
	now := time.Now()
	tokens := make([]models.Token, 0, len(pools))

	for _, p := range pools {
		price := p.PriceNumeraire
		if price <= 0 {
			price = p.PriceUSD / numeraireUSDPeg
		}
		if price <= 0 {
			continue
		}

		liquidity := p.LiquidityUSD / numeraireUSDPeg

		ageMinutes := 0.0
		if p.PoolCreatedAt > 0 {
			ageMinutes = now.Sub(time.Unix(p.PoolCreatedAt, 0)).Minutes()
		}

		if liquidity < 1 || ageMinutes > maxAgeWeek {
			continue
		}

		symbol := p.Symbol
		if len(symbol) > 20 {
			symbol = symbol[:20]
		}

		tokens = append(tokens, models.Token{
			Address:            p.BaseTokenAddress,
			Symbol:             symbol,
			PriceNumeraire:     price,
			LiquidityNum:       liquidity,
			AgeMinutes:         math.Max(ageMinutes, 0),
			VolumeUSD24h:       p.VolumeUSD24h,
			PriceChange24h:     p.PriceChange24h,
			TaxPct:             p.TaxPct,
			Honeypot:           p.Honeypot,
			OwnershipRenounced: p.OwnershipRenounced,
			LiquidityLocked:    p.LiquidityLocked,
		})

		if len(tokens) >= maxTokens {
			break
		}
	}

	return models.Snapshot{Tokens: tokens, FetchedAt: now.Unix()}
}
