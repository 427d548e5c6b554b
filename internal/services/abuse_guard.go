package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// AbuseGuard protects a small explicit allowlist of canonical demo links from
// referrer-driven abuse. It never sees general traffic: callers check
// Protected first, and only guarded links consume quota.
type AbuseGuard struct {
	rdb              *redis.Client
	logger           *slog.Logger
	protected        map[string]struct{}
	blockedReferrers []string
	dailyLimit       int
}

// NewAbuseGuard takes the guarded links as "domain/key" pairs and the
// referrer denylist as lower-case substrings.
func NewAbuseGuard(rdb *redis.Client, logger *slog.Logger, demoLinks, blockedReferrers []string, dailyLimit int) *AbuseGuard {
	protected := make(map[string]struct{}, len(demoLinks))
	for _, l := range demoLinks {
		protected[strings.ToLower(l)] = struct{}{}
	}
	denylist := make([]string, 0, len(blockedReferrers))
	for _, r := range blockedReferrers {
		if r = strings.ToLower(strings.TrimSpace(r)); r != "" {
			denylist = append(denylist, r)
		}
	}
	return &AbuseGuard{
		rdb:              rdb,
		logger:           logger,
		protected:        protected,
		blockedReferrers: denylist,
		dailyLimit:       dailyLimit,
	}
}

func (g *AbuseGuard) Protected(domain, key string) bool {
	_, ok := g.protected[strings.ToLower(domain)+"/"+strings.ToLower(key)]
	return ok
}

// Allow checks the referrer denylist and the per ip+domain+key daily budget.
// Redis unavailability fails open: demo links degrading to unguarded beats
// blocking legitimate traffic.
func (g *AbuseGuard) Allow(ctx context.Context, ip, domain, key, referrer string) bool {
	if referrer != "" {
		lower := strings.ToLower(referrer)
		for _, blocked := range g.blockedReferrers {
			if strings.Contains(lower, blocked) {
				g.logger.Info("Blocked referrer on demo link", "domain", domain, "key", key, "referrer", referrer)
				return false
			}
		}
	}

	if g.rdb == nil {
		return true
	}

	quotaKey := "abuse:" + ip + ":" + domain + ":" + key
	count, err := g.rdb.Incr(ctx, quotaKey).Result()
	if err != nil {
		g.logger.Warn("Abuse quota check failed, allowing", "error", err)
		return true
	}
	if count == 1 {
		g.rdb.Expire(ctx, quotaKey, 24*time.Hour)
	}

	if count > int64(g.dailyLimit) {
		g.logger.Info("Demo link quota exhausted", "ip", ip, "domain", domain, "key", key, "count", count)
		return false
	}
	return true
}
