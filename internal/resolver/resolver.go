package resolver

import (
	"context"
	"log/slog"
	"time"

	"github.com/dubinc/dub-sub007/internal/models"
)

// LinkCache is the fast lookup layer in front of the store. A miss returns
// (nil, nil); errors are treated as misses by the resolver.
type LinkCache interface {
	Get(ctx context.Context, domain, key string) (*models.LinkRecord, error)
	Set(ctx context.Context, domain, key string, rec *models.LinkRecord) error
	Delete(ctx context.Context, domain, key string) error
}

// LinkStore is the durable source of truth, consulted only on cache miss.
type LinkStore interface {
	GetLink(ctx context.Context, domain, key string) (*models.LinkRecord, error)
}

// Resolver implements cache-aside lookup: cache first, store on miss, with
// hydration scheduled off the response path.
type Resolver struct {
	cache  LinkCache
	store  LinkStore
	logger *slog.Logger

	// schedule runs hydration asynchronously. Overridable in tests; completion
	// is best-effort and never awaited by the request.
	schedule func(func())
}

func NewResolver(cache LinkCache, store LinkStore, logger *slog.Logger) *Resolver {
	return &Resolver{
		cache:    cache,
		store:    store,
		logger:   logger,
		schedule: func(task func()) { go task() },
	}
}

// Resolve returns the link record for (domain, key), or nil when unresolved.
// Collaborator failures on the hot path degrade to nil rather than erroring:
// a soft landing beats an opaque failure for someone clicking a shared link.
func (r *Resolver) Resolve(ctx context.Context, domain, key string) *models.LinkRecord {
	rec, err := r.cache.Get(ctx, domain, key)
	if err != nil {
		r.logger.Warn("link cache lookup failed", "domain", domain, "key", key, "error", err)
	}
	if rec != nil {
		return rec
	}

	rec, err = r.store.GetLink(ctx, domain, key)
	if err != nil {
		r.logger.Error("link store lookup failed", "domain", domain, "key", key, "error", err)
		return nil
	}
	if rec == nil {
		return nil
	}

	r.scheduleHydrate(domain, key, rec)
	return rec
}

// Invalidate drops the cache entry for (domain, key). Called by the owning
// system after an edit or delete; the cache carries no TTL otherwise.
func (r *Resolver) Invalidate(ctx context.Context, domain, key string) error {
	return r.cache.Delete(ctx, domain, key)
}

func (r *Resolver) scheduleHydrate(domain, key string, rec *models.LinkRecord) {
	r.schedule(func() {
		// Deliberately detached from the request context: hydration should
		// complete even if the client disconnects.
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := r.cache.Set(ctx, domain, key, rec); err != nil {
			r.logger.Warn("link cache hydration failed", "domain", domain, "key", key, "error", err)
		}
	})
}
