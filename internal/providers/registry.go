package providers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const DefaultTTL = 5 * time.Minute

// Registry aggregates every registered Loader behind a TTL cache.
// Readers always see a complete snapshot: refreshes build a new catalog
// off to the side and swap it in atomically.
type Registry struct {
	loaders []Loader
	ttl     time.Duration
	log     *logrus.Logger

	refreshMu sync.Mutex
	snap      atomic.Pointer[snapshot]
}

type snapshot struct {
	chat      ChatCatalog
	embedding EmbeddingCatalog
	expiresAt time.Time
}

func (s *snapshot) valid() bool {
	return s != nil && time.Now().Before(s.expiresAt)
}

func NewRegistry(log *logrus.Logger, ttl time.Duration, loaders ...Loader) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{loaders: loaders, ttl: ttl, log: log}
}

// ChatModels returns the provider -> model id -> handle catalog,
// refreshing every loader if the cached snapshot has expired.
func (r *Registry) ChatModels(ctx context.Context) ChatCatalog {
	return r.current(ctx).chat
}

// EmbeddingModels is the embedding-side counterpart of ChatModels.
func (r *Registry) EmbeddingModels(ctx context.Context) EmbeddingCatalog {
	return r.current(ctx).embedding
}

// Infos lists the static metadata of every registered provider plus the
// reserved custom endpoint entry.
func (r *Registry) Infos() []Info {
	out := make([]Info, 0, len(r.loaders)+1)
	hasCustom := false
	for _, l := range r.loaders {
		if l.Key() == CustomOpenAIKey {
			hasCustom = true
		}
		out = append(out, l.Info())
	}
	if !hasCustom {
		out = append(out, Info{
			Key:         CustomOpenAIKey,
			DisplayName: "Custom OpenAI",
			Description: "OpenAI-compatible endpoint with inline credentials",
		})
	}
	return out
}

// ClearCache forces the next catalog call to re-probe every provider.
func (r *Registry) ClearCache() {
	r.snap.Store(nil)
}

func (r *Registry) current(ctx context.Context) *snapshot {
	if s := r.snap.Load(); s.valid() {
		return s
	}

	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	// Another request may have refreshed while we waited for the lock.
	if s := r.snap.Load(); s.valid() {
		return s
	}

	s := r.refresh(ctx)
	r.snap.Store(s)
	return s
}

type loadResult struct {
	key       string
	chat      map[string]ChatModel
	embedding map[string]EmbeddingModel
	err       error
}

// refresh probes all loaders concurrently. A loader failure only costs
// that loader its contribution; the closures always return nil so one
// bad provider never cancels its siblings.
func (r *Registry) refresh(ctx context.Context) *snapshot {
	results := make([]loadResult, len(r.loaders))

	g, gctx := errgroup.WithContext(ctx)
	for i, l := range r.loaders {
		g.Go(func() error {
			res := &results[i]
			res.key = l.Key()

			defer func() {
				if p := recover(); p != nil {
					res.err = fmt.Errorf("loader panicked: %v", p)
				}
			}()

			chat, err := l.LoadChatModels(gctx)
			if err != nil {
				res.err = err
				return nil
			}
			embedding, err := l.LoadEmbeddingModels(gctx)
			if err != nil {
				res.err = err
				return nil
			}
			res.chat = chat
			res.embedding = embedding
			return nil
		})
	}
	_ = g.Wait()

	chat := ChatCatalog{}
	embedding := EmbeddingCatalog{}
	for _, res := range results {
		if res.err != nil {
			r.log.WithError(res.err).WithField("provider", res.key).Warn("provider load failed")
			continue
		}
		if len(res.chat) > 0 {
			chat[res.key] = res.chat
		}
		if len(res.embedding) > 0 {
			embedding[res.key] = res.embedding
		}
	}

	return &snapshot{
		chat:      chat,
		embedding: embedding,
		expiresAt: time.Now().Add(r.ttl),
	}
}
