package cli

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/nodewire/pkg/buildinfo"
	"github.com/matzehuels/nodewire/pkg/cache"
	"github.com/matzehuels/nodewire/pkg/config"
	"github.com/matzehuels/nodewire/pkg/editor"
	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/graph"
	"github.com/matzehuels/nodewire/pkg/kind"
	"github.com/matzehuels/nodewire/pkg/layout"
	"github.com/matzehuels/nodewire/pkg/socket"
	"github.com/matzehuels/nodewire/pkg/storage"
)

// layoutCachePrefix namespaces layout entries in a shared Redis.
const layoutCachePrefix = "nodewire:layout:"

// =============================================================================
// Definitions
// =============================================================================

// definitions returns the reference kinds plus those in file, if any.
func definitions(file string) (*kind.Set, error) {
	defs := kind.Reference(socket.Reference())
	if file == "" {
		return defs, nil
	}
	if err := kind.LoadTOML(file, defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// =============================================================================
// Layout
// =============================================================================

// newLayouter builds the configured layout engine: the engine itself behind
// a circuit breaker, behind the layout cache. A nil Layouter means layout is
// off. The returned close function releases the cache backend.
func (c *CLI) newLayouter(cfg config.Layout, engine string) (layout.Layouter, func(), error) {
	noop := func() {}
	if engine == "" {
		engine = cfg.Engine
	}
	inner, err := layout.New(engine)
	if err != nil || inner == nil {
		return nil, noop, err
	}
	l := layout.Layouter(layout.NewBreaker(inner, layout.BreakerSettings{Logger: c.Logger}))

	lc, closeCache, err := c.newLayoutCache(cfg)
	if err != nil {
		// A broken cache only costs recomputation.
		c.Logger.Warn("layout cache disabled", "err", err)
		return l, noop, nil
	}
	if lc == nil {
		return l, noop, nil
	}
	keyer := cache.NewScopedKeyer(nil, buildinfo.Version+":")
	return layout.NewCached(l, lc, keyer, cfg.CacheTTL), closeCache, nil
}

func (c *CLI) newLayoutCache(cfg config.Layout) (cache.Cache, func(), error) {
	noop := func() {}
	switch cfg.Cache {
	case "file":
		dir, err := cacheDir()
		if err != nil {
			return nil, noop, errors.Wrap(errors.ErrCodeExternalIO, err, "locate cache dir")
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, noop, err
		}
		return fc, noop, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: c.cfg.Storage.RedisAddr})
		return cache.NewRedisCache(client, layoutCachePrefix), func() { _ = client.Close() }, nil
	}
	return nil, noop, nil
}

// =============================================================================
// Sessions
// =============================================================================

// session is an editor bound to the document it was opened from.
type session struct {
	ed     *editor.Editor
	loc    storage.Saver
	closer func()
}

type sessionOptions struct {
	engine string // overrides the configured layout engine
	create bool   // start empty instead of reading the document
}

// openSession builds an editor from the configuration and fills it from
// the document at path.
func (c *CLI) openSession(ctx context.Context, path string, o sessionOptions) (*session, error) {
	ed, closer, err := c.newEditor(o.engine)
	if err != nil {
		return nil, err
	}
	file := storage.NewFile(path)
	if !o.create {
		start := time.Now()
		res, err := ed.Open(ctx, file)
		if err != nil {
			closer()
			return nil, err
		}
		c.Logger.Debug("opened", "path", path, "nodes", len(res.Nodes), "took", time.Since(start))
	}
	return &session{ed: ed, loc: file, closer: closer}, nil
}

// newEditor builds an empty editor from the configuration. Each editor
// numbers its nodes from 1, so a document reopened by the next command gets
// the ids it was saved with, compacted after removals.
func (c *CLI) newEditor(engine string) (*editor.Editor, func(), error) {
	defs, err := definitions(c.cfg.Kinds.File)
	if err != nil {
		return nil, nil, err
	}
	policy, err := editor.ParseLayoutPolicy(c.cfg.Layout.Policy)
	if err != nil {
		return nil, nil, err
	}
	l, closer, err := c.newLayouter(c.cfg.Layout, engine)
	if err != nil {
		return nil, nil, err
	}
	ed, err := editor.New(defs,
		editor.WithLogger(c.Logger),
		editor.WithSequence(&graph.Sequence{}),
		editor.WithLayouter(l),
		editor.WithLayoutPolicy(policy),
	)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return ed, closer, nil
}

// save writes the session back to the document it came from.
func (s *session) save(ctx context.Context) error {
	return s.ed.Save(ctx, s.loc)
}

func (s *session) Close() { s.closer() }

// =============================================================================
// Remote stores
// =============================================================================

// openStore connects to the named document store backend. An empty name
// uses the configured backend.
func (c *CLI) openStore(ctx context.Context, backend string) (storage.Store, error) {
	cfg := c.cfg.Storage
	if backend == "" {
		backend = cfg.Backend
	}
	switch backend {
	case "file":
		return storage.NewFileStore(cfg.Dir)
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, errors.Wrap(errors.ErrCodeExternalIO, err, "connect redis %s", cfg.RedisAddr)
		}
		return &ownedRedisStore{RedisStore: storage.NewRedisStore(client, cfg.RedisKey, 0), client: client}, nil
	case "mongo":
		return storage.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown store %q (want file, redis or mongo)", backend)
}

// ownedRedisStore closes the client it was created with.
type ownedRedisStore struct {
	*storage.RedisStore
	client *redis.Client
}

func (s *ownedRedisStore) Close() error { return s.client.Close() }
