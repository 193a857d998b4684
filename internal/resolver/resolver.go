// Package resolver serves enriched memos through the cache: it fetches,
// transforms and stores memos and resolves the titles of related memos
// recursively.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/memoirs/internal/apperr"
	"github.com/starford/memoirs/internal/cache"
	"github.com/starford/memoirs/internal/markup"
	"github.com/starford/memoirs/internal/memos"
	"github.com/starford/memoirs/internal/models"
)

// Defaults.
const (
	DefaultTTL         = time.Minute
	DefaultMaxDepth    = 4
	DefaultConcurrency = 8
	DefaultQueryLimit  = 20
)

// Fetcher retrieves raw memos from the remote server.
type Fetcher interface {
	FetchMemo(ctx context.Context, srv memos.ServerConfig, id int64) (*models.Memo, error)
	FetchMemos(ctx context.Context, srv memos.ServerConfig, q models.MemoQuery) ([]models.Memo, error)
}

// Result is a resolved memo.
type Result struct {
	CacheHit  bool                      `json:"cacheHit"`
	Document  *models.Document          `json:"memo"`
	Relations []models.ResolvedRelation `json:"relations"`
	// Truncated is set when a relation was cut short by the cycle or depth
	// guard. Truncated results are not cached.
	Truncated bool `json:"-"`
}

// ListResult is one resolved page of a list query.
type ListResult struct {
	CacheHit  bool               `json:"cacheHit"`
	Documents []*models.Document `json:"memos"`
	HasMore   bool               `json:"hasMore"`
	// Query is the request with defaults applied.
	Query models.MemoQuery `json:"-"`
}

// MenuResult is the navigation menu of a partition.
type MenuResult struct {
	Cached bool              `json:"cached"`
	Items  []models.MenuItem `json:"data"`
}

// Resolver owns the cache it reads through.
type Resolver struct {
	cache   *cache.Cache
	fetcher Fetcher
	logger  *slog.Logger

	noteTTL     time.Duration
	listTTL     time.Duration
	maxDepth    int
	concurrency int
	queryLimit  int
	now         func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithTTL sets the validity window of memo and list entries.
func WithTTL(note, list time.Duration) Option {
	return func(r *Resolver) {
		if note > 0 {
			r.noteTTL = note
		}
		if list > 0 {
			r.listTTL = list
		}
	}
}

// WithMaxDepth bounds how deep relations are followed. Depth 0 resolves no
// relation titles at all.
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) {
		if depth >= 0 {
			r.maxDepth = depth
		}
	}
}

// WithConcurrency bounds parallel relation lookups per memo.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithQueryLimit sets the page size used when a list query has none.
func WithQueryLimit(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.queryLimit = n
		}
	}
}

// WithClock overrides the time source for expiry stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// New creates a Resolver reading through c and fetching with f.
func New(c *cache.Cache, f Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		cache:       c,
		fetcher:     f,
		logger:      slog.Default(),
		noteTTL:     DefaultTTL,
		listTTL:     DefaultTTL,
		maxDepth:    DefaultMaxDepth,
		concurrency: DefaultConcurrency,
		queryLimit:  DefaultQueryLimit,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the memo id of partition p with the titles of its related
// memos. Failures of related memos degrade to an "Untitled" title.
func (r *Resolver) Resolve(ctx context.Context, p models.Partition, id int64) (*Result, error) {
	srv, err := memos.NewServerConfig(p)
	if err != nil {
		return emptyResult(), err
	}
	return r.resolve(ctx, srv, id, nil)
}

// resolve handles one memo. ancestors holds the ids on the path from the
// top-level request down to this memo; its length is the current depth.
func (r *Resolver) resolve(ctx context.Context, srv memos.ServerConfig, id int64, ancestors []int64) (*Result, error) {
	if slices.Contains(ancestors, id) {
		return emptyResult(), fmt.Errorf("memo %d: %w", id, apperr.ErrCycle)
	}

	key := cache.NoteKey(srv.Partition(), id)
	if e, ok := r.cache.Note(key); ok {
		r.logger.Debug("resolver: cache hit", slog.Int64("id", id))
		return &Result{CacheHit: true, Document: e.Document, Relations: e.Relations}, nil
	}
	// Cached entries are complete, so the depth limit only bounds fetches.
	if len(ancestors) > r.maxDepth {
		return emptyResult(), fmt.Errorf("memo %d: %w", id, apperr.ErrDepthExceeded)
	}

	memo, err := r.fetcher.FetchMemo(ctx, srv, id)
	if err != nil {
		r.logger.Warn("resolver: fetch memo failed",
			slog.String("host", srv.Host),
			slog.Int64("id", id),
			slog.String("error", err.Error()))
		return emptyResult(), fmt.Errorf("memo %d: %w", id, err)
	}

	doc := markup.Transform(srv.AssetURL, *memo)
	path := append(slices.Clone(ancestors), id)
	relations, truncated := r.resolveRelations(ctx, srv, doc, path)

	res := &Result{Document: doc, Relations: relations, Truncated: truncated}
	if !truncated {
		r.cache.Set(key, &cache.NoteEntry{
			Document:  doc,
			Relations: relations,
			ExpiresAt: r.now().Add(r.noteTTL),
		})
	}
	r.logger.Debug("resolver: resolved",
		slog.Int64("id", id),
		slog.Int("relations", len(relations)),
		slog.Bool("truncated", truncated))
	return res, nil
}

// resolveRelations looks up the title of every relation of doc
// concurrently. It reports truncated when a direct relation was stopped by
// the cycle or depth guard. A relation of doc to itself takes doc's title.
func (r *Resolver) resolveRelations(ctx context.Context, srv memos.ServerConfig, doc *models.Document, path []int64) ([]models.ResolvedRelation, bool) {
	rels := doc.RelationList
	self := path[len(path)-1]
	out := make([]models.ResolvedRelation, len(rels))
	guarded := make([]bool, len(rels))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, rel := range rels {
		if rel.RelatedMemoID == self {
			title := doc.Title
			if title == "" {
				title = models.UntitledTitle
			}
			out[i] = models.ResolvedRelation{Relation: rel, Title: title}
			continue
		}
		g.Go(func() error {
			title := models.UntitledTitle
			res, err := r.resolve(ctx, srv, rel.RelatedMemoID, path)
			switch {
			case errors.Is(err, apperr.ErrCycle), errors.Is(err, apperr.ErrDepthExceeded):
				guarded[i] = true
			case err != nil:
				r.logger.Debug("resolver: relation unresolved",
					slog.Int64("id", rel.RelatedMemoID),
					slog.String("error", err.Error()))
			case res.Document != nil && res.Document.Title != "":
				title = res.Document.Title
			}
			out[i] = models.ResolvedRelation{Relation: rel, Title: title}
			return nil
		})
	}
	_ = g.Wait()

	return out, slices.Contains(guarded, true)
}

// ResolveList returns one page of memos matching q. Related memos are not
// resolved.
func (r *Resolver) ResolveList(ctx context.Context, p models.Partition, q models.MemoQuery) (*ListResult, error) {
	srv, err := memos.NewServerConfig(p)
	if err != nil {
		return &ListResult{}, err
	}
	q, err = r.normalizeQuery(q)
	if err != nil {
		return &ListResult{}, err
	}

	key := cache.ListKey(srv.Partition(), q)
	if e, ok := r.cache.List(key); ok {
		return &ListResult{CacheHit: true, Documents: e.Documents, HasMore: e.HasMore, Query: q}, nil
	}

	// One extra memo tells whether another page exists.
	fetchQ := q
	fetchQ.Limit = q.Limit + 1
	raw, err := r.fetcher.FetchMemos(ctx, srv, fetchQ)
	if err != nil {
		r.logger.Warn("resolver: fetch memos failed",
			slog.String("host", srv.Host),
			slog.String("error", err.Error()))
		return &ListResult{}, fmt.Errorf("list memos: %w", err)
	}

	hasMore := len(raw) > q.Limit
	if hasMore {
		raw = raw[:q.Limit]
	}
	docs := make([]*models.Document, len(raw))
	for i, m := range raw {
		docs[i] = markup.Transform(srv.AssetURL, m)
	}
	if q.FilterPages {
		docs = markup.FilterOutPages(docs)
	}

	r.cache.Set(key, &cache.ListEntry{
		Documents: docs,
		HasMore:   hasMore,
		ExpiresAt: r.now().Add(r.listTTL),
	})
	return &ListResult{Documents: docs, HasMore: hasMore, Query: q}, nil
}

// Menu returns the navigation menu declared by "memoirs_menu:" memos. Menu
// entries never expire; refresh drops the cached menu first.
func (r *Resolver) Menu(ctx context.Context, p models.Partition, status models.RowStatus, refresh bool) (*MenuResult, error) {
	srv, err := memos.NewServerConfig(p)
	if err != nil {
		return &MenuResult{}, err
	}
	if status == "" {
		status = models.RowStatusNormal
	}

	key := cache.MenuKey(srv.Partition(), status)
	if refresh {
		r.logger.Info("resolver: menu refresh", slog.String("host", srv.Host), slog.String("user", srv.User))
		r.cache.Delete(key)
	}
	if e, ok := r.cache.Menu(key); ok {
		return &MenuResult{Cached: true, Items: e.Items}, nil
	}

	raw, err := r.fetcher.FetchMemos(ctx, srv, models.MemoQuery{Content: markup.MenuMarker, RowStatus: status})
	if err != nil {
		r.logger.Warn("resolver: fetch menu failed",
			slog.String("host", srv.Host),
			slog.String("error", err.Error()))
		return &MenuResult{}, fmt.Errorf("menu: %w", err)
	}

	items := []models.MenuItem{}
	for _, m := range raw {
		items = append(items, markup.ParseMenu(m.Content)...)
	}
	r.cache.Set(key, &cache.MenuEntry{Items: items})
	return &MenuResult{Items: items}, nil
}

// Invalidate drops the cached memo id of partition p.
func (r *Resolver) Invalidate(p models.Partition, id int64) error {
	srv, err := memos.NewServerConfig(p)
	if err != nil {
		return err
	}
	r.cache.Delete(cache.NoteKey(srv.Partition(), id))
	return nil
}

// InvalidateList drops the cached page for q.
func (r *Resolver) InvalidateList(p models.Partition, q models.MemoQuery) error {
	srv, err := memos.NewServerConfig(p)
	if err != nil {
		return err
	}
	q, err = r.normalizeQuery(q)
	if err != nil {
		return err
	}
	r.cache.Delete(cache.ListKey(srv.Partition(), q))
	return nil
}

// Stats reports cache usage.
func (r *Resolver) Stats() cache.Stats {
	return r.cache.Stats()
}

// normalizeQuery validates q and fills in defaults so equivalent queries map
// to the same cache key.
func (r *Resolver) normalizeQuery(q models.MemoQuery) (models.MemoQuery, error) {
	if err := q.Validate(); err != nil {
		return q, fmt.Errorf("%w: %v", apperr.ErrInvalidQuery, err)
	}
	q.Tag = strings.TrimPrefix(q.Tag, "#")
	if q.Limit == 0 {
		q.Limit = r.queryLimit
	}
	if q.RowStatus == "" {
		q.RowStatus = models.RowStatusNormal
	}
	return q, nil
}

func emptyResult() *Result {
	return &Result{Relations: []models.ResolvedRelation{}}
}
