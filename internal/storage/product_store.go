// Package storage holds the local product records: products created or edited
// through the admin flow, persisted as one JSON array under a fixed key of the
// durable store. Every mutation rewrites the whole set.
package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/shopfront/internal/kv"
	"github.com/yourusername/shopfront/internal/metrics"
	"github.com/yourusername/shopfront/internal/model"
	"github.com/yourusername/shopfront/pkg/codec"
	shoperrors "github.com/yourusername/shopfront/pkg/errors"
)

// DefaultKey is the durable store key of the local product array.
const DefaultKey = "shopfront.localProducts"

// ProductStore reads and writes the local product set.
// Store failures never escape: reads degrade to an empty set and failed
// writes are logged.
type ProductStore struct {
	kv      kv.Store
	key     string
	codec   codec.Codec
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	// mu serializes read-modify-write cycles.
	mu          sync.Mutex
	maxRemoteID int64
}

// Option configures a ProductStore.
type Option func(*ProductStore)

func WithLogger(l *zap.Logger) Option {
	return func(s *ProductStore) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *ProductStore) { s.metrics = m }
}

func WithCodec(c codec.Codec) Option {
	return func(s *ProductStore) {
		if c != nil {
			s.codec = c
		}
	}
}

// WithClock replaces time.Now for id generation.
func WithClock(now func() time.Time) Option {
	return func(s *ProductStore) { s.now = now }
}

// NewProductStore creates a store over the given backend and key.
func NewProductStore(store kv.Store, key string, opts ...Option) *ProductStore {
	if key == "" {
		key = DefaultKey
	}
	s := &ProductStore{
		kv:     store,
		key:    key,
		codec:  codec.DefaultCodec(),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadAll returns every local record sorted by id descending.
// A missing, unreadable or corrupt value yields an empty list.
func (s *ProductStore) LoadAll(ctx context.Context) []model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

// SaveAll replaces the stored set with products, sorted by id descending.
func (s *ProductStore) SaveAll(ctx context.Context, products []model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, products)
}

// Get returns the local record with the given id.
func (s *ProductStore) Get(ctx context.Context, id int64) (model.Product, bool) {
	for _, p := range s.LoadAll(ctx) {
		if p.ID == id {
			return p, true
		}
	}
	return model.Product{}, false
}

// ObserveRemote records remote ids so that generated ids never collide with them.
func (s *ProductStore) ObserveRemote(products []model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		if p.ID > s.maxRemoteID {
			s.maxRemoteID = p.ID
		}
	}
}

// Create assigns a fresh id to in, prepends the record and persists the set.
func (s *ProductStore) Create(ctx context.Context, in model.ProductInput) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := s.loadLocked(ctx)
	p := in.ToProduct(s.nextIDLocked(products))

	products = append([]model.Product{p}, products...)
	s.persistLocked(ctx, "create", products)
	return p
}

// Update replaces the record with p.ID, or prepends p if no record matches.
func (s *ProductStore) Update(ctx context.Context, p model.Product) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := s.loadLocked(ctx)
	replaced := false
	for i := range products {
		if products[i].ID == p.ID {
			products[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		products = append([]model.Product{p}, products...)
	}
	s.persistLocked(ctx, "update", products)
	return p
}

// Delete removes the record with id. Deleting an absent id is not an error.
func (s *ProductStore) Delete(ctx context.Context, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := s.loadLocked(ctx)
	kept := products[:0]
	for _, p := range products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.persistLocked(ctx, "delete", kept)
}

// nextIDLocked returns a timestamp-derived id greater than every known id.
func (s *ProductStore) nextIDLocked(products []model.Product) int64 {
	highest := s.maxRemoteID
	for _, p := range products {
		if p.ID > highest {
			highest = p.ID
		}
	}
	id := s.now().UnixMilli()
	if id <= highest {
		id = highest + 1
	}
	return id
}

func (s *ProductStore) loadLocked(ctx context.Context) []model.Product {
	raw, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn("local products unreadable, treating as empty",
			zap.String("key", s.key), zap.Error(err))
		return []model.Product{}
	}
	if !found || raw == "" {
		return []model.Product{}
	}

	products, err := codec.Decode[[]model.Product](s.codec, raw)
	if err != nil {
		corrupt := &shoperrors.StorageCorruptionError{Key: s.key, Err: err}
		s.logger.Warn("local products corrupt, treating as empty", zap.Error(corrupt))
		return []model.Product{}
	}

	seen := make(map[int64]struct{}, len(products))
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	sortByIDDesc(out)
	return out
}

func (s *ProductStore) saveLocked(ctx context.Context, products []model.Product) error {
	sorted := make([]model.Product, len(products))
	copy(sorted, products)
	sortByIDDesc(sorted)

	value, err := codec.Encode(s.codec, sorted)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.key, value)
}

func (s *ProductStore) persistLocked(ctx context.Context, op string, products []model.Product) {
	if err := s.saveLocked(ctx, products); err != nil {
		s.logger.Error("failed to persist local products",
			zap.String("op", op), zap.String("key", s.key), zap.Error(err))
		return
	}
	s.metrics.IncLocalMutation(op)
	s.logger.Debug("local products persisted", zap.String("op", op), zap.Int("count", len(products)))
}

func sortByIDDesc(products []model.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].ID > products[j].ID
	})
}
