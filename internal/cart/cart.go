// Package cart keeps one shopping cart per owner in the durable store.
package cart

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/shopfront/internal/kv"
	"github.com/yourusername/shopfront/internal/model"
	"github.com/yourusername/shopfront/pkg/codec"
	shoperrors "github.com/yourusername/shopfront/pkg/errors"
)

// DefaultPrefix is prepended to the owner to form the store key.
const DefaultPrefix = "shopfront.cart."

// Item is one cart line as stored. Price data is copied from the product when added.
type Item struct {
	ProductID          int64   `json:"productId"`
	Title              string  `json:"title"`
	Thumbnail          string  `json:"thumbnail,omitempty"`
	Price              float64 `json:"price"`
	DiscountPercentage float64 `json:"discountPercentage,omitempty"`
	Stock              int     `json:"stock"`
	Quantity           int     `json:"quantity"`
}

// UnitPrice is the discounted price of one unit.
func (it Item) UnitPrice() float64 {
	return model.Product{Price: it.Price, DiscountPercentage: it.DiscountPercentage}.DiscountedPrice()
}

// Line is an item with its computed total.
type Line struct {
	Item
	UnitPrice float64 `json:"unitPrice"`
	LineTotal float64 `json:"lineTotal"`
}

// Summary is a cart with its totals.
type Summary struct {
	Owner     string  `json:"owner"`
	Items     []Line  `json:"items"`
	ItemCount int     `json:"itemCount"`
	Subtotal  float64 `json:"subtotal"`
	Discount  float64 `json:"discount"`
	Total     float64 `json:"total"`
}

// Store reads and writes carts.
type Store struct {
	kv     kv.Store
	prefix string
	codec  codec.Codec
	logger *zap.Logger

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used when a stored cart cannot be decoded. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a cart store whose keys start with prefix.
func New(store kv.Store, prefix string, opts ...Option) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	s := &Store{
		kv:     store,
		prefix: prefix,
		codec:  codec.DefaultCodec(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cart of owner. A missing or corrupt cart is empty.
func (s *Store) Get(ctx context.Context, owner string) (Summary, error) {
	if err := checkOwner(owner); err != nil {
		return Summary{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx, owner)
	if err != nil {
		return Summary{}, err
	}
	return summarize(owner, items), nil
}

// Add puts qty units of p into the cart, on top of any already there.
// When p has stock the quantity is capped at it.
func (s *Store) Add(ctx context.Context, owner string, p model.Product, qty int) (Summary, error) {
	if qty <= 0 {
		return Summary{}, shoperrors.NewValidationError("quantity", "must be at least 1")
	}
	return s.modify(ctx, owner, func(items []Item) ([]Item, error) {
		for i := range items {
			if items[i].ProductID == p.ID {
				items[i].Quantity = capQuantity(items[i].Quantity+qty, p.Stock)
				items[i].Stock = p.Stock
				return items, nil
			}
		}
		return append(items, Item{
			ProductID:          p.ID,
			Title:              p.Title,
			Thumbnail:          p.Thumbnail,
			Price:              p.Price,
			DiscountPercentage: p.DiscountPercentage,
			Stock:              p.Stock,
			Quantity:           capQuantity(qty, p.Stock),
		}), nil
	})
}

// SetQuantity sets the quantity of a line. Zero removes it.
func (s *Store) SetQuantity(ctx context.Context, owner string, productID int64, qty int) (Summary, error) {
	if qty < 0 {
		return Summary{}, shoperrors.NewValidationError("quantity", "must be at least 0")
	}
	return s.modify(ctx, owner, func(items []Item) ([]Item, error) {
		for i := range items {
			if items[i].ProductID != productID {
				continue
			}
			if qty == 0 {
				return append(items[:i], items[i+1:]...), nil
			}
			items[i].Quantity = capQuantity(qty, items[i].Stock)
			return items, nil
		}
		return nil, shoperrors.NewNotFoundError("cart item", productID)
	})
}

// Remove drops a line. Removing an absent line is not an error.
func (s *Store) Remove(ctx context.Context, owner string, productID int64) (Summary, error) {
	return s.modify(ctx, owner, func(items []Item) ([]Item, error) {
		kept := items[:0]
		for _, it := range items {
			if it.ProductID != productID {
				kept = append(kept, it)
			}
		}
		return kept, nil
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context, owner string) error {
	if err := checkOwner(owner); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Remove(ctx, s.prefix+owner)
}

func (s *Store) modify(ctx context.Context, owner string, fn func([]Item) ([]Item, error)) (Summary, error) {
	if err := checkOwner(owner); err != nil {
		return Summary{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx, owner)
	if err != nil {
		return Summary{}, err
	}
	items, err = fn(items)
	if err != nil {
		return Summary{}, err
	}

	value, err := codec.Encode(s.codec, items)
	if err != nil {
		return Summary{}, err
	}
	if err := s.kv.Set(ctx, s.prefix+owner, value); err != nil {
		return Summary{}, err
	}
	return summarize(owner, items), nil
}

func (s *Store) load(ctx context.Context, owner string) ([]Item, error) {
	key := s.prefix + owner
	raw, found, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found || raw == "" {
		return []Item{}, nil
	}

	items, err := codec.Decode[[]Item](s.codec, raw)
	if err != nil {
		s.logger.Warn("cart corrupt, treating as empty",
			zap.Error(&shoperrors.StorageCorruptionError{Key: key, Err: err}))
		return []Item{}, nil
	}
	return items, nil
}

func summarize(owner string, items []Item) Summary {
	sum := Summary{Owner: owner, Items: make([]Line, 0, len(items))}
	var subtotal, total float64
	for _, it := range items {
		unit := it.UnitPrice()
		line := Line{Item: it, UnitPrice: unit, LineTotal: model.RoundCents(unit * float64(it.Quantity))}
		sum.Items = append(sum.Items, line)
		sum.ItemCount += it.Quantity
		subtotal += it.Price * float64(it.Quantity)
		total += line.LineTotal
	}
	sum.Subtotal = model.RoundCents(subtotal)
	sum.Total = model.RoundCents(total)
	sum.Discount = model.RoundCents(sum.Subtotal - sum.Total)
	return sum
}

func capQuantity(qty, stock int) int {
	if stock > 0 && qty > stock {
		return stock
	}
	return qty
}

func checkOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return shoperrors.NewValidationError("owner", "is required")
	}
	return nil
}
