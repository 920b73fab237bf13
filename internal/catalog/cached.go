package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/yourusername/shopfront/internal/model"
	"github.com/yourusername/shopfront/pkg/cache"
	"github.com/yourusername/shopfront/pkg/loader"
)

// Source is the read side of the catalog.
//
// Source 是目录的读取端。
type Source interface {
	Query(ctx context.Context, q model.Query) (model.ProductPage, error)
	Categories(ctx context.Context) ([]string, error)
	GetProduct(ctx context.Context, id int64) (model.Product, error)
}

// Cached serves catalog reads from a TTL cache. Failures are never cached,
// so a recovered catalog is picked up on the next call.
//
// Cached 从TTL缓存提供目录读取。失败从不缓存，因此恢复后的目录在下一次调用时即被使用。
type Cached struct {
	pages      *loader.ReadThrough[model.ProductPage]
	categories *loader.ReadThrough[[]string]
	products   *loader.ReadThrough[model.Product]
}

// NewCached wraps src. Pages and products use the cache default TTL,
// categories use categoriesTTL (0 = default).
//
// NewCached 包装src。分页和商品使用缓存默认TTL，分类使用categoriesTTL（0 = 默认值）。
func NewCached(src Source, c cache.ICache, categoriesTTL time.Duration) *Cached {
	pages := loader.LoaderFunc[model.ProductPage](func(ctx context.Context, key string) (model.ProductPage, time.Duration, error) {
		var q model.Query
		if err := json.Unmarshal([]byte(key), &q); err != nil {
			return model.ProductPage{}, 0, fmt.Errorf("catalog: bad page key %q: %w", key, err)
		}
		page, err := src.Query(ctx, q)
		return page, 0, err
	})

	categories := loader.LoaderFunc[[]string](func(ctx context.Context, _ string) ([]string, time.Duration, error) {
		cats, err := src.Categories(ctx)
		return cats, categoriesTTL, err
	})

	products := loader.NewFunctionLoader(func(ctx context.Context, key string) (model.Product, error) {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return model.Product{}, fmt.Errorf("catalog: bad product key %q: %w", key, err)
		}
		return src.GetProduct(ctx, id)
	})

	return &Cached{
		pages:      loader.NewReadThrough[model.ProductPage](pages, c, "catalog:page:"),
		categories: loader.NewReadThrough[[]string](categories, c, "catalog:categories:"),
		products:   loader.NewReadThrough[model.Product](products, c, "catalog:product:"),
	}
}

// Query returns the cached page for q, fetching it from the source on a miss.
//
// Query 返回q的缓存页，未命中时从源获取。
func (c *Cached) Query(ctx context.Context, q model.Query) (model.ProductPage, error) {
	key, err := json.Marshal(q)
	if err != nil {
		return model.ProductPage{}, err
	}
	page, _, err := c.pages.Load(ctx, string(key))
	return page, err
}

// Categories returns the cached category list.
//
// Categories 返回缓存的分类列表。
func (c *Cached) Categories(ctx context.Context) ([]string, error) {
	cats, _, err := c.categories.Load(ctx, "all")
	return cats, err
}

// GetProduct returns the cached remote product.
//
// GetProduct 返回缓存的远程商品。
func (c *Cached) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	p, _, err := c.products.Load(ctx, strconv.FormatInt(id, 10))
	return p, err
}

// Invalidate drops every cached page, category list and product.
//
// Invalidate 丢弃所有缓存的分页、分类列表和商品。
func (c *Cached) Invalidate(ctx context.Context) error {
	for _, rt := range []interface{ Invalidate(context.Context) error }{c.pages, c.categories, c.products} {
		if err := rt.Invalidate(ctx); err != nil {
			return err
		}
	}
	return nil
}
