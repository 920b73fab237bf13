package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/shopfront/internal/kv"
	"github.com/yourusername/shopfront/internal/model"
	"github.com/yourusername/shopfront/internal/storage"
	shoperrors "github.com/yourusername/shopfront/pkg/errors"
)

type fakeCatalog struct {
	mu         sync.Mutex
	calls      []model.Query
	query      func(ctx context.Context, q model.Query) (model.ProductPage, error)
	categories []string
	catErr     error
}

func (f *fakeCatalog) Query(ctx context.Context, q model.Query) (model.ProductPage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	f.mu.Unlock()
	return f.query(ctx, q)
}

func (f *fakeCatalog) Categories(context.Context) ([]string, error) {
	return f.categories, f.catErr
}

func (f *fakeCatalog) queries() []model.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Query(nil), f.calls...)
}

// staticPage answers every query with the same page.
func staticPage(total int, products ...model.Product) func(context.Context, model.Query) (model.ProductPage, error) {
	return func(context.Context, model.Query) (model.ProductPage, error) {
		return model.ProductPage{Products: products, Total: total, Limit: len(products)}, nil
	}
}

// numbered serves products 1..n in catalog order, paged by the query.
func numbered(n int) func(context.Context, model.Query) (model.ProductPage, error) {
	return func(_ context.Context, q model.Query) (model.ProductPage, error) {
		skip := (q.Page - 1) * q.ItemsPerPage
		products := []model.Product{}
		for id := skip + 1; id <= n && id <= skip+q.ItemsPerPage; id++ {
			products = append(products, model.Product{ID: int64(id), Title: "remote", Category: "misc"})
		}
		return model.ProductPage{Products: products, Total: n, Skip: skip, Limit: q.ItemsPerPage}, nil
	}
}

func failing(err error) func(context.Context, model.Query) (model.ProductPage, error) {
	return func(context.Context, model.Query) (model.ProductPage, error) {
		return model.ProductPage{}, err
	}
}

func newEngine(t *testing.T, cat *fakeCatalog, locals ...model.Product) (*Engine, *storage.ProductStore) {
	t.Helper()
	store := storage.NewProductStore(kv.NewMemory(), storage.DefaultKey)
	require.NoError(t, store.SaveAll(context.Background(), locals))
	return NewEngine(cat, store, WithPageSize(10, 50)), store
}

func ids(products []model.Product) []int64 {
	out := make([]int64, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestRemoteOnly(t *testing.T) {
	cat := &fakeCatalog{query: staticPage(1, model.Product{ID: 1, Title: "Mascara", Category: "beauty"})}
	e, _ := newEngine(t, cat)

	res := e.Query(context.Background(), model.Query{Page: 1, ItemsPerPage: 10})
	assert.Equal(t, []int64{1}, ids(res.Products))
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.TotalPages)
	assert.Equal(t, 1, res.CurrentPage)
	assert.Empty(t, res.Error)
	assert.False(t, res.Degraded())
}

func TestLocalOverridesRemote(t *testing.T) {
	cat := &fakeCatalog{query: staticPage(1, model.Product{ID: 1, Title: "Y", Category: "misc"})}
	e, _ := newEngine(t, cat, model.Product{ID: 1, Title: "X", Category: "misc"})

	res := e.Query(context.Background(), model.Query{Page: 1, ItemsPerPage: 10})
	require.Len(t, res.Products, 1)
	assert.Equal(t, int64(1), res.Products[0].ID)
	assert.Equal(t, "X", res.Products[0].Title)
	assert.Equal(t, 1, res.Total, "an override on the remote page is not counted twice")
}

func TestLocalsFirstThenRemoteInCatalogOrder(t *testing.T) {
	cat := &fakeCatalog{query: staticPage(30,
		model.Product{ID: 7, Category: "misc"},
		model.Product{ID: 3, Category: "misc"},
		model.Product{ID: 9, Category: "misc"},
	)}
	e, _ := newEngine(t, cat,
		model.Product{ID: 1_700_000_000_001, Category: "misc"},
		model.Product{ID: 1_700_000_000_005, Category: "misc"},
	)

	res := e.Query(context.Background(), model.Query{Page: 1, ItemsPerPage: 10})
	assert.Equal(t, []int64{1_700_000_000_005, 1_700_000_000_001, 7, 3, 9}, ids(res.Products))
	assert.Equal(t, 32, res.Total)
	assert.Equal(t, 4, res.TotalPages)
}

func TestLocalsShiftRemoteWindow(t *testing.T) {
	cat := &fakeCatalog{query: numbered(25)}
	e, _ := newEngine(t, cat, model.Product{ID: 1000, Category: "misc"})

	res := e.Query(context.Background(), model.Query{Page: 1, ItemsPerPage: 10})
	assert.Equal(t, []int64{1000, 1, 2, 3, 4, 5, 6, 7, 8, 9}, ids(res.Products))

	res = e.Query(context.Background(), model.Query{Page: 2, ItemsPerPage: 10})
	assert.Equal(t, []int64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}, ids(res.Products))
	assert.Equal(t, 26, res.Total)
	assert.Equal(t, 2, res.CurrentPage)

	res = e.Query(context.Background(), model.Query{Page: 3, ItemsPerPage: 10})
	assert.Equal(t, []int64{20, 21, 22, 23, 24, 25}, ids(res.Products))
	assert.Equal(t, 3, res.TotalPages)
}

func TestEveryPageOfMergedSequence(t *testing.T) {
	tests := []struct {
		name         string
		locals       int
		remote       int
		itemsPerPage int
	}{
		{"more locals than a page", 5, 4, 2},
		{"locals fill page exactly", 4, 7, 2},
		{"single local", 1, 25, 10},
		{"locals only", 3, 0, 2},
		{"remote only", 0, 11, 3},
		{"many locals odd page", 7, 13, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var locals []model.Product
			want := map[int64]bool{}
			for i := 0; i < tt.locals; i++ {
				id := int64(1000 + i)
				locals = append(locals, model.Product{ID: id, Category: "misc"})
				want[id] = true
			}
			for id := 1; id <= tt.remote; id++ {
				want[int64(id)] = true
			}
			e, _ := newEngine(t, &fakeCatalog{query: numbered(tt.remote)}, locals...)

			first := e.Query(context.Background(), model.Query{Page: 1, ItemsPerPage: tt.itemsPerPage})
			assert.Equal(t, len(want), first.Total)

			seen := map[int64]bool{}
			for page := 1; page <= first.TotalPages; page++ {
				res := e.Query(context.Background(), model.Query{Page: page, ItemsPerPage: tt.itemsPerPage})
				assert.Equal(t, first.Total, res.Total, "page %d", page)
				assert.LessOrEqual(t, len(res.Products), tt.itemsPerPage, "page %d", page)
				assert.NotEmpty(t, res.Products, "page %d", page)
				for _, p := range res.Products {
					assert.False(t, seen[p.ID], "id %d listed twice", p.ID)
					seen[p.ID] = true
				}
			}
			assert.Equal(t, want, seen)
		})
	}
}

func TestWindowAcrossTwoRemotePages(t *testing.T) {
	cat := &fakeCatalog{query: numbered(4)}
	e, _ := newEngine(t, cat,
		model.Product{ID: 1004, Category: "misc"},
		model.Product{ID: 1003, Category: "misc"},
		model.Product{ID: 1002, Category: "misc"},
		model.Product{ID: 1001, Category: "misc"},
		model.Product{ID: 1000, Category: "misc"},
	)

	res := e.Query(context.Background(), model.Query{Page: 4, ItemsPerPage: 2})
	assert.Equal(t, []int64{2, 3}, ids(res.Products))

	calls := cat.queries()
	require.Len(t, calls, 2)
	assert.Equal(t, 1, calls[0].Page)
	assert.Equal(t, 2, calls[1].Page)
}

func TestOverriddenRemoteDroppedWhenLocalNoLongerMatches(t *testing.T) {
	cat := &fakeCatalog{query: staticPage(2,
		model.Product{ID: 4, Title: "Lipstick", Category: "beauty"},
		model.Product{ID: 5, Title: "Powder", Category: "beauty"},
	)}
	e, _ := newEngine(t, cat, model.Product{ID: 5, Title: "Powder", Category: "groceries"})

	res := e.Query(context.Background(), model.Query{Page: 1, ItemsPerPage: 10, Category: "beauty"})
	assert.Equal(t, []int64{4}, ids(res.Products))
}

func TestCategoryFilterAppliesToLocals(t *testing.T) {
	cat := &fakeCatalog{query: staticPage(0)}
	e, _ := newEngine(t, cat,
		model.Product{ID: 30, Title: "Serum", Category: "Beauty"},
		model.Product{ID: 20, Title: "Laptop", Category: "laptops"},
	)

	res := e.Query(context.Background(), model.Query{Page: 1, ItemsPerPage: 10, Category: "beauty"})
	assert.Equal(t, []int64{30}, ids(res.Products))
	assert.Equal(t, 1, res.Total)

	res = e.Query(context.Background(), model.Query{Page: 1, ItemsPerPage: 10, Category: "all"})
	assert.Equal(t, []int64{30, 20}, ids(res.Products))
	assert.Equal(t, "", cat.queries()[1].Category, "all is sent as no filter")
}

func TestSearchIsCaseInsensitiveSubstring(t *testing.T) {
	cat := &fakeCatalog{query: staticPage(0)}
	e, _ := newEngine(t, cat,
		model.Product{ID: 2, Title: "iPhone Pro", Category: "smartphones"},
		model.Product{ID: 1, Title: "Basic Case", Category: "accessories"},
	)

	res := e.Query(context.Background(), model.Query{Page: 1, ItemsPerPage: 10, SearchText: "pro"})
	assert.Equal(t, []int64{2}, ids(res.Products))
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, "pro", cat.queries()[0].SearchText)
}

func TestSearchMatchesBrandCategoryAndDescription(t *testing.T) {
	cat := &fakeCatalog{query: staticPage(0)}
	e, _ := newEngine(t, cat,
		model.Product{ID: 4, Title: "A", Brand: "Apple", Category: "x"},
		model.Product{ID: 3, Title: "B", Category: "applewood"},
		model.Product{ID: 2, Title: "C", Category: "x", Description: "Crisp APPLE slices"},
		model.Product{ID: 1, Title: "D", Category: "x"},
	)

	res := e.Query(context.Background(), model.Query{Page: 1, ItemsPerPage: 10, SearchText: "apple"})
	assert.Equal(t, []int64{4, 3, 2}, ids(res.Products))
}

func TestSearchFiltersRemoteToo(t *testing.T) {
	cat := &fakeCatalog{query: staticPage(2,
		model.Product{ID: 1, Title: "Phone Pro", Category: "smartphones"},
		model.Product{ID: 2, Title: "Charger", Category: "accessories"},
	)}
	e, _ := newEngine(t, cat)

	res := e.Query(context.Background(), model.Query{Page: 1, ItemsPerPage: 10, SearchText: "PRO"})
	assert.Equal(t, []int64{1}, ids(res.Products))
}

func TestRemoteTimeoutDegradesToLocals(t *testing.T) {
	timeout := shoperrors.NewRemoteFetchError("list", 0, context.DeadlineExceeded)
	cat := &fakeCatalog{query: failing(timeout)}
	e, _ := newEngine(t, cat,
		model.Product{ID: 3, Title: "Desk", Category: "furniture"},
		model.Product{ID: 2, Title: "Chair", Category: "furniture"},
		model.Product{ID: 1, Title: "Lamp", Category: "lighting"},
	)

	res := e.Query(context.Background(), model.Query{Page: 1, ItemsPerPage: 10, Category: "furniture"})
	assert.Equal(t, DegradedMessage, res.Error)
	assert.True(t, res.Degraded())
	assert.True(t, shoperrors.IsRemoteFetch(res.Err))
	assert.True(t, errors.Is(res.Err, context.DeadlineExceeded))
	assert.Equal(t, []int64{3, 2}, ids(res.Products))
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.TotalPages)
}

func TestDegradedResultIsPaged(t *testing.T) {
	cat := &fakeCatalog{query: failing(shoperrors.NewRemoteFetchError("list", 503, nil))}
	var locals []model.Product
	for id := int64(1); id <= 5; id++ {
		locals = append(locals, model.Product{ID: id, Category: "x"})
	}
	e, _ := newEngine(t, cat, locals...)

	res := e.Query(context.Background(), model.Query{Page: 3, ItemsPerPage: 2})
	assert.Equal(t, []int64{1}, ids(res.Products))
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 3, res.TotalPages)

	res = e.Query(context.Background(), model.Query{Page: 7, ItemsPerPage: 2})
	assert.NotNil(t, res.Products)
	assert.Empty(t, res.Products)
	assert.Equal(t, 3, res.CurrentPage)
}

func TestMergedIDsAreUnique(t *testing.T) {
	remote := []model.Product{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}
	localSets := [][]model.Product{
		nil,
		{{ID: 2}},
		{{ID: 1}, {ID: 4}},
		{{ID: 9}, {ID: 3}, {ID: 2}, {ID: 1}},
	}
	for _, locals := range localSets {
		cat := &fakeCatalog{query: staticPage(4, remote...)}
		e, _ := newEngine(t, cat, locals...)

		res := e.Query(context.Background(), model.Query{Page: 1, ItemsPerPage: 10})
		seen := map[int64]bool{}
		for _, p := range res.Products {
			assert.False(t, seen[p.ID], "duplicate id %d with locals %v", p.ID, ids(locals))
			seen[p.ID] = true
		}
	}
}

func TestQueryLeavesRemotePageUntouched(t *testing.T) {
	shared := []model.Product{{ID: 1, Category: "a"}, {ID: 2, Category: "b"}}
	cat := &fakeCatalog{query: staticPage(2, shared...)}
	e, _ := newEngine(t, cat, model.Product{ID: 2, Category: "b"})

	_ = e.Query(context.Background(), model.Query{Page: 1, ItemsPerPage: 10, Category: "a"})
	assert.Equal(t, []int64{1, 2}, ids(shared))
}

func TestQueryRecordsRemoteIDs(t *testing.T) {
	cat := &fakeCatalog{query: staticPage(1, model.Product{ID: 500, Category: "x"})}
	store := storage.NewProductStore(kv.NewMemory(), storage.DefaultKey,
		storage.WithClock(func() time.Time { return time.UnixMilli(100) }))
	e := NewEngine(cat, store)

	_ = e.Query(context.Background(), model.Query{Page: 1})
	p := store.Create(context.Background(), model.ProductInput{Title: "new", Category: "x"})
	assert.Equal(t, int64(501), p.ID)
}

func TestNormalize(t *testing.T) {
	e := NewEngine(&fakeCatalog{}, storage.NewProductStore(kv.NewMemory(), ""), WithPageSize(12, 50))

	q := e.Normalize(model.Query{Page: -2, Category: " All ", SearchText: "  case "})
	assert.Equal(t, model.Query{Page: 1, ItemsPerPage: 12, SearchText: "case"}, q)

	q = e.Normalize(model.Query{Page: 4, ItemsPerPage: 500, Category: "Beauty"})
	assert.Equal(t, model.Query{Page: 4, ItemsPerPage: 50, Category: "beauty"}, q)
}

func TestCategories(t *testing.T) {
	cat := &fakeCatalog{categories: []string{"smartphones", "beauty"}}
	e, _ := newEngine(t, cat, model.Product{ID: 1, Category: "Furniture"})

	assert.Equal(t, []string{"all", "beauty", "furniture", "smartphones"}, e.Categories(context.Background()))

	cat.catErr = shoperrors.NewRemoteFetchError("categories", 0, nil)
	assert.Equal(t, []string{"all", "furniture"}, e.Categories(context.Background()))
}
