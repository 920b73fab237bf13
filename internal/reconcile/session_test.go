package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/shopfront/internal/model"
	shoperrors "github.com/yourusername/shopfront/pkg/errors"
)

func TestSessionAppliesTotal(t *testing.T) {
	e, _ := newEngine(t, &fakeCatalog{query: numbered(25)})
	s := e.NewSession(10)

	assert.Equal(t, 1, s.Pagination().TotalPages)

	res, err := s.Query(context.Background(), model.Query{Page: 1, ItemsPerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalPages)
	info := s.Pagination()
	assert.Equal(t, 25, info.TotalItems)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, 1, info.CurrentPage)
}

func TestSessionNavigation(t *testing.T) {
	e, _ := newEngine(t, &fakeCatalog{query: numbered(25)})
	s := e.NewSession(10)
	ctx := context.Background()

	_, err := s.Query(ctx, model.Query{Page: 1, ItemsPerPage: 10, Category: "all"})
	require.NoError(t, err)

	res, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.CurrentPage)
	assert.Equal(t, int64(11), res.Products[0].ID)

	res, err = s.Last(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.CurrentPage)
	assert.Equal(t, []int64{21, 22, 23, 24, 25}, ids(res.Products))

	res, err = s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.CurrentPage, "next on the last page stays put")

	res, err = s.Previous(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.CurrentPage)

	res, err = s.First(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.CurrentPage)

	res, err = s.GoToPage(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, 3, res.CurrentPage)
}

func TestSessionClampsAndRefetches(t *testing.T) {
	cat := &fakeCatalog{query: numbered(25)}
	e, _ := newEngine(t, cat)
	s := e.NewSession(10)

	res, err := s.Query(context.Background(), model.Query{Page: 9, ItemsPerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, res.CurrentPage)
	assert.Equal(t, []int64{21, 22, 23, 24, 25}, ids(res.Products))

	calls := cat.queries()
	require.Len(t, calls, 2)
	assert.Equal(t, 9, calls[0].Page)
	assert.Equal(t, 3, calls[1].Page)
}

func TestSessionNarrowingFilterPullsPageDown(t *testing.T) {
	cat := &fakeCatalog{}
	cat.query = func(ctx context.Context, q model.Query) (model.ProductPage, error) {
		if q.HasSearch() {
			return numbered(5)(ctx, q)
		}
		return numbered(25)(ctx, q)
	}
	e, _ := newEngine(t, cat)
	s := e.NewSession(10)
	ctx := context.Background()

	_, err := s.Query(ctx, model.Query{Page: 1, ItemsPerPage: 10})
	require.NoError(t, err)
	_, err = s.Last(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Pagination().CurrentPage)

	res, err := s.Query(ctx, model.Query{Page: s.Pagination().CurrentPage, ItemsPerPage: 10, SearchText: "remote"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.CurrentPage)
	assert.Equal(t, 1, s.Pagination().CurrentPage)
	assert.Len(t, res.Products, 5)
}

func TestSessionDiscardsSupersededResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	cat := &fakeCatalog{}
	cat.query = func(ctx context.Context, q model.Query) (model.ProductPage, error) {
		if q.Page == 1 {
			close(started)
			<-release
		}
		return numbered(25)(ctx, q)
	}
	e, _ := newEngine(t, cat)
	s := e.NewSession(10)
	ctx := context.Background()

	type outcome struct {
		res Result
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		res, err := s.Query(ctx, model.Query{Page: 1, ItemsPerPage: 10})
		first <- outcome{res, err}
	}()
	<-started

	res, err := s.Query(ctx, model.Query{Page: 2, ItemsPerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, res.CurrentPage)

	close(release)
	stale := <-first
	assert.True(t, shoperrors.IsSuperseded(stale.err))
	assert.Empty(t, stale.res.Products)

	assert.Equal(t, 2, s.Pagination().CurrentPage)
	assert.Equal(t, 2, s.Active().Page)
	assert.Equal(t, 2, s.LastResult().CurrentPage)
}

func TestSessionNavigationAppliesOnlyOnArrival(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	cat := &fakeCatalog{}
	cat.query = func(ctx context.Context, q model.Query) (model.ProductPage, error) {
		if q.Page == 2 {
			close(started)
			<-release
		}
		return numbered(25)(ctx, q)
	}
	e, _ := newEngine(t, cat)
	s := e.NewSession(10)
	ctx := context.Background()

	_, err := s.Query(ctx, model.Query{Page: 1, ItemsPerPage: 10})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.Next(ctx)
		done <- err
	}()
	<-started
	assert.Equal(t, 1, s.Pagination().CurrentPage, "page moves only when the result is applied")

	res, err := s.Last(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.CurrentPage)

	close(release)
	assert.True(t, shoperrors.IsSuperseded(<-done))
	assert.Equal(t, 3, s.Pagination().CurrentPage)
	assert.Equal(t, 3, s.Active().Page)
}

func TestSessionPageSizeChangeResetsState(t *testing.T) {
	e, _ := newEngine(t, &fakeCatalog{query: numbered(25)})
	s := e.NewSession(10)
	ctx := context.Background()

	_, err := s.Query(ctx, model.Query{Page: 3, ItemsPerPage: 10})
	require.NoError(t, err)

	res, err := s.Query(ctx, model.Query{Page: 2, ItemsPerPage: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, res.CurrentPage)
	assert.Equal(t, 5, res.TotalPages)
	assert.Equal(t, 5, s.Pagination().ItemsPerPage)
}

func TestSessionDegradedResult(t *testing.T) {
	cat := &fakeCatalog{query: failing(shoperrors.NewRemoteFetchError("list", 0, context.DeadlineExceeded))}
	e, _ := newEngine(t, cat, model.Product{ID: 1, Title: "Local", Category: "x"})
	s := e.NewSession(0)

	res, err := s.Query(context.Background(), model.Query{Page: 4})
	require.NoError(t, err, "a catalog failure is a soft error")
	assert.Equal(t, DegradedMessage, res.Error)
	assert.Equal(t, []int64{1}, ids(res.Products))
	assert.Equal(t, 1, s.Pagination().TotalItems)
	assert.Equal(t, 10, s.Pagination().ItemsPerPage)
}
