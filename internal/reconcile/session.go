package reconcile

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/shopfront/internal/model"
	"github.com/yourusername/shopfront/internal/pagination"
	shoperrors "github.com/yourusername/shopfront/pkg/errors"
)

// Session is one browsing session: the active query, its pagination state and
// the sequence number of the latest query started. Only the latest query may
// change the session; results of older queries are discarded with
// errors.ErrSuperseded. A Session is safe for concurrent use.
//
// Session 是一个浏览会话：当前查询、其分页状态以及最近启动查询的序号。只有最新的查询
// 可以修改会话；较旧查询的结果以errors.ErrSuperseded丢弃。Session 可安全地并发使用。
type Session struct {
	engine *Engine

	mu     sync.Mutex
	seq    uint64
	state  *pagination.State
	active model.Query
	last   Result
}

// NewSession starts a session on page 1 with the given page size (0 = engine default).
//
// NewSession 以给定页大小（0 = 引擎默认值）在第1页开始一个会话。
func (e *Engine) NewSession(itemsPerPage int) *Session {
	q := e.Normalize(model.Query{ItemsPerPage: itemsPerPage})
	return &Session{
		engine: e,
		state:  pagination.New(1, q.ItemsPerPage),
		active: q,
	}
}

// Query runs q and, unless a newer query was started meanwhile, applies its
// total to the pagination state. A page past the end is clamped and fetched
// again so the products match the reported page.
//
// Query 执行q，若期间没有启动更新的查询，则将其总数应用到分页状态。超出末尾的页码会被
// 截断并重新获取，使商品与报告的页码一致。
func (s *Session) Query(ctx context.Context, q model.Query) (Result, error) {
	res, err := s.run(ctx, q)
	if err != nil {
		return res, err
	}
	if res.CurrentPage < s.engine.Normalize(q).Page {
		q.Page = res.CurrentPage
		return s.run(ctx, q)
	}
	return res, nil
}

func (s *Session) run(ctx context.Context, q model.Query) (Result, error) {
	q = s.engine.Normalize(q)

	s.mu.Lock()
	s.seq++
	seq := s.seq
	if q.ItemsPerPage != s.state.ItemsPerPage() {
		s.state = pagination.New(1, q.ItemsPerPage)
	}
	s.mu.Unlock()

	res := s.engine.Query(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		s.engine.metrics.IncSuperseded()
		s.engine.logger.Debug("discarding superseded query result",
			zap.Uint64("seq", seq), zap.Uint64("latest", s.seq))
		return Result{}, fmt.Errorf("query %d: %w", seq, shoperrors.ErrSuperseded)
	}

	s.state.UpdateFromResponse(res.Total)
	s.state.GoToPage(q.Page)
	res.CurrentPage = s.state.CurrentPage()
	res.TotalPages = s.state.TotalPages()

	s.active = q
	s.active.Page = res.CurrentPage
	s.last = res
	return res, nil
}

// GoToPage queries page n of the active query. The session moves only when
// the result arrives.
//
// GoToPage 查询当前查询的第n页。会话仅在结果到达时才移动。
func (s *Session) GoToPage(ctx context.Context, n int) (Result, error) {
	return s.navigate(ctx, func(st *pagination.State) { st.GoToPage(n) })
}

// Next queries the page after the current one.
//
// Next 查询当前页的下一页。
func (s *Session) Next(ctx context.Context) (Result, error) {
	return s.navigate(ctx, (*pagination.State).GoToNext)
}

// Previous queries the page before the current one.
//
// Previous 查询当前页的上一页。
func (s *Session) Previous(ctx context.Context) (Result, error) {
	return s.navigate(ctx, (*pagination.State).GoToPrevious)
}

// First queries page 1.
//
// First 查询第1页。
func (s *Session) First(ctx context.Context) (Result, error) {
	return s.navigate(ctx, (*pagination.State).GoToFirst)
}

// Last queries the last page known from the latest total.
//
// Last 查询根据最新总数得知的最后一页。
func (s *Session) Last(ctx context.Context) (Result, error) {
	return s.navigate(ctx, (*pagination.State).GoToLast)
}

func (s *Session) navigate(ctx context.Context, move func(*pagination.State)) (Result, error) {
	s.mu.Lock()
	target := *s.state
	move(&target)
	q := s.active
	q.Page = target.CurrentPage()
	s.mu.Unlock()

	return s.Query(ctx, q)
}

// Pagination returns the current pagination state.
//
// Pagination 返回当前分页状态。
func (s *Session) Pagination() pagination.Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot()
}

// Active returns the query whose result was applied last.
//
// Active 返回最后一次应用结果的查询。
func (s *Session) Active() model.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// LastResult returns the last applied result.
//
// LastResult 返回最后一次应用的结果。
func (s *Session) LastResult() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
