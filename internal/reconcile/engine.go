// Package reconcile merges local product records with pages of the remote
// catalog. Local records override remote ones with the same id, and a remote
// failure degrades the result to local records instead of failing the query.
//
// Package reconcile 将本地商品记录与远程目录的分页合并。本地记录覆盖具有相同id的
// 远程记录，远程失败时结果降级为仅本地记录，而不是使查询失败。
package reconcile

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/shopfront/internal/category"
	"github.com/yourusername/shopfront/internal/metrics"
	"github.com/yourusername/shopfront/internal/model"
	"github.com/yourusername/shopfront/internal/pagination"
)

// DegradedMessage is the soft error attached to results served without the catalog.
//
// DegradedMessage 是在没有目录的情况下返回结果时附加的软错误。
const DegradedMessage = "could not reach catalog, showing local items only"

const (
	defaultItemsPerPage = 12
	defaultMaxPerPage   = 100
)

// Catalog is the remote side of a query.
//
// Catalog 是查询的远程一方。
type Catalog interface {
	Query(ctx context.Context, q model.Query) (model.ProductPage, error)
	Categories(ctx context.Context) ([]string, error)
}

// LocalStore is the local side of a query.
//
// LocalStore 是查询的本地一方。
type LocalStore interface {
	LoadAll(ctx context.Context) []model.Product
	ObserveRemote(products []model.Product)
}

// Result is one reconciled page.
//
// Result 是一个已合并的页面。
type Result struct {
	Products     []model.Product `json:"products"`
	Total        int             `json:"total"`
	TotalPages   int             `json:"totalPages"`
	CurrentPage  int             `json:"currentPage"`
	ItemsPerPage int             `json:"itemsPerPage"`
	// Error is set when the catalog failed and only local records are shown.
	Error string `json:"error,omitempty"`
	// Err is the underlying catalog failure behind Error.
	Err error `json:"-"`
}

// Degraded reports whether the result was served without the catalog.
//
// Degraded 报告结果是否在没有目录的情况下返回。
func (r Result) Degraded() bool {
	return r.Err != nil
}

// Engine answers queries. It holds no per-caller state; see Session for the
// pagination state and stale response guard of one browsing session.
//
// Engine 负责回答查询。它不保存调用者状态；单个浏览会话的分页状态和过期响应保护见Session。
type Engine struct {
	catalog Catalog
	local   LocalStore
	logger  *zap.Logger
	metrics *metrics.Metrics

	defaultPerPage int
	maxPerPage     int
}

// Option configures an Engine.
//
// Option 配置Engine。
type Option func(*Engine)

// WithLogger sets the logger for degraded queries. A nil logger is ignored.
//
// WithLogger 设置降级查询的日志记录器。nil将被忽略。
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records remote fetches and degraded results in m.
//
// WithMetrics 在m中记录远程获取和降级结果。
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithPageSize sets the page size used when a query has none, and the largest accepted one.
//
// WithPageSize 设置查询未指定时使用的页大小，以及可接受的最大页大小。
func WithPageSize(def, max int) Option {
	return func(e *Engine) {
		if def > 0 {
			e.defaultPerPage = def
		}
		if max > 0 {
			e.maxPerPage = max
		}
	}
}

// NewEngine creates an engine over the given catalog and local store.
//
// NewEngine 在给定的目录和本地存储上创建引擎。
func NewEngine(catalog Catalog, local LocalStore, opts ...Option) *Engine {
	e := &Engine{
		catalog:        catalog,
		local:          local,
		logger:         zap.NewNop(),
		defaultPerPage: defaultItemsPerPage,
		maxPerPage:     defaultMaxPerPage,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.defaultPerPage > e.maxPerPage {
		e.defaultPerPage = e.maxPerPage
	}
	return e
}

// Normalize fills in the page and page size defaults of q and trims its filters.
//
// Normalize 填充q的页码和页大小默认值，并修剪其过滤条件。
func (e *Engine) Normalize(q model.Query) model.Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.ItemsPerPage < 1 {
		q.ItemsPerPage = e.defaultPerPage
	}
	if q.ItemsPerPage > e.maxPerPage {
		q.ItemsPerPage = e.maxPerPage
	}
	q.SearchText = strings.TrimSpace(q.SearchText)
	q.Category = strings.ToLower(strings.TrimSpace(q.Category))
	if q.Category == model.AllCategories {
		q.Category = ""
	}
	return q
}

// Query answers one page of the merged sequence for q: the matching local
// records (newest first) followed by the remote records in catalog order.
// Page p lists locals[(p-1)n : pn] and fills the remaining slots from the
// remote sequence at offset max(0, (p-1)n - len(locals)), so a page never
// holds more than n records. A remote record is dropped when any local record
// has its id. The total is the remote total plus the local matches whose id
// was not among the fetched remote records.
//
// Query 返回q的合并序列中的一页：匹配的本地记录（最新优先）后接按目录顺序的远程记录。
// 第p页列出locals[(p-1)n : pn]，并从远程序列偏移max(0, (p-1)n - len(locals))处填充剩余位置，
// 因此一页最多包含n条记录。当任何本地记录具有相同id时，远程记录被丢弃。
// 总数为远程总数加上id不在已获取远程记录中的本地匹配数。
func (e *Engine) Query(ctx context.Context, q model.Query) Result {
	q = e.Normalize(q)
	n := q.ItemsPerPage

	locals := e.local.LoadAll(ctx)
	localMatches := filter(locals, q)

	start := (q.Page - 1) * n
	var pageLocals []model.Product
	if start < len(localMatches) {
		pageLocals = localMatches[start:min(start+n, len(localMatches))]
	}
	offset := max(0, start-len(localMatches))

	window, fetched, remoteTotal, remoteErr := e.remoteWindow(ctx, q, offset, n-len(pageLocals))
	if remoteErr != nil {
		e.metrics.IncDegraded()
		e.logger.Warn("catalog query failed, serving local records",
			zap.Int("page", q.Page),
			zap.String("category", q.Category),
			zap.String("search", q.SearchText),
			zap.Error(remoteErr))
		return e.degraded(q, localMatches, remoteErr)
	}

	localIDs := make(map[int64]struct{}, len(locals))
	for _, p := range locals {
		localIDs[p.ID] = struct{}{}
	}

	products := make([]model.Product, 0, n)
	products = append(products, pageLocals...)
	for _, p := range filter(window, q) {
		if _, overridden := localIDs[p.ID]; overridden {
			continue
		}
		products = append(products, p)
	}

	additional := 0
	for _, p := range localMatches {
		if _, seen := fetched[p.ID]; !seen {
			additional++
		}
	}

	return finish(q, products, remoteTotal+additional)
}

// remoteWindow returns count records of the remote sequence starting at
// offset. It fetches the catalog page holding offset and, when the window
// crosses into the next page, that page too. A fetch is made even when count
// is zero so the remote total is known. fetched holds the ids of every remote
// record received.
func (e *Engine) remoteWindow(ctx context.Context, q model.Query, offset, count int) (window []model.Product, fetched map[int64]struct{}, total int, err error) {
	n := q.ItemsPerPage
	rq := q
	rq.Page = offset/n + 1

	page, err := e.catalog.Query(ctx, rq)
	if err != nil {
		return nil, nil, 0, err
	}
	e.local.ObserveRemote(page.Products)
	records := page.Products

	skip := offset % n
	if skip+count > n && rq.Page*n < page.Total {
		rq.Page++
		next, err := e.catalog.Query(ctx, rq)
		if err != nil {
			return nil, nil, 0, err
		}
		e.local.ObserveRemote(next.Products)
		records = append(records[:len(records):len(records)], next.Products...)
	}

	fetched = make(map[int64]struct{}, len(records))
	for _, p := range records {
		fetched[p.ID] = struct{}{}
	}
	if skip >= len(records) {
		return []model.Product{}, fetched, page.Total, nil
	}
	return records[skip:min(skip+count, len(records))], fetched, page.Total, nil
}

func (e *Engine) degraded(q model.Query, localMatches []model.Product, err error) Result {
	start := (q.Page - 1) * q.ItemsPerPage
	end := start + q.ItemsPerPage
	if start > len(localMatches) {
		start = len(localMatches)
	}
	if end > len(localMatches) {
		end = len(localMatches)
	}

	res := finish(q, localMatches[start:end], len(localMatches))
	res.Error = DegradedMessage
	res.Err = err
	return res
}

// Categories returns the category list of the catalog joined with the
// categories of local records. A catalog failure yields local categories only.
//
// Categories 返回目录的分类列表与本地记录分类的并集。目录失败时仅返回本地分类。
func (e *Engine) Categories(ctx context.Context) []string {
	remote, err := e.catalog.Categories(ctx)
	if err != nil {
		e.metrics.IncDegraded()
		e.logger.Warn("catalog categories failed, using local categories", zap.Error(err))
		remote = nil
	}
	return category.Resolve(remote, e.local.LoadAll(ctx))
}

func finish(q model.Query, products []model.Product, total int) Result {
	state := pagination.New(1, q.ItemsPerPage)
	state.UpdateFromResponse(total)
	state.GoToPage(q.Page)

	if products == nil {
		products = []model.Product{}
	}
	return Result{
		Products:     products,
		Total:        state.TotalItems(),
		TotalPages:   state.TotalPages(),
		CurrentPage:  state.CurrentPage(),
		ItemsPerPage: state.ItemsPerPage(),
	}
}

// filter returns the products matching the search text and category of q.
// The input slice is never modified.
func filter(products []model.Product, q model.Query) []model.Product {
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if q.HasCategory() && !strings.EqualFold(strings.TrimSpace(p.Category), q.Category) {
			continue
		}
		if q.HasSearch() && !matches(p, q.SearchText) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// matches reports a case-insensitive substring match on title, brand, category or description.
func matches(p model.Product, text string) bool {
	needle := strings.ToLower(text)
	for _, field := range []string{p.Title, p.Brand, p.Category, p.Description} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
