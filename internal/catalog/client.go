// Package catalog is the client of the remote product catalog API
// (dummyjson-compatible). It maps responses into model.Product and every
// failure into a *errors.RemoteFetchError.
//
// Package catalog 是远程商品目录API（兼容dummyjson）的客户端。它将响应映射为
// model.Product，并将每个失败映射为 *errors.RemoteFetchError。
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/yourusername/shopfront/configs"
	"github.com/yourusername/shopfront/internal/metrics"
	"github.com/yourusername/shopfront/internal/model"
	shoperrors "github.com/yourusername/shopfront/pkg/errors"
)

// DefaultTimeout bounds a request when none is configured.
//
// DefaultTimeout 在未配置时限制单个请求的时长。
const DefaultTimeout = 12 * time.Second

// maxErrorBody caps how much of a failed response is kept for the error message.
const maxErrorBody = 512

// HTTPClient allows injecting mock HTTP clients for testing.
//
// HTTPClient 允许为测试注入模拟HTTP客户端。
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the remote catalog.
//
// Client 与远程目录通信。
type Client struct {
	baseURL   *url.URL
	http      HTTPClient
	timeout   time.Duration
	limiter   *rate.Limiter
	userAgent string
	group     singleflight.Group
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// Option configures a Client.
//
// Option 配置Client。
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
//
// WithHTTPClient 替换默认的http.Client。
func WithHTTPClient(h HTTPClient) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout.
//
// WithTimeout 设置每个请求的超时时间。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit limits outbound requests to limit per second. Zero disables limiting.
//
// WithRateLimit 将出站请求限制为每秒limit个。零表示不限制。
func WithRateLimit(limit float64, burst int) Option {
	return func(c *Client) { c.SetRateLimit(limit, burst) }
}

// WithMetrics records every call.
//
// WithMetrics 记录每次调用。
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger. A nil logger is ignored.
//
// WithLogger 设置日志记录器。nil将被忽略。
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUserAgent sets the User-Agent header.
//
// WithUserAgent 设置User-Agent请求头。
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a client for the catalog rooted at baseURL.
//
// New 为以baseURL为根的目录创建客户端。
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("catalog: invalid base URL %q", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{},
		timeout: DefaultTimeout,
		limiter: rate.NewLimiter(rate.Inf, 1),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFromConfig creates a client from the catalog configuration section.
//
// NewFromConfig 根据目录配置节创建客户端。
func NewFromConfig(cfg configs.CatalogConfig, opts ...Option) (*Client, error) {
	base := []Option{
		WithTimeout(cfg.Timeout),
		WithRateLimit(cfg.RateLimit, cfg.Burst),
		WithUserAgent(cfg.UserAgent),
	}
	return New(cfg.BaseURL, append(base, opts...)...)
}

// SetRateLimit changes the outbound limit at runtime. Zero or less disables limiting.
// It is safe to call while requests are in flight.
//
// SetRateLimit 在运行时修改出站限制。零或负数表示不限制。可在请求进行中安全调用。
func (c *Client) SetRateLimit(limit float64, burst int) {
	if burst <= 0 {
		burst = 1
	}
	l := rate.Inf
	if limit > 0 {
		l = rate.Limit(limit)
	}
	c.limiter.SetLimit(l)
	c.limiter.SetBurst(burst)
}

// Query fetches one page. Exactly one request is issued:
// search when SearchText is set, else category listing when a category is
// set, else the plain listing.
//
// Query 获取一页。只发出一个请求：设置了SearchText时为搜索，否则设置了分类时为分类列表，
// 否则为普通列表。
func (c *Client) Query(ctx context.Context, q model.Query) (model.ProductPage, error) {
	op, path, params := c.route(q)

	var page model.ProductPage
	if err := c.getJSON(ctx, op, path, params, &page); err != nil {
		return model.ProductPage{}, err
	}
	if page.Products == nil {
		page.Products = []model.Product{}
	}
	return page, nil
}

func (c *Client) route(q model.Query) (op, path string, params url.Values) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.ItemsPerPage
	if limit < 1 {
		limit = 1
	}

	params = url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("skip", strconv.Itoa((page-1)*limit))

	switch {
	case q.HasSearch():
		params.Set("q", strings.TrimSpace(q.SearchText))
		return "search", "/products/search", params
	case q.HasCategory():
		slug := strings.ToLower(strings.TrimSpace(q.Category))
		return "category", "/products/category/" + url.PathEscape(slug), params
	default:
		return "list", "/products", params
	}
}

// Categories fetches the remote category list, normalized to slugs.
//
// Categories 获取远程分类列表，并规范化为slug。
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var raw []json.RawMessage
	if err := c.getJSON(ctx, "categories", "/products/categories", nil, &raw); err != nil {
		return nil, err
	}
	return NormalizeCategories(raw), nil
}

// GetProduct fetches one remote product. A 404 is reported as *errors.NotFoundError.
//
// GetProduct 获取单个远程商品。404 以 *errors.NotFoundError 报告。
func (c *Client) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := c.getJSON(ctx, "get", "/products/"+strconv.FormatInt(id, 10), nil, &p)
	if err != nil {
		if shoperrors.IsNotFound(err) {
			return model.Product{}, fmt.Errorf("%w: %w", shoperrors.NewNotFoundError("product", id), err)
		}
		return model.Product{}, err
	}
	return p, nil
}

// AddProduct mirrors a local create. The catalog simulates the write and
// answers with the record it would have stored.
//
// AddProduct 镜像本地创建。目录模拟写入，并返回它本应保存的记录。
func (c *Client) AddProduct(ctx context.Context, in model.ProductInput) (model.Product, error) {
	var p model.Product
	err := c.sendJSON(ctx, "add", http.MethodPost, "/products/add", in, &p)
	return p, err
}

// UpdateProduct mirrors a local edit.
//
// UpdateProduct 镜像本地编辑。
func (c *Client) UpdateProduct(ctx context.Context, id int64, in model.ProductInput) (model.Product, error) {
	var p model.Product
	err := c.sendJSON(ctx, "update", http.MethodPut, "/products/"+strconv.FormatInt(id, 10), in, &p)
	if err != nil && shoperrors.IsNotFound(err) {
		return p, fmt.Errorf("%w: %w", shoperrors.NewNotFoundError("product", id), err)
	}
	return p, err
}

// DeleteProduct mirrors a local delete.
//
// DeleteProduct 镜像本地删除。
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	err := c.sendJSON(ctx, "delete", http.MethodDelete, "/products/"+strconv.FormatInt(id, 10), nil, nil)
	if err != nil && shoperrors.IsNotFound(err) {
		return fmt.Errorf("%w: %w", shoperrors.NewNotFoundError("product", id), err)
	}
	return err
}

// getJSON performs a GET. Identical concurrent GETs share one request, which
// runs detached from any single caller's cancellation and is bounded by the
// client timeout. Each caller still stops waiting when its own ctx ends.
func (c *Client) getJSON(ctx context.Context, op, path string, params url.Values, out interface{}) error {
	target := c.resolve(path, params)

	ch := c.group.DoChan(target, func() (interface{}, error) {
		return c.do(context.WithoutCancel(ctx), op, http.MethodGet, target, nil)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return shoperrors.NewRemoteFetchError(op, 0, ctx.Err())
	case res = <-ch:
	}
	if res.Shared {
		c.logger.Debug("coalesced catalog request", zap.String("url", target))
	}
	if res.Err != nil {
		return res.Err
	}
	if err := json.Unmarshal(res.Val.([]byte), out); err != nil {
		return shoperrors.NewRemoteFetchError(op, http.StatusOK, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) sendJSON(ctx context.Context, op, method, path string, in, out interface{}) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("catalog %s: encode request: %w", op, err)
		}
	}

	body, err := c.do(ctx, op, method, c.resolve(path, nil), payload)
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return shoperrors.NewRemoteFetchError(op, http.StatusOK, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) resolve(path string, params url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String()
}

// do issues one request bounded by the client timeout and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, op, method, target string, payload []byte) (body []byte, err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveRemote(op, err, time.Since(start))
		if err != nil {
			c.logger.Debug("catalog request failed",
				zap.String("op", op), zap.String("url", target), zap.Error(err))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, shoperrors.NewRemoteFetchError(op, 0, err)
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, shoperrors.NewRemoteFetchError(op, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, shoperrors.NewRemoteFetchError(op, resp.StatusCode, remoteMessage(snippet))
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, shoperrors.NewRemoteFetchError(op, 0, fmt.Errorf("read response: %w", err))
	}
	return body, nil
}

// remoteMessage extracts {"message": "..."} from an error body.
func remoteMessage(body []byte) error {
	var msg struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &msg) == nil && msg.Message != "" {
		return fmt.Errorf("%s", msg.Message)
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return fmt.Errorf("%s", text)
	}
	return nil
}
