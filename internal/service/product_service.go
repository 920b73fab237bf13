// Package service implements the storefront product operations.
// It sits between the HTTP handlers and the reconciliation engine, and applies
// admin mutations to the local store before mirroring them to the catalog.
//
// Package service 实现店面的产品操作。
// 它位于HTTP处理程序和协调引擎之间，先将管理员修改应用到本地存储，然后再镜像到目录。
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yourusername/shopfront/internal/metrics"
	"github.com/yourusername/shopfront/internal/model"
	"github.com/yourusername/shopfront/internal/reconcile"
	"github.com/yourusername/shopfront/internal/storage"
	shoperrors "github.com/yourusername/shopfront/pkg/errors"
)

// RemoteProducts looks up single catalog products.
type RemoteProducts interface {
	GetProduct(ctx context.Context, id int64) (model.Product, error)
}

// Mirror receives copies of local mutations.
type Mirror interface {
	AddProduct(ctx context.Context, in model.ProductInput) (model.Product, error)
	UpdateProduct(ctx context.Context, id int64, in model.ProductInput) (model.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// Invalidator drops cached catalog reads.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// ProductService handles product queries and admin mutations.
// Local mutations are the source of truth and always apply. The remote mirror
// is best effort: its failures are logged and never revert the local change.
//
// ProductService 处理产品查询和管理员修改。
// 本地修改是事实来源并且总是生效。远程镜像是尽力而为的：其失败会被记录，但永远不会回滚本地修改。
type ProductService struct {
	engine  *reconcile.Engine
	store   *storage.ProductStore
	remote  RemoteProducts
	mirror  Mirror      // nil disables mirroring / 为nil时禁用镜像
	cache   Invalidator // optional / 可选
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures a ProductService.
//
// Option 配置ProductService。
type Option func(*ProductService)

// WithMirror enables mirroring of local mutations to m.
//
// WithMirror 启用将本地修改镜像到m。
func WithMirror(m Mirror) Option {
	return func(s *ProductService) { s.mirror = m }
}

// WithInvalidator drops cached catalog reads after a successful mirror write.
//
// WithInvalidator 在镜像写入成功后丢弃缓存的目录读取结果。
func WithInvalidator(inv Invalidator) Option {
	return func(s *ProductService) { s.cache = inv }
}

// WithLogger sets the logger. A nil logger is ignored.
//
// WithLogger 设置日志记录器。nil将被忽略。
func WithLogger(l *zap.Logger) Option {
	return func(s *ProductService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics counts failed mirror writes in m.
//
// WithMetrics 在m中统计失败的镜像写入。
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *ProductService) { s.metrics = m }
}

// NewProductService creates a product service.
//
// Parameters:
//   - engine: The reconciliation engine answering listing queries
//   - store: The local product store
//   - remote: The catalog used for single product lookups
//   - opts: Optional mirror, cache invalidator, logger and metrics
//
// Returns:
//   - *ProductService: A new product service instance
//
// NewProductService 创建一个产品服务。
//
// 参数:
//   - engine: 响应列表查询的协调引擎
//   - store: 本地产品存储
//   - remote: 用于单个产品查找的目录
//   - opts: 可选的镜像、缓存失效器、日志记录器和指标
//
// 返回:
//   - *ProductService: 一个新的产品服务实例
func NewProductService(engine *reconcile.Engine, store *storage.ProductStore, remote RemoteProducts, opts ...Option) *ProductService {
	s := &ProductService{
		engine: engine,
		store:  store,
		remote: remote,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query returns one reconciled page. Catalog failures are reported in Result.Error.
//
// Query 返回一个协调后的页面。目录失败会在Result.Error中报告。
func (s *ProductService) Query(ctx context.Context, q model.Query) reconcile.Result {
	return s.engine.Query(ctx, q)
}

// NewSession starts a browsing session with its own pagination state.
//
// NewSession 启动一个拥有自己分页状态的浏览会话。
func (s *ProductService) NewSession(itemsPerPage int) *reconcile.Session {
	return s.engine.NewSession(itemsPerPage)
}

// Categories returns the merged category list, "all" first.
//
// Categories 返回合并后的类别列表，"all"在最前。
func (s *ProductService) Categories(ctx context.Context) []string {
	return s.engine.Categories(ctx)
}

// GetProduct returns the local record with id, else the catalog record.
// A catalog 404 is reported as *errors.NotFoundError.
//
// GetProduct 返回具有该id的本地记录，否则返回目录记录。
// 目录404会被报告为*errors.NotFoundError。
func (s *ProductService) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	if p, ok := s.store.Get(ctx, id); ok {
		return p, nil
	}

	p, err := s.remote.GetProduct(ctx, id)
	if err != nil {
		if shoperrors.IsNotFound(err) {
			return model.Product{}, shoperrors.NewNotFoundError("product", id)
		}
		return model.Product{}, err
	}
	return p, nil
}

// CreateLocal validates in, stores it as a new local record and mirrors it.
// Only validation errors are returned; nothing is stored when they occur.
//
// CreateLocal 验证输入，将其存储为新的本地记录并进行镜像。
// 只返回验证错误；发生验证错误时不会存储任何内容。
func (s *ProductService) CreateLocal(ctx context.Context, in model.ProductInput) (model.Product, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return model.Product{}, err
	}

	p := s.store.Create(ctx, in)
	s.logger.Info("local product created", zap.Int64("id", p.ID), zap.String("title", p.Title))

	s.mirrorWrite(ctx, "add", p.ID, func(ctx context.Context) error {
		_, err := s.mirror.AddProduct(ctx, in)
		return err
	})
	return p, nil
}

// UpdateLocal validates in and stores it under id, replacing a local record
// or overriding the catalog record with that id.
//
// UpdateLocal 验证输入并将其存储在id下，替换本地记录或覆盖具有该id的目录记录。
func (s *ProductService) UpdateLocal(ctx context.Context, id int64, in model.ProductInput) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, shoperrors.NewValidationError("id", "must be a positive integer")
	}
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return model.Product{}, err
	}

	p := s.store.Update(ctx, in.ToProduct(id))
	s.logger.Info("local product updated", zap.Int64("id", id))

	s.mirrorWrite(ctx, "update", id, func(ctx context.Context) error {
		_, err := s.mirror.UpdateProduct(ctx, id, in)
		return err
	})
	return p, nil
}

// DeleteLocal removes the local record with id. Deleting an unknown id is a no-op.
//
// DeleteLocal 删除具有该id的本地记录。删除未知id不执行任何操作。
func (s *ProductService) DeleteLocal(ctx context.Context, id int64) {
	s.store.Delete(ctx, id)
	s.logger.Info("local product deleted", zap.Int64("id", id))

	s.mirrorWrite(ctx, "delete", id, func(ctx context.Context) error {
		return s.mirror.DeleteProduct(ctx, id)
	})
}

// mirrorWrite runs one mirror call. The call outlives a cancelled request
// since the local change has already been applied.
func (s *ProductService) mirrorWrite(ctx context.Context, op string, id int64, call func(context.Context) error) {
	if s.mirror == nil {
		return
	}

	err := call(context.WithoutCancel(ctx))
	switch {
	case err == nil:
		if s.cache != nil {
			if err := s.cache.Invalidate(ctx); err != nil {
				s.logger.Warn("failed to invalidate catalog cache", zap.Error(err))
			}
		}
	case shoperrors.IsNotFound(err):
		// Local-only ids are unknown to the catalog.
		s.metrics.IncMirrorFailure(op)
		s.logger.Info("catalog does not know product, kept local change",
			zap.String("op", op), zap.Int64("id", id))
	default:
		s.metrics.IncMirrorFailure(op)
		s.logger.Warn("catalog mirror failed, kept local change",
			zap.String("op", op), zap.Int64("id", id), zap.Error(fmt.Errorf("mirror %s: %w", op, err)))
	}
}
