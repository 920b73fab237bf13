package server

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/shopfront/internal/model"
	"github.com/yourusername/shopfront/internal/reconcile"
	"github.com/yourusername/shopfront/internal/service"
	"github.com/yourusername/shopfront/pkg/cache"
)

const sessionPrefix = "session:"

// ProductHandler handles HTTP requests for products.
// It translates requests into service calls and keeps one browsing session
// per X-Session-ID so that pagination state survives between requests.
//
// ProductHandler 处理产品的HTTP请求。
// 它将请求转换为服务调用，并为每个X-Session-ID保留一个浏览会话，使分页状态在请求之间保持。
type ProductHandler struct {
	service    *service.ProductService
	sessions   cache.ICache
	sessionTTL time.Duration
	logger     *zap.Logger

	mu sync.Mutex
}

// NewProductHandler creates a new product handler with the given service.
//
// Parameters:
//   - service: The product service to use for business logic
//   - sessions: The TTL cache holding browsing sessions
//   - sessionTTL: How long an idle session is kept
//   - logger: The logger
//
// Returns:
//   - *ProductHandler: A new product handler instance
//
// NewProductHandler 使用给定的服务创建一个新的产品处理程序。
func NewProductHandler(service *service.ProductService, sessions cache.ICache, sessionTTL time.Duration, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		service:    service,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// ListProducts handles GET /api/products?page&limit&category&q.
// A catalog failure still answers 200 with the local records and an "error" field.
//
// ListProducts 处理产品列表的GET请求。
// 目录失败时仍然返回200，包含本地记录和"error"字段。
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var q model.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	sess, err := h.session(c, q.ItemsPerPage)
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := sess.Query(c, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Navigate handles POST /api/browse/:direction, moving the session's active
// query to the next, previous, first or last page.
func (h *ProductHandler) Navigate(c *gin.Context) {
	sess, err := h.session(c, 0)
	if err != nil {
		writeError(c, err)
		return
	}

	var res reconcile.Result
	switch c.Param("direction") {
	case "next":
		res, err = sess.Next(c)
	case "previous":
		res, err = sess.Previous(c)
	case "first":
		res, err = sess.First(c)
	case "last":
		res, err = sess.Last(c)
	default:
		n, convErr := strconv.Atoi(c.Param("direction"))
		if convErr != nil {
			badRequest(c, fmt.Errorf("unknown direction %q", c.Param("direction")))
			return
		}
		res, err = sess.GoToPage(c, n)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetProduct handles GET requests for a single product.
//
// GetProduct 处理获取单个产品的GET请求。
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	product, err := h.service.GetProduct(c, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// ListCategories handles GET /api/categories.
func (h *ProductHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.service.Categories(c)})
}

// CreateProduct handles admin POST requests creating a local product.
//
// CreateProduct 处理创建本地产品的管理员POST请求。
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var in model.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	product, err := h.service.CreateLocal(c, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles admin PUT requests replacing a product by id.
//
// UpdateProduct 处理按id替换产品的管理员PUT请求。
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	var in model.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	product, err := h.service.UpdateLocal(c, id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles admin DELETE requests.
//
// DeleteProduct 处理管理员DELETE请求。
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	h.service.DeleteLocal(c, id)
	c.Status(http.StatusNoContent)
}

// session returns the browsing session of the caller, creating it on first use.
// Every access renews the idle timeout.
func (h *ProductHandler) session(c *gin.Context, itemsPerPage int) (*reconcile.Session, error) {
	key := sessionPrefix + sessionID(c)

	h.mu.Lock()
	defer h.mu.Unlock()

	var sess *reconcile.Session
	if v, ok, err := h.sessions.Get(c, key); err != nil {
		return nil, err
	} else if ok {
		sess = v.(*reconcile.Session)
	} else {
		sess = h.service.NewSession(itemsPerPage)
		h.logger.Debug("browsing session started", zap.String("session", sessionID(c)))
	}
	if err := h.sessions.Set(c, key, sess, h.sessionTTL); err != nil {
		return nil, err
	}
	return sess, nil
}

func productID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return 0, false
	}
	return id, true
}
