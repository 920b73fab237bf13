package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/shopfront/internal/cart"
	"github.com/yourusername/shopfront/internal/service"
)

type addItemRequest struct {
	ProductID int64 `json:"productId" binding:"required,gt=0"`
	Quantity  int   `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// CartHandler serves the cart of the caller. Signed-in users own their cart
// by username, anonymous visitors by session id.
type CartHandler struct {
	carts    *cart.Store
	products *service.ProductService
}

func NewCartHandler(carts *cart.Store, products *service.ProductService) *CartHandler {
	return &CartHandler{carts: carts, products: products}
}

func (h *CartHandler) Get(c *gin.Context) {
	sum, err := h.carts.Get(c, owner(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// AddItem handles POST /api/cart/items. Quantity defaults to 1.
func (h *CartHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, err := h.products.GetProduct(c, req.ProductID)
	if err != nil {
		writeError(c, err)
		return
	}
	sum, err := h.carts.Add(c, owner(c), product, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// SetQuantity handles PUT /api/cart/items/:id.
func (h *CartHandler) SetQuantity(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sum, err := h.carts.SetQuantity(c, owner(c), id, *req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// RemoveItem handles DELETE /api/cart/items/:id.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	sum, err := h.carts.Remove(c, owner(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// Clear handles DELETE /api/cart.
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.carts.Clear(c, owner(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func owner(c *gin.Context) string {
	if u, ok := currentUser(c); ok {
		return "user:" + u.Username
	}
	return "session:" + sessionID(c)
}
