package httpserver

import (
	"net/http"

	"apparel-storefront/internal/domain"
	"apparel-storefront/internal/service/cart"
	"apparel-storefront/internal/service/catalog"
	"github.com/gin-gonic/gin"
)

type addItemRequest struct {
	Slug     string `json:"slug" binding:"required"`
	Size     string `json:"size"`
	Color    string `json:"color"`
	Quantity int    `json:"quantity"`
}

// updateItemRequest requires quantity so that a missing field is not read
// as 0, which removes the line.
type updateItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  *int   `json:"quantity" binding:"required"`
}

type cartResponse struct {
	Items []domain.CartLineItem `json:"items"`
	Total domain.Money          `json:"total_cents"`
	Count int                   `json:"count"`
}

func cartView(s *cart.Store) cartResponse {
	return cartResponse{Items: s.Items(), Total: s.Total(), Count: s.Count()}
}

type cartHandlers struct {
	catalog CatalogService
}

func getCartHandler(c *gin.Context) {
	c.JSON(http.StatusOK, cartView(currentVisitor(c).Cart))
}

// add looks the product up so the line carries catalog name, price and
// image rather than anything the client sent.
func (h cartHandlers) add(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "slug is required")
		return
	}
	ctx := c.Request.Context()
	p, err := h.catalog.Product(ctx, req.Slug)
	if err != nil {
		respondError(c, statusFor(err), messageFor(err, "failed to load product"))
		return
	}
	size, color, err := catalog.ResolveVariant(*p, req.Size, req.Color)
	if err != nil {
		respondError(c, statusFor(err), err.Error())
		return
	}

	store := currentVisitor(c).Cart
	if err := store.Add(ctx, *p, size, color, req.Quantity); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save cart")
		return
	}
	c.JSON(http.StatusOK, cartView(store))
}

func updateCartItemHandler(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "product_id and quantity are required")
		return
	}
	store := currentVisitor(c).Cart
	if err := store.UpdateQuantity(c.Request.Context(), req.ProductID, req.Size, req.Color, *req.Quantity); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save cart")
		return
	}
	c.JSON(http.StatusOK, cartView(store))
}

func removeCartItemHandler(c *gin.Context) {
	productID := c.Query("product_id")
	if productID == "" {
		respondError(c, http.StatusBadRequest, "product_id is required")
		return
	}
	store := currentVisitor(c).Cart
	if err := store.Remove(c.Request.Context(), productID, c.Query("size"), c.Query("color")); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save cart")
		return
	}
	c.JSON(http.StatusOK, cartView(store))
}

func clearCartHandler(c *gin.Context) {
	store := currentVisitor(c).Cart
	if err := store.Clear(c.Request.Context()); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save cart")
		return
	}
	c.JSON(http.StatusOK, cartView(store))
}
