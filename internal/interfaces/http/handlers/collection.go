// internal/interfaces/http/handlers/collection.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

// CollectionHandler handles collection endpoints
type CollectionHandler struct {
	productService *product.Service
	config         *config.Config
}

// NewCollectionHandler creates a new collection handler
func NewCollectionHandler(db *gorm.DB, cfg *config.Config) *CollectionHandler {
	return &CollectionHandler{
		productService: product.NewService(db, cfg),
		config:         cfg,
	}
}

// GetCollections handles GET /collections
func (h *CollectionHandler) GetCollections(c *gin.Context) {
	collections, err := h.productService.GetCollections()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Collections retrieved successfully",
		"data":    collections,
	})
}

// GetCollectionByHandle handles GET /collections/:handle
func (h *CollectionHandler) GetCollectionByHandle(c *gin.Context) {
	handle := c.Param("handle")
	if handle == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Collection handle is required"})
		return
	}

	collection, err := h.productService.GetCollectionByHandle(handle)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Collection retrieved successfully",
		"data":    collection,
	})
}

// CreateCollection handles POST /collections
func (h *CollectionHandler) CreateCollection(c *gin.Context) {
	var req struct {
		Handle      string `json:"handle" binding:"required"`
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
		SortOrder   string `json:"sort_order"`
		Published   *bool  `json:"published"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	collection := product.Collection{
		Handle:      req.Handle,
		Title:       req.Title,
		Description: req.Description,
		SortOrder:   req.SortOrder,
		Published:   true,
	}
	if req.Published != nil {
		collection.Published = *req.Published
	}

	created, err := h.productService.CreateCollection(&collection)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Collection created successfully",
		"data":    created,
	})
}
