package handler

import (
	"time"

	accessapp "github.com/backoffice/backend/internal/application/access"
	"github.com/backoffice/backend/internal/domain/access"
	"github.com/backoffice/backend/internal/domain/catalog"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CatalogHandler serves access-scoped brand and product reads
type CatalogHandler struct {
	BaseHandler
	gate     *accessapp.Gate
	resolver access.Resolver
	brands   catalog.BrandRepository
	products catalog.ProductRepository
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(gate *accessapp.Gate, resolver access.Resolver, brands catalog.BrandRepository, products catalog.ProductRepository) *CatalogHandler {
	return &CatalogHandler{gate: gate, resolver: resolver, brands: brands, products: products}
}

// BrandResponse represents a brand in the response
type BrandResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductResponse represents a product in the response
type ProductResponse struct {
	ID         uuid.UUID `json:"id"`
	BrandID    uuid.UUID `json:"brand_id"`
	ExternalID int64     `json:"external_id"`
	Name       string    `json:"name"`
	CategoryID uuid.UUID `json:"category_id"`
	GenderID   uuid.UUID `json:"gender_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func newBrandResponse(b *catalog.Brand) BrandResponse {
	return BrandResponse{
		ID:        b.ID,
		Name:      b.Name,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func newProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:         p.ID,
		BrandID:    p.BrandID,
		ExternalID: p.ExternalID,
		Name:       p.Name,
		CategoryID: p.CategoryID,
		GenderID:   p.GenderID,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// RegisterRoutes registers the catalog routes
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/brands", h.ListBrands)
	rg.GET("/brands/:id", h.GetBrand)
	rg.GET("/products", h.ListProducts)
	rg.GET("/products/:id", h.GetProduct)
}

// ListBrands returns the brands accessible to the caller. Zero access
// yields an empty collection, not an error.
func (h *CatalogHandler) ListBrands(c *gin.Context) {
	principal, team := principalAndTeam(c)
	ctx := c.Request.Context()

	if err := h.gate.Authorize(ctx, team, principal, access.ActionViewAny, access.KindBrand, nil); err != nil {
		h.HandleError(c, err)
		return
	}
	ids, err := h.resolver.Resolve(ctx, *principal, access.KindBrand)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	brands, err := h.brands.ListByIDs(ctx, ids)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]BrandResponse, 0, len(brands))
	for i := range brands {
		out = append(out, newBrandResponse(&brands[i]))
	}
	h.List(c, out)
}

// GetBrand returns one brand through the three-way gate
func (h *CatalogHandler) GetBrand(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid brand ID")
		return
	}
	principal, team := principalAndTeam(c)
	ctx := c.Request.Context()

	if err := h.gate.Authorize(ctx, team, principal, access.ActionView, access.KindBrand, &id); err != nil {
		h.HandleError(c, err)
		return
	}
	brand, err := h.brands.FindByID(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, newBrandResponse(brand))
}

// ListProducts returns the products accessible to the caller, including
// products inherited through brand grants.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	principal, team := principalAndTeam(c)
	ctx := c.Request.Context()

	if err := h.gate.Authorize(ctx, team, principal, access.ActionViewAny, access.KindProduct, nil); err != nil {
		h.HandleError(c, err)
		return
	}
	ids, err := h.resolver.Resolve(ctx, *principal, access.KindProduct)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	products, err := h.products.ListByIDs(ctx, ids)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, newProductResponse(&products[i]))
	}
	h.List(c, out)
}

// GetProduct returns one product through the three-way gate
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.BadRequest(c, "invalid product ID")
		return
	}
	principal, team := principalAndTeam(c)
	ctx := c.Request.Context()

	if err := h.gate.Authorize(ctx, team, principal, access.ActionView, access.KindProduct, &id); err != nil {
		h.HandleError(c, err)
		return
	}
	product, err := h.products.FindByID(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, newProductResponse(product))
}
