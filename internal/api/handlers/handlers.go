package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/hairdata/haira/internal/db"
	"github.com/hairdata/haira/internal/models"
)

const (
	defaultPageSize = 100
	maxPageSize     = 500
)

// Store is the slice of the repository the read API uses.
type Store interface {
	GetProducts(ctx context.Context, f db.Filter, limit, offset int) ([]models.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetAllBrandCoverages(ctx context.Context) ([]models.BrandCoverage, error)
	GetBrandCoverage(ctx context.Context, brandSlug string) (*models.BrandCoverage, error)
	ListQuarantine(ctx context.Context, brandSlug, reviewStatus string) ([]models.QuarantineItem, error)
	ApproveQuarantine(ctx context.Context, id uuid.UUID, notes string) error
}

type Handlers struct {
	store Store
}

func NewHandlers(store Store) *Handlers {
	return &Handlers{store: store}
}

// productSummary is the trimmed row shape of the product listing. The
// detail endpoint returns the full record.
type productSummary struct {
	ID                    uuid.UUID                 `json:"id"`
	BrandSlug             string                    `json:"brand_slug"`
	ProductName           string                    `json:"product_name"`
	ProductURL            string                    `json:"product_url"`
	ImageURLMain          *string                   `json:"image_url_main"`
	VerificationStatus    models.VerificationStatus `json:"verification_status"`
	ProductTypeNormalized *string                   `json:"product_type_normalized"`
	GenderTarget          models.GenderTarget       `json:"gender_target"`
	InciIngredients       []string                  `json:"inci_ingredients"`
	Confidence            float64                   `json:"confidence"`
	ProductLabels         *models.LabelResult       `json:"product_labels"`
}

type brandSummary struct {
	BrandSlug         string     `json:"brand_slug"`
	DiscoveredTotal   int        `json:"discovered_total"`
	HairTotal         int        `json:"hair_total"`
	ExtractedTotal    int        `json:"extracted_total"`
	VerifiedInciTotal int        `json:"verified_inci_total"`
	VerifiedInciRate  float64    `json:"verified_inci_rate"`
	CatalogOnlyTotal  int        `json:"catalog_only_total"`
	QuarantinedTotal  int        `json:"quarantined_total"`
	Status            string     `json:"status"`
	LastRun           *time.Time `json:"last_run"`
}

// ListProducts returns verified products by default; pass
// verified_only=false to include catalog_only and quarantined rows.
func (h *Handlers) ListProducts(c echo.Context) error {
	filter := db.Filter{
		BrandSlug:    c.QueryParam("brand_slug"),
		VerifiedOnly: true,
		Category:     c.QueryParam("category"),
		Search:       c.QueryParam("search"),
	}
	if v := c.QueryParam("verified_only"); v != "" {
		verified, err := strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid verified_only")
		}
		filter.VerifiedOnly = verified
	}

	limit := intQueryParam(c, "limit", defaultPageSize)
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	offset := intQueryParam(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	products, err := h.store.GetProducts(c.Request().Context(), filter, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list products")
	}

	summaries := make([]productSummary, 0, len(products))
	for _, p := range products {
		summaries = append(summaries, productSummary{
			ID:                    p.ID,
			BrandSlug:             p.BrandSlug,
			ProductName:           p.ProductName,
			ProductURL:            p.ProductURL,
			ImageURLMain:          p.ImageURLMain,
			VerificationStatus:    p.VerificationStatus,
			ProductTypeNormalized: p.ProductTypeNormalized,
			GenderTarget:          p.GenderTarget,
			InciIngredients:       p.InciIngredients,
			Confidence:            p.Confidence,
			ProductLabels:         p.Labels,
		})
	}
	return c.JSON(http.StatusOK, summaries)
}

// GetProduct returns the full record with its evidence trail.
func (h *Handlers) GetProduct(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid product ID")
	}

	product, err := h.store.GetProductByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get product")
	}
	if product == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	}

	return c.JSON(http.StatusOK, product)
}

// ListBrands returns one coverage summary per harvested brand.
func (h *Handlers) ListBrands(c echo.Context) error {
	coverages, err := h.store.GetAllBrandCoverages(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list brands")
	}

	summaries := make([]brandSummary, 0, len(coverages))
	for _, cov := range coverages {
		summaries = append(summaries, brandSummary{
			BrandSlug:         cov.BrandSlug,
			DiscoveredTotal:   cov.DiscoveredTotal,
			HairTotal:         cov.HairTotal,
			ExtractedTotal:    cov.ExtractedTotal,
			VerifiedInciTotal: cov.VerifiedInciTotal,
			VerifiedInciRate:  cov.VerifiedInciRate,
			CatalogOnlyTotal:  cov.CatalogOnlyTotal,
			QuarantinedTotal:  cov.QuarantinedTotal,
			Status:            cov.Status,
			LastRun:           cov.LastRun,
		})
	}
	return c.JSON(http.StatusOK, summaries)
}

// GetBrandCoverage returns the full coverage row, including the run
// report of the last pipeline pass.
func (h *Handlers) GetBrandCoverage(c echo.Context) error {
	cov, err := h.store.GetBrandCoverage(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get brand coverage")
	}
	if cov == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Brand coverage not found")
	}

	return c.JSON(http.StatusOK, cov)
}

// ListQuarantine returns the review queue, pending items by default.
func (h *Handlers) ListQuarantine(c echo.Context) error {
	reviewStatus := c.QueryParam("review_status")
	if reviewStatus == "" {
		reviewStatus = "pending"
	}

	items, err := h.store.ListQuarantine(c.Request().Context(), c.QueryParam("brand_slug"), reviewStatus)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list quarantine")
	}
	if items == nil {
		items = []models.QuarantineItem{}
	}
	return c.JSON(http.StatusOK, items)
}

// ApproveQuarantine marks a quarantine record approved and promotes its
// product to verified_inci. Notes come from the JSON body or the notes
// query parameter.
func (h *Handlers) ApproveQuarantine(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid quarantine ID")
	}

	notes := c.QueryParam("notes")
	var body struct {
		Notes string `json:"notes"`
	}
	if err := c.Bind(&body); err == nil && body.Notes != "" {
		notes = body.Notes
	}

	if err := h.store.ApproveQuarantine(c.Request().Context(), id, notes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "Quarantine record not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to approve quarantine record")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":        "approved",
		"quarantine_id": id,
	})
}

func intQueryParam(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
