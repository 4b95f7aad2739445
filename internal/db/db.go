package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hairdata/haira/internal/models"
)

// Queries wraps database operations
type Queries struct {
	pool *pgxpool.Pool
}

// New creates a new Queries instance
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// Connect establishes a database connection pool
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// jsonArray maps a slice onto a jsonb column, with empty stored as NULL.
func jsonArray[T any](items []T) json.RawMessage {
	if len(items) == 0 {
		return nil
	}
	data, _ := json.Marshal(items)
	return data
}

// Product operations

const productColumns = `id, brand_slug, product_name, product_url, image_url_main,
	image_urls_gallery, verification_status, product_type_raw, product_type_normalized,
	product_category, gender_target, hair_relevance_reason, inci_ingredients, description,
	usage_instructions, benefits_claims, size_volume, price, currency, line_collection,
	variants, product_labels, confidence, extraction_method, extracted_at, created_at, updated_at`

// UpsertProduct writes one extraction and its gate verdict, keyed by
// product_url. Evidence rows are always appended; a quarantined verdict
// also records (or refreshes) the product's quarantine detail.
func (q *Queries) UpsertProduct(ctx context.Context, extraction models.ProductExtraction, qa models.QAResult) (uuid.UUID, error) {
	var productID uuid.UUID
	err := q.pool.QueryRow(ctx, `
		INSERT INTO products (
			id, brand_slug, product_name, product_url, image_url_main, image_urls_gallery,
			verification_status, product_type_raw, product_type_normalized, product_category,
			gender_target, hair_relevance_reason, inci_ingredients, description,
			usage_instructions, benefits_claims, size_volume, price, currency,
			line_collection, variants, confidence, extraction_method, extracted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, now())
		ON CONFLICT (product_url) DO UPDATE SET
			product_name = EXCLUDED.product_name,
			image_url_main = EXCLUDED.image_url_main,
			image_urls_gallery = EXCLUDED.image_urls_gallery,
			verification_status = EXCLUDED.verification_status,
			product_type_raw = EXCLUDED.product_type_raw,
			product_type_normalized = EXCLUDED.product_type_normalized,
			product_category = EXCLUDED.product_category,
			gender_target = EXCLUDED.gender_target,
			hair_relevance_reason = EXCLUDED.hair_relevance_reason,
			inci_ingredients = EXCLUDED.inci_ingredients,
			description = EXCLUDED.description,
			usage_instructions = EXCLUDED.usage_instructions,
			benefits_claims = EXCLUDED.benefits_claims,
			size_volume = EXCLUDED.size_volume,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			line_collection = EXCLUDED.line_collection,
			variants = EXCLUDED.variants,
			confidence = EXCLUDED.confidence,
			extraction_method = EXCLUDED.extraction_method,
			extracted_at = EXCLUDED.extracted_at,
			updated_at = now()
		RETURNING id
	`,
		uuid.New(), extraction.BrandSlug, extraction.ProductName, extraction.ProductURL,
		extraction.ImageURLMain, jsonArray(extraction.ImageURLsGallery), qa.Status,
		extraction.ProductTypeRaw, extraction.ProductTypeNormalized, extraction.ProductCategory,
		extraction.GenderTarget, extraction.HairRelevanceReason, jsonArray(extraction.InciIngredients),
		extraction.Description, extraction.UsageInstructions, jsonArray(extraction.BenefitsClaims),
		extraction.SizeVolume, extraction.Price, extraction.Currency, extraction.LineCollection,
		jsonArray(extraction.Variants), extraction.Confidence, extraction.Method,
	).Scan(&productID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert product: %w", err)
	}

	for _, ev := range extraction.Evidence {
		_, err := q.pool.Exec(ctx, `
			INSERT INTO product_evidence (id, product_id, field_name, source_url, evidence_locator, raw_source_text, extraction_method, extracted_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, uuid.New(), productID, ev.FieldName, ev.SourceURL, ev.EvidenceLocator, ev.RawSourceText, ev.Method, ev.ExtractedAt)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert evidence: %w", err)
		}
	}

	if qa.Status == models.StatusQuarantined && qa.RejectionReason != nil {
		var code *string
		if len(qa.ChecksFailed) > 0 {
			code = &qa.ChecksFailed[0]
		}
		_, err := q.pool.Exec(ctx, `
			INSERT INTO quarantine_details (id, product_id, rejection_reason, rejection_code)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (product_id) DO UPDATE SET rejection_reason = EXCLUDED.rejection_reason
		`, uuid.New(), productID, *qa.RejectionReason, code)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert quarantine detail: %w", err)
		}
	}

	return productID, nil
}

// Filter narrows product listings. Zero values mean no constraint.
type Filter struct {
	BrandSlug    string
	VerifiedOnly bool
	Category     string
	Search       string
}

func (f Filter) clause() (string, []any) {
	var conds []string
	var args []any
	if f.BrandSlug != "" {
		args = append(args, f.BrandSlug)
		conds = append(conds, fmt.Sprintf("brand_slug = $%d", len(args)))
	}
	if f.VerifiedOnly {
		conds = append(conds, "verification_status = 'verified_inci'")
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("product_category = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("(product_name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (q *Queries) GetProducts(ctx context.Context, f Filter, limit, offset int) ([]models.Product, error) {
	where, args := f.clause()
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY created_at LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)-1, len(args))

	rows, err := q.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (q *Queries) CountProducts(ctx context.Context, f Filter) (int, error) {
	where, args := f.clause()
	var count int
	err := q.pool.QueryRow(ctx, "SELECT count(*) FROM products"+where, args...).Scan(&count)
	return count, err
}

// GetProductByID returns the product with its evidence rows, or nil when
// no such product exists.
func (q *Queries) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := scanProduct(q.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := q.pool.Query(ctx, `
		SELECT id, product_id, field_name, source_url, evidence_locator, raw_source_text, extraction_method, extracted_at
		FROM product_evidence WHERE product_id = $1 ORDER BY extracted_at
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ev models.Evidence
		if err := rows.Scan(&ev.ID, &ev.ProductID, &ev.FieldName, &ev.SourceURL, &ev.EvidenceLocator, &ev.RawSourceText, &ev.Method, &ev.ExtractedAt); err != nil {
			return nil, err
		}
		p.Evidence = append(p.Evidence, ev)
	}
	return p, rows.Err()
}

// UpdateProductLabels replaces the product_labels document. Unknown ids
// are a silent no-op.
func (q *Queries) UpdateProductLabels(ctx context.Context, id uuid.UUID, labels models.LabelResult) error {
	data, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("encode labels: %w", err)
	}
	_, err = q.pool.Exec(ctx, `
		UPDATE products SET product_labels = $2, updated_at = now() WHERE id = $1
	`, id, json.RawMessage(data))
	return err
}

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	var gallery, inci, benefits, variants, labels []byte
	err := row.Scan(
		&p.ID, &p.BrandSlug, &p.ProductName, &p.ProductURL, &p.ImageURLMain,
		&gallery, &p.VerificationStatus, &p.ProductTypeRaw, &p.ProductTypeNormalized,
		&p.ProductCategory, &p.GenderTarget, &p.HairRelevanceReason, &inci, &p.Description,
		&p.UsageInstructions, &benefits, &p.SizeVolume, &p.Price, &p.Currency, &p.LineCollection,
		&variants, &labels, &p.Confidence, &p.Method, &p.ExtractedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, col := range []struct {
		data []byte
		dst  any
	}{
		{gallery, &p.ImageURLsGallery},
		{inci, &p.InciIngredients},
		{benefits, &p.BenefitsClaims},
		{variants, &p.Variants},
		{labels, &p.Labels},
	} {
		if len(col.data) == 0 {
			continue
		}
		if err := json.Unmarshal(col.data, col.dst); err != nil {
			return nil, fmt.Errorf("decode product json column: %w", err)
		}
	}
	return &p, nil
}

// Quarantine operations

// ListQuarantine returns quarantined products awaiting review, newest
// first, joined with the product they block.
func (q *Queries) ListQuarantine(ctx context.Context, brandSlug, reviewStatus string) ([]models.QuarantineItem, error) {
	query := `
		SELECT q.id, q.product_id, q.rejection_reason, q.rejection_code, q.review_status,
			q.reviewer_notes, q.reviewed_at, q.created_at,
			p.product_name, p.product_url, p.brand_slug
		FROM quarantine_details q
		JOIN products p ON p.id = q.product_id
		WHERE q.review_status = $1`
	args := []any{reviewStatus}
	if brandSlug != "" {
		query += " AND p.brand_slug = $2"
		args = append(args, brandSlug)
	}
	query += " ORDER BY q.created_at DESC LIMIT 100"

	rows, err := q.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.QuarantineItem
	for rows.Next() {
		var it models.QuarantineItem
		var code *string
		if err := rows.Scan(&it.ID, &it.ProductID, &it.RejectionReason, &code, &it.ReviewStatus,
			&it.ReviewerNotes, &it.ReviewedAt, &it.CreatedAt,
			&it.ProductName, &it.ProductURL, &it.BrandSlug); err != nil {
			return nil, err
		}
		if code != nil {
			it.RejectionCode = *code
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ApproveQuarantine marks the quarantine row approved and promotes its
// product to verified_inci.
func (q *Queries) ApproveQuarantine(ctx context.Context, id uuid.UUID, notes string) error {
	var productID uuid.UUID
	err := q.pool.QueryRow(ctx, `
		UPDATE quarantine_details
		SET review_status = 'approved', reviewer_notes = $2, reviewed_at = now()
		WHERE id = $1
		RETURNING product_id
	`, id, notes).Scan(&productID)
	if err != nil {
		return err
	}

	_, err = q.pool.Exec(ctx, `
		UPDATE products SET verification_status = 'verified_inci', updated_at = now() WHERE id = $1
	`, productID)
	return err
}

// Coverage operations

// UpsertBrandCoverage replaces the brand's rollup row and touches
// last_run.
func (q *Queries) UpsertBrandCoverage(ctx context.Context, cov models.BrandCoverage) error {
	var report json.RawMessage
	if cov.CoverageReport != nil {
		data, err := json.Marshal(cov.CoverageReport)
		if err != nil {
			return fmt.Errorf("encode coverage report: %w", err)
		}
		report = data
	}

	_, err := q.pool.Exec(ctx, `
		INSERT INTO brand_coverage (
			id, brand_slug, discovered_total, hair_total, kits_total, non_hair_total,
			extracted_total, verified_inci_total, verified_inci_rate, catalog_only_total,
			quarantined_total, status, last_run, blueprint_version, coverage_report
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), $13, $14)
		ON CONFLICT (brand_slug) DO UPDATE SET
			discovered_total = EXCLUDED.discovered_total,
			hair_total = EXCLUDED.hair_total,
			kits_total = EXCLUDED.kits_total,
			non_hair_total = EXCLUDED.non_hair_total,
			extracted_total = EXCLUDED.extracted_total,
			verified_inci_total = EXCLUDED.verified_inci_total,
			verified_inci_rate = EXCLUDED.verified_inci_rate,
			catalog_only_total = EXCLUDED.catalog_only_total,
			quarantined_total = EXCLUDED.quarantined_total,
			status = EXCLUDED.status,
			last_run = now(),
			blueprint_version = EXCLUDED.blueprint_version,
			coverage_report = EXCLUDED.coverage_report
	`, uuid.New(), cov.BrandSlug, cov.DiscoveredTotal, cov.HairTotal, cov.KitsTotal,
		cov.NonHairTotal, cov.ExtractedTotal, cov.VerifiedInciTotal, cov.VerifiedInciRate,
		cov.CatalogOnlyTotal, cov.QuarantinedTotal, cov.Status, cov.BlueprintVersion, report)
	if err != nil {
		return fmt.Errorf("upsert brand coverage: %w", err)
	}
	return nil
}

const coverageColumns = `id, brand_slug, discovered_total, hair_total, kits_total, non_hair_total,
	extracted_total, verified_inci_total, verified_inci_rate, catalog_only_total,
	quarantined_total, status, last_run, blueprint_version, coverage_report`

// GetBrandCoverage returns the brand's rollup, or nil when the brand has
// never run.
func (q *Queries) GetBrandCoverage(ctx context.Context, brandSlug string) (*models.BrandCoverage, error) {
	cov, err := scanCoverage(q.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM brand_coverage WHERE brand_slug = $1`, coverageColumns), brandSlug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return cov, err
}

func (q *Queries) GetAllBrandCoverages(ctx context.Context) ([]models.BrandCoverage, error) {
	rows, err := q.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM brand_coverage ORDER BY brand_slug`, coverageColumns))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coverages []models.BrandCoverage
	for rows.Next() {
		cov, err := scanCoverage(rows)
		if err != nil {
			return nil, err
		}
		coverages = append(coverages, *cov)
	}
	return coverages, rows.Err()
}

func scanCoverage(row pgx.Row) (*models.BrandCoverage, error) {
	var cov models.BrandCoverage
	var report []byte
	err := row.Scan(
		&cov.ID, &cov.BrandSlug, &cov.DiscoveredTotal, &cov.HairTotal, &cov.KitsTotal,
		&cov.NonHairTotal, &cov.ExtractedTotal, &cov.VerifiedInciTotal, &cov.VerifiedInciRate,
		&cov.CatalogOnlyTotal, &cov.QuarantinedTotal, &cov.Status, &cov.LastRun,
		&cov.BlueprintVersion, &report,
	)
	if err != nil {
		return nil, err
	}
	if len(report) > 0 {
		if err := json.Unmarshal(report, &cov.CoverageReport); err != nil {
			return nil, fmt.Errorf("decode coverage report: %w", err)
		}
	}
	return &cov, nil
}
