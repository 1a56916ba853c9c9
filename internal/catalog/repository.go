// Package catalog is the read-only product projection the cart resolves additions against.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrVariantNotFound    = errors.New("product variant not found")
	ErrProductUnavailable = errors.New("product is not available")
)

// Variant is one purchasable configuration of a print.
type Variant struct {
	ProductID         string
	Title             string
	Style             string
	Size              string
	Frame             string
	UnitPrice         decimal.Decimal
	OriginalUnitPrice *decimal.Decimal
	ImageRef          string
}

type Lookup interface {
	GetVariant(ctx context.Context, productID, size, frame string) (*Variant, error)
}

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	// A single connection keeps ":memory:" databases intact across queries.
	db.SetMaxOpenConns(1)

	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

// GetVariant resolves a product configuration. Unknown products and combinations
// are not found; withdrawn ones are unavailable.
func (r *Repository) GetVariant(ctx context.Context, productID, size, frame string) (*Variant, error) {
	query := `
		SELECT p.id, p.title, p.style, p.available,
		       v.size, v.frame, v.price, v.original_price, COALESCE(v.image_ref, p.image_ref), v.available
		FROM products p
		LEFT JOIN product_variants v ON v.product_id = p.id AND v.size = ? AND v.frame = ?
		WHERE p.id = ?
	`

	var (
		v                Variant
		productAvailable bool
		variantSize      sql.NullString
		variantFrame     sql.NullString
		price            sql.NullString
		originalPrice    sql.NullString
		imageRef         sql.NullString
		variantAvailable sql.NullBool
	)
	err := r.db.QueryRowContext(ctx, query, size, frame, productID).Scan(
		&v.ProductID,
		&v.Title,
		&v.Style,
		&productAvailable,
		&variantSize,
		&variantFrame,
		&price,
		&originalPrice,
		&imageRef,
		&variantAvailable,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query variant: %w", err)
	}
	if !price.Valid {
		return nil, ErrVariantNotFound
	}
	if !productAvailable || !variantAvailable.Bool {
		return nil, ErrProductUnavailable
	}

	v.Size = variantSize.String
	v.Frame = variantFrame.String
	v.ImageRef = imageRef.String
	if v.UnitPrice, err = decimal.NewFromString(price.String); err != nil {
		return nil, fmt.Errorf("variant %s/%s/%s: bad price: %w", productID, size, frame, err)
	}
	if originalPrice.Valid {
		orig, err := decimal.NewFromString(originalPrice.String)
		if err != nil {
			return nil, fmt.Errorf("variant %s/%s/%s: bad original price: %w", productID, size, frame, err)
		}
		v.OriginalUnitPrice = &orig
	}
	return &v, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
