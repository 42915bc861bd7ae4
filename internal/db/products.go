package db

import (
	"database/sql"
	"errors"
	"fmt"
)

// Product is one purchasable catalog entry. Label is the detector class
// name and the key everything else joins on.
type Product struct {
	ID          int64  `json:"id"`
	Label       string `json:"label"`
	DisplayName string `json:"display_name"`
	PriceCents  int64  `json:"price_cents"`
}

// UpsertProduct inserts the product or updates its display name and
// price when the label already exists.
func (db *DB) UpsertProduct(p *Product) error {
	if p.Label == "" {
		return errors.New("product label must not be empty")
	}
	if p.PriceCents < 0 {
		return fmt.Errorf("product price must be non-negative, got %d", p.PriceCents)
	}

	result, err := db.Exec(`
		INSERT INTO products (label, display_name, price_cents)
		VALUES (?, ?, ?)
		ON CONFLICT(label) DO UPDATE SET
			display_name = excluded.display_name,
			price_cents = excluded.price_cents`,
		p.Label, p.DisplayName, p.PriceCents)
	if err != nil {
		return fmt.Errorf("failed to upsert product %q: %w", p.Label, err)
	}

	if p.ID == 0 {
		if id, err := result.LastInsertId(); err == nil && id > 0 {
			p.ID = id
		}
	}
	return nil
}

// GetProductByLabel returns the product for the label, or sql.ErrNoRows.
func (db *DB) GetProductByLabel(label string) (*Product, error) {
	var p Product
	err := db.QueryRow(
		`SELECT id, label, display_name, price_cents FROM products WHERE label = ?`,
		label).Scan(&p.ID, &p.Label, &p.DisplayName, &p.PriceCents)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts returns the full catalog ordered by label.
func (db *DB) ListProducts() ([]Product, error) {
	rows, err := db.Query(`SELECT id, label, display_name, price_cents FROM products ORDER BY label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Label, &p.DisplayName, &p.PriceCents); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

// DeleteProduct removes the product with the label. Returns false when
// no such product existed.
func (db *DB) DeleteProduct(label string) (bool, error) {
	result, err := db.Exec(`DELETE FROM products WHERE label = ?`, label)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CatalogLabels returns the catalog's labels ordered alphabetically, for
// seeding the lane's countable set.
func (db *DB) CatalogLabels() ([]string, error) {
	rows, err := db.Query(`SELECT label FROM products ORDER BY label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return labels, nil
}

// UnitPriceCents resolves a label to its unit price. Satisfies the
// cart's price lookup.
func (db *DB) UnitPriceCents(label string) (int64, bool) {
	var cents int64
	err := db.QueryRow(`SELECT price_cents FROM products WHERE label = ?`, label).Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false
	}
	if err != nil {
		return 0, false
	}
	return cents, true
}
