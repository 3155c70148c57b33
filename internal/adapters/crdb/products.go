package crdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/robertarktes/event-marketplace/internal/domain"
)

const productColumns = `id, vendor_id, stall_id, name, description, price::FLOAT8, image, created_at, updated_at`

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.VendorID, &p.StallID, &p.Name, &p.Description, &p.Price, &p.Image, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) InsertProduct(ctx context.Context, p *domain.Product) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO products (id, vendor_id, stall_id, name, description, price, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, p.ID, p.VendorID, p.StallID, p.Name, p.Description, p.Price, p.Image).Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapErr(err, "insert product")
}

func (r *Repository) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, "get product")
	}
	return p, nil
}

// UpdateProduct writes the product only if it still belongs to its vendor.
func (r *Repository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE products SET stall_id = $3, name = $4, description = $5, price = $6, image = $7, updated_at = now()
		WHERE id = $1 AND vendor_id = $2
		RETURNING updated_at
	`, p.ID, p.VendorID, p.StallID, p.Name, p.Description, p.Price, p.Image).Scan(&p.UpdatedAt)
	return mapErr(err, "update product")
}

func (r *Repository) DeleteProduct(ctx context.Context, id, vendorID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1 AND vendor_id = $2`, id, vendorID)
	if err != nil {
		return mapErr(err, "delete product")
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) listProducts(ctx context.Context, op, where string, arg any) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE `+where+` ORDER BY created_at DESC`, arg)
	if err != nil {
		return nil, mapErr(err, op)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, mapErr(err, op)
		}
		products = append(products, *p)
	}
	return products, mapErr(rows.Err(), op)
}

func (r *Repository) ListProductsByVendor(ctx context.Context, vendorID uuid.UUID) ([]domain.Product, error) {
	return r.listProducts(ctx, "list vendor products", "vendor_id = $1", vendorID)
}

func (r *Repository) ListProductsByStall(ctx context.Context, stallID uuid.UUID) ([]domain.Product, error) {
	return r.listProducts(ctx, "list stall products", "stall_id = $1", stallID)
}
