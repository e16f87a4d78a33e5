package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anishgarg29/Marketplace-Order-Service/internal/order/application"
	"github.com/anishgarg29/Marketplace-Order-Service/internal/order/domain"
)

// CatalogStore reads the catalog's product->vendor ownership facts. The
// tables belong to the catalog service; this side never writes them.
// Each call answers from the live table, so queries within one request see
// one snapshot and nothing is cached across requests.
type CatalogStore struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewCatalogStore(log *slog.Logger, pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{log: log, pool: pool}
}

func (s *CatalogStore) OwnedProducts(ctx context.Context, vendorID string) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM products WHERE vendor_id=$1`, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owned := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owned[id] = struct{}{}
	}
	return owned, rows.Err()
}

func (s *CatalogStore) ResolveOwners(ctx context.Context, productIDs []string) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, vendor_id FROM products WHERE id = ANY($1)`, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owners := make(map[string]string, len(productIDs))
	for rows.Next() {
		var id, vendorID string
		if err := rows.Scan(&id, &vendorID); err != nil {
			return nil, err
		}
		owners[id] = vendorID
	}
	return owners, rows.Err()
}

// VendorStore reads the vendor directory, also owned elsewhere.
type VendorStore struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewVendorStore(log *slog.Logger, pool *pgxpool.Pool) *VendorStore {
	return &VendorStore{log: log, pool: pool}
}

func (s *VendorStore) Get(ctx context.Context, vendorID string) (domain.Vendor, error) {
	var v domain.Vendor
	err := s.pool.QueryRow(ctx, `SELECT id, status FROM vendors WHERE id=$1`, vendorID).
		Scan(&v.ID, &v.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Vendor{}, application.ErrNotFound
	}
	if err != nil {
		return domain.Vendor{}, err
	}
	return v, nil
}
