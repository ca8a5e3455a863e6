package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"payengine/database"
	"payengine/models"
)

// InvestorRepository reads the investor directory. The orchestration core
// never writes investor data; the seed loader owns inserts.
type InvestorRepository struct {
	q queryable
}

// NewInvestorRepository creates a new investor repository
func NewInvestorRepository(db *database.DB) *InvestorRepository {
	return &InvestorRepository{q: db.Pool}
}

// newInvestorRepositoryWithTx creates an investor repository bound to a transaction
func newInvestorRepositoryWithTx(tx queryable) *InvestorRepository {
	return &InvestorRepository{q: tx}
}

// GetAll returns every investor in the directory
func (r *InvestorRepository) GetAll(ctx context.Context) ([]*models.Investor, error) {
	query := `SELECT id, name, country, external_account_id FROM investors ORDER BY id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get investors: %w", err)
	}
	defer rows.Close()

	var investors []*models.Investor
	for rows.Next() {
		var inv models.Investor
		if err := rows.Scan(&inv.ID, &inv.Name, &inv.Country, &inv.ExternalAccountID); err != nil {
			return nil, fmt.Errorf("failed to scan investor: %w", err)
		}
		investors = append(investors, &inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate investors: %w", err)
	}
	return investors, nil
}

// GetByID retrieves an investor by ID
func (r *InvestorRepository) GetByID(ctx context.Context, id string) (*models.Investor, error) {
	query := `SELECT id, name, country, external_account_id FROM investors WHERE id = $1`

	var inv models.Investor
	err := r.q.QueryRow(ctx, query, id).Scan(&inv.ID, &inv.Name, &inv.Country, &inv.ExternalAccountID)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get investor %s: %w", id, err)
	}
	return &inv, nil
}

// Create inserts an investor. Used by the seed loader only.
func (r *InvestorRepository) Create(ctx context.Context, inv *models.Investor) error {
	query := `
		INSERT INTO investors (id, name, country, external_account_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, query, inv.ID, inv.Name, inv.Country, inv.ExternalAccountID); err != nil {
		return fmt.Errorf("failed to create investor %s: %w", inv.ID, err)
	}
	return nil
}
