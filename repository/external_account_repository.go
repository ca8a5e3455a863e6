package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"payengine/database"
	"payengine/models"
)

// ExternalAccountRepository reads bank-account metadata from the account
// directory
type ExternalAccountRepository struct {
	q queryable
}

// NewExternalAccountRepository creates a new external account repository
func NewExternalAccountRepository(db *database.DB) *ExternalAccountRepository {
	return &ExternalAccountRepository{q: db.Pool}
}

// newExternalAccountRepositoryWithTx creates an account repository bound to a transaction
func newExternalAccountRepositoryWithTx(tx queryable) *ExternalAccountRepository {
	return &ExternalAccountRepository{q: tx}
}

// GetByInvestorID returns the investor's bank account, or nil when none is
// on file
func (r *ExternalAccountRepository) GetByInvestorID(ctx context.Context, investorID string) (*models.ExternalAccount, error) {
	query := `
		SELECT id, investor_id, country, currency, account_type, routing_number, iban, swift_bic
		FROM external_accounts
		WHERE investor_id = $1
	`
	var acct models.ExternalAccount
	err := r.q.QueryRow(ctx, query, investorID).Scan(
		&acct.ID,
		&acct.InvestorID,
		&acct.Country,
		&acct.Currency,
		&acct.AccountType,
		&acct.RoutingNumber,
		&acct.IBAN,
		&acct.SwiftBIC,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get external account for investor %s: %w", investorID, err)
	}
	return &acct, nil
}

// Create inserts an external account. Used by the seed loader only.
func (r *ExternalAccountRepository) Create(ctx context.Context, acct *models.ExternalAccount) error {
	query := `
		INSERT INTO external_accounts (id, investor_id, country, currency, account_type, routing_number, iban, swift_bic)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.q.Exec(ctx, query,
		acct.ID,
		acct.InvestorID,
		acct.Country,
		acct.Currency,
		acct.AccountType,
		acct.RoutingNumber,
		acct.IBAN,
		acct.SwiftBIC,
	)
	if err != nil {
		return fmt.Errorf("failed to create external account %s: %w", acct.ID, err)
	}
	return nil
}
