package models

// AccountType classifies an external bank account by the method it supports
type AccountType string

const (
	AccountTypeACH  AccountType = "ach"
	AccountTypeWire AccountType = "wire"
)

// Valid reports whether the account type is supported by any payment rail
func (t AccountType) Valid() bool {
	return t == AccountTypeACH || t == AccountTypeWire
}

// Investor is an entry in the investor directory. The orchestration core
// only reads this data.
type Investor struct {
	ID                string `db:"id"`
	Name              string `db:"name"`
	Country           string `db:"country"` // ISO 3166-1 alpha-2, may be empty
	ExternalAccountID string `db:"external_account_id"`
}

// ExternalAccount holds bank-account metadata supplied by the account
// directory. Read-only collaborator data.
type ExternalAccount struct {
	ID            string      `db:"id"`
	InvestorID    string      `db:"investor_id"`
	Country       string      `db:"country"`
	Currency      string      `db:"currency"`
	AccountType   AccountType `db:"account_type"`
	RoutingNumber string      `db:"routing_number"` // ABA routing, set for US-domiciled accounts
	IBAN          string      `db:"iban"`
	SwiftBIC      string      `db:"swift_bic"`
}

// HasUSRouting reports whether the account is a domestic US bank account.
// Foreign investors holding one (Wise, Mercury and similar) are routed over
// domestic ACH instead of a costly cross-border rail.
func (a *ExternalAccount) HasUSRouting() bool {
	return a != nil && a.RoutingNumber != ""
}
