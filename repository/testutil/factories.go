package testutil

import (
	"fmt"

	"payengine/models"
)

// CreateTestInvestor creates an investor with an account reference derived
// from the ID
func CreateTestInvestor(id, country string) *models.Investor {
	return &models.Investor{
		ID:                id,
		Name:              fmt.Sprintf("Investor %s", id),
		Country:           country,
		ExternalAccountID: "ext_" + id,
	}
}

// CreateTestAccount creates the bank account matching CreateTestInvestor
func CreateTestAccount(investorID, country, currency string) *models.ExternalAccount {
	return &models.ExternalAccount{
		ID:          "ext_" + investorID,
		InvestorID:  investorID,
		Country:     country,
		Currency:    currency,
		AccountType: models.AccountTypeACH,
		IBAN:        fmt.Sprintf("%s00TEST0000%s", country, investorID),
	}
}

// CreateTestEvent creates a liquidation event with the given total
func CreateTestEvent(id string, totalCents int64) *models.LiquidationEvent {
	return &models.LiquidationEvent{
		ID:               id,
		Name:             fmt.Sprintf("Liquidation %s", id),
		TotalAmountCents: totalCents,
		PayoutDate:       "2024-12-15",
		Status:           "pending",
	}
}
