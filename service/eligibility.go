package service

import (
	"fmt"

	"payengine/models"
)

// Verdict is the outcome of an eligibility check
type Verdict struct {
	Eligible   bool
	SkipReason models.SkipReason // set when not eligible
	Detail     string            // human-readable context for the audit trail
}

// CheckEligibility decides whether a payout may proceed to routing and
// execution. Pure and side-effect free: it never calls the provider or
// mutates state.
//
// Checks run in a fixed priority order so each payout gets exactly one skip
// reason even when several conditions hold. The existing-order check comes
// first: idempotency dominates every other reason.
func CheckEligibility(investor *models.Investor, account *models.ExternalAccount, payout *models.Payout) Verdict {
	if payout != nil && payout.HasPaymentOrder() {
		return Verdict{
			SkipReason: models.SkipReasonExistingPaymentOrder,
			Detail:     fmt.Sprintf("payment order already exists: %s", payout.PaymentOrderID),
		}
	}

	if account == nil {
		return Verdict{
			SkipReason: models.SkipReasonMissingExternalAccount,
			Detail:     "no external bank account on file",
		}
	}

	if investor == nil || investor.Country == "" {
		return Verdict{
			SkipReason: models.SkipReasonMissingCountry,
			Detail:     "missing country code",
		}
	}

	if !account.AccountType.Valid() {
		return Verdict{
			SkipReason: models.SkipReasonInvalidMethod,
			Detail:     fmt.Sprintf("unsupported account type: %s", account.AccountType),
		}
	}

	if payout != nil && payout.AmountCents <= 0 {
		return Verdict{
			SkipReason: models.SkipReasonInvalidAmount,
			Detail:     fmt.Sprintf("invalid amount: %d", payout.AmountCents),
		}
	}

	return Verdict{Eligible: true}
}
