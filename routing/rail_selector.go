package routing

import (
	"fmt"
	"strings"

	"payengine/models"
)

// HomeCountry is where the originating accounts are domiciled
const HomeCountry = "US"

const (
	// RailACH is the domestic rail for US-domiciled accounts
	RailACH = "ach"
	// RailWire is the international fallback for countries without a local rail
	RailWire = "wire"

	// FXFixedToVariable fixes the source USD amount; the destination amount
	// varies with the rate the provider applies at execution time.
	FXFixedToVariable = "fixed_to_variable"
)

// Decision is the outcome of rail selection for a single payout
type Decision struct {
	Rail        string // e.g. "ach", "sepa", "zengin", "wire"
	Currency    string // ISO 4217 settlement currency
	CrossBorder bool
	FXIndicator string // set to FXFixedToVariable on cross-border rails
	Purpose     string // purpose code where the rail requires one
	Label       string // human-readable routing summary
}

// SelectRail picks the payment rail for a payout. It is a pure, total
// function: every input resolves to exactly one rail, with the international
// wire guaranteeing a result for unsupported countries.
//
// Priority, first match wins:
//  1. Foreign investor holding a US bank account (ABA routing present) →
//     domestic ACH in USD. Covers Wise, Mercury and similar multi-currency
//     account providers.
//  2. Home-country investor → domestic ACH in USD.
//  3. Country with a dedicated local rail → that rail in local currency.
//  4. Anything else → international wire, USD, cross-border.
//
// The account type is a preference hint only; it is validated during the
// eligibility check and does not override country-based routing.
func SelectRail(country string, accountType models.AccountType, hasUSRouting bool) Decision {
	code := strings.ToUpper(strings.TrimSpace(country))

	if hasUSRouting && code != HomeCountry {
		return Decision{
			Rail:     RailACH,
			Currency: "USD",
			Label:    fmt.Sprintf("ACH (US): foreign investor (%s) with US bank", code),
		}
	}

	if code == HomeCountry {
		return Decision{
			Rail:     RailACH,
			Currency: "USD",
			Label:    "ACH (US)",
		}
	}

	if cfg, ok := globalACHMap[code]; ok {
		return Decision{
			Rail:     cfg.Rail,
			Currency: cfg.Currency,
			Purpose:  cfg.Purpose,
			Label:    fmt.Sprintf("Global ACH %s (%s)", strings.ToUpper(cfg.Rail), cfg.Currency),
		}
	}

	if code == "" {
		code = "unknown"
	}
	return Decision{
		Rail:        RailWire,
		Currency:    "USD",
		CrossBorder: true,
		FXIndicator: FXFixedToVariable,
		Label:       fmt.Sprintf("Wire (International): %s", code),
	}
}
