// Package seed loads a realistic demo dataset: investors across every
// supported payout corridor, their bank accounts, and two liquidation
// events. Edge cases (missing accounts, missing countries, unsupported
// methods, foreign investors with US banks) are included so a demo run
// exercises every skip reason and routing branch.
package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"payengine/database"
	"payengine/models"
	"payengine/repository"
)

type investorSeed struct {
	id        string
	name      string
	country   string
	method    models.AccountType
	accountID string // empty means no bank account on file
	usRouting bool   // ABA routing number present (Wise, Mercury etc.)
}

var investorSeeds = []investorSeed{
	// US investors, the largest group
	{"INV-001", "John Smith", "US", models.AccountTypeACH, "ext_us_001", true},
	{"INV-002", "Sarah Johnson", "US", models.AccountTypeACH, "ext_us_002", true},
	{"INV-003", "Michael Davis", "US", models.AccountTypeACH, "ext_us_003", true},
	{"INV-004", "Emily Wilson", "US", models.AccountTypeWire, "ext_us_004", true},
	{"INV-005", "Robert Brown", "US", models.AccountTypeACH, "ext_us_005", true},

	// SEPA zone
	{"INV-010", "Hans Mueller", "DE", models.AccountTypeACH, "ext_de_001", false},
	{"INV-011", "Pierre Dupont", "FR", models.AccountTypeACH, "ext_fr_001", false},
	{"INV-012", "Carlos Garcia", "ES", models.AccountTypeACH, "ext_es_001", false},
	{"INV-013", "Jan van der Berg", "NL", models.AccountTypeACH, "ext_nl_001", false},
	{"INV-014", "Marco Rossi", "IT", models.AccountTypeACH, "ext_it_001", false},
	{"INV-015", "Lukas Gruber", "AT", models.AccountTypeACH, "ext_at_001", false},
	{"INV-016", "Sophie Janssens", "BE", models.AccountTypeACH, "ext_be_001", false},
	{"INV-017", "Liam O'Connor", "IE", models.AccountTypeACH, "ext_ie_001", false},
	{"INV-018", "Joao Silva", "PT", models.AccountTypeACH, "ext_pt_001", false},
	{"INV-019", "Mika Virtanen", "FI", models.AccountTypeACH, "ext_fi_001", false},
	{"INV-020", "Nikos Papadopoulos", "GR", models.AccountTypeWire, "ext_gr_001", false},

	// One investor per remaining local rail
	{"INV-030", "James Thompson", "GB", models.AccountTypeACH, "ext_gb_001", false},
	{"INV-032", "Alexandre Tremblay", "CA", models.AccountTypeACH, "ext_ca_001", false},
	{"INV-033", "Felix Brunner", "CH", models.AccountTypeACH, "ext_ch_001", false},
	{"INV-034", "Piotr Kowalski", "PL", models.AccountTypeACH, "ext_pl_001", false},
	{"INV-035", "Jack Mitchell", "AU", models.AccountTypeACH, "ext_au_001", false},
	{"INV-036", "Wei Lin Tan", "SG", models.AccountTypeACH, "ext_sg_001", false},
	{"INV-037", "Raj Patel", "IN", models.AccountTypeACH, "ext_in_001", false},
	{"INV-038", "Yuki Tanaka", "JP", models.AccountTypeACH, "ext_jp_001", false},
	{"INV-039", "Lars Andersen", "DK", models.AccountTypeACH, "ext_dk_001", false},
	{"INV-040", "Olivia Campbell", "NZ", models.AccountTypeACH, "ext_nz_001", false},
	{"INV-041", "Erik Hansen", "NO", models.AccountTypeACH, "ext_no_001", false},
	{"INV-042", "Ka Wing Chan", "HK", models.AccountTypeACH, "ext_hk_001", false},
	{"INV-043", "Anna Lindqvist", "SE", models.AccountTypeACH, "ext_se_001", false},
	{"INV-044", "Andrei Popescu", "RO", models.AccountTypeACH, "ext_ro_001", false},
	{"INV-045", "Maria Hernandez", "MX", models.AccountTypeACH, "ext_mx_001", false},
	{"INV-046", "Noam Levy", "IL", models.AccountTypeACH, "ext_il_001", false},
	{"INV-047", "Budi Santoso", "ID", models.AccountTypeACH, "ext_id_001", false},
	{"INV-048", "Gabor Nagy", "HU", models.AccountTypeACH, "ext_hu_001", false},

	// Foreign investors holding US bank accounts (Wise, Mercury)
	{"INV-050", "Kenji Watanabe", "JP", models.AccountTypeACH, "ext_jp_wise_001", true},
	{"INV-051", "Ana Soares", "BR", models.AccountTypeACH, "ext_br_merc_001", true},

	// Unsupported countries, fall back to international wire
	{"INV-052", "Omar Al-Rashid", "AE", models.AccountTypeWire, "ext_ae_001", false},
	{"INV-053", "Kim Soo-Jin", "KR", models.AccountTypeWire, "ext_kr_001", false},

	// Skip-reason edge cases
	{"INV-060", "Ghost Investor", "US", models.AccountTypeACH, "", false},
	{"INV-061", "Crypto Only", "US", "crypto", "ext_crypto_001", false},
	{"INV-062", "Unknown Origin", "", models.AccountTypeACH, "ext_unknown_001", false},
}

type eventSeed struct {
	id          string
	name        string
	totalAmount string // dollars, converted to cents on load
	payoutDate  string
}

var eventSeeds = []eventSeed{
	{"LIQ-2024-001", "Asset Liquidation #127 - Q4 2024", "2450000.00", "2024-12-15"},
	{"LIQ-2024-002", "Asset Liquidation #128 - Q4 2024", "890000.00", "2024-12-20"},
}

// localCurrencies maps seed countries to the currency of the seeded bank
// account. Countries outside the map hold USD-denominated accounts.
var localCurrencies = map[string]string{
	"GB": "GBP", "CA": "CAD", "CH": "CHF", "PL": "PLN", "AU": "AUD",
	"SG": "SGD", "IN": "INR", "JP": "JPY", "DK": "DKK", "NZ": "NZD",
	"NO": "NOK", "HK": "HKD", "SE": "SEK", "RO": "RON", "MX": "MXN",
	"IL": "ILS", "ID": "IDR", "HU": "HUF",
	"DE": "EUR", "FR": "EUR", "ES": "EUR", "NL": "EUR", "IT": "EUR",
	"AT": "EUR", "BE": "EUR", "IE": "EUR", "PT": "EUR", "FI": "EUR",
	"GR": "EUR", "LU": "EUR", "LV": "EUR", "LT": "EUR",
}

// Load inserts the demo dataset. Idempotent: every insert is ON CONFLICT DO
// NOTHING, so running it against a seeded database is a no-op.
func Load(ctx context.Context, db *database.DB) error {
	investorRepo := repository.NewInvestorRepository(db)
	accountRepo := repository.NewExternalAccountRepository(db)
	eventRepo := repository.NewLiquidationEventRepository(db)

	for _, s := range investorSeeds {
		investor := &models.Investor{
			ID:                s.id,
			Name:              s.name,
			Country:           s.country,
			ExternalAccountID: s.accountID,
		}
		if err := investorRepo.Create(ctx, investor); err != nil {
			return fmt.Errorf("failed to seed investor %s: %w", s.id, err)
		}

		if s.accountID == "" {
			continue
		}

		account := &models.ExternalAccount{
			ID:          s.accountID,
			InvestorID:  s.id,
			Country:     s.country,
			Currency:    accountCurrency(s),
			AccountType: s.method,
		}
		if s.usRouting {
			account.RoutingNumber = "021000021"
		} else {
			account.SwiftBIC = fmt.Sprintf("DEMO%s2X", fallbackCountry(s.country))
			account.IBAN = fmt.Sprintf("%s00DEMO0000%s", fallbackCountry(s.country), s.id[4:])
		}
		if err := accountRepo.Create(ctx, account); err != nil {
			return fmt.Errorf("failed to seed account %s: %w", s.accountID, err)
		}
	}

	for _, e := range eventSeeds {
		amount, err := decimal.NewFromString(e.totalAmount)
		if err != nil {
			return fmt.Errorf("invalid seed amount for %s: %w", e.id, err)
		}
		event := &models.LiquidationEvent{
			ID:               e.id,
			Name:             e.name,
			TotalAmountCents: amount.Shift(2).IntPart(),
			PayoutDate:       e.payoutDate,
			Status:           "pending",
		}
		if err := eventRepo.Create(ctx, event); err != nil {
			return fmt.Errorf("failed to seed event %s: %w", e.id, err)
		}
	}

	log.WithFields(log.Fields{
		"investors": len(investorSeeds),
		"events":    len(eventSeeds),
	}).Info("Seed data loaded")

	return nil
}

func accountCurrency(s investorSeed) string {
	if s.usRouting {
		return "USD"
	}
	if cur, ok := localCurrencies[s.country]; ok {
		return cur
	}
	return "USD"
}

func fallbackCountry(country string) string {
	if country == "" {
		return "XX"
	}
	return country
}
