package routing

// railConfig describes the local rail used to reach a destination country
type railConfig struct {
	Rail     string // rail identifier, e.g. "sepa", "bacs"
	Currency string // ISO 4217 settlement currency
	Purpose  string // purpose code where the rail requires one
}

// globalACHMap maps ISO 3166-1 alpha-2 country codes to their local payment
// rail. Countries present here settle in local currency over the named rail;
// everything else falls back to an international wire in USD.
var globalACHMap = map[string]railConfig{
	// SEPA zone (EUR): IBAN-only routing
	"DE": {Rail: "sepa", Currency: "EUR"},
	"FR": {Rail: "sepa", Currency: "EUR"},
	"ES": {Rail: "sepa", Currency: "EUR"},
	"NL": {Rail: "sepa", Currency: "EUR"},
	"IT": {Rail: "sepa", Currency: "EUR"},
	"AT": {Rail: "sepa", Currency: "EUR"},
	"BE": {Rail: "sepa", Currency: "EUR"},
	"IE": {Rail: "sepa", Currency: "EUR"},
	"PT": {Rail: "sepa", Currency: "EUR"},
	"FI": {Rail: "sepa", Currency: "EUR"},
	"GR": {Rail: "sepa", Currency: "EUR"},
	"LU": {Rail: "sepa", Currency: "EUR"},
	"CY": {Rail: "sepa", Currency: "EUR"},
	"MT": {Rail: "sepa", Currency: "EUR"},
	"SK": {Rail: "sepa", Currency: "EUR"},
	"LT": {Rail: "sepa", Currency: "EUR"},
	"SI": {Rail: "sepa", Currency: "EUR"},
	"EE": {Rail: "sepa", Currency: "EUR"},
	"LV": {Rail: "sepa", Currency: "EUR"},

	// UK: sort code + account number
	"GB": {Rail: "bacs", Currency: "GBP"},
	// Canada: EFT, CPA purpose code 250 (miscellaneous)
	"CA": {Rail: "eft", Currency: "CAD", Purpose: "250"},
	// Switzerland: Swiss Interbank Clearing
	"CH": {Rail: "sic", Currency: "CHF"},
	// Poland: ELIXIR interbank clearing
	"PL": {Rail: "pl_elixir", Currency: "PLN"},
	// Australia: BECS, BSB + account number
	"AU": {Rail: "au_becs", Currency: "AUD"},
	// Singapore: GIRO
	"SG": {Rail: "sg_giro", Currency: "SGD"},
	// India: NEFT, IFSC routing
	"IN": {Rail: "neft", Currency: "INR"},
	// Japan: Zengin System
	"JP": {Rail: "zengin", Currency: "JPY"},
	// Denmark: interbank clearing via Nets
	"DK": {Rail: "dk_nets", Currency: "DKK"},
	// New Zealand: NZ BECS
	"NZ": {Rail: "nz_becs", Currency: "NZD"},
	// Norway: NICS
	"NO": {Rail: "nics", Currency: "NOK"},
	// Hong Kong: CHATS
	"HK": {Rail: "chats", Currency: "HKD"},
	// Sweden: Bankgirot
	"SE": {Rail: "se_bankgirot", Currency: "SEK"},
	// Romania: SENT
	"RO": {Rail: "ro_sent", Currency: "RON"},
	// Mexico: CCEN (SPEI), 18-digit CLABE
	"MX": {Rail: "mx_ccen", Currency: "MXN"},
	// Israel: MASAV
	"IL": {Rail: "masav", Currency: "ILS"},
	// Indonesia: SKNBI
	"ID": {Rail: "sknbi", Currency: "IDR"},
	// Hungary: HU ICS
	"HU": {Rail: "hu_ics", Currency: "HUF"},
}

// SupportedCountries returns every country with a dedicated local rail,
// including the home country.
func SupportedCountries() []string {
	countries := make([]string, 0, len(globalACHMap)+1)
	countries = append(countries, HomeCountry)
	for code := range globalACHMap {
		countries = append(countries, code)
	}
	return countries
}
