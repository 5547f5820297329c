package domain

// countryAliases maps country-level spellings seen in the source files to the
// canonical entity key. Canonical values must never appear as keys so that
// canonicalization stays idempotent.
var countryAliases = map[string]string{
	"China":                          "Mainland China",
	"Taiwan*":                        "Taiwan",
	"Korea, South":                   "South Korea",
	"Korea, North":                   "North Korea",
	"Republic of Korea":              "South Korea",
	"US":                             "United States",
	"Burma":                          "Myanmar",
	"Czechia":                        "Czech Republic",
	"Cabo Verde":                     "Cape Verde",
	"Congo (Kinshasa)":               "Democratic Republic of the Congo",
	"Congo (Brazzaville)":            "Republic of the Congo",
	"Cote d'Ivoire":                  "Ivory Coast",
	"Holy See":                       "Vatican City",
	"Timor-Leste":                    "East Timor",
	"West Bank and Gaza":             "Palestine",
	"Eswatini":                       "Swaziland",
	"North Macedonia":                "Macedonia",
	"Iran (Islamic Republic of)":     "Iran",
	"Russian Federation":             "Russia",
	"Viet Nam":                       "Vietnam",
	"Republic of Moldova":            "Moldova",
	"occupied Palestinian territory": "Palestine",
	"Hong Kong SAR":                  "Hong Kong",
	"Macao SAR":                      "Macau",
	"UK":                             "United Kingdom",
	"The Bahamas":                    "Bahamas",
	"Bahamas, The":                   "Bahamas",
	"The Gambia":                     "Gambia",
	"Gambia, The":                    "Gambia",
	"Micronesia":                     "Federated States of Micronesia",
	"Summer Olympics 2020":           "Japan",
	"Winter Olympics 2022":           "Mainland China",
}

// territoryOverrides keys special territories by their sub-region label.
// These win over the parent country's alias.
var territoryOverrides = map[string]string{
	"Hong Kong":                   "Hong Kong",
	"Macau":                       "Macau",
	"Greenland":                   "Greenland",
	"Faroe Islands":               "Faroe Islands",
	"French Guiana":               "French Guiana",
	"French Polynesia":            "French Polynesia",
	"Guadeloupe":                  "Guadeloupe",
	"Martinique":                  "Martinique",
	"Mayotte":                     "Mayotte",
	"New Caledonia":               "New Caledonia",
	"Reunion":                     "Reunion",
	"Aruba":                       "Aruba",
	"Curacao":                     "Curacao",
	"Sint Maarten":                "Sint Maarten",
	"Bermuda":                     "Bermuda",
	"Cayman Islands":              "Cayman Islands",
	"Gibraltar":                   "Gibraltar",
	"Isle of Man":                 "Isle of Man",
	"Channel Islands":             "Channel Islands",
	"Montserrat":                  "Montserrat",
	"Anguilla":                    "Anguilla",
	"British Virgin Islands":      "British Virgin Islands",
	"Turks and Caicos Islands":    "Turks and Caicos Islands",
	"Falkland Islands (Malvinas)": "Falkland Islands",
	"Saint Pierre and Miquelon":   "Saint Pierre and Miquelon",
	"St Martin":                   "Saint Martin",
	"Saint Barthelemy":            "Saint Barthelemy",
	"Wallis and Futuna":           "Wallis and Futuna",
}

// Canonicalize maps a raw entity label to its canonical key. A sub-region
// naming a special territory takes priority over the country alias; unknown
// labels are returned unchanged.
func Canonicalize(label, subRegion string) string {
	if subRegion != "" {
		if t, ok := territoryOverrides[subRegion]; ok {
			return t
		}
	}
	if c, ok := countryAliases[label]; ok {
		return c
	}
	return label
}

// CanonicalizeRows returns copies of rows with canonical entity keys.
func CanonicalizeRows(rows []RawRow) []RawRow {
	out := make([]RawRow, len(rows))
	for i, r := range rows {
		r.Entity = Canonicalize(r.Entity, r.SubRegion)
		r.Values = append([]float64(nil), r.Values...)
		out[i] = r
	}
	return out
}

// KnownAliases returns a copy of the country alias table.
func KnownAliases() map[string]string {
	return copyTable(countryAliases)
}

// KnownTerritories returns a copy of the territory override table.
func KnownTerritories() map[string]string {
	return copyTable(territoryOverrides)
}

func copyTable(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
