package records

import "strings"

// usStates maps lower-case US state names to their postal codes.
var usStates = map[string]string{
	"alabama":              "AL",
	"alaska":               "AK",
	"arizona":              "AZ",
	"arkansas":             "AR",
	"california":           "CA",
	"colorado":             "CO",
	"connecticut":          "CT",
	"delaware":             "DE",
	"florida":              "FL",
	"georgia":              "GA",
	"hawaii":               "HI",
	"idaho":                "ID",
	"illinois":             "IL",
	"indiana":              "IN",
	"iowa":                 "IA",
	"kansas":               "KS",
	"kentucky":             "KY",
	"louisiana":            "LA",
	"maine":                "ME",
	"maryland":             "MD",
	"massachusetts":        "MA",
	"michigan":             "MI",
	"minnesota":            "MN",
	"mississippi":          "MS",
	"missouri":             "MO",
	"montana":              "MT",
	"nebraska":             "NE",
	"nevada":               "NV",
	"new hampshire":        "NH",
	"new jersey":           "NJ",
	"new mexico":           "NM",
	"new york":             "NY",
	"north carolina":       "NC",
	"north dakota":         "ND",
	"ohio":                 "OH",
	"oklahoma":             "OK",
	"oregon":               "OR",
	"pennsylvania":         "PA",
	"rhode island":         "RI",
	"south carolina":       "SC",
	"south dakota":         "SD",
	"tennessee":            "TN",
	"texas":                "TX",
	"utah":                 "UT",
	"vermont":              "VT",
	"virginia":             "VA",
	"washington":           "WA",
	"west virginia":        "WV",
	"wisconsin":            "WI",
	"wyoming":              "WY",
	"district of columbia": "DC",
}

// usStateCodes is the set of postal codes in usStates.
var usStateCodes = func() map[string]struct{} {
	codes := make(map[string]struct{}, len(usStates))
	for _, code := range usStates {
		codes[code] = struct{}{}
	}
	return codes
}()

// NormalizeUsState returns the postal code for a state name or code, in any
// case. Unrecognized input is returned trimmed but otherwise unchanged.
func NormalizeUsState(s string) string {
	s = strings.TrimSpace(s)
	if code, ok := usStates[strings.ToLower(strings.ReplaceAll(s, ".", ""))]; ok {
		return code
	}
	if upper := strings.ToUpper(s); len(upper) == 2 {
		if _, ok := usStateCodes[upper]; ok {
			return upper
		}
	}
	return s
}
