// Package normalize produces canonical merchant names from raw transaction
// descriptions by stripping payment-processor noise.
package normalize

import (
	"regexp"
	"strings"
)

// processorPrefixes are marks that point-of-sale aggregators prepend to the
// real merchant name. Longest first so overlapping forms strip correctly.
var processorPrefixes = []string{
	"PAYPAL *",
	"PAYPAL*",
	"AMZN MKTP ",
	"GOOGLE *",
	"APPLE.COM/BILL ",
	"PYPL ",
	"TST* ",
	"TST*",
	"SQ *",
	"SQ*",
	"SP * ",
	"SP *",
	"IC* ",
	"IC*",
	"DD *",
	"CKE*",
}

// restaurantPOSPrefixes identify restaurant point-of-sale systems; a
// transaction carrying one is a dining charge even when the merchant name
// itself matches nothing.
var restaurantPOSPrefixes = []string{"TST*", "TST *"}

// aggregatorPrefixes identify payment aggregators that hide the real
// merchant entirely; pattern matching on the residue is unreliable.
var aggregatorPrefixes = []string{"PAYPAL", "PYPL", "SP *", "SP*"}

var (
	storeNumberRe = regexp.MustCompile(`\s*#\s?\d+\b`)
	legalSuffixRe = regexp.MustCompile(`\s+(LLC|INC|CORP|LTD|PLC|CO)\.?$`)
	longDigitsRe  = regexp.MustCompile(`\s+\d{4,}$`)
	stateZipRe    = regexp.MustCompile(`\s+[A-Z]{2}\s+\d{5}(-\d{4})?$`)
	trailingDate  = regexp.MustCompile(`\s+\d{1,2}/\d{1,2}(/\d{2,4})?$`)
	cityStateRe   = regexp.MustCompile(`\s+[A-Z]{3,}(\s+[A-Z]{3,})?\s+(AL|AK|AZ|AR|CA|CO|CT|DE|FL|GA|HI|ID|IL|IN|IA|KS|KY|LA|ME|MD|MA|MI|MN|MS|MO|MT|NE|NV|NH|NJ|NM|NY|NC|ND|OH|OK|OR|PA|RI|SC|SD|TN|TX|UT|VT|VA|WA|WV|WI|WY|DC)$`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

var suffixPatterns = []*regexp.Regexp{
	storeNumberRe,
	longDigitsRe,
	stateZipRe,
	trailingDate,
	cityStateRe,
	legalSuffixRe,
}

// Merchant converts a raw transaction description into a canonical uppercase
// merchant string. It is a pure function: no I/O, and inputs matching no
// pattern come back unchanged (apart from case and whitespace). The result
// is a fixpoint, so Merchant(Merchant(x)) == Merchant(x).
func Merchant(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))

	for _, prefix := range processorPrefixes {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
			break
		}
	}

	// Suffix strips can expose further strippable suffixes (a store number
	// ahead of a city/state, for instance), so run them to a fixpoint.
	for {
		before := s
		for _, re := range suffixPatterns {
			s = strings.TrimSpace(re.ReplaceAllString(s, ""))
		}
		s = whitespaceRe.ReplaceAllString(s, " ")
		if s == before {
			break
		}
	}

	return s
}

// HasRestaurantPOSPrefix reports whether the raw description carries a known
// restaurant point-of-sale mark.
func HasRestaurantPOSPrefix(raw string) bool {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	for _, prefix := range restaurantPOSPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}

// HasAggregatorPrefix reports whether the raw description carries a payment
// aggregator mark that hides the underlying merchant.
func HasAggregatorPrefix(raw string) bool {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	for _, prefix := range aggregatorPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}
