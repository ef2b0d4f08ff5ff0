package core

// convert.go provides the coercions record setters use to turn cell text into
// typed values. Each returns a ValidationError naming the field on bad input,
// so the message can be written straight into the error file.
//
// Cells read from spreadsheets arrive as raw text: numbers without grouping,
// dates either as typed text or as Excel serial numbers.

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

var (
	positiveIntRegex = regexp.MustCompile(`^[1-9]\d*$`)
	serialRegex      = regexp.MustCompile(`^\d+(\.\d+)?$`)
	numericRegex     = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)
)

// DateLayouts are tried in order by ParseDate when no layout is given.
var DateLayouts = []string{
	"2006-01-02", "2006/01/02", "2006.01.02",
	"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006",
	"Jan 2, 2006", "2 Jan 2006",
	"20060102",
}

// excelEpoch is day zero of the 1900 date system, adjusted for the
// fictitious 1900-02-29 that Excel counts.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParsePositiveInt parses a strictly positive decimal integer without sign or
// leading zeros. Values above the int32 range are rejected, matching the
// INTEGER columns they are copied into.
func ParsePositiveInt(field, s string) (int, error) {
	s = strings.TrimSpace(s)
	if !positiveIntRegex.MatchString(s) {
		return 0, ValidationError{Field: field, Value: s, Message: "must be a positive integer"}
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, ValidationError{Field: field, Value: s, Message: "integer out of range"}
	}
	return int(n), nil
}

// ExcelSerial is a pseudo-layout for ParseDate accepting Excel serial day
// numbers such as "45292".
const ExcelSerial = "excel-serial"

// ParseDate parses s with the given layouts, or DateLayouts plus ExcelSerial
// when none are given. An explicit layout list accepts serials only if it
// includes ExcelSerial.
func ParseDate(field, s string, layouts ...string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(layouts) == 0 {
		layouts = append(DateLayouts[:len(DateLayouts):len(DateLayouts)], ExcelSerial)
	}

	for _, layout := range layouts {
		if layout == ExcelSerial {
			if t, ok := parseExcelSerial(s); ok {
				return t, nil
			}
			continue
		}
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, ValidationError{
		Field:   field,
		Value:   s,
		Message: "invalid date format (use " + strings.Join(layoutHints(layouts), " or ") + ")",
	}
}

// parseExcelSerial accepts unsigned decimal day numbers of the 1900 date
// system. Signs and exponents are rejected.
func parseExcelSerial(s string) (time.Time, bool) {
	if !serialRegex.MatchString(s) {
		return time.Time{}, false
	}
	days, err := strconv.ParseFloat(s, 64)
	if err != nil || days < 1 || days >= 2958466 {
		return time.Time{}, false
	}
	return excelEpoch.AddDate(0, 0, int(days)), true
}

func layoutHints(layouts []string) []string {
	hints := make([]string, 0, 2)
	for _, l := range layouts {
		if l == ExcelSerial {
			continue
		}
		hints = append(hints, strings.NewReplacer("2006", "YYYY", "01", "MM", "02", "DD").Replace(l))
		if len(hints) == 2 {
			break
		}
	}
	return hints
}

// ParseDecimal parses an amount. Currency symbols, thousands separators and
// accounting negatives "(12.50)" are accepted.
func ParseDecimal(field, s string) (pgtype.Numeric, error) {
	s = strings.TrimSpace(s)
	invalid := ValidationError{Field: field, Value: s, Message: "invalid number format"}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer("$", "", "€", "", "£", "", ",", "").Replace(s)
	s = strings.TrimSpace(s)
	if negative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return pgtype.Numeric{}, invalid
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{}, invalid
	}
	return n, nil
}

// ParseBool accepts true/false, yes/no, t/f, y/n and 1/0 in any case.
func ParseBool(field, s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, nil
	case "false", "f", "no", "n", "0":
		return false, nil
	default:
		return false, ValidationError{Field: field, Value: s, Message: "must be yes/no, true/false, or 1/0"}
	}
}
