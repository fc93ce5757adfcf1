package biometry

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	numberTokenRe = regexp.MustCompile(`[\d,\.]+`)

	// Per-label value capture, compiled once. Strict form wants an explicit
	// separator; the lazy form tolerates units and line breaks between the
	// label and its value.
	inlineValueRe = compileValuePatterns(`%s\s*[:=]\s*([\d,\.]+)`)
	lazyValueRe   = compileValuePatterns(`(?s)%s.*?([\d,\.]+)`)
)

func compileValuePatterns(format string) map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(measurementTable))
	for _, m := range measurementTable {
		patterns[m.Label] = regexp.MustCompile(fmt.Sprintf(format, m.Label))
	}
	return patterns
}

// unitStripper removes the unit tokens instruments print after values.
var unitStripper = strings.NewReplacer("mm", "", "µm", "", "µ", "", "D", "", "°", "")

// cleanNumber strips units, trims, and converts the decimal comma. Returns
// "" when the remainder is not a number.
func cleanNumber(raw string) string {
	val := strings.TrimSpace(unitStripper.Replace(raw))
	val = strings.ReplaceAll(val, ",", ".")
	if !isNumeric(val) {
		return ""
	}
	return val
}

// isNumeric reports whether s parses as a floating-point number after
// decimal-comma substitution.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	return err == nil
}

// extractValue pulls the numeric value for label out of text, trying three
// strategies in order:
//  1. strict "LABEL: 24,18 mm" capture
//  2. lazy capture across the whole (possibly multi-line) text
//  3. first number-like token whose magnitude is plausible for a biometry
//     measurement (0.5–100), guarding against row indices and other strays
//
// Returns "" when nothing usable is found; that is the expected outcome for
// many cells and never an error.
func extractValue(text, label string) string {
	upper := strings.ToUpper(text)

	if re, ok := inlineValueRe[label]; ok {
		if m := re.FindStringSubmatch(upper); m != nil {
			if val := cleanNumber(m[1]); val != "" {
				return val
			}
		}
	}

	if re, ok := lazyValueRe[label]; ok {
		if m := re.FindStringSubmatch(upper); m != nil {
			if val := cleanNumber(m[1]); val != "" {
				return val
			}
		}
	}

	for _, token := range numberTokenRe.FindAllString(text, -1) {
		val := strings.ReplaceAll(strings.TrimSpace(token), ",", ".")
		if !isNumeric(val) {
			continue
		}
		num, _ := strconv.ParseFloat(val, 64)
		if num > 0.5 && num < 100 {
			return val
		}
	}

	return ""
}
