package biometry

import (
	"fmt"
	"regexp"
	"strings"
)

// Proximity patterns cache, keyed by eye side then label. Built once; the
// label and eye sets are closed.
var (
	eyeThenLabelRe = map[string]map[string]*regexp.Regexp{}
	labelThenEyeRe = map[string]map[string]*regexp.Regexp{}
	eyeAxisRe      = map[string]*regexp.Regexp{}
	eyeAxisBareRe  = map[string]*regexp.Regexp{}
)

func init() {
	for _, eye := range []string{EyeOD, EyeOS} {
		eyeThenLabelRe[eye] = make(map[string]*regexp.Regexp, len(measurementTable))
		labelThenEyeRe[eye] = make(map[string]*regexp.Regexp, len(measurementTable))
		for _, m := range measurementTable {
			eyeThenLabelRe[eye][m.Label] = regexp.MustCompile(
				fmt.Sprintf(`(?is)%s[:\s]*.*?%s[:\s]+([\d.,]+)`, eye, m.Label))
			labelThenEyeRe[eye][m.Label] = regexp.MustCompile(
				fmt.Sprintf(`(?is)%s[:\s]+([\d.,]+).*?%s`, m.Label, eye))
		}
		eyeAxisRe[eye] = regexp.MustCompile(fmt.Sprintf(`(?is)%s[:\s]*.*?@\s*(\d+)\s*°`, eye))
		eyeAxisBareRe[eye] = regexp.MustCompile(fmt.Sprintf(`(?is)%s[:\s]*.*?@\s*(\d+)`, eye))
	}
}

// extractEyeFromText re-derives the full field set for one eye from the raw
// document text. Used only when the table path produced nothing usable.
// Every field that cannot be found degrades to "".
func extractEyeFromText(text, eye string) *accumulator {
	acc := newAccumulator()

	for _, m := range measurementTable {
		val := matchNumeric(eyeThenLabelRe[eye][m.Label], text)
		if val == "" {
			val = matchNumeric(labelThenEyeRe[eye][m.Label], text)
		}
		acc.setIfAbsent(m.Field, val)
	}

	axis := ""
	if m := eyeAxisRe[eye].FindStringSubmatch(text); m != nil {
		axis = m[1]
	} else if m := axisDegreeRe.FindStringSubmatch(text); m != nil {
		axis = m[1]
	} else if m := eyeAxisBareRe[eye].FindStringSubmatch(text); m != nil {
		axis = m[1]
	} else if m := axisBareRe.FindStringSubmatch(text); m != nil {
		axis = m[1]
	}
	acc.setIfAbsent(FieldAxis, axis)

	return acc
}

// matchNumeric applies re and validates the captured value as a number,
// converting the decimal comma. Returns "" on any failure.
func matchNumeric(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	val := strings.ReplaceAll(strings.TrimSpace(m[1]), ",", ".")
	if !isNumeric(val) {
		return ""
	}
	return val
}
