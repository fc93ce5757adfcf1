package biometry

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/YoussefMamlouk/ophta-flow/internal/report"
)

var (
	// Patient identifier labels vary between report variants; ordered from
	// the most common form down.
	patientIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)ID\s+Patient[:\s]+([A-Z0-9_\-\s]+)`),
		regexp.MustCompile(`(?im)Patient[:\s]+ID[:\s]+([A-Z0-9_\-\s]+)`),
		regexp.MustCompile(`(?im)ID\s+patient[:\s]+([A-Z0-9_\-\s]+)`),
	}

	birthDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)Né\(e\)\s+le[:\s]+(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})`),
		regexp.MustCompile(`(?im)Date\s+de\s+naissance[:\s]+(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})`),
	}

	nonDigitRe = regexp.MustCompile(`\D`)
)

// birthDateLayouts lists the accepted date formats in priority order. Two
// digit year forms come after their four digit counterparts.
var birthDateLayouts = []string{
	"02.01.2006", // 17.08.2010
	"02/01/2006",
	"02-01-2006",
	"02.01.06", // 17.08.10
	"02/01/06",
	"02-01-06",
	"2006.01.02", // 2010.08.17
	"2006/01/02",
	"2006-01-02",
}

// demographics holds the identity fields shared by both eye records.
type demographics struct {
	PatientID string
	Age       string
}

// extractDemographics finds the patient identifier and birth date in the
// report text, falling back to the raw tables for the birth date, and
// computes the age against now. Both results default to "" on failure.
func extractDemographics(text string, tables []report.Table, now time.Time) demographics {
	var d demographics

	for _, re := range patientIDPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			d.PatientID = normalizePatientID(m[1])
			break
		}
	}

	birthDate := ""
	for _, re := range birthDatePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			birthDate = strings.TrimSpace(m[1])
			break
		}
	}
	if birthDate == "" {
		birthDate = birthDateFromTables(tables)
	}

	if birthDate != "" {
		d.Age = computeAge(birthDate, now)
	}

	return d
}

// normalizePatientID reduces the raw identifier to digits only when it
// carries any digit; otherwise the trimmed original is kept.
func normalizePatientID(raw string) string {
	digits := nonDigitRe.ReplaceAllString(raw, "")
	if digits != "" {
		return digits
	}
	return strings.TrimSpace(raw)
}

// birthDateFromTables scans tables for a row whose first cell carries the
// birth date label; the date itself sits in the third cell on this layout
// family.
func birthDateFromTables(tables []report.Table) string {
	for _, table := range tables {
		for _, row := range table.Rows {
			if len(row) < 3 {
				continue
			}
			first := strings.TrimSpace(row[0])
			if strings.Contains(first, "Né(e) le") || strings.Contains(first, "Né") {
				if v := strings.TrimSpace(row[2]); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

func isTwoDigitYearLayout(layout string) bool {
	return strings.HasSuffix(layout, ".06") ||
		strings.HasSuffix(layout, "/06") ||
		strings.HasSuffix(layout, "-06")
}

// computeAge parses birthDate against the known layouts and returns the age
// in full years at now. An unparsable date yields "" and is not an error.
func computeAge(birthDate string, now time.Time) string {
	var birth time.Time
	parsed := false
	for _, layout := range birthDateLayouts {
		t, err := time.Parse(layout, birthDate)
		if err != nil {
			continue
		}
		// Two-digit years below the 1950 cutoff belong to the 1900s.
		if isTwoDigitYearLayout(layout) && t.Year() < 1950 {
			t = t.AddDate(100, 0, 0)
		}
		birth = t
		parsed = true
		break
	}
	if !parsed {
		return ""
	}

	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return strconv.Itoa(age)
}
