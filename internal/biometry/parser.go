package biometry

import (
	"errors"
	"fmt"
	"time"

	"github.com/YoussefMamlouk/ophta-flow/internal/report"
)

// ErrUnsupportedMachine is returned when no parser exists for the requested
// instrument type. This is a caller-facing configuration error, unlike
// extraction misses which silently degrade to empty values.
var ErrUnsupportedMachine = errors.New("unsupported machine type")

// MachineIOL700 identifies the IOLMaster 700 report family.
const MachineIOL700 = "IOL700"

// Parser extracts per-eye measurement records from one decoded report.
type Parser interface {
	MachineType() string
	Parse(doc *report.Document) []Record
}

// ParserFor returns the parser registered for the given machine type.
func ParserFor(machineType string) (Parser, error) {
	switch machineType {
	case MachineIOL700:
		return NewIOL700Parser(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMachine, machineType)
	}
}

// IOL700Parser handles IOLMaster 700 biometry reports.
type IOL700Parser struct {
	now func() time.Time // injectable for age computation tests
}

// NewIOL700Parser creates a parser for IOLMaster 700 reports.
func NewIOL700Parser() *IOL700Parser {
	return &IOL700Parser{now: time.Now}
}

// MachineType returns the instrument identifier this parser handles.
func (p *IOL700Parser) MachineType() string {
	return MachineIOL700
}

// Parse produces exactly two records, [OD, OS], for the given report. The
// table path runs first; when it leaves either eye empty its partial output
// is discarded and the whole field set is re-derived from the raw text.
// Fields that cannot be found anywhere are empty strings, never missing.
func (p *IOL700Parser) Parse(doc *report.Document) []Record {
	demo := extractDemographics(doc.Text, doc.Tables, p.now())

	od := newAccumulator()
	os := newAccumulator()
	for _, table := range doc.Tables {
		if len(table.Rows) < 2 {
			continue
		}
		assign := resolveLayout(table)
		extractFromTable(table, assign, od, os)
	}

	if od.empty() || os.empty() {
		od = extractEyeFromText(doc.Text, EyeOD)
		os = extractEyeFromText(doc.Text, EyeOS)
	}

	return []Record{
		od.finalize(EyeOD, demo.PatientID, demo.Age),
		os.finalize(EyeOS, demo.PatientID, demo.Age),
	}
}
