package biometry

// Eye side identifiers as they appear in reports and in the tracking sheet.
const (
	EyeOD = "OD" // right eye (oculus dexter)
	EyeOS = "OS" // left eye (oculus sinister)
)

// Identity field names attached to every record.
const (
	FieldPatientID = "ID Patient"
	FieldAge       = "Âge"
	FieldEye       = "Œil"
)

// Measurement field names, keyed by the spreadsheet column they feed.
const (
	FieldAL    = "AL"
	FieldPachy = "PACHY (mm)"
	FieldACD   = "ACD epit"
	FieldLT    = "LT"
	FieldK1    = "K1"
	FieldK2    = "K2"
	FieldWTW   = "WTW (mm)"
	FieldAxis  = "Axe"
)

// measurement binds the label token printed by the instrument to the
// canonical output field. Adding a field to the engine is a new entry here,
// not new branching code.
type measurement struct {
	Label string // token as it appears in the report, upper case
	Field string // canonical output field name
}

// measurementTable is shared, read-only configuration for every extraction
// strategy. Order matters: earlier labels win when a cell names several.
var measurementTable = []measurement{
	{Label: "AL", Field: FieldAL},
	{Label: "CCT", Field: FieldPachy},
	{Label: "ACD", Field: FieldACD},
	{Label: "LT", Field: FieldLT},
	{Label: "K1", Field: FieldK1},
	{Label: "K2", Field: FieldK2},
	{Label: "WTW", Field: FieldWTW},
}

// measurementFields lists every canonical measurement key a finalized record
// must carry, axis included.
var measurementFields = []string{
	FieldAL, FieldPachy, FieldACD, FieldLT, FieldK1, FieldK2, FieldWTW, FieldAxis,
}
