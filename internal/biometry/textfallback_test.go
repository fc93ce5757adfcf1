package biometry

import "testing"

const fallbackText = `Biométrie
OD:
AL: 23,50 mm
CCT: 552 µm
K1: 44,50 D @ 105°
OS:
AL: 23,80 mm
CCT: 548 µm
`

func TestExtractEyeFromText(t *testing.T) {
	od := extractEyeFromText(fallbackText, EyeOD)
	if got := od.values[FieldAL]; got != "23.50" {
		t.Errorf("OD AL = %q, want 23.50", got)
	}
	if got := od.values[FieldPachy]; got != "552" {
		t.Errorf("OD pachymetry = %q, want 552", got)
	}
	if got := od.values[FieldK1]; got != "44.50" {
		t.Errorf("OD K1 = %q, want 44.50", got)
	}
	if got := od.values[FieldAxis]; got != "105" {
		t.Errorf("OD axis = %q, want 105", got)
	}

	os := extractEyeFromText(fallbackText, EyeOS)
	if got := os.values[FieldAL]; got != "23.80" {
		t.Errorf("OS AL = %q, want 23.80", got)
	}
	if got := os.values[FieldPachy]; got != "548" {
		t.Errorf("OS pachymetry = %q, want 548", got)
	}
}

func TestExtractEyeFromTextMissingFields(t *testing.T) {
	acc := extractEyeFromText("nothing measurable here", EyeOD)
	if !acc.empty() {
		t.Errorf("expected no values, got %+v", acc.values)
	}
}
