package biometry

import (
	"testing"

	"github.com/YoussefMamlouk/ophta-flow/internal/report"
)

func TestExtractFromTableInline(t *testing.T) {
	table := report.Table{Rows: [][]string{
		{"", "OD", "", "", "OS"},
		{"", "AL: 23,50 mm", "", "", "AL: 23,80 mm"},
		{"", "CCT: 552 µm", "", "", "CCT: 548 µm"},
	}}

	od := newAccumulator()
	os := newAccumulator()
	extractFromTable(table, resolveLayout(table), od, os)

	if got := od.values[FieldAL]; got != "23.50" {
		t.Errorf("OD AL = %q, want 23.50", got)
	}
	if got := os.values[FieldAL]; got != "23.80" {
		t.Errorf("OS AL = %q, want 23.80", got)
	}
	if got := od.values[FieldPachy]; got != "552" {
		t.Errorf("OD pachymetry = %q, want 552", got)
	}
	if got := os.values[FieldPachy]; got != "548" {
		t.Errorf("OS pachymetry = %q, want 548", got)
	}
}

func TestExtractFromTableFirstWriterWins(t *testing.T) {
	table := report.Table{Rows: [][]string{
		{"OD", "", "", "", "OS"},
		{"AL: 23,50", "", "", "", "AL: 23,80"},
		{"AL: 99,99", "", "", "", "AL: 99,99"},
	}}

	od := newAccumulator()
	os := newAccumulator()
	extractFromTable(table, resolveLayout(table), od, os)

	if got := od.values[FieldAL]; got != "23.50" {
		t.Errorf("OD AL = %q, want the first row to win", got)
	}
	if got := os.values[FieldAL]; got != "23.80" {
		t.Errorf("OS AL = %q, want the first row to win", got)
	}
}

func TestExtractFromTableMultiline(t *testing.T) {
	table := report.Table{Rows: [][]string{
		{"OD", "", "", "", "OS"},
		{"AL\n24,18mm", "", "", "", "AL\n24,47mm"},
	}}

	od := newAccumulator()
	os := newAccumulator()
	extractFromTable(table, resolveLayout(table), od, os)

	if got := od.values[FieldAL]; got != "24.18" {
		t.Errorf("OD AL = %q, want 24.18", got)
	}
	if got := os.values[FieldAL]; got != "24.47" {
		t.Errorf("OS AL = %q, want 24.47", got)
	}
}

func TestExtractFromTableAxis(t *testing.T) {
	table := report.Table{Rows: [][]string{
		{"OD", "", "", "", "OS"},
		{"K1: 44,50 D @ 105°", "", "", "", "K1: 43,25 D @ 78°"},
	}}

	od := newAccumulator()
	os := newAccumulator()
	extractFromTable(table, resolveLayout(table), od, os)

	if got := od.values[FieldK1]; got != "44.50" {
		t.Errorf("OD K1 = %q, want 44.50", got)
	}
	if got := od.values[FieldAxis]; got != "105" {
		t.Errorf("OD axis = %q, want 105", got)
	}
	if got := os.values[FieldAxis]; got != "78" {
		t.Errorf("OS axis = %q, want 78", got)
	}
}

func TestExtractAxis(t *testing.T) {
	tests := []struct {
		name string
		cell string
		row  []string
		want string
	}{
		{
			name: "degree mark in cell",
			cell: "K1 44.5 D @ 105°",
			row:  []string{"K1 44.5 D @ 105°"},
			want: "105",
		},
		{
			name: "bare marker in cell",
			cell: "K1 44.5 @ 105",
			row:  []string{"K1 44.5 @ 105"},
			want: "105",
		},
		{
			name: "axis in neighbouring cell",
			cell: "K1: 44,50",
			row:  []string{"K1: 44,50", "@ 105°"},
			want: "105",
		},
		{
			name: "no marker",
			cell: "K1: 44,50",
			row:  []string{"K1: 44,50"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractAxis(tt.cell, tt.row, 0); got != tt.want {
				t.Errorf("extractAxis(%q) = %q, want %q", tt.cell, got, tt.want)
			}
		})
	}
}

func TestExtractWithoutHeader(t *testing.T) {
	table := report.Table{Rows: [][]string{
		{"OD AL", "23,50 mm", "OS AL", "23,80 mm"},
	}}

	od := newAccumulator()
	os := newAccumulator()
	extractWithoutHeader(table, od, os)

	if got := od.values[FieldAL]; got != "23.50" {
		t.Errorf("OD AL = %q, want 23.50", got)
	}
	if got := os.values[FieldAL]; got != "23.80" {
		t.Errorf("OS AL = %q, want 23.80", got)
	}
}
