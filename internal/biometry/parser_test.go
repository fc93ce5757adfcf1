package biometry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoussefMamlouk/ophta-flow/internal/report"
)

func newTestParser() *IOL700Parser {
	p := NewIOL700Parser()
	p.now = func() time.Time { return fixedNow }
	return p
}

func TestParserFor(t *testing.T) {
	p, err := ParserFor(MachineIOL700)
	require.NoError(t, err)
	assert.Equal(t, MachineIOL700, p.MachineType())

	_, err = ParserFor("IOL900")
	assert.ErrorIs(t, err, ErrUnsupportedMachine)
}

func TestParseTableDocument(t *testing.T) {
	doc := &report.Document{
		Text: "ID Patient: 251-093\nNé(e) le: 17.08.2010",
		Tables: []report.Table{
			{Rows: [][]string{
				{"OD", "", "", "", "OS"},
				{"AL: 23,50 mm", "", "", "", "AL: 23,80 mm"},
				{"K1: 44,50 D @ 105°", "", "", "", "K1: 43,25 D @ 78°"},
			}},
		},
	}

	records := newTestParser().Parse(doc)
	require.Len(t, records, 2)

	od, os := records[0], records[1]
	assert.Equal(t, EyeOD, od[FieldEye])
	assert.Equal(t, EyeOS, os[FieldEye])

	for _, rec := range records {
		assert.Equal(t, "251093", rec[FieldPatientID])
		assert.Equal(t, "13", rec[FieldAge])
		for _, field := range measurementFields {
			assert.Contains(t, rec, field)
		}
	}

	assert.Equal(t, "23.50", od[FieldAL])
	assert.Equal(t, "23.80", os[FieldAL])
	assert.Equal(t, "44.50", od[FieldK1])
	assert.Equal(t, "105", od[FieldAxis])
	assert.Equal(t, "78", os[FieldAxis])
}

func TestParseFallsBackToText(t *testing.T) {
	doc := &report.Document{
		Text: "ID Patient: 42\nOD:\nAL: 23,50 mm\nOS:\nAL: 23,80 mm",
	}

	records := newTestParser().Parse(doc)
	require.Len(t, records, 2)

	assert.Equal(t, "23.50", records[0][FieldAL])
	assert.Equal(t, "23.80", records[1][FieldAL])
	assert.Equal(t, "42", records[0][FieldPatientID])
	assert.Equal(t, "", records[0][FieldAge])
}

func TestParseEmptyDocument(t *testing.T) {
	records := newTestParser().Parse(&report.Document{Text: "rien"})
	require.Len(t, records, 2)

	for _, rec := range records {
		assert.Equal(t, "", rec[FieldPatientID])
		for _, field := range measurementFields {
			assert.Equal(t, "", rec[field])
		}
	}
	assert.Equal(t, EyeOD, records[0][FieldEye])
	assert.Equal(t, EyeOS, records[1][FieldEye])
}
