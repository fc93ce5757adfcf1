package descriptions

// Tool descriptions with practical examples and use cases

const (
	BiometryExtractFileDescription = `Extract per-eye measurement records from an ophthalmic biometry report PDF.

**When to use:** Need the structured measurements (axial length, keratometry, pachymetry, ...) from an instrument report instead of its raw text.

**Why it's useful:** Instrument PDFs lay the two eyes out side by side with inconsistent labels and units; this tool resolves the layout and returns one clean record per eye, right eye (OD) first.

**Examples:**
• Pre-operative review: "Extract the measurements from scans/dupont.pdf"
• Quick comparison: "Get K1/K2 for both eyes from yesterday's IOLMaster report"

**Common workflows:**
1. Review: Extract records → Check values against surgical plan
2. Data entry: Extract records → Merge into the tracking workbook with biometry_export_file

**Best practices:** Validate the file first with biometry_validate_file; fields the report does not carry come back as "-" rather than failing the whole extraction.`

	BiometryValidateFileDescription = `Verify that a file is a readable biometry report PDF before processing.

**When to use:** Before extracting or exporting, especially for freshly scanned or user-supplied files.

**Why it's useful:** Instrument exports and scans are occasionally truncated or mis-saved; catching that early gives a clear message instead of a confusing extraction failure.

**Examples:**
• Upload verification: "Check that scans/dupont.pdf is a valid report"
• Batch safety: "Validate every PDF in scans/ before exporting the batch"

**Common workflows:**
1. Single file: Validate → Extract if valid
2. Batch: Validate all → Export the valid ones → Report the rest

**Best practices:** Run this first in automated workflows; it checks structure and text-extraction readiness, not measurement content.`

	BiometryExportFileDescription = `Extract one or more report PDFs and merge the records into a tracking workbook.

**When to use:** The measurements should land in the surgery tracking spreadsheet, either appended to an existing workbook or written to a fresh one.

**Why it's useful:** Appends after the last populated row, skips patient/eye pairs already present, and preserves the workbook's formatting and formulas, so repeated exports never duplicate rows or damage the sheet.

**Examples:**
• Daily batch: "Export scans/a.pdf, scans/b.pdf into tracking.xlsx as tracking-updated.xlsx"
• Fresh sheet: "Export scans/a.pdf to new.xlsx" (no workbook argument creates one)

**Common workflows:**
1. Append: Export with workbook → Review the new rows at the bottom
2. Re-run safety: Export the same files again → No duplicate rows appear

**Best practices:** Keep the workbook argument pointing at the current tracking sheet; the output path must differ from it so the original stays untouched until reviewed.`
)
