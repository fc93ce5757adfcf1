package biometry

// Record maps canonical field names to string values for one eye. Absent
// data is an empty string, never a missing key.
type Record map[string]string

// accumulator collects measurement values for a single eye with first-writer-
// wins semantics: once a field holds a value, later matches never overwrite
// it. This keeps high-confidence pattern hits from being clobbered by the
// weaker positional fallbacks that run afterwards.
type accumulator struct {
	values map[string]string
}

func newAccumulator() *accumulator {
	return &accumulator{values: make(map[string]string)}
}

// setIfAbsent stores value under field unless the value is empty or the
// field was already written. Reports whether the write happened.
func (a *accumulator) setIfAbsent(field, value string) bool {
	if value == "" {
		return false
	}
	if _, ok := a.values[field]; ok {
		return false
	}
	a.values[field] = value
	return true
}

// has reports whether field already holds a value.
func (a *accumulator) has(field string) bool {
	_, ok := a.values[field]
	return ok
}

// empty reports whether no measurement was collected at all.
func (a *accumulator) empty() bool {
	return len(a.values) == 0
}

// finalize attaches the identity fields and defaults every canonical
// measurement key that was never written, so callers always see the full
// key set.
func (a *accumulator) finalize(eye, patientID, age string) Record {
	rec := Record{
		FieldPatientID: patientID,
		FieldAge:       age,
		FieldEye:       eye,
	}
	for field, value := range a.values {
		rec[field] = value
	}
	for _, field := range measurementFields {
		if _, ok := rec[field]; !ok {
			rec[field] = ""
		}
	}
	return rec
}
