package attendance

// Reconcile merges the eligible students with the records of an earlier
// submission. existing is nil when attendance is taken for the first time.
//
// Rows keep the order of eligible. A student with a record takes its mark and
// remarks; a student without one defaults to present unless over the limit.
// Records for students no longer eligible are dropped, and when a student has
// several records the first wins. Repeated student ids in eligible collapse
// into the first occurrence.
func Reconcile(eligible []EligibleStudent, existing []ExistingRecord) []Row {
	var records map[string]ExistingRecord
	if len(existing) > 0 {
		records = make(map[string]ExistingRecord, len(existing))
		for _, rec := range existing {
			if _, ok := records[rec.StudentID]; !ok {
				records[rec.StudentID] = rec
			}
		}
	}

	rows := make([]Row, 0, len(eligible))
	seen := make(map[string]struct{}, len(eligible))
	for _, s := range eligible {
		if _, dup := seen[s.StudentID]; dup {
			continue
		}
		seen[s.StudentID] = struct{}{}

		row := Row{EligibleStudent: s, IsPresent: !s.IsOverLimit}
		if rec, ok := records[s.StudentID]; ok {
			row.IsPresent = rec.IsPresent
			row.Remarks = rec.Remarks
		}
		rows = append(rows, row)
	}
	return rows
}

// Dropped returns the existing records whose student is not in eligible.
func Dropped(eligible []EligibleStudent, existing []ExistingRecord) []ExistingRecord {
	ids := make(map[string]struct{}, len(eligible))
	for _, s := range eligible {
		ids[s.StudentID] = struct{}{}
	}
	var out []ExistingRecord
	for _, rec := range existing {
		if _, ok := ids[rec.StudentID]; !ok {
			out = append(out, rec)
		}
	}
	return out
}

// limitDisagrees reports a student whose counts say over the limit while the
// server flag says otherwise. The server flag stays authoritative.
func limitDisagrees(s EligibleStudent) bool {
	return s.AllowedSessions > 0 && s.AttendedSessions >= s.AllowedSessions && !s.IsOverLimit
}
