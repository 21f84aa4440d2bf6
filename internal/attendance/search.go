package attendance

import "strings"

// Filter returns the rows whose name, roll number or email contains term,
// ignoring case. An empty term matches every row.
func Filter(rows []Row, term string) []Row {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return rows
	}
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if matches(row.EligibleStudent, term) {
			out = append(out, row)
		}
	}
	return out
}

// FilterStudents is Filter over eligible students.
func FilterStudents(students []EligibleStudent, term string) []EligibleStudent {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return students
	}
	out := make([]EligibleStudent, 0, len(students))
	for _, s := range students {
		if matches(s, term) {
			out = append(out, s)
		}
	}
	return out
}

func matches(s EligibleStudent, term string) bool {
	return strings.Contains(strings.ToLower(s.StudentName), term) ||
		strings.Contains(strings.ToLower(s.RollNo), term) ||
		strings.Contains(strings.ToLower(s.StudentEmail), term)
}
