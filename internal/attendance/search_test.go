package attendance

import "testing"

func TestFilter(t *testing.T) {
	rows := Reconcile([]EligibleStudent{
		{StudentID: "1", StudentName: "Asha Rao", RollNo: "ART-101", StudentEmail: "asha@studio.test"},
		{StudentID: "2", StudentName: "Ben Ito", RollNo: "ART-102", StudentEmail: "ben@studio.test"},
		{StudentID: "3", StudentName: "Cleo Park", RollNo: "SCU-201", StudentEmail: "cleo@clay.test"},
	}, nil)

	tests := []struct {
		term string
		want []string
	}{
		{"", []string{"1", "2", "3"}},
		{"  ", []string{"1", "2", "3"}},
		{"asha", []string{"1"}},
		{"ART-", []string{"1", "2"}},
		{"art-", []string{"1", "2"}},
		{"CLAY.test", []string{"3"}},
		{"zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got := Filter(rows, tt.term)
			if len(got) != len(tt.want) {
				t.Fatalf("Filter(%q) returned %d rows, want %d", tt.term, len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].StudentID != id {
					t.Fatalf("row %d = %s, want %s", i, got[i].StudentID, id)
				}
			}
		})
	}

	students := FilterStudents(threeStudents(), "cleo")
	if len(students) != 1 || students[0].StudentID != "S3" {
		t.Fatalf("FilterStudents = %+v", students)
	}
}
