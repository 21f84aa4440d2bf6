package attendance

import (
	"reflect"
	"testing"
)

func threeStudents() []EligibleStudent {
	return []EligibleStudent{
		{StudentID: "S1", StudentName: "Asha Rao", AttendedSessions: 2, AllowedSessions: 8},
		{StudentID: "S2", StudentName: "Ben Ito", AttendedSessions: 8, AllowedSessions: 8, IsOverLimit: true},
		{StudentID: "S3", StudentName: "Cleo Park", AttendedSessions: 0, AllowedSessions: 8},
	}
}

func presence(rows []Row) map[string]bool {
	out := make(map[string]bool, len(rows))
	for _, r := range rows {
		out[r.StudentID] = r.IsPresent
	}
	return out
}

func TestReconcileNewSessionDefaults(t *testing.T) {
	rows := Reconcile(threeStudents(), nil)

	want := map[string]bool{"S1": true, "S2": false, "S3": true}
	if got := presence(rows); !reflect.DeepEqual(got, want) {
		t.Fatalf("presence = %v, want %v", got, want)
	}
	for i, id := range []string{"S1", "S2", "S3"} {
		if rows[i].StudentID != id {
			t.Fatalf("row %d = %s, want %s", i, rows[i].StudentID, id)
		}
		if rows[i].Remarks != "" {
			t.Fatalf("row %d has remarks %q", i, rows[i].Remarks)
		}
	}

	r := NewRoster("sess-1", ModeNew, rows)
	if c := r.Counts(); c != (Counts{Present: 2, Absent: 1, Total: 3}) {
		t.Fatalf("counts = %+v", c)
	}
}

func TestReconcileMergesExisting(t *testing.T) {
	existing := []ExistingRecord{
		{StudentID: "S2", IsPresent: true, Remarks: "makeup class"},
		{StudentID: "S1", IsPresent: false, Remarks: "sick"},
	}
	rows := Reconcile(threeStudents(), existing)

	want := []Row{
		{EligibleStudent: threeStudents()[0], IsPresent: false, Remarks: "sick"},
		{EligibleStudent: threeStudents()[1], IsPresent: true, Remarks: "makeup class"},
		{EligibleStudent: threeStudents()[2], IsPresent: true},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %+v\nwant %+v", rows, want)
	}
}

func TestReconcileEdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		eligible []EligibleStudent
		existing []ExistingRecord
		want     map[string]bool
		wantLen  int
	}{
		{
			name:     "empty eligible",
			eligible: nil,
			existing: []ExistingRecord{{StudentID: "S1", IsPresent: true}},
			want:     map[string]bool{},
			wantLen:  0,
		},
		{
			name:     "first existing record wins",
			eligible: threeStudents()[:1],
			existing: []ExistingRecord{{StudentID: "S1", IsPresent: false}, {StudentID: "S1", IsPresent: true}},
			want:     map[string]bool{"S1": false},
			wantLen:  1,
		},
		{
			name:     "records for ineligible students dropped",
			eligible: threeStudents()[2:],
			existing: []ExistingRecord{{StudentID: "S9", IsPresent: true}},
			want:     map[string]bool{"S3": true},
			wantLen:  1,
		},
		{
			name: "duplicate eligible ids collapse",
			eligible: []EligibleStudent{
				{StudentID: "S1", StudentName: "first"},
				{StudentID: "S1", StudentName: "second", IsOverLimit: true},
			},
			want:    map[string]bool{"S1": true},
			wantLen: 1,
		},
		{
			name:     "over-limit student with existing present record",
			eligible: threeStudents()[1:2],
			existing: []ExistingRecord{{StudentID: "S2", IsPresent: true}},
			want:     map[string]bool{"S2": true},
			wantLen:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := Reconcile(tt.eligible, tt.existing)
			if len(rows) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(rows), tt.wantLen)
			}
			if got := presence(rows); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("presence = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReconcileKeepsFirstDuplicate(t *testing.T) {
	rows := Reconcile([]EligibleStudent{
		{StudentID: "S1", StudentName: "first"},
		{StudentID: "S1", StudentName: "second"},
	}, nil)
	if rows[0].StudentName != "first" {
		t.Fatalf("kept %q, want first occurrence", rows[0].StudentName)
	}
}

func TestDropped(t *testing.T) {
	existing := []ExistingRecord{
		{StudentID: "S1", IsPresent: true},
		{StudentID: "S7", IsPresent: false, Remarks: "moved"},
	}
	got := Dropped(threeStudents(), existing)
	if len(got) != 1 || got[0].StudentID != "S7" {
		t.Fatalf("dropped = %+v", got)
	}
	if Dropped(threeStudents(), nil) != nil {
		t.Fatal("no existing records should drop nothing")
	}
}

func TestLimitDisagrees(t *testing.T) {
	tests := []struct {
		s    EligibleStudent
		want bool
	}{
		{EligibleStudent{AttendedSessions: 8, AllowedSessions: 8, IsOverLimit: true}, false},
		{EligibleStudent{AttendedSessions: 9, AllowedSessions: 8}, true},
		{EligibleStudent{AttendedSessions: 2, AllowedSessions: 8}, false},
		{EligibleStudent{AttendedSessions: 0, AllowedSessions: 0}, false},
	}
	for _, tt := range tests {
		if got := limitDisagrees(tt.s); got != tt.want {
			t.Errorf("limitDisagrees(%+v) = %v, want %v", tt.s, got, tt.want)
		}
	}
}
