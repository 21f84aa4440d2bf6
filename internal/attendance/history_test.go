package attendance

import "testing"

func TestSummarize(t *testing.T) {
	logs := []LogEntry{
		{Status: StatusPresent},
		{Status: StatusPresent},
		{Status: StatusAbsent},
		{Status: "EXCUSED"},
	}
	got := Summarize(logs)
	if got != (HistoryStats{Present: 2, Absent: 1, Total: 4}) {
		t.Fatalf("stats = %+v", got)
	}
	if Summarize(nil) != (HistoryStats{}) {
		t.Fatal("empty history should be zero")
	}
}
