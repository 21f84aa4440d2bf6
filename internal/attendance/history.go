package attendance

// Log statuses reported by the academy API.
const (
	StatusPresent = "PRESENT"
	StatusAbsent  = "ABSENT"
)

// LogEntry is one session in a student's monthly attendance history.
type LogEntry struct {
	ID                    string `json:"id"`
	SessionID             string `json:"sessionId"`
	SessionDate           string `json:"sessionDate"`
	Status                string `json:"status"`
	SessionCountThisMonth int    `json:"sessionCountThisMonth"`
	IsOverLimit           bool   `json:"isOverLimit"`
	Remarks               string `json:"remarks"`
}

// HistoryStats summarizes a month of logs. Total counts every entry, so it can
// exceed Present+Absent when the API reports other statuses.
type HistoryStats struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Total   int `json:"total"`
}

// Summarize counts the logs by status.
func Summarize(logs []LogEntry) HistoryStats {
	stats := HistoryStats{Total: len(logs)}
	for _, l := range logs {
		switch l.Status {
		case StatusPresent:
			stats.Present++
		case StatusAbsent:
			stats.Absent++
		}
	}
	return stats
}
