package jobs

// Job states reported by the listing API.
const (
	StateFinished = "finished"
	StateRunning  = "running"
	StatePending  = "pending"
)

// CloseReasonFinished marks a job that completed successfully. Any other
// close reason on a finished job indicates a failure of some kind
// (cancelled, shutdown, memory exceeded and so on).
const CloseReasonFinished = "finished"

// Meta field names requested from the listing API.
const (
	MetaKey         = "key"
	MetaState       = "state"
	MetaCloseReason = "close_reason"
	MetaItems       = "items"
)

// Summary is one record of the paginated finished-jobs listing: just
// enough metadata to decide whether the job is worth fetching in full.
type Summary struct {
	Key         string `json:"key"`
	State       string `json:"state"`
	CloseReason string `json:"close_reason"`
	Items       int    `json:"items"`
}

// JobKey parses the summary's key field.
func (s Summary) JobKey() (JobKey, error) {
	return ParseJobKey(s.Key)
}

// Finished reports whether the job completed successfully.
func (s Summary) Finished() bool {
	return s.CloseReason == CloseReasonFinished
}
