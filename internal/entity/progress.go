package entity

type ProgressStatus string

const (
	ProgressStarting    ProgressStatus = "starting"
	ProgressDownloading ProgressStatus = "downloading"
	ProgressFinished    ProgressStatus = "finished"
	ProgressUnknown     ProgressStatus = "unknown"
)

// ProgressSnapshot is the latest known progress of a session's active fetch.
// It is overwritten on every update and has no lifecycle of its own.
type ProgressSnapshot struct {
	Status     ProgressStatus `json:"status"`
	Percentage int            `json:"percentage"`
	Downloaded int64          `json:"downloaded,omitempty"`
	Total      int64          `json:"total,omitempty"`
	Speed      string         `json:"speed,omitempty"`
	ETASeconds int            `json:"eta,omitempty"`
	Message    string         `json:"message,omitempty"`
}

// UnknownProgress is returned when no snapshot exists for a session.
func UnknownProgress() ProgressSnapshot {
	return ProgressSnapshot{Status: ProgressUnknown, Percentage: 0}
}
