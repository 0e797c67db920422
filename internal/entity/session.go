package entity

import "time"

type SessionState string

const (
	// SessionActive means the session is idle and ready to accept a download.
	SessionActive SessionState = "ACTIVE"

	// SessionDownloading means a fetch is in progress and the folder is reserved.
	SessionDownloading SessionState = "DOWNLOADING"

	// SessionCompleted means the last fetch succeeded and results are available.
	SessionCompleted SessionState = "COMPLETED"

	// SessionExpired means the session timed out or was force-cleaned.
	SessionExpired SessionState = "EXPIRED"
)

func (s SessionState) String() string {
	return string(s)
}

// Session tracks one browser user's download activity. It is an aggregate:
// the download folder and the records below belong exclusively to it.
type Session struct {
	ID             string
	State          SessionState
	CreatedAt      time.Time
	LastActivityAt time.Time
	TimeoutAt      time.Time
	DownloadFolder string           // empty until a download cycle creates it
	Downloads      []DownloadRecord // insertion order = completion order
}

// DownloadRecord is an immutable snapshot of one finished download.
type DownloadRecord struct {
	URL      string   `json:"url"`
	Platform Platform `json:"platform"`
	Filename string   `json:"filename"`
	Filepath string   `json:"filepath"`
	Filesize int64    `json:"filesize"`
	Status   string   `json:"status"`
}
