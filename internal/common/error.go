package common

import "fmt"

var (
	ErrURLRequired        = fmt.Errorf("url is required")
	ErrSessionNotFound    = fmt.Errorf("session not found")
	ErrSessionExpired     = fmt.Errorf("session expired")
	ErrDownloadInProgress = fmt.Errorf("download already in progress")
	ErrFileNotFoundError  = fmt.Errorf("file not found")
	ErrFileTooSmall       = fmt.Errorf("downloaded file is too small")
)

type FetchErrorKind string

const (
	FetchErrAuthRequired  FetchErrorKind = "auth_required"
	FetchErrRateLimited   FetchErrorKind = "rate_limited"
	FetchErrNotFound      FetchErrorKind = "not_found"
	FetchErrUnavailable   FetchErrorKind = "unavailable"
	FetchErrPrivate       FetchErrorKind = "private"
	FetchErrRegionBlocked FetchErrorKind = "region_blocked"
	FetchErrGeneric       FetchErrorKind = "generic"
)

// FetchError classifies a failure of the external fetch engine. Message is
// the user-facing text; raw engine output never crosses this boundary.
type FetchError struct {
	Kind    FetchErrorKind
	Message string
}

func (e *FetchError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}

	return e.Message
}

func NewFetchError(kind FetchErrorKind, message string) *FetchError {
	return &FetchError{Kind: kind, Message: message}
}
