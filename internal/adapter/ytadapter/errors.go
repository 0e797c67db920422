package ytadapter

import (
	"strings"

	"github.com/farazsidiqui2k23/Smart-Convert/internal/common"
)

const maxDiagnosticLen = 100

// classify translates raw engine output into the fetch error taxonomy.
// Matching is by substring over the engine's stderr, so order matters: the
// more specific causes come first.
func classify(err error) *common.FetchError {
	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(msg, "Sign in to confirm you're not a bot"),
		strings.Contains(lower, "cookies"):
		return common.NewFetchError(common.FetchErrAuthRequired,
			"Authentication check failed. Update the cookies file with fresh browser cookies")

	case strings.Contains(msg, "Private video"), strings.Contains(lower, "private"):
		return common.NewFetchError(common.FetchErrPrivate,
			"This video is private. Only public videos can be downloaded")

	case strings.Contains(msg, "Login required"), strings.Contains(msg, "Sign in"),
		strings.Contains(lower, "login_required"):
		return common.NewFetchError(common.FetchErrAuthRequired,
			"Login required. Try public content only")

	case strings.Contains(msg, "HTTP Error 429"), strings.Contains(lower, "rate-limit"),
		strings.Contains(lower, "too many requests"):
		return common.NewFetchError(common.FetchErrRateLimited,
			"Too many requests. Please wait a few minutes and try again")

	case strings.Contains(msg, "HTTP Error 404"):
		return common.NewFetchError(common.FetchErrNotFound,
			"Content not found. Check if the link is correct")

	case strings.Contains(lower, "geo"), strings.Contains(lower, "not available in your"):
		return common.NewFetchError(common.FetchErrRegionBlocked,
			"Content not available in your region")

	case strings.Contains(msg, "HTTP Error 403"):
		return common.NewFetchError(common.FetchErrAuthRequired,
			"Access denied. Content may be restricted")

	case strings.Contains(msg, "Video unavailable"), strings.Contains(lower, "unavailable"):
		return common.NewFetchError(common.FetchErrUnavailable,
			"Video is unavailable or has been deleted")

	case strings.Contains(msg, "Unsupported URL"), strings.Contains(msg, "No video formats found"):
		return common.NewFetchError(common.FetchErrGeneric,
			"Your link is broken, please provide valid link")
	}

	return common.NewFetchError(common.FetchErrGeneric, "Unable to fetch: "+truncate(msg, maxDiagnosticLen))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n]
}
