package entity

import "strings"

type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformTwitter   Platform = "twitter"
	PlatformTikTok    Platform = "tiktok"
	PlatformReddit    Platform = "reddit"
	PlatformUnknown   Platform = "unknown"
)

func (p Platform) String() string {
	return string(p)
}

// HasQualityOptions reports whether the platform exposes selectable formats.
// Instagram and TikTok serve a single rendition.
func (p Platform) HasQualityOptions() bool {
	return p != PlatformInstagram && p != PlatformTikTok
}

func DetectPlatform(url string) Platform {
	url = strings.ToLower(url)

	switch {
	case strings.Contains(url, "youtube.com"), strings.Contains(url, "youtu.be"):
		return PlatformYouTube
	case strings.Contains(url, "instagram.com"):
		return PlatformInstagram
	case strings.Contains(url, "facebook.com"), strings.Contains(url, "fb.watch"):
		return PlatformFacebook
	case strings.Contains(url, "twitter.com"), strings.Contains(url, "x.com"):
		return PlatformTwitter
	case strings.Contains(url, "tiktok.com"):
		return PlatformTikTok
	case strings.Contains(url, "reddit.com"):
		return PlatformReddit
	}

	return PlatformUnknown
}
