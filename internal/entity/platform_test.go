package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url  string
		want Platform
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", PlatformYouTube},
		{"https://youtu.be/dQw4w9WgXcQ", PlatformYouTube},
		{"https://YOUTUBE.com/shorts/abc", PlatformYouTube},
		{"https://www.instagram.com/reel/abc/", PlatformInstagram},
		{"https://www.facebook.com/watch/?v=123", PlatformFacebook},
		{"https://fb.watch/abc/", PlatformFacebook},
		{"https://twitter.com/user/status/123", PlatformTwitter},
		{"https://x.com/user/status/123", PlatformTwitter},
		{"https://www.tiktok.com/@user/video/123", PlatformTikTok},
		{"https://www.reddit.com/r/videos/comments/abc/", PlatformReddit},
		{"https://example.com/video.mp4", PlatformUnknown},
		{"", PlatformUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectPlatform(tt.url), tt.url)
	}
}

func TestHasQualityOptions(t *testing.T) {
	assert.True(t, PlatformYouTube.HasQualityOptions())
	assert.True(t, PlatformFacebook.HasQualityOptions())
	assert.True(t, PlatformUnknown.HasQualityOptions())
	assert.False(t, PlatformInstagram.HasQualityOptions())
	assert.False(t, PlatformTikTok.HasQualityOptions())
}
