package ytadapter

import (
	"testing"

	"github.com/farazsidiqui2k23/Smart-Convert/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectableFormats(t *testing.T) {
	info := &probeInfo{
		Formats: []probeFormat{
			{FormatID: "sb0", VCodec: "none", ACodec: "none", Height: 0},
			{FormatID: "140", VCodec: "none", ACodec: "mp4a.40.2"},
			{FormatID: "160", VCodec: "avc1", Ext: "mp4", Height: 144},
			{FormatID: "134", VCodec: "avc1", Ext: "mp4", Height: 360, Filesize: 5242880},
			{FormatID: "243", VCodec: "vp9", Ext: "webm", Height: 360, Filesize: 4194304},
			{FormatID: "136", VCodec: "avc1", Ext: "mp4", Height: 720, FilesizeApprox: 20971520},
			{FormatID: "137", VCodec: "avc1", Ext: "mp4", Height: 1080, Filesize: 52428800},
		},
	}

	formats := info.selectableFormats(entity.PlatformYouTube)
	require.Len(t, formats, 3, "audio-only, sub-240p and duplicate heights are dropped")

	assert.Equal(t, "1080p", formats[0].Quality)
	assert.Equal(t, "137", formats[0].FormatID)
	assert.Equal(t, "720p", formats[1].Quality)
	assert.Equal(t, int64(20971520), formats[1].Filesize, "approximate size fills in when exact is missing")
	assert.Equal(t, "360p", formats[2].Quality)
	assert.Equal(t, "134", formats[2].FormatID, "first format wins for a duplicate height")
}

func TestSelectableFormatsNoQualityPlatform(t *testing.T) {
	info := &probeInfo{
		Formats: []probeFormat{
			{FormatID: "0", VCodec: "h264", Ext: "mp4", Height: 720},
		},
	}

	assert.Nil(t, info.selectableFormats(entity.PlatformInstagram))
	assert.Nil(t, info.selectableFormats(entity.PlatformTikTok))
}

func TestProbeInfoFallbacks(t *testing.T) {
	empty := &probeInfo{}
	assert.Equal(t, "Unknown Title", empty.title())
	assert.Equal(t, "Unknown", empty.uploader())
	assert.Empty(t, empty.thumbnail())

	info := &probeInfo{
		Channel: "Some Channel",
		Thumbnails: []struct {
			URL string `json:"url"`
		}{{URL: "https://i.ytimg.com/vi/abc/hq720.jpg"}},
	}
	assert.Equal(t, "Some Channel", info.uploader())
	assert.Equal(t, "https://i.ytimg.com/vi/abc/hq720.jpg", info.thumbnail())
}
