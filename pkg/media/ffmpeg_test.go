package media

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractAudioArgs(t *testing.T) {
	args := extractAudioArgs("/tmp/input.mp4", "/tmp/audio.mp3")
	require.Equal(t, []string{
		"-i", "/tmp/input.mp4",
		"-vn",
		"-acodec", "mp3",
		"-ab", "64k",
		"-ar", "16000",
		"-ac", "1",
		"-y", "/tmp/audio.mp3",
	}, args)
}

func TestDurationArgs(t *testing.T) {
	args := durationArgs("/tmp/input.mp4")
	require.Equal(t, []string{
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		"/tmp/input.mp4",
	}, args)
}

func TestNewFFmpegDefaults(t *testing.T) {
	f := NewFFmpeg(Config{})
	require.Equal(t, "ffmpeg", f.cfg.FFmpegPath)
	require.Equal(t, "ffprobe", f.cfg.FFprobePath)
}
