package ffmpeg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProbeAudio(t *testing.T) {
	out := []byte(`{
		"format": {"filename": "a.m4a", "duration": "123.456", "size": "2048000"},
		"streams": [
			{"index": 0, "codec_type": "video", "codec_name": "mjpeg"},
			{"index": 1, "codec_type": "audio", "codec_name": "aac", "sample_rate": "44100", "channels": 2}
		]
	}`)
	info, err := parseProbe(out)
	require.NoError(t, err)
	assert.InDelta(t, 123.456, info.Duration, 0.001)
	assert.Equal(t, int64(2048000), info.Size)
	assert.Equal(t, "aac", info.Codec)
	assert.Equal(t, 44100, info.SampleRate)
	assert.Equal(t, 2, info.Channels)
}

func TestParseProbeNoAudio(t *testing.T) {
	_, err := parseProbe([]byte(`{"format": {}, "streams": [{"codec_type": "video"}]}`))
	assert.True(t, errors.Is(err, ErrNoAudioStream))
}

func TestTrimExt(t *testing.T) {
	assert.Equal(t, "/tmp/x/audio", trimExt("/tmp/x/audio.m4a"))
	assert.Equal(t, "/tmp/x.d/audio", trimExt("/tmp/x.d/audio"))
}
