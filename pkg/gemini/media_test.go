package gemini

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int, string) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width, cfg.Height, format
}

func TestPrepareImage(t *testing.T) {
	tests := []struct {
		name         string
		w, h, maxPx  int
		wantW, wantH int
	}{
		{name: "landscape is shrunk", w: 3000, h: 1000, maxPx: 1536, wantW: 1536, wantH: 512},
		{name: "portrait is shrunk", w: 800, h: 1600, maxPx: 400, wantW: 200, wantH: 400},
		{name: "small image kept", w: 640, h: 480, maxPx: 1536, wantW: 640, wantH: 480},
		{name: "no limit", w: 2000, h: 100, maxPx: 0, wantW: 2000, wantH: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := PrepareImage(pngBytes(t, tt.w, tt.h), tt.maxPx)
			require.NoError(t, err)

			w, h, format := decodeSize(t, out)
			assert.Equal(t, "jpeg", format)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestPrepareImageRejectsGarbage(t *testing.T) {
	_, err := PrepareImage([]byte("not an image"), 100)
	assert.Error(t, err)
}

func TestParseDataURL(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("hello"))

	data, mime, err := ParseDataURL("data:image/jpeg;base64," + payload)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, "image/jpeg", mime)

	data, mime, err = ParseDataURL(payload)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, "", mime)

	_, _, err = ParseDataURL("data:image/jpeg;base64")
	assert.Error(t, err)

	_, _, err = ParseDataURL("%%%")
	assert.Error(t, err)
}

func TestInlineBlob(t *testing.T) {
	b := InlineBlob("audio/wav", []byte("RIFF"))
	assert.Equal(t, "audio/wav", b.MimeType)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("RIFF")), b.Data)
}
