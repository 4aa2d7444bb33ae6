package gemini

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
)

// PrepareImage decodes any supported image, shrinks it to fit maxPx on its long
// side and re-encodes it as JPEG. A non-positive maxPx keeps the original size.
func PrepareImage(data []byte, maxPx int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	if maxPx > 0 && (b.Dx() > maxPx || b.Dy() > maxPx) {
		img = imaging.Fit(img, maxPx, maxPx, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func InlineBlob(mimeType string, data []byte) *Blob {
	return &Blob{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}
}

// DataURL renders a blob as data:<mime>;base64,<data>.
func (b *Blob) DataURL() string {
	mime := b.MimeType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + b.Data
}

// ParseDataURL accepts either a data URL or bare base64 and returns the raw bytes
// and the declared mime type, which is empty for bare base64.
func ParseDataURL(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	mime := ""
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return nil, "", fmt.Errorf("malformed data URL")
		}
		meta := s[len("data:"):comma]
		mime, _, _ = strings.Cut(meta, ";")
		s = s[comma+1:]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 payload: %w", err)
	}
	return data, mime, nil
}
