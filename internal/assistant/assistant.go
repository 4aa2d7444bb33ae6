// Package assistant defines the generative-AI capabilities the shop exposes.
// Each capability is its own interface so a deployment can enable any subset.
package assistant

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ds124wfegd/lensmaster/internal/entity"
)

type Mode string

const (
	ModeFast Mode = "fast"
	ModeDeep Mode = "deep"
)

type TextCompleter interface {
	Complete(ctx context.Context, prompt string, mode Mode) (string, error)
}

type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

type SearchResult struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}

// Markdown appends a "### Sources:" list when the answer is grounded.
func (r *SearchResult) Markdown() string {
	if len(r.Sources) == 0 {
		return r.Text
	}
	var sb strings.Builder
	sb.WriteString(r.Text)
	sb.WriteString("\n\n### Sources:\n")
	for i, s := range r.Sources {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("- [" + s.Title + "](" + s.URI + ")")
	}
	return sb.String()
}

type GroundedSearcher interface {
	Search(ctx context.Context, query string) (*SearchResult, error)
}

type ImageOptions struct {
	AspectRatio string
	Size        string
}

var (
	ImageAspectRatios = []string{"1:1", "2:3", "3:2", "3:4", "4:3", "9:16", "16:9", "21:9"}
	ImageSizes        = []string{"1K", "2K", "4K"}
	VideoAspectRatios = []string{"16:9", "9:16"}
)

// Media is a binary artifact returned by a generator.
type Media struct {
	MimeType string `json:"mime_type"`
	Data     []byte `json:"-"`
	URI      string `json:"uri,omitempty"`
}

func (m *Media) DataURL() string {
	return "data:" + m.MimeType + ";base64," + base64.StdEncoding.EncodeToString(m.Data)
}

type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, opts ImageOptions) (*Media, error)
	EditImage(ctx context.Context, image []byte, prompt string) (*Media, error)
}

type VideoGenerator interface {
	GenerateVideo(ctx context.Context, prompt, aspectRatio string) (*Media, error)
}

type MediaAnalyzer interface {
	AnalyzeImage(ctx context.Context, image []byte, prompt string) (string, error)
	AnalyzeVideo(ctx context.Context, video []byte, prompt string) (string, error)
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Suite bundles one implementation per capability. A nil field is a disabled feature.
type Suite struct {
	Text   TextCompleter
	Search GroundedSearcher
	Images ImageGenerator
	Video  VideoGenerator
	Media  MediaAnalyzer
}

// Normalize fills the defaults and rejects values the image model does not accept.
func (o *ImageOptions) Normalize() error {
	if o.AspectRatio == "" {
		o.AspectRatio = "16:9"
	}
	if o.Size == "" {
		o.Size = "1K"
	}
	if !oneOf(o.AspectRatio, ImageAspectRatios) {
		return fmt.Errorf("%w: unsupported aspect ratio %q", entity.ErrInvalidInput, o.AspectRatio)
	}
	if !oneOf(o.Size, ImageSizes) {
		return fmt.Errorf("%w: unsupported image size %q", entity.ErrInvalidInput, o.Size)
	}
	return nil
}

func NormalizeVideoAspect(aspect string) (string, error) {
	if aspect == "" {
		return "16:9", nil
	}
	if !oneOf(aspect, VideoAspectRatios) {
		return "", fmt.Errorf("%w: unsupported video aspect ratio %q", entity.ErrInvalidInput, aspect)
	}
	return aspect, nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
