package assistant

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ds124wfegd/lensmaster/config"
	"github.com/ds124wfegd/lensmaster/internal/entity"
	"github.com/ds124wfegd/lensmaster/pkg/gemini"
)

const (
	defaultImagePrompt = "Analyze this camera gear in detail."
	defaultVideoPrompt = "What is happening in this video clip?"
	transcribePrompt   = "Transcribe this audio accurately."
)

// Gemini implements every capability on top of the Generative Language API.
type Gemini struct {
	client *gemini.Client
	cfg    config.AssistantConfig
}

func NewGemini(cfg config.AssistantConfig, httpClient *http.Client) *Gemini {
	if httpClient == nil && cfg.Timeout > 0 {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	c := gemini.NewClient(cfg.APIKey, cfg.BaseURL, httpClient)
	c.SetPollInterval(cfg.PollInterval)
	return &Gemini{client: c, cfg: cfg}
}

// NewGeminiSuite wires the Gemini backend into every capability slot.
func NewGeminiSuite(cfg config.AssistantConfig, httpClient *http.Client) Suite {
	g := NewGemini(cfg, httpClient)
	return Suite{Text: g, Search: g, Images: g, Video: g, Media: g}
}

func (g *Gemini) Complete(ctx context.Context, prompt string, mode Mode) (string, error) {
	req := gemini.TextRequest(gemini.Part{Text: prompt})
	model := g.cfg.FastModel
	if mode == ModeDeep {
		model = g.cfg.DeepModel
		if g.cfg.ThinkBudget > 0 {
			req.GenerationConfig = &gemini.GenerationConfig{
				ThinkingConfig: &gemini.ThinkingConfig{ThinkingBudget: g.cfg.ThinkBudget},
			}
		}
	}

	resp, err := g.client.GenerateContent(ctx, model, req)
	if err != nil {
		return "", mapError(err)
	}
	return resp.Text(), nil
}

func (g *Gemini) Search(ctx context.Context, query string) (*SearchResult, error) {
	req := gemini.TextRequest(gemini.Part{Text: query})
	req.Tools = []gemini.Tool{{GoogleSearch: &gemini.GoogleSearch{}}}

	resp, err := g.client.GenerateContent(ctx, g.cfg.FastModel, req)
	if err != nil {
		return nil, mapError(err)
	}

	result := &SearchResult{Text: resp.Text()}
	for _, s := range resp.Sources() {
		result.Sources = append(result.Sources, Source{Title: s.Title, URI: s.URI})
	}
	return result, nil
}

func (g *Gemini) GenerateImage(ctx context.Context, prompt string, opts ImageOptions) (*Media, error) {
	req := gemini.TextRequest(gemini.Part{Text: prompt})
	req.GenerationConfig = &gemini.GenerationConfig{
		ImageConfig: &gemini.ImageConfig{AspectRatio: opts.AspectRatio, ImageSize: opts.Size},
	}

	resp, err := g.client.GenerateContent(ctx, g.cfg.ImageModel, req)
	if err != nil {
		return nil, mapError(err)
	}
	return imageFrom(resp)
}

func (g *Gemini) EditImage(ctx context.Context, image []byte, prompt string) (*Media, error) {
	jpeg, err := gemini.PrepareImage(image, g.cfg.MaxImagePx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidInput, err)
	}

	req := gemini.TextRequest(
		gemini.Part{InlineData: gemini.InlineBlob("image/jpeg", jpeg)},
		gemini.Part{Text: prompt},
	)
	resp, err := g.client.GenerateContent(ctx, g.cfg.EditModel, req)
	if err != nil {
		return nil, mapError(err)
	}
	return imageFrom(resp)
}

func (g *Gemini) GenerateVideo(ctx context.Context, prompt, aspectRatio string) (*Media, error) {
	uri, err := g.client.GenerateVideo(ctx, g.cfg.VideoModel, prompt, aspectRatio)
	if err != nil {
		return nil, mapError(err)
	}

	data, mime, err := g.client.Download(ctx, uri)
	if err != nil {
		return nil, mapError(err)
	}
	if mime == "" || strings.HasPrefix(mime, "application/octet-stream") {
		mime = "video/mp4"
	}
	return &Media{MimeType: mime, Data: data, URI: uri}, nil
}

func (g *Gemini) AnalyzeImage(ctx context.Context, image []byte, prompt string) (string, error) {
	jpeg, err := gemini.PrepareImage(image, g.cfg.MaxImagePx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrInvalidInput, err)
	}
	return g.analyze(ctx, g.cfg.DeepModel, "image/jpeg", jpeg, orDefault(prompt, defaultImagePrompt))
}

func (g *Gemini) AnalyzeVideo(ctx context.Context, video []byte, prompt string) (string, error) {
	return g.analyze(ctx, g.cfg.DeepModel, "video/mp4", video, orDefault(prompt, defaultVideoPrompt))
}

func (g *Gemini) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return g.analyze(ctx, g.cfg.FastModel, "audio/wav", audio, transcribePrompt)
}

func (g *Gemini) analyze(ctx context.Context, model, mime string, data []byte, prompt string) (string, error) {
	req := gemini.TextRequest(
		gemini.Part{InlineData: gemini.InlineBlob(mime, data)},
		gemini.Part{Text: prompt},
	)
	resp, err := g.client.GenerateContent(ctx, model, req)
	if err != nil {
		return "", mapError(err)
	}
	return resp.Text(), nil
}

func imageFrom(resp *gemini.GenerateResponse) (*Media, error) {
	blob := resp.FirstImage()
	if blob == nil {
		return nil, entity.ErrNoImage
	}
	data, err := base64.StdEncoding.DecodeString(blob.Data)
	if err != nil {
		return nil, fmt.Errorf("decode generated image: %w", err)
	}
	mime := blob.MimeType
	if mime == "" {
		mime = "image/png"
	}
	return &Media{MimeType: mime, Data: data}, nil
}

func mapError(err error) error {
	if errors.Is(err, gemini.ErrMissingAPIKey) {
		return entity.ErrMissingCredential
	}
	return err
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
