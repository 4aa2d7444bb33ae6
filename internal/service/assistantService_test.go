package service

import (
	"context"
	"testing"

	"github.com/ds124wfegd/lensmaster/internal/assistant"
	"github.com/ds124wfegd/lensmaster/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAI struct {
	lastPrompt string
	lastMode   assistant.Mode
	lastOpts   assistant.ImageOptions
	lastAspect string
	lastKind   string
}

func (f *fakeAI) Complete(_ context.Context, prompt string, mode assistant.Mode) (string, error) {
	f.lastPrompt, f.lastMode = prompt, mode
	return "reply:" + prompt, nil
}

func (f *fakeAI) Search(_ context.Context, query string) (*assistant.SearchResult, error) {
	return &assistant.SearchResult{Text: "found " + query}, nil
}

func (f *fakeAI) GenerateImage(_ context.Context, prompt string, opts assistant.ImageOptions) (*assistant.Media, error) {
	f.lastOpts = opts
	return &assistant.Media{MimeType: "image/png", Data: []byte(prompt)}, nil
}

func (f *fakeAI) EditImage(_ context.Context, image []byte, prompt string) (*assistant.Media, error) {
	return &assistant.Media{MimeType: "image/png", Data: image}, nil
}

func (f *fakeAI) GenerateVideo(_ context.Context, prompt, aspect string) (*assistant.Media, error) {
	f.lastAspect = aspect
	return &assistant.Media{MimeType: "video/mp4", Data: []byte("mp4")}, nil
}

func (f *fakeAI) AnalyzeImage(_ context.Context, image []byte, prompt string) (string, error) {
	f.lastKind = "image"
	return "image ok", nil
}

func (f *fakeAI) AnalyzeVideo(_ context.Context, video []byte, prompt string) (string, error) {
	f.lastKind = "video"
	return "video ok", nil
}

func (f *fakeAI) Transcribe(_ context.Context, audio []byte) (string, error) {
	return "transcript", nil
}

func fullSuite(ai *fakeAI) assistant.Suite {
	return assistant.Suite{Text: ai, Search: ai, Images: ai, Video: ai, Media: ai}
}

func TestAssistantDisabledFeatures(t *testing.T) {
	svc := NewAssistantService(assistant.Suite{}, nil)
	ctx := context.Background()

	_, err := svc.Ask(ctx, "hi", assistant.ModeFast)
	assert.ErrorIs(t, err, entity.ErrFeatureDisabled)
	_, err = svc.Search(ctx, "hi")
	assert.ErrorIs(t, err, entity.ErrFeatureDisabled)
	_, err = svc.GenerateImage(ctx, "hi", assistant.ImageOptions{})
	assert.ErrorIs(t, err, entity.ErrFeatureDisabled)
	_, err = svc.EditImage(ctx, []byte("x"), "hi")
	assert.ErrorIs(t, err, entity.ErrFeatureDisabled)
	_, err = svc.GenerateVideo(ctx, "hi", "")
	assert.ErrorIs(t, err, entity.ErrFeatureDisabled)
	_, err = svc.Analyze(ctx, MediaImage, []byte("x"), "")
	assert.ErrorIs(t, err, entity.ErrFeatureDisabled)
	_, err = svc.Transcribe(ctx, []byte("x"))
	assert.ErrorIs(t, err, entity.ErrFeatureDisabled)
	_, err = svc.Chat(ctx, "", "hi")
	assert.ErrorIs(t, err, entity.ErrFeatureDisabled)
}

func TestAssistantInputValidation(t *testing.T) {
	svc := NewAssistantService(fullSuite(&fakeAI{}), nil)
	ctx := context.Background()

	_, err := svc.Ask(ctx, "  ", assistant.ModeDeep)
	assert.ErrorIs(t, err, entity.ErrEmptyPrompt)
	_, err = svc.Search(ctx, "")
	assert.ErrorIs(t, err, entity.ErrEmptyPrompt)
	_, err = svc.EditImage(ctx, nil, "make it pop")
	assert.ErrorIs(t, err, entity.ErrMissingMedia)
	_, err = svc.EditImage(ctx, []byte("x"), "")
	assert.ErrorIs(t, err, entity.ErrEmptyPrompt)
	_, err = svc.Analyze(ctx, MediaVideo, nil, "")
	assert.ErrorIs(t, err, entity.ErrMissingMedia)
	_, err = svc.Analyze(ctx, "audio", []byte("x"), "")
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
	_, err = svc.Transcribe(ctx, nil)
	assert.ErrorIs(t, err, entity.ErrMissingMedia)
	_, err = svc.GenerateImage(ctx, "x", assistant.ImageOptions{AspectRatio: "7:5"})
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
	_, err = svc.GenerateVideo(ctx, "x", "4:3")
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestAssistantDispatch(t *testing.T) {
	ai := &fakeAI{}
	svc := NewAssistantService(fullSuite(ai), nil)
	ctx := context.Background()

	out, err := svc.Ask(ctx, "best lens?", assistant.ModeDeep)
	require.NoError(t, err)
	assert.Equal(t, "reply:best lens?", out)
	assert.Equal(t, assistant.ModeDeep, ai.lastMode)

	_, err = svc.GenerateImage(ctx, "studio shot", assistant.ImageOptions{})
	require.NoError(t, err)
	assert.Equal(t, assistant.ImageOptions{AspectRatio: "16:9", Size: "1K"}, ai.lastOpts)

	_, err = svc.GenerateVideo(ctx, "pan", "")
	require.NoError(t, err)
	assert.Equal(t, "16:9", ai.lastAspect)

	out, err = svc.Analyze(ctx, MediaVideo, []byte("x"), "")
	require.NoError(t, err)
	assert.Equal(t, "video ok", out)
	assert.Equal(t, "video", ai.lastKind)

	out, err = svc.Transcribe(ctx, []byte("wav"))
	require.NoError(t, err)
	assert.Equal(t, "transcript", out)
}

func TestAssistantChatKeepsSession(t *testing.T) {
	ai := &fakeAI{}
	svc := NewAssistantService(fullSuite(ai), assistant.NewChatStore(10, 20))
	ctx := context.Background()

	first, err := svc.Chat(ctx, "", "Do you rent drones?")
	require.NoError(t, err)
	assert.NotEmpty(t, first.SessionID)
	assert.Equal(t, "As a camera rental expert, answer: Do you rent drones?", ai.lastPrompt)
	assert.Len(t, first.History, 3)

	second, err := svc.Chat(ctx, first.SessionID, "And gimbals?")
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Len(t, second.History, 5)
	assert.Contains(t, ai.lastPrompt, "Customer: Do you rent drones?")
}
