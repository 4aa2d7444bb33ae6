package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ds124wfegd/lensmaster/internal/assistant"
	"github.com/ds124wfegd/lensmaster/internal/entity"

	"github.com/sirupsen/logrus"
)

type assistantService struct {
	suite assistant.Suite
	chats *assistant.ChatStore
}

func NewAssistantService(suite assistant.Suite, chats *assistant.ChatStore) AssistantService {
	if chats == nil {
		chats = assistant.NewChatStore(0, 20)
	}
	return &assistantService{suite: suite, chats: chats}
}

func (s *assistantService) Ask(ctx context.Context, prompt string, mode assistant.Mode) (string, error) {
	if s.suite.Text == nil {
		return "", disabled("text")
	}
	if isBlank(prompt) {
		return "", entity.ErrEmptyPrompt
	}
	defer logCall("ask_"+string(mode), time.Now())
	return s.suite.Text.Complete(ctx, prompt, mode)
}

func (s *assistantService) Search(ctx context.Context, query string) (*assistant.SearchResult, error) {
	if s.suite.Search == nil {
		return nil, disabled("search")
	}
	if isBlank(query) {
		return nil, entity.ErrEmptyPrompt
	}
	defer logCall("search", time.Now())
	return s.suite.Search.Search(ctx, query)
}

func (s *assistantService) GenerateImage(ctx context.Context, prompt string, opts assistant.ImageOptions) (*assistant.Media, error) {
	if s.suite.Images == nil {
		return nil, disabled("image generation")
	}
	if isBlank(prompt) {
		return nil, entity.ErrEmptyPrompt
	}
	if err := opts.Normalize(); err != nil {
		return nil, err
	}
	defer logCall("generate_image", time.Now())
	return s.suite.Images.GenerateImage(ctx, prompt, opts)
}

func (s *assistantService) EditImage(ctx context.Context, image []byte, prompt string) (*assistant.Media, error) {
	if s.suite.Images == nil {
		return nil, disabled("image editing")
	}
	if len(image) == 0 {
		return nil, entity.ErrMissingMedia
	}
	if isBlank(prompt) {
		return nil, entity.ErrEmptyPrompt
	}
	defer logCall("edit_image", time.Now())
	return s.suite.Images.EditImage(ctx, image, prompt)
}

func (s *assistantService) GenerateVideo(ctx context.Context, prompt, aspectRatio string) (*assistant.Media, error) {
	if s.suite.Video == nil {
		return nil, disabled("video generation")
	}
	if isBlank(prompt) {
		return nil, entity.ErrEmptyPrompt
	}
	aspect, err := assistant.NormalizeVideoAspect(aspectRatio)
	if err != nil {
		return nil, err
	}
	defer logCall("generate_video", time.Now())
	return s.suite.Video.GenerateVideo(ctx, prompt, aspect)
}

func (s *assistantService) Analyze(ctx context.Context, kind MediaKind, data []byte, prompt string) (string, error) {
	if s.suite.Media == nil {
		return "", disabled("media analysis")
	}
	if len(data) == 0 {
		return "", entity.ErrMissingMedia
	}
	defer logCall("analyze_"+string(kind), time.Now())

	switch kind {
	case MediaImage:
		return s.suite.Media.AnalyzeImage(ctx, data, prompt)
	case MediaVideo:
		return s.suite.Media.AnalyzeVideo(ctx, data, prompt)
	default:
		return "", fmt.Errorf("%w: unsupported media kind %q", entity.ErrInvalidInput, kind)
	}
}

func (s *assistantService) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if s.suite.Media == nil {
		return "", disabled("transcription")
	}
	if len(audio) == 0 {
		return "", entity.ErrMissingMedia
	}
	defer logCall("transcribe", time.Now())
	return s.suite.Media.Transcribe(ctx, audio)
}

func (s *assistantService) Chat(ctx context.Context, sessionID, message string) (*ChatReply, error) {
	if s.suite.Text == nil {
		return nil, disabled("chat")
	}
	if isBlank(message) {
		return nil, entity.ErrEmptyPrompt
	}

	sess := s.chats.Get(sessionID)
	defer logCall("chat", time.Now())

	reply, err := sess.Send(ctx, s.suite.Text, message)
	if err != nil {
		return nil, err
	}
	return &ChatReply{SessionID: sess.ID, Reply: reply, History: sess.History()}, nil
}

func disabled(feature string) error {
	return fmt.Errorf("%w: %s", entity.ErrFeatureDisabled, feature)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func logCall(op string, start time.Time) {
	logrus.WithFields(logrus.Fields{
		"operation": op,
		"duration":  time.Since(start).String(),
	}).Debug("Assistant call finished")
}
