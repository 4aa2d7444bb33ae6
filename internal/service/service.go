package service

import (
	"context"

	"github.com/ds124wfegd/lensmaster/internal/assistant"
	"github.com/ds124wfegd/lensmaster/internal/billing"
	"github.com/ds124wfegd/lensmaster/internal/entity"
)

// BookingService определяет интерфейс для операций с арендой
type BookingService interface {
	// Каталог и цены
	Catalog(ctx context.Context) entity.Catalog
	Camera(ctx context.Context, id string) (*entity.CameraModel, error)
	Pricing(ctx context.Context) Pricing
	Quote(ctx context.Context, startDate, endDate string) (*billing.Quote, error)

	// Заказы
	PlaceOrder(ctx context.Context, req *entity.BookingRequest) (*entity.Order, error)
	RecentOrders(ctx context.Context, limit int) []entity.Order
	ContactLink(order *entity.Order) string
}

// AssistantService exposes the AI features. Disabled capabilities return entity.ErrFeatureDisabled.
type AssistantService interface {
	Ask(ctx context.Context, prompt string, mode assistant.Mode) (string, error)
	Search(ctx context.Context, query string) (*assistant.SearchResult, error)
	GenerateImage(ctx context.Context, prompt string, opts assistant.ImageOptions) (*assistant.Media, error)
	EditImage(ctx context.Context, image []byte, prompt string) (*assistant.Media, error)
	GenerateVideo(ctx context.Context, prompt, aspectRatio string) (*assistant.Media, error)
	Analyze(ctx context.Context, kind MediaKind, data []byte, prompt string) (string, error)
	Transcribe(ctx context.Context, audio []byte) (string, error)
	Chat(ctx context.Context, sessionID, message string) (*ChatReply, error)
}

type Pricing struct {
	DailyRate int64  `json:"daily_rate"`
	Currency  string `json:"currency"`
}

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

type ChatReply struct {
	SessionID string           `json:"session_id"`
	Reply     string           `json:"reply"`
	History   []assistant.Turn `json:"history"`
}
