package transport

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ds124wfegd/lensmaster/internal/assistant"
	"github.com/ds124wfegd/lensmaster/internal/entity"
	"github.com/ds124wfegd/lensmaster/internal/service"
	"github.com/ds124wfegd/lensmaster/pkg/gemini"

	"github.com/gin-gonic/gin"
)

const maxUploadBytes = 32 << 20

type AssistantHandler struct {
	assistantService service.AssistantService
}

func NewAssistantHandler(assistantService service.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService}
}

type PromptRequest struct {
	Prompt string `json:"prompt" form:"prompt"`
}

type ImageRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
	Size        string `json:"size"`
}

type VideoRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
}

// MediaRequest carries an upload either as JSON (data URL or bare base64 in Media)
// or as a multipart form with a "file" part.
type MediaRequest struct {
	Prompt string `json:"prompt" form:"prompt"`
	Kind   string `json:"kind" form:"kind"`
	Media  string `json:"media" form:"media"`
}

// ChatRequest continues the session with SessionID, or starts a new one when it is empty or expired.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// MediaResponse is a generated artifact encoded for the browser
type MediaResponse struct {
	MimeType string `json:"mime_type"`
	DataURL  string `json:"data_url"`
	URI      string `json:"uri,omitempty"`
}

func newMediaResponse(m *assistant.Media) MediaResponse {
	return MediaResponse{MimeType: m.MimeType, DataURL: m.DataURL(), URI: m.URI}
}

func (h *AssistantHandler) Fast(c *gin.Context) {
	h.ask(c, assistant.ModeFast)
}

func (h *AssistantHandler) Deep(c *gin.Context) {
	h.ask(c, assistant.ModeDeep)
}

func (h *AssistantHandler) ask(c *gin.Context, mode assistant.Mode) {
	var req PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	text, err := h.assistantService.Ask(c.Request.Context(), req.Prompt, mode)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Answer generated", gin.H{"text": text}, gin.H{"mode": mode})
}

func (h *AssistantHandler) Search(c *gin.Context) {
	var req PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	result, err := h.assistantService.Search(c.Request.Context(), req.Prompt)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Search completed", gin.H{
		"text":     result.Text,
		"sources":  result.Sources,
		"markdown": result.Markdown(),
	}, nil)
}

func (h *AssistantHandler) GenerateImage(c *gin.Context) {
	var req ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	opts := assistant.ImageOptions{AspectRatio: req.AspectRatio, Size: req.Size}
	media, err := h.assistantService.GenerateImage(c.Request.Context(), req.Prompt, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Image generated", newMediaResponse(media), nil)
}

func (h *AssistantHandler) EditImage(c *gin.Context) {
	req, data, err := bindMedia(c)
	if err != nil {
		respondError(c, err)
		return
	}

	media, err := h.assistantService.EditImage(c.Request.Context(), data, req.Prompt)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Image edited", newMediaResponse(media), nil)
}

func (h *AssistantHandler) Analyze(c *gin.Context) {
	req, data, err := bindMedia(c)
	if err != nil {
		respondError(c, err)
		return
	}

	kind := service.MediaKind(strings.ToLower(req.Kind))
	if kind == "" {
		kind = service.MediaImage
	}

	text, err := h.assistantService.Analyze(c.Request.Context(), kind, data, req.Prompt)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Analysis completed", gin.H{"text": text}, gin.H{"kind": kind})
}

func (h *AssistantHandler) GenerateVideo(c *gin.Context) {
	var req VideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	media, err := h.assistantService.GenerateVideo(c.Request.Context(), req.Prompt, req.AspectRatio)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Video generated", newMediaResponse(media), nil)
}

func (h *AssistantHandler) Transcribe(c *gin.Context) {
	_, data, err := bindMedia(c)
	if err != nil {
		respondError(c, err)
		return
	}

	text, err := h.assistantService.Transcribe(c.Request.Context(), data)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Transcription completed", gin.H{"text": text}, nil)
}

func (h *AssistantHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	reply, err := h.assistantService.Chat(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Reply generated", reply, nil)
}

// bindMedia reads the prompt and the uploaded bytes from a JSON or multipart body.
func bindMedia(c *gin.Context) (*MediaRequest, []byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	var req MediaRequest
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&req); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", entity.ErrInvalidInput, err)
		}
		fh, err := c.FormFile("file")
		if err != nil {
			if req.Media == "" {
				return &req, nil, nil
			}
		} else {
			f, err := fh.Open()
			if err != nil {
				return nil, nil, fmt.Errorf("%w: %v", entity.ErrInvalidInput, err)
			}
			defer f.Close()

			data, err := io.ReadAll(f)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: %v", entity.ErrInvalidInput, err)
			}
			return &req, data, nil
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", entity.ErrInvalidInput, err)
	}

	if req.Media == "" {
		return &req, nil, nil
	}
	data, _, err := gemini.ParseDataURL(req.Media)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: media: %v", entity.ErrInvalidInput, err)
	}
	return &req, data, nil
}
