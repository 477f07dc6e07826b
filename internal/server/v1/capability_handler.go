package v1

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nulzo/oneai-gateway/internal/gateway"
	"github.com/nulzo/oneai-gateway/internal/llm"
	"github.com/nulzo/oneai-gateway/internal/server/validator"
	"github.com/nulzo/oneai-gateway/pkg/api"
)

// MaxUploadBytes caps a transcription upload.
const MaxUploadBytes = 25 << 20

// capability is any task shaped request body.
type capability interface {
	Capability() *api.CapabilityRequest
}

type CapabilityHandler struct {
	service   gateway.Service
	validator *validator.Validator
}

func NewCapabilityHandler(service gateway.Service, v *validator.Validator) *CapabilityHandler {
	return &CapabilityHandler{
		service:   service,
		validator: v,
	}
}

// Generate executes a full capability request.
//
// POST /v1/generate
func (h *CapabilityHandler) Generate(c *gin.Context) {
	var req api.CapabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}
	h.execute(c, &req)
}

// POST /v1/chat
func (h *CapabilityHandler) Chat(c *gin.Context) {
	h.bindAndExecute(c, &api.ChatRequest{})
}

// POST /v1/images
func (h *CapabilityHandler) Images(c *gin.Context) {
	h.bindAndExecute(c, &api.ImageRequest{})
}

// POST /v1/videos
func (h *CapabilityHandler) Videos(c *gin.Context) {
	h.bindAndExecute(c, &api.VideoRequest{})
}

// POST /v1/speech
func (h *CapabilityHandler) Speech(c *gin.Context) {
	h.bindAndExecute(c, &api.SpeechRequest{})
}

// POST /v1/music
func (h *CapabilityHandler) Music(c *gin.Context) {
	h.bindAndExecute(c, &api.MusicRequest{})
}

// Transcriptions accepts a multipart upload in the "file" field with
// optional "language" and "model" fields.
//
// POST /v1/transcriptions
func (h *CapabilityHandler) Transcriptions(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = c.Error(api.ValidationError(map[string]string{
				"file": fmt.Sprintf("must be at most %d MB", MaxUploadBytes>>20),
			}))
			return
		}
		_ = c.Error(api.ValidationError(map[string]string{"file": "is required"}))
		return
	}

	f, err := fh.Open()
	if err != nil {
		_ = c.Error(api.BadRequestError("Could not read uploaded file", api.WithLog(err)))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		_ = c.Error(api.BadRequestError("Could not read uploaded file", api.WithLog(err)))
		return
	}

	h.execute(c, &api.CapabilityRequest{
		Task:      api.TaskTranscription,
		ModelHint: c.PostForm("model"),
		Audio:     &api.AudioInput{Filename: fh.Filename, Data: data},
		Options:   api.Options{Language: c.PostForm("language")},
	})
}

// VideoStatus polls an asynchronous video job. The vendor defaults to
// HeyGen and can be chosen with ?provider=.
//
// GET /v1/videos/:id
func (h *CapabilityHandler) VideoStatus(c *gin.Context) {
	provider := llm.ProviderID(c.Query("provider"))

	status, err := h.service.VideoStatus(c.Request.Context(), provider, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *CapabilityHandler) bindAndExecute(c *gin.Context, body capability) {
	if err := c.ShouldBindJSON(body); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}
	h.execute(c, body.Capability())
}

// execute always answers 200 with the envelope. Failures live inside it.
func (h *CapabilityHandler) execute(c *gin.Context, req *api.CapabilityRequest) {
	resp, err := h.service.Execute(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
