package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"crosswalk.app/api/common/logger"
	"crosswalk.app/api/internal/http/dto"
	"crosswalk.app/api/internal/http/middleware"
	"crosswalk.app/api/internal/model"
	"crosswalk.app/api/internal/service"
	"crosswalk.app/api/internal/stream"
	"crosswalk.app/api/internal/vibe"
)

// StreamTracker counts open event streams. The returned func marks the stream closed.
type StreamTracker interface {
	StreamOpened() func()
}

type nopStreams struct{}

func (nopStreams) StreamOpened() func() { return func() {} }

type VibeHandler struct {
	vibeService service.VibeService
	streams     StreamTracker
}

func NewVibeHandler(vibeService service.VibeService, streams StreamTracker) *VibeHandler {
	if streams == nil {
		streams = nopStreams{}
	}
	return &VibeHandler{vibeService: vibeService, streams: streams}
}

func (h *VibeHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	vibes, err := h.vibeService.List(ctx, middleware.UserID(ctx))
	if err != nil {
		respondError(c, err, "Failed to list vibes")
		return
	}
	c.JSON(http.StatusOK, vibes)
}

func (h *VibeHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateVibeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": dto.BindingMessage(err)})
			return
		}
	}

	v, err := h.vibeService.Create(ctx, middleware.UserID(ctx), req.Name)
	if err != nil {
		respondError(c, err, "Failed to create vibe")
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *VibeHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	vibeID, ok := pathID(c, "Vibe not found")
	if !ok {
		return
	}

	v, err := h.vibeService.Get(ctx, middleware.UserID(ctx), vibeID)
	if err != nil {
		respondError(c, err, "Failed to get vibe")
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *VibeHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	vibeID, ok := pathID(c, "Vibe not found")
	if !ok {
		return
	}

	if err := h.vibeService.Delete(ctx, middleware.UserID(ctx), vibeID); err != nil {
		respondError(c, err, "Failed to delete vibe")
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

func (h *VibeHandler) Messages(c *gin.Context) {
	ctx := c.Request.Context()
	vibeID, ok := pathID(c, "Vibe not found")
	if !ok {
		return
	}

	msgs, err := h.vibeService.Messages(ctx, middleware.UserID(ctx), vibeID)
	if err != nil {
		respondError(c, err, "Failed to load messages")
		return
	}
	if msgs == nil {
		msgs = []model.VibeMessage{}
	}
	c.JSON(http.StatusOK, msgs)
}

// Chat streams one agent turn as server-sent events. Validation and lock
// failures are plain JSON errors; once the stream is open every outcome is an event.
func (h *VibeHandler) Chat(c *gin.Context) {
	ctx := c.Request.Context()
	vibeID, ok := pathID(c, "Vibe not found")
	if !ok {
		return
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{VibeID: &vibeID})

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	turn, err := h.vibeService.StartChat(ctx, middleware.UserID(ctx), vibeID, req.Message)
	if err != nil {
		respondError(c, err, "Failed to start chat")
		return
	}
	defer turn.Close()

	sse, err := stream.New(c.Writer, ctx.Done())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}
	defer h.streams.StreamOpened()()

	res, err := turn.Run(ctx, vibe.EmitterFunc(func(e vibe.Event) {
		sse.Data(e)
	}), sse.Closed)
	if err != nil {
		return
	}
	slog.InfoContext(ctx, "vibe turn finished",
		"outcome", res.Outcome,
		"iterations", res.Iterations,
		"client_connected", !sse.Closed())
}

func (h *VibeHandler) Revert(c *gin.Context) {
	ctx := c.Request.Context()
	vibeID, ok := pathID(c, "Vibe not found")
	if !ok {
		return
	}

	if err := h.vibeService.Revert(ctx, middleware.UserID(ctx), vibeID); err != nil {
		respondError(c, err, "Failed to revert")
		return
	}
	c.JSON(http.StatusOK, dto.RevertResponse{Success: true, Message: "Branch reset to production"})
}

func (h *VibeHandler) PreviewURL(c *gin.Context) {
	ctx := c.Request.Context()
	vibeID, ok := pathID(c, "Vibe not found")
	if !ok {
		return
	}

	info, err := h.vibeService.PreviewURL(ctx, middleware.UserID(ctx), vibeID)
	if err != nil {
		respondError(c, err, "Failed to get preview")
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *VibeHandler) Files(c *gin.Context) {
	ctx := c.Request.Context()
	vibeID, ok := pathID(c, "Vibe not found")
	if !ok {
		return
	}

	entries, err := h.vibeService.Files(ctx, middleware.UserID(ctx), vibeID, c.Query("path"))
	if err != nil {
		respondError(c, err, "Failed to list files")
		return
	}
	c.JSON(http.StatusOK, dto.FilesResponse{Files: entries})
}

func (h *VibeHandler) File(c *gin.Context) {
	ctx := c.Request.Context()
	vibeID, ok := pathID(c, "Vibe not found")
	if !ok {
		return
	}

	file, err := h.vibeService.File(ctx, middleware.UserID(ctx), vibeID, c.Query("path"))
	if err != nil {
		respondError(c, err, "Failed to get file")
		return
	}
	c.JSON(http.StatusOK, dto.FileResponse{Path: file.Path, Content: file.Content, SHA: file.SHA})
}

func (h *VibeHandler) CreatePullRequest(c *gin.Context) {
	ctx := c.Request.Context()
	vibeID, ok := pathID(c, "Vibe not found")
	if !ok {
		return
	}

	var req dto.CreatePullRequestRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": dto.BindingMessage(err)})
			return
		}
	}

	pr, err := h.vibeService.CreatePullRequest(ctx, middleware.UserID(ctx), vibeID, req.Title, req.Body)
	if err != nil {
		respondError(c, err, "Failed to create PR")
		return
	}
	c.JSON(http.StatusOK, dto.ToPullRequestResponse(pr))
}
