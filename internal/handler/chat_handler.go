package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"pairlock/internal/services"
	"pairlock/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ChatHandler struct {
	service *services.ChatService
}

func NewChatHandler(service *services.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

func (h *ChatHandler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/messages/text", h.SendText)
	r.POST("/messages/file", h.SendFile)
	r.GET("/messages", h.GetMessages)
	r.DELETE("/messages/:id", h.DeleteMessage)
	r.GET("/conversations", h.GetConversations)
	r.GET("/files/:id/download", h.DownloadFile)
	r.GET("/files/:id/view", h.ViewFile)
}

func (h *ChatHandler) SendText(c *gin.Context) {
	var req httpdto.SendTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	friendID, err := uuid.Parse(req.FriendID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid friend_id", "INVALID_REQUEST"))
		return
	}

	dto, err := h.service.SendText(c.Request.Context(), userID, friendID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(dto))
}

func (h *ChatHandler) SendFile(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	friendID, err := uuid.Parse(c.PostForm("friend_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid friend_id", "INVALID_REQUEST"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("file is required", "INVALID_REQUEST"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("unreadable file", "INVALID_REQUEST"))
		return
	}
	defer file.Close()

	mimeType := fileHeader.Header.Get("Content-Type")
	dto, err := h.service.SendFile(c.Request.Context(), userID, friendID, file, fileHeader.Filename, mimeType, fileHeader.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(dto))
}

func (h *ChatHandler) GetMessages(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	friendID, err := uuid.Parse(c.Query("friend_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid friend_id", "INVALID_REQUEST"))
		return
	}

	page := parseIntDefault(c.Query("page"), 1)
	limit := parseIntDefault(c.Query("limit"), 0)

	messages, hasMore, err := h.service.GetMessages(c.Request.Context(), userID, friendID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.MessagesPageResponse{
		Messages: messages,
		HasMore:  hasMore,
		Page:     page,
		Limit:    limit,
	}))
}

func (h *ChatHandler) GetConversations(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	summaries, err := h.service.GetConversations(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(summaries))
}

func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid message id", "INVALID_REQUEST"))
		return
	}

	if err := h.service.DeleteMessage(c.Request.Context(), messageID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"deleted": true}))
}

func (h *ChatHandler) DownloadFile(c *gin.Context) {
	h.streamFile(c, false)
}

func (h *ChatHandler) ViewFile(c *gin.Context) {
	h.streamFile(c, true)
}

func (h *ChatHandler) streamFile(c *gin.Context, inline bool) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid message id", "INVALID_REQUEST"))
		return
	}

	var stream services.FileStream
	if inline {
		stream, err = h.service.ViewFile(c.Request.Context(), messageID, userID)
	} else {
		stream, err = h.service.DownloadFile(c.Request.Context(), messageID, userID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	defer stream.Stream.Close()

	disposition := "attachment"
	if stream.Inline {
		disposition = "inline"
	}
	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("%s; filename=%q", disposition, stream.Filename),
	}
	c.DataFromReader(http.StatusOK, stream.Size, stream.MimeType, stream.Stream, headers)
}

func parseIntDefault(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
