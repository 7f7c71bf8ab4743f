package handler

import (
	"net/http"
	"strings"

	"kantong/internal/bot"
	"kantong/internal/middleware"
	"kantong/internal/util"

	"github.com/gin-gonic/gin"
)

// MessageHandler is the webhook the chat gateway posts messages to.
type MessageHandler struct {
	Bot *bot.Bot
}

func NewMessageHandler(b *bot.Bot) *MessageHandler {
	return &MessageHandler{Bot: b}
}

type messageReq struct {
	UserID   string `json:"user_id" binding:"required"`
	Text     string `json:"text"`
	IsStatus bool   `json:"is_status"`
}

// PostMessage runs one chat message and returns the replies to send back.
// Ignored messages (groups, status broadcasts) yield an empty list.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	var req messageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request: "+err.Error())
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	c.Set(middleware.ChatUserKey, req.UserID)

	replies, err := h.Bot.HandleMessage(c.Request.Context(), bot.Message{
		UserID:   req.UserID,
		Text:     req.Text,
		IsStatus: req.IsStatus,
	})
	if err != nil {
		fail(c, err)
		return
	}
	if replies == nil {
		replies = []bot.Reply{}
	}
	util.Success(c, util.Response{"replies": replies})
}
