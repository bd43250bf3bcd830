// Messaging HTTP handlers.
//
// This file exposes REST endpoints for support conversations:
//   - POST /messages                        (send; resolves conversation by subject)
//   - GET  /conversations                   (list own, paginated, with previews)
//   - GET  /conversations/:id               (full thread)
//   - POST /conversations/:id/messages      (reply into an existing thread)
//   - PUT  /conversations/:id/lu            (mark thread read)
//   - PUT  /messages/:id/lu                 (mark one message read)
//   - GET  /messages/non-lus                (unread count)
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/afritrade/go-trade-backend/internal/domain"
	"github.com/afritrade/go-trade-backend/internal/http/middleware"
)

// MessageService defines the messaging operations consumed by HTTP
// handlers.
type MessageService interface {
	Send(ctx context.Context, userID, subject, content string) (*domain.Message, *domain.Conversation, error)
	Reply(ctx context.Context, conversationID, senderID, content string) (*domain.Message, error)
	ListForUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Conversation, int64, error)
	Thread(ctx context.Context, conversationID string) (*domain.Conversation, error)
	MarkRead(ctx context.Context, messageID string) error
	MarkThreadRead(ctx context.Context, conversationID, readerID string) error
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

// SendMessageRequest opens or continues a conversation by subject.
type SendMessageRequest struct {
	Subject string `json:"sujet"`
	Content string `json:"contenu"`
}

// ReplyRequest appends to an existing conversation.
type ReplyRequest struct {
	Content string `json:"contenu"`
}

// SendMessageResponse returns the appended message and its conversation.
type SendMessageResponse struct {
	Message      *domain.Message      `json:"message"`
	Conversation *domain.Conversation `json:"conversation"`
}

// ListConversationsResponse wraps a page of conversations.
type ListConversationsResponse struct {
	Conversations []domain.Conversation `json:"conversations"`
	Pagination    Pagination            `json:"pagination"`
}

// SendMessage appends a message to the caller's conversation for the given
// subject, creating the conversation on first contact.
func (h *Handlers) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	msg, conv, err := h.msgSvc.Send(c.Request.Context(), middleware.UserID(c), req.Subject, req.Content)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, SendMessageResponse{Message: msg, Conversation: conv})
}

// ListConversations returns a page of the caller's conversations.
func (h *Handlers) ListConversations(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.msgSvc.ListForUser(c.Request.Context(), middleware.UserID(c), page, pageSize)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, ListConversationsResponse{
		Conversations: items,
		Pagination:    newPagination(page, pageSize, total),
	})
}

// GetConversation returns a full thread; only a participant (initiator or
// assignee) or an admin may read it.
func (h *Handlers) GetConversation(c *gin.Context) {
	conv, err := h.msgSvc.Thread(c.Request.Context(), c.Param("id"))
	if err != nil {
		failFromService(c, err)
		return
	}
	if !h.canReadConversation(c, conv) {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not your conversation")
		return
	}
	ok(c, http.StatusOK, conv)
}

// ReplyConversation appends a message to an existing thread.
func (h *Handlers) ReplyConversation(c *gin.Context) {
	conv, err := h.msgSvc.Thread(c.Request.Context(), c.Param("id"))
	if err != nil {
		failFromService(c, err)
		return
	}
	if !h.canReadConversation(c, conv) {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not your conversation")
		return
	}

	var req ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	msg, err := h.msgSvc.Reply(c.Request.Context(), conv.ID, middleware.UserID(c), req.Content)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, msg)
}

// MarkConversationRead marks the counterpart's messages in a thread as read.
func (h *Handlers) MarkConversationRead(c *gin.Context) {
	conv, err := h.msgSvc.Thread(c.Request.Context(), c.Param("id"))
	if err != nil {
		failFromService(c, err)
		return
	}
	if !h.canReadConversation(c, conv) {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not your conversation")
		return
	}
	if err := h.msgSvc.MarkThreadRead(c.Request.Context(), conv.ID, middleware.UserID(c)); err != nil {
		failFromService(c, err)
		return
	}
	noContent(c)
}

// MarkMessageRead marks a single message as read.
func (h *Handlers) MarkMessageRead(c *gin.Context) {
	if err := h.msgSvc.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		failFromService(c, err)
		return
	}
	noContent(c)
}

// UnreadCount returns the caller's unread message count.
func (h *Handlers) UnreadCount(c *gin.Context) {
	n, err := h.msgSvc.UnreadCount(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"non_lus": n})
}

// canReadConversation reports whether the caller participates in the
// conversation (initiator or assignee) or is an admin.
func (h *Handlers) canReadConversation(c *gin.Context, conv *domain.Conversation) bool {
	if conv == nil {
		return false
	}
	if middleware.IdentityFrom(c).IsAdmin() {
		return true
	}
	uid := middleware.UserID(c)
	if uid == "" {
		return false
	}
	if conv.UserID == uid {
		return true
	}
	return conv.AssignedTo != nil && *conv.AssignedTo == uid
}
