// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for support
// conversations and their messages.
//
// The (user_id, sujet) unique index on conversations is the storage-level
// guarantee behind find-or-create: under a concurrent race exactly one
// INSERT wins and the loser surfaces a constraint error that the service
// retries as a lookup.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/afritrade/go-trade-backend/internal/domain"
)

// FindConversation looks up the conversation for an exact (userID, subject)
// pair. Returns ErrNotFound when none exists.
func FindConversation(ctx context.Context, db *gorm.DB, userID, subject string) (*domain.Conversation, error) {
	var c domain.Conversation
	err := db.WithContext(ctx).
		Where("user_id = ? AND sujet = ?", userID, subject).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateConversation inserts a new open conversation for (userID, subject).
// A duplicate (userID, subject) insert fails on the unique index; callers
// treat that as "someone else created it first" and re-read.
func CreateConversation(ctx context.Context, db *gorm.DB, userID, subject string) (*domain.Conversation, error) {
	now := time.Now().UTC()
	c := &domain.Conversation{
		ID:           uuid.NewString(),
		UserID:       userID,
		Subject:      subject,
		Status:       domain.ConversationOpen,
		LastActivity: now,
		CreatedAt:    now,
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetConversation fetches a conversation with its full message thread in
// ascending creation order, senders joined for display. Returns ErrNotFound
// when absent.
func GetConversation(ctx context.Context, db *gorm.DB, id string) (*domain.Conversation, error) {
	var c domain.Conversation
	err := db.WithContext(ctx).
		Preload("Messages", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC, id ASC")
		}).
		Preload("Messages.Sender").
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListConversationsPage returns a page of conversations where the user is
// either the initiator or the assignee, most recently active first. Only
// the latest message is preloaded as a preview, to keep listing cheap.
func ListConversationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Conversation, error) {
	var out []domain.Conversation
	err := db.WithContext(ctx).
		Where("user_id = ? OR assigne_a = ?", userID, userID).
		Order("derniere_activite DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	// One preview query per page row. Page sizes are capped at 100, and
	// SQLite has no clean per-group LIMIT, so N small lookups beat a
	// window-function query here.
	for i := range out {
		var last domain.Message
		err := db.WithContext(ctx).
			Where("conversation_id = ?", out[i].ID).
			Order("created_at DESC, id DESC").
			Limit(1).
			Find(&last).Error
		if err != nil {
			return nil, err
		}
		if last.ID != "" {
			out[i].Messages = []domain.Message{last}
		}
	}
	return out, nil
}

// CountConversations counts conversations visible to userID (initiator or
// assignee).
func CountConversations(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("user_id = ? OR assigne_a = ?", userID, userID).
		Count(&total).Error
	return total, err
}

// CreateMessage appends a message row. Callers run it inside a transaction
// together with TouchConversation so the activity bump is atomic with the
// append.
func CreateMessage(db *gorm.DB, conversationID, senderID, content string) (*domain.Message, error) {
	m := &domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	return m, db.Create(m).Error
}

// TouchConversation bumps derniere_activite (and updated_at) to now.
func TouchConversation(db *gorm.DB, id string) error {
	now := time.Now().UTC()
	return db.Model(&domain.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]any{"derniere_activite": now, "updated_at": now}).Error
}

// GetMessage fetches a message by ID. Returns ErrNotFound when absent.
func GetMessage(ctx context.Context, db *gorm.DB, id string) (*domain.Message, error) {
	var m domain.Message
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// MarkMessageRead flips the read flag on one message. Marking an already
// read message affects zero rows, which callers treat as success.
func MarkMessageRead(ctx context.Context, db *gorm.DB, id string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ? AND lu = ?", id, false).
		Update("lu", true)
	return res.RowsAffected, res.Error
}

// MarkConversationRead marks every message in the conversation that was NOT
// sent by readerID as read. Re-running it is a no-op.
func MarkConversationRead(ctx context.Context, db *gorm.DB, conversationID, readerID string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("conversation_id = ? AND expediteur_id <> ? AND lu = ?", conversationID, readerID, false).
		Update("lu", true)
	return res.RowsAffected, res.Error
}

// CountUnread counts messages addressed to userID (in conversations the
// user can see, sent by someone else) that are still unread.
func CountUnread(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("(conversations.user_id = ? OR conversations.assigne_a = ?)", userID, userID).
		Where("messages.expediteur_id <> ? AND messages.lu = ?", userID, false).
		Count(&total).Error
	return total, err
}
