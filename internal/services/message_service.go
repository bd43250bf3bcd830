// Package services – MessageService
//
// This file implements MessageService, the application-level component that
// owns support conversations and their messages. It validates inputs,
// resolves conversations by (user, subject) with a race-safe find-or-create,
// and persists message appends atomically with the conversation activity
// bump.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include conversation/user identifiers and pagination parameters where
// applicable.

package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/afritrade/go-trade-backend/internal/domain"
	"github.com/afritrade/go-trade-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// defaultSubject is used when a message is sent without an explicit subject.
const defaultSubject = "Demande générale"

// MessageService coordinates conversation resolution and message persistence.
type MessageService struct {
	DB *gorm.DB

	// Optional guards
	MaxContentRunes int

	// Subject normalization config
	SubjectLocale language.Tag
	SubjectMaxLen int
}

// NewMessageService constructs a MessageService with sane defaults.
func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{
		DB:              db,
		MaxContentRunes: 4000,
		SubjectLocale:   language.French,
		SubjectMaxLen:   120,
	}
}

// Send resolves (or creates) the conversation for (userID, subject) and
// appends the message, bumping the conversation activity in the same
// transaction. An empty subject falls back to the default one.
func (s *MessageService) Send(ctx context.Context, userID, subject, content string) (*domain.Message, *domain.Conversation, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("conversation.subject", subject),
		),
	)
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, nil, &ValidationError{Fields: []string{"user_id"}}
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil, ErrEmptyContent
	}
	if s.MaxContentRunes > 0 && utf8.RuneCountInString(content) > s.MaxContentRunes {
		return nil, nil, ErrTooLong
	}

	conv, err := s.resolveConversation(ctx, userID, s.normalizeSubject(subject))
	if err != nil {
		return nil, nil, err
	}

	var msg *domain.Message
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := repo.CreateMessage(tx, conv.ID, userID, content)
		if err != nil {
			return err
		}
		msg = m
		return repo.TouchConversation(tx, conv.ID)
	})
	if err != nil {
		return nil, nil, wrapStorage("send message", err)
	}
	return msg, conv, nil
}

// Reply appends a message to an existing conversation on behalf of senderID
// (typically an assignee answering). The conversation must exist.
func (s *MessageService) Reply(ctx context.Context, conversationID, senderID, content string) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Reply",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("user.id", senderID),
		),
	)
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if s.MaxContentRunes > 0 && utf8.RuneCountInString(content) > s.MaxContentRunes {
		return nil, ErrTooLong
	}

	if _, err := repo.GetConversation(ctx, s.DB, conversationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Kind: "conversation", ID: conversationID}
		}
		return nil, wrapStorage("get conversation", err)
	}

	var msg *domain.Message
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := repo.CreateMessage(tx, conversationID, senderID, content)
		if err != nil {
			return err
		}
		msg = m
		return repo.TouchConversation(tx, conversationID)
	})
	if err != nil {
		return nil, wrapStorage("reply message", err)
	}
	return msg, nil
}

// ListForUser returns a page of the user's conversations, most recently
// active first, each carrying its latest message as a preview.
func (s *MessageService) ListForUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Conversation, int64, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "ListForUser",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	offset, limit := pageOffset(page, pageSize)

	total, err := repo.CountConversations(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, wrapStorage("count conversations", err)
	}
	if total == 0 {
		return []domain.Conversation{}, 0, nil
	}
	items, err := repo.ListConversationsPage(ctx, s.DB, userID, offset, limit)
	if err != nil {
		return nil, 0, wrapStorage("list conversations", err)
	}
	return items, total, nil
}

// Thread returns the full conversation with its messages in chronological
// order. Fails with NotFoundError when the conversation does not exist.
func (s *MessageService) Thread(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Thread",
		trace.WithAttributes(attribute.String("conversation.id", conversationID)),
	)
	defer span.End()

	c, err := repo.GetConversation(ctx, s.DB, conversationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Kind: "conversation", ID: conversationID}
	}
	if err != nil {
		return nil, wrapStorage("get conversation", err)
	}
	return c, nil
}

// MarkRead flips the read flag on one message. Marking an already read
// message is idempotent and succeeds.
func (s *MessageService) MarkRead(ctx context.Context, messageID string) error {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "MarkRead",
		trace.WithAttributes(attribute.String("message.id", messageID)),
	)
	defer span.End()

	n, err := repo.MarkMessageRead(ctx, s.DB, messageID)
	if err != nil {
		return wrapStorage("mark message read", err)
	}
	if n == 0 {
		// Either already read (fine) or missing (an error).
		if _, gerr := repo.GetMessage(ctx, s.DB, messageID); gerr != nil {
			if errors.Is(gerr, gorm.ErrRecordNotFound) {
				return &NotFoundError{Kind: "message", ID: messageID}
			}
			return wrapStorage("get message", gerr)
		}
	}
	return nil
}

// MarkThreadRead marks every message in a conversation not sent by readerID
// as read. Re-running it is a no-op.
func (s *MessageService) MarkThreadRead(ctx context.Context, conversationID, readerID string) error {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "MarkThreadRead",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("user.id", readerID),
		),
	)
	defer span.End()

	if _, err := repo.MarkConversationRead(ctx, s.DB, conversationID, readerID); err != nil {
		return wrapStorage("mark conversation read", err)
	}
	return nil
}

// UnreadCount returns the number of unread messages addressed to userID.
func (s *MessageService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "UnreadCount",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	n, err := repo.CountUnread(ctx, s.DB, userID)
	if err != nil {
		return 0, wrapStorage("count unread", err)
	}
	return n, nil
}

// resolveConversation implements find-or-create on (userID, subject). The
// unique index on (user_id, sujet) makes the create race-safe: when the
// insert loses the race it surfaces a constraint error and we re-read the
// winner.
func (s *MessageService) resolveConversation(ctx context.Context, userID, subject string) (*domain.Conversation, error) {
	conv, err := repo.FindConversation(ctx, s.DB, userID, subject)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, wrapStorage("find conversation", err)
	}

	conv, cerr := repo.CreateConversation(ctx, s.DB, userID, subject)
	if cerr == nil {
		return conv, nil
	}

	// Lost the insert race: the winner's row must exist now.
	conv, err = repo.FindConversation(ctx, s.DB, userID, subject)
	if err != nil {
		return nil, wrapStorage("create conversation", cerr)
	}
	return conv, nil
}

// normalizeSubject trims, substitutes the default for empty subjects, clips
// overlong ones, and title-cases the first word for consistent grouping.
func (s *MessageService) normalizeSubject(subject string) string {
	subject = strings.Join(strings.Fields(subject), " ")
	if subject == "" {
		return defaultSubject
	}
	if s.SubjectMaxLen > 0 && utf8.RuneCountInString(subject) > s.SubjectMaxLen {
		runes := []rune(subject)
		subject = strings.TrimSpace(string(runes[:s.SubjectMaxLen]))
	}

	locale := s.SubjectLocale
	if locale == (language.Tag{}) {
		locale = language.French
	}
	words := strings.SplitN(subject, " ", 2)
	words[0] = cases.Title(locale).String(words[0])
	return strings.Join(words, " ")
}
