package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/afritrade/go-trade-backend/internal/domain"
)

func newMsgTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:msgsvc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(&domain.User{}, &domain.Conversation{}, &domain.Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestNewMessageService_Defaults(t *testing.T) {
	s := NewMessageService(nil)
	if s.MaxContentRunes != 4000 {
		t.Fatalf("MaxContentRunes default = %d", s.MaxContentRunes)
	}
	if s.SubjectMaxLen != 120 {
		t.Fatalf("SubjectMaxLen default = %d", s.SubjectMaxLen)
	}
}

func TestMessageSend_CreatesAndReusesConversation(t *testing.T) {
	db := newMsgTestDB(t)
	s := NewMessageService(db)

	msg, conv, err := s.Send(context.Background(), "u1", "Question transport", "Bonjour, où en est mon colis ?")
	if err != nil {
		t.Fatalf("first Send: %v", err)
	}
	if conv.UserID != "u1" || conv.Subject != "Question transport" {
		t.Fatalf("conversation = %+v", conv)
	}
	if msg.ConversationID != conv.ID || msg.SenderID != "u1" {
		t.Fatalf("message = %+v", msg)
	}

	// Same (user, subject) must land in the same thread.
	msg2, conv2, err := s.Send(context.Background(), "u1", "Question transport", "Relance")
	if err != nil {
		t.Fatalf("second Send: %v", err)
	}
	if conv2.ID != conv.ID {
		t.Fatalf("expected the same conversation, got %s and %s", conv.ID, conv2.ID)
	}
	if msg2.ID == msg.ID {
		t.Fatalf("messages must be distinct rows")
	}

	// A different subject opens a new thread.
	_, conv3, err := s.Send(context.Background(), "u1", "Question devis", "Autre sujet")
	if err != nil {
		t.Fatalf("third Send: %v", err)
	}
	if conv3.ID == conv.ID {
		t.Fatalf("different subject should not reuse the thread")
	}
}

func TestMessageSend_EmptySubjectGetsDefault(t *testing.T) {
	db := newMsgTestDB(t)
	s := NewMessageService(db)

	_, conv, err := s.Send(context.Background(), "u1", "   ", "contenu")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if conv.Subject != defaultSubject {
		t.Fatalf("subject = %q, want %q", conv.Subject, defaultSubject)
	}
}

func TestMessageSend_Validation(t *testing.T) {
	db := newMsgTestDB(t)
	s := NewMessageService(db)

	if _, _, err := s.Send(context.Background(), "", "s", "c"); err == nil {
		t.Fatalf("expected error for empty user id")
	}
	if _, _, err := s.Send(context.Background(), "u1", "s", "   "); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}

	s.MaxContentRunes = 5
	if _, _, err := s.Send(context.Background(), "u1", "s", "un peu trop long"); !errors.Is(err, ErrTooLong) {
		t.Fatalf("expected ErrTooLong, got %v", err)
	}
	// Limit counts runes, not bytes.
	if _, _, err := s.Send(context.Background(), "u1", "s", "ééééé"); err != nil {
		t.Fatalf("5 runes within the limit: %v", err)
	}
}

func TestMessageReply(t *testing.T) {
	db := newMsgTestDB(t)
	s := NewMessageService(db)

	_, conv, err := s.Send(context.Background(), "u1", "Litige", "Bonjour")
	if err != nil {
		t.Fatalf("seed Send: %v", err)
	}

	before := conv.LastActivity
	time.Sleep(5 * time.Millisecond)

	msg, err := s.Reply(context.Background(), conv.ID, "agent-1", "Nous regardons cela.")
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if msg.SenderID != "agent-1" || msg.ConversationID != conv.ID {
		t.Fatalf("reply = %+v", msg)
	}

	thread, err := s.Thread(context.Background(), conv.ID)
	if err != nil {
		t.Fatalf("Thread: %v", err)
	}
	if len(thread.Messages) != 2 {
		t.Fatalf("thread has %d messages, want 2", len(thread.Messages))
	}
	if !thread.LastActivity.After(before) {
		t.Fatalf("reply did not bump activity: %v -> %v", before, thread.LastActivity)
	}
}

func TestMessageReply_MissingConversation(t *testing.T) {
	db := newMsgTestDB(t)
	s := NewMessageService(db)

	_, err := s.Reply(context.Background(), "missing", "agent-1", "réponse")
	var nfe *NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestMessageThread_Missing(t *testing.T) {
	db := newMsgTestDB(t)
	s := NewMessageService(db)

	_, err := s.Thread(context.Background(), "missing")
	var nfe *NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestMessageMarkRead_Idempotent(t *testing.T) {
	db := newMsgTestDB(t)
	s := NewMessageService(db)

	msg, _, err := s.Send(context.Background(), "u1", "Sujet", "contenu")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if err := s.MarkRead(context.Background(), msg.ID); err != nil {
		t.Fatalf("first MarkRead: %v", err)
	}
	// Marking twice succeeds.
	if err := s.MarkRead(context.Background(), msg.ID); err != nil {
		t.Fatalf("second MarkRead: %v", err)
	}
	// But a missing id is an error.
	err = s.MarkRead(context.Background(), "missing")
	var nfe *NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestMessageMarkThreadRead_SkipsReaderOwnMessages(t *testing.T) {
	db := newMsgTestDB(t)
	s := NewMessageService(db)

	_, conv, err := s.Send(context.Background(), "u1", "Sujet", "question")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := s.Reply(context.Background(), conv.ID, "agent-1", "réponse"); err != nil {
		t.Fatalf("Reply: %v", err)
	}

	// u1 reads the thread: the agent's reply flips, u1's own message does not.
	if err := s.MarkThreadRead(context.Background(), conv.ID, "u1"); err != nil {
		t.Fatalf("MarkThreadRead: %v", err)
	}

	thread, err := s.Thread(context.Background(), conv.ID)
	if err != nil {
		t.Fatalf("Thread: %v", err)
	}
	for _, m := range thread.Messages {
		if m.SenderID == "u1" && m.Read {
			t.Errorf("reader's own message should stay unread")
		}
		if m.SenderID == "agent-1" && !m.Read {
			t.Errorf("counterpart message should be read")
		}
	}
}

func TestMessageUnreadCount(t *testing.T) {
	db := newMsgTestDB(t)
	s := NewMessageService(db)

	_, conv, err := s.Send(context.Background(), "u1", "Sujet", "question")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := s.Reply(context.Background(), conv.ID, "agent-1", "réponse 1"); err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if _, err := s.Reply(context.Background(), conv.ID, "agent-1", "réponse 2"); err != nil {
		t.Fatalf("Reply: %v", err)
	}

	n, err := s.UnreadCount(context.Background(), "u1")
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if n != 2 {
		t.Fatalf("unread = %d, want 2 (own message excluded)", n)
	}

	if err := s.MarkThreadRead(context.Background(), conv.ID, "u1"); err != nil {
		t.Fatalf("MarkThreadRead: %v", err)
	}
	n, err = s.UnreadCount(context.Background(), "u1")
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if n != 0 {
		t.Fatalf("unread after read = %d, want 0", n)
	}
}

func TestNormalizeSubject(t *testing.T) {
	s := NewMessageService(nil)

	cases := []struct{ in, want string }{
		{"", defaultSubject},
		{"   \t\n ", defaultSubject},
		{"question  sur   devis", "Question sur devis"},
		{"SUIVI colis", "Suivi colis"},
		{"état de ma commande", "État de ma commande"},
		{" déjà   propre ", "Déjà propre"},
	}
	for _, tc := range cases {
		if got := s.normalizeSubject(tc.in); got != tc.want {
			t.Errorf("normalizeSubject(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}

	s.SubjectMaxLen = 10
	got := s.normalizeSubject("abcdefghij suite coupée")
	if got != "Abcdefghij" {
		t.Errorf("clipped subject = %q", got)
	}
}

func TestMessageListForUser(t *testing.T) {
	db := newMsgTestDB(t)
	s := NewMessageService(db)

	items, total, err := s.ListForUser(context.Background(), "u1", 1, 20)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Fatalf("expected empty listing, got %d/%d", len(items), total)
	}

	if _, _, err := s.Send(context.Background(), "u1", "Premier sujet", "a"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, _, err := s.Send(context.Background(), "u1", "Deuxième sujet", "b"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	items, total, err = s.ListForUser(context.Background(), "u1", 1, 20)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("listing = %d/%d, want 2/2", len(items), total)
	}
	// Most recently active first.
	if !strings.HasPrefix(items[0].Subject, "Deuxième") {
		t.Fatalf("order wrong: %q first", items[0].Subject)
	}
	// Preview carries the latest message.
	if len(items[0].Messages) != 1 || items[0].Messages[0].Content != "b" {
		t.Fatalf("preview = %+v", items[0].Messages)
	}
}
