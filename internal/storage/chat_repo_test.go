package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"
)

func testStore(t *testing.T) *ChatStore {
	t.Helper()

	db, err := New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewChatStore(db)
}

func TestChatStore_CreateAndGetSession(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	created, err := store.CreateSession(ctx, "First chat")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if created.ID == "" {
		t.Fatal("CreateSession() returned empty ID")
	}
	if created.Title != "First chat" {
		t.Errorf("Title = %q", created.Title)
	}

	got, err := store.GetSession(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.ID != created.ID || got.Title != "First chat" {
		t.Errorf("GetSession() = %+v", got)
	}
	if len(got.Messages) != 0 {
		t.Errorf("new session has %d messages, want 0", len(got.Messages))
	}
}

func TestChatStore_GetSessionNotFound(t *testing.T) {
	store := testStore(t)

	_, err := store.GetSession(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetSession() error = %v, want sql.ErrNoRows", err)
	}
}

func TestChatStore_AppendAndLoadMessages(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	session, err := store.CreateSession(ctx, "chat")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	messages := []*ChatMessage{
		{ChatID: session.ID, Content: "question one", IsBot: false},
		{ChatID: session.ID, Content: "answer one", IsBot: true, References: `[{"number":1}]`},
	}
	base := time.Now().UTC().Add(-time.Minute)
	for i, msg := range messages {
		msg.Timestamp = base.Add(time.Duration(i) * time.Second)
		if err := store.AppendMessage(ctx, msg); err != nil {
			t.Fatalf("AppendMessage() error = %v", err)
		}
		if msg.ID == "" {
			t.Error("AppendMessage() did not assign an ID")
		}
	}

	got, err := store.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("Messages = %d, want 2", len(got.Messages))
	}
	if got.Messages[0].Content != "question one" || got.Messages[1].Content != "answer one" {
		t.Errorf("messages out of order: %+v", got.Messages)
	}
	if !got.Messages[1].IsBot {
		t.Error("bot flag lost")
	}
	if got.Messages[1].References != `[{"number":1}]` {
		t.Errorf("References = %q", got.Messages[1].References)
	}
	if got.Messages[0].References != "" {
		t.Errorf("user message References = %q, want empty", got.Messages[0].References)
	}
}

func TestChatStore_HistoryWindowsOldestOut(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	session, err := store.CreateSession(ctx, "chat")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 7; i++ {
		msg := &ChatMessage{
			ChatID:    session.ID,
			Content:   string(rune('a' + i)),
			IsBot:     i%2 == 1,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}
		if err := store.AppendMessage(ctx, msg); err != nil {
			t.Fatalf("AppendMessage() error = %v", err)
		}
	}

	history, err := store.History(ctx, session.ID, 3)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("History() = %d messages, want 3", len(history))
	}
	// Chronological order, ending with the most recent.
	want := []string{"e", "f", "g"}
	for i, msg := range history {
		if msg.Content != want[i] {
			t.Errorf("history[%d].Content = %q, want %q", i, msg.Content, want[i])
		}
	}
}

func TestChatStore_ListSessionsMostRecentFirst(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first, err := store.CreateSession(ctx, "first")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	second, err := store.CreateSession(ctx, "second")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	// Touch the first session so it becomes the most recently updated.
	err = store.AppendMessage(ctx, &ChatMessage{
		ChatID:    first.ID,
		Content:   "hello",
		Timestamp: time.Now().UTC().Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}

	sessions, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("ListSessions() = %d, want 2", len(sessions))
	}
	if sessions[0].ID != first.ID || sessions[1].ID != second.ID {
		t.Errorf("order = [%s, %s], want first then second", sessions[0].Title, sessions[1].Title)
	}
}

func TestChatStore_DeleteSessionCascades(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	session, err := store.CreateSession(ctx, "chat")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if err := store.AppendMessage(ctx, &ChatMessage{ChatID: session.ID, Content: "msg"}); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}

	if err := store.DeleteSession(ctx, session.ID); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}

	if _, err := store.GetSession(ctx, session.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetSession() after delete error = %v, want sql.ErrNoRows", err)
	}
	history, err := store.History(ctx, session.ID, 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 0 {
		t.Errorf("messages survived cascade delete: %d", len(history))
	}
}

func TestChatStore_DeleteSessionNotFound(t *testing.T) {
	store := testStore(t)

	err := store.DeleteSession(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("DeleteSession() error = %v, want sql.ErrNoRows", err)
	}
}

func TestChatStore_UpdateTitle(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	session, err := store.CreateSession(ctx, "New Chat")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if err := store.UpdateTitle(ctx, session.ID, "What happened in 1985?"); err != nil {
		t.Fatalf("UpdateTitle() error = %v", err)
	}

	got, err := store.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.Title != "What happened in 1985?" {
		t.Errorf("Title = %q", got.Title)
	}

	if err := store.UpdateTitle(ctx, "missing", "x"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("UpdateTitle() on missing session error = %v, want sql.ErrNoRows", err)
	}
}
