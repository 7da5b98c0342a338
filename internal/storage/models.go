package storage

import "time"

// ChatSession is a conversation thread with its ordered messages.
type ChatSession struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Messages  []ChatMessage
}

// ChatMessage is a single turn in a chat session. Bot messages may
// carry the serialized references that backed the answer.
type ChatMessage struct {
	ID         string
	ChatID     string
	Content    string
	IsBot      bool
	Timestamp  time.Time
	References string
}
