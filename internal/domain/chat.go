package domain

import "time"

// ChatSender identifies which side of a conversation wrote a message.
type ChatSender string

const (
	SenderClient ChatSender = "client"
	SenderAdmin  ChatSender = "admin"
)

// ChatMessage is one entry of a client conversation.
type ChatMessage struct {
	ID         string
	TenantID   string
	ClientID   string
	ClientName string
	Sender     ChatSender
	Body       string
	SentAt     time.Time
	Read       bool
}

// ChatConversation summarizes the message log of one client.
type ChatConversation struct {
	ID            string
	TenantID      string
	ClientID      string
	ClientName    string
	LastMessage   string
	LastMessageAt time.Time
	UnreadCount   int
	Active        bool
}
