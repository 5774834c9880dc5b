package models

import "time"

const (
	ChatRoleClient = "CLIENT"
	ChatRoleAgent  = "AGENT"
)

type ChatMessage struct {
	ID        int64     `json:"id,omitempty"`
	Sender    string    `json:"sender"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatReply is the outcome of a relay call to the scheduling assistant.
type ChatReply struct {
	Response *string `json:"response"`
	Status   string  `json:"status"`
	Error    string  `json:"error,omitempty"`
}

const (
	ChatStatusSuccess = "SUCCESS"
	ChatStatusFailed  = "FAILED"
)
