package models

import "time"

// Topics carried by the live-update relay.
const (
	TopicShifts        = "/topic/shifts"
	TopicAgentTasks    = "/topic/agent-tasks"
	TopicNotifications = "/topic/notifications"
	TopicAgentChat     = "/topic/agent-chat"
)

const (
	EventShiftCreated     = "SHIFT_CREATED"
	EventShiftUpdated     = "SHIFT_UPDATED"
	EventShiftDeleted     = "SHIFT_DELETED"
	EventAgentTaskCreated = "AGENT_TASK_CREATED"
	EventAgentTaskUpdated = "AGENT_TASK_UPDATED"
	EventChatMessage      = "CHAT_MESSAGE"
)

// RealtimeEvent is the envelope pushed to live-update subscribers.
type RealtimeEvent struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}
