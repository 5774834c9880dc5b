package scheduling

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/hospital-shifts/scheduler/internal/apperr"
	"github.com/hospital-shifts/scheduler/internal/models"
)

const (
	// DefaultChatLimit is the history size used when the caller gives none.
	DefaultChatLimit = 50
	maxChatLimit     = 200

	defaultSender = "anonymous"
	agentSender   = "Coze Agent"

	maxSenderLen  = 120
	maxRoleLen    = 40
	maxContentLen = 1000
)

type ChatService struct {
	store    ChatStore
	workflow WorkflowClient
	pub      Publisher
	log      *zap.Logger
	now      func() time.Time
}

func NewChatService(store ChatStore, workflow WorkflowClient, pub Publisher, log *zap.Logger) *ChatService {
	return &ChatService{store: store, workflow: workflow, pub: pub, log: log, now: time.Now}
}

// Save normalizes, persists and broadcasts a chat message.
func (s *ChatService) Save(ctx context.Context, m models.ChatMessage) (*models.ChatMessage, error) {
	m.Sender = strings.TrimSpace(m.Sender)
	if m.Sender == "" {
		m.Sender = defaultSender
	}
	m.Role = strings.TrimSpace(m.Role)
	if m.Role == "" {
		m.Role = models.ChatRoleClient
	}
	m.Content = strings.TrimSpace(m.Content)
	if m.Timestamp.IsZero() {
		m.Timestamp = s.now()
	}

	switch {
	case utf8.RuneCountInString(m.Sender) > maxSenderLen:
		return nil, apperr.Invalid("sender must be at most %d characters", maxSenderLen)
	case utf8.RuneCountInString(m.Role) > maxRoleLen:
		return nil, apperr.Invalid("role must be at most %d characters", maxRoleLen)
	case utf8.RuneCountInString(m.Content) > maxContentLen:
		return nil, apperr.Invalid("content must be at most %d characters", maxContentLen)
	}

	m.ID = 0
	if err := s.store.SaveChatMessage(ctx, &m); err != nil {
		return nil, err
	}
	s.pub.Publish(models.TopicAgentChat, models.EventChatMessage, &m)
	return &m, nil
}

// Recent returns the newest messages in chronological order. limit is
// clamped to [1, 200].
func (s *ChatService) Recent(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	switch {
	case limit < 1:
		limit = 1
	case limit > maxChatLimit:
		limit = maxChatLimit
	}
	return s.store.RecentChatMessages(ctx, limit)
}

// Chat asks the assistant workflow for a reply and records it. Failures are
// reported in the reply, never as an error.
func (s *ChatService) Chat(ctx context.Context, content, userID string) models.ChatReply {
	content = strings.TrimSpace(content)
	if content == "" {
		s.log.Warn("empty chat input", zap.String("user_id", userID))
		return failed("input content must not be empty")
	}

	reply, err := s.workflow.Run(ctx, content)
	if err != nil {
		s.log.Error("assistant call failed", zap.String("user_id", userID), zap.Error(err))
		return failed("assistant call failed: " + err.Error())
	}
	if strings.TrimSpace(reply) == "" {
		s.log.Warn("assistant returned an empty reply", zap.String("user_id", userID))
		return failed("assistant returned an empty reply")
	}

	msg := models.ChatMessage{Sender: agentSender, Role: models.ChatRoleAgent, Content: reply}
	msg.Content = truncate(strings.TrimSpace(msg.Content), maxContentLen)
	if _, err := s.Save(ctx, msg); err != nil {
		s.log.Error("failed to record assistant reply", zap.Error(err))
		return failed("assistant call failed: " + apperr.Message(err))
	}

	s.log.Info("assistant replied", zap.String("user_id", userID), zap.Int("length", len(reply)))
	return models.ChatReply{Response: &reply, Status: models.ChatStatusSuccess}
}

// Health reports which backend answers chat requests.
func (s *ChatService) Health() map[string]string {
	return map[string]string{"status": "ok", "mode": s.workflow.Mode()}
}

func failed(msg string) models.ChatReply {
	return models.ChatReply{Status: models.ChatStatusFailed, Error: msg}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
