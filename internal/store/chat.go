package store

import (
	"context"
	"fmt"
	"time"

	"github.com/hospital-shifts/scheduler/internal/db"
	"github.com/hospital-shifts/scheduler/internal/models"
)

func (s *SQLStore) SaveChatMessage(ctx context.Context, m *models.ChatMessage) error {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	m.Timestamp = m.Timestamp.Truncate(time.Second)
	err := s.q.QueryRowContext(ctx,
		"INSERT INTO agent_chat_messages (sender, role, content, sent_at) VALUES (?, ?, ?, ?) RETURNING id",
		m.Sender, m.Role, m.Content, db.Timestamp(m.Timestamp),
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

// RecentChatMessages returns the newest limit messages in chronological order.
func (s *SQLStore) RecentChatMessages(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT id, sender, role, content, sent_at FROM agent_chat_messages ORDER BY sent_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent chat messages: %w", err)
	}
	defer rows.Close()

	items := []models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		var ts db.ScanTime
		if err := rows.Scan(&m.ID, &m.Sender, &m.Role, &m.Content, &ts); err != nil {
			return nil, err
		}
		m.Timestamp = ts.Time
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}
