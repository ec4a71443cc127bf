package chatstore

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Stored turn roles. These are storage-level roles; provider-specific role
// tokens are a prompt concern.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one entry in a user's append-only conversation log.
type Turn struct {
	ID          int64
	UserID      int64
	Role        string
	Content     string
	CreatedAtMs int64
}

// AppendTurn appends a turn to the user's log. Turns are never mutated or
// deleted afterwards.
func (s *Store) AppendTurn(ctx context.Context, userID int64, role, content string) (*Turn, error) {
	if role != RoleUser && role != RoleAssistant {
		return nil, errors.Errorf("chatstore: unknown role %q", role)
	}
	if strings.TrimSpace(content) == "" && role == RoleUser {
		return nil, errors.New("chatstore: empty user content")
	}
	now := time.Now().UnixMilli()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages(user_id, role, content, created_at_ms)
		VALUES(?, ?, ?, ?)
	`, userID, role, content, now)
	if err != nil {
		return nil, errors.Wrap(err, "chatstore: insert turn")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "chatstore: turn id")
	}
	return &Turn{ID: id, UserID: userID, Role: role, Content: content, CreatedAtMs: now}, nil
}

// LatestTurns returns up to limit turns, newest first.
func (s *Store) LatestTurns(ctx context.Context, userID int64, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, role, content, created_at_ms
		FROM chat_messages
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "chatstore: query turns")
	}
	defer func() { _ = rows.Close() }()

	items := []Turn{}
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.UserID, &t.Role, &t.Content, &t.CreatedAtMs); err != nil {
			return nil, errors.Wrap(err, "chatstore: scan turn")
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// RecentTurns returns up to limit of the user's most recent turns in
// chronological order, the shape the prompt assembler consumes.
func (s *Store) RecentTurns(ctx context.Context, userID int64, limit int) ([]Turn, error) {
	items, err := s.LatestTurns(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}
