package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quantfolio/quantfolio/internal/models"
)

// ChatRepository stores advisory conversation turns.
type ChatRepository struct {
	db *sql.DB
}

// NewChatRepository creates a new chat history repository.
func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Append stores one conversation turn for the user.
func (r *ChatRepository) Append(ctx context.Context, userID int64, role models.ChatRole, content string) error {
	query := `
		INSERT INTO chat_history (id, user_id, role, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	id := uuid.New().String()
	if _, err := r.db.ExecContext(ctx, query, id, userID, string(role), content, time.Now()); err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}
	return nil
}

// History returns up to limit of the user's most recent turns in
// chronological order.
func (r *ChatRepository) History(ctx context.Context, userID int64, limit int) ([]models.ChatMessage, error) {
	query := `
		SELECT id, role, message, created_at
		FROM chat_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat history for user %d: %w", userID, err)
	}
	defer rows.Close()

	var history []models.ChatMessage
	for rows.Next() {
		var (
			msg  models.ChatMessage
			role string
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		msg.UserID = userID
		msg.Role = models.ChatRole(role)
		history = append(history, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat history: %w", err)
	}

	// Rows arrive newest-first; callers want chronological order.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}

	return history, nil
}
