package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"shopchat/backend/internal/model"
)

type sqliteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) ConversationRepository {
	return &sqliteRepository{db: db}
}

// messageEntities is the JSON shape of the nullable entities column.
type messageEntities struct {
	Products []model.Product `json:"products,omitempty"`
	Orders   []model.Order   `json:"orders,omitempty"`
}

func (r *sqliteRepository) Load(ctx context.Context, userID string) (*model.Conversation, error) {
	query := "SELECT id, title, created_at FROM conversations WHERE user_id = ?"
	row := r.db.QueryRowContext(ctx, query, userID)

	var conv model.Conversation
	if err := row.Scan(&conv.ID, &conv.Title, &conv.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("could not load conversation: %w", err)
	}

	msgQuery := `
		SELECT id, role, content, timestamp, entities
		FROM messages WHERE user_id = ? ORDER BY position ASC
	`
	rows, err := r.db.QueryContext(ctx, msgQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("could not load messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var msg model.Message
		var entities sql.NullString
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &msg.Timestamp, &entities); err != nil {
			return nil, fmt.Errorf("could not scan message: %w", err)
		}
		if entities.Valid {
			var ent messageEntities
			if err := json.Unmarshal([]byte(entities.String), &ent); err != nil {
				return nil, fmt.Errorf("could not decode message entities: %w", err)
			}
			msg.Products = ent.Products
			msg.Orders = ent.Orders
		}
		conv.Messages = append(conv.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate messages: %w", err)
	}

	return &conv, nil
}

// Save replaces the stored snapshot inside one transaction: the conversation
// row is upserted and the message list rewritten in insertion order.
func (r *sqliteRepository) Save(ctx context.Context, userID string, conv *model.Conversation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO conversations (user_id, id, title, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET id = excluded.id, title = excluded.title, created_at = excluded.created_at
	`
	if _, err := tx.ExecContext(ctx, upsert, userID, conv.ID, conv.Title, conv.CreatedAt); err != nil {
		return fmt.Errorf("could not upsert conversation: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("could not clear previous messages: %w", err)
	}

	insert := `
		INSERT INTO messages (id, user_id, position, role, content, timestamp, entities)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for i, msg := range conv.Messages {
		entities, err := encodeEntities(msg)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insert, msg.ID, userID, i, msg.Role, msg.Content, msg.Timestamp, entities); err != nil {
			return fmt.Errorf("could not insert message: %w", err)
		}
	}

	return tx.Commit()
}

func (r *sqliteRepository) Delete(ctx context.Context, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("could not delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM conversations WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("could not delete conversation: %w", err)
	}

	return tx.Commit()
}

func encodeEntities(msg model.Message) (sql.NullString, error) {
	if len(msg.Products) == 0 && len(msg.Orders) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(messageEntities{Products: msg.Products, Orders: msg.Orders})
	if err != nil {
		return sql.NullString{}, fmt.Errorf("could not encode message entities: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
