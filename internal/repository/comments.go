package repository

import (
	"context"

	"universe/internal/model"
)

func (q *Queries) CreateComment(ctx context.Context, userID int64, kind model.ItemKind, itemID int64, content string) (model.Comment, error) {
	var c model.Comment
	err := q.db.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO item_comments (user_id, item_type, item_id, content)
			VALUES ($1, $2, $3, $4)
			RETURNING comment_id, user_id, item_type, item_id, content, created_at
		)
		SELECT i.comment_id, i.user_id, i.item_type, i.item_id, i.content, i.created_at, u.email
		FROM inserted i
		JOIN users u ON u.user_id = i.user_id
	`, userID, string(kind), itemID, content).Scan(
		&c.ID, &c.UserID, &c.ItemType, &c.ItemID, &c.Content, &c.CreatedAt, &c.Email,
	)
	return c, err
}

func (q *Queries) ListComments(ctx context.Context, kind model.ItemKind, itemID int64) ([]model.Comment, error) {
	rows, err := q.db.Query(ctx, `
		SELECT c.comment_id, c.user_id, c.item_type, c.item_id, c.content, c.created_at, u.email
		FROM item_comments c
		JOIN users u ON u.user_id = c.user_id
		WHERE c.item_type = $1 AND c.item_id = $2
		ORDER BY c.created_at ASC, c.comment_id ASC
	`, string(kind), itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]model.Comment, 0)
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.UserID, &c.ItemType, &c.ItemID, &c.Content, &c.CreatedAt, &c.Email); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
