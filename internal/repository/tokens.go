package repository

import (
	"context"
	"time"

	"universe/internal/model"
)

func (q *Queries) CreateEmailToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO email_verification_tokens (user_id, token, expires_at, is_used)
		VALUES ($1, $2, $3, false)
	`, userID, token, expiresAt)
	return err
}

func (q *Queries) GetEmailToken(ctx context.Context, token string) (model.EmailToken, error) {
	var t model.EmailToken
	err := q.db.QueryRow(ctx, `
		SELECT email_token_id, user_id, token, expires_at, is_used
		FROM email_verification_tokens
		WHERE token = $1
	`, token).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.IsUsed)
	return t, err
}

// ConsumeEmailToken marks the token used. It reports false when another
// request consumed it first.
func (q *Queries) ConsumeEmailToken(ctx context.Context, tokenID int64) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE email_verification_tokens SET is_used = true
		WHERE email_token_id = $1 AND is_used = false
	`, tokenID)
	return tag.RowsAffected() == 1, err
}

func (q *Queries) MarkEmailVerified(ctx context.Context, userID int64) error {
	_, err := q.db.Exec(ctx, `UPDATE users SET is_email_verified = true WHERE user_id = $1`, userID)
	return err
}

// InvalidateEmailTokens marks every outstanding token of a user as used.
func (q *Queries) InvalidateEmailTokens(ctx context.Context, userID int64) error {
	_, err := q.db.Exec(ctx, `
		UPDATE email_verification_tokens SET is_used = true
		WHERE user_id = $1 AND is_used = false
	`, userID)
	return err
}

func (q *Queries) DeleteStaleEmailTokens(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM email_verification_tokens
		WHERE (is_used = true OR expires_at <= NOW())
		  AND created_at < NOW() - make_interval(secs => $1)
	`, olderThan.Seconds())
	return tag.RowsAffected(), err
}
