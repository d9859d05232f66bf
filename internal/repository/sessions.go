package repository

import (
	"context"
	"time"

	"universe/internal/model"
)

func (q *Queries) CreateSession(ctx context.Context, userID int64, token string, expiresAt time.Time) (model.Session, error) {
	session := model.Session{UserID: userID, Token: token}
	err := q.db.QueryRow(ctx, `
		INSERT INTO user_sessions (user_id, session_token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING session_id, expires_at, created_at
	`, userID, token, expiresAt).Scan(&session.ID, &session.ExpiresAt, &session.CreatedAt)
	return session, err
}

// ResolveSession returns pgx.ErrNoRows when the token is unknown, expired,
// or belongs to a deactivated user.
func (q *Queries) ResolveSession(ctx context.Context, token string) (model.Identity, error) {
	var identity model.Identity
	err := q.db.QueryRow(ctx, `
		SELECT us.user_id, us.session_id, u.role
		FROM user_sessions us
		JOIN users u ON u.user_id = us.user_id
		WHERE us.session_token = $1
		  AND us.expires_at > NOW()
		  AND u.is_active = true
	`, token).Scan(&identity.UserID, &identity.SessionID, &identity.Role)
	return identity, err
}

func (q *Queries) DeleteSession(ctx context.Context, token string) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM user_sessions WHERE session_token = $1`, token)
	return tag.RowsAffected(), err
}

func (q *Queries) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM user_sessions WHERE expires_at <= NOW()`)
	return tag.RowsAffected(), err
}
