package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/robostop/sentinel/internal/db"
)

func (c *sqliteClient) CreatePendingVerification(ctx context.Context, verification *db.PendingVerification) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT OR IGNORE INTO pending_verifications (user_id, chat_id, message_id, expires_at)
		VALUES (?, ?, ?, ?)
	`
	res, err := c.db.ExecContext(ctx, query,
		verification.UserID,
		verification.ChatID,
		verification.MessageID,
		verification.ExpiresAt,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (c *sqliteClient) GetPendingVerification(ctx context.Context, chatID, userID int64) (*db.PendingVerification, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var verification db.PendingVerification
	err := c.db.GetContext(ctx, &verification, `
		SELECT user_id, chat_id, message_id, expires_at
		FROM pending_verifications
		WHERE chat_id = ? AND user_id = ?
	`, chatID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &verification, nil
}

func (c *sqliteClient) DeletePendingVerification(ctx context.Context, chatID, userID int64) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	res, err := c.db.ExecContext(ctx, `DELETE FROM pending_verifications WHERE chat_id = ? AND user_id = ?`, chatID, userID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (c *sqliteClient) DeletePendingVerificationByMessage(ctx context.Context, chatID, userID int64, messageID int) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	res, err := c.db.ExecContext(ctx, `
		DELETE FROM pending_verifications
		WHERE chat_id = ? AND user_id = ? AND message_id = ?
	`, chatID, userID, messageID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (c *sqliteClient) ListPendingVerifications(ctx context.Context) ([]*db.PendingVerification, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var verifications []*db.PendingVerification
	err := c.db.SelectContext(ctx, &verifications, `
		SELECT user_id, chat_id, message_id, expires_at
		FROM pending_verifications
		ORDER BY expires_at
	`)
	return verifications, err
}
