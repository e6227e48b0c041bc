package sqlite

import (
	"context"

	"github.com/iamwavecut/tool"

	"github.com/robostop/sentinel/internal/db"
)

func (c *sqliteClient) InsertBlacklistedUser(ctx context.Context, user *db.BlacklistedUser) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT OR IGNORE INTO blacklisted_users (user_id, chat_id, username, first_name, last_name, reason, created_at)
		VALUES (:user_id, :chat_id, :username, :first_name, :last_name, :reason, :created_at)
	`
	return tool.Err(c.db.NamedExecContext(ctx, query, user))
}

func (c *sqliteClient) IsBlacklisted(ctx context.Context, chatID, userID int64) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var count int
	err := c.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM blacklisted_users WHERE chat_id = ? AND user_id = ?`, chatID, userID)
	return count > 0, err
}

func (c *sqliteClient) ListBlacklistedUsers(ctx context.Context, chatID int64) ([]*db.BlacklistedUser, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var users []*db.BlacklistedUser
	err := c.db.SelectContext(ctx, &users, `
		SELECT id, user_id, chat_id, username, first_name, last_name, reason, created_at
		FROM blacklisted_users
		WHERE chat_id = ?
		ORDER BY id
	`, chatID)
	return users, err
}

func (c *sqliteClient) CountBlacklistedUsers(ctx context.Context, chatID int64) (int, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var count int
	err := c.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM blacklisted_users WHERE chat_id = ?`, chatID)
	return count, err
}

func (c *sqliteClient) DeleteBlacklistedUser(ctx context.Context, chatID, userID int64) (int64, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	res, err := c.db.ExecContext(ctx, `DELETE FROM blacklisted_users WHERE chat_id = ? AND user_id = ?`, chatID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *sqliteClient) ClearBlacklist(ctx context.Context, chatID int64) (int64, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	res, err := c.db.ExecContext(ctx, `DELETE FROM blacklisted_users WHERE chat_id = ?`, chatID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
