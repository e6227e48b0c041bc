package db

import "time"

type (
	// PendingVerification is an outstanding challenge for a suspected user.
	// At most one row exists per (user_id, chat_id); rows are never updated
	// in place, only inserted and deleted.
	PendingVerification struct {
		UserID    int64     `db:"user_id"`
		ChatID    int64     `db:"chat_id"`
		MessageID int       `db:"message_id"`
		ExpiresAt time.Time `db:"expires_at"`
	}

	// BlacklistedUser is a user that failed verification in a chat. Display
	// metadata is best-effort and may be absent.
	BlacklistedUser struct {
		ID        int64     `db:"id"`
		UserID    int64     `db:"user_id"`
		ChatID    int64     `db:"chat_id"`
		Username  *string   `db:"username"`
		FirstName *string   `db:"first_name"`
		LastName  *string   `db:"last_name"`
		Reason    string    `db:"reason"`
		CreatedAt time.Time `db:"created_at"`
	}
)
