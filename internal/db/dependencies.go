package db

import (
	"context"
	"time"
)

type Client interface {
	Close() error

	// Pending verification lifecycle. Create is a no-op when a row already
	// exists for the pair; deletes report whether a row was actually removed
	// so racing resolvers can tell who won.
	CreatePendingVerification(ctx context.Context, verification *PendingVerification) (bool, error)
	GetPendingVerification(ctx context.Context, chatID, userID int64) (*PendingVerification, error)
	DeletePendingVerification(ctx context.Context, chatID, userID int64) (bool, error)
	DeletePendingVerificationByMessage(ctx context.Context, chatID, userID int64, messageID int) (bool, error)
	ListPendingVerifications(ctx context.Context) ([]*PendingVerification, error)

	InsertBlacklistedUser(ctx context.Context, user *BlacklistedUser) error
	IsBlacklisted(ctx context.Context, chatID, userID int64) (bool, error)
	ListBlacklistedUsers(ctx context.Context, chatID int64) ([]*BlacklistedUser, error)
	CountBlacklistedUsers(ctx context.Context, chatID int64) (int, error)
	DeleteBlacklistedUser(ctx context.Context, chatID, userID int64) (int64, error)
	ClearBlacklist(ctx context.Context, chatID int64) (int64, error)
}

// NewBlacklistedUser builds a record with the insertion timestamp set.
func NewBlacklistedUser(chatID, userID int64, reason string) *BlacklistedUser {
	return &BlacklistedUser{
		UserID:    userID,
		ChatID:    chatID,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
}
