package sqlite

import (
	"context"
	"testing"

	"github.com/robostop/sentinel/internal/db"
)

func TestBlacklistKeepsSingleRecordPerUserChat(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, err := NewSQLiteClient(ctx, t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	record := db.NewBlacklistedUser(-100111, 777, "failed verification")
	username := "spammer"
	record.Username = &username

	if err := client.InsertBlacklistedUser(ctx, record); err != nil {
		t.Fatalf("insert blacklisted user: %v", err)
	}
	if err := client.InsertBlacklistedUser(ctx, db.NewBlacklistedUser(-100111, 777, "failed verification")); err != nil {
		t.Fatalf("insert duplicate blacklisted user: %v", err)
	}

	count, err := client.CountBlacklistedUsers(ctx, -100111)
	if err != nil {
		t.Fatalf("count blacklisted users: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	blacklisted, err := client.IsBlacklisted(ctx, -100111, 777)
	if err != nil {
		t.Fatalf("is blacklisted: %v", err)
	}
	if !blacklisted {
		t.Fatalf("expected user to be blacklisted")
	}

	users, err := client.ListBlacklistedUsers(ctx, -100111)
	if err != nil {
		t.Fatalf("list blacklisted users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if users[0].Username == nil || *users[0].Username != username {
		t.Fatalf("unexpected username: %#v", users[0].Username)
	}
	if users[0].FirstName != nil {
		t.Fatalf("expected absent first name, got %q", *users[0].FirstName)
	}
}

func TestBlacklistIsScopedPerChat(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, err := NewSQLiteClient(ctx, t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.InsertBlacklistedUser(ctx, db.NewBlacklistedUser(-1, 10, "failed verification")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := client.InsertBlacklistedUser(ctx, db.NewBlacklistedUser(-2, 10, "failed verification")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	blacklisted, err := client.IsBlacklisted(ctx, -3, 10)
	if err != nil {
		t.Fatalf("is blacklisted: %v", err)
	}
	if blacklisted {
		t.Fatalf("expected user not to be blacklisted in unrelated chat")
	}

	removed, err := client.DeleteBlacklistedUser(ctx, -1, 10)
	if err != nil {
		t.Fatalf("delete blacklisted user: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed record, got %d", removed)
	}

	removed, err = client.DeleteBlacklistedUser(ctx, -1, 10)
	if err != nil {
		t.Fatalf("delete absent user: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected 0 removed records, got %d", removed)
	}

	blacklisted, err = client.IsBlacklisted(ctx, -2, 10)
	if err != nil {
		t.Fatalf("is blacklisted: %v", err)
	}
	if !blacklisted {
		t.Fatalf("expected record in the other chat to survive")
	}
}

func TestClearBlacklistReportsRemovedCount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, err := NewSQLiteClient(ctx, t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	for userID := int64(1); userID <= 3; userID++ {
		if err := client.InsertBlacklistedUser(ctx, db.NewBlacklistedUser(-100, userID, "failed verification")); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := client.InsertBlacklistedUser(ctx, db.NewBlacklistedUser(-200, 9, "failed verification")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	removed, err := client.ClearBlacklist(ctx, -100)
	if err != nil {
		t.Fatalf("clear blacklist: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed records, got %d", removed)
	}

	count, err := client.CountBlacklistedUsers(ctx, -200)
	if err != nil {
		t.Fatalf("count other chat: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected unrelated chat untouched, got %d", count)
	}
}
