package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/robostop/sentinel/internal/db"
)

func TestPendingVerificationIsCreatedOncePerUserChat(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, err := NewSQLiteClient(ctx, t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	now := time.Now()
	first := &db.PendingVerification{
		UserID:    777,
		ChatID:    -100111,
		MessageID: 501,
		ExpiresAt: now.Add(time.Minute),
	}
	created, err := client.CreatePendingVerification(ctx, first)
	if err != nil {
		t.Fatalf("create first verification: %v", err)
	}
	if !created {
		t.Fatalf("expected first verification to be created")
	}

	duplicate := &db.PendingVerification{
		UserID:    777,
		ChatID:    -100111,
		MessageID: 502,
		ExpiresAt: now.Add(2 * time.Minute),
	}
	created, err = client.CreatePendingVerification(ctx, duplicate)
	if err != nil {
		t.Fatalf("create duplicate verification: %v", err)
	}
	if created {
		t.Fatalf("expected duplicate verification to be ignored")
	}

	got, err := client.GetPendingVerification(ctx, first.ChatID, first.UserID)
	if err != nil {
		t.Fatalf("get verification: %v", err)
	}
	if got == nil || got.MessageID != first.MessageID {
		t.Fatalf("unexpected verification: %#v", got)
	}
}

func TestDeletePendingVerificationReportsWinner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, err := NewSQLiteClient(ctx, t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	verification := &db.PendingVerification{
		UserID:    42,
		ChatID:    -100222,
		MessageID: 13,
		ExpiresAt: time.Now().Add(time.Minute),
	}
	if _, err := client.CreatePendingVerification(ctx, verification); err != nil {
		t.Fatalf("create verification: %v", err)
	}

	deleted, err := client.DeletePendingVerification(ctx, verification.ChatID, verification.UserID)
	if err != nil {
		t.Fatalf("delete verification: %v", err)
	}
	if !deleted {
		t.Fatalf("expected delete to report a removed row")
	}

	deleted, err = client.DeletePendingVerification(ctx, verification.ChatID, verification.UserID)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if deleted {
		t.Fatalf("expected second delete to be a no-op")
	}
}

func TestDeletePendingVerificationByMessageIgnoresStaleTriple(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, err := NewSQLiteClient(ctx, t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	verification := &db.PendingVerification{
		UserID:    42,
		ChatID:    -100333,
		MessageID: 700,
		ExpiresAt: time.Now().Add(time.Minute),
	}
	if _, err := client.CreatePendingVerification(ctx, verification); err != nil {
		t.Fatalf("create verification: %v", err)
	}

	deleted, err := client.DeletePendingVerificationByMessage(ctx, verification.ChatID, verification.UserID, 699)
	if err != nil {
		t.Fatalf("delete by stale message: %v", err)
	}
	if deleted {
		t.Fatalf("expected stale message triple not to match")
	}

	deleted, err = client.DeletePendingVerificationByMessage(ctx, verification.ChatID, verification.UserID, verification.MessageID)
	if err != nil {
		t.Fatalf("delete by message: %v", err)
	}
	if !deleted {
		t.Fatalf("expected exact triple to match")
	}
}

func TestListPendingVerificationsOrdersByExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, err := NewSQLiteClient(ctx, t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	now := time.Now()
	later := &db.PendingVerification{UserID: 1, ChatID: -1, MessageID: 11, ExpiresAt: now.Add(2 * time.Minute)}
	sooner := &db.PendingVerification{UserID: 2, ChatID: -1, MessageID: 12, ExpiresAt: now.Add(time.Minute)}
	for _, v := range []*db.PendingVerification{later, sooner} {
		if _, err := client.CreatePendingVerification(ctx, v); err != nil {
			t.Fatalf("create verification: %v", err)
		}
	}

	verifications, err := client.ListPendingVerifications(ctx)
	if err != nil {
		t.Fatalf("list verifications: %v", err)
	}
	if len(verifications) != 2 {
		t.Fatalf("expected 2 verifications, got %d", len(verifications))
	}
	if verifications[0].UserID != sooner.UserID {
		t.Fatalf("expected soonest expiry first, got %#v", verifications[0])
	}
}
