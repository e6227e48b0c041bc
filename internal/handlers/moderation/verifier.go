package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/robostop/sentinel/internal/bot"
	"github.com/robostop/sentinel/internal/config"
	"github.com/robostop/sentinel/internal/db"
	"github.com/robostop/sentinel/internal/i18n"
	"github.com/robostop/sentinel/internal/infra"
	"github.com/robostop/sentinel/internal/observability"
)

const verifyCallbackPrefix = "verify_"

type verificationStore interface {
	CreatePendingVerification(ctx context.Context, verification *db.PendingVerification) (bool, error)
	GetPendingVerification(ctx context.Context, chatID, userID int64) (*db.PendingVerification, error)
	DeletePendingVerification(ctx context.Context, chatID, userID int64) (bool, error)
	DeletePendingVerificationByMessage(ctx context.Context, chatID, userID int64, messageID int) (bool, error)
	ListPendingVerifications(ctx context.Context) ([]*db.PendingVerification, error)

	IsBlacklisted(ctx context.Context, chatID, userID int64) (bool, error)
	InsertBlacklistedUser(ctx context.Context, user *db.BlacklistedUser) error
}

type gateway interface {
	Send(c api.Chattable) (api.Message, error)
	Request(c api.Chattable) (*api.APIResponse, error)
	GetChatMember(config api.GetChatMemberConfig) (api.ChatMember, error)
}

// Verifier owns the verification lifecycle: it challenges suspected
// spammers, resolves button presses and escalates timed-out challenges.
// It is the sole writer and deleter of pending verification rows.
type Verifier struct {
	gw       gateway
	store    verificationStore
	cfg      *config.Config
	detector *Detector

	runCtx  context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

func NewVerifier(gw gateway, store verificationStore, cfg *config.Config) *Verifier {
	words := cfg.Verification.ForbiddenWords
	if len(words) == 0 {
		words = DefaultForbiddenWords()
	}
	return &Verifier{
		gw:       gw,
		store:    store,
		cfg:      cfg,
		detector: NewDetector(words),
	}
}

func (v *Verifier) getLogEntry() *log.Entry {
	return log.WithField("object", "Verifier")
}

// Start resumes timers for challenges that were pending when the process
// last stopped. Rows already past their deadline fire immediately.
func (v *Verifier) Start(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.started {
		return nil
	}

	v.runCtx, v.cancel = context.WithCancel(ctx)
	v.started = true

	pending, err := v.store.ListPendingVerifications(v.runCtx)
	if err != nil {
		return errors.WithMessage(err, "cant list pending verifications")
	}
	for _, verification := range pending {
		remaining := time.Until(verification.ExpiresAt)
		if remaining < 0 {
			remaining = 0
		}
		v.getLogEntry().WithFields(log.Fields{
			"method":    "Start",
			"user_id":   verification.UserID,
			"chat_id":   verification.ChatID,
			"remaining": remaining.String(),
		}).Info("resuming verification timer")
		v.scheduleTimeout(verification.ChatID, verification.UserID, verification.MessageID, remaining, uuid.New())
	}
	return nil
}

func (v *Verifier) Stop(ctx context.Context) error {
	v.mu.Lock()
	if !v.started {
		v.mu.Unlock()
		return nil
	}
	v.started = false
	cancel := v.cancel
	v.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		v.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (v *Verifier) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	if u == nil || chat == nil || user == nil {
		return true, nil
	}

	switch {
	case u.CallbackQuery != nil && strings.HasPrefix(u.CallbackQuery.Data, verifyCallbackPrefix):
		return v.handleVerifyPressed(ctx, u.CallbackQuery, chat, user)
	case u.Message != nil:
		return v.handleMessage(ctx, u.Message, chat, user)
	}
	return true, nil
}

func (v *Verifier) handleMessage(ctx context.Context, msg *api.Message, chat *api.Chat, user *api.User) (bool, error) {
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	if !v.detector.IsSuspicious(text) {
		return true, nil
	}

	verificationID := uuid.New()
	entry := v.getLogEntry().WithFields(log.Fields{
		"method":          "handleMessage",
		"chat_id":         chat.ID,
		"user_id":         user.ID,
		"verification_id": verificationID,
	})
	entry.Info("suspicious message detected")

	blacklisted, err := v.store.IsBlacklisted(ctx, chat.ID, user.ID)
	if err != nil {
		return false, errors.WithMessage(err, "cant check blacklist")
	}
	if blacklisted {
		entry.Debug("user is already blacklisted")
		return false, nil
	}

	pending, err := v.store.GetPendingVerification(ctx, chat.ID, user.ID)
	if err != nil {
		return false, errors.WithMessage(err, "cant check pending verification")
	}
	if pending != nil {
		// Ignore, not reset: a second suspicious message never extends the
		// already running challenge.
		entry.Debug("verification is already pending")
		return false, nil
	}

	lang := v.cfg.DefaultLanguage
	challenge := api.NewMessage(chat.ID, fmt.Sprintf(
		i18n.Get("@%s, please confirm that you are not a robot by pressing the button below within %d seconds.", lang),
		bot.GetUN(user),
		v.cfg.Verification.TimeoutSeconds,
	))
	challenge.ReplyMarkup = api.NewInlineKeyboardMarkup(
		api.NewInlineKeyboardRow(
			api.NewInlineKeyboardButtonData(
				i18n.Get("I'm not a robot", lang),
				verifyCallbackPrefix+strconv.FormatInt(user.ID, 10),
			),
		),
	)
	sent, err := v.gw.Send(challenge)
	if err != nil {
		observability.RecordGatewayError()
		return false, errors.WithMessage(err, "cant send challenge message")
	}

	created, err := v.store.CreatePendingVerification(ctx, &db.PendingVerification{
		UserID:    user.ID,
		ChatID:    chat.ID,
		MessageID: sent.MessageID,
		ExpiresAt: time.Now().Add(v.cfg.Verification.Timeout()),
	})
	if err != nil {
		return false, errors.WithMessage(err, "cant create pending verification")
	}
	if !created {
		entry.Debug("verification row appeared concurrently")
		return false, nil
	}

	observability.RecordVerificationStarted()
	v.scheduleTimeout(chat.ID, user.ID, sent.MessageID, v.cfg.Verification.Timeout(), verificationID)
	return false, nil
}

func (v *Verifier) handleVerifyPressed(ctx context.Context, cq *api.CallbackQuery, chat *api.Chat, user *api.User) (bool, error) {
	entry := v.getLogEntry().WithFields(log.Fields{
		"method":  "handleVerifyPressed",
		"chat_id": chat.ID,
		"user_id": user.ID,
	})
	lang := v.cfg.DefaultLanguage

	targetID, err := strconv.ParseInt(strings.TrimPrefix(cq.Data, verifyCallbackPrefix), 10, 64)
	if err != nil {
		entry.WithField("data", cq.Data).Warn("malformed verify callback data")
		return false, nil
	}

	if user.ID != targetID {
		if _, err := v.gw.Request(api.NewCallbackWithAlert(cq.ID, i18n.Get("This button is not for you", lang))); err != nil {
			entry.WithField("error", err.Error()).Error("cant answer callback query")
		}
		return false, nil
	}

	deleted, err := v.store.DeletePendingVerification(ctx, chat.ID, user.ID)
	if err != nil {
		return false, errors.WithMessage(err, "cant resolve pending verification")
	}
	if !deleted {
		// Lost the race against the timeout, or the challenge never existed.
		if _, err := v.gw.Request(api.NewCallbackWithAlert(cq.ID, i18n.Get("Verification not found or expired", lang))); err != nil {
			entry.WithField("error", err.Error()).Error("cant answer callback query")
		}
		return false, nil
	}

	if cq.Message != nil {
		edit := api.NewEditMessageText(chat.ID, cq.Message.MessageID, fmt.Sprintf(
			i18n.Get("@%s successfully confirmed that they are not a robot.", lang),
			bot.GetUN(user),
		))
		if _, err := v.gw.Request(edit); err != nil {
			observability.RecordGatewayError()
			entry.WithField("error", err.Error()).Error("cant edit challenge message")
		}
	}
	if _, err := v.gw.Request(api.NewCallbackWithAlert(cq.ID, i18n.Get("Verification passed successfully!", lang))); err != nil {
		entry.WithField("error", err.Error()).Error("cant answer callback query")
	}

	observability.RecordVerificationResolved()
	entry.Info("verification resolved")
	return false, nil
}

// scheduleTimeout spawns a fire-and-forget watcher for the challenge. No
// handle is kept: a challenge resolved before the deadline simply leaves
// the watcher to observe the missing row and do nothing.
func (v *Verifier) scheduleTimeout(chatID, userID int64, messageID int, fireIn time.Duration, verificationID string) {
	v.wg.Add(1)
	runCtx := v.runCtx
	if runCtx == nil {
		runCtx = context.Background()
	}
	go func() {
		defer v.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				v.getLogEntry().Errorf("timeout watcher panics with message: %s, %s", r, infra.IdentifyPanic())
			}
		}()

		timer := time.NewTimer(fireIn)
		defer timer.Stop()
		select {
		case <-runCtx.Done():
			return
		case <-timer.C:
		}

		entry := v.getLogEntry().WithFields(log.Fields{
			"method":          "onTimeoutFired",
			"chat_id":         chatID,
			"user_id":         userID,
			"verification_id": verificationID,
		})
		if err := v.onTimeoutFired(runCtx, chatID, userID, messageID, entry); err != nil {
			entry.WithField("error", err.Error()).Error("cant process verification timeout")
		}
	}()
}

func (v *Verifier) onTimeoutFired(ctx context.Context, chatID, userID int64, messageID int, entry *log.Entry) error {
	pending, err := v.store.GetPendingVerification(ctx, chatID, userID)
	if err != nil {
		return errors.WithMessage(err, "cant check pending verification")
	}
	if pending == nil || pending.MessageID != messageID {
		entry.Debug("stale timeout, verification already resolved")
		return nil
	}

	if err := v.escalate(ctx, chatID, userID, messageID, entry); err != nil {
		return err
	}

	if _, err := v.store.DeletePendingVerificationByMessage(ctx, chatID, userID, messageID); err != nil {
		return errors.WithMessage(err, "cant delete pending verification")
	}
	return nil
}
