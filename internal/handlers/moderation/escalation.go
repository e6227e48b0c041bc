package handlers

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/robostop/sentinel/internal/db"
	"github.com/robostop/sentinel/internal/i18n"
	"github.com/robostop/sentinel/internal/observability"
)

// escalate blacklists the user and attempts a ban. Blacklisting always
// happens; the ban is opportunistic and its failure only degrades the
// notice shown in the chat.
func (v *Verifier) escalate(ctx context.Context, chatID, userID int64, messageID int, entry *log.Entry) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	lang := v.cfg.DefaultLanguage

	record := db.NewBlacklistedUser(chatID, userID, i18n.Get("failed verification", lang))
	member, err := v.gw.GetChatMember(api.GetChatMemberConfig{
		ChatConfigWithUser: api.ChatConfigWithUser{
			ChatConfig: api.ChatConfig{ChatID: chatID},
			UserID:     userID,
		},
	})
	if err != nil {
		observability.RecordGatewayError()
		entry.WithField("error", err.Error()).Error("cant fetch chat member metadata")
	} else if member.User != nil {
		record.Username = optionalString(member.User.UserName)
		record.FirstName = optionalString(member.User.FirstName)
		record.LastName = optionalString(member.User.LastName)
	}

	if err := v.store.InsertBlacklistedUser(ctx, record); err != nil {
		return errors.WithMessage(err, "cant insert blacklisted user")
	}
	entry.Info("user blacklisted")

	notice := i18n.Get("The user failed to confirm that they are not a robot and was blacklisted.", lang)
	banned := true
	if _, err := v.gw.Request(api.BanChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{ChatID: chatID},
			UserID:     userID,
		},
	}); err != nil {
		observability.RecordGatewayError()
		entry.WithField("error", err.Error()).Error("cant ban chat member")
		banned = false
		notice = i18n.Get("The user failed to confirm that they are not a robot, but the bot could not ban them. The bot may lack permissions.", lang)
	}

	if _, err := v.gw.Request(api.NewEditMessageText(chatID, messageID, notice)); err != nil {
		observability.RecordGatewayError()
		entry.WithField("error", err.Error()).Error("cant edit challenge message")
	}

	observability.RecordEscalation(banned)
	return nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
