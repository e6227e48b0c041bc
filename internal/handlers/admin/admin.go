package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/robostop/sentinel/internal/config"
	"github.com/robostop/sentinel/internal/db"
	"github.com/robostop/sentinel/internal/i18n"
	"github.com/robostop/sentinel/internal/observability"
)

type blacklistStore interface {
	ListBlacklistedUsers(ctx context.Context, chatID int64) ([]*db.BlacklistedUser, error)
	CountBlacklistedUsers(ctx context.Context, chatID int64) (int, error)
	DeleteBlacklistedUser(ctx context.Context, chatID, userID int64) (int64, error)
	ClearBlacklist(ctx context.Context, chatID int64) (int64, error)
}

type adminGateway interface {
	Send(c api.Chattable) (api.Message, error)
	Request(c api.Chattable) (*api.APIResponse, error)
	GetChatMember(config api.GetChatMemberConfig) (api.ChatMember, error)
	GetChat(config api.ChatInfoConfig) (api.ChatFullInfo, error)
}

// Admin serves the blacklist command surface. Caller roles are re-checked
// against the live chat member on every command, roles can change between
// commands.
type Admin struct {
	gw    adminGateway
	store blacklistStore
	cfg   *config.Config
}

func NewAdmin(gw adminGateway, store blacklistStore, cfg *config.Config) *Admin {
	return &Admin{
		gw:    gw,
		store: store,
		cfg:   cfg,
	}
}

func (a *Admin) getLogEntry() *log.Entry {
	return log.WithField("object", "Admin")
}

func (a *Admin) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	if u == nil || u.Message == nil || chat == nil || user == nil {
		return true, nil
	}
	msg := u.Message

	if !msg.IsCommand() {
		if strings.EqualFold(strings.TrimSpace(msg.Text), "статус") {
			return false, a.handleStatus(ctx, chat)
		}
		return true, nil
	}

	switch msg.Command() {
	case "status":
		return false, a.handleStatus(ctx, chat)
	case "blacklist":
		return false, a.handleBlacklist(ctx, chat, user)
	case "unban":
		return false, a.handleUnban(ctx, msg, chat, user)
	case "clear_blacklist":
		return false, a.handleClear(ctx, chat, user)
	case "help":
		return false, a.handleHelp(chat)
	}
	return true, nil
}

func (a *Admin) handleStatus(ctx context.Context, chat *api.Chat) error {
	lang := a.cfg.DefaultLanguage
	count, err := a.store.CountBlacklistedUsers(ctx, chat.ID)
	if err != nil {
		return errors.WithMessage(err, "cant count blacklisted users")
	}
	text := strings.Join([]string{
		i18n.Get("Bot status:", lang),
		fmt.Sprintf(i18n.Get("Blacklisted users: %d", lang), count),
		i18n.Get("The bot is up and watching for suspicious activity.", lang),
	}, "\n")
	return a.reply(chat.ID, text)
}

func (a *Admin) handleHelp(chat *api.Chat) error {
	lang := a.cfg.DefaultLanguage
	text := strings.Join([]string{
		i18n.Get("Bot commands:", lang),
		i18n.Get("/status - Show bot status", lang),
		i18n.Get("/blacklist - Show the blacklist (administrators only)", lang),
		i18n.Get("/unban <user_id> - Remove a user from the blacklist (administrators only)", lang),
		i18n.Get("/clear_blacklist - Clear the blacklist (chat creator only)", lang),
		i18n.Get("/help - Show this help", lang),
		"",
		i18n.Get("The bot automatically detects suspicious activity and requests verification.", lang),
	}, "\n")
	return a.reply(chat.ID, text)
}

func (a *Admin) handleBlacklist(ctx context.Context, chat *api.Chat, user *api.User) error {
	lang := a.cfg.DefaultLanguage
	if !a.callerIsAdmin(chat.ID, user.ID) {
		return a.reply(chat.ID, i18n.Get("This command is only available to chat administrators.", lang))
	}

	users, err := a.store.ListBlacklistedUsers(ctx, chat.ID)
	if err != nil {
		return errors.WithMessage(err, "cant list blacklisted users")
	}
	if len(users) == 0 {
		return a.reply(chat.ID, i18n.Get("The blacklist is empty.", lang))
	}

	entries := make([]string, 0, len(users))
	for _, blacklisted := range users {
		entries = append(entries, renderBlacklistEntry(blacklisted, lang))
	}
	for _, chunk := range chunkBlacklist(i18n.Get("Blacklisted users:", lang)+"\n\n", entries, maxRenderedChunkSize) {
		if err := a.reply(chat.ID, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (a *Admin) handleUnban(ctx context.Context, msg *api.Message, chat *api.Chat, user *api.User) error {
	lang := a.cfg.DefaultLanguage
	entry := a.getLogEntry().WithFields(log.Fields{"method": "handleUnban", "chat_id": chat.ID})
	if !a.callerIsAdmin(chat.ID, user.ID) {
		return a.reply(chat.ID, i18n.Get("This command is only available to chat administrators.", lang))
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) < 1 {
		return a.reply(chat.ID, i18n.Get("Usage: /unban <user_id>", lang))
	}
	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return a.reply(chat.ID, i18n.Get("Invalid user ID.", lang))
	}

	removed, err := a.store.DeleteBlacklistedUser(ctx, chat.ID, targetID)
	if err != nil {
		return errors.WithMessage(err, "cant delete blacklisted user")
	}
	if removed == 0 {
		return a.reply(chat.ID, fmt.Sprintf(i18n.Get("User %d was not found in the blacklist.", lang), targetID))
	}

	chatInfo, err := a.gw.GetChat(api.ChatInfoConfig{ChatConfig: api.ChatConfig{ChatID: chat.ID}})
	if err != nil {
		observability.RecordGatewayError()
		entry.WithField("error", err.Error()).Error("cant get chat info")
		return a.reply(chat.ID, fmt.Sprintf(i18n.Get("User %d was removed from the blacklist, but the bot could not check the chat type. Please unban the user manually.", lang), targetID))
	}

	// The gateway only supports unbanning in supergroups and channels.
	if chatInfo.Type != "supergroup" && chatInfo.Type != "channel" {
		return a.reply(chat.ID, fmt.Sprintf(i18n.Get("User %d was removed from the blacklist. Unbanning is only available in supergroups and channels, please unban the user manually.", lang), targetID))
	}

	if _, err := a.gw.Request(api.UnbanChatMemberConfig{
		ChatMemberConfig: api.ChatMemberConfig{
			ChatConfig: api.ChatConfig{ChatID: chat.ID},
			UserID:     targetID,
		},
		OnlyIfBanned: true,
	}); err != nil {
		observability.RecordGatewayError()
		entry.WithField("error", err.Error()).Error("cant unban chat member")
		return a.reply(chat.ID, fmt.Sprintf(i18n.Get("User %d was removed from the blacklist, but the bot could not unban them. The bot may lack permissions.", lang), targetID))
	}
	return a.reply(chat.ID, fmt.Sprintf(i18n.Get("User %d was removed from the blacklist and unbanned.", lang), targetID))
}

func (a *Admin) handleClear(ctx context.Context, chat *api.Chat, user *api.User) error {
	lang := a.cfg.DefaultLanguage
	if !a.callerIsCreator(chat.ID, user.ID) {
		return a.reply(chat.ID, i18n.Get("This command is only available to the chat creator.", lang))
	}

	removed, err := a.store.ClearBlacklist(ctx, chat.ID)
	if err != nil {
		return errors.WithMessage(err, "cant clear blacklist")
	}
	return a.reply(chat.ID, fmt.Sprintf(i18n.Get("The blacklist has been cleared. Records removed: %d", lang), removed))
}

func (a *Admin) reply(chatID int64, text string) error {
	if _, err := a.gw.Send(api.NewMessage(chatID, text)); err != nil {
		observability.RecordGatewayError()
		return errors.WithMessage(err, "cant send reply")
	}
	return nil
}
