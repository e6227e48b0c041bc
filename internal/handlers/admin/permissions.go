package handlers

import (
	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/robostop/sentinel/internal/observability"
	"github.com/robostop/sentinel/internal/policy/permissions"
)

// Role checks fail closed: a gateway error means the caller is treated as
// a regular member.

func (a *Admin) callerIsAdmin(chatID, userID int64) bool {
	member, err := a.fetchMember(chatID, userID)
	if err != nil {
		return false
	}
	return permissions.IsAdministrator(&member)
}

func (a *Admin) callerIsCreator(chatID, userID int64) bool {
	member, err := a.fetchMember(chatID, userID)
	if err != nil {
		return false
	}
	return permissions.IsCreator(&member)
}

func (a *Admin) fetchMember(chatID, userID int64) (api.ChatMember, error) {
	member, err := a.gw.GetChatMember(api.GetChatMemberConfig{
		ChatConfigWithUser: api.ChatConfigWithUser{
			ChatConfig: api.ChatConfig{ChatID: chatID},
			UserID:     userID,
		},
	})
	if err != nil {
		observability.RecordGatewayError()
		a.getLogEntry().WithFields(log.Fields{
			"method":  "fetchMember",
			"chat_id": chatID,
			"user_id": userID,
			"error":   err.Error(),
		}).Error("cant get chat member")
	}
	return member, err
}
