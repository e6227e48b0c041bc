package permissions

import api "github.com/OvyFlash/telegram-bot-api"

// IsAdministrator reports whether the member may run administrator commands.
func IsAdministrator(member *api.ChatMember) bool {
	if member == nil {
		return false
	}
	return member.IsAdministrator() || member.IsCreator()
}

// IsCreator reports whether the member owns the chat.
func IsCreator(member *api.ChatMember) bool {
	if member == nil {
		return false
	}
	return member.IsCreator()
}
