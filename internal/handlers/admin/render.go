package handlers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/robostop/sentinel/internal/db"
	"github.com/robostop/sentinel/internal/i18n"
)

// maxRenderedChunkSize keeps each sent unit under the gateway's 4096
// character message limit with headroom for markup.
const maxRenderedChunkSize = 4000

func renderBlacklistEntry(blacklisted *db.BlacklistedUser, lang string) string {
	var b strings.Builder
	fmt.Fprintf(&b, i18n.Get("ID: %d", lang)+"\n", blacklisted.UserID)
	if blacklisted.Username != nil && *blacklisted.Username != "" {
		fmt.Fprintf(&b, i18n.Get("Username: @%s", lang)+"\n", *blacklisted.Username)
	}
	if blacklisted.FirstName != nil && *blacklisted.FirstName != "" {
		fmt.Fprintf(&b, i18n.Get("First name: %s", lang)+"\n", *blacklisted.FirstName)
	}
	if blacklisted.LastName != nil && *blacklisted.LastName != "" {
		fmt.Fprintf(&b, i18n.Get("Last name: %s", lang)+"\n", *blacklisted.LastName)
	}
	if blacklisted.Reason != "" {
		fmt.Fprintf(&b, i18n.Get("Reason: %s", lang)+"\n", blacklisted.Reason)
	}
	fmt.Fprintf(&b, i18n.Get("Date: %s", lang)+"\n", blacklisted.CreatedAt.Format("02.01.2006 15:04:05"))
	b.WriteString("\n")
	return b.String()
}

// chunkBlacklist packs rendered entries into sent units, preserving entry
// order and keeping every unit within limit characters. Entries are never
// split, an entry larger than the limit becomes its own unit.
func chunkBlacklist(header string, entries []string, limit int) []string {
	var chunks []string
	current := header
	for _, entry := range entries {
		if utf8.RuneCountInString(current)+utf8.RuneCountInString(entry) > limit && current != "" {
			chunks = append(chunks, current)
			current = entry
			continue
		}
		current += entry
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}
