package telegram

import (
	"fmt"
	"strings"
)

func startText(isModerator bool, firstName string) string {
	if isModerator {
		return fmt.Sprintf("Hello, %s! New alumni requests will appear here. Use /help for the list of commands.", firstName)
	}
	return "Hello! This bot is used by yearbook moderators to review alumni verification requests."
}

func helpText(isModerator bool) string {
	if !isModerator {
		return "There are no commands available to you. Alumni requests are submitted from the yearbook website."
	}
	var helpText strings.Builder
	helpText.WriteString("Moderator commands:\n\n")
	helpText.WriteString("`/pending <SchoolID>`\n - List pending alumni requests for a school.\n\n")
	helpText.WriteString("`/approve <RequestID> [notes]`\n - Approve a request and verify its badge.\n\n")
	helpText.WriteString("`/deny <RequestID> [notes]`\n - Deny a request. Notes are shown to the requester.\n\n")
	helpText.WriteString("`/delete_badge <BadgeID>`\n - Delete a badge and block re-requests to that school for 3 months.\n\n")
	helpText.WriteString("`/help`\n - Show this message.")
	return helpText.String()
}
