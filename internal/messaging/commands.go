package messaging

import "strings"

// Replies sent by the command router.
const (
	HelpReply    = `"who" - print your ID` + "\n" + `"help" - print this message`
	UnknownReply = `Dont know what to do yet. Send "help" message to see possible commands.`
)

// Route maps a chat message to its reply. Matching is exact after Unicode
// lower-casing: "WHO" matches, " who" does not.
func Route(text, senderID string) string {
	switch strings.ToLower(text) {
	case "who":
		return senderID
	case "help":
		return HelpReply
	default:
		return UnknownReply
	}
}
