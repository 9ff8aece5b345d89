// Package messaging holds the relay's decision logic: which shape an inbound
// webhook body has, whether it is valid, and what to send in response.
//
// The flow for one body is Classify, then the shape's schema parse, then
// either the command router (chat messages) or the broadcaster
// (notifications). Everything here is scoped to a single request; there is no
// state shared between requests.
package messaging

import (
	"encoding/json"

	"messengerbot/internal/types"
)

// Top-level keys that identify each shape.
const (
	keyObject       = "object"
	keyEntry        = "entry"
	keyNotification = "notification"
)

// Classify inspects the top-level keys of raw. A body carrying both "object"
// and "entry" is a MessageEvent; otherwise one carrying "notification" is a
// NotificationRequest; anything else, including bodies that are not JSON
// objects, is Unrecognized. Classify does not look at values.
func Classify(raw []byte) types.WebhookEnvelope {
	env := types.WebhookEnvelope{Kind: types.KindUnrecognized, Raw: json.RawMessage(raw)}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil || top == nil {
		return env
	}

	_, hasObject := top[keyObject]
	_, hasEntry := top[keyEntry]
	_, hasNotification := top[keyNotification]

	switch {
	case hasObject && hasEntry:
		env.Kind = types.KindMessageEvent
	case hasNotification:
		env.Kind = types.KindNotificationRequest
	}
	return env
}
