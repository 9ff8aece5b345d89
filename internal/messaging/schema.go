package messaging

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"messengerbot/internal/types"
)

// validate is shared by every request; validator caches struct metadata and
// is safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Wire shapes. Pointer fields distinguish "absent" from the zero value, so
// "required" means present; a present field with the wrong JSON type fails
// the decode itself. Unknown keys are ignored.

type pageWebhook struct {
	Object *string     `json:"object" validate:"required,eq=page"`
	Entry  []pageEntry `json:"entry" validate:"required,min=1,dive"`
}

type pageEntry struct {
	ID        *string         `json:"id" validate:"required"`
	Time      *int64          `json:"time" validate:"required"`
	Messaging []pageMessaging `json:"messaging" validate:"required,min=1,dive"`
}

type pageMessaging struct {
	Message   *pageMessage `json:"message" validate:"required"`
	Recipient *pageParty   `json:"recipient" validate:"required"`
	Sender    *pageParty   `json:"sender" validate:"required"`
	Timestamp *int64       `json:"timestamp" validate:"required"`
}

type pageMessage struct {
	MID  *string `json:"mid" validate:"required"`
	Seq  *int64  `json:"seq" validate:"required"`
	Text *string `json:"text" validate:"required"`
}

type pageParty struct {
	ID *string `json:"id" validate:"required"`
}

type notificationWebhook struct {
	Notification *notificationBody `json:"notification" validate:"required"`
}

type notificationBody struct {
	BotID      *string   `json:"botID" validate:"required"`
	Title      *string   `json:"title" validate:"required"`
	Text       *string   `json:"text" validate:"required"`
	URL        *string   `json:"url" validate:"required,http_url"`
	Recipients []*string `json:"recipients" validate:"required,min=1,dive,required"`
	Refer      *string   `json:"refer" validate:"omitempty,http_url"`
}

// ParseMessageEvent validates raw as a page webhook addressed to botID and
// returns its first messaging item of its first entry. Later entries and
// items must still be valid but are not acted upon.
//
// Every returned error wraps ErrMalformedPayload.
func ParseMessageEvent(raw []byte, botID string) (types.MessageEvent, error) {
	var wire pageWebhook
	if err := json.Unmarshal(raw, &wire); err != nil {
		return types.MessageEvent{}, rejectf("message event decode: %v", err)
	}
	if err := validate.Struct(wire); err != nil {
		return types.MessageEvent{}, rejectf("message event schema: %s", describe(err))
	}

	for i, entry := range wire.Entry {
		for j, item := range entry.Messaging {
			if *item.Recipient.ID != botID {
				return types.MessageEvent{}, rejectf("entry[%d].messaging[%d] recipient %q is not this bot", i, j, *item.Recipient.ID)
			}
		}
	}

	first := wire.Entry[0].Messaging[0]
	return types.MessageEvent{
		Object:      *wire.Object,
		SenderID:    *first.Sender.ID,
		RecipientID: *first.Recipient.ID,
		Text:        *first.Message.Text,
		MessageID:   *first.Message.MID,
		Sequence:    *first.Message.Seq,
		TimestampMs: *first.Timestamp,
	}, nil
}

// ParseNotificationRequest validates raw as a notification addressed to
// botID. An empty "refer" is treated as absent.
//
// Every returned error wraps ErrMalformedPayload.
func ParseNotificationRequest(raw []byte, botID string) (types.NotificationRequest, error) {
	var wire notificationWebhook
	if err := json.Unmarshal(raw, &wire); err != nil {
		return types.NotificationRequest{}, rejectf("notification decode: %v", err)
	}
	if err := validate.Struct(wire); err != nil {
		return types.NotificationRequest{}, rejectf("notification schema: %s", describe(err))
	}

	n := wire.Notification
	if *n.BotID != botID {
		return types.NotificationRequest{}, rejectf("notification botID %q is not this bot", *n.BotID)
	}

	recipients := make([]string, len(n.Recipients))
	for i, r := range n.Recipients {
		recipients[i] = *r
	}

	req := types.NotificationRequest{
		BotID:      *n.BotID,
		Title:      *n.Title,
		Text:       *n.Text,
		URL:        *n.URL,
		Recipients: recipients,
	}
	if n.Refer != nil {
		req.ReferURL = *n.Refer
	}
	return req, nil
}

// describe flattens validator errors into "field:tag" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s:%s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:%s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
