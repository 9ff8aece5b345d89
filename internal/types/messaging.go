package types

import "encoding/json"

// PayloadKind identifies which inbound shape a webhook body represents.
type PayloadKind string

const (
	KindMessageEvent        PayloadKind = "message_event"
	KindNotificationRequest PayloadKind = "notification_request"
	KindUnrecognized        PayloadKind = "unrecognized"
)

// WebhookEnvelope is one classified inbound body. Raw is the undecoded JSON
// object; nothing in it is trusted until the shape's schema accepts it.
type WebhookEnvelope struct {
	Kind PayloadKind
	Raw  json.RawMessage
}

// MessageKind labels an outbound message for logging and metrics.
type MessageKind string

const (
	MessageKindReply     MessageKind = "reply"
	MessageKindBroadcast MessageKind = "broadcast"
)

// BotIdentity is the sending account: the page access token and the
// platform-assigned page id. It is built per request from configuration and
// passed explicitly to every outbound call.
type BotIdentity struct {
	AccessToken SecretString
	BotID       string
}

// MessageEvent is the single actionable chat message extracted from a
// validated page webhook (first messaging item of the first entry).
type MessageEvent struct {
	Object      string
	SenderID    string
	RecipientID string
	Text        string
	MessageID   string
	Sequence    int64
	TimestampMs int64
}

// NotificationRequest is a validated internal broadcast request.
// Recipients may contain duplicates; each entry is attempted independently.
type NotificationRequest struct {
	BotID      string
	Title      string
	Text       string
	URL        string
	ReferURL   string // empty when absent
	Recipients []string
}

// HasRefer reports whether the request carries the optional second link.
func (n NotificationRequest) HasRefer() bool {
	return n.ReferURL != ""
}

// OutboundMessage is the "message" object of a Send API call. Exactly one of
// Text or Attachment is set.
type OutboundMessage struct {
	Text       string      `json:"text,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// Attachment is a Send API template attachment.
type Attachment struct {
	Type    string          `json:"type"`
	Payload TemplatePayload `json:"payload"`
}

// TemplatePayload carries the generic template elements.
type TemplatePayload struct {
	TemplateType string        `json:"template_type"`
	Elements     []CardElement `json:"elements"`
}

// CardElement is one generic-template card.
type CardElement struct {
	Title         string        `json:"title"`
	ImageURL      string        `json:"image_url"`
	Subtitle      string        `json:"subtitle"`
	DefaultAction DefaultAction `json:"default_action"`
	Buttons       []CardButton  `json:"buttons"`
}

// DefaultAction is the action taken when the card itself is tapped.
type DefaultAction struct {
	Type               string `json:"type"`
	URL                string `json:"url"`
	WebviewHeightRatio string `json:"webview_height_ratio"`
}

// CardButton is a web_url button rendered under the card.
type CardButton struct {
	Type  string `json:"type"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// BroadcastOutcome is the delivery result for one recipient of a broadcast.
// A nil Err means the message was delivered.
type BroadcastOutcome struct {
	Recipient string
	Err       error
}

// Delivered reports whether the recipient received the message.
func (o BroadcastOutcome) Delivered() bool {
	return o.Err == nil
}
