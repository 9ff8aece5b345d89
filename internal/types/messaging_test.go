package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRequest_HasRefer(t *testing.T) {
	assert.False(t, NotificationRequest{URL: "https://a"}.HasRefer())
	assert.True(t, NotificationRequest{URL: "https://a", ReferURL: "https://b"}.HasRefer())
}

func TestOutboundMessage_TextJSON(t *testing.T) {
	data, err := json.Marshal(OutboundMessage{Text: "12345"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"text":"12345"}`, string(data))
}

func TestOutboundMessage_AttachmentJSON(t *testing.T) {
	msg := OutboundMessage{
		Attachment: &Attachment{
			Type: "template",
			Payload: TemplatePayload{
				TemplateType: "generic",
				Elements: []CardElement{{
					Title:    "T",
					ImageURL: "https://img",
					Subtitle: "X",
					DefaultAction: DefaultAction{
						Type:               "web_url",
						URL:                "https://a",
						WebviewHeightRatio: "tall",
					},
					Buttons: []CardButton{{Type: "web_url", URL: "https://a", Title: "Otevřít"}},
				}},
			},
		},
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"attachment": {
			"type": "template",
			"payload": {
				"template_type": "generic",
				"elements": [{
					"title": "T",
					"image_url": "https://img",
					"subtitle": "X",
					"default_action": {"type": "web_url", "url": "https://a", "webview_height_ratio": "tall"},
					"buttons": [{"type": "web_url", "url": "https://a", "title": "Otevřít"}]
				}]
			}
		}
	}`, string(data))
}

func TestBroadcastOutcome_Delivered(t *testing.T) {
	assert.True(t, BroadcastOutcome{Recipient: "A"}.Delivered())
	assert.False(t, BroadcastOutcome{Recipient: "B", Err: assert.AnError}.Delivered())
}
