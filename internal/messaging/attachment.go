package messaging

import "messengerbot/internal/types"

const (
	openButtonLabel  = "Otevřít"
	referButtonLabel = "Přejít"
)

// BuildCard renders a notification as a single generic-template card. The
// card always links to URL; a present ReferURL adds a second button.
func BuildCard(req types.NotificationRequest, imageURL string) types.OutboundMessage {
	buttons := []types.CardButton{
		{Type: "web_url", URL: req.URL, Title: openButtonLabel},
	}
	if req.HasRefer() {
		buttons = append(buttons, types.CardButton{Type: "web_url", URL: req.ReferURL, Title: referButtonLabel})
	}

	return types.OutboundMessage{
		Attachment: &types.Attachment{
			Type: "template",
			Payload: types.TemplatePayload{
				TemplateType: "generic",
				Elements: []types.CardElement{{
					Title:    req.Title,
					ImageURL: imageURL,
					Subtitle: req.Text,
					DefaultAction: types.DefaultAction{
						Type:               "web_url",
						URL:                req.URL,
						WebviewHeightRatio: "tall",
					},
					Buttons: buttons,
				}},
			},
		},
	}
}
