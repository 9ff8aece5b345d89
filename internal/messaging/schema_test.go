package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messengerbot/internal/types"
)

func TestParseMessageEvent_Valid(t *testing.T) {
	body := mustJSON(pageWebhookBody(pageMessagingItem(testBotID, "12345", "Help")))

	ev, err := ParseMessageEvent(body, testBotID)
	require.NoError(t, err)

	assert.Equal(t, types.MessageEvent{
		Object:      "page",
		SenderID:    "12345",
		RecipientID: testBotID,
		Text:        "Help",
		MessageID:   "mid.$cAAJ",
		Sequence:    42,
		TimestampMs: 1554051601234,
	}, ev)
}

func TestParseMessageEvent_FirstItemOfFirstEntryOnly(t *testing.T) {
	body := pageWebhookBody(
		pageMessagingItem(testBotID, "first", "who"),
		pageMessagingItem(testBotID, "second", "help"),
	)
	entries := body["entry"].([]any)
	body["entry"] = append(entries, map[string]any{
		"id":        testBotID,
		"time":      1554051601999,
		"messaging": []any{pageMessagingItem(testBotID, "third", "who")},
	})

	ev, err := ParseMessageEvent(mustJSON(body), testBotID)
	require.NoError(t, err)
	assert.Equal(t, "first", ev.SenderID)
	assert.Equal(t, "who", ev.Text)
}

func TestParseMessageEvent_EmptyTextIsValid(t *testing.T) {
	ev, err := ParseMessageEvent(mustJSON(pageWebhookBody(pageMessagingItem(testBotID, "12345", ""))), testBotID)
	require.NoError(t, err)
	assert.Equal(t, "", ev.Text)
}

func TestParseMessageEvent_ExtraFieldsTolerated(t *testing.T) {
	item := pageMessagingItem(testBotID, "12345", "who")
	item["message"].(map[string]any)["nlp"] = map[string]any{"entities": map[string]any{}}
	body := pageWebhookBody(item)
	body["debug"] = true

	_, err := ParseMessageEvent(mustJSON(body), testBotID)
	assert.NoError(t, err)
}

func TestParseMessageEvent_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(body map[string]any)
	}{
		{"object not page", func(b map[string]any) { b["object"] = "user" }},
		{"object wrong type", func(b map[string]any) { b["object"] = 1 }},
		{"entry empty", func(b map[string]any) { b["entry"] = []any{} }},
		{"entry not a list", func(b map[string]any) { b["entry"] = map[string]any{} }},
		{"entry id missing", func(b map[string]any) { entry(b)["id"] = nil }},
		{"entry id wrong type", func(b map[string]any) { entry(b)["id"] = 1000 }},
		{"entry time not integer", func(b map[string]any) { entry(b)["time"] = 1.5 }},
		{"entry time string", func(b map[string]any) { entry(b)["time"] = "1554051601500" }},
		{"messaging empty", func(b map[string]any) { entry(b)["messaging"] = []any{} }},
		{"messaging missing", func(b map[string]any) { delete(entry(b), "messaging") }},
		{"message missing", func(b map[string]any) { delete(item(b), "message") }},
		{"mid missing", func(b map[string]any) { delete(message(b), "mid") }},
		{"seq missing", func(b map[string]any) { delete(message(b), "seq") }},
		{"seq wrong type", func(b map[string]any) { message(b)["seq"] = "42" }},
		{"text missing", func(b map[string]any) { delete(message(b), "text") }},
		{"text wrong type", func(b map[string]any) { message(b)["text"] = 7 }},
		{"sender id missing", func(b map[string]any) { item(b)["sender"] = map[string]any{} }},
		{"sender id wrong type", func(b map[string]any) { item(b)["sender"] = map[string]any{"id": 12345} }},
		{"recipient missing", func(b map[string]any) { delete(item(b), "recipient") }},
		{"recipient not bot", func(b map[string]any) { item(b)["recipient"] = map[string]any{"id": "999"} }},
		{"timestamp missing", func(b map[string]any) { delete(item(b), "timestamp") }},
		{"timestamp float", func(b map[string]any) { item(b)["timestamp"] = 1.25 }},
		{"later item not addressed to bot", func(b map[string]any) {
			e := entry(b)
			e["messaging"] = append(e["messaging"].([]any), pageMessagingItem("999", "x", "who"))
		}},
		{"later item invalid", func(b map[string]any) {
			e := entry(b)
			bad := pageMessagingItem(testBotID, "x", "who")
			delete(bad, "timestamp")
			e["messaging"] = append(e["messaging"].([]any), bad)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := pageWebhookBody(pageMessagingItem(testBotID, "12345", "who"))
			tt.mutate(body)

			_, err := ParseMessageEvent(mustJSON(body), testBotID)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedPayload)
		})
	}
}

func TestParseNotificationRequest_Valid(t *testing.T) {
	body := notificationBodyFor("A", "B", "A")
	body["notification"].(map[string]any)["refer"] = "https://example.org/refer"

	req, err := ParseNotificationRequest(mustJSON(body), testBotID)
	require.NoError(t, err)

	assert.Equal(t, types.NotificationRequest{
		BotID:      testBotID,
		Title:      "Výjezd",
		Text:       "Jednotka vyjela k zásahu",
		URL:        "https://example.org/event/1",
		ReferURL:   "https://example.org/refer",
		Recipients: []string{"A", "B", "A"},
	}, req)
}

func TestParseNotificationRequest_EmptyReferIsAbsent(t *testing.T) {
	body := notificationBodyFor("A")
	body["notification"].(map[string]any)["refer"] = ""

	req, err := ParseNotificationRequest(mustJSON(body), testBotID)
	require.NoError(t, err)
	assert.False(t, req.HasRefer())
}

func TestParseNotificationRequest_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(n map[string]any)
	}{
		{"botID mismatch", func(n map[string]any) { n["botID"] = "999" }},
		{"botID missing", func(n map[string]any) { delete(n, "botID") }},
		{"title missing", func(n map[string]any) { delete(n, "title") }},
		{"title wrong type", func(n map[string]any) { n["title"] = 5 }},
		{"text missing", func(n map[string]any) { delete(n, "text") }},
		{"url missing", func(n map[string]any) { delete(n, "url") }},
		{"url relative", func(n map[string]any) { n["url"] = "/event/1" }},
		{"url not http", func(n map[string]any) { n["url"] = "mailto:someone@example.org" }},
		{"url garbage", func(n map[string]any) { n["url"] = "not a url" }},
		{"recipients empty", func(n map[string]any) { n["recipients"] = []any{} }},
		{"recipients missing", func(n map[string]any) { delete(n, "recipients") }},
		{"recipients not strings", func(n map[string]any) { n["recipients"] = []any{1, 2} }},
		{"recipients not a list", func(n map[string]any) { n["recipients"] = "A" }},
		{"recipients null element", func(n map[string]any) { n["recipients"] = []any{nil} }},
		{"recipients null among strings", func(n map[string]any) { n["recipients"] = []any{"A", nil, "B"} }},
		{"refer relative", func(n map[string]any) { n["refer"] = "refer/1" }},
		{"refer wrong type", func(n map[string]any) { n["refer"] = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := notificationBodyFor("A", "B")
			tt.mutate(body["notification"].(map[string]any))

			_, err := ParseNotificationRequest(mustJSON(body), testBotID)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedPayload)
		})
	}
}

func TestParseNotificationRequest_NotificationNotObject(t *testing.T) {
	for _, body := range []string{`{"notification":null}`, `{"notification":"x"}`, `{"notification":[]}`} {
		_, err := ParseNotificationRequest([]byte(body), testBotID)
		assert.ErrorIs(t, err, ErrMalformedPayload, body)
	}
}

// --- mutation helpers ---

func entry(b map[string]any) map[string]any {
	return b["entry"].([]any)[0].(map[string]any)
}

func item(b map[string]any) map[string]any {
	return entry(b)["messaging"].([]any)[0].(map[string]any)
}

func message(b map[string]any) map[string]any {
	return item(b)["message"].(map[string]any)
}
