package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"messengerbot/internal/types"
)

const testBotID = "1000"

var testIdentity = types.BotIdentity{AccessToken: "EAA-test", BotID: testBotID}

// --- Mock implementations ---

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, identity types.BotIdentity, recipientID string, msg types.OutboundMessage) error {
	args := m.Called(ctx, identity, recipientID, msg)
	return args.Error(0)
}

type recordingMetrics struct {
	mu         sync.Mutex
	deliveries map[types.MessageKind]map[types.DeliveryResult]int
	broadcasts [][2]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{deliveries: make(map[types.MessageKind]map[types.DeliveryResult]int)}
}

func (r *recordingMetrics) RecordDelivery(_ context.Context, kind types.MessageKind, result types.DeliveryResult, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deliveries[kind] == nil {
		r.deliveries[kind] = make(map[types.DeliveryResult]int)
	}
	r.deliveries[kind][result]++
}

func (r *recordingMetrics) RecordBroadcast(_ context.Context, recipients, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts = append(r.broadcasts, [2]int{recipients, failed})
}

// --- Fixtures ---

func pageMessagingItem(recipientID, senderID, text string) map[string]any {
	return map[string]any{
		"sender":    map[string]any{"id": senderID},
		"recipient": map[string]any{"id": recipientID},
		"timestamp": 1554051601234,
		"message": map[string]any{
			"mid":  "mid.$cAAJ",
			"seq":  42,
			"text": text,
		},
	}
}

func pageWebhookBody(items ...map[string]any) map[string]any {
	messaging := make([]any, 0, len(items))
	for _, it := range items {
		messaging = append(messaging, it)
	}
	return map[string]any{
		"object": "page",
		"entry": []any{
			map[string]any{
				"id":        testBotID,
				"time":      1554051601500,
				"messaging": messaging,
			},
		},
	}
}

func notificationBodyFor(recipients ...string) map[string]any {
	list := make([]any, 0, len(recipients))
	for _, r := range recipients {
		list = append(list, r)
	}
	return map[string]any{
		"notification": map[string]any{
			"botID":      testBotID,
			"title":      "Výjezd",
			"text":       "Jednotka vyjela k zásahu",
			"url":        "https://example.org/event/1",
			"recipients": list,
		},
	}
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
