package voice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEvents(t *testing.T) {
	events := []Event{
		{Type: EventUserMessage, MessageText: "Help, there's a fire", EmotionFeatures: `{"fear": 0.9, "panic": 0.7}`, Timestamp: 1700000000000},
		{Type: EventAgentMessage, MessageText: "What is your address?", Timestamp: 1700000005000},
		{Type: "CHAT_METADATA", MessageText: "ignored"},
		{Type: EventUserMessage, MessageText: "123 Market Street", EmotionFeatures: `{"fear": 0.5}`, Timestamp: 1700000010000},
	}

	segments, frames := Normalize(events)

	require.Len(t, segments, 3)
	assert.Equal(t, "caller", segments[0].Role)
	assert.Equal(t, "assistant", segments[1].Role)
	assert.Equal(t, "Help, there's a fire", segments[0].Text)

	require.Len(t, frames, 2)
	assert.InDelta(t, 0.9, frames[0]["fear"], 1e-9)
	assert.InDelta(t, 0.5, frames[1]["fear"], 1e-9)
}

func TestNormalizeMalformedEmotions(t *testing.T) {
	events := []Event{
		{Type: EventUserMessage, MessageText: "hello", EmotionFeatures: `not json`},
		{Type: EventUserMessage, MessageText: "still here", EmotionFeatures: `{"fear": "high", "anger": 0.4}`},
	}
	segments, frames := Normalize(events)

	require.Len(t, segments, 2)
	assert.Nil(t, segments[0].Emotions)
	require.Len(t, frames, 1)
	assert.InDelta(t, 0.4, frames[0]["anger"], 1e-9)
	assert.NotContains(t, frames[0], "fear")
}

func TestFetchEventsRequiresKey(t *testing.T) {
	c := &EventsClient{}
	_, err := c.FetchEvents(context.Background(), "group-1")
	assert.Error(t, err)
}

func TestFetchEventsCachesResponses(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "test-key", r.Header.Get("X-Hume-Api-Key"))
		w.Write([]byte(`{"events_page": [{"type": "USER_MESSAGE", "message_text": "hi"}]}`))
	}))
	defer srv.Close()

	c := &EventsClient{BaseURL: srv.URL, APIKey: "test-key"}
	first, err := c.FetchEvents(context.Background(), "group-1")
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := c.FetchEvents(context.Background(), "group-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestFetchEventsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &EventsClient{BaseURL: srv.URL, APIKey: "test-key"}
	_, err := c.FetchEvents(context.Background(), "group-2")
	assert.Error(t, err)
}
