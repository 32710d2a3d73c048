package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Event is one raw entry from the vendor's chat-events feed. The emotion
// scores arrive as a JSON-encoded string, not a nested object.
type Event struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Role            string `json:"role"`
	MessageText     string `json:"message_text"`
	EmotionFeatures string `json:"emotion_features"`
	Timestamp       int64  `json:"timestamp"`
}

const (
	EventUserMessage  = "USER_MESSAGE"
	EventAgentMessage = "AGENT_MESSAGE"
)

// EventsClient fetches the event history of a chat group from the voice
// vendor's REST API.
type EventsClient struct {
	BaseURL     string
	APIKey      string
	MinInterval time.Duration
	Client      *http.Client

	mu        sync.Mutex
	lastReqAt time.Time
	cache     map[string][]Event
}

type eventsPage struct {
	EventsPage []Event `json:"events_page"`
}

func (c *EventsClient) FetchEvents(ctx context.Context, chatGroupID string) ([]Event, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("voice vendor API key is not set")
	}
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api.hume.ai"
	}
	if c.MinInterval <= 0 {
		c.MinInterval = 200 * time.Millisecond
	}

	c.mu.Lock()
	if c.cache == nil {
		c.cache = map[string][]Event{}
	}
	if cached, ok := c.cache[chatGroupID]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	sleepFor := time.Until(c.lastReqAt.Add(c.MinInterval))
	if sleepFor > 0 {
		c.mu.Unlock()
		time.Sleep(sleepFor)
		c.mu.Lock()
	}
	c.lastReqAt = time.Now()
	c.mu.Unlock()

	endpoint := fmt.Sprintf("%s/v0/evi/chat_groups/%s/events?page_size=100", c.BaseURL, chatGroupID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Hume-Api-Key", c.APIKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vendor events http error: %s", resp.Status)
	}

	var page eventsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[chatGroupID] = page.EventsPage
	c.mu.Unlock()

	return page.EventsPage, nil
}
