package backend

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// Event is one message from the backend's event stream.
type Event struct {
	Type string
	Data json.RawMessage
}

// NotePath extracts the note path from a note.* event payload.
func (e Event) NotePath() string {
	var d struct {
		Path string `json:"path"`
	}
	_ = json.Unmarshal(e.Data, &d)
	return d.Path
}

// BoardID extracts the board id from a kanban.updated payload.
func (e Event) BoardID() string {
	var d struct {
		BoardID string `json:"boardId"`
	}
	_ = json.Unmarshal(e.Data, &d)
	return d.BoardID
}

const reconnectDelay = 2 * time.Second

// Subscribe opens the backend's SSE stream and delivers events until
// ctx is cancelled. The connection is re-established after errors; the
// returned channel closes only when ctx is done.
func (c *Client) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 64)
	go func() {
		defer close(ch)
		for {
			c.stream(ctx, ch)
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
		}
	}()
	return ch
}

// stream reads one SSE connection until it drops or ctx is cancelled.
func (c *Client) stream(ctx context.Context, ch chan<- Event) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/events", nil)
	if err != nil {
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	// The stream outlives the client's request timeout, so use a
	// dedicated client with no deadline; ctx handles cancellation.
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var eventType string
	var dataLines []string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if eventType != "" && len(dataLines) > 0 {
				ev := Event{
					Type: eventType,
					Data: json.RawMessage(strings.Join(dataLines, "\n")),
				}
				select {
				case ch <- ev:
				case <-ctx.Done():
					return
				}
			}
			eventType = ""
			dataLines = dataLines[:0]
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(line[len("event:"):])
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimSpace(line[len("data:"):]))
		}
	}
}
