package live

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Dosada05/matchday/models"
)

// Event is a full-snapshot message published to a room. Consumers never
// receive diffs: every event carries the complete current state for the room,
// and derived values (badge counts, sorted lists) are recomputed per event.
type Event struct {
	Type    string      `json:"type"`
	Room    string      `json:"room,omitempty"`
	Payload interface{} `json:"payload"`
}

const (
	EventUnreadCount = "UNREAD_COUNT"
	EventMatchList   = "MATCH_LIST"
)

// NotificationRoom is the per-user, per-type room carrying unread badge counts.
func NotificationRoom(userID int, typ models.NotificationType) string {
	return fmt.Sprintf("user:%d:notifications:%s", userID, typ)
}

// TeamMatchesRoom carries the full match list of a team.
func TeamMatchesRoom(teamID int) string {
	return fmt.Sprintf("team:%d:matches", teamID)
}

const subscriptionBuffer = 8

// Subscription is a cancellable stream of snapshot events for one room.
// Close is idempotent and detaches the subscription from the hub, so
// re-subscribing (navigation, reconnects) never leaks the old stream.
type Subscription struct {
	hub    *Hub
	room   string
	events chan Event
	once   sync.Once
}

// Events returns the snapshot stream. The channel is closed by Close.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s)
		close(s.events)
	})
}

// Hub fans snapshot events out to room subscribers. It is the in-process
// change-notification side of the store: services publish a fresh snapshot
// after every relevant write.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Subscription]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Subscription]struct{}),
		logger: logger,
	}
}

func (h *Hub) Subscribe(room string) *Subscription {
	sub := &Subscription{
		hub:    h,
		room:   room,
		events: make(chan Event, subscriptionBuffer),
	}

	h.mu.Lock()
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Subscription]struct{})
	}
	h.rooms[room][sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.rooms[sub.room]
	if !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.rooms, sub.room)
	}
}

// Publish delivers the event to every subscriber of the room. A subscriber
// whose buffer is full is skipped: the next snapshot supersedes this one, so
// dropping an intermediate event loses nothing a consumer can't recompute.
func (h *Hub) Publish(room string, eventType string, payload interface{}) {
	event := Event{Type: eventType, Room: room, Payload: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.rooms[room] {
		select {
		case sub.events <- event:
		default:
			if h.logger != nil {
				h.logger.Warn("dropping live event for slow subscriber", slog.String("room", room), slog.String("type", eventType))
			}
		}
	}
}

// SubscriberCount reports how many subscriptions a room currently has.
func (h *Hub) SubscriberCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
