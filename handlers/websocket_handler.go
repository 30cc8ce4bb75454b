package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Dosada05/matchday/live"
	"github.com/Dosada05/matchday/middleware"
	"github.com/Dosada05/matchday/services"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the frontend origin once it is deployed.
		return true
	},
}

type WebSocketHandler struct {
	hub                 *live.Hub
	matchService        services.MatchService
	notificationService services.NotificationService
	logger              *slog.Logger
}

func NewWebSocketHandler(
	hub *live.Hub,
	matchService services.MatchService,
	notificationService services.NotificationService,
	logger *slog.Logger,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:                 hub,
		matchService:        matchService,
		notificationService: notificationService,
		logger:              logger,
	}
}

// ServeNotifications streams unread-count snapshots for the authenticated
// user and the notification type given in the "type" query parameter.
func (h *WebSocketHandler) ServeNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	typ, err := notificationTypeFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	count, err := h.notificationService.UnreadCount(r.Context(), userID, typ)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	sub := h.notificationService.SubscribeUnreadCount(userID, typ)

	initial := live.Event{
		Type:    live.EventUnreadCount,
		Room:    live.NotificationRoom(userID, typ),
		Payload: map[string]interface{}{"type": typ, "count": count},
	}
	h.serve(w, r, sub, &initial)
}

// ServeTeamMatches streams match-list snapshots for a team.
func (h *WebSocketHandler) ServeTeamMatches(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.GetUserIDFromContext(r.Context()); err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.ListForTeam(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	sub := h.hub.Subscribe(live.TeamMatchesRoom(teamID))

	initial := live.Event{
		Type:    live.EventMatchList,
		Room:    live.TeamMatchesRoom(teamID),
		Payload: map[string]interface{}{"matches": matches},
	}
	h.serve(w, r, sub, &initial)
}

// serve upgrades the connection and bridges the subscription onto it. The
// read pump only watches for the client going away; all data flows from the
// hub to the client.
func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, sub *live.Subscription, initial *live.Event) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		h.logger.Error("websocket upgrade failed", "error", err, "path", r.URL.Path)
		return
	}

	go h.writePump(conn, sub, initial)
	go h.readPump(conn, sub)
}

func (h *WebSocketHandler) writePump(conn *websocket.Conn, sub *live.Subscription, initial *live.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.Close()
		conn.Close()
	}()

	if initial != nil {
		if err := writeEvent(conn, *initial); err != nil {
			return
		}
	}

	for {
		select {
		case event, ok := <-sub.Events():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := writeEvent(conn, event); err != nil {
				h.logger.Debug("websocket write failed", "error", err, "room", event.Room)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHandler) readPump(conn *websocket.Conn, sub *live.Subscription) {
	defer func() {
		sub.Close()
		conn.Close()
	}()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, event live.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, payload)
}
