package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/matchday/middleware"
	"github.com/Dosada05/matchday/models"
	"github.com/Dosada05/matchday/services"
)

type NotificationHandler struct {
	notificationService services.NotificationService
	dispatcher          *services.Dispatcher
}

func NewNotificationHandler(notificationService services.NotificationService, dispatcher *services.Dispatcher) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		dispatcher:          dispatcher,
	}
}

func (h *NotificationHandler) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	notifications, err := h.notificationService.ListForUser(r.Context(), callerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"notifications": notifications}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *NotificationHandler) MarkNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	notificationID, err := getIDFromURL(r, "notificationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), callerID, notificationID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "read"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *NotificationHandler) MarkAllNotificationsReadHandler(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	typ, err := notificationTypeFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.notificationService.MarkAllRead(r.Context(), callerID, typ); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "read"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *NotificationHandler) UnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	typ, err := notificationTypeFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	count, err := h.notificationService.UnreadCount(r.Context(), callerID, typ)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"unread_count": count}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ChatAlertHandler posts the inbox alert for a direct message. The message
// itself travels over the external chat transport; the sender's client calls
// this after delivery so the recipient's inbox and unread badge catch up.
// Delivery is best effort, so the alert is accepted rather than confirmed.
func (h *NotificationHandler) ChatAlertHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.GetUserIDFromContext(r.Context()); err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input struct {
		RecipientID int    `json:"recipient_id"`
		SenderName  string `json:"sender_name"`
		Text        string `json:"text"`
		ChatID      int    `json:"chat_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.RecipientID <= 0 || input.SenderName == "" || input.Text == "" {
		badRequestResponse(w, r, errors.New("recipient_id, sender_name and text are required"))
		return
	}

	h.dispatcher.ChatMessage(r.Context(), input.RecipientID, input.SenderName, input.Text, input.ChatID)

	if err := writeJSON(w, http.StatusAccepted, jsonResponse{"status": "accepted"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func notificationTypeFromQuery(r *http.Request) (models.NotificationType, error) {
	typ := models.NotificationType(r.URL.Query().Get("type"))
	if !typ.Valid() {
		return "", errors.New("query parameter \"type\" must be one of: chat, request, match_request, team_update")
	}
	return typ, nil
}
