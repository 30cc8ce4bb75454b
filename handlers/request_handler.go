package handlers

import (
	"net/http"

	"github.com/Dosada05/matchday/middleware"
	"github.com/Dosada05/matchday/services"
)

type RequestHandler struct {
	requestService services.RequestService
}

func NewRequestHandler(requestService services.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

func (h *RequestHandler) SendRequestHandler(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.SendRequestInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	request, err := h.requestService.Send(r.Context(), callerID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"request": request}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RequestHandler) ListPendingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	requests, err := h.requestService.ListPendingForUser(r.Context(), callerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"requests": requests}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RequestHandler) AcceptRequestHandler(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	requestID, err := getIDFromURL(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.requestService.Accept(r.Context(), callerID, requestID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "accepted"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RequestHandler) DeclineRequestHandler(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	requestID, err := getIDFromURL(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.requestService.Decline(r.Context(), callerID, requestID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "declined"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
