package handlers

import (
	"net/http"

	"github.com/Dosada05/matchday/middleware"
	"github.com/Dosada05/matchday/services"
)

type MatchRequestHandler struct {
	matchRequestService services.MatchRequestService
}

func NewMatchRequestHandler(matchRequestService services.MatchRequestService) *MatchRequestHandler {
	return &MatchRequestHandler{matchRequestService: matchRequestService}
}

func (h *MatchRequestHandler) ProposeMatchHandler(w http.ResponseWriter, r *http.Request) {
	callerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.ProposeMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	request, err := h.matchRequestService.Propose(r.Context(), callerID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match_request": request}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchRequestHandler) AcceptMatchRequestHandler(w http.ResponseWriter, r *http.Request) {
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

	match, err := h.matchRequestService.Accept(r.Context(), callerID, requestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchRequestHandler) DeclineMatchRequestHandler(w http.ResponseWriter, r *http.Request) {
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

	if err := h.matchRequestService.Decline(r.Context(), callerID, requestID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "declined"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchRequestHandler) ListTeamMatchRequestsHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	requests, err := h.matchRequestService.ListForTeam(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match_requests": requests}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
