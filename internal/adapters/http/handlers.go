package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/application"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ready(r.Context()); err != nil {
		writeMappedError(r.Context(), w, "readyz", err)
		return
	}
	writeMessage(w, http.StatusOK, "ready")
}

func (h *Handler) createMatch(w http.ResponseWriter, r *http.Request) {
	var payload createMatchPayload
	if err := decodeBody(r, &payload); err != nil {
		writeValidationError(r.Context(), w, "create_match", err)
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		writeMappedError(r.Context(), w, "create_match", err)
		return
	}

	record, err := h.service.CreateMatch(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "create_match", err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) fetchMatch(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.FetchMatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeMappedError(r.Context(), w, "fetch_match", err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) findMatch(w http.ResponseWriter, r *http.Request) {
	if !h.service.MatchingEnabled(r.Context()) {
		writeJSON(w, http.StatusOK, application.FindMatchResponse{})
		return
	}
	var payload findMatchPayload
	if err := decodeBody(r, &payload); err != nil {
		writeValidationError(r.Context(), w, "find_match", err)
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		writeMappedError(r.Context(), w, "find_match", err)
		return
	}

	res, err := h.service.FindMatch(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "find_match", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
