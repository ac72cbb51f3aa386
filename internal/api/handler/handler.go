package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"presence.monitor/internal/core"
	"presence.monitor/internal/core/model"
	"presence.monitor/internal/ports"
)

// Service is the attendance monitor as seen by the control API.
type Service interface {
	Display() model.DisplayState
	Card() model.Card
	Refresh(ctx context.Context) error
	PrimaryAction(ctx context.Context, confirmer ports.Confirmer) (core.Outcome, error)
	History(ctx context.Context, limit int) ([]model.HistoryEntry, error)
}

type MonitorHandler struct {
	Service Service
}

type ToggleRequest struct {
	Confirm bool `json:"confirm"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *MonitorHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.Display())
}

func (h *MonitorHandler) Card(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.Card())
}

func (h *MonitorHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	confirmer := ports.ConfirmFunc(func(context.Context, string) bool { return req.Confirm })
	outcome, err := h.Service.PrimaryAction(r.Context(), confirmer)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if outcome == core.OutcomeCancelled {
		writeJSON(w, http.StatusConflict, errorResponse{Error: core.CheckOutPrompt + " Repeat with confirm=true."})
		return
	}
	writeJSON(w, http.StatusOK, h.Service.Display())
}

func (h *MonitorHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Refresh(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Service.Display())
}

func (h *MonitorHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be an integer"})
			return
		}
		limit = parsed
	}

	entries, err := h.Service.History(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// fail maps monitor and client errors onto status codes.
func (h *MonitorHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrThrottled):
		status = http.StatusTooManyRequests
	case errors.Is(err, core.ErrNotConfigured), errors.Is(err, core.ErrNotSynced), errors.Is(err, core.ErrShutdown):
		status = http.StatusServiceUnavailable
	case errors.Is(err, core.ErrHistoryDisabled):
		status = http.StatusNotFound
	case model.IsNetworkError(err), errors.Is(err, model.ErrRemoteFault), errors.Is(err, model.ErrRecordNotFound):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
