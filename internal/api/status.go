package api

import (
	"net/http"
	"strconv"

	"github.com/checkpointhq/checkpoint/internal/session"
	"github.com/checkpointhq/checkpoint/pkg/httpx"
)

type statusReportRequest struct {
	ClientName string `json:"client_name"`
}

func (h *Handler) handleStatusReport(w http.ResponseWriter, r *http.Request) {
	u, ok := session.UserFromContext(r.Context())
	if !ok {
		httpx.AuthenticationError("Not authenticated").WriteError(w)
		return
	}

	var req statusReportRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	sc, err := h.status.Report(r.Context(), u.ID, req.ClientName)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, newStatusCheckResponse(sc))
}

func (h *Handler) handleStatusList(w http.ResponseWriter, r *http.Request) {
	u, ok := session.UserFromContext(r.Context())
	if !ok {
		httpx.AuthenticationError("Not authenticated").WriteError(w)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	checks, err := h.status.Recent(r.Context(), u.ID, limit)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	out := make([]statusCheckResponse, 0, len(checks))
	for i := range checks {
		out = append(out, newStatusCheckResponse(&checks[i]))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string][]statusCheckResponse{"checks": out})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
