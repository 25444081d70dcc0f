package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"empires-server/internal/catalog"
	"empires-server/internal/command"
	"empires-server/internal/empire"
	"empires-server/internal/shared/errors"
	"empires-server/internal/shared/response"
)

const (
	maxCommandBytes = 64 << 10
	// defaultSubmitWait caps how long a request waits on a full inbox when
	// the inbox itself has no submit timeout.
	defaultSubmitWait = 5 * time.Second
)

type EmpireHandler struct {
	service    *empire.Service
	submitWait time.Duration
}

func NewEmpireHandler(service *empire.Service) *EmpireHandler {
	return &EmpireHandler{service: service, submitWait: defaultSubmitWait}
}

type SubmitResponse struct {
	Status  string `json:"status"`
	Kind    string `json:"kind"`
	Pending int    `json:"pending"`
}

type TransferRequest struct {
	To     int   `json:"to"`
	Amount int64 `json:"amount"`
}

type PersistedSnapshotResponse struct {
	Tick     int64           `json:"tick"`
	Snapshot empire.Snapshot `json:"snapshot"`
}

type TechnologyResponse struct {
	Name     string   `json:"name"`
	Level    int      `json:"level"`
	Requires []string `json:"requires"`
}

func empireID(r *http.Request) (int, error) {
	idStr := r.PathValue("id")
	if idStr == "" {
		return 0, errors.Validation("empire ID is required")
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, errors.WrapValidation("invalid empire ID format", err)
	}
	return id, nil
}

func (h *EmpireHandler) List(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "list_empires")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	response.Success(w, http.StatusOK, h.service.List())
}

func (h *EmpireHandler) Get(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "get_empire")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	id, err := empireID(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	summary, err := h.service.Get(id)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, summary)
}

// GetPublished serves the summary as of the last tick.
func (h *EmpireHandler) GetPublished(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "get_published_empire")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	id, err := empireID(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	summary, err := h.service.Published(r.Context(), id)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, summary)
}

func (h *EmpireHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "get_empire_snapshot")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	id, err := empireID(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	snapshot, err := h.service.Snapshot(id)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, snapshot)
}

// GetPersistedSnapshot serves the newest snapshot written to the database.
func (h *EmpireHandler) GetPersistedSnapshot(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "get_persisted_snapshot")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	id, err := empireID(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	snapshot, tick, err := h.service.PersistedSnapshot(r.Context(), id)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, PersistedSnapshotResponse{Tick: tick, Snapshot: snapshot})
}

func (h *EmpireHandler) GetUndiscovered(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "get_undiscovered_techs")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	id, err := empireID(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	techs, err := h.service.UndiscoveredTechs(id, r.PathValue("category"))
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, technologies(techs))
}

func technologies(techs []*catalog.Technology) []TechnologyResponse {
	out := make([]TechnologyResponse, 0, len(techs))
	for _, tech := range techs {
		requires := tech.Requires
		if requires == nil {
			requires = []string{}
		}
		out = append(out, TechnologyResponse{Name: tech.Name, Level: tech.Level, Requires: requires})
	}
	return out
}

// SubmitCommand queues one command envelope. The request blocks while the
// inbox is full, up to the inbox's submit timeout or submitWait, whichever
// comes first, and then fails with 429.
func (h *EmpireHandler) SubmitCommand(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "submit_command")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	id, err := empireID(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCommandBytes))
	if err != nil {
		response.Error(w, r, logger, errors.WrapValidation("failed to read command", err))
		return
	}

	cmd, err := command.Decode(body)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.submitWait)
	defer cancel()

	if err := h.service.Submit(ctx, id, cmd); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	summary, err := h.service.Get(id)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusAccepted, SubmitResponse{
		Status:  "queued",
		Kind:    cmd.Kind(),
		Pending: summary.PendingCommands,
	})
}

// Transfer moves funds from the path empire to another one immediately.
func (h *EmpireHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "transfer_funds")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	id, err := empireID(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	var req TransferRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBytes)).Decode(&req); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid transfer request", err))
		return
	}

	if err := h.service.Registry().TransferFunds(id, req.To, req.Amount); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, h.service.List())
}
