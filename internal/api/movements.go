package api

import (
	"fmt"
	"net/http"
	"time"

	"account-ledger-go/internal/ledger"
	"account-ledger-go/internal/models"
	"account-ledger-go/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type createMovementRequest struct {
	AccountId string           `json:"accountId"`
	Type      string           `json:"type"`
	Amount    *decimal.Decimal `json:"amount"`
	Reference string           `json:"reference"`
}

type updateMovementRequest struct {
	Type      *string          `json:"type"`
	Amount    *decimal.Decimal `json:"amount"`
	Reference *string          `json:"reference"`
}

func parseKind(raw string) (models.MovementKind, error) {
	kind, ok := models.ParseMovementKind(raw)
	if !ok {
		return "", fmt.Errorf("%w: %q", store.ErrInvalidMovementKind, raw)
	}
	return kind, nil
}

func movementViews(movements []models.Movement) []models.MovementView {
	views := make([]models.MovementView, 0, len(movements))
	for _, m := range movements {
		views = append(views, models.NewMovementView(m))
	}
	return views
}

func (s *Server) handleCreateMovement(w http.ResponseWriter, r *http.Request) {
	var req createMovementRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	kind, err := parseKind(req.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.Amount == nil {
		writeError(w, r, fmt.Errorf("%w: amount is required", store.ErrValidation))
		return
	}

	movement, err := s.ledger.CreateMovement(r.Context(), ledger.CreateMovementParams{
		AccountId: req.AccountId,
		Kind:      kind,
		Amount:    *req.Amount,
		Reference: req.Reference,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Movement created successfully", models.NewMovementView(*movement))
}

func (s *Server) handleGetMovement(w http.ResponseWriter, r *http.Request) {
	movement, err := s.ledger.GetMovement(r.Context(), chi.URLParam(r, "movementId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Movement retrieved successfully", models.NewMovementView(*movement))
}

func (s *Server) handleListMovements(w http.ResponseWriter, r *http.Request) {
	movements, err := s.ledger.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Movements retrieved successfully", movementViews(movements))
}

// handleListMovementsByAccount accepts optional from and to calendar dates;
// both or neither must be given.
func (s *Server) handleListMovementsByAccount(w http.ResponseWriter, r *http.Request) {
	accountId := chi.URLParam(r, "accountId")
	fromRaw, toRaw := r.URL.Query().Get("from"), r.URL.Query().Get("to")

	var movements []models.Movement
	var err error
	switch {
	case fromRaw == "" && toRaw == "":
		movements, err = s.ledger.ListByAccount(r.Context(), accountId)
	case fromRaw == "" || toRaw == "":
		err = fmt.Errorf("%w: from and to must be given together", store.ErrValidation)
	default:
		var from, to time.Time
		if from, to, err = s.dateWindow(fromRaw, toRaw); err == nil {
			movements, err = s.ledger.ListByAccountBetween(r.Context(), accountId, from, to)
		}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Movements retrieved successfully", movementViews(movements))
}

func (s *Server) handleUpdateMovement(w http.ResponseWriter, r *http.Request) {
	var req updateMovementRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	patch := ledger.MovementPatch{Amount: req.Amount, Reference: req.Reference}
	if req.Type != nil {
		kind, err := parseKind(*req.Type)
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.Kind = &kind
	}

	movement, err := s.ledger.UpdateMovement(r.Context(), chi.URLParam(r, "movementId"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Movement updated successfully", models.NewMovementView(*movement))
}

func (s *Server) handleDeleteMovement(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteMovement(r.Context(), chi.URLParam(r, "movementId")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Movement deleted successfully")
}
