package web

import (
	"net/http"

	"github.com/vbonduro/multirental/internal/domain"
	"github.com/vbonduro/multirental/internal/service"
)

type transitionRequest struct {
	State    string `json:"state" validate:"required,max=64"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

func (s *Server) decodeTransition(w http.ResponseWriter, r *http.Request) (domain.State, int, error) {
	var req transitionRequest
	if err := s.decode(w, r, &req); err != nil {
		return "", 0, err
	}
	// Unrecognized labels go through as-is so the engine reports a missing
	// line before a bad state.
	state, err := domain.ParseState(req.State)
	if err != nil {
		state = domain.State(req.State)
	}
	return state, req.Quantity, nil
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	lineID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	branchID, err := actingBranch(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	state, qty, err := s.decodeTransition(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.engine.ApplyTransition(r.Context(), service.TransitionRequest{
		BranchID:    branchID,
		StockLineID: lineID,
		State:       state,
		Quantity:    qty,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleTransitionByCode(w http.ResponseWriter, r *http.Request) {
	branchID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	state, qty, err := s.decodeTransition(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.engine.ApplyTransitionByCode(r.Context(), branchID, r.PathValue("code"), state, qty)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleStockLineHistory(w http.ResponseWriter, r *http.Request) {
	lineID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	history, err := s.engine.History(r.Context(), lineID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if history == nil {
		history = []*domain.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": history})
}

func (s *Server) handleBranchTransactions(w http.ResponseWriter, r *http.Request) {
	branchID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	report, err := s.agg.ListBranchTransactions(r.Context(), branchID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if report == nil {
		report = []*domain.TransactionReportRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": report})
}
