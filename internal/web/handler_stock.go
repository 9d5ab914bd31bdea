package web

import (
	"net/http"

	"github.com/vbonduro/multirental/internal/domain"
)

type registerToolRequest struct {
	Name  string   `json:"name" validate:"required,max=200"`
	Brand string   `json:"brand" validate:"required,max=200"`
	Codes []string `json:"codes" validate:"required,min=1,max=500,dive,required,max=64"`
}

func (s *Server) handleRegisterTool(w http.ResponseWriter, r *http.Request) {
	branchID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req registerToolRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	reg, err := s.catalog.RegisterTool(r.Context(), branchID, req.Name, req.Brand, req.Codes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

func (s *Server) handleListStock(w http.ResponseWriter, r *http.Request) {
	branchID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, pageSize, err := pageParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.agg.ListBranchStock(r.Context(), branchID, r.URL.Query().Get("q"), page, pageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := pageParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.agg.SearchAvailable(r.Context(), r.URL.Query().Get("q"), page, pageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleToolTotal(w http.ResponseWriter, r *http.Request) {
	branchID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	toolID, err := pathID(r, "toolID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	state, err := queryState(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	total, err := s.agg.StockTotalForTool(r.Context(), toolID, branchID, state)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if state == "" {
		state = domain.StateAvailable
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"branch_id": branchID,
		"tool_id":   toolID,
		"state":     state,
		"total":     total,
	})
}

func (s *Server) handleToolTotals(w http.ResponseWriter, r *http.Request) {
	toolID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	state, err := queryState(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	totals, err := s.agg.StockTotalsByBranch(r.Context(), toolID, state)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if totals == nil {
		totals = []*domain.BranchTotal{}
	}
	if state == "" {
		state = domain.StateAvailable
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tool_id": toolID,
		"state":   state,
		"totals":  totals,
	})
}

func (s *Server) handleDeleteStockLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	removal, err := s.catalog.RemoveStockLine(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, removal)
}

func pageParams(r *http.Request) (int, int, error) {
	page, err := queryInt(r, "page")
	if err != nil {
		return 0, 0, err
	}
	pageSize, err := queryInt(r, "page_size")
	if err != nil {
		return 0, 0, err
	}
	return page, pageSize, nil
}
