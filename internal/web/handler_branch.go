package web

import (
	"net/http"

	"github.com/vbonduro/multirental/internal/domain"
)

type createBranchRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Location string `json:"location" validate:"required,max=200"`
}

// updateBranchRequest changes the name, the location or both.
type updateBranchRequest struct {
	Name     *string `json:"name" validate:"required_without=Location,omitempty,max=200"`
	Location *string `json:"location" validate:"required_without=Name,omitempty,max=200"`
}

func (s *Server) handleListBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := s.catalog.ListBranches(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if branches == nil {
		branches = []*domain.Branch{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"branches": branches})
}

func (s *Server) handleCreateBranch(w http.ResponseWriter, r *http.Request) {
	var req createBranchRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	branch, err := s.catalog.CreateBranch(r.Context(), req.Name, req.Location)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, branch)
}

func (s *Server) handleGetBranch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	branch, err := s.catalog.GetBranch(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, branch)
}

func (s *Server) handleUpdateBranch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateBranchRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	branch, err := s.catalog.UpdateBranch(r.Context(), id, req.Name, req.Location)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, branch)
}

func (s *Server) handleDeleteBranch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	removal, err := s.catalog.RemoveBranch(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if removal.ToolsRemoved == nil {
		removal.ToolsRemoved = []int64{}
	}
	writeJSON(w, http.StatusOK, removal)
}
