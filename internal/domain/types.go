package domain

import (
	"strings"
	"time"
)

// State is the lifecycle label of a stock line.
type State string

const (
	StateAvailable        State = "Available"
	StateReserved         State = "Reserved"
	StateUnderMaintenance State = "UnderMaintenance"
)

// States lists every recognized state in display order.
var States = []State{StateAvailable, StateReserved, StateUnderMaintenance}

func (s State) Valid() bool {
	switch s {
	case StateAvailable, StateReserved, StateUnderMaintenance:
		return true
	}
	return false
}

func (s State) String() string { return string(s) }

// ParseState maps user input onto a State. It accepts the canonical names in any
// case, a few snake_case spellings, and the legacy Spanish labels stored by the
// old system.
func ParseState(raw string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "available", "disponible":
		return StateAvailable, nil
	case "reserved", "reservada":
		return StateReserved, nil
	case "undermaintenance", "under_maintenance", "maintenance", "en mantenimiento", "en_mantenimiento":
		return StateUnderMaintenance, nil
	}
	return "", &Error{Kind: ErrInvalidState, State: raw}
}

// QuantityDelta returns the change to quantity-available caused by moving qty
// units from one state to another. Only moves into or out of Available touch
// the counter; moves between non-Available states are label-only.
func QuantityDelta(from, to State, qty int) int {
	switch {
	case from == StateAvailable && to != StateAvailable:
		return -qty
	case from != StateAvailable && to == StateAvailable:
		return qty
	default:
		return 0
	}
}

type Branch struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

type Tool struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Brand     string    `json:"brand"`
	CreatedAt time.Time `json:"created_at"`
}

// StockLine is one coded unit (or count bucket) of a tool at a branch.
type StockLine struct {
	ID                int64     `json:"id"`
	BranchID          int64     `json:"branch_id"`
	ToolID            int64     `json:"tool_id"`
	Code              string    `json:"code"`
	QuantityAvailable int       `json:"quantity_available"`
	State             State     `json:"state"`
	CreatedAt         time.Time `json:"created_at"`
}

// Transaction is the immutable audit record of one applied transition.
type Transaction struct {
	ID          int64     `json:"id"`
	StockLineID int64     `json:"stock_line_id"`
	BranchID    int64     `json:"branch_id"`
	PriorState  State     `json:"prior_state"`
	NewState    State     `json:"new_state"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
}

// StockLineView is a stock line joined with its tool for listings.
type StockLineView struct {
	StockLine
	ToolName  string `json:"tool_name"`
	ToolBrand string `json:"tool_brand"`
}

// BranchStockLineView adds the branch name for cross-branch listings.
type BranchStockLineView struct {
	StockLineView
	BranchName string `json:"branch_name"`
}

// BranchTotal is the summed quantity-available of one tool at one branch.
type BranchTotal struct {
	BranchID   int64  `json:"branch_id"`
	BranchName string `json:"branch_name"`
	Location   string `json:"location"`
	Total      int    `json:"total"`
}

// TransactionReportRow is one ledger entry joined with tool, line and branch
// data, the shape export collaborators consume.
type TransactionReportRow struct {
	TransactionID int64     `json:"transaction_id"`
	StockLineID   int64     `json:"stock_line_id"`
	ToolName      string    `json:"tool_name"`
	ToolBrand     string    `json:"tool_brand"`
	Code          string    `json:"code"`
	BranchName    string    `json:"branch_name"`
	PriorState    State     `json:"prior_state"`
	NewState      State     `json:"new_state"`
	Quantity      int       `json:"quantity"`
	CreatedAt     time.Time `json:"created_at"`
}
