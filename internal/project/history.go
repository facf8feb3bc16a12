package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/megastock/rollplan/internal/model"
	"github.com/megastock/rollplan/internal/workorder"
)

const defaultMaxDepth = 20

// Snapshot captures the order book at a point in time.
type Snapshot struct {
	Label      string                `json:"label"` // e.g. "plan", "import pedidos.csv"
	TakenAt    time.Time             `json:"taken_at"`
	Orders     []*model.Order        `json:"orders"`
	WorkOrders []workorder.WorkOrder `json:"work_orders"`
	LastRun    *model.PlanningResult `json:"last_run,omitempty"`
}

// Restore writes the snapshot's state into book.
func (s Snapshot) Restore(book *OrderBook) {
	book.Orders = copyOrders(s.Orders)
	book.WorkOrders = copyWorkOrders(s.WorkOrders)
	book.LastRun = s.LastRun
}

// History manages undo/redo stacks of order book snapshots.
type History struct {
	UndoStack []Snapshot `json:"undo"`
	RedoStack []Snapshot `json:"redo"`
	MaxDepth  int        `json:"max_depth"`
}

// NewHistory creates a History with the default max depth of 20.
func NewHistory() *History {
	return &History{MaxDepth: defaultMaxDepth}
}

// Push saves a snapshot onto the undo stack and clears the redo stack.
// Call it with the state from before the change.
func (h *History) Push(s Snapshot) {
	h.UndoStack = append(h.UndoStack, s)
	if h.MaxDepth > 0 && len(h.UndoStack) > h.MaxDepth {
		h.UndoStack = h.UndoStack[len(h.UndoStack)-h.MaxDepth:]
	}
	h.RedoStack = nil
}

// Undo pops the most recent snapshot and pushes current onto the redo
// stack. It returns false when there is nothing to undo.
func (h *History) Undo(current Snapshot) (Snapshot, bool) {
	if len(h.UndoStack) == 0 {
		return Snapshot{}, false
	}
	last := h.UndoStack[len(h.UndoStack)-1]
	h.UndoStack = h.UndoStack[:len(h.UndoStack)-1]
	h.RedoStack = append(h.RedoStack, current)
	return last, true
}

// Redo is the inverse of Undo.
func (h *History) Redo(current Snapshot) (Snapshot, bool) {
	if len(h.RedoStack) == 0 {
		return Snapshot{}, false
	}
	last := h.RedoStack[len(h.RedoStack)-1]
	h.RedoStack = h.RedoStack[:len(h.RedoStack)-1]
	h.UndoStack = append(h.UndoStack, current)
	return last, true
}

func (h *History) CanUndo() bool { return len(h.UndoStack) > 0 }

func (h *History) CanRedo() bool { return len(h.RedoStack) > 0 }

// Clear removes all undo and redo history.
func (h *History) Clear() {
	h.UndoStack = nil
	h.RedoStack = nil
}

// MakeSnapshot deep-copies the book's state under a label.
// Temporary orders are left out.
func MakeSnapshot(book OrderBook, label string) Snapshot {
	return Snapshot{
		Label:      label,
		TakenAt:    time.Now().UTC(),
		Orders:     copyOrders(book.Originals()),
		WorkOrders: copyWorkOrders(book.WorkOrders),
		LastRun:    book.LastRun,
	}
}

func copyOrders(orders []*model.Order) []*model.Order {
	if orders == nil {
		return nil
	}
	cp := make([]*model.Order, len(orders))
	for i, o := range orders {
		cp[i] = o.Clone()
	}
	return cp
}

func copyWorkOrders(orders []workorder.WorkOrder) []workorder.WorkOrder {
	if orders == nil {
		return nil
	}
	cp := make([]workorder.WorkOrder, len(orders))
	for i, wo := range orders {
		cp[i] = wo
		cp[i].OrderIDs = append([]string(nil), wo.OrderIDs...)
	}
	return cp
}

// HistoryPath returns the history file kept next to an order book,
// e.g. orders.json -> orders.history.json.
func HistoryPath(ordersPath string) string {
	ext := filepath.Ext(ordersPath)
	return strings.TrimSuffix(ordersPath, ext) + ".history.json"
}

// SaveHistory writes the history as JSON.
func SaveHistory(path string, h *History) error {
	return writeJSON(path, h)
}

// LoadHistory reads a history file. A missing file yields an empty history.
func LoadHistory(path string) (*History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewHistory(), nil
		}
		return nil, errors.Wrapf(err, "read history %s", path)
	}
	h := NewHistory()
	if err := json.Unmarshal(data, h); err != nil {
		return nil, errors.Wrapf(err, "parse history %s", path)
	}
	return h, nil
}
