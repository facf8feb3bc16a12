package project

import (
	"path/filepath"
	"testing"

	"github.com/megastock/rollplan/internal/model"
	"github.com/megastock/rollplan/internal/workorder"
)

func bookWith(ids ...string) OrderBook {
	var book OrderBook
	for _, id := range ids {
		book.Orders = append(book.Orders, model.NewOrder(id, 300, 200, 100, 1000, 2))
	}
	return book
}

func TestNewHistory(t *testing.T) {
	h := NewHistory()
	if h.MaxDepth != defaultMaxDepth {
		t.Errorf("expected MaxDepth %d, got %d", defaultMaxDepth, h.MaxDepth)
	}
	if h.CanUndo() {
		t.Error("new history should not be undoable")
	}
	if h.CanRedo() {
		t.Error("new history should not be redoable")
	}
}

func TestPushAndUndo(t *testing.T) {
	h := NewHistory()
	h.Push(MakeSnapshot(OrderBook{}, "initial"))

	if !h.CanUndo() {
		t.Fatal("should be able to undo after push")
	}

	restored, ok := h.Undo(MakeSnapshot(bookWith("A"), "current"))
	if !ok {
		t.Fatal("undo should succeed")
	}
	if len(restored.Orders) != 0 {
		t.Errorf("expected 0 orders after undo, got %d", len(restored.Orders))
	}
	if restored.Label != "initial" {
		t.Errorf("expected label 'initial', got %q", restored.Label)
	}
	if !h.CanRedo() {
		t.Error("undo should enable redo")
	}
}

func TestUndoRedo(t *testing.T) {
	h := NewHistory()
	h.Push(MakeSnapshot(bookWith("A"), "import"))
	current := MakeSnapshot(bookWith("A", "B"), "current")

	restored, ok := h.Undo(current)
	if !ok || len(restored.Orders) != 1 {
		t.Fatalf("undo: ok=%v orders=%d", ok, len(restored.Orders))
	}

	redone, ok := h.Redo(restored)
	if !ok {
		t.Fatal("redo should succeed")
	}
	if len(redone.Orders) != 2 {
		t.Errorf("expected 2 orders after redo, got %d", len(redone.Orders))
	}
}

func TestPushClearsRedo(t *testing.T) {
	h := NewHistory()
	h.Push(MakeSnapshot(bookWith("A"), "one"))
	h.Undo(MakeSnapshot(bookWith("A", "B"), "two"))
	h.Push(MakeSnapshot(bookWith("C"), "three"))
	if h.CanRedo() {
		t.Error("push should clear redo stack")
	}
}

func TestMaxDepth(t *testing.T) {
	h := NewHistory()
	h.MaxDepth = 3
	for i := 0; i < 5; i++ {
		h.Push(MakeSnapshot(OrderBook{}, "step"))
	}
	if len(h.UndoStack) != 3 {
		t.Errorf("expected 3 snapshots, got %d", len(h.UndoStack))
	}
}

func TestUndoEmpty(t *testing.T) {
	h := NewHistory()
	if _, ok := h.Undo(Snapshot{}); ok {
		t.Error("undo on empty history should fail")
	}
	if _, ok := h.Redo(Snapshot{}); ok {
		t.Error("redo on empty history should fail")
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	book := bookWith("A")
	book.Orders[0].Planning.Group = "GROUP-001"
	book.WorkOrders = []workorder.WorkOrder{{Number: "OT-2026-0001", OrderIDs: []string{"A"}}}

	snap := MakeSnapshot(book, "before")
	book.Orders[0].Planning.Group = ""
	book.WorkOrders[0].OrderIDs[0] = "Z"

	if snap.Orders[0].Planning.Group != "GROUP-001" {
		t.Error("snapshot order changed with the book")
	}
	if snap.WorkOrders[0].OrderIDs[0] != "A" {
		t.Error("snapshot work order IDs changed with the book")
	}

	var restored OrderBook
	snap.Restore(&restored)
	restored.Orders[0].ID = "X"
	if snap.Orders[0].ID != "A" {
		t.Error("restore should not share orders with the snapshot")
	}
}

func TestSaveAndLoadHistory(t *testing.T) {
	path := HistoryPath(filepath.Join(t.TempDir(), "orders.json"))
	if filepath.Base(path) != "orders.history.json" {
		t.Fatalf("unexpected history path %s", path)
	}

	h := NewHistory()
	h.Push(MakeSnapshot(bookWith("A", "B"), "import"))
	if err := SaveHistory(path, h); err != nil {
		t.Fatalf("SaveHistory failed: %v", err)
	}

	loaded, err := LoadHistory(path)
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if !loaded.CanUndo() || len(loaded.UndoStack[0].Orders) != 2 {
		t.Errorf("history not restored: %+v", loaded.UndoStack)
	}

	missing, err := LoadHistory(filepath.Join(t.TempDir(), "none.json"))
	if err != nil || missing.CanUndo() {
		t.Errorf("missing history should be empty, err=%v", err)
	}
}
