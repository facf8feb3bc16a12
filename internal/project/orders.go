package project

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/megastock/rollplan/internal/model"
	"github.com/megastock/rollplan/internal/workorder"
)

// OrderBookVersion is written into every saved order book.
const OrderBookVersion = "1.0.0"

// OrderBook is the persisted working set: orders with their planning
// state, the work orders issued so far and the last run summary.
type OrderBook struct {
	Version    string                `json:"version"`
	SavedAt    time.Time             `json:"saved_at"`
	Orders     []*model.Order        `json:"orders"`
	WorkOrders []workorder.WorkOrder `json:"work_orders"`
	LastRun    *model.PlanningResult `json:"last_run,omitempty"`
}

// Sequence resumes work order numbering after the highest number issued.
func (b *OrderBook) Sequence() workorder.Sequence {
	last := ""
	for _, wo := range b.WorkOrders {
		if wo.Number > last {
			last = wo.Number
		}
	}
	return workorder.SequenceFrom(last)
}

// Originals returns the non-temporary orders.
func (b *OrderBook) Originals() []*model.Order {
	var out []*model.Order
	for _, o := range b.Orders {
		if o != nil && !o.IsTemporary {
			out = append(out, o)
		}
	}
	return out
}

// Plannable splits the originals into those a new planning run may regroup
// and those held by a live work order. A work order is live until it is
// cancelled; orders pointing at a cancelled or unknown work order are
// plannable again.
func (b *OrderBook) Plannable() (open, locked []*model.Order) {
	live := make(map[string]bool, len(b.WorkOrders))
	for _, wo := range b.WorkOrders {
		if wo.Status != workorder.StatusCancelled {
			live[wo.Number] = true
		}
	}
	for _, o := range b.Originals() {
		if live[o.Planning.WorkOrder] {
			locked = append(locked, o)
			continue
		}
		open = append(open, o)
	}
	return open, locked
}

// Merge adds imported orders, replacing existing ones with the same ID.
// It returns how many orders were added and how many replaced.
func (b *OrderBook) Merge(orders []*model.Order) (added, replaced int) {
	index := make(map[string]int, len(b.Orders))
	for i, o := range b.Orders {
		index[o.ID] = i
	}
	for _, o := range orders {
		if i, ok := index[o.ID]; ok {
			b.Orders[i] = o
			replaced++
			continue
		}
		index[o.ID] = len(b.Orders)
		b.Orders = append(b.Orders, o)
		added++
	}
	return added, replaced
}

// SaveOrderBook writes the order book as JSON. Temporary orders are never
// persisted.
func SaveOrderBook(path string, book OrderBook) error {
	book.Version = OrderBookVersion
	book.SavedAt = time.Now().UTC()
	book.Orders = book.Originals()
	return writeJSON(path, book)
}

// LoadOrderBook reads an order book. A missing file yields an empty book.
func LoadOrderBook(path string) (OrderBook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return OrderBook{Version: OrderBookVersion}, nil
		}
		return OrderBook{}, errors.Wrapf(err, "read order book %s", path)
	}
	var book OrderBook
	if err := json.Unmarshal(data, &book); err != nil {
		return OrderBook{}, errors.Wrapf(err, "parse order book %s", path)
	}
	book.Orders = book.Originals()
	return book, nil
}
