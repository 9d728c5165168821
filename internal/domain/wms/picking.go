package wms

import "github.com/shopspring/decimal"

// PickingState is the state of an outgoing delivery
type PickingState string

const (
	PickingStateDraft     PickingState = "draft"
	PickingStateWaiting   PickingState = "waiting"
	PickingStateConfirmed PickingState = "confirmed"
	PickingStateAssigned  PickingState = "assigned"
	PickingStateDone      PickingState = "done"
	PickingStateCancel    PickingState = "cancel"
)

// PickingLine is one product movement of a picking
type PickingLine struct {
	ID         int64
	ProductID  int64
	OrderedQty decimal.Decimal
	DoneQty    decimal.Decimal
}

// Picking is the local fulfillment record of a sales order
type Picking struct {
	ID    int64
	Name  string
	State PickingState
	Lines []PickingLine
}

// IsFinal reports whether the picking is done or cancelled
func (p *Picking) IsFinal() bool {
	return p.State == PickingStateDone || p.State == PickingStateCancel
}

// FillDoneQuantities marks every line as fully fulfilled
func (p *Picking) FillDoneQuantities() {
	for i := range p.Lines {
		p.Lines[i].DoneQty = p.Lines[i].OrderedQty
	}
}
