package cart

import "github.com/shopspring/decimal"

// View is a consistent read of a cart: lines plus derived totals.
type View struct {
	Lines     []Line
	Total     decimal.Decimal
	ItemCount int
	Authority Authority
}

// NewView derives the read model of a snapshot
func NewView(s Snapshot, authority Authority) View {
	return View{
		Lines:     s.Lines(),
		Total:     s.Total(),
		ItemCount: s.ItemCount(),
		Authority: authority,
	}
}
