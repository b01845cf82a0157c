package cache

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/cart"
)

// guestLineRecord is the stored form of one guest cart line. The layout
// matches what storefront pages already keep in browser storage, so a cart
// can be handed over from the client unchanged.
type guestLineRecord struct {
	LineID    string      `json:"lineId"`
	ProductID string      `json:"productId"`
	Name      string      `json:"name"`
	Image     string      `json:"image"`
	Price     json.Number `json:"price"`
	Qty       int         `json:"qty"`
}

var errMalformedGuestCart = errors.New("malformed guest cart")

func encodeGuestCart(s cart.Snapshot) ([]byte, error) {
	lines := s.Lines()
	records := make([]guestLineRecord, 0, len(lines))
	for _, l := range lines {
		records = append(records, guestLineRecord{
			LineID:    l.LineID,
			ProductID: l.ProductRef,
			Name:      l.Name,
			Image:     l.ImageURL,
			Price:     json.Number(l.UnitPrice.String()),
			Qty:       l.Quantity,
		})
	}
	return json.Marshal(records)
}

// decodeGuestCart parses a stored guest cart. Lines without an id are given
// one and backfilled is reported so the caller can write the ids back.
// Quantities below one read as one. Records missing a product or carrying an
// unparseable price are skipped. Records repeating a product are folded into
// the first one, which is also reported as backfilled.
func decodeGuestCart(data []byte) (snapshot cart.Snapshot, backfilled bool, err error) {
	var records []guestLineRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return cart.EmptySnapshot(), false, fmt.Errorf("%w: %v", errMalformedGuestCart, err)
	}

	lines := make([]cart.Line, 0, len(records))
	for _, r := range records {
		if r.ProductID == "" {
			continue
		}
		price, err := decimal.NewFromString(r.Price.String())
		if err != nil {
			continue
		}
		if r.LineID == "" {
			r.LineID = cart.NewLineID()
			backfilled = true
		}
		qty := r.Qty
		if qty < 1 {
			qty = 1
		}
		lines = append(lines, cart.Line{
			LineID:     r.LineID,
			ProductRef: r.ProductID,
			Name:       r.Name,
			ImageURL:   r.Image,
			UnitPrice:  price,
			Quantity:   qty,
		})
	}
	snapshot = cart.NewSnapshot(lines)
	if snapshot.Len() != len(lines) {
		backfilled = true
	}
	return snapshot, backfilled, nil
}
