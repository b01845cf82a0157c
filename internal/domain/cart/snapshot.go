package cart

import (
	"github.com/shopspring/decimal"
)

// Snapshot is an immutable ordered list of cart lines.
// Every mutation returns a new Snapshot and leaves the receiver untouched.
type Snapshot struct {
	lines []Line
}

// NewSnapshot builds a snapshot from lines. Lines with a quantity below one
// are dropped and the slice is copied. A cart holds at most one line per
// product: later lines for a product already seen are folded into the first
// one, which keeps its id and position and takes the summed quantity.
func NewSnapshot(lines []Line) Snapshot {
	out := make([]Line, 0, len(lines))
	seen := make(map[string]int, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			continue
		}
		if i, ok := seen[l.ProductRef]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		seen[l.ProductRef] = len(out)
		out = append(out, l)
	}
	return Snapshot{lines: out}
}

// EmptySnapshot returns a snapshot without lines
func EmptySnapshot() Snapshot {
	return Snapshot{}
}

// Lines returns a copy of the lines in display order
func (s Snapshot) Lines() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Len returns the number of lines
func (s Snapshot) Len() int {
	return len(s.lines)
}

// IsEmpty reports whether the snapshot has no lines
func (s Snapshot) IsEmpty() bool {
	return len(s.lines) == 0
}

// Total is the sum of price times quantity over all lines.
func (s Snapshot) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount is the sum of quantities over all lines.
func (s Snapshot) ItemCount() int {
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// FindByProduct returns the line holding productRef
func (s Snapshot) FindByProduct(productRef string) (Line, bool) {
	for _, l := range s.lines {
		if l.ProductRef == productRef {
			return l, true
		}
	}
	return Line{}, false
}

// FindByLine returns the line with lineID
func (s Snapshot) FindByLine(lineID string) (Line, bool) {
	for _, l := range s.lines {
		if l.LineID == lineID {
			return l, true
		}
	}
	return Line{}, false
}

// WithAdded increments the line for item.ProductRef by qty, or appends a new
// line when the product is not in the cart yet. It returns the resulting line.
func (s Snapshot) WithAdded(item Item, qty int) (Snapshot, Line) {
	lines := s.Lines()
	for i := range lines {
		if lines[i].ProductRef == item.ProductRef {
			lines[i].Quantity += qty
			return Snapshot{lines: lines}, lines[i]
		}
	}
	line := NewLine(item, qty)
	return Snapshot{lines: append(lines, line)}, line
}

// WithLine replaces the line with the same LineID, or appends it.
func (s Snapshot) WithLine(line Line) Snapshot {
	lines := s.Lines()
	for i := range lines {
		if lines[i].LineID == line.LineID {
			lines[i] = line
			return Snapshot{lines: lines}
		}
	}
	return Snapshot{lines: append(lines, line)}
}

// WithoutLine removes the line with lineID. Unknown ids leave the snapshot as is.
func (s Snapshot) WithoutLine(lineID string) Snapshot {
	out := make([]Line, 0, len(s.lines))
	for _, l := range s.lines {
		if l.LineID != lineID {
			out = append(out, l)
		}
	}
	return Snapshot{lines: out}
}

// WithQuantity sets the quantity of lineID. A quantity of zero or less
// removes the line.
func (s Snapshot) WithQuantity(lineID string, qty int) Snapshot {
	if qty <= 0 {
		return s.WithoutLine(lineID)
	}
	lines := s.Lines()
	for i := range lines {
		if lines[i].LineID == lineID {
			lines[i].Quantity = qty
		}
	}
	return Snapshot{lines: lines}
}
