package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItem(ref string, price int64) Item {
	return Item{
		ProductRef: ref,
		Name:       "Product " + ref,
		ImageURL:   "https://cdn.example.com/" + ref + ".jpg",
		UnitPrice:  decimal.NewFromInt(price),
	}
}

// ============================================
// Snapshot mutation tests
// ============================================

func TestSnapshot_WithAdded_MergesSameProduct(t *testing.T) {
	s := EmptySnapshot()

	s, first := s.WithAdded(testItem("p1", 100), 1)
	s, second := s.WithAdded(testItem("p1", 100), 1)

	require.Equal(t, 1, s.Len())
	assert.Equal(t, first.LineID, second.LineID)
	assert.Equal(t, 2, second.Quantity)
	assert.Equal(t, 2, s.ItemCount())
	assert.True(t, decimal.NewFromInt(200).Equal(s.Total()))
}

func TestSnapshot_WithAdded_AppendsNewProduct(t *testing.T) {
	s, _ := EmptySnapshot().WithAdded(testItem("p1", 100), 1)
	s, line := s.WithAdded(testItem("p2", 50), 3)

	lines := s.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "p1", lines[0].ProductRef)
	assert.Equal(t, "p2", lines[1].ProductRef)
	assert.Equal(t, 3, line.Quantity)
	assert.NotEmpty(t, line.LineID)
}

func TestSnapshot_WithAdded_DoesNotMutateReceiver(t *testing.T) {
	before, _ := EmptySnapshot().WithAdded(testItem("p1", 10), 1)
	after, _ := before.WithAdded(testItem("p1", 10), 4)

	assert.Equal(t, 1, before.ItemCount())
	assert.Equal(t, 5, after.ItemCount())
}

func TestSnapshot_QuantityIncreasesByExactSum(t *testing.T) {
	s := EmptySnapshot()
	for _, q := range []int{1, 2, 3, 4} {
		s, _ = s.WithAdded(testItem("p1", 7), q)
	}
	line, ok := s.FindByProduct("p1")
	require.True(t, ok)
	assert.Equal(t, 10, line.Quantity)
	assert.True(t, decimal.NewFromInt(70).Equal(s.Total()))
}

func TestSnapshot_WithQuantity(t *testing.T) {
	s, line := EmptySnapshot().WithAdded(testItem("p1", 100), 1)

	t.Run("sets quantity", func(t *testing.T) {
		updated := s.WithQuantity(line.LineID, 5)
		got, ok := updated.FindByLine(line.LineID)
		require.True(t, ok)
		assert.Equal(t, 5, got.Quantity)
	})

	t.Run("zero removes line", func(t *testing.T) {
		assert.True(t, s.WithQuantity(line.LineID, 0).IsEmpty())
	})

	t.Run("negative removes line", func(t *testing.T) {
		assert.True(t, s.WithQuantity(line.LineID, -3).IsEmpty())
	})

	t.Run("unknown line is a no-op", func(t *testing.T) {
		assert.Equal(t, s.Lines(), s.WithQuantity("missing", 9).Lines())
	})
}

func TestSnapshot_WithoutLine(t *testing.T) {
	s, a := EmptySnapshot().WithAdded(testItem("p1", 100), 1)
	s, _ = s.WithAdded(testItem("p2", 100), 1)

	out := s.WithoutLine(a.LineID)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "p2", out.Lines()[0].ProductRef)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 2, s.WithoutLine("missing").Len())
}

func TestSnapshot_WithLine(t *testing.T) {
	s, line := EmptySnapshot().WithAdded(testItem("p1", 100), 1)
	line.Quantity = 8

	replaced := s.WithLine(line)
	require.Equal(t, 1, replaced.Len())
	assert.Equal(t, 8, replaced.ItemCount())

	other := NewLine(testItem("p2", 1), 2)
	appended := s.WithLine(other)
	assert.Equal(t, 2, appended.Len())
}

func TestNewSnapshot_DropsNonPositiveQuantities(t *testing.T) {
	s := NewSnapshot([]Line{
		NewLine(testItem("p1", 1), 1),
		NewLine(testItem("p2", 1), 0),
		NewLine(testItem("p3", 1), -1),
	})
	assert.Equal(t, 1, s.Len())
}

func TestNewSnapshot_FoldsRepeatedProducts(t *testing.T) {
	first := NewLine(testItem("p1", 5), 2)
	s := NewSnapshot([]Line{
		first,
		NewLine(testItem("p2", 1), 1),
		NewLine(testItem("p1", 5), 3),
	})

	require.Equal(t, 2, s.Len())
	line, ok := s.FindByProduct("p1")
	require.True(t, ok)
	assert.Equal(t, first.LineID, line.LineID)
	assert.Equal(t, 5, line.Quantity)
	assert.Equal(t, "p1", s.Lines()[0].ProductRef)

	next, added := s.WithAdded(testItem("p1", 5), 1)
	assert.Equal(t, 6, added.Quantity)
	assert.Equal(t, 2, next.Len())
}

func TestSnapshot_TotalsArePureFunctions(t *testing.T) {
	lines := []Line{
		NewLine(Item{ProductRef: "a", Name: "A", UnitPrice: decimal.RequireFromString("19.99")}, 2),
		NewLine(Item{ProductRef: "b", Name: "B", UnitPrice: decimal.RequireFromString("0.01")}, 3),
	}
	s := NewSnapshot(lines)

	assert.Equal(t, "40.01", s.Total().StringFixed(2))
	assert.Equal(t, 5, s.ItemCount())
	assert.True(t, s.Total().Equal(NewSnapshot(s.Lines()).Total()))
	assert.True(t, EmptySnapshot().Total().IsZero())
	assert.Equal(t, 0, EmptySnapshot().ItemCount())
}

func TestNewView(t *testing.T) {
	s, _ := EmptySnapshot().WithAdded(testItem("p1", 25), 4)
	v := NewView(s, RemoteAuthority("u1"))

	assert.Len(t, v.Lines, 1)
	assert.Equal(t, 4, v.ItemCount)
	assert.True(t, decimal.NewFromInt(100).Equal(v.Total))
	assert.True(t, v.Authority.IsRemote())
}
