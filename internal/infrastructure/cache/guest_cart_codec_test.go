package cache

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/cart"
)

func TestDecodeGuestCart(t *testing.T) {
	t.Run("reads browser layout", func(t *testing.T) {
		data := []byte(`[
			{"lineId":"l1","productId":"p1","name":"Fly Box","image":"/img/box.png","price":14.5,"qty":2},
			{"lineId":"l2","productId":"p2","name":"Leader","image":"","price":"3.20","qty":1}
		]`)

		s, backfilled, err := decodeGuestCart(data)
		require.NoError(t, err)
		assert.False(t, backfilled)
		require.Equal(t, 2, s.Len())

		first := s.Lines()[0]
		assert.Equal(t, "l1", first.LineID)
		assert.Equal(t, "p1", first.ProductRef)
		assert.Equal(t, "/img/box.png", first.ImageURL)
		assert.True(t, first.UnitPrice.Equal(decimal.RequireFromString("14.5")))
		assert.True(t, s.Total().Equal(decimal.RequireFromString("32.2")))
	})

	t.Run("backfills missing line ids and clamps quantity", func(t *testing.T) {
		s, backfilled, err := decodeGuestCart([]byte(`[{"productId":"p1","name":"Hook","price":1,"qty":0}]`))
		require.NoError(t, err)
		assert.True(t, backfilled)
		require.Equal(t, 1, s.Len())
		assert.NotEmpty(t, s.Lines()[0].LineID)
		assert.Equal(t, 1, s.Lines()[0].Quantity)
	})

	t.Run("folds records repeating a product", func(t *testing.T) {
		s, backfilled, err := decodeGuestCart([]byte(`[
			{"lineId":"l1","productId":"p1","name":"Hook","price":1,"qty":2},
			{"lineId":"l2","productId":"p1","name":"Hook","price":1,"qty":3}
		]`))
		require.NoError(t, err)
		assert.True(t, backfilled)
		require.Equal(t, 1, s.Len())
		assert.Equal(t, "l1", s.Lines()[0].LineID)
		assert.Equal(t, 5, s.Lines()[0].Quantity)
	})

	t.Run("skips records without product or price", func(t *testing.T) {
		s, _, err := decodeGuestCart([]byte(`[
			{"lineId":"a","name":"orphan","price":1,"qty":1},
			{"lineId":"b","productId":"p","name":"free?","qty":1},
			{"lineId":"c","productId":"p3","name":"ok","price":2,"qty":1}
		]`))
		require.NoError(t, err)
		require.Equal(t, 1, s.Len())
		assert.Equal(t, "c", s.Lines()[0].LineID)
	})

	t.Run("malformed payload yields empty cart", func(t *testing.T) {
		for _, raw := range []string{`{`, `{"lineId":"x"}`, `"cart"`, `[{"price":"abc"}]`} {
			s, _, err := decodeGuestCart([]byte(raw))
			if err != nil {
				assert.ErrorIs(t, err, errMalformedGuestCart, raw)
			}
			assert.True(t, s.IsEmpty(), raw)
		}
	})
}

func TestEncodeGuestCart_PriceIsNumber(t *testing.T) {
	s := cart.NewSnapshot([]cart.Line{{
		LineID:     "l1",
		ProductRef: "p1",
		Name:       "Reel",
		UnitPrice:  decimal.RequireFromString("79.99"),
		Quantity:   1,
	}})

	data, err := encodeGuestCart(s)
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, 79.99, raw[0]["price"])
	assert.Equal(t, "p1", raw[0]["productId"])
	assert.EqualValues(t, 1, raw[0]["qty"])

	back, backfilled, err := decodeGuestCart(data)
	require.NoError(t, err)
	assert.False(t, backfilled)
	assert.Equal(t, s.Lines(), back.Lines())
}
