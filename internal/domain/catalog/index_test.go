package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIndex_ReferenceKeyFallbacks(t *testing.T) {
	ix := BuildIndex([]map[string]any{
		{"product_code": "REF_001", "id": "1"},
		{"code": "REF_002", "id": "2"},
		{"reference": "REF_003", "id": "3"},
	})

	require.Equal(t, 3, ix.Len())
	for _, ref := range []string{"REF_001", "REF_002", "REF_003"} {
		_, ok := ix.Get(ref)
		assert.True(t, ok, ref)
	}
}

func TestBuildIndex_IDKeyFallbacksAndStringification(t *testing.T) {
	ix := BuildIndex([]map[string]any{
		{"product_code": "REF_001", "id": json.Number("42")},
		{"product_code": "REF_002", "product_id": "abc-7"},
	})

	e, ok := ix.Get("REF_001")
	require.True(t, ok)
	assert.Equal(t, "42", e.ID)

	e, ok = ix.Get("REF_002")
	require.True(t, ok)
	assert.Equal(t, "abc-7", e.ID)
}

func TestBuildIndex_StockKeyFallbacks(t *testing.T) {
	ix := BuildIndex([]map[string]any{
		{"product_code": "A", "id": "1", "stock": json.Number("50")},
		{"product_code": "B", "id": "2", "quantity": json.Number("7")},
		{"product_code": "C", "id": "3", "stock_quantity": json.Number("9")},
		{"product_code": "D", "id": "4", "stock_level": json.Number("2")},
		{"product_code": "E", "id": "5"},
	})

	for ref, want := range map[string]int64{"A": 50, "B": 7, "C": 9, "D": 2} {
		e, ok := ix.Get(ref)
		require.True(t, ok, ref)
		require.True(t, e.Stock.Valid, ref)
		assert.Equal(t, want, e.Stock.Decimal.IntPart(), ref)
	}

	e, ok := ix.Get("E")
	require.True(t, ok)
	assert.False(t, e.Stock.Valid, "missing stock stays absent")
}

func TestBuildIndex_ZeroStockIsARealValue(t *testing.T) {
	ix := BuildIndex([]map[string]any{
		{"product_code": "REF_001", "id": "1", "stock": json.Number("0")},
	})

	e, ok := ix.Get("REF_001")
	require.True(t, ok)
	require.True(t, e.Stock.Valid, "an out-of-stock product still has a known stock")
	assert.True(t, e.Stock.Decimal.IsZero())
}

func TestBuildIndex_SkipsUnusableProducts(t *testing.T) {
	ix := BuildIndex([]map[string]any{
		{"product_code": "REF_001"},
		{"id": "9"},
		{"product_code": "", "id": "10"},
		{"product_code": "REF_002", "id": "2"},
	})

	assert.Equal(t, 1, ix.Len())
	_, ok := ix.Get("REF_002")
	assert.True(t, ok)
}

func TestBuildIndex_DuplicateReferenceKeepsLast(t *testing.T) {
	ix := BuildIndex([]map[string]any{
		{"product_code": "REF_001", "id": "old"},
		{"product_code": "REF_001", "id": "new"},
	})

	e, ok := ix.Get("REF_001")
	require.True(t, ok)
	assert.Equal(t, "new", e.ID)
}

func TestIndex_GetTrimsReference(t *testing.T) {
	ix := BuildIndex([]map[string]any{
		{"product_code": " REF_001 ", "id": "1"},
	})

	_, ok := ix.Get("  REF_001  ")
	assert.True(t, ok)
}

func TestIndex_ReferencesSorted(t *testing.T) {
	ix := BuildIndex([]map[string]any{
		{"product_code": "Z_9", "id": "1"},
		{"product_code": "A_1", "id": "2"},
		{"product_code": "M_5", "id": "3"},
	})

	assert.Equal(t, []string{"A_1", "M_5", "Z_9"}, ix.References())
}

func TestIndex_Suggest(t *testing.T) {
	ix := BuildIndex([]map[string]any{
		{"product_code": "REF_001", "id": "1"},
		{"product_code": "REF_002", "id": "2"},
		{"product_code": "TOTALLY_DIFFERENT", "id": "3"},
	})

	t.Run("near miss", func(t *testing.T) {
		got := ix.Suggest("REF_O01", 5)
		require.NotEmpty(t, got)
		assert.Equal(t, "REF_001", got[0])
		assert.NotContains(t, got, "TOTALLY_DIFFERENT")
	})

	t.Run("exact match returns itself", func(t *testing.T) {
		assert.Equal(t, []string{"REF_002"}, ix.Suggest("REF_002", 5))
	})

	t.Run("limit respected", func(t *testing.T) {
		got := ix.Suggest("REF_009", 1)
		assert.Len(t, got, 1)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, ix.Suggest("", 5))
	})
}
