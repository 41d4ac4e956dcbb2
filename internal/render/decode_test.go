package render

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTrip 模拟 SlideSpec 落盘再加载后的负载形态
func roundTrip(t *testing.T, v any) any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestDecodeBarPayload(t *testing.T) {
	raw := roundTrip(t, map[string]any{
		"categories": []string{"暴力破解", "恶意软件"},
		"series": []map[string]any{
			{"name": "count", "values": []float64{312, 187}},
		},
	})

	p, err := decodeBarPayload(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"暴力破解", "恶意软件"}, p.Categories)
	require.Len(t, p.Series, 1)
	assert.Equal(t, "count", p.Series[0].Name)
	assert.Equal(t, []float64{312, 187}, p.Series[0].Values)
}

func TestDecodeBarPayloadErrors(t *testing.T) {
	_, err := decodeBarPayload("not an object")
	assert.Error(t, err)

	_, err = decodeBarPayload(map[string]any{"categories": []any{"a"}})
	assert.Error(t, err)

	_, err = decodeBarPayload(map[string]any{
		"categories": []any{"a"},
		"series":     []any{map[string]any{"name": "s", "values": []any{"oops"}}},
	})
	assert.Error(t, err)
}

func TestDecodePiePayload(t *testing.T) {
	raw := roundTrip(t, map[string]any{
		"categories": []string{"高危", "中危"},
		"values":     []float64{52, 473},
	})

	p, err := decodePiePayload(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"高危", "中危"}, p.Categories)
	assert.Equal(t, []float64{52, 473}, p.Values)
}

func TestDecodePiePayloadLengthMismatch(t *testing.T) {
	_, err := decodePiePayload(map[string]any{
		"categories": []any{"高危", "中危"},
		"values":     []any{float64(52)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "categories but")
}

func TestDecodeTablePayload(t *testing.T) {
	raw := roundTrip(t, map[string]any{
		"headers": []string{"级别", "事件"},
		"rows":    [][]string{{"high", "勒索前兆"}, {"low", "违规外联"}},
	})

	p, err := decodeTablePayload(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"级别", "事件"}, p.Headers)
	require.Len(t, p.Rows, 2)
	assert.Equal(t, []string{"high", "勒索前兆"}, p.Rows[0])
}

func TestDecodeTablePayloadErrors(t *testing.T) {
	_, err := decodeTablePayload([]any{"not", "object"})
	assert.Error(t, err)

	_, err = decodeTablePayload(map[string]any{"headers": []any{"h"}, "rows": "oops"})
	assert.Error(t, err)
}
