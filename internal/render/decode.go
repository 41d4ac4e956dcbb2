package render

import (
	"fmt"
)

// 结构化负载在 SlideSpec 中以 JSON 对象形态存储，
// 重新加载后是 map[string]any / []any。这里做形状还原，
// 任何字段缺失或类型不符都返回错误，由调用方降级处理。

func decodeBarPayload(v any) (BarPayload, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return BarPayload{}, fmt.Errorf("bar payload: expected object, got %T", v)
	}
	categories, err := stringSlice(m["categories"])
	if err != nil {
		return BarPayload{}, fmt.Errorf("bar payload categories: %w", err)
	}
	rawSeries, ok := m["series"].([]any)
	if !ok {
		return BarPayload{}, fmt.Errorf("bar payload: series missing or not a list")
	}
	p := BarPayload{Categories: categories}
	for i, rs := range rawSeries {
		sm, ok := rs.(map[string]any)
		if !ok {
			return BarPayload{}, fmt.Errorf("bar payload series[%d]: expected object, got %T", i, rs)
		}
		name, _ := sm["name"].(string)
		values, err := floatSlice(sm["values"])
		if err != nil {
			return BarPayload{}, fmt.Errorf("bar payload series[%d] values: %w", i, err)
		}
		p.Series = append(p.Series, BarSeries{Name: name, Values: values})
	}
	return p, nil
}

func decodePiePayload(v any) (PiePayload, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return PiePayload{}, fmt.Errorf("pie payload: expected object, got %T", v)
	}
	categories, err := stringSlice(m["categories"])
	if err != nil {
		return PiePayload{}, fmt.Errorf("pie payload categories: %w", err)
	}
	values, err := floatSlice(m["values"])
	if err != nil {
		return PiePayload{}, fmt.Errorf("pie payload values: %w", err)
	}
	if len(categories) != len(values) {
		return PiePayload{}, fmt.Errorf("pie payload: %d categories but %d values", len(categories), len(values))
	}
	return PiePayload{Categories: categories, Values: values}, nil
}

func decodeTablePayload(v any) (TablePayload, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return TablePayload{}, fmt.Errorf("table payload: expected object, got %T", v)
	}
	headers, err := stringSlice(m["headers"])
	if err != nil {
		return TablePayload{}, fmt.Errorf("table payload headers: %w", err)
	}
	rawRows, ok := m["rows"].([]any)
	if !ok {
		return TablePayload{}, fmt.Errorf("table payload: rows missing or not a list")
	}
	p := TablePayload{Headers: headers}
	for i, rr := range rawRows {
		row, err := stringSlice(rr)
		if err != nil {
			return TablePayload{}, fmt.Errorf("table payload rows[%d]: %w", i, err)
		}
		p.Rows = append(p.Rows, row)
	}
	return p, nil
}

func stringSlice(v any) ([]string, error) {
	switch items := v.(type) {
	case []string:
		return items, nil
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				s = fmt.Sprintf("%v", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list, got %T", v)
	}
}

func floatSlice(v any) ([]float64, error) {
	switch items := v.(type) {
	case []float64:
		return items, nil
	case []any:
		out := make([]float64, 0, len(items))
		for _, item := range items {
			switch n := item.(type) {
			case float64:
				out = append(out, n)
			case int:
				out = append(out, float64(n))
			case int64:
				out = append(out, float64(n))
			default:
				return nil, fmt.Errorf("expected number, got %T", item)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list, got %T", v)
	}
}
