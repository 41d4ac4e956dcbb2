package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mss-report-engine/internal/domain/entity"
)

func TestExtractScalar(t *testing.T) {
	e := NewExtractor(10)
	input := entity.TenantInput{
		"tenant": map[string]any{"name": "Acme 制造集团"},
		"alerts": map[string]any{
			"total":               float64(1284),
			"false_positive_rate": 0.42,
		},
		"report_meta": map[string]any{"secrecy_default": "internal"},
	}

	tests := []struct {
		name string
		ph   entity.PlaceholderDefinition
		want string
	}{
		{
			"直接取值",
			entity.PlaceholderDefinition{Token: "T", Type: entity.PlaceholderText, Source: "tenant.name"},
			"Acme 制造集团",
		},
		{
			"缺失走 default",
			entity.PlaceholderDefinition{Token: "T", Type: entity.PlaceholderText, Source: "tenant.missing", Default: "（未提供）"},
			"（未提供）",
		},
		{
			"percent 变换四舍五入",
			entity.PlaceholderDefinition{Token: "T", Type: entity.PlaceholderText, Source: "alerts.false_positive_rate", Transform: entity.TransformPercent},
			"42%",
		},
		{
			"uppercase 变换",
			entity.PlaceholderDefinition{Token: "T", Type: entity.PlaceholderText, Source: "report_meta.secrecy_default", Transform: entity.TransformUppercase},
			"INTERNAL",
		},
		{
			"format 字段模板",
			entity.PlaceholderDefinition{Token: "T", Type: entity.PlaceholderKPI, Source: "alerts.total", Format: "共 {value} 起"},
			"共 1284 起",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.extractScalar(input, tt.ph))
		})
	}
}

func TestExtractListFormat(t *testing.T) {
	e := NewExtractor(10)
	input := entity.TenantInput{
		"alerts": map[string]any{
			"top_categories": []any{
				map[string]any{"category": "暴力破解", "count": float64(312), "mom_change_pct": float64(18)},
				map[string]any{"category": "恶意软件", "count": float64(187), "mom_change_pct": float64(-6)},
			},
		},
	}
	ph := entity.PlaceholderDefinition{
		Token:  "TOP_CATEGORIES",
		Type:   entity.PlaceholderBulletList,
		Source: "alerts.top_categories",
		Format: "{category}: {count} 起（环比 {mom_change_pct}%）",
	}

	got := e.extractScalar(input, ph)
	assert.Equal(t, "• 暴力破解: 312 起（环比 18%）\n• 恶意软件: 187 起（环比 -6%）", got)
}

func TestExtractBarChartFromRecords(t *testing.T) {
	e := NewExtractor(10)
	input := entity.TenantInput{
		"alerts": map[string]any{
			"top_categories": []any{
				map[string]any{"category": "暴力破解", "count": float64(312)},
				map[string]any{"category": "Web 攻击", "count": float64(121)},
			},
		},
	}
	ph := entity.PlaceholderDefinition{
		Token: "TOP_CATEGORY_BAR",
		Type:  entity.PlaceholderBarChart,
		ChartConfig: &entity.ChartConfig{
			DataSource: "alerts.top_categories",
			XField:     "category",
			YField:     "count",
		},
	}

	payload := e.extractBarChart(context.Background(), input, "alerts_overview", ph)
	assert.Equal(t, []any{"暴力破解", "Web 攻击"}, payload["categories"])
	series, ok := payload["series"].([]any)
	require.True(t, ok)
	require.Len(t, series, 1)
	first := series[0].(map[string]any)
	assert.Equal(t, "count", first["name"])
	assert.Equal(t, []any{float64(312), float64(121)}, first["values"])
}

func TestExtractBarChartShapeMismatch(t *testing.T) {
	e := NewExtractor(10)
	input := entity.TenantInput{"alerts": map[string]any{"trend": "not a list"}}
	ph := entity.PlaceholderDefinition{
		Token:       "BAR",
		Type:        entity.PlaceholderBarChart,
		ChartConfig: &entity.ChartConfig{DataSource: "alerts.trend", XField: "x", YField: "y"},
	}

	payload := e.extractBarChart(context.Background(), input, "s", ph)
	assert.Empty(t, payload["categories"])
	assert.Empty(t, payload["series"])
}

func TestExtractPieChartSeverityOrder(t *testing.T) {
	e := NewExtractor(10)
	input := entity.TenantInput{
		"alerts": map[string]any{
			"by_severity": map[string]any{
				"medium": float64(473),
				"high":   float64(52),
			},
		},
	}
	ph := entity.PlaceholderDefinition{
		Token:       "SEVERITY_PIE",
		Type:        entity.PlaceholderPieChart,
		ChartConfig: &entity.ChartConfig{DataSource: "alerts.by_severity"},
	}

	payload := e.extractPieChart(context.Background(), input, "alerts_overview", ph)
	// 已知严重级别按严重程度排序并映射中文展示名
	assert.Equal(t, []any{"高危", "中危"}, payload["categories"])
	assert.Equal(t, []any{float64(52), float64(473)}, payload["values"])
}

func TestExtractPieChartUnknownKeysSorted(t *testing.T) {
	e := NewExtractor(10)
	input := entity.TenantInput{
		"stats": map[string]any{
			"by_kind": map[string]any{
				"zeta":  float64(1),
				"alpha": float64(2),
				"high":  float64(3),
			},
		},
	}
	ph := entity.PlaceholderDefinition{
		Token:       "PIE",
		Type:        entity.PlaceholderPieChart,
		ChartConfig: &entity.ChartConfig{DataSource: "stats.by_kind"},
	}

	payload := e.extractPieChart(context.Background(), input, "s", ph)
	// 已知级别排前，未知键按字典序排后
	assert.Equal(t, []any{"高危", "alpha", "zeta"}, payload["categories"])
	assert.Equal(t, []any{float64(3), float64(2), float64(1)}, payload["values"])
}

func TestExtractTableTruncation(t *testing.T) {
	e := NewExtractor(10)
	items := make([]any, 0, 8)
	for i := 0; i < 8; i++ {
		items = append(items, map[string]any{"severity": "high", "title": "事件", "mttr_minutes": float64(90 + i)})
	}
	input := entity.TenantInput{"incidents": items}
	ph := entity.PlaceholderDefinition{
		Token: "INCIDENT_TABLE",
		Type:  entity.PlaceholderNativeTable,
		TableConfig: &entity.TableConfig{
			DataSource: "incidents",
			MaxRows:    5,
			Columns: []entity.TableColumn{
				{Header: "级别", Field: "severity"},
				{Header: "事件", Field: "title"},
				{Header: "MTTR(分)", Field: "mttr_minutes"},
			},
		},
	}

	payload := e.extractTable(context.Background(), input, "major_incidents", ph)
	assert.Equal(t, []any{"级别", "事件", "MTTR(分)"}, payload["headers"])
	rows, ok := payload["rows"].([]any)
	require.True(t, ok)
	assert.Len(t, rows, 5)
	assert.Equal(t, []any{"high", "事件", "90"}, rows[0])
}

func TestExtractFullTemplate(t *testing.T) {
	e := NewExtractor(10)
	input := entity.TenantInput{
		"tenant": map[string]any{"name": "Acme"},
		"alerts": map[string]any{"total": float64(1284)},
	}
	tpl := &entity.TemplateDescriptor{
		TemplateID: "t1",
		Audience:   entity.AudienceManagement,
		Slides: []entity.SlideDefinition{
			{
				SlideNo:  1,
				SlideKey: "cover",
				Placeholders: []entity.PlaceholderDefinition{
					{Token: "CUSTOMER_NAME", Type: entity.PlaceholderText, Source: "tenant.name"},
					{Token: "SUMMARY", Type: entity.PlaceholderParagraph, AIGenerate: true, AIInstruction: "总结"},
				},
			},
		},
	}

	out := e.Extract(context.Background(), input, tpl)
	require.Contains(t, out, "cover")
	assert.Equal(t, "Acme", out["cover"]["CUSTOMER_NAME"])
	// AI 占位符不属于抽取范围
	assert.NotContains(t, out["cover"], "SUMMARY")
}
