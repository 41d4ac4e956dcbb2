package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTemplate() *TemplateDescriptor {
	return &TemplateDescriptor{
		TemplateID: "t1",
		Audience:   AudienceManagement,
		Slides: []SlideDefinition{
			{
				SlideNo:  1,
				SlideKey: "cover",
				Placeholders: []PlaceholderDefinition{
					{Token: "TITLE", Type: PlaceholderText, Source: "report_meta.report_title"},
				},
			},
			{
				SlideNo:  2,
				SlideKey: "overview",
				Placeholders: []PlaceholderDefinition{
					{Token: "SUMMARY", Type: PlaceholderParagraph, AIGenerate: true, AIInstruction: "总结"},
					{
						Token: "SEVERITY_PIE", Type: PlaceholderPieChart,
						ChartConfig: &ChartConfig{DataSource: "alerts.by_severity"},
					},
					{
						Token: "CATEGORY_BAR", Type: PlaceholderBarChart,
						ChartConfig: &ChartConfig{DataSource: "alerts.top_categories", XField: "category", YField: "count"},
					},
					{
						Token: "INCIDENT_TABLE", Type: PlaceholderNativeTable,
						TableConfig: &TableConfig{
							DataSource: "incidents",
							Columns:    []TableColumn{{Header: "级别", Field: "severity"}},
						},
					},
				},
			},
		},
	}
}

func TestTemplateValidateOK(t *testing.T) {
	assert.NoError(t, validTemplate().Validate())
}

func TestTemplateValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *TemplateDescriptor)
		wantMsg string
	}{
		{"缺少 template_id", func(d *TemplateDescriptor) { d.TemplateID = "" }, "template_id is required"},
		{"未知受众", func(d *TemplateDescriptor) { d.Audience = "board" }, "unknown audience"},
		{"无幻灯片", func(d *TemplateDescriptor) { d.Slides = nil }, "no slides"},
		{"slide_no 重复", func(d *TemplateDescriptor) { d.Slides[1].SlideNo = 1 }, "duplicate slide_no"},
		{"slide_key 重复", func(d *TemplateDescriptor) { d.Slides[1].SlideKey = "cover" }, "duplicate slide_key"},
		{"slide_no 非法", func(d *TemplateDescriptor) { d.Slides[0].SlideNo = 0 }, "invalid slide_no"},
		{
			"token 重复",
			func(d *TemplateDescriptor) { d.Slides[0].Placeholders[0].Token = "TITLE"; d.Slides[0].Placeholders = append(d.Slides[0].Placeholders, PlaceholderDefinition{Token: "TITLE", Type: PlaceholderText, Default: "x"}) },
			"duplicate token",
		},
		{
			"未知类型",
			func(d *TemplateDescriptor) { d.Slides[0].Placeholders[0].Type = "word_art" },
			"unknown type",
		},
		{
			"未知变换",
			func(d *TemplateDescriptor) { d.Slides[0].Placeholders[0].Transform = "reverse" },
			"unknown transform",
		},
		{
			"bar_chart 缺字段",
			func(d *TemplateDescriptor) { d.Slides[1].Placeholders[2].ChartConfig.YField = "" },
			"requires x_field and y_field",
		},
		{
			"图表缺 chart_config",
			func(d *TemplateDescriptor) { d.Slides[1].Placeholders[1] = PlaceholderDefinition{Token: "PIE2", Type: PlaceholderPieChart} },
			"requires chart_config",
		},
		{
			"表格缺列",
			func(d *TemplateDescriptor) { d.Slides[1].Placeholders[3].TableConfig.Columns = nil },
			"no columns",
		},
		{
			"表格列缺 field",
			func(d *TemplateDescriptor) { d.Slides[1].Placeholders[3].TableConfig.Columns[0].Field = "" },
			"missing field",
		},
		{
			"结构化类型不可 AI 生成",
			func(d *TemplateDescriptor) { d.Slides[1].Placeholders[1].ChartConfig = &ChartConfig{DataSource: "x"}; d.Slides[1].Placeholders[1].Type = PlaceholderPieChart; d.Slides[1].Placeholders[1].AIGenerate = true },
			"cannot be ai_generate",
		},
		{
			"既无 source 也无 default",
			func(d *TemplateDescriptor) { d.Slides[0].Placeholders[0].Source = "" },
			"neither source nor default",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validTemplate()
			tt.mutate(d)
			err := d.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestTemplateNormalize(t *testing.T) {
	d := &TemplateDescriptor{
		TemplateID: "t1",
		Audience:   AudienceTechnical,
		Slides: []SlideDefinition{
			{SlideNo: 3, SlideKey: "c"},
			{SlideNo: 1, SlideKey: "a"},
			{SlideNo: 2, SlideKey: "b"},
		},
	}
	d.Normalize()
	assert.Equal(t, []string{"a", "b", "c"},
		[]string{d.Slides[0].SlideKey, d.Slides[1].SlideKey, d.Slides[2].SlideKey})
}

func TestSlideHelpers(t *testing.T) {
	d := validTemplate()

	slide, ok := d.SlideByKey("overview")
	require.True(t, ok)
	assert.Equal(t, 2, slide.SlideNo)

	_, ok = d.SlideByKey("missing")
	assert.False(t, ok)

	ai := slide.AIPlaceholders()
	require.Len(t, ai, 1)
	assert.Equal(t, "SUMMARY", ai[0].Token)

	ph, ok := slide.PlaceholderByToken("SEVERITY_PIE")
	require.True(t, ok)
	assert.True(t, ph.Type.IsChart())
	assert.True(t, ph.Type.IsStructured())
}
