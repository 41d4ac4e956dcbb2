package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mss-report-engine/internal/domain/entity"
)

func markerDeck() *Deck {
	deck := &Deck{Title: "测试"}
	slide := &Slide{No: 1, Key: "summary"}
	slide.AddTextShape(entity.Position{X: 1, Y: 1, W: 5, H: 1}, "", AlignLeft,
		&TextRun{Text: "{{EXEC_SUMMARY}}", Size: 16, Color: "FF333333"})
	slide.AddTextShape(entity.Position{X: 1, Y: 3, W: 5, H: 2}, "", AlignLeft,
		&TextRun{Text: "{{KEY_RISKS}}", Size: 14})
	slide.AddTextShape(entity.Position{X: 1, Y: 6, W: 5, H: 1}, "", AlignLeft,
		&TextRun{Text: "固定文案", Size: 14})
	deck.Slides = append(deck.Slides, slide)
	return deck
}

func TestSubstituteTokens(t *testing.T) {
	deck := markerDeck()

	replaced := SubstituteTokens(deck, map[string]map[string]any{
		"summary": {
			"EXEC_SUMMARY": "本期态势平稳。",
			"KEY_RISKS":    []any{"VPN 暴露", "• 已带符号的条目"},
		},
	})

	assert.Contains(t, replaced, "EXEC_SUMMARY")
	assert.Contains(t, replaced, "KEY_RISKS")

	slide := deck.Slides[0]
	require.Len(t, slide.Shapes[0].Runs, 1)
	assert.Equal(t, "本期态势平稳。", slide.Shapes[0].Runs[0].Text)
	// 样式保留
	assert.Equal(t, 16, slide.Shapes[0].Runs[0].Size)
	assert.Equal(t, "FF333333", slide.Shapes[0].Runs[0].Color)

	// 列表逐项成段，首项不换段，后续项换段，已带符号的不重复加
	runs := slide.Shapes[1].Runs
	require.Len(t, runs, 2)
	assert.Equal(t, "• VPN 暴露", runs[0].Text)
	assert.False(t, runs[0].NewParagraph)
	assert.Equal(t, "• 已带符号的条目", runs[1].Text)
	assert.True(t, runs[1].NewParagraph)

	// 非标记文本不受影响
	assert.Equal(t, "固定文案", slide.Shapes[2].Runs[0].Text)
}

func TestSubstituteTokensUnknownTokenUntouched(t *testing.T) {
	deck := markerDeck()

	replaced := SubstituteTokens(deck, map[string]map[string]any{
		"summary": {"EXEC_SUMMARY": "内容"},
	})

	assert.NotContains(t, replaced, "KEY_RISKS")
	// 未提供值的标记原样保留，便于人工发现缺口
	assert.Equal(t, "{{KEY_RISKS}}", deck.Slides[0].Shapes[1].Runs[0].Text)
}

func TestSubstituteTokensEmptyList(t *testing.T) {
	deck := markerDeck()

	SubstituteTokens(deck, map[string]map[string]any{
		"summary": {"KEY_RISKS": []any{}},
	})

	runs := deck.Slides[0].Shapes[1].Runs
	require.Len(t, runs, 1)
	assert.Equal(t, "", runs[0].Text)
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"{{KPI_ALERTS_TOTAL}}", "KPI_ALERTS_TOTAL", true},
		{"  {{TOKEN}}  ", "TOKEN", true},
		{"前缀 {{TOKEN}}", "", false},
		{"{{}}", "", false},
		{"{{A{B}}", "", false},
		{"纯文本", "", false},
	}
	for _, tt := range tests {
		got, ok := extractToken(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
