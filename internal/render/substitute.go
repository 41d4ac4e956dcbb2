package render

import (
	"fmt"
	"strings"
)

// SubstituteTokens 在整个文稿内做 {{TOKEN}} 替换。
// values 的 key 为不带花括号的 token 名；value 支持：
//   - string：原样替换
//   - []any：每项换行为一段，字符串项加 "• " 前缀
//   - 其他标量：fmt.Sprintf("%v")
//
// 只改写已有文本运行，不移动形状。返回实际替换的 token 集合，
// 调用方据此统计未命中标记（模板与 SlideSpec 不一致时的诊断信号）。
func SubstituteTokens(deck *Deck, values map[string]map[string]any) map[string]struct{} {
	replaced := make(map[string]struct{})
	for _, slide := range deck.Slides {
		slideValues := values[slide.Key]
		if len(slideValues) == 0 {
			continue
		}
		for _, shape := range slide.Shapes {
			substituteShape(shape, slideValues, replaced)
		}
	}
	return replaced
}

func substituteShape(shape *Shape, values map[string]any, replaced map[string]struct{}) {
	if shape.Kind != ShapeTextBox {
		return
	}
	var out []*TextRun
	for _, run := range shape.Runs {
		token, ok := extractToken(run.Text)
		if !ok {
			out = append(out, run)
			continue
		}
		v, ok := values[token]
		if !ok {
			out = append(out, run)
			continue
		}
		replaced[token] = struct{}{}
		out = append(out, expandRun(run, v)...)
	}
	shape.Runs = out
}

// extractToken 判断运行文本是否恰好是一个 {{TOKEN}} 标记
func extractToken(text string) (string, bool) {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "{{") || !strings.HasSuffix(t, "}}") {
		return "", false
	}
	inner := t[2 : len(t)-2]
	if inner == "" || strings.ContainsAny(inner, "{}") {
		return "", false
	}
	return inner, true
}

// expandRun 用占位符的值替换标记运行，保留原运行的样式。
// 列表值逐项生成独立段落。
func expandRun(marker *TextRun, v any) []*TextRun {
	switch val := v.(type) {
	case string:
		return []*TextRun{cloneRun(marker, val, marker.NewParagraph)}
	case []any:
		runs := make([]*TextRun, 0, len(val))
		for i, item := range val {
			text := bulletLine(item)
			runs = append(runs, cloneRun(marker, text, i > 0 || marker.NewParagraph))
		}
		if len(runs) == 0 {
			return []*TextRun{cloneRun(marker, "", marker.NewParagraph)}
		}
		return runs
	default:
		return []*TextRun{cloneRun(marker, fmt.Sprintf("%v", val), marker.NewParagraph)}
	}
}

func bulletLine(item any) string {
	s, ok := item.(string)
	if !ok {
		s = fmt.Sprintf("%v", item)
	}
	if strings.HasPrefix(s, "• ") || strings.HasPrefix(s, "- ") {
		return s
	}
	return "• " + s
}

func cloneRun(src *TextRun, text string, newParagraph bool) *TextRun {
	return &TextRun{
		Text:         text,
		Size:         src.Size,
		Bold:         src.Bold,
		Color:        src.Color,
		NewParagraph: newParagraph,
	}
}
