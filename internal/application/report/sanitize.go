package report

import (
	"regexp"
	"strings"
)

var (
	// 整个响应就是一个 fenced 代码块（语言标签可选）
	wholeFenceRe = regexp.MustCompile("(?s)\\A```[a-zA-Z]*\\s*\n?(.*?)\n?```\\s*\\z")
	// 响应中任意位置出现的第一个 fenced 代码块
	innerFenceRe = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\n?(.*?)\n?```")
)

// sanitizeJSONResponse 从模型输出中尽力截取 JSON 文本。
// 这是一个容错逻辑：模型可能会在 JSON 前后夹杂多余文本或代码块围栏。
// 回退链按固定顺序执行：
//  1. 整个响应被围栏包裹时，剥掉围栏；
//  2. 否则响应中任意位置出现围栏时，取第一个围栏内的内容；
//  3. 否则含有 { 与 } 时，取首个 { 到末个 } 的子串；
//  4. 否则原样返回。
//
// 已知局限：当 JSON 周围的说明文字本身含有花括号时可能误截取，
// 此时行为与截取到的子串一致，不做进一步消歧。
func sanitizeJSONResponse(s string) string {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return raw
	}

	if m := wholeFenceRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := innerFenceRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
