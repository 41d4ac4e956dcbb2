// Package report 实现内容解析流水线：
// 模板驱动的占位符解析、提示词构造、LLM 响应处理与兜底、数值交叉校验。
package report

import (
	"fmt"
	"strconv"
	"strings"

	"mss-report-engine/internal/domain/entity"
)

// computedPrefix 合成路径前缀，引用派生聚合值
const computedPrefix = "computed."

// resolvePath 按点分路径逐段取值：map 按键索引，slice 按整数下标索引，
// 末段 length 作用于 slice 时返回元素个数（伪字段，不是真实数据键）。
// 任何一步未命中立即返回 nil。
func resolvePath(data any, path string) any {
	if path == "" {
		return nil
	}
	current := data
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		switch node := current.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil
			}
			current = v
		case entity.TenantInput:
			v, ok := node[seg]
			if !ok {
				return nil
			}
			current = v
		case []any:
			if seg == "length" && i == len(segments)-1 {
				return len(node)
			}
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil
			}
			current = node[idx]
		default:
			return nil
		}
	}
	return current
}

// resolveValue 统一入口：computed.* 走派生聚合，其余走点分路径
func resolveValue(input entity.TenantInput, path string) any {
	if strings.HasPrefix(path, computedPrefix) {
		return computeAggregate(input, strings.TrimPrefix(path, computedPrefix))
	}
	return resolvePath(input, path)
}

// computeAggregate 派生聚合值，可像普通路径一样被 source/validation 引用
func computeAggregate(input entity.TenantInput, key string) any {
	switch key {
	case "incident_count":
		return len(input.GetSlice("incidents"))
	case "incident_high_count":
		return countIncidentsBySeverity(input, "high")
	case "incident_critical_count":
		return countIncidentsBySeverity(input, "critical")
	case "vulnerability_count":
		return len(input.GetSlice("vulnerabilities"))
	default:
		return nil
	}
}

func countIncidentsBySeverity(input entity.TenantInput, severity string) int {
	n := 0
	for _, item := range input.GetSlice("incidents") {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if s, _ := m["severity"].(string); s == severity {
			n++
		}
	}
	return n
}

// asFloat 尝试将任意 JSON 取值转为 float64
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// stringify 以确定方式将取值转为字符串，整数值浮点不带小数点
func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}
