package report

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"mss-report-engine/internal/domain/entity"
	"mss-report-engine/pkg/logger"
)

var numberRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// Validator 交叉校验生成内容中的数值与源数据的偏差。
// 目标是量化 AI 叙述与真实数据之间的漂移，不阻断流水线：
// 所有不一致都以告警形式上报，从不作为失败。
type Validator struct {
	tolerance float64
}

// NewValidator 创建校验器。tolerance<=0 时使用默认绝对容差 0.01。
func NewValidator(tolerance float64) *Validator {
	if tolerance <= 0 {
		tolerance = 0.01
	}
	return &Validator{tolerance: tolerance}
}

// Validate 对模板中声明了 validation 路径的每个 token：
// 解析期望数值（点分路径或 computed.* 聚合），
// 从渲染值中抽取第一个数值子串，按绝对容差比较。
func (v *Validator) Validate(ctx context.Context, input entity.TenantInput, spec *entity.SlideSpec, tpl *entity.TemplateDescriptor) []string {
	var warnings []string
	for _, slideDef := range tpl.Slides {
		slide, ok := spec.SlideByKey(slideDef.SlideKey)
		if !ok {
			continue
		}
		for _, ph := range slideDef.Placeholders {
			if ph.Validation == "" {
				continue
			}
			expected, ok := asFloat(resolveValue(input, ph.Validation))
			if !ok {
				logger.Debug(ctx, "validation target not numeric in source data, skipping",
					"slide_key", slideDef.SlideKey, "token", ph.Token, "path", ph.Validation)
				continue
			}

			rendered := renderedText(slide.Placeholders[ph.Token])
			actual, found := firstNumber(rendered)
			if !found {
				warnings = append(warnings, fmt.Sprintf(
					"slide %s token %s: expected %s but no numeric value found in %q",
					slideDef.SlideKey, ph.Token, formatNumber(expected), rendered))
				continue
			}
			if math.Abs(actual-expected) > v.tolerance {
				warnings = append(warnings, fmt.Sprintf(
					"slide %s token %s: expected %s, got %s",
					slideDef.SlideKey, ph.Token, formatNumber(expected), formatNumber(actual)))
			}
		}
	}
	return warnings
}

// renderedText 取渲染后的文本：字符串数组先拼接再抽取数值
func renderedText(value any) string {
	switch s := value.(type) {
	case string:
		return s
	case []any:
		parts := make([]string, 0, len(s))
		for _, item := range s {
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, "\n")
	default:
		return stringify(value)
	}
}

// firstNumber 取文本中第一个数值子串，不论其嵌在生成的文字中还是独立出现
func firstNumber(s string) (float64, bool) {
	match := numberRe.FindString(s)
	if match == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
