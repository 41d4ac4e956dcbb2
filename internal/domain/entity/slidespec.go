package entity

import (
	"fmt"
	"sort"
)

// SlideContent 单页已解析内容：token -> 值。
// 文本类 token 的值是字符串；图表/表格类 token 的值是结构化负载
// （map 形式的 categories/values 或 headers/rows），不是自由文本。
type SlideContent struct {
	SlideNo      int            `json:"slide_no"`
	SlideKey     string         `json:"slide_key"`
	Placeholders map[string]any `json:"placeholders"`
}

// SlideSpec 一次生成任务的完整占位符映射，
// 生成与渲染之间的唯一序列化边界，持久化后可无损重建。
type SlideSpec struct {
	TemplateID string         `json:"template_id"`
	Slides     []SlideContent `json:"slides"`
}

// NewSlideSpec 按模板声明顺序创建空的 SlideSpec
func NewSlideSpec(tpl *TemplateDescriptor) *SlideSpec {
	spec := &SlideSpec{TemplateID: tpl.TemplateID}
	for _, slide := range tpl.Slides {
		spec.Slides = append(spec.Slides, SlideContent{
			SlideNo:      slide.SlideNo,
			SlideKey:     slide.SlideKey,
			Placeholders: make(map[string]any),
		})
	}
	return spec
}

// SlideByKey 按 slide_key 查找
func (s *SlideSpec) SlideByKey(key string) (*SlideContent, bool) {
	for i := range s.Slides {
		if s.Slides[i].SlideKey == key {
			return &s.Slides[i], true
		}
	}
	return nil, false
}

// MergeSlide 将新内容合并进指定幻灯片的占位符映射（原地修改）。
// 未知 slide_key 不做任何事。
func (s *SlideSpec) MergeSlide(slideKey string, values map[string]any) {
	slide, ok := s.SlideByKey(slideKey)
	if !ok {
		return
	}
	for token, v := range values {
		slide.Placeholders[token] = v
	}
}

// SortBySlideNo 保证幻灯片按 slide_no 升序，合并顺序确定
func (s *SlideSpec) SortBySlideNo() {
	sort.SliceStable(s.Slides, func(i, j int) bool {
		return s.Slides[i].SlideNo < s.Slides[j].SlideNo
	})
}

// EnsureComplete 校验模板声明的每个 (slide_key, token) 在 spec 中恰有一个值。
// SlideSpec 在持久化前必须完整。
func (s *SlideSpec) EnsureComplete(tpl *TemplateDescriptor) error {
	for _, slideDef := range tpl.Slides {
		slide, ok := s.SlideByKey(slideDef.SlideKey)
		if !ok {
			return fmt.Errorf("slidespec missing slide %s", slideDef.SlideKey)
		}
		for _, ph := range slideDef.Placeholders {
			if _, ok := slide.Placeholders[ph.Token]; !ok {
				return fmt.Errorf("slidespec slide %s missing token %s", slideDef.SlideKey, ph.Token)
			}
		}
	}
	return nil
}
