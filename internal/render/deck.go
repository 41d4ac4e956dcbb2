// Package render 将已解析的 SlideSpec 渲染为 PPTX 文档。
// 文档先以内存对象模型表达（幻灯片 -> 形状 -> 文本运行），
// token 替换只改写已有文本运行，图表/表格以新增形状追加，
// 最终通过 GoPPT 序列化为 .pptx 字节。
package render

import (
	"mss-report-engine/internal/domain/entity"
)

// ShapeKind 形状类别
type ShapeKind int

const (
	ShapeTextBox ShapeKind = iota
	ShapePicture
)

// Align 段落水平对齐
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// TextRun 一段同样式的文本。token 替换以 run 为单位进行：
// 被拆分到两个 run 中的 token 不会被匹配（已知局限）。
type TextRun struct {
	Text string
	Size int
	Bold bool
	// Color ARGB，如 FF1E40AF；空值使用默认文字色
	Color string
	// NewParagraph 为 true 时此 run 另起一段
	NewParagraph bool
}

// Shape 幻灯片上的一个形状
type Shape struct {
	Kind     ShapeKind
	Position entity.Position
	// Fill 形状底色 ARGB，空值无填充
	Fill  string
	Align Align
	Runs  []*TextRun

	// Picture 类型字段
	Image     []byte
	ImageMIME string
}

// Slide 一页幻灯片
type Slide struct {
	No     int
	Key    string
	Title  string
	Shapes []*Shape
}

// Deck 整个演示文稿
type Deck struct {
	Title  string
	Slides []*Slide
}

// SlideByKey 按 slide_key 查找
func (d *Deck) SlideByKey(key string) (*Slide, bool) {
	for _, s := range d.Slides {
		if s.Key == key {
			return s, true
		}
	}
	return nil, false
}

// AddTextShape 追加文本形状
func (s *Slide) AddTextShape(pos entity.Position, fill string, align Align, runs ...*TextRun) *Shape {
	shape := &Shape{Kind: ShapeTextBox, Position: pos, Fill: fill, Align: align, Runs: runs}
	s.Shapes = append(s.Shapes, shape)
	return shape
}

// AddPicture 追加图片形状
func (s *Slide) AddPicture(pos entity.Position, image []byte, mime string) *Shape {
	shape := &Shape{Kind: ShapePicture, Position: pos, Image: image, ImageMIME: mime}
	s.Shapes = append(s.Shapes, shape)
	return shape
}
