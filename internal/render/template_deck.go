package render

import (
	"mss-report-engine/internal/domain/entity"
)

// 版式常量（单位：英寸），对应 16:9 页面 13.33 x 7.5
const (
	slideWidthIn  = 13.33
	slideHeightIn = 7.5

	titleX = 0.5
	titleY = 0.3
	titleW = 12.3
	titleH = 0.8

	bodyX = 0.6
	bodyW = 12.1
	bodyH = 1.2
)

// 主题色（ARGB）
const (
	colorTitle     = "FF1F3864"
	colorBody      = "FF333333"
	colorTitleBar  = "FFEDF2FA"
	colorCoverFill = "FF1F3864"
	colorCoverText = "FFFFFFFF"
)

// tokenMarker 占位符在模板页中的标记文本
func tokenMarker(token string) string {
	return "{{" + token + "}}"
}

// BuildTemplateDeck 根据模板描述符合成母版文稿。
// 每页一个标题形状，随后为每个文本类占位符放置一个带
// {{TOKEN}} 标记运行的文本框；图表与表格占位符不产生标记，
// 渲染阶段按各自 config 中的位置直接追加形状。
func BuildTemplateDeck(tpl *entity.TemplateDescriptor) *Deck {
	deck := &Deck{Title: tpl.Name}
	for i := range tpl.Slides {
		sd := &tpl.Slides[i]
		slide := &Slide{No: sd.SlideNo, Key: sd.SlideKey, Title: sd.Title}
		if sd.SlideNo == 1 {
			buildCoverSlide(slide, sd)
		} else {
			buildContentSlide(slide, sd)
		}
		deck.Slides = append(deck.Slides, slide)
	}
	return deck
}

func buildCoverSlide(slide *Slide, sd *entity.SlideDefinition) {
	slide.AddTextShape(
		entity.Position{X: 0, Y: 0, W: slideWidthIn, H: slideHeightIn},
		colorCoverFill, AlignLeft,
	)
	slide.AddTextShape(
		entity.Position{X: 1.0, Y: 2.6, W: 11.3, H: 1.2},
		"", AlignCenter,
		&TextRun{Text: sd.Title, Size: 40, Bold: true, Color: colorCoverText},
	)
	y := 4.2
	for _, ph := range sd.Placeholders {
		if ph.Type.IsStructured() {
			continue
		}
		pos := ph.Position
		if pos == nil {
			pos = &entity.Position{X: 1.0, Y: y, W: 11.3, H: 0.6}
			y += 0.7
		}
		slide.AddTextShape(*pos, "", AlignCenter,
			&TextRun{Text: tokenMarker(ph.Token), Size: 18, Color: colorCoverText})
	}
}

func buildContentSlide(slide *Slide, sd *entity.SlideDefinition) {
	slide.AddTextShape(
		entity.Position{X: titleX, Y: titleY, W: titleW, H: titleH},
		colorTitleBar, AlignLeft,
		&TextRun{Text: sd.Title, Size: 26, Bold: true, Color: colorTitle},
	)
	y := titleY + titleH + 0.3
	for _, ph := range sd.Placeholders {
		if ph.Type.IsStructured() {
			continue
		}
		pos := ph.Position
		if pos == nil {
			pos = &entity.Position{X: bodyX, Y: y, W: bodyW, H: bodyH}
			y += bodyH + 0.2
		}
		size := 14
		bold := false
		switch ph.Type {
		case entity.PlaceholderKPI, entity.PlaceholderKPIGroup:
			size = 22
			bold = true
		case entity.PlaceholderText:
			size = 16
		}
		slide.AddTextShape(*pos, "", AlignLeft,
			&TextRun{Text: tokenMarker(ph.Token), Size: size, Bold: bold, Color: colorBody})
	}
}
