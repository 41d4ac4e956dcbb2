package render

import (
	"bytes"
	"fmt"

	ppt "github.com/VantageDataChat/GoPPT"
)

const emuPerInch = 914400

func inches(v float64) int64 {
	return int64(v * emuPerInch)
}

func solidFill(argb string) *ppt.Fill {
	return ppt.NewFill().SetSolid(ppt.NewColor(argb))
}

func applyAlign(p *ppt.Paragraph, align Align) {
	switch align {
	case AlignCenter:
		p.SetAlignment(ppt.NewAlignment().SetHorizontal(ppt.HorizontalCenter))
	case AlignRight:
		p.SetAlignment(ppt.NewAlignment().SetHorizontal(ppt.HorizontalRight))
	}
}

// WriteDeck 把内存文稿模型序列化为 .pptx 字节
func WriteDeck(deck *Deck, creator string) ([]byte, error) {
	p := ppt.New()
	p.GetDocumentProperties().Title = deck.Title
	p.GetDocumentProperties().Creator = creator

	for i, slide := range deck.Slides {
		var target *ppt.Slide
		if i == 0 {
			target = p.GetActiveSlide()
		} else {
			target = p.CreateSlide()
		}
		writeSlide(target, slide)
	}

	w, err := ppt.NewWriter(p, ppt.WriterPowerPoint2007)
	if err != nil {
		return nil, fmt.Errorf("create pptx writer: %w", err)
	}
	var buf bytes.Buffer
	if err := w.(*ppt.PPTXWriter).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write pptx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSlide(target *ppt.Slide, slide *Slide) {
	for _, shape := range slide.Shapes {
		switch shape.Kind {
		case ShapePicture:
			img := target.CreateDrawingShape()
			img.SetImageData(shape.Image, shape.ImageMIME)
			img.SetOffsetX(inches(shape.Position.X)).SetOffsetY(inches(shape.Position.Y))
			img.SetWidth(inches(shape.Position.W)).SetHeight(inches(shape.Position.H))
		case ShapeTextBox:
			writeTextShape(target, shape)
		}
	}
}

func writeTextShape(target *ppt.Slide, shape *Shape) {
	box := target.CreateRichTextShape()
	box.SetOffsetX(inches(shape.Position.X)).SetOffsetY(inches(shape.Position.Y))
	box.SetWidth(inches(shape.Position.W)).SetHeight(inches(shape.Position.H))
	if shape.Fill != "" {
		box.SetFill(solidFill(shape.Fill))
	}

	for i, run := range shape.Runs {
		if i > 0 && run.NewParagraph {
			box.CreateParagraph()
		}
		tr := box.CreateTextRun(run.Text)
		font := tr.GetFont()
		if run.Size > 0 {
			font.SetSize(run.Size)
		}
		if run.Bold {
			font.SetBold(true)
		}
		if run.Color != "" {
			font.SetColor(ppt.NewColor(run.Color))
		}
		applyAlign(box.GetActiveParagraph(), shape.Align)
	}
}
