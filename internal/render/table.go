package render

import (
	"fmt"
	"strings"

	"mss-report-engine/internal/domain/entity"
)

// 表格配色
const (
	tableHeaderFill = "FF1F3864"
	tableHeaderInk  = "FFFFFFFF"
	tableRowFillA   = "FFF5F7FB"
	tableRowFillB   = "FFFFFFFF"
	tableCellInk    = "FF333333"
)

// TablePayload 原生表格负载
type TablePayload struct {
	Headers []string
	Rows    [][]string
}

// AppendTable 以形状网格的方式把表格铺到幻灯片上：
// 表头行深色填充，数据行交替底色，数值单元格居中。
// GoPPT 不提供原生表格对象，形状网格是其示例中图表页的同款做法。
func AppendTable(slide *Slide, pos entity.Position, p TablePayload) {
	if len(p.Headers) == 0 {
		return
	}
	cols := len(p.Headers)
	rows := len(p.Rows) + 1
	colW := pos.W / float64(cols)
	rowH := pos.H / float64(rows)
	if rowH > 0.45 {
		rowH = 0.45
	}

	for c, header := range p.Headers {
		cellPos := entity.Position{
			X: pos.X + float64(c)*colW,
			Y: pos.Y,
			W: colW,
			H: rowH,
		}
		slide.AddTextShape(cellPos, tableHeaderFill, AlignCenter,
			&TextRun{Text: header, Size: 12, Bold: true, Color: tableHeaderInk})
	}

	for ri, row := range p.Rows {
		fill := tableRowFillA
		if ri%2 == 1 {
			fill = tableRowFillB
		}
		y := pos.Y + float64(ri+1)*rowH
		for c := 0; c < cols; c++ {
			text := ""
			if c < len(row) {
				text = row[c]
			}
			align := AlignLeft
			if isNumericCell(text) {
				align = AlignCenter
			}
			cellPos := entity.Position{
				X: pos.X + float64(c)*colW,
				Y: y,
				W: colW,
				H: rowH,
			}
			slide.AddTextShape(cellPos, fill, align,
				&TextRun{Text: text, Size: 11, Color: tableCellInk})
		}
	}
}

func isNumericCell(s string) bool {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return false
	}
	var f float64
	_, err := fmt.Sscanf(s, "%f", &f)
	return err == nil
}
