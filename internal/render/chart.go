package render

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"os"
	"strconv"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

// 图表画布分辨率。固定 2x 缩放使放入幻灯片后文字不发虚。
const (
	chartDPIScale   = 2.0
	chartBaseWidth  = 640
	chartBaseHeight = 400
)

// severityPalette 按严重度展示名取色，未命中时退回系列色
var severityPalette = map[string]color.RGBA{
	"严重": {0xC0, 0x28, 0x28, 0xFF},
	"高危": {0xE6, 0x5A, 0x2B, 0xFF},
	"中危": {0xF2, 0xB7, 0x05, 0xFF},
	"低危": {0x4C, 0xAF, 0x50, 0xFF},
	"信息": {0x90, 0xA4, 0xAE, 0xFF},
}

// seriesPalette 多系列/非严重度类目的固定轮换色
var seriesPalette = []color.RGBA{
	{0x1F, 0x77, 0xB4, 0xFF},
	{0xFF, 0x7F, 0x0E, 0xFF},
	{0x2C, 0xA0, 0x2C, 0xFF},
	{0xD6, 0x27, 0x28, 0xFF},
	{0x94, 0x67, 0xBD, 0xFF},
	{0x8C, 0x56, 0x4B, 0xFF},
}

var (
	chartBG       = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	chartAxis     = color.RGBA{0x55, 0x55, 0x55, 0xFF}
	chartGrid     = color.RGBA{0xE0, 0xE0, 0xE0, 0xFF}
	chartLabelInk = color.RGBA{0x33, 0x33, 0x33, 0xFF}
)

func categoryColor(name string, idx int) color.RGBA {
	if c, ok := severityPalette[name]; ok {
		return c
	}
	return seriesPalette[idx%len(seriesPalette)]
}

// ChartRenderer 将结构化图表负载画成 PNG。
// fontPath 指向 TTF 字体文件；未配置或加载失败时使用内置位图字体，
// 此时中文类目名无法显示，只保证数值标签可读。
type ChartRenderer struct {
	labelFace font.Face
	titleFace font.Face
}

// NewChartRenderer 创建图表渲染器。fontPath 为空时读 CHART_FONT 环境变量。
func NewChartRenderer(fontPath string) *ChartRenderer {
	r := &ChartRenderer{}
	if fontPath == "" {
		fontPath = os.Getenv("CHART_FONT")
	}
	if fontPath == "" {
		return r
	}
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return r
	}
	parsed, err := truetype.Parse(data)
	if err != nil {
		return r
	}
	r.labelFace = truetype.NewFace(parsed, &truetype.Options{Size: 13 * chartDPIScale})
	r.titleFace = truetype.NewFace(parsed, &truetype.Options{Size: 16 * chartDPIScale})
	return r
}

func (r *ChartRenderer) applyLabelFace(dc *gg.Context) {
	if r.labelFace != nil {
		dc.SetFontFace(r.labelFace)
	}
}

// BarPayload 柱状图负载（提取阶段产出，JSON 往返后为 map/slice 形态）
type BarPayload struct {
	Categories []string
	Series     []BarSeries
}

// BarSeries 单个数据系列
type BarSeries struct {
	Name   string
	Values []float64
}

// PiePayload 饼图负载
type PiePayload struct {
	Categories []string
	Values     []float64
}

// RenderBar 画柱状图 PNG。类目为空时画空坐标系而非报错。
func (r *ChartRenderer) RenderBar(p BarPayload) ([]byte, error) {
	w := int(chartBaseWidth * chartDPIScale)
	h := int(chartBaseHeight * chartDPIScale)
	dc := gg.NewContext(w, h)
	dc.SetColor(chartBG)
	dc.Clear()
	r.applyLabelFace(dc)

	marginL, marginR := 70.0*chartDPIScale, 30.0*chartDPIScale
	marginT, marginB := 30.0*chartDPIScale, 60.0*chartDPIScale
	plotW := float64(w) - marginL - marginR
	plotH := float64(h) - marginT - marginB

	maxVal := 0.0
	for _, s := range p.Series {
		for _, v := range s.Values {
			if v > maxVal {
				maxVal = v
			}
		}
	}
	if maxVal <= 0 {
		maxVal = 1
	}
	maxVal = niceCeil(maxVal)

	// 网格与纵轴刻度
	const gridLines = 5
	for i := 0; i <= gridLines; i++ {
		frac := float64(i) / gridLines
		y := marginT + plotH*(1-frac)
		dc.SetColor(chartGrid)
		dc.SetLineWidth(1 * chartDPIScale)
		dc.DrawLine(marginL, y, marginL+plotW, y)
		dc.Stroke()
		dc.SetColor(chartAxis)
		dc.DrawStringAnchored(formatTick(maxVal*frac), marginL-8*chartDPIScale, y, 1, 0.35)
	}

	nCat := len(p.Categories)
	nSer := len(p.Series)
	if nCat > 0 && nSer > 0 {
		groupW := plotW / float64(nCat)
		barW := groupW * 0.7 / float64(nSer)
		for ci, cat := range p.Categories {
			groupX := marginL + float64(ci)*groupW + groupW*0.15
			for si, s := range p.Series {
				if ci >= len(s.Values) {
					continue
				}
				v := s.Values[ci]
				barH := plotH * v / maxVal
				x := groupX + float64(si)*barW
				y := marginT + plotH - barH
				col := categoryColor(cat, si)
				if nSer > 1 {
					col = seriesPalette[si%len(seriesPalette)]
				}
				dc.SetColor(col)
				dc.DrawRectangle(x, y, barW, barH)
				dc.Fill()
				dc.SetColor(chartLabelInk)
				dc.DrawStringAnchored(formatTick(v), x+barW/2, y-6*chartDPIScale, 0.5, 0)
			}
			dc.SetColor(chartAxis)
			dc.DrawStringAnchored(cat, marginL+float64(ci)*groupW+groupW/2,
				marginT+plotH+20*chartDPIScale, 0.5, 0.5)
		}
	}

	// 坐标轴
	dc.SetColor(chartAxis)
	dc.SetLineWidth(2 * chartDPIScale)
	dc.DrawLine(marginL, marginT, marginL, marginT+plotH)
	dc.DrawLine(marginL, marginT+plotH, marginL+plotW, marginT+plotH)
	dc.Stroke()

	// 多系列图例
	if nSer > 1 {
		lx := marginL
		ly := 10 * chartDPIScale
		for si, s := range p.Series {
			dc.SetColor(seriesPalette[si%len(seriesPalette)])
			dc.DrawRectangle(lx, ly, 12*chartDPIScale, 12*chartDPIScale)
			dc.Fill()
			dc.SetColor(chartLabelInk)
			dc.DrawStringAnchored(s.Name, lx+16*chartDPIScale, ly+6*chartDPIScale, 0, 0.35)
			tw, _ := dc.MeasureString(s.Name)
			lx += 24*chartDPIScale + tw + 16*chartDPIScale
		}
	}

	return encodePNG(dc)
}

// RenderPie 画饼图 PNG，类目顺序即扇区绘制顺序（从 12 点钟方向顺时针）。
func (r *ChartRenderer) RenderPie(p PiePayload) ([]byte, error) {
	w := int(chartBaseWidth * chartDPIScale)
	h := int(chartBaseHeight * chartDPIScale)
	dc := gg.NewContext(w, h)
	dc.SetColor(chartBG)
	dc.Clear()
	r.applyLabelFace(dc)

	total := 0.0
	for _, v := range p.Values {
		if v > 0 {
			total += v
		}
	}
	cx := float64(w) * 0.38
	cy := float64(h) / 2
	radius := math.Min(float64(w)*0.3, float64(h)*0.38)

	if total <= 0 || len(p.Categories) == 0 {
		dc.SetColor(chartGrid)
		dc.DrawCircle(cx, cy, radius)
		dc.Fill()
		return encodePNG(dc)
	}

	start := -math.Pi / 2
	for i, cat := range p.Categories {
		if i >= len(p.Values) || p.Values[i] <= 0 {
			continue
		}
		frac := p.Values[i] / total
		end := start + frac*2*math.Pi
		dc.SetColor(categoryColor(cat, i))
		dc.MoveTo(cx, cy)
		dc.DrawArc(cx, cy, radius, start, end)
		dc.LineTo(cx, cy)
		dc.ClosePath()
		dc.Fill()

		// 扇区外侧的数值标签
		mid := (start + end) / 2
		lr := radius * 1.12
		dc.SetColor(chartLabelInk)
		dc.DrawStringAnchored(percentLabel(frac),
			cx+lr*math.Cos(mid), cy+lr*math.Sin(mid), 0.5, 0.5)
		start = end
	}

	// 图例：类目名 + 原始数值
	lx := float64(w) * 0.72
	ly := cy - float64(len(p.Categories))*14*chartDPIScale/2
	for i, cat := range p.Categories {
		dc.SetColor(categoryColor(cat, i))
		dc.DrawRectangle(lx, ly, 12*chartDPIScale, 12*chartDPIScale)
		dc.Fill()
		dc.SetColor(chartLabelInk)
		label := cat
		if i < len(p.Values) {
			label = fmt.Sprintf("%s  %s", cat, formatTick(p.Values[i]))
		}
		dc.DrawStringAnchored(label, lx+18*chartDPIScale, ly+6*chartDPIScale, 0, 0.35)
		ly += 22 * chartDPIScale
	}

	return encodePNG(dc)
}

func encodePNG(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode chart png: %w", err)
	}
	return buf.Bytes(), nil
}

// niceCeil 把最大值上取整到干净的刻度上限
func niceCeil(v float64) float64 {
	mag := math.Pow(10, math.Floor(math.Log10(v)))
	for _, m := range []float64{1, 2, 2.5, 5, 10} {
		if v <= m*mag {
			return m * mag
		}
	}
	return 10 * mag
}

func formatTick(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func percentLabel(frac float64) string {
	return strconv.FormatFloat(frac*100, 'f', 1, 64) + "%"
}
