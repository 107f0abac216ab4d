package terrain

import (
	"image"
	"image/color"
	"math"
	"strings"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	LegendHeight      = 320
	legendMargin      = 30
	legendSwatch      = 24
	legendRowSpacing  = 55
	legendTitleScale  = 2
	legendLabelOffset = 10
)

var (
	legendBackground = color.NRGBA{R: 30, G: 30, B: 30, A: alpha(0.95)}
	legendBorder     = color.NRGBA{R: 255, G: 255, B: 255, A: alpha(0.3)}
	legendText       = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	legendFootnote   = color.NRGBA{R: 0x99, G: 0x99, B: 0x99, A: 255}
)

// LegendEntry is one labelled swatch.
type LegendEntry struct {
	Label string      `json:"label"`
	Color color.NRGBA `json:"-"`
	Hex   string      `json:"color"`
}

// Legend lists what a rendered map shows. It is derived from the same tables
// the classifiers use.
type Legend struct {
	Biomes      []LegendEntry `json:"biomes"`
	Settlements []LegendEntry `json:"settlements"`
	WideSwatch  bool          `json:"-"`
}

func BuildLegend(r Resolved) Legend {
	l := Legend{Biomes: make([]LegendEntry, 0, len(r.Palette)), Settlements: []LegendEntry{}}
	for _, b := range r.Palette {
		l.Biomes = append(l.Biomes, entry(biomeLabel(b.Name), opaque(b.Color)))
	}
	if !r.ShowSettlements {
		return l
	}
	if r.SettlementStyle == SettlementStyleSurface {
		l.WideSwatch = true
		for _, t := range SurfaceTiers() {
			c := t.Color
			c.A = alpha(float64(c.A)/255 + 0.2)
			l.Settlements = append(l.Settlements, entry(t.Label, c))
		}
		return l
	}
	for _, m := range MarkerTypes() {
		l.Settlements = append(l.Settlements, entry(m.Label, m.Fill))
	}
	return l
}

func entry(label string, c color.NRGBA) LegendEntry {
	return LegendEntry{Label: label, Color: c, Hex: hexOf(c)}
}

func hexOf(c color.NRGBA) string {
	const digits = "0123456789abcdef"
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint8{c.R, c.G, c.B} {
		b[1+2*i] = digits[v>>4]
		b[2+2*i] = digits[v&0x0f]
	}
	return string(b)
}

// biomeLabel turns "shallow_water" into "Shallow Water".
func biomeLabel(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// RenderLegend draws the legend image that accompanies an exported map.
// generatedAt is printed in the footer.
func RenderLegend(r Resolved, width int, generatedAt time.Time) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, max(width, 0), LegendHeight))
	if width <= 0 {
		return img
	}
	fillRect(img, img.Bounds(), legendBackground, draw.Src)

	legend := BuildLegend(r)

	drawTitle(img, "Terrain Biomes", legendMargin, 40)
	perRow := int(math.Ceil(float64(len(legend.Biomes)) / 2))
	spacing := (width - 2*legendMargin) / max(perRow, 1)
	for i, e := range legend.Biomes {
		x := legendMargin + (i%perRow)*spacing
		y := 70 + (i/perRow)*legendRowSpacing
		drawSwatch(img, x, y, legendSwatch, e)
	}

	if len(legend.Settlements) > 0 {
		drawTitle(img, "Settlement Density", legendMargin, 200)
		swatchWidth := legendSwatch
		if legend.WideSwatch {
			swatchWidth *= 2
		}
		spacing := (width - 2*legendMargin) / len(legend.Settlements)
		for i, e := range legend.Settlements {
			drawSwatch(img, legendMargin+i*spacing, 235, swatchWidth, e)
		}
	}

	drawText(img, "Generated on "+generatedAt.Format("2006-01-02"), width-320, 295, legendFootnote)
	return img
}

func drawSwatch(img *image.RGBA, x, y, w int, e LegendEntry) {
	r := image.Rect(x, y, x+w, y+legendSwatch)
	fillRect(img, r, e.Color, draw.Over)
	strokeRect(img, r, legendBorder)
	drawText(img, e.Label, x+w+legendLabelOffset, y+17, legendText)
}

func strokeRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), c, draw.Over)
	fillRect(img, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), c, draw.Over)
	fillRect(img, image.Rect(r.Min.X, r.Min.Y+1, r.Min.X+1, r.Max.Y-1), c, draw.Over)
	fillRect(img, image.Rect(r.Max.X-1, r.Min.Y+1, r.Max.X, r.Max.Y-1), c, draw.Over)
}

func drawText(img draw.Image, s string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// drawTitle renders s at twice the base font size with its baseline at y.
func drawTitle(img *image.RGBA, s string, x, y int) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, s).Ceil()
	h := face.Metrics().Height.Ceil()
	ascent := face.Metrics().Ascent.Ceil()

	text := image.NewRGBA(image.Rect(0, 0, w, h))
	drawText(text, s, 0, ascent, legendText)

	top := y - ascent*legendTitleScale
	dst := image.Rect(x, top, x+w*legendTitleScale, top+h*legendTitleScale)
	draw.NearestNeighbor.Scale(img, dst, text, text.Bounds(), draw.Over, nil)
}
