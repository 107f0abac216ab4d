package terrain

import (
	"image"
	"image/color"
	"math"

	"worldmap-server/internal/pointcloud"

	"golang.org/x/image/draw"
)

const (
	terrainBlurSigma = 2
	surfaceBlurSigma = 1
	shadowStrength   = 0.3
	highlightFloor   = 0.85
	markerAlpha      = 0.9
)

// RenderTerrain composites the biome raster for a width×height viewport:
// biome fill, hill shading and peak highlights, blurred, then the settlement
// surface when r asks for it and surface is non-empty.
func RenderTerrain(grid, surface *DensityGrid, r Resolved, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
	if grid.Empty() || width <= 0 || height <= 0 {
		return img
	}

	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			d := grid.At(row, col)
			rect := cellRect(grid, row, col)
			fillRect(img, rect, opaque(r.Palette.Classify(d).Color), draw.Src)

			if shadow := Shadow(grid, row, col); shadow > 0 {
				fillRect(img, rect, color.NRGBA{A: alpha(shadow * shadowStrength)}, draw.Over)
			}
			if d > highlightFloor {
				fillRect(img, rect, color.NRGBA{R: 255, G: 255, B: 255, A: alpha((d - highlightFloor) * 2)}, draw.Over)
			}
		}
	}
	img = GaussianBlur(img, terrainBlurSigma)

	if r.SurfaceOverlay() && !surface.Empty() {
		for row := 0; row < surface.Rows; row++ {
			for col := 0; col < surface.Cols; col++ {
				style, ok := tierStyle(r.SurfaceTier(surface.At(row, col)))
				if !ok {
					continue
				}
				c := style.Color
				c.A = alpha(r.SettlementOpacity * float64(c.A) / 255)
				fillRect(img, cellRect(surface, row, col), c, draw.Over)
			}
		}
		img = GaussianBlur(img, surfaceBlurSigma)
	}
	return img
}

// DrawSettlementMarkers stamps a circle for each settlement onto img.
func DrawSettlementMarkers(img *image.RGBA, settlements []Settlement) {
	for _, s := range settlements {
		style := markerStyle(s.Type)
		drawCircle(img, s.X, s.Y, style)
	}
}

func drawCircle(img *image.RGBA, cx, cy float64, style MarkerStyle) {
	outer := style.Radius + style.StrokeWidth/2
	inner := style.Radius - style.StrokeWidth/2
	fill := withAlpha(style.Fill, markerAlpha)
	stroke := withAlpha(style.Stroke, markerAlpha)

	bounds := image.Rect(
		int(math.Floor(cx-outer)), int(math.Floor(cy-outer)),
		int(math.Ceil(cx+outer))+1, int(math.Ceil(cy+outer))+1,
	).Intersect(img.Bounds())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			switch {
			case d <= inner:
				blendPixel(img, x, y, fill)
			case d <= outer:
				blendPixel(img, x, y, stroke)
			}
		}
	}
}

func blendPixel(img *image.RGBA, x, y int, c color.NRGBA) {
	fillRect(img, image.Rect(x, y, x+1, y+1), c, draw.Over)
}

// cellRect covers a cell plus one pixel so neighbouring cells leave no gaps.
func cellRect(grid *DensityGrid, row, col int) image.Rectangle {
	x := float64(col) * grid.CellSize
	y := float64(row) * grid.CellSize
	return image.Rect(
		int(math.Floor(x)), int(math.Floor(y)),
		int(math.Ceil(x+grid.CellSize+1)), int(math.Ceil(y+grid.CellSize+1)),
	)
}

func fillRect(img draw.Image, r image.Rectangle, c color.Color, op draw.Op) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, op)
}

func opaque(c pointcloud.RGB) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

func withAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = alpha(float64(c.A) / 255 * a)
	return c
}

func alpha(a float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, a)) * 255))
}
