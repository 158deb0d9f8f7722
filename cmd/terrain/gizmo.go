package main

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/1siamBot/hdr-terrain/engine/frame"
	"github.com/1siamBot/hdr-terrain/engine/pipeline"
	"github.com/1siamBot/hdr-terrain/engine/render3d"
	"github.com/1siamBot/hdr-terrain/engine/sun"
)

var (
	boundsColor = color.RGBA{80, 200, 255, 200}
	pathColor   = color.RGBA{255, 200, 60, 200}
	sunColor    = color.RGBA{255, 255, 255, 220}
)

// drawGizmo overlays the terrain footprint, the sun's orbit and the sun
func drawGizmo(screen *ebiten.Image, fc *frame.Context, ctrl *sun.Controller, sh pipeline.ShadingOptions) {
	cam := fc.Camera
	DrawWireMesh(screen, cam, render3d.MakeGroundSquare(sh.WorldScale, 0), boundsColor)
	DrawWireMesh(screen, cam, render3d.MakeArc(ctrl.PositionAt, 0, math.Pi, 64), pathColor)
	DrawWireMesh(screen, cam, render3d.MakeWireSphere(sh.SunProxyScale*1.5, 4, 12).Translate(fc.Sun.Position), sunColor)
}

// DrawWireMesh projects every segment and strokes the visible ones
func DrawWireMesh(screen *ebiten.Image, cam *render3d.Camera3D, m *render3d.WireMesh, clr color.Color) {
	for _, seg := range m.Segments {
		x0, y0, _, ok0 := cam.Project3DToScreen(seg[0])
		x1, y1, _, ok1 := cam.Project3DToScreen(seg[1])
		if !ok0 || !ok1 {
			continue
		}
		vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), 1, clr, true)
	}
}
