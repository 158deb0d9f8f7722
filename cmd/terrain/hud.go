package main

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/1siamBot/hdr-terrain/engine/frame"
	"github.com/1siamBot/hdr-terrain/engine/render3d"
	"github.com/1siamBot/hdr-terrain/engine/sun"
)

var (
	panelColor = color.RGBA{0, 0, 0, 150}
	frameColor = color.RGBA{255, 255, 255, 160}
)

func (g *Game) drawHUD(screen *ebiten.Image) {
	cam := g.fc.Camera
	s := g.fc.Sun
	info := fmt.Sprintf(
		"HDR Terrain | FPS: %.0f | Backend: %s\n"+
			"Camera: (%.2f, %.2f, %.2f) yaw %.1f pitch %.1f\n"+
			"Sun: %s angle %.1f exposure %.3f\n"+
			"Bloom iterations: %d\n"+
			"[WASD] Move [Shift] Fast [Mouse] Look [Tab] Cursor\n"+
			"[+/-] Bloom [P] Sun [F1] Targets [F2] Gizmo [C] Copy [Esc] Quit",
		ebiten.ActualFPS(), g.backend.name(),
		cam.Pos.X, cam.Pos.Y, cam.Pos.Z, cam.Yaw, cam.Pitch,
		s.Phase, s.Angle, s.Exposure,
		g.pipe.BloomIterations(),
	)
	vector.DrawFilledRect(screen, 0, 0, 420, 100, panelColor, false)
	ebitenutil.DebugPrintAt(screen, info, 4, 2)

	if g.status != "" && g.fc.Time < g.statusUntil {
		h := screen.Bounds().Dy()
		vector.DrawFilledRect(screen, 0, float32(h-20), 420, 20, panelColor, false)
		ebitenutil.DebugPrintAt(screen, g.status, 4, h-18)
	}
}

// drawDebugView lays the intermediate targets out along the bottom edge
func (g *Game) drawDebugView(screen *ebiten.Image) {
	targets := g.pipe.Intermediates()
	if len(targets) == 0 {
		return
	}
	b := screen.Bounds()
	const pad = 6
	w := (b.Dx() - pad*(len(targets)+1)) / len(targets)
	h := w * b.Dy() / max(1, b.Dx())
	y := b.Dy() - h - pad - 24
	for i, nt := range targets {
		x := pad + i*(w+pad)
		r := image.Rect(x, y, x+w, y+h)
		if img := g.backend.image(nt.Texture); img != nil {
			drawFitted(screen, img, r)
		}
		vector.StrokeRect(screen, float32(r.Min.X), float32(r.Min.Y), float32(w), float32(h), 1, frameColor, false)
		ebitenutil.DebugPrintAt(screen, nt.Resource.String(), x, y+h+2)
	}
}

// snapshot is what the copy key puts on the clipboard
type snapshot struct {
	Camera render3d.CameraPose `json:"camera"`
	Sun    sun.State           `json:"sun"`
	Time   float64             `json:"time"`
}

func copySnapshot(fc *frame.Context) error {
	data, err := json.MarshalIndent(snapshot{Camera: fc.Camera.Pose(), Sun: fc.Sun, Time: fc.Time}, "", "  ")
	if err != nil {
		return err
	}
	return clipboard.WriteAll(string(data))
}
