// Command headless renders frames on the CPU device and writes PNG files.
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"

	"github.com/1siamBot/hdr-terrain/engine/config"
	"github.com/1siamBot/hdr-terrain/engine/frame"
	"github.com/1siamBot/hdr-terrain/engine/gfx"
	"github.com/1siamBot/hdr-terrain/engine/gfx/soft"
	"github.com/1siamBot/hdr-terrain/engine/pipeline"
	"github.com/1siamBot/hdr-terrain/engine/render3d"
	"github.com/1siamBot/hdr-terrain/engine/sun"
)

// job is one headless run
type job struct {
	cfg           *config.Config
	frames        int
	dt            float64
	out           string
	intermediates bool
	thumb         int
	workers       int
}

func main() {
	fs := flag.NewFlagSet("headless", flag.ExitOnError)
	j := job{}
	fs.IntVar(&j.frames, "frames", 1, "frames to simulate; the last one is written")
	fs.Float64Var(&j.dt, "dt", 1.0/60, "seconds per frame")
	fs.StringVar(&j.out, "out", "frame.png", "output PNG path")
	fs.BoolVar(&j.intermediates, "intermediates", false, "also write every intermediate target")
	fs.IntVar(&j.thumb, "thumb", 0, "downscale written images to at most this many pixels per side")
	fs.IntVar(&j.workers, "workers", 0, "shading goroutines (0 = GOMAXPROCS)")
	saveConfig := fs.String("save-config", "", "write the effective config as JSON and exit")

	cfg, err := config.Parse(fs, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if *saveConfig != "" {
		if err := cfg.Save(*saveConfig); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s\n", *saveConfig)
		return
	}
	j.cfg = cfg
	written, err := j.run(log.New(os.Stderr, "[pipeline] ", log.LstdFlags))
	if err != nil {
		log.Fatal(err)
	}
	for _, p := range written {
		fmt.Printf("wrote %s\n", p)
	}
}

// run renders the frames and returns the paths it wrote
func (j job) run(logger *log.Logger) ([]string, error) {
	height, normal, err := j.cfg.BuildTerrain()
	if err != nil {
		return nil, err
	}
	logger.Printf("terrain %dx%d digest %s", height.Width, height.Height, height.Digest())
	opts := j.cfg.PipelineOptions()
	dev := soft.New(opts.Width, opts.Height, logger)
	if j.workers > 0 {
		dev.SetWorkers(j.workers)
	}
	pipe := pipeline.New(dev, opts, pipeline.Inputs{Height: height, Normal: normal}, logger)

	ctrl := sun.NewController(j.cfg.Sun)
	fc := frame.New(j.cfg.NewCamera(opts.Width, opts.Height), ctrl.NewState(), opts.Width, opts.Height)
	fc.Light = fc.Sun.Light(ctrl.Config())
	for i := 0; i < max(1, j.frames); i++ {
		fc.Step(ctrl, j.dt)
	}
	pipe.RenderFrame(fc)

	var written []string
	if err := j.write(j.out, dev.Display().Image()); err != nil {
		return nil, err
	}
	written = append(written, j.out)

	if j.intermediates {
		exposure, gamma := fc.Sun.Exposure, opts.Shading.Gamma
		ext := filepath.Ext(j.out)
		base := j.out[:len(j.out)-len(ext)]
		for _, nt := range pipe.Intermediates() {
			px, err := dev.Read(nt.Texture)
			if err != nil {
				logger.Printf("skip %s: %v", nt.Resource, err)
				continue
			}
			path := fmt.Sprintf("%s_%s.png", base, nt.Resource)
			if err := j.write(path, tonemapped(px, exposure, gamma)); err != nil {
				return written, err
			}
			written = append(written, path)
		}
	}
	return written, nil
}

func (j job) write(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return gfx.WritePNG(path, gfx.FitImage(img, j.thumb))
}

// tonemapped maps float targets to display range; 8-bit targets are clamped
func tonemapped(px *gfx.Pixels, exposure, gamma float64) *image.NRGBA {
	if !px.Format.Float() {
		return px.Image()
	}
	out := gfx.NewPixels(px.Width, px.Height, gfx.FormatRGBA8)
	for i := 0; i < len(px.Pix); i += 4 {
		hdr := render3d.Color3{R: float64(px.Pix[i]), G: float64(px.Pix[i+1]), B: float64(px.Pix[i+2])}
		c := render3d.Tonemap(hdr, exposure, gamma)
		out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = float32(c.R), float32(c.G), float32(c.B), 1
	}
	return out.Image()
}
