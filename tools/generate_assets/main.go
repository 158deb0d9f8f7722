package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"

	"github.com/1siamBot/hdr-terrain/engine/assets"
	"github.com/1siamBot/hdr-terrain/engine/config"
	"github.com/1siamBot/hdr-terrain/engine/gfx"
)

func main() {
	fs := flag.NewFlagSet("generate_assets", flag.ExitOnError)
	dir := fs.String("dir", filepath.Join("assets", "textures"), "output directory")
	size := fs.Int("size", 512, "side length of the procedural textures")
	force := fs.Bool("force", false, "overwrite existing files")
	cfg, err := config.Parse(fs, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if err := os.MkdirAll(*dir, 0755); err != nil {
		log.Fatal(err)
	}

	height, normal, err := cfg.BuildTerrain()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("heightmap %dx%d digest %s\n", height.Width, height.Height, height.Digest())
	src, err := cfg.NoiseSource()
	if err != nil {
		log.Fatal(err)
	}

	outputs := []struct {
		name string
		img  func() image.Image
	}{
		{"heightmap.png", func() image.Image { return height.GrayImage() }},
		{"normalmap.png", func() image.Image { return normal.RGBAImage() }},
		{"rocks.png", func() image.Image { return assets.Rocks(*size, src) }},
		{"snow.png", func() image.Image { return assets.Snow(*size, src) }},
		{"color_gradient.png", func() image.Image { return assets.ColorGradient(*size) }},
		{"lens_dirt.png", func() image.Image { return assets.LensDirt(*size, cfg.Terrain.Seed) }},
		{"starburst.png", func() image.Image { return assets.Starburst(*size) }},
	}
	for _, o := range outputs {
		path := filepath.Join(*dir, o.name)
		// Don't overwrite existing
		if _, err := os.Stat(path); err == nil && !*force {
			fmt.Printf("keep %s\n", path)
			continue
		}
		if err := gfx.WritePNG(path, o.img()); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s\n", path)
	}
}
