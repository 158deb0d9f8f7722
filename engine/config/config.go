// Package config gathers every tunable of the renderer. Values start from
// defaults, are overlaid by an optional JSON file, then by command-line flags.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/1siamBot/hdr-terrain/engine/noise"
	"github.com/1siamBot/hdr-terrain/engine/pipeline"
	"github.com/1siamBot/hdr-terrain/engine/render3d"
	"github.com/1siamBot/hdr-terrain/engine/sun"
	"github.com/1siamBot/hdr-terrain/engine/terrain"
)

// Window is the display and render size
type Window struct {
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RenderWidth  int    `json:"render_width"` // 0 uses Width
	RenderHeight int    `json:"render_height"`
	Title        string `json:"title"`
	Backend      string `json:"backend"` // "ebiten" or "soft"
	TPS          int    `json:"tps"`
}

// Terrain controls heightmap synthesis
type Terrain struct {
	terrain.Params
	Noise  string `json:"noise"` // "simplex" or "perlin"
	Seed   int64  `json:"seed"`
	Border string `json:"border"` // normal map border policy
}

// Camera is the starting pose and movement
type Camera struct {
	render3d.CameraPose
	Speed       float64 `json:"speed"`
	FastSpeed   float64 `json:"fast_speed"`
	Sensitivity float64 `json:"sensitivity"`
	Near        float64 `json:"near"`
	Far         float64 `json:"far"`
}

// Config is the full configuration
type Config struct {
	Window  Window                  `json:"window"`
	Terrain Terrain                 `json:"terrain"`
	Camera  Camera                  `json:"camera"`
	Sun     sun.Config              `json:"sun"`
	Bloom   pipeline.BloomOptions   `json:"bloom"`
	Flare   pipeline.FlareOptions   `json:"flare"`
	Shading pipeline.ShadingOptions `json:"shading"`
	Fog     render3d.Fog            `json:"fog"`
	Sky     render3d.SkyGradient    `json:"sky"`
	Assets  pipeline.AssetPaths     `json:"assets"`
}

// Backends
const (
	BackendEbiten = "ebiten"
	BackendSoft   = "soft"
)

// Default reproduces the reference scene
func Default() *Config {
	po := pipeline.DefaultOptions()
	return &Config{
		Window: Window{
			Width:   1920,
			Height:  1080,
			Title:   "HDR Terrain",
			Backend: BackendEbiten,
			TPS:     60,
		},
		Terrain: Terrain{
			Params: terrain.DefaultParams(),
			Noise:  "simplex",
			Seed:   noise.DefaultSeed,
			Border: terrain.BorderClamp.String(),
		},
		Camera: Camera{
			CameraPose:  render3d.DefaultPose(),
			Speed:       2.5,
			FastSpeed:   10,
			Sensitivity: 0.1,
			Near:        0.1,
			Far:         100,
		},
		Sun:     sun.DefaultConfig(),
		Bloom:   po.Bloom,
		Flare:   po.Flare,
		Shading: po.Shading,
		Fog:     po.Fog,
		Sky:     po.Sky,
		Assets:  po.Assets,
	}
}

// Load overlays the JSON file at path onto c. Fields missing from the file
// keep their current values.
func (c *Config) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Save writes c as indented JSON
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// Bind attaches the commonly tuned fields to fs
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.IntVar(&c.Window.Width, "width", c.Window.Width, "window width")
	fs.IntVar(&c.Window.Height, "height", c.Window.Height, "window height")
	fs.IntVar(&c.Window.RenderWidth, "render-width", c.Window.RenderWidth, "render target width (0 = window width)")
	fs.IntVar(&c.Window.RenderHeight, "render-height", c.Window.RenderHeight, "render target height (0 = window height)")
	fs.StringVar(&c.Window.Backend, "backend", c.Window.Backend, "graphics backend: ebiten or soft")
	fs.IntVar(&c.Window.TPS, "tps", c.Window.TPS, "ticks per second")

	fs.IntVar(&c.Terrain.Width, "map-size", c.Terrain.Width, "heightmap width and height")
	fs.Float64Var(&c.Terrain.Scale, "noise-scale", c.Terrain.Scale, "noise coordinate scale")
	fs.IntVar(&c.Terrain.Octaves, "octaves", c.Terrain.Octaves, "FBM octaves")
	fs.Float64Var(&c.Terrain.Persistence, "persistence", c.Terrain.Persistence, "FBM amplitude falloff")
	fs.Float64Var(&c.Terrain.Lacunarity, "lacunarity", c.Terrain.Lacunarity, "FBM frequency growth")
	fs.StringVar(&c.Terrain.Noise, "noise", c.Terrain.Noise, "noise primitive: simplex or perlin")
	fs.Int64Var(&c.Terrain.Seed, "seed", c.Terrain.Seed, "noise seed")
	fs.StringVar(&c.Terrain.Border, "border", c.Terrain.Border, "normal map border policy: clamp or unset")

	fs.IntVar(&c.Bloom.Iterations, "bloom", c.Bloom.Iterations, "bloom blur iterations (horizontal+vertical pairs)")
	fs.IntVar(&c.Bloom.DownsampleFactor, "downsample", c.Bloom.DownsampleFactor, "bright pass downsample factor")
	fs.Float64Var(&c.Flare.Strength, "flare", c.Flare.Strength, "lens flare strength")
	fs.BoolVar(&c.Sun.Stationary, "stationary-sun", c.Sun.Stationary, "pin the sun instead of animating it")
	fs.Float64Var(&c.Fog.Density, "fog", c.Fog.Density, "fog density")
}

// Normalize fills derived values: a square heightmap and the render size
func (c *Config) Normalize() {
	c.Terrain.Height = c.Terrain.Width
	if c.Window.RenderWidth <= 0 {
		c.Window.RenderWidth = c.Window.Width
	}
	if c.Window.RenderHeight <= 0 {
		c.Window.RenderHeight = c.Window.Height
	}
}

// Validate reports the first invalid value
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Window.RenderWidth < 0 || c.Window.RenderHeight < 0 {
		return fmt.Errorf("render size %dx%d must not be negative", c.Window.RenderWidth, c.Window.RenderHeight)
	}
	switch c.Window.Backend {
	case BackendEbiten, BackendSoft:
	default:
		return fmt.Errorf("unknown backend %q", c.Window.Backend)
	}
	if c.Terrain.Width <= 0 || c.Terrain.Height <= 0 {
		return fmt.Errorf("heightmap size %dx%d must be positive", c.Terrain.Width, c.Terrain.Height)
	}
	if c.Terrain.Octaves < 1 {
		return fmt.Errorf("octaves must be at least 1, got %d", c.Terrain.Octaves)
	}
	if _, err := c.NoiseSource(); err != nil {
		return err
	}
	if _, err := terrain.ParseBorderPolicy(c.Terrain.Border); err != nil {
		return err
	}
	if err := c.Sun.Validate(); err != nil {
		return err
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		return fmt.Errorf("camera fov %g out of range", c.Camera.FOV)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("camera clip range [%g, %g] invalid", c.Camera.Near, c.Camera.Far)
	}
	return c.PipelineOptions().Validate()
}

// PipelineOptions extracts what the render pipeline needs
func (c *Config) PipelineOptions() pipeline.Options {
	w, h := c.Window.RenderWidth, c.Window.RenderHeight
	if w <= 0 {
		w = c.Window.Width
	}
	if h <= 0 {
		h = c.Window.Height
	}
	return pipeline.Options{
		Width:     w,
		Height:    h,
		Bloom:     c.Bloom,
		Flare:     c.Flare,
		Shading:   c.Shading,
		Fog:       c.Fog,
		Sky:       c.Sky,
		Assets:    c.Assets,
		Noise:     c.Terrain.Noise,
		NoiseSeed: c.Terrain.Seed,
	}
}

// NewCamera builds the starting camera for a w x h viewport
func (c *Config) NewCamera(w, h int) *render3d.Camera3D {
	cam := render3d.NewCamera3D(w, h)
	cam.Speed = c.Camera.Speed
	cam.FastSpeed = c.Camera.FastSpeed
	cam.Sensitivity = c.Camera.Sensitivity
	cam.Near = c.Camera.Near
	cam.Far = c.Camera.Far
	cam.SetPose(c.Camera.CameraPose)
	return cam
}

// NoiseSource builds the configured noise primitive
func (c *Config) NoiseSource() (noise.Source, error) {
	src, ok := noise.New(c.Terrain.Noise, c.Terrain.Seed)
	if !ok {
		return nil, fmt.Errorf("unknown noise %q", c.Terrain.Noise)
	}
	return src, nil
}

// BuildTerrain synthesizes the heightmap and its normal map
func (c *Config) BuildTerrain() (*terrain.HeightGrid, *terrain.NormalGrid, error) {
	src, err := c.NoiseSource()
	if err != nil {
		return nil, nil, err
	}
	border, err := terrain.ParseBorderPolicy(c.Terrain.Border)
	if err != nil {
		return nil, nil, err
	}
	h := terrain.Generate(src, c.Terrain.Params)
	return h, terrain.Derive(h, border), nil
}

// Parse builds a Config from defaults, then the JSON file named by -config,
// then the flags set in args. Flags the caller registered on fs before the
// call are parsed too. The result is normalized and validated.
func Parse(fs *flag.FlagSet, args []string) (*Config, error) {
	c := Default()
	path := fs.String("config", "", "JSON config file applied before flags")
	c.Bind(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *path != "" {
		set := make(map[string]string)
		fs.Visit(func(f *flag.Flag) { set[f.Name] = f.Value.String() })
		base := Default()
		if err := base.Load(*path); err != nil {
			return nil, err
		}
		*c = *base
		for name, v := range set {
			if name == "config" {
				continue
			}
			if err := fs.Set(name, v); err != nil {
				return nil, err
			}
		}
	}
	c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
