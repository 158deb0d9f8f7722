package pipeline

import (
	"fmt"

	"github.com/1siamBot/hdr-terrain/engine/noise"
	"github.com/1siamBot/hdr-terrain/engine/render3d"
)

// BloomOptions controls the bright-pass blur
type BloomOptions struct {
	Iterations       int     `json:"iterations"` // horizontal+vertical pairs
	DownsampleFactor int     `json:"downsample_factor"`
	Strength         float64 `json:"strength"`
}

// FlareOptions controls the lens flare in the composite
type FlareOptions struct {
	Strength       float64 `json:"strength"`
	Ghosts         int     `json:"ghosts"`
	GhostDispersal float64 `json:"ghost_dispersal"`
	HaloWidth      float64 `json:"halo_width"`
	StarburstSpeed float64 `json:"starburst_speed"` // radians per second
}

// ShadingOptions places and shades the terrain
type ShadingOptions struct {
	WorldScale     float64 `json:"world_scale"`  // terrain spans [-WorldScale, WorldScale] on X and Z
	HeightScale    float64 `json:"height_scale"` // peak height relative to the terrain width
	SnowThreshold  float64 `json:"snow_threshold"`
	NormalStrength float64 `json:"normal_strength"`
	TextureTiling  float64 `json:"texture_tiling"`
	SunProxyScale  float64 `json:"sun_proxy_scale"` // radius of the visible sun sphere
	Gamma          float64 `json:"gamma"`
}

// TerrainHeight is the world-space height of a heightmap value of 1
func (s ShadingOptions) TerrainHeight() float64 {
	return s.HeightScale * 2 * s.WorldScale
}

// AssetPaths names texture files. Empty paths use generated textures.
type AssetPaths struct {
	Rocks         string    `json:"rocks"`
	Snow          string    `json:"snow"`
	Skybox        [6]string `json:"skybox"` // right, left, top, bottom, front, back
	ColorGradient string    `json:"color_gradient"`
	LensDirt      string    `json:"lens_dirt"`
	Starburst     string    `json:"starburst"`
	MaxSize       int       `json:"max_size"` // larger images are downscaled on load
	ProceduralRes int       `json:"procedural_size"`
}

// Options configures a Pipeline
type Options struct {
	Width, Height int // render target size; the display may differ
	Bloom         BloomOptions
	Flare         FlareOptions
	Shading       ShadingOptions
	Fog           render3d.Fog
	Sky           render3d.SkyGradient
	Assets        AssetPaths
	Noise         string // noise kind for procedural textures, simplex when empty
	NoiseSeed     int64
}

// DefaultOptions renders at 1920x1080 with 50 bloom iterations
func DefaultOptions() Options {
	return Options{
		Width:  1920,
		Height: 1080,
		Bloom: BloomOptions{
			Iterations:       50,
			DownsampleFactor: 4,
			Strength:         1,
		},
		Flare: FlareOptions{
			Strength:       0.6,
			Ghosts:         5,
			GhostDispersal: 0.35,
			HaloWidth:      0.45,
			StarburstSpeed: 0.05,
		},
		Shading: ShadingOptions{
			WorldScale:     2.0,
			HeightScale:    0.15,
			SnowThreshold:  0.69,
			NormalStrength: 6,
			TextureTiling:  8,
			SunProxyScale:  0.1,
			Gamma:          2.2,
		},
		Fog: render3d.DefaultFog(),
		Sky: render3d.DefaultSky(),
		Assets: AssetPaths{
			MaxSize:       2048,
			ProceduralRes: 256,
		},
	}
}

// Validate reports options the pipeline cannot run with
func (o Options) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("render size %dx%d must be positive", o.Width, o.Height)
	}
	if o.Bloom.DownsampleFactor < 1 {
		return fmt.Errorf("downsample factor %d must be at least 1", o.Bloom.DownsampleFactor)
	}
	if o.Shading.WorldScale <= 0 || o.Shading.HeightScale < 0 {
		return fmt.Errorf("terrain scale %g / height scale %g out of range", o.Shading.WorldScale, o.Shading.HeightScale)
	}
	if _, ok := noise.New(o.Noise, o.NoiseSeed); !ok {
		return fmt.Errorf("unknown noise %q", o.Noise)
	}
	if o.Flare.Ghosts < 0 {
		return fmt.Errorf("ghost count %d must not be negative", o.Flare.Ghosts)
	}
	return nil
}

// downsampleSize is the size of the downsample and ping-pong targets
func (o Options) downsampleSize() (int, int) {
	f := max(1, o.Bloom.DownsampleFactor)
	return max(1, o.Width/f), max(1, o.Height/f)
}
