package terrain

import (
	"encoding/binary"
	"encoding/hex"
	"image"
	"image/color"
	"math"

	"golang.org/x/crypto/blake2b"
)

// GrayImage renders the heights as an 8-bit grayscale image
func (g *HeightGrid) GrayImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	copy(img.Pix, g.Bytes())
	return img
}

// RGBAImage renders the packed normals as an 8-bit RGB image
func (g *NormalGrid) RGBAImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			n := g.At(x, y)
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(clampByte(n.X * 255)),
				G: uint8(clampByte(n.Y * 255)),
				B: uint8(clampByte(n.Z * 255)),
				A: 255,
			})
		}
	}
	return img
}

func clampByte(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// Digest fingerprints the exact samples of the grid. Two runs with the same
// noise, seed and parameters produce the same digest.
func (g *HeightGrid) Digest() string {
	h, _ := blake2b.New256(nil)
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], uint32(g.Width))
	binary.LittleEndian.PutUint32(buf[4:], uint32(g.Height))
	h.Write(buf[:])
	for _, v := range g.data {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
