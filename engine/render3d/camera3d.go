package render3d

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera3D is a free-look perspective camera (yaw/pitch in degrees)
type Camera3D struct {
	Pos   Vec3
	Front Vec3
	Up    Vec3

	Yaw   float64
	Pitch float64

	FOV       float64 // vertical, degrees
	Near, Far float64

	// Screen dimensions
	ScreenW, ScreenH int

	Speed       float64 // world units per second
	FastSpeed   float64
	Sensitivity float64 // degrees per mouse pixel
	Fast        bool

	// Computed matrices
	view     mgl32.Mat4
	proj     mgl32.Mat4
	viewProj mgl32.Mat4
	invVP    mgl32.Mat4
	dirty    bool
}

// CameraPose is the serializable part of a camera
type CameraPose struct {
	Pos   Vec3    `json:"pos"`
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	FOV   float64 `json:"fov"`
}

// DefaultPose looks down onto the terrain from the south-west corner
func DefaultPose() CameraPose {
	return CameraPose{Pos: V3(-3.08, 3.07, 3.26), Yaw: -45, Pitch: -45, FOV: 50}
}

// NewCamera3D creates a camera at the default pose
func NewCamera3D(screenW, screenH int) *Camera3D {
	c := &Camera3D{
		Up:          V3(0, 1, 0),
		Near:        0.1,
		Far:         100,
		ScreenW:     screenW,
		ScreenH:     screenH,
		Speed:       2.5,
		FastSpeed:   10,
		Sensitivity: 0.1,
	}
	c.SetPose(DefaultPose())
	return c
}

// SetPose places the camera and recomputes its front vector
func (c *Camera3D) SetPose(p CameraPose) {
	c.Pos = p.Pos
	c.Yaw = p.Yaw
	c.Pitch = p.Pitch
	if p.FOV > 0 {
		c.FOV = p.FOV
	}
	c.updateFront()
}

// Pose returns the current pose
func (c *Camera3D) Pose() CameraPose {
	return CameraPose{Pos: c.Pos, Yaw: c.Yaw, Pitch: c.Pitch, FOV: c.FOV}
}

// SetViewport only changes the aspect ratio; render targets keep their size.
func (c *Camera3D) SetViewport(w, h int) {
	if w <= 0 || h <= 0 || (w == c.ScreenW && h == c.ScreenH) {
		return
	}
	c.ScreenW, c.ScreenH = w, h
	c.dirty = true
}

func (c *Camera3D) currentSpeed() float64 {
	if c.Fast {
		return c.FastSpeed
	}
	return c.Speed
}

// MoveForward moves along the view direction (negative = backwards)
func (c *Camera3D) MoveForward(sign, dt float64) {
	c.Pos = c.Pos.Add(c.Front.Scale(sign * c.currentSpeed() * dt))
	c.dirty = true
}

// Strafe moves sideways (positive = right)
func (c *Camera3D) Strafe(sign, dt float64) {
	right := c.Front.Cross(c.Up).Normalize()
	c.Pos = c.Pos.Add(right.Scale(sign * c.currentSpeed() * dt))
	c.dirty = true
}

// Look applies a mouse delta. Screen Y grows downward, so dy is inverted.
func (c *Camera3D) Look(dx, dy float64) {
	c.Yaw += dx * c.Sensitivity
	c.Pitch -= dy * c.Sensitivity

	// Prevent flipping over the world up vector
	if c.Pitch > 89 {
		c.Pitch = 89
	}
	if c.Pitch < -89 {
		c.Pitch = -89
	}
	c.updateFront()
}

func (c *Camera3D) updateFront() {
	yaw := c.Yaw * math.Pi / 180
	pitch := c.Pitch * math.Pi / 180
	c.Front = V3(
		math.Cos(yaw)*math.Cos(pitch),
		math.Sin(pitch),
		math.Sin(yaw)*math.Cos(pitch),
	).Normalize()
	c.dirty = true
}

func (c *Camera3D) update() {
	if !c.dirty {
		return
	}
	c.dirty = false

	eye := c.Pos.Mgl()
	c.view = mgl32.LookAtV(eye, eye.Add(c.Front.Mgl()), c.Up.Mgl())

	aspect := 1.0
	if c.ScreenH > 0 {
		aspect = float64(c.ScreenW) / float64(c.ScreenH)
	}
	c.proj = mgl32.Perspective(mgl32.DegToRad(float32(c.FOV)), float32(aspect), float32(c.Near), float32(c.Far))
	c.viewProj = c.proj.Mul4(c.view)
	c.invVP = c.viewProj.Inv()
}

// View returns the view matrix
func (c *Camera3D) View() mgl32.Mat4 {
	c.update()
	return c.view
}

// Projection returns the perspective matrix
func (c *Camera3D) Projection() mgl32.Mat4 {
	c.update()
	return c.proj
}

// ViewProj returns the combined view-projection matrix
func (c *Camera3D) ViewProj() mgl32.Mat4 {
	c.update()
	return c.viewProj
}

// InvViewProj unprojects NDC back to world space
func (c *Camera3D) InvViewProj() mgl32.Mat4 {
	c.update()
	return c.invVP
}

// Ray returns the world-space ray through an NDC point (y up)
func (c *Camera3D) Ray(ndcX, ndcY float64) (origin, dir Vec3) {
	return UnprojectRay(c.InvViewProj(), ndcX, ndcY)
}

// UnprojectRay builds a ray from the near to the far plane
func UnprojectRay(inv mgl32.Mat4, ndcX, ndcY float64) (origin, dir Vec3) {
	near := inv.Mul4x1(mgl32.Vec4{float32(ndcX), float32(ndcY), -1, 1})
	far := inv.Mul4x1(mgl32.Vec4{float32(ndcX), float32(ndcY), 1, 1})
	if near[3] == 0 || far[3] == 0 {
		return Vec3{}, V3(0, 0, -1)
	}
	n := FromMgl(near.Vec3().Mul(1 / near[3]))
	f := FromMgl(far.Vec3().Mul(1 / far[3]))
	return n, f.Sub(n).Normalize()
}

// Project3DToScreen converts a world point to screen pixels.
// ok is false when the point is behind the camera.
func (c *Camera3D) Project3DToScreen(p Vec3) (sx, sy, depth float64, ok bool) {
	clip := c.ViewProj().Mul4x1(mgl32.Vec4{float32(p.X), float32(p.Y), float32(p.Z), 1})
	if clip[3] <= 1e-6 {
		return 0, 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip[3])
	sx = (float64(ndc[0])*0.5 + 0.5) * float64(c.ScreenW)
	sy = (1 - (float64(ndc[1])*0.5 + 0.5)) * float64(c.ScreenH)
	return sx, sy, float64(ndc[2]), true
}
