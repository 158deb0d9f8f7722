package pipeline

import (
	"github.com/1siamBot/hdr-terrain/engine/gfx"
)

func decls(kind gfx.UniformKind, names ...string) []gfx.UniformDecl {
	out := make([]gfx.UniformDecl, len(names))
	for i, n := range names {
		out[i] = gfx.UniformDecl{Name: n, Kind: kind}
	}
	return out
}

func join(groups ...[]gfx.UniformDecl) []gfx.UniformDecl {
	var out []gfx.UniformDecl
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// ProgramSpecs declares every program of the frame and its uniforms
func ProgramSpecs() []gfx.ProgramSpec {
	return []gfx.ProgramSpec{
		{Name: ProgramSky, Uniforms: join(
			decls(gfx.UniformMat4, "invViewProj"),
			decls(gfx.UniformBool, "useSkybox"),
			decls(gfx.UniformVec3, "skyZenith", "skyHorizon", "skyGround"),
		)},
		{Name: ProgramSun, Uniforms: join(
			decls(gfx.UniformMat4, "invViewProj", "viewProj"),
			decls(gfx.UniformVec3, "viewPos", "lightPos", "glowColor", "fogColor"),
			decls(gfx.UniformFloat, "sunRadius", "fogDensity"),
		)},
		{Name: ProgramTerrain, Uniforms: join(
			decls(gfx.UniformMat4, "invViewProj", "viewProj"),
			decls(gfx.UniformVec3, "viewPos", "lightPos", "lightAmbient", "lightDiffuse", "lightSpecular", "fogColor"),
			decls(gfx.UniformFloat, "terrainSize", "terrainHeight", "textureTiling", "snowThreshold",
				"normalStrength", "fogDensity", "sunRadius"),
		)},
		{Name: ProgramDownsample},
		{Name: ProgramBlur, Uniforms: decls(gfx.UniformBool, "horizontal")},
		{Name: ProgramComposite, Uniforms: join(
			decls(gfx.UniformFloat, "exposure", "gamma", "bloomStrength", "flareStrength",
				"ghostDispersal", "haloWidth", "starburstOffset", "aspectRatio"),
			decls(gfx.UniformInt, "ghosts"),
		)},
	}
}

// cameraUniforms are shared by the scene programs
type cameraUniforms struct {
	invViewProj, viewProj, viewPos gfx.Uniform
}

func resolveCamera(t *gfx.UniformTable) cameraUniforms {
	return cameraUniforms{
		invViewProj: t.Lookup("invViewProj", gfx.UniformMat4),
		viewProj:    t.Lookup("viewProj", gfx.UniformMat4),
		viewPos:     t.Lookup("viewPos", gfx.UniformVec3),
	}
}

type skyUniforms struct {
	invViewProj             gfx.Uniform
	useSkybox               gfx.Uniform
	zenith, horizon, ground gfx.Uniform
}

type sunUniforms struct {
	cam                    cameraUniforms
	lightPos, glow, radius gfx.Uniform
	fogDensity, fogColor   gfx.Uniform
}

type terrainUniforms struct {
	cam                                     cameraUniforms
	lightPos, ambient, diffuse, specular    gfx.Uniform
	size, height, tiling, snow, normalScale gfx.Uniform
	fogDensity, fogColor, sunRadius         gfx.Uniform
}

type blurUniforms struct {
	horizontal gfx.Uniform
}

type compositeUniforms struct {
	exposure, gamma, bloomStrength, flareStrength gfx.Uniform
	ghosts, dispersal, haloWidth                  gfx.Uniform
	starburstOffset, aspectRatio                  gfx.Uniform
}

// uniformSet holds every handle, resolved once after compilation. Handles of
// programs that failed to compile stay invalid.
type uniformSet struct {
	sky       skyUniforms
	sun       sunUniforms
	terrain   terrainUniforms
	blur      blurUniforms
	composite compositeUniforms
}

func (p *Pipeline) resolveUniforms() {
	if t := p.table(ProgramSky); t != nil {
		p.u.sky = skyUniforms{
			invViewProj: t.Lookup("invViewProj", gfx.UniformMat4),
			useSkybox:   t.Lookup("useSkybox", gfx.UniformBool),
			zenith:      t.Lookup("skyZenith", gfx.UniformVec3),
			horizon:     t.Lookup("skyHorizon", gfx.UniformVec3),
			ground:      t.Lookup("skyGround", gfx.UniformVec3),
		}
	}
	if t := p.table(ProgramSun); t != nil {
		p.u.sun = sunUniforms{
			cam:        resolveCamera(t),
			lightPos:   t.Lookup("lightPos", gfx.UniformVec3),
			glow:       t.Lookup("glowColor", gfx.UniformVec3),
			radius:     t.Lookup("sunRadius", gfx.UniformFloat),
			fogDensity: t.Lookup("fogDensity", gfx.UniformFloat),
			fogColor:   t.Lookup("fogColor", gfx.UniformVec3),
		}
	}
	if t := p.table(ProgramTerrain); t != nil {
		p.u.terrain = terrainUniforms{
			cam:         resolveCamera(t),
			lightPos:    t.Lookup("lightPos", gfx.UniformVec3),
			ambient:     t.Lookup("lightAmbient", gfx.UniformVec3),
			diffuse:     t.Lookup("lightDiffuse", gfx.UniformVec3),
			specular:    t.Lookup("lightSpecular", gfx.UniformVec3),
			size:        t.Lookup("terrainSize", gfx.UniformFloat),
			height:      t.Lookup("terrainHeight", gfx.UniformFloat),
			tiling:      t.Lookup("textureTiling", gfx.UniformFloat),
			snow:        t.Lookup("snowThreshold", gfx.UniformFloat),
			normalScale: t.Lookup("normalStrength", gfx.UniformFloat),
			fogDensity:  t.Lookup("fogDensity", gfx.UniformFloat),
			fogColor:    t.Lookup("fogColor", gfx.UniformVec3),
			sunRadius:   t.Lookup("sunRadius", gfx.UniformFloat),
		}
	}
	if t := p.table(ProgramBlur); t != nil {
		p.u.blur = blurUniforms{horizontal: t.Lookup("horizontal", gfx.UniformBool)}
	}
	if t := p.table(ProgramComposite); t != nil {
		p.u.composite = compositeUniforms{
			exposure:        t.Lookup("exposure", gfx.UniformFloat),
			gamma:           t.Lookup("gamma", gfx.UniformFloat),
			bloomStrength:   t.Lookup("bloomStrength", gfx.UniformFloat),
			flareStrength:   t.Lookup("flareStrength", gfx.UniformFloat),
			ghosts:          t.Lookup("ghosts", gfx.UniformInt),
			dispersal:       t.Lookup("ghostDispersal", gfx.UniformFloat),
			haloWidth:       t.Lookup("haloWidth", gfx.UniformFloat),
			starburstOffset: t.Lookup("starburstOffset", gfx.UniformFloat),
			aspectRatio:     t.Lookup("aspectRatio", gfx.UniformFloat),
		}
	}
}
