package willow3d

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/phanxgames/willow3d/render"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func texturedShape(h *harness, tex TextureNode) (*Shape, *Appearance, *Material) {
	s, a, m := h.litShape()
	a.SetTexture(tex)
	return s, a, m
}

// --- stage derivation ---

func TestStageCounts(t *testing.T) {
	nested := NewMultiTexture()
	_ = nested.SetTextures(NewImageTexture("x.png"))

	multi := NewMultiTexture()
	_ = multi.SetTextures(NewImageTexture("a.png"), NewImageTexture("b.png"), NewImageTexture("c.png"))

	mixed := NewMultiTexture()
	_ = mixed.SetTextures(NewImageTexture("a.png"), nested, NewComposedCubeMapTexture())

	tests := []struct {
		name     string
		tex      TextureNode
		stages   int
		warnings int
	}{
		{"none", nil, 0, 0},
		{"image", NewImageTexture("a.png"), 1, 0},
		{"volume", NewImageTexture3D([]string{"a.png", "b.png"}), 1, 0},
		{"rendered", NewRenderedTexture(16, 16), 1, 0},
		{"multi", multi, 3, 0},
		{"cube map", NewComposedCubeMapTexture(), 0, 1},
		{"unsupported children", mixed, 3, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			a := NewAppearance(h.env)
			if tt.tex != nil {
				a.SetTexture(tt.tex)
			}
			a.SetupFinished()
			if got := a.NumStages(); got != tt.stages {
				t.Errorf("NumStages = %d, want %d", got, tt.stages)
			}
			if got := len(a.Units()); got != tt.stages {
				t.Errorf("len(Units) = %d, want %d", got, tt.stages)
			}
			if got := h.reportCount(); got != tt.warnings {
				t.Errorf("reports = %d, want %d", got, tt.warnings)
			}
		})
	}
}

func TestCubeMapReportsWarning(t *testing.T) {
	h := newHarness(t)
	a := NewAppearance(h.env)
	a.SetTexture(NewComposedCubeMapTexture())
	a.SetupFinished()
	if len(h.reports) != 1 {
		t.Fatalf("reports = %v, want one", h.reports)
	}
	r := h.reports[0]
	if r.Severity != SeverityWarning || !errors.Is(r.Err, ErrUnsupportedCombination) {
		t.Errorf("report = %+v, want an unsupported-combination warning", r)
	}
}

func TestImageStageRealizesWhenRasterArrives(t *testing.T) {
	h := newHarness(t)
	tex := NewImageTexture("a.png")
	a := NewAppearance(h.env)
	a.SetTexture(tex)
	a.SetupFinished()
	if a.StageTexture(0) != nil {
		t.Fatal("stage realized before its raster arrived")
	}
	tex.SetImage(solidImage(4, 4, red), "a.png")
	if a.StageTexture(0) == nil {
		t.Fatal("stage not realized after SetImage")
	}
	if a.Units()[0].Texture() != a.StageTexture(0) {
		t.Error("unit does not reference the realized texture")
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	h := newHarness(t)
	tex := NewImageTexture("a.png")
	tex.SetImage(solidImage(4, 4, red), "a.png")
	a := NewAppearance(h.env)
	a.SetTexture(tex)
	a.SetupFinished()

	before := a.StageTexture(0)
	attrs := a.Units()[0].Attributes()
	a.RebuildTextureUnits()
	a.RebuildTextureUnits()
	if a.StageTexture(0) != before {
		t.Error("rebuild replaced an unchanged texture object")
	}
	if got := a.Units()[0].Attributes(); got != attrs {
		t.Errorf("Attributes = %+v after rebuild, want %+v", got, attrs)
	}
}

func TestOffStageDisablesUnit(t *testing.T) {
	h := newHarness(t)
	t0 := NewImageTexture("a.png")
	t0.SetImage(solidImage(2, 2, red), "a.png")
	t1 := NewImageTexture("b.png")
	t1.SetImage(solidImage(2, 2, blue), "b.png")
	multi := NewMultiTexture()
	_ = multi.SetTextures(t0, t1)
	if err := multi.SetMode([]string{"MODULATE", "OFF"}); err != nil {
		t.Fatal(err)
	}
	a := NewAppearance(h.env)
	a.SetTexture(multi)
	a.SetupFinished()

	units := a.Units()
	if units[0].Texture() == nil {
		t.Error("MODULATE unit has no texture")
	}
	if units[1].Texture() != nil {
		t.Error("OFF unit should have no texture")
	}
	if a.StageTexture(1) == nil {
		t.Error("OFF stage should still realize its texture")
	}
}

func TestMultiTextureRejectsUnknownNames(t *testing.T) {
	multi := NewMultiTexture()
	if err := multi.SetMode([]string{"MODULATE", "BOGUS"}); !errors.Is(err, ErrInvalidFieldValue) {
		t.Errorf("SetMode err = %v, want ErrInvalidFieldValue", err)
	}
	if err := multi.SetSource([]string{"NOWHERE"}); !errors.Is(err, ErrInvalidFieldValue) {
		t.Errorf("SetSource err = %v, want ErrInvalidFieldValue", err)
	}
	if err := multi.SetFunction([]string{"INVERT"}); !errors.Is(err, ErrInvalidFieldValue) {
		t.Errorf("SetFunction err = %v, want ErrInvalidFieldValue", err)
	}
	if err := multi.SetAlpha(2); !errors.Is(err, ErrInvalidFieldValue) {
		t.Errorf("SetAlpha err = %v, want ErrInvalidFieldValue", err)
	}
}

func TestInitializeOnlyTextureFields(t *testing.T) {
	tex := NewImageTexture("a.png")
	if err := tex.SetRepeat(false, true); err != nil {
		t.Fatalf("SetRepeat under construction: %v", err)
	}
	tex.SetupFinished()
	if err := tex.SetRepeat(true, true); !errors.Is(err, ErrInvalidFieldValue) {
		t.Errorf("SetRepeat after setup: err = %v, want ErrInvalidFieldValue", err)
	}
	if err := tex.SetTextureProperties(NewTextureProperties()); !errors.Is(err, ErrInvalidFieldValue) {
		t.Errorf("SetTextureProperties after setup: err = %v, want ErrInvalidFieldValue", err)
	}

	multi := NewMultiTexture()
	multi.SetupFinished()
	if err := multi.SetTextures(tex); !errors.Is(err, ErrInvalidFieldValue) {
		t.Errorf("SetTextures after setup: err = %v, want ErrInvalidFieldValue", err)
	}
}

func TestRepeatFlagsDriveSampling(t *testing.T) {
	env := DefaultEnv()
	env.Textures = TextureDefaults{UseMipMaps: true, AnisotropicDegree: 4}
	s := stageSampling(nil, [3]bool{true, false, true}, env)
	if s.BoundaryS != render.BoundaryWrap || s.BoundaryT != render.BoundaryClampEdge {
		t.Errorf("boundaries = (%v, %v), want (wrap, clamp)", s.BoundaryS, s.BoundaryT)
	}
	if !s.MipMaps || s.MinFilter != render.FilterLinearMipmapLinear {
		t.Errorf("mipmaps = %v filter %v, want trilinear", s.MipMaps, s.MinFilter)
	}
	if s.Anisotropic != render.AnisotropicSingle || s.AnisotropicDegree != 4 {
		t.Errorf("anisotropy = %v/%v, want single/4", s.Anisotropic, s.AnisotropicDegree)
	}

	props := NewTextureProperties()
	props.BoundaryS = render.BoundaryClamp
	if got := stageSampling(props, [3]bool{true, true, true}, env); got.BoundaryS != render.BoundaryClamp {
		t.Errorf("BoundaryS = %v, want the properties node to win", got.BoundaryS)
	}
}

// --- combiner state ---

func TestBlendModeAttributes(t *testing.T) {
	tests := []struct {
		name    string
		mode    render.TextureMode
		combine render.CombineFunc
		scale   int
	}{
		{"MODULATE", render.TextureModulate, render.CombineModulate, 1},
		{"REPLACE", render.TextureReplace, render.CombineModulate, 1},
		{"MODULATE2X", render.TextureModulate, render.CombineModulate, 2},
		{"MODULATE4X", render.TextureModulate, render.CombineModulate, 4},
		{"DOTPRODUCT3", render.TextureCombine, render.CombineDot3RGB, 1},
		{"ADD", render.TextureCombine, render.CombineAdd, 1},
		{"ADDSIGNED", render.TextureCombine, render.CombineAddSigned, 1},
		{"ADDSIGNED2X", render.TextureCombine, render.CombineAddSigned, 2},
		{"SUBTRACT", render.TextureCombine, render.CombineSubtract, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := ParseBlendMode(tt.name)
			if !ok {
				t.Fatalf("ParseBlendMode(%q) failed", tt.name)
			}
			a := m.Attributes()
			if a.Mode != tt.mode {
				t.Errorf("Mode = %v, want %v", a.Mode, tt.mode)
			}
			if a.CombineRGB != tt.combine {
				t.Errorf("CombineRGB = %v, want %v", a.CombineRGB, tt.combine)
			}
			if a.RGBScale != tt.scale {
				t.Errorf("RGBScale = %d, want %d", a.RGBScale, tt.scale)
			}
		})
	}
	if _, ok := ParseBlendMode("modulate"); ok {
		t.Error("mode names are case sensitive")
	}
}

func TestDotProduct3UsesConstant(t *testing.T) {
	a := BlendDotProduct3.Attributes()
	if a.SourceRGB[0] != render.SourceCurrentTexture || a.SourceRGB[1] != render.SourceConstantColor {
		t.Errorf("SourceRGB = %v, want [texture constant ...]", a.SourceRGB)
	}
}

func TestStageParamsSourceAndFunction(t *testing.T) {
	p := StageParams{Mode: BlendAdd, Source: SourceDiffuse, Function: FunctionComplement, Alpha: 0.5, Color: Color{R: 1}}
	a := p.Attributes()
	if a.SourceRGB[1] != render.SourceBaseColor {
		t.Errorf("SourceRGB[1] = %v, want base colour", a.SourceRGB[1])
	}
	if a.OperandRGB[0] != render.OperandOneMinusColor {
		t.Errorf("OperandRGB[0] = %v, want one minus colour", a.OperandRGB[0])
	}
	if a.BlendColor != (mgl32.Vec4{1, 0, 0, 0.5}) {
		t.Errorf("BlendColor = %v, want red at half alpha", a.BlendColor)
	}

	p = StageParams{Mode: BlendModulate, Source: SourceFactor, Function: FunctionAlphaReplicate, Alpha: 1, Color: ColorWhite}
	a = p.Attributes()
	if a.SourceRGB[1] != render.SourcePreviousUnit {
		t.Errorf("source ignored outside COMBINE: SourceRGB[1] = %v", a.SourceRGB[1])
	}
	if a.OperandRGB[0] != render.OperandAlpha {
		t.Errorf("OperandRGB[0] = %v, want alpha", a.OperandRGB[0])
	}
}

// --- REPLACE and diffuse ---

func TestReplaceTextureIgnoresDiffuse(t *testing.T) {
	h := newHarness(t)
	tex := NewImageTexture("a.png")
	tex.SetImage(solidImage(4, 4, red), "a.png")
	tex.SetMode(BlendReplace)
	s, a, m := texturedShape(h, tex)
	h.goLive(s)

	if !m.IgnoreDiffuse() {
		t.Error("colour texture should make the material ignore diffuse")
	}
	if got := m.RenderMaterial().Front().Diffuse; got != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("Diffuse = %v, want white", got)
	}
	if !a.LightingOverride() {
		t.Error("opaque REPLACE texture should override lighting")
	}
	if m.RenderMaterial().LightingEnabled() {
		t.Error("lighting should be off under an opaque REPLACE texture")
	}

	// An explicit request wins over the override.
	a.SetLightingEnabled(true)
	h.step()
	if !m.RenderMaterial().LightingEnabled() {
		t.Error("explicit lighting should win over the texture override")
	}
	a.ResetLightingEnabled()
	h.step()
	if m.RenderMaterial().LightingEnabled() {
		t.Error("reset should restore the texture override")
	}
}

func TestGrayTextureKeepsDiffuse(t *testing.T) {
	h := newHarness(t)
	tex := NewImageTexture("g.png")
	tex.SetImage(grayImage(4, 4), "g.png")
	_, a, m := texturedShape(h, tex)
	a.SetupFinished()
	if m.IgnoreDiffuse() {
		t.Error("grey texture should keep the diffuse colour")
	}
}

func TestTransparentMaterialKeepsLighting(t *testing.T) {
	h := newHarness(t)
	tex := NewImageTexture("a.png")
	tex.SetImage(solidImage(4, 4, red), "a.png")
	tex.SetMode(BlendReplace)
	_, a, m := texturedShape(h, tex)
	_ = m.SetTransparency(0.5)
	a.SetupFinished()
	if a.LightingOverride() {
		t.Error("transparent material should not take the lighting override")
	}
	if !m.LightingEnabled() {
		t.Error("lighting should stay on")
	}
}

func TestModeChangeUpdatesUnitLive(t *testing.T) {
	h := newHarness(t)
	tex := NewImageTexture("a.png")
	tex.SetImage(solidImage(4, 4, red), "a.png")
	s, a, m := texturedShape(h, tex)
	h.goLive(s)

	u := a.Units()[0]
	tex.SetMode(BlendReplace)
	if u.Attributes().Mode == render.TextureReplace {
		t.Error("combiner changed outside the data phase")
	}
	h.step()
	if u.Attributes().Mode != render.TextureReplace {
		t.Errorf("Mode = %v, want replace", u.Attributes().Mode)
	}
	if a.Units()[0] != u {
		t.Error("a params change should reuse the unit")
	}
	if !m.IgnoreDiffuse() {
		t.Error("material should ignore diffuse under a colour texture")
	}
}

// --- live texture swaps ---

func TestTextureSwapUnderLiveRendering(t *testing.T) {
	h := newHarness(t)
	tex := NewImageTexture("a.png")
	tex.SetImage(solidImage(4, 4, red), "a.png")
	s, a, _ := texturedShape(h, tex)
	h.goLive(s)

	u := a.Units()[0]
	first := u.Texture()
	if first == nil || !first.IsLive() {
		t.Fatal("first texture should be live")
	}

	tex.SetImage(solidImage(4, 4, blue), "b.png")
	tex.SetImage(solidImage(8, 8, blue), "c.png")
	if got := a.PendingUnits(); got != 1 {
		t.Errorf("PendingUnits = %d, want 1 after two swaps of one stage", got)
	}
	if u.Texture() != first {
		t.Error("unit swapped before the end of the frame")
	}

	h.step()
	if a.Units()[0] != u {
		t.Error("texture swap should keep the unit")
	}
	second := u.Texture()
	if second == first || second != a.StageTexture(0) {
		t.Error("unit does not reference the new texture")
	}
	if first.IsLive() {
		t.Error("replaced texture should no longer be live")
	}
	if !second.IsLive() {
		t.Error("new texture should be live")
	}
	if a.PendingUnits() != 0 {
		t.Errorf("PendingUnits = %d after flush, want 0", a.PendingUnits())
	}
}

func TestMultiTextureChildSwapTargetsItsStage(t *testing.T) {
	h := newHarness(t)
	t0 := NewImageTexture("a.png")
	t0.SetImage(solidImage(2, 2, red), "a.png")
	t1 := NewImageTexture("b.png")
	t1.SetImage(solidImage(2, 2, red), "b.png")
	multi := NewMultiTexture()
	_ = multi.SetTextures(t0, t1)
	s, a, _ := texturedShape(h, multi)
	h.goLive(s)

	keep := a.Units()[0].Texture()
	old := a.Units()[1].Texture()
	t1.SetImage(solidImage(2, 2, blue), "c.png")
	h.step()
	if a.Units()[0].Texture() != keep {
		t.Error("stage 0 should be untouched")
	}
	if a.Units()[1].Texture() == old {
		t.Error("stage 1 should have a new texture")
	}
}

func TestSwappingTextureFieldRebuildsUnits(t *testing.T) {
	h := newHarness(t)
	tex := NewImageTexture("a.png")
	tex.SetImage(solidImage(2, 2, red), "a.png")
	s, a, _ := texturedShape(h, tex)
	h.goLive(s)

	next := NewImageTexture("b.png")
	next.SetImage(solidImage(2, 2, blue), "b.png")
	a.SetTexture(next)
	h.step()
	if a.Texture() != next {
		t.Fatal("texture field not replaced")
	}
	if got := a.RenderAppearance().NumTextureUnits(); got != 1 {
		t.Errorf("NumTextureUnits = %d, want 1", got)
	}

	// The old texture no longer reaches the appearance.
	before := a.Units()[0]
	tex.SetImage(solidImage(2, 2, blue), "c.png")
	h.step()
	if a.Units()[0] != before {
		t.Error("stale texture producer changed the units")
	}

	a.SetTexture(nil)
	h.step()
	if a.NumStages() != 0 || a.RenderAppearance().NumTextureUnits() != 0 {
		t.Error("clearing the texture should drop every unit")
	}
}

// --- texture transforms and coordinate generation ---

func TestTextureTransformMatrix(t *testing.T) {
	tt := NewTextureTransform()
	tt.SetTranslation(mgl32.Vec2{0.5, 0})
	m := tt.Matrix()
	p := m.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if p.X() != 0.5 || p.Y() != 0 {
		t.Errorf("origin maps to %v, want (0.5, 0)", p)
	}
	if tt.StageMatrix(3) != m {
		t.Error("a single transform applies to every stage")
	}

	multi := NewMultiTextureTransform(tt)
	if multi.StageMatrix(0) != m {
		t.Error("stage 0 should use the first child")
	}
	if multi.StageMatrix(1) != mgl32.Ident4() {
		t.Error("stages beyond the children should use the identity")
	}
}

func TestTextureTransformChangeReachesUnits(t *testing.T) {
	h := newHarness(t)
	tex := NewImageTexture("a.png")
	tex.SetImage(solidImage(2, 2, red), "a.png")
	tt := NewTextureTransform()
	s, a, _ := texturedShape(h, tex)
	a.SetTextureTransform(tt)
	h.goLive(s)

	if got := a.Units()[0].Transform(); got != mgl32.Ident4() {
		t.Errorf("Transform = %v, want identity", got)
	}
	tt.SetScale(mgl32.Vec2{2, 2})
	h.step()
	if got := a.Units()[0].Transform(); got != tt.Matrix() {
		t.Errorf("Transform = %v, want %v", got, tt.Matrix())
	}
}

func TestTexCoordGenMode(t *testing.T) {
	h := newHarness(t)
	a := NewAppearance(h.env)
	a.SetTexture(NewImageTexture3D([]string{"a.png"}))
	a.SetupFinished()

	a.SetTexCoordGenMode(0, "SPHERE")
	g := a.Units()[0].TexCoordGeneration()
	if g == nil || g.Mode != render.TexGenSpherical {
		t.Fatalf("TexCoordGeneration = %+v, want spherical", g)
	}
	if g.Components != render.TexS|render.TexT|render.TexR {
		t.Errorf("Components = %v, want S|T|R for a volume", g.Components)
	}

	a.RebuildTextureUnits()
	if a.Units()[0].TexCoordGeneration() == nil {
		t.Error("rebuild dropped the generation mode")
	}

	a.SetTexCoordGenMode(0, "")
	if a.Units()[0].TexCoordGeneration() != nil {
		t.Error("empty mode should clear generation")
	}
	expectPanic(t, "SetTexCoordGenMode out of range", func() { a.SetTexCoordGenMode(1, "SPHERE") })
}

// --- polygon state ---

func TestSolidAndWinding(t *testing.T) {
	a := NewAppearance(nil)
	a.SetupFinished()
	p := a.RenderPolygonAttributes()
	if p.CullFace() != render.CullBack || p.TwoSidedLighting() {
		t.Errorf("default cull = %v twoSided = %v, want back culling", p.CullFace(), p.TwoSidedLighting())
	}
	a.SetSolid(false)
	a.SetCCW(false)
	a.SetPolygonMode(render.PolygonLine)
	if p.CullFace() != render.CullNone || !p.TwoSidedLighting() || p.CCW() || p.PolygonMode() != render.PolygonLine {
		t.Errorf("polygon = cull %v twoSided %v ccw %v mode %v", p.CullFace(), p.TwoSidedLighting(), p.CCW(), p.PolygonMode())
	}
}

// --- point sprites ---

func TestPointSpriteCombiner(t *testing.T) {
	h := newHarness(t)
	tex := NewImageTexture("a.png")
	tex.SetImage(solidImage(2, 2, red), "a.png")
	pp := NewPointProperties()
	if err := pp.SetColorMode("POINT_COLOR"); err != nil {
		t.Fatal(err)
	}
	a := NewAppearance(h.env)
	a.SetTexture(tex)
	a.SetPointProperties(pp)
	a.SetupFinished()

	at := a.Units()[0].Attributes()
	if !at.PointSpriteCoords || at.Mode != render.TextureCombine {
		t.Errorf("attributes = %+v, want sprite coords in COMBINE mode", at)
	}
	if at.SourceRGB[0] != render.SourceBaseColor || at.CombineRGB != render.CombineReplace {
		t.Errorf("POINT_COLOR: source %v combine %v, want base colour replace", at.SourceRGB[0], at.CombineRGB)
	}
	if !pp.SpriteMode() {
		t.Error("point properties should be in sprite mode")
	}
	if pp.RenderPointAttributes().Antialiasing() {
		t.Error("sprites should not be antialiased")
	}
}

func TestPointSpritesUnsupported(t *testing.T) {
	env := &Env{Caps: Capabilities{PointSprites: false}, Reporter: NewSlogReporter(nil)}
	tex := NewImageTexture("a.png")
	tex.SetImage(solidImage(2, 2, red), "a.png")
	pp := NewPointProperties()
	a := NewAppearance(env)
	a.SetTexture(tex)
	a.SetPointProperties(pp)
	a.SetupFinished()
	if a.NumStages() != 0 {
		t.Errorf("NumStages = %d, want 0 without sprite support", a.NumStages())
	}
	if pp.SpriteMode() {
		t.Error("sprite mode without support")
	}
}

// --- field references ---

func TestAppearanceSetFieldTypeChecks(t *testing.T) {
	a := NewAppearance(nil)
	if err := a.SetField(FieldMaterial, NewLineProperties()); !errors.Is(err, ErrInvalidReferenceType) {
		t.Errorf("material <- LineProperties: err = %v, want ErrInvalidReferenceType", err)
	}
	if err := a.SetField(FieldTexture, NewMaterial()); !errors.Is(err, ErrInvalidReferenceType) {
		t.Errorf("texture <- Material: err = %v, want ErrInvalidReferenceType", err)
	}
	if err := a.SetField(FieldGeometry, NewTriangleSet()); !errors.Is(err, ErrInvalidFieldValue) {
		t.Errorf("unknown field: err = %v, want ErrInvalidFieldValue", err)
	}
	m := NewMaterial()
	if err := a.SetField(FieldMaterial, m); err != nil || a.Material() != m {
		t.Errorf("SetField(material) = %v, Material() = %v", err, a.Material())
	}
}

func TestAppearanceProtoField(t *testing.T) {
	a := NewAppearance(nil)
	matProto := &ExternProto{Name: "Shiny", Primary: RoleMaterial}
	geomProto := &ExternProto{Name: "Box", Primary: RoleGeometry}

	if err := a.SetField(FieldMaterial, NewProtoInstance(geomProto)); !errors.Is(err, ErrInvalidReferenceType) {
		t.Errorf("geometry proto in material field: err = %v, want ErrInvalidReferenceType", err)
	}
	if err := a.SetField(FieldMaterial, NewProtoInstance(matProto)); err != nil {
		t.Fatalf("material proto: %v", err)
	}
	if a.Material() != nil {
		t.Error("unresolved proto should leave the field empty")
	}
	m := NewMaterial()
	if err := a.NotifyExternProtoLoaded(FieldMaterial, m); err != nil {
		t.Fatalf("NotifyExternProtoLoaded: %v", err)
	}
	if a.Material() != m {
		t.Error("loaded material not bound")
	}
	if err := a.NotifyExternProtoLoaded(FieldMaterial, m); err == nil {
		t.Error("second notification should fail: nothing is waiting")
	}
}

func TestUninitializedAppearancePanics(t *testing.T) {
	var a, b Appearance
	expectPanic(t, "SetupFinished", a.SetupFinished)
	expectPanic(t, "SetSolid", func() { b.SetSolid(false) })
}

func TestVolumeSliceUpdateTargetsItsSlice(t *testing.T) {
	tests := []struct {
		name  string
		stage int
		wrap  func(vol *ImageTexture3D) TextureNode
	}{
		{"direct", 0, func(vol *ImageTexture3D) TextureNode { return vol }},
		{"only child", 0, func(vol *ImageTexture3D) TextureNode {
			m := NewMultiTexture()
			_ = m.SetTextures(vol)
			return m
		}},
		{"second child", 1, func(vol *ImageTexture3D) TextureNode {
			flat := NewImageTexture("flat.png")
			flat.SetImage(solidImage(2, 2, red), "flat.png")
			m := NewMultiTexture()
			_ = m.SetTextures(flat, vol)
			return m
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			s0, s1 := solidImage(2, 2, red), solidImage(2, 2, red)
			vol := NewImageTexture3D([]string{"s0.png", "s1.png"})
			vol.SetSlice(0, s0, "s0.png")
			vol.SetSlice(1, s1, "s1.png")
			s, a, _ := texturedShape(h, tt.wrap(vol))
			h.goLive(s)

			first := a.StageTexture(0)
			before := a.StageTexture(tt.stage)
			if before == nil {
				t.Fatal("volume stage not realized")
			}
			next := solidImage(2, 2, blue)
			vol.SetSlice(1, next, "n1.png")
			h.step()

			a.mu.Lock()
			st := a.stages[tt.stage]
			a.mu.Unlock()
			if len(st.images) != 2 || st.images[0] != s0 || st.images[1] != next {
				t.Errorf("slice images = %v, want [s0 next]", st.images)
			}
			if len(st.urls) != 2 || st.urls[0] != "s0.png" || st.urls[1] != "n1.png" {
				t.Errorf("slice urls = %v, want [s0.png n1.png]", st.urls)
			}
			if a.StageTexture(tt.stage) == before {
				t.Error("volume stage kept its old texture")
			}
			if tt.stage > 0 && a.StageTexture(0) != first {
				t.Error("unrelated stage was rebuilt")
			}

			vol.SetSlices([]image.Image{s0, s1, next}, []string{"s0.png", "s1.png", "n1.png"})
			h.step()
			tex, ok := a.StageTexture(tt.stage).(*render.Texture3D)
			if !ok {
				t.Fatalf("StageTexture(%d) = %T, want a volume", tt.stage, a.StageTexture(tt.stage))
			}
			if tex.Depth() != 3 {
				t.Errorf("Depth = %d, want 3 after SetSlices", tex.Depth())
			}
		})
	}
}

func TestVolumeAndRenderedStagesReplace(t *testing.T) {
	tests := []struct {
		name string
		tex  TextureNode
	}{
		{"volume", NewImageTexture3D([]string{"a.png"})},
		{"rendered", NewRenderedTexture(4, 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			m := NewMaterial()
			a := NewAppearance(h.env)
			a.SetMaterial(m)
			a.SetTexture(tt.tex)
			a.SetupFinished()
			if got := a.Units()[0].Attributes().Mode; got != render.TextureReplace {
				t.Errorf("Mode = %v, want replace", got)
			}
			if a.LightingOverride() || !m.LightingEnabled() {
				t.Error("only single 2D image textures override lighting")
			}
		})
	}
}
