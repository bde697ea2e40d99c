package willow3d

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/phanxgames/willow3d/render"
)

func TestMaterialDefaults(t *testing.T) {
	m := NewMaterial()
	m.SetupFinished()
	f := m.RenderMaterial().Front()

	if f.Ambient != (mgl32.Vec3{0.2, 0.2, 0.2}) {
		t.Errorf("Ambient = %v, want 0.2 grey", f.Ambient)
	}
	if f.Diffuse != (mgl32.Vec3{0.8, 0.8, 0.8}) {
		t.Errorf("Diffuse = %v, want 0.8 grey", f.Diffuse)
	}
	if f.Shininess != 0.2 {
		t.Errorf("Shininess = %v, want 0.2", f.Shininess)
	}
	if f.Alpha != 1 {
		t.Errorf("Alpha = %v, want 1", f.Alpha)
	}
	if f.Emissive != (mgl32.Vec3{}) {
		t.Errorf("Emissive = %v, want black", f.Emissive)
	}
	if !m.RenderMaterial().LightingEnabled() {
		t.Error("lighting should be on by default")
	}
}

func TestMaterialRejectsOutOfRange(t *testing.T) {
	m := NewMaterial()
	tests := []struct {
		name string
		set  func() error
	}{
		{"diffuse", func() error { return m.SetDiffuseColor(Color{R: 2}) }},
		{"emissive", func() error { return m.SetEmissiveColor(Color{G: -0.1}) }},
		{"transparency", func() error { return m.SetTransparency(1.5) }},
		{"shininess", func() error { return m.SetShininess(-1) }},
		{"ambient", func() error { return m.SetAmbientIntensity(3) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.set()
			if !errors.Is(err, ErrInvalidFieldValue) {
				t.Fatalf("err = %v, want ErrInvalidFieldValue", err)
			}
			var fe *FieldValueError
			if !errors.As(err, &fe) || fe.Node != "Material" {
				t.Errorf("err = %#v, want *FieldValueError for Material", err)
			}
		})
	}
	if got := m.DiffuseColor(); got != (Color{0.8, 0.8, 0.8}) {
		t.Errorf("DiffuseColor = %v after rejected set, want default", got)
	}
	if got := m.Transparency(); got != 0 {
		t.Errorf("Transparency = %v after rejected set, want 0", got)
	}
}

func TestBackFieldsNeedTwoSided(t *testing.T) {
	m := NewMaterial()
	if err := m.SetBackDiffuseColor(Color{R: 1}); !errors.Is(err, ErrInvalidFieldValue) {
		t.Errorf("SetBackDiffuseColor on Material: err = %v, want ErrInvalidFieldValue", err)
	}
	if err := m.SetSeparateBackColor(true); err == nil {
		t.Error("SetSeparateBackColor on Material should fail")
	}

	tm := NewTwoSidedMaterial()
	if err := tm.SetBackDiffuseColor(Color{R: 1}); err != nil {
		t.Errorf("SetBackDiffuseColor on TwoSidedMaterial: %v", err)
	}
}

func TestIgnoreDiffusePushesWhite(t *testing.T) {
	m := NewMaterial()
	m.SetupFinished()
	m.SetIgnoreDiffuse(true)
	if got := m.RenderMaterial().Front().Diffuse; got != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("Diffuse = %v, want white", got)
	}
	if got := m.DiffuseColor(); got != (Color{0.8, 0.8, 0.8}) {
		t.Errorf("declared DiffuseColor = %v, want unchanged", got)
	}
	m.SetIgnoreDiffuse(false)
	if got := m.RenderMaterial().Front().Diffuse; got != (mgl32.Vec3{0.8, 0.8, 0.8}) {
		t.Errorf("Diffuse = %v, want 0.8 grey restored", got)
	}
}

func TestLightingPrecedence(t *testing.T) {
	m := NewMaterial()
	m.SetupFinished()

	m.setTextureLightingOverride(true)
	if m.LightingEnabled() {
		t.Error("texture override should turn lighting off")
	}
	on := true
	m.forceLighting(&on)
	if !m.LightingEnabled() {
		t.Error("forced lighting should win over the texture override")
	}
	m.forceLighting(nil)
	if m.LightingEnabled() {
		t.Error("releasing the force should restore the texture override")
	}
	m.setTextureLightingOverride(false)
	m.SetLightingEnabled(false)
	if m.LightingEnabled() {
		t.Error("own flag off should turn lighting off")
	}
	if m.RenderMaterial().LightingEnabled() {
		t.Error("render material lighting not pushed")
	}
}

func TestLocalColorTarget(t *testing.T) {
	m := NewMaterial()
	m.SetupFinished()
	m.SetLocalColor(true, true)
	target, alpha := m.RenderMaterial().ColorTarget()
	if target != render.ColorTargetDiffuse || !alpha {
		t.Errorf("ColorTarget = (%v, %v), want (diffuse, true)", target, alpha)
	}
	m.SetLocalColor(false, false)
	target, _ = m.RenderMaterial().ColorTarget()
	if target != render.ColorTargetNone {
		t.Errorf("ColorTarget = %v, want none", target)
	}
}

type colorRecorder struct{ got []Color }

func (r *colorRecorder) EmissiveColorChanged(c Color) { r.got = append(r.got, c) }

func TestColorListener(t *testing.T) {
	m := NewMaterial()
	var r colorRecorder
	sub := m.AddColorListener(&r)
	if len(r.got) != 1 || r.got[0] != (Color{}) {
		t.Fatalf("initial report = %v, want one black", r.got)
	}
	red := Color{R: 1}
	_ = m.SetEmissiveColor(red)
	_ = m.SetEmissiveColor(red)
	if len(r.got) != 2 || r.got[1] != red {
		t.Errorf("reports = %v, want [black red]", r.got)
	}
	sub.Cancel()
	sub.Cancel()
	_ = m.SetEmissiveColor(Color{G: 1})
	if len(r.got) != 2 {
		t.Errorf("listener called after Cancel: %v", r.got)
	}
}

func TestUninitializedMaterialPanics(t *testing.T) {
	var m Material
	expectPanic(t, "SetupFinished", m.SetupFinished)
	expectPanic(t, "SetDiffuseColor", func() { _ = m.SetDiffuseColor(ColorWhite) })
}

// A live two-sided material only shows its back colour once separate back
// colour is on, and only after the frame boundary.
func TestSeparateBackColorToggleLive(t *testing.T) {
	h := newHarness(t)
	m := NewTwoSidedMaterial()
	red := Color{R: 1}
	if err := m.SetBackDiffuseColor(red); err != nil {
		t.Fatal(err)
	}
	a := NewAppearance(h.env)
	a.SetMaterial(m)
	s := NewShape(h.env)
	_ = s.SetAppearance(a)
	_ = s.SetGeometry(triangle())
	h.goLive(s)

	rm := m.RenderMaterial()
	if !rm.IsLive() {
		t.Fatal("material should be live")
	}
	if rm.SeparateBackColor() {
		t.Fatal("separate back colour should start off")
	}
	if rm.FaceFor(true).Diffuse != rm.Front().Diffuse {
		t.Error("back faces should use the front fields while separate is off")
	}

	if err := m.SetSeparateBackColor(true); err != nil {
		t.Fatal(err)
	}
	if rm.SeparateBackColor() {
		t.Error("change visible before the frame boundary")
	}
	h.step()
	if !rm.SeparateBackColor() {
		t.Fatal("SeparateBackColor not pushed")
	}
	if got := rm.FaceFor(true).Diffuse; got != red.Vec3() {
		t.Errorf("back diffuse = %v, want %v", got, red.Vec3())
	}

	_ = m.SetSeparateBackColor(false)
	h.step()
	if rm.FaceFor(true).Diffuse != rm.Front().Diffuse {
		t.Error("back faces should follow the front again")
	}
}

func TestLiveMaterialDefersWrites(t *testing.T) {
	h := newHarness(t)
	s, _, m := h.litShape()
	h.goLive(s)

	blue := Color{B: 1}
	if err := m.SetDiffuseColor(blue); err != nil {
		t.Fatal(err)
	}
	if got := m.RenderMaterial().Front().Diffuse; got == blue.Vec3() {
		t.Error("live write applied outside the data phase")
	}
	h.step()
	if got := m.RenderMaterial().Front().Diffuse; got != blue.Vec3() {
		t.Errorf("Diffuse = %v, want %v", got, blue.Vec3())
	}
}
