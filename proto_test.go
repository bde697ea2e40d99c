package willow3d

import "testing"

func TestProtoDeclares(t *testing.T) {
	p := NewProtoInstance(&ExternProto{Name: "Fancy", Primary: RoleMaterial, Secondary: []NodeRole{RoleAppearance}})
	for _, role := range []NodeRole{RoleMaterial, RoleAppearance} {
		if !p.Declares(role) {
			t.Errorf("Declares(%v) = false", role)
		}
	}
	if p.Declares(RoleGeometry) {
		t.Error("Declares(geometry) = true")
	}
	if NewProtoInstance(nil).Declares(RoleMaterial) {
		t.Error("instance without a prototype declares nothing")
	}
}

func TestProtoImplementation(t *testing.T) {
	p := NewProtoInstance(&ExternProto{Name: "M", Primary: RoleMaterial})
	if p.Implementation() != nil {
		t.Fatal("unresolved instance has an implementation")
	}
	if p.State() != StateUnderConstruction {
		t.Errorf("State = %v, want under construction", p.State())
	}
	p.SetupFinished()

	m := NewMaterial()
	p.Resolve(m)
	if p.Implementation() != m {
		t.Error("Implementation did not return the resolved node")
	}
	p.SetupFinished()
	if m.State() != StateLive || p.State() != StateLive {
		t.Error("SetupFinished should reach the implementation")
	}
}

func TestAppearanceProtoMaterial(t *testing.T) {
	h := newHarness(t)
	a := NewAppearance(h.env)
	inst := NewProtoInstance(&ExternProto{Name: "Shiny", Primary: RoleMaterial})
	if err := a.SetField(FieldMaterial, inst); err != nil {
		t.Fatal(err)
	}
	s := NewShape(h.env)
	_ = s.SetAppearance(a)
	_ = s.SetGeometry(triangle())
	h.goLive(s)

	m := NewMaterial()
	if err := a.NotifyExternProtoLoaded(FieldMaterial, m); err != nil {
		t.Fatal(err)
	}
	h.step()
	if a.Material() != m {
		t.Fatal("loaded material not bound")
	}
	if !m.RenderMaterial().IsLive() {
		t.Error("loaded material should be live")
	}
}
