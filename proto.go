package willow3d

import (
	"slices"
	"sync"
)

// ExternProto declares a prototype whose body loads from elsewhere. Primary
// is the role of its first node; Secondary lists any further roles an
// instance may fill.
type ExternProto struct {
	Name      string
	Primary   NodeRole
	Secondary []NodeRole
}

// ProtoInstance stands in for a node until its prototype has loaded.
type ProtoInstance struct {
	mu    sync.Mutex
	proto *ExternProto
	impl  Node
}

// NewProtoInstance returns an unresolved placeholder for proto.
func NewProtoInstance(proto *ExternProto) *ProtoInstance {
	return &ProtoInstance{proto: proto}
}

func (p *ProtoInstance) Role() NodeRole { return RoleProto }

// Proto returns the declaration this instance stands in for.
func (p *ProtoInstance) Proto() *ExternProto { return p.proto }

func (p *ProtoInstance) State() NodeState {
	if impl := p.Implementation(); impl != nil {
		return impl.State()
	}
	return StateUnderConstruction
}

// SetupFinished finishes the implementation once there is one.
func (p *ProtoInstance) SetupFinished() {
	if impl := p.Implementation(); impl != nil {
		impl.SetupFinished()
	}
}

// Declares reports whether instances of the prototype may fill role.
func (p *ProtoInstance) Declares(role NodeRole) bool {
	if p.proto == nil {
		return false
	}
	return p.proto.Primary == role || slices.Contains(p.proto.Secondary, role)
}

// Resolve binds the loaded implementation. A nested instance is unwrapped
// when Implementation is called.
func (p *ProtoInstance) Resolve(n Node) {
	p.mu.Lock()
	p.impl = n
	p.mu.Unlock()
}

// Implementation returns the concrete node behind p, following nested
// instances, or nil while any of them is unresolved.
func (p *ProtoInstance) Implementation() Node {
	var n Node = p
	for {
		pi, ok := n.(*ProtoInstance)
		if !ok {
			return n
		}
		pi.mu.Lock()
		next := pi.impl
		pi.mu.Unlock()
		if next == nil {
			return nil
		}
		n = next
	}
}
