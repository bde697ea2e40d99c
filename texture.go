package willow3d

import (
	"image"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/phanxgames/willow3d/render"
)

// TextureListener receives raster and parameter changes from a texture node.
// stage is a stage index, or a slice index for ImageTexture3D. A
// MultiTexture sends TextureImagesChanged with nil slices when a child
// changed in a way that needs every stage re-derived.
type TextureListener interface {
	TextureImageChanged(stage int, src TextureNode, img image.Image, url string)
	TextureImagesChanged(src TextureNode, imgs []image.Image, urls []string)
	TextureParamsChanged(stage int, src TextureNode, p StageParams)
	TextureParamsChangedAll(src TextureNode, ps []StageParams)
}

// TextureNode is one of ImageTexture, MultiTexture, ImageTexture3D,
// RenderedTexture or ComposedCubeMapTexture.
type TextureNode interface {
	Node
	AddTextureListener(l TextureListener) *Subscription
	textureNode()
}

// textureCore holds what every texture node shares.
type textureCore struct {
	mu        sync.Mutex
	state     NodeState
	listeners listenerSet[TextureListener]
}

func (c *textureCore) Role() NodeRole { return RoleTexture }

func (c *textureCore) State() NodeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *textureCore) AddTextureListener(l TextureListener) *Subscription {
	return c.listeners.add(l)
}

func (c *textureCore) textureNode() {}

func (c *textureCore) mustInit(kind string) {
	if c.state == StateUninitialized {
		panic("willow3d: " + kind + " not initialized; use New" + kind)
	}
}

// initOnly returns an error when an initializeOnly field is set after
// construction. Must hold c.mu.
func (c *textureCore) initOnly(node, field string, v any) error {
	if c.state == StateLive {
		return &FieldValueError{Node: node, Field: field, Value: v, Want: "initializeOnly field cannot change after setup"}
	}
	return nil
}

// ImageTexture is a single 2D raster. The raster itself arrives from a
// loader through SetImage.
type ImageTexture struct {
	textureCore
	url     string
	img     image.Image
	repeatS bool
	repeatT bool
	props   *TextureProperties
	mode    BlendMode
}

// NewImageTexture returns a repeating texture for url with no raster yet.
func NewImageTexture(url string) *ImageTexture {
	return &ImageTexture{
		textureCore: textureCore{state: StateUnderConstruction},
		url:         url,
		repeatS:     true,
		repeatT:     true,
	}
}

func (t *ImageTexture) SetupFinished() {
	t.mu.Lock()
	t.mustInit("ImageTexture")
	t.state = StateLive
	props := t.props
	t.mu.Unlock()
	if props != nil {
		props.SetupFinished()
	}
}

// URL returns the source URL.
func (t *ImageTexture) URL() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.url
}

// Image returns the current raster, or nil before it has loaded.
func (t *ImageTexture) Image() image.Image {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.img
}

// SetImage stores a decoded raster and tells listeners about it.
func (t *ImageTexture) SetImage(img image.Image, url string) {
	t.mu.Lock()
	t.mustInit("ImageTexture")
	t.img, t.url = img, url
	t.mu.Unlock()
	for _, l := range t.listeners.snapshot() {
		l.TextureImageChanged(0, t, img, url)
	}
}

// SetRepeat sets the repeat flags. They are fixed once setup finishes.
func (t *ImageTexture) SetRepeat(s, tt bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.initOnly("ImageTexture", "repeat", [2]bool{s, tt}); err != nil {
		return err
	}
	t.repeatS, t.repeatT = s, tt
	return nil
}

// SetTextureProperties sets the sampling node. It is fixed once setup
// finishes.
func (t *ImageTexture) SetTextureProperties(p *TextureProperties) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.initOnly("ImageTexture", "textureProperties", p); err != nil {
		return err
	}
	t.props = p
	return nil
}

// SetMode sets how the texture combines with the material when it is the
// only texture of an appearance.
func (t *ImageTexture) SetMode(m BlendMode) {
	t.mu.Lock()
	t.mustInit("ImageTexture")
	changed := setField(&t.mode, m)
	t.mu.Unlock()
	if !changed {
		return
	}
	p := DefaultStageParams()
	p.Mode = m
	for _, l := range t.listeners.snapshot() {
		l.TextureParamsChanged(0, t, p)
	}
}

// Mode returns the stage mode set by SetMode.
func (t *ImageTexture) Mode() BlendMode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

func (t *ImageTexture) stage(env *Env) textureStage {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := DefaultStageParams()
	p.Mode = t.mode
	return textureStage{
		images:   []image.Image{t.img},
		urls:     []string{t.url},
		sampling: stageSampling(t.props, [3]bool{t.repeatS, t.repeatT, true}, env),
		params:   p,
	}
}

// ImageTexture3D is a stack of 2D slices forming a volume.
type ImageTexture3D struct {
	textureCore
	urls   []string
	slices []image.Image
	repeat [3]bool
	props  *TextureProperties
}

// NewImageTexture3D returns a volume texture with one slice per URL.
func NewImageTexture3D(urls []string) *ImageTexture3D {
	return &ImageTexture3D{
		textureCore: textureCore{state: StateUnderConstruction},
		urls:        append([]string(nil), urls...),
		slices:      make([]image.Image, len(urls)),
		repeat:      [3]bool{true, true, true},
	}
}

func (t *ImageTexture3D) SetupFinished() {
	t.mu.Lock()
	t.mustInit("ImageTexture3D")
	t.state = StateLive
	props := t.props
	t.mu.Unlock()
	if props != nil {
		props.SetupFinished()
	}
}

// Depth returns the number of slices.
func (t *ImageTexture3D) Depth() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slices)
}

// URLs returns the slice URLs.
func (t *ImageTexture3D) URLs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.urls...)
}

// SetSlice stores slice i. Out of range indexes are ignored.
func (t *ImageTexture3D) SetSlice(i int, img image.Image, url string) {
	t.mu.Lock()
	t.mustInit("ImageTexture3D")
	if i < 0 || i >= len(t.slices) {
		t.mu.Unlock()
		return
	}
	t.slices[i], t.urls[i] = img, url
	t.mu.Unlock()
	for _, l := range t.listeners.snapshot() {
		l.TextureImageChanged(i, t, img, url)
	}
}

// SetSlices replaces the whole stack.
func (t *ImageTexture3D) SetSlices(imgs []image.Image, urls []string) {
	t.mu.Lock()
	t.mustInit("ImageTexture3D")
	t.slices = append([]image.Image(nil), imgs...)
	t.urls = make([]string, len(imgs))
	copy(t.urls, urls)
	imgs, urls = t.snapshotLocked()
	t.mu.Unlock()
	for _, l := range t.listeners.snapshot() {
		l.TextureImagesChanged(t, imgs, urls)
	}
}

func (t *ImageTexture3D) snapshotLocked() ([]image.Image, []string) {
	return append([]image.Image(nil), t.slices...), append([]string(nil), t.urls...)
}

// SetRepeat sets the repeat flags. They are fixed once setup finishes.
func (t *ImageTexture3D) SetRepeat(s, tt, r bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.initOnly("ImageTexture3D", "repeat", [3]bool{s, tt, r}); err != nil {
		return err
	}
	t.repeat = [3]bool{s, tt, r}
	return nil
}

// SetTextureProperties sets the sampling node. It is fixed once setup
// finishes.
func (t *ImageTexture3D) SetTextureProperties(p *TextureProperties) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.initOnly("ImageTexture3D", "textureProperties", p); err != nil {
		return err
	}
	t.props = p
	return nil
}

func (t *ImageTexture3D) stage(env *Env) textureStage {
	t.mu.Lock()
	defer t.mu.Unlock()
	imgs, urls := t.snapshotLocked()
	return textureStage{
		images:   imgs,
		urls:     urls,
		is3D:     true,
		sampling: stageSampling(t.props, t.repeat, env),
		params:   replaceStageParams(),
	}
}

// RenderedTexture exposes an offscreen canvas that another pass draws into.
// The canvas is created by SetupFinished.
type RenderedTexture struct {
	textureCore
	width, height int
	repeat        [2]bool
	props         *TextureProperties
	canvas        *render.OffscreenTexture
}

// NewRenderedTexture returns a texture whose canvas is width by height.
func NewRenderedTexture(width, height int) *RenderedTexture {
	return &RenderedTexture{
		textureCore: textureCore{state: StateUnderConstruction},
		width:       width,
		height:      height,
		repeat:      [2]bool{true, true},
	}
}

func (t *RenderedTexture) SetupFinished() {
	t.mu.Lock()
	t.mustInit("RenderedTexture")
	if t.state == StateLive {
		t.mu.Unlock()
		return
	}
	t.canvas = render.NewOffscreenTexture(t.width, t.height)
	t.state = StateLive
	props := t.props
	t.mu.Unlock()
	if props != nil {
		props.SetupFinished()
	}
}

// Canvas returns the offscreen texture, or nil before SetupFinished.
func (t *RenderedTexture) Canvas() *render.OffscreenTexture {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canvas
}

// SetTextureProperties sets the sampling node. It is fixed once setup
// finishes.
func (t *RenderedTexture) SetTextureProperties(p *TextureProperties) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.initOnly("RenderedTexture", "textureProperties", p); err != nil {
		return err
	}
	t.props = p
	return nil
}

func (t *RenderedTexture) stage(env *Env) textureStage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return textureStage{
		canvas:   t.canvas,
		empty:    t.canvas == nil,
		sampling: stageSampling(t.props, [3]bool{t.repeat[0], t.repeat[1], true}, env),
		params:   replaceStageParams(),
	}
}

// ComposedCubeMapTexture holds six face textures. Appearances give it no
// stages.
type ComposedCubeMapTexture struct {
	textureCore
	faces [6]*ImageTexture
}

// Cube map face indexes.
const (
	FaceFront = iota
	FaceBack
	FaceLeft
	FaceRight
	FaceTop
	FaceBottom
)

// NewComposedCubeMapTexture returns a cube map with no faces.
func NewComposedCubeMapTexture() *ComposedCubeMapTexture {
	return &ComposedCubeMapTexture{textureCore: textureCore{state: StateUnderConstruction}}
}

// SetFace sets one face. face is FaceFront through FaceBottom.
func (t *ComposedCubeMapTexture) SetFace(face int, tex *ImageTexture) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mustInit("ComposedCubeMapTexture")
	t.faces[face] = tex
}

// Faces returns the face textures, indexed by FaceFront and friends.
func (t *ComposedCubeMapTexture) Faces() [6]*ImageTexture {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.faces
}

func (t *ComposedCubeMapTexture) SetupFinished() {
	t.mu.Lock()
	t.mustInit("ComposedCubeMapTexture")
	t.state = StateLive
	faces := t.faces
	t.mu.Unlock()
	for _, f := range faces {
		if f != nil {
			f.SetupFinished()
		}
	}
}

// MultiTexture combines several child textures, one stage each.
type MultiTexture struct {
	textureCore
	children  []TextureNode
	childSubs []*Subscription
	modes     []BlendMode
	sources   []StageSource
	functions []StageFunction
	alpha     float32
	color     Color
}

// NewMultiTexture returns a MultiTexture with no children and an opaque
// white factor.
func NewMultiTexture() *MultiTexture {
	return &MultiTexture{
		textureCore: textureCore{state: StateUnderConstruction},
		alpha:       1,
		color:       ColorWhite,
	}
}

// SetTextures sets the child textures. It is fixed once setup finishes.
func (t *MultiTexture) SetTextures(children ...TextureNode) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.initOnly("MultiTexture", "texture", len(children)); err != nil {
		return err
	}
	t.children = append([]TextureNode(nil), children...)
	return nil
}

// Textures returns the child textures.
func (t *MultiTexture) Textures() []TextureNode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]TextureNode(nil), t.children...)
}

// NumTextures returns the number of child textures.
func (t *MultiTexture) NumTextures() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.children)
}

func (t *MultiTexture) SetupFinished() {
	t.mu.Lock()
	t.mustInit("MultiTexture")
	if t.state == StateLive {
		t.mu.Unlock()
		return
	}
	t.state = StateLive
	children := t.children
	t.mu.Unlock()

	subs := make([]*Subscription, 0, len(children))
	for i, c := range children {
		if c == nil {
			continue
		}
		c.SetupFinished()
		subs = append(subs, c.AddTextureListener(&multiChild{parent: t, index: i}))
	}
	t.mu.Lock()
	t.childSubs = subs
	t.mu.Unlock()
}

// SetMode sets the blend mode names, one per stage.
func (t *MultiTexture) SetMode(names []string) error {
	modes, err := parseNames("MultiTexture", "mode", names, blendNames)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.modes = modes
	t.mu.Unlock()
	t.paramsChanged()
	return nil
}

// SetSource sets the stage source names, one per stage.
func (t *MultiTexture) SetSource(names []string) error {
	srcs, err := parseNames("MultiTexture", "source", names, sourceNames)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.sources = srcs
	t.mu.Unlock()
	t.paramsChanged()
	return nil
}

// SetFunction sets the stage function names, one per stage.
func (t *MultiTexture) SetFunction(names []string) error {
	fns, err := parseNames("MultiTexture", "function", names, functionNames)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.functions = fns
	t.mu.Unlock()
	t.paramsChanged()
	return nil
}

// SetAlpha sets the factor alpha used by FACTOR sources.
func (t *MultiTexture) SetAlpha(a float32) error {
	if err := checkUnit("MultiTexture", "alpha", a); err != nil {
		return err
	}
	t.mu.Lock()
	t.alpha = a
	t.mu.Unlock()
	t.paramsChanged()
	return nil
}

// SetColor sets the factor colour used by FACTOR sources.
func (t *MultiTexture) SetColor(c Color) error {
	if err := checkColor("MultiTexture", "color", c); err != nil {
		return err
	}
	t.mu.Lock()
	t.color = c
	t.mu.Unlock()
	t.paramsChanged()
	return nil
}

func (t *MultiTexture) paramsChanged() {
	t.mu.Lock()
	live := t.state == StateLive
	_, ps := t.snapshotLocked()
	t.mu.Unlock()
	if !live {
		return
	}
	for _, l := range t.listeners.snapshot() {
		l.TextureParamsChangedAll(t, ps)
	}
}

func (t *MultiTexture) snapshot() ([]TextureNode, []StageParams) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// snapshotLocked returns the children and the per-stage parameters. Stages
// beyond the mode list use MODULATE.
func (t *MultiTexture) snapshotLocked() ([]TextureNode, []StageParams) {
	ps := make([]StageParams, len(t.children))
	for i := range ps {
		p := StageParams{Mode: BlendModulate, Alpha: t.alpha, Color: t.color}
		if i < len(t.modes) {
			p.Mode = t.modes[i]
		}
		if i < len(t.sources) {
			p.Source = t.sources[i]
		}
		if i < len(t.functions) {
			p.Function = t.functions[i]
		}
		ps[i] = p
	}
	return append([]TextureNode(nil), t.children...), ps
}

// multiChild forwards a child texture's changes to the MultiTexture's
// listeners as changes to stage index. A volume child has no slot for a slice
// index in that call, so its changes rebuild every stage.
type multiChild struct {
	parent *MultiTexture
	index  int
}

func (c *multiChild) TextureImageChanged(_ int, src TextureNode, img image.Image, url string) {
	if _, ok := src.(*ImageTexture3D); ok {
		c.rebuild()
		return
	}
	for _, l := range c.parent.listeners.snapshot() {
		l.TextureImageChanged(c.index, c.parent, img, url)
	}
}

func (c *multiChild) TextureImagesChanged(TextureNode, []image.Image, []string) {
	c.rebuild()
}

func (c *multiChild) rebuild() {
	for _, l := range c.parent.listeners.snapshot() {
		l.TextureImagesChanged(c.parent, nil, nil)
	}
}

// Child modes are ignored inside a MultiTexture; its own mode list applies.
func (c *multiChild) TextureParamsChanged(int, TextureNode, StageParams) {}

func (c *multiChild) TextureParamsChangedAll(TextureNode, []StageParams) {}

// TextureProperties overrides the sampling of a texture.
type TextureProperties struct {
	mu    sync.Mutex
	state NodeState

	BoundaryS, BoundaryT, BoundaryR render.BoundaryMode
	MinFilter, MagFilter            render.Filter
	AnisotropicDegree               float32
	GenerateMipMaps                 bool
	BorderColor                     Color
	BorderOpacity                   float32
}

// NewTextureProperties returns wrapping, fastest-filtered sampling.
func NewTextureProperties() *TextureProperties {
	return &TextureProperties{
		state:             StateUnderConstruction,
		BoundaryS:         render.BoundaryWrap,
		BoundaryT:         render.BoundaryWrap,
		BoundaryR:         render.BoundaryWrap,
		MinFilter:         render.FilterFastest,
		MagFilter:         render.FilterFastest,
		AnisotropicDegree: 1,
	}
}

func (p *TextureProperties) Role() NodeRole { return RoleTextureProperties }

func (p *TextureProperties) State() NodeState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *TextureProperties) SetupFinished() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = StateLive
}

// Validate checks the field domains.
func (p *TextureProperties) Validate() error {
	if p.AnisotropicDegree < 1 {
		return &FieldValueError{Node: "TextureProperties", Field: "anisotropicDegree", Value: p.AnisotropicDegree, Want: "must be >= 1"}
	}
	if err := checkColor("TextureProperties", "borderColor", p.BorderColor); err != nil {
		return err
	}
	return checkUnit("TextureProperties", "borderOpacity", p.BorderOpacity)
}

// Sampling converts the properties to render sampling settings.
func (p *TextureProperties) Sampling() render.Sampling {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := render.Sampling{
		BoundaryS:   p.BoundaryS,
		BoundaryT:   p.BoundaryT,
		BoundaryR:   p.BoundaryR,
		MinFilter:   p.MinFilter,
		MagFilter:   p.MagFilter,
		MipMaps:     p.GenerateMipMaps,
		BorderColor: mgl32.Vec4{p.BorderColor.R, p.BorderColor.G, p.BorderColor.B, p.BorderOpacity},
	}
	if p.AnisotropicDegree > 1 {
		s.Anisotropic = render.AnisotropicSingle
		s.AnisotropicDegree = p.AnisotropicDegree
	}
	return s
}
