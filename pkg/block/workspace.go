package block

import (
	"io"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/blockstack/pkg/clock"
	"github.com/matzehuels/blockstack/pkg/config"
	bserrors "github.com/matzehuels/blockstack/pkg/errors"
	"github.com/matzehuels/blockstack/pkg/geom"
	"github.com/matzehuels/blockstack/pkg/surface"
)

// Workspace is the arena that owns every block, the connection databases,
// the canvas element and the shared drag surface.
type Workspace struct {
	id     string
	cfg    config.Config
	logger *log.Logger
	clock  clock.Clock
	bus    EventBus
	layout LayoutEngine
	sum    Summarizer
	rng    *rand.Rand

	blocks    map[string]*Block
	topBlocks []string
	dbs       map[ConnectionType]*ConnectionDB

	canvas      *surface.Element
	dragSurface *surface.DragSurface

	selection Selection
	drag      DragContext
	markers   []Marker

	group          string
	eventsDisabled int

	resizesEnabled bool
	resizes        int
	bounds         geom.Rect
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(ws *Workspace) {
		if l != nil {
			ws.logger = l
		}
	}
}

// WithClock sets the clock used for deferred work. The default is a
// virtual clock starting at the Unix epoch.
func WithClock(c clock.Clock) Option {
	return func(ws *Workspace) {
		if c != nil {
			ws.clock = c
		}
	}
}

// WithEventBus sets the event bus.
func WithEventBus(bus EventBus) Option {
	return func(ws *Workspace) {
		if bus != nil {
			ws.bus = bus
		}
	}
}

// WithLayoutEngine sets the layout engine. The default is [FixedLayout].
func WithLayoutEngine(e LayoutEngine) Option {
	return func(ws *Workspace) {
		if e != nil {
			ws.layout = e
		}
	}
}

// WithSummarizer sets the function that builds collapsed summaries.
func WithSummarizer(s Summarizer) Option {
	return func(ws *Workspace) {
		if s != nil {
			ws.sum = s
		}
	}
}

// WithID sets the workspace id.
func WithID(id string) Option {
	return func(ws *Workspace) {
		if id != "" {
			ws.id = id
		}
	}
}

// NewWorkspace creates an empty workspace. The configuration is validated
// and defaulted first.
func NewWorkspace(cfg config.Config, opts ...Option) (*Workspace, error) {
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	ws := &Workspace{
		id:             uuid.NewString(),
		cfg:            cfg,
		logger:         log.New(io.Discard),
		bus:            nopBus{},
		layout:         FixedLayout{},
		sum:            DefaultSummary,
		rng:            rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		blocks:         make(map[string]*Block),
		dbs:            make(map[ConnectionType]*ConnectionDB, 4),
		resizesEnabled: true,
	}
	for _, t := range []ConnectionType{InputValue, OutputValue, NextStatement, PreviousStatement} {
		ws.dbs[t] = &ConnectionDB{}
	}
	for _, opt := range opts {
		opt(ws)
	}
	if ws.clock == nil {
		ws.clock = clock.NewVirtual(time.Time{})
	}
	if !cfg.Host.Headless {
		ws.canvas = surface.NewElement("canvas")
		if cfg.DragSurface {
			ws.dragSurface = surface.NewDragSurface()
			ws.dragSurface.SetScale(cfg.Scale)
		}
	}
	ws.selection.ws = ws
	return ws, nil
}

// ID returns the workspace id.
func (ws *Workspace) ID() string { return ws.id }

// Config returns the workspace configuration.
func (ws *Workspace) Config() config.Config { return ws.cfg }

// Logger returns the workspace logger.
func (ws *Workspace) Logger() *log.Logger { return ws.logger }

// Clock returns the clock deferred work is scheduled on.
func (ws *Workspace) Clock() clock.Clock { return ws.clock }

// Canvas returns the root element blocks are drawn into, or nil when
// headless.
func (ws *Workspace) Canvas() *surface.Element { return ws.canvas }

// DragSurface returns the shared drag overlay, or nil when disabled.
func (ws *Workspace) DragSurface() *surface.DragSurface { return ws.dragSurface }

// Headless reports whether the workspace has no rendering surface.
func (ws *Workspace) Headless() bool { return ws.canvas == nil }

// IsDragging reports whether a drag gesture is in progress.
func (ws *Workspace) IsDragging() bool { return ws.drag.active }

// SetDragging marks a drag gesture as started or finished without moving
// any block. Hosts that implement their own gestures use it; [Dragger]
// manages the flag itself.
func (ws *Workspace) SetDragging(active bool) {
	ws.drag.active = active
	if !active {
		ws.drag.reset()
	}
}

// Drag returns the current drag context.
func (ws *Workspace) Drag() *DragContext { return &ws.drag }

// Selection returns the selection state.
func (ws *Workspace) Selection() *Selection { return &ws.selection }

// =============================================================================
// Arena
// =============================================================================

// Block returns the live block with the given id, or nil.
func (ws *Workspace) Block(id string) *Block { return ws.blocks[id] }

// Len returns the number of live blocks.
func (ws *Workspace) Len() int { return len(ws.blocks) }

// TopBlocks returns the blocks without a parent, in creation order.
func (ws *Workspace) TopBlocks() []*Block {
	out := make([]*Block, 0, len(ws.topBlocks))
	for _, id := range ws.topBlocks {
		if b := ws.blocks[id]; b != nil {
			out = append(out, b)
		}
	}
	return out
}

// AllBlocks returns every block, each top block followed by its
// descendants in depth-first order.
func (ws *Workspace) AllBlocks() []*Block {
	var out []*Block
	for _, b := range ws.TopBlocks() {
		out = append(out, b.Descendants()...)
	}
	return out
}

func (ws *Workspace) addTopBlock(b *Block) {
	if !slices.Contains(ws.topBlocks, b.id) {
		ws.topBlocks = append(ws.topBlocks, b.id)
	}
}

func (ws *Workspace) removeTopBlock(b *Block) {
	ws.topBlocks = slices.DeleteFunc(ws.topBlocks, func(id string) bool { return id == b.id })
}

// ConnectionDB returns the database indexing tracked connections of type t.
func (ws *Workspace) ConnectionDB(t ConnectionType) *ConnectionDB { return ws.dbs[t] }

// =============================================================================
// Rendering
// =============================================================================

// RenderAll renders every block leaves first without bubbling, then
// resizes the content bounds once.
func (ws *Workspace) RenderAll() error {
	if ws.Headless() {
		return bserrors.New(bserrors.ErrCodeHeadless, "workspace %s has no rendering surface", ws.id)
	}
	all := ws.AllBlocks()
	prev := ws.resizesEnabled
	ws.resizesEnabled = false
	defer func() { ws.resizesEnabled = prev }()
	for i := len(all) - 1; i >= 0; i-- {
		if err := all[i].Render(false); err != nil {
			return err
		}
	}
	ws.resizesEnabled = prev
	ws.ResizeContents()
	return nil
}

// ResizeContents recomputes the bounding box of all rendered top blocks.
// It does nothing while resizes are disabled (during a drag).
func (ws *Workspace) ResizeContents() {
	if !ws.resizesEnabled || ws.Headless() {
		return
	}
	ws.resizes++
	var r geom.Rect
	for _, b := range ws.TopBlocks() {
		if !b.rendered {
			continue
		}
		xy := b.Position()
		h, w := b.HeightWidth()
		r = r.Union(geom.Rect{Left: xy.X, Top: xy.Y, Right: xy.X + w, Bottom: xy.Y + h})
	}
	ws.bounds = r
}

// ContentBounds returns the bounds computed by the last resize.
func (ws *Workspace) ContentBounds() geom.Rect { return ws.bounds }

func (ws *Workspace) setResizesEnabled(enabled bool) {
	if ws.resizesEnabled == enabled {
		return
	}
	ws.resizesEnabled = enabled
	if enabled {
		ws.ResizeContents()
	}
}

// SetScale sets the zoom factor.
func (ws *Workspace) SetScale(scale float64) {
	if scale <= 0 {
		return
	}
	ws.cfg.Scale = scale
	if ws.dragSurface != nil {
		ws.dragSurface.SetScale(scale)
	}
}

// Scale returns the zoom factor.
func (ws *Workspace) Scale() float64 { return ws.cfg.Scale }

// Scroll sets the canvas pan offset in pixels.
func (ws *Workspace) Scroll(x, y float64) { ws.cfg.ScrollX, ws.cfg.ScrollY = x, y }

// ToScreen converts a workspace coordinate to screen pixels.
func (ws *Workspace) ToScreen(c geom.Coordinate) geom.Coordinate {
	return geom.Pt(c.X*ws.cfg.Scale+ws.cfg.ScrollX, c.Y*ws.cfg.Scale+ws.cfg.ScrollY)
}

// FromScreen converts screen pixels to a workspace coordinate.
func (ws *Workspace) FromScreen(c geom.Coordinate) geom.Coordinate {
	return geom.Pt((c.X-ws.cfg.ScrollX)/ws.cfg.Scale, (c.Y-ws.cfg.ScrollY)/ws.cfg.Scale)
}

// pixelsToUnits converts a pixel delta to workspace units.
func (ws *Workspace) pixelsToUnits(d geom.Coordinate) geom.Coordinate {
	return d.Scale(1 / ws.cfg.Scale)
}

// =============================================================================
// Events
// =============================================================================

// Group returns the current event group, or "".
func (ws *Workspace) Group() string { return ws.group }

// SetGroup sets the current event group.
func (ws *Workspace) SetGroup(g string) { ws.group = g }

// NewGroup starts a fresh event group and returns its id.
func (ws *Workspace) NewGroup() string {
	ws.group = uuid.NewString()
	return ws.group
}

func (ws *Workspace) fire(e Event) {
	if ws.eventsDisabled > 0 {
		return
	}
	ws.bus.Fire(e)
}

// withGroup runs fn with the event group temporarily set to g.
func (ws *Workspace) withGroup(g string, fn func()) {
	old := ws.group
	ws.group = g
	defer func() { ws.group = old }()
	fn()
}

// jitter returns a random bump offset in [0, BumpRandomness).
func (ws *Workspace) jitter() float64 {
	if ws.cfg.BumpRandomness <= 0 {
		return 0
	}
	return float64(ws.rng.IntN(ws.cfg.BumpRandomness))
}

// =============================================================================
// Markers
// =============================================================================

// Marker is a keyboard navigation marker attached to a block.
type Marker interface {
	BlockID() string
	Redraw()
}

// AddMarker registers a navigation marker.
func (ws *Workspace) AddMarker(m Marker) { ws.markers = append(ws.markers, m) }

// =============================================================================
// Selection and drag state
// =============================================================================

// Selection tracks the selected block of a workspace.
type Selection struct {
	ws *Workspace
	id string
}

// Selected returns the selected block, or nil.
func (s *Selection) Selected() *Block {
	if s.id == "" {
		return nil
	}
	return s.ws.blocks[s.id]
}

// Select selects b, raising its element above its siblings.
func (s *Selection) Select(b *Block) {
	if b == nil || b.isDead() || s.id == b.id {
		return
	}
	old := s.id
	s.id = b.id
	b.raise()
	s.ws.fire(&SelectEvent{OldID: old, NewID: b.id, Group: s.ws.group})
}

// Unselect clears the selection.
func (s *Selection) Unselect() {
	if s.id == "" {
		return
	}
	old := s.id
	s.id = ""
	s.ws.fire(&SelectEvent{OldID: old, Group: s.ws.group})
}

// DragContext holds the state of the current drag gesture.
type DragContext struct {
	active  bool
	blockID string
	conns   map[*Connection]struct{}
}

// BlockID returns the id of the dragged block, or "".
func (d *DragContext) BlockID() string { return d.blockID }

// Dragging reports whether c belongs to the dragged stack.
func (d *DragContext) Dragging(c *Connection) bool {
	_, ok := d.conns[c]
	return ok
}

func (d *DragContext) begin(b *Block) {
	d.active = true
	d.blockID = b.id
	d.conns = make(map[*Connection]struct{})
	for _, desc := range b.Descendants() {
		for _, c := range desc.Connections(true) {
			d.conns[c] = struct{}{}
		}
	}
}

func (d *DragContext) reset() {
	d.active = false
	d.blockID = ""
	d.conns = nil
}
