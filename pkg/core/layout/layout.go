// Package layout positions the visible nodes of a GPU hierarchy on four
// fixed rows.
//
// # Algorithm
//
// Layout runs bottom-up over a [hierarchy.Forest]:
//
//  1. Every unit on the project row (a project or a collapsed group) gets
//     a slot at SpacingX intervals, and the row is centered within the
//     viewport width.
//  2. Each business unit, or business-unit group, is centered at the
//     midpoint of its children's extreme x values.
//  3. Each organization is centered at the midpoint of the extremes of its
//     direct projects and business units.
//  4. The root is centered over the organizations.
//
// Centering uses the mean of the extremes, never a weighted mean, so a
// one-child subtree and a ten-child subtree both sit over their own middle.
//
// Every row has a fixed y. Four background bands span the wider of the
// project row and the organization row, plus a margin.
//
// Layout is a pure function of the forest shape: identical visible sets
// give identical positions.
package layout

import (
	"github.com/matzehuels/gpuviz/pkg/core/hierarchy"
)

// Row is one of the four fixed diagram rows.
type Row int

const (
	RowRoot Row = iota
	RowOrganizations
	RowBusinessUnits
	RowProjects
)

// Rows lists the rows top to bottom.
var Rows = []Row{RowRoot, RowOrganizations, RowBusinessUnits, RowProjects}

func (r Row) String() string {
	switch r {
	case RowRoot:
		return "root"
	case RowOrganizations:
		return "organizations"
	case RowBusinessUnits:
		return "business-units"
	case RowProjects:
		return "projects"
	default:
		return "unknown"
	}
}

// BandID returns the node id of the row's background band.
func (r Row) BandID() string {
	if r == RowRoot {
		return "bg-root"
	}
	if r == RowOrganizations {
		return "bg-orgs"
	}
	return "bg-" + r.String()
}

// Label returns the human-readable band title.
func (r Row) Label() string {
	switch r {
	case RowRoot:
		return "Root Cluster"
	case RowOrganizations:
		return "Organizations"
	case RowBusinessUnits:
		return "Business Units"
	case RowProjects:
		return "Projects"
	default:
		return ""
	}
}

// Point is a node's top-left anchor.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Band is a background rectangle behind one row.
type Band struct {
	Row    Row
	X, Y   float64
	Width  float64
	Height float64
}

// Layout is the computed geometry of one forest.
type Layout struct {
	Config Config

	// Positions maps every visible node id (groups included) to its anchor.
	Positions map[string]Point
	// Rows maps every visible node id to the row it sits on.
	Rows map[string]Row

	// ProjectSlots is the number of units on the project row.
	ProjectSlots int
	// ProjectsStartX is the x of the first project slot.
	ProjectsStartX float64
	// OrgMinX and OrgMaxX bound the organization row; both are zero when
	// there are no organizations.
	OrgMinX, OrgMaxX float64

	Bands []Band
}

// Position returns the anchor of id.
func (l *Layout) Position(id string) (Point, bool) {
	p, ok := l.Positions[id]
	return p, ok
}

// X returns the x coordinate of id, or 0 when id is not placed.
func (l *Layout) X(id string) float64 {
	return l.Positions[id].X
}

// ProjectRowWidth is the horizontal extent taken by project slots.
func (l *Layout) ProjectRowWidth() float64 {
	return float64(l.ProjectSlots) * l.Config.SpacingX
}

// Width returns the band width, the widest extent of the diagram.
func (l *Layout) Width() float64 {
	if len(l.Bands) == 0 {
		return 0
	}
	return l.Bands[0].Width
}

// Height returns the total height covered by the bands.
func (l *Layout) Height() float64 {
	return l.Config.Height()
}

// Compute lays out f.
func Compute(f *hierarchy.Forest, opts ...Option) *Layout {
	cfg := Resolve(opts...)
	l := &Layout{
		Config:    cfg,
		Positions: make(map[string]Point),
		Rows:      make(map[string]Row),
	}

	projectRow := f.ProjectRow()
	l.ProjectSlots = len(projectRow)
	l.ProjectsStartX = cfg.ViewportWidth/2 - l.ProjectRowWidth()/2
	for i, id := range projectRow {
		l.place(id, RowProjects, l.ProjectsStartX+float64(i)*cfg.SpacingX)
	}

	var orgXs []float64
	for _, vo := range f.Organizations {
		x := l.placeOrganization(vo)
		orgXs = append(orgXs, x)
	}

	rootX := cfg.fallbackX()
	if len(orgXs) > 0 {
		l.OrgMinX, l.OrgMaxX = extremes(orgXs)
		rootX = (l.OrgMinX + l.OrgMaxX) / 2
	}
	if f.Cluster != nil {
		l.place(f.Cluster.ID, RowRoot, rootX)
	}

	l.Bands = l.bands(len(orgXs) > 0)
	return l
}

// placeOrganization centers vo's business-unit row entries and then vo
// itself, returning the organization's x.
func (l *Layout) placeOrganization(vo *hierarchy.VisibleOrganization) float64 {
	var childXs []float64

	if vo.Collapsed {
		if g := vo.ProjectGroup; g != nil {
			gx := l.X(g.ID)
			childXs = append(childXs, gx)
			if bg := vo.BusinessUnitGroup; bg != nil {
				l.place(bg.ID, RowBusinessUnits, gx)
				childXs = append(childXs, gx)
			}
		}
	} else {
		for _, p := range vo.Projects {
			childXs = append(childXs, l.X(p.ID))
		}
		for _, vb := range vo.BusinessUnits {
			x, ok := l.center(vb.ChildIDs())
			if !ok {
				continue
			}
			l.place(vb.Unit.ID, RowBusinessUnits, x)
			childXs = append(childXs, x)
		}
	}

	x := l.Config.fallbackX()
	if len(childXs) > 0 {
		lo, hi := extremes(childXs)
		x = (lo + hi) / 2
	}
	l.place(vo.Org.ID, RowOrganizations, x)
	return x
}

func (l *Layout) center(ids []string) (float64, bool) {
	var xs []float64
	for _, id := range ids {
		if p, ok := l.Positions[id]; ok {
			xs = append(xs, p.X)
		}
	}
	if len(xs) == 0 {
		return 0, false
	}
	lo, hi := extremes(xs)
	return (lo + hi) / 2, true
}

func (l *Layout) place(id string, r Row, x float64) {
	l.Positions[id] = Point{X: x, Y: l.Config.NodeY(r)}
	l.Rows[id] = r
}

// bands sizes the four background bands. An empty organization row
// contributes no width.
func (l *Layout) bands(hasOrgs bool) []Band {
	cfg := l.Config
	width := l.ProjectRowWidth()
	if hasOrgs {
		width = max(width, l.OrgMaxX-l.OrgMinX+cfg.CardWidth)
	}
	width += cfg.BandMargin
	startX := cfg.ViewportWidth/2 - width/2

	bands := make([]Band, 0, len(Rows))
	for _, r := range Rows {
		bands = append(bands, Band{
			Row:    r,
			X:      startX,
			Y:      cfg.BandY(r),
			Width:  width,
			Height: cfg.BandHeight,
		})
	}
	return bands
}

func extremes(xs []float64) (lo, hi float64) {
	lo, hi = xs[0], xs[0]
	for _, x := range xs[1:] {
		lo = min(lo, x)
		hi = max(hi, x)
	}
	return lo, hi
}
