package motionplan

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"go.viam.com/carplan/motionplan/bicycle"
	"go.viam.com/carplan/occupancy"
	"go.viam.com/carplan/spatialmath"
)

const (
	defaultDrawScale       = 2
	defaultDrawArcSegments = 10
	defaultDrawMarkRadius  = 6.
)

var (
	treeColor = color.RGBA{0, 0, 255, 255}
	pathColor = color.RGBA{0, 0, 255, 255}
	markColor = color.RGBA{255, 0, 0, 255}
)

// DrawOptions controls how a search is rendered over its map.
type DrawOptions struct {
	// Pixels per map cell.
	Scale int
	// Region of the unscaled map to keep. Nil keeps the whole map.
	Crop *image.Rectangle
	// Line widths in pixels.
	TreeWidth float64
	PathWidth float64
}

func (opts *DrawOptions) withDefaults() DrawOptions {
	out := DrawOptions{Scale: defaultDrawScale, TreeWidth: 1, PathWidth: 3}
	if opts == nil {
		return out
	}
	if opts.Scale > 0 {
		out.Scale = opts.Scale
	}
	if opts.TreeWidth > 0 {
		out.TreeWidth = opts.TreeWidth
	}
	if opts.PathWidth > 0 {
		out.PathWidth = opts.PathWidth
	}
	out.Crop = opts.Crop
	return out
}

// treeDrawer renders arcs onto a scaled copy of a map. Map rows run down the image and columns
// across it, so world x is the image's vertical axis.
type treeDrawer struct {
	dc    *gg.Context
	occ   *occupancy.Map
	model *bicycle.Model
	opts  DrawOptions
}

func newTreeDrawer(occ *occupancy.Map, model *bicycle.Model, opts *DrawOptions) *treeDrawer {
	o := opts.withDefaults()
	background := imaging.Resize(occ.Image(), occ.Cols()*o.Scale, occ.Rows()*o.Scale, imaging.NearestNeighbor)
	return &treeDrawer{dc: gg.NewContextForImage(background), occ: occ, model: model, opts: o}
}

func (td *treeDrawer) pixel(p spatialmath.Pose) (float64, float64) {
	origin := td.occ.Origin()
	res := td.occ.Resolution()
	scale := float64(td.opts.Scale)
	return scale * (p.Y/res + origin.Col + 0.5), scale * (p.X/res + origin.Row + 0.5)
}

func (td *treeDrawer) drawArc(from spatialmath.Pose, arc spatialmath.Arc, width float64, c color.Color) {
	poses := td.model.Interpolate(from, arc.Steering, arc.Length, defaultDrawArcSegments)
	td.dc.SetColor(c)
	td.dc.SetLineWidth(width)
	for j := 1; j < len(poses); j++ {
		x1, y1 := td.pixel(poses[j-1])
		x2, y2 := td.pixel(poses[j])
		td.dc.DrawLine(x1, y1, x2, y2)
		td.dc.Stroke()
	}
}

func (td *treeDrawer) drawTree(tree *Tree) {
	for _, edge := range tree.Edges() {
		if edge.Node.IsRoot() {
			continue
		}
		td.drawArc(edge.Parent.Pose, edge.Node.Arc(), td.opts.TreeWidth, treeColor)
	}
}

// drawPath draws each arc from the pose before it. A zero-length arc starts a new segment.
func (td *treeDrawer) drawPath(path spatialmath.Path) {
	for i := 1; i < len(path); i++ {
		if path[i].IsRoot() {
			continue
		}
		td.drawArc(path[i-1].Pose, path[i], td.opts.PathWidth, pathColor)
	}
}

func (td *treeDrawer) mark(p spatialmath.Pose) {
	x, y := td.pixel(p)
	td.dc.SetColor(markColor)
	td.dc.DrawCircle(x, y, defaultDrawMarkRadius)
	td.dc.Fill()
}

func (td *treeDrawer) image() image.Image {
	img := td.dc.Image()
	if td.opts.Crop == nil {
		return img
	}
	s := td.opts.Scale
	crop := image.Rect(td.opts.Crop.Min.X*s, td.opts.Crop.Min.Y*s, td.opts.Crop.Max.X*s, td.opts.Crop.Max.Y*s)
	return imaging.Crop(img, crop)
}

// DrawTree renders an explored tree, and the path found through it if any, over the map the
// tree was grown on. The ends of the path are marked.
func DrawTree(occ *occupancy.Map, model *bicycle.Model, tree *Tree, path spatialmath.Path, opts *DrawOptions) image.Image {
	td := newTreeDrawer(occ, model, opts)
	if tree != nil {
		td.drawTree(tree)
	}
	if len(path) > 0 {
		td.drawPath(path)
		td.mark(path.Start())
		td.mark(path.End())
	}
	return td.image()
}

// DrawMission renders every segment tree of a mission and the concatenated path.
func (mp *Planner) DrawMission(plan *MissionPlan, opts *DrawOptions) image.Image {
	td := newTreeDrawer(mp.occ, mp.model, opts)
	for _, seg := range plan.Segments {
		var noPath *NoPathError
		if seg.Solution != nil {
			td.drawTree(seg.Solution.Tree)
		} else if asNoPath(seg.Err, &noPath) {
			td.drawTree(noPath.Tree)
		}
	}
	td.drawPath(plan.Path)
	for _, seg := range plan.Segments {
		td.mark(seg.Start)
		td.mark(seg.Goal)
	}
	return td.image()
}
