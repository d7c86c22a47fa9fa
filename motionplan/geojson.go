package motionplan

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"go.viam.com/carplan/motionplan/bicycle"
	"go.viam.com/carplan/spatialmath"
)

// exported arcs are densified to this many line segments.
const exportArcSegments = 10

// ToGeoJSON exports a path and the trees it was found in as planar GeoJSON. Coordinates are
// world meters as [x, y], not longitude and latitude. The path is a single LineString feature
// with "kind": "path"; each tree edge is a LineString with "kind": "tree", its node ids and
// steering.
func ToGeoJSON(model *bicycle.Model, path spatialmath.Path, trees ...*Tree) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for segment, tree := range trees {
		if tree == nil {
			continue
		}
		for _, edge := range tree.Edges() {
			if edge.Node.IsRoot() {
				continue
			}
			f := geojson.NewFeature(arcLineString(model, edge.Parent.Pose, edge.Node.Arc(), nil))
			f.Properties["kind"] = "tree"
			f.Properties["segment"] = segment
			f.Properties["id"] = edge.Node.ID
			f.Properties["parent_id"] = edge.Parent.ID
			f.Properties["steering"] = edge.Node.Steering
			fc.Append(f)
		}
	}

	if len(path) > 0 {
		ls := orb.LineString{toOrb(path.Start())}
		for i := 1; i < len(path); i++ {
			if path[i].IsRoot() {
				ls = append(ls, toOrb(path[i].Pose))
				continue
			}
			ls = arcLineString(model, path[i-1].Pose, path[i], ls)
		}
		f := geojson.NewFeature(ls)
		f.Properties["kind"] = "path"
		f.Properties["length"] = path.Length()
		f.Properties["arcs"] = len(path)
		fc.Append(f)
	}
	return fc
}

// arcLineString appends the points along arc, excluding its start, to ls. A nil ls starts a
// new line at from.
func arcLineString(model *bicycle.Model, from spatialmath.Pose, arc spatialmath.Arc, ls orb.LineString) orb.LineString {
	poses := model.Interpolate(from, arc.Steering, arc.Length, exportArcSegments)
	if ls == nil {
		ls = orb.LineString{toOrb(from)}
	}
	for _, p := range poses[1:] {
		ls = append(ls, toOrb(p))
	}
	return ls
}

func toOrb(p spatialmath.Pose) orb.Point {
	return orb.Point{p.X, p.Y}
}

// MissionGeoJSON exports a mission's concatenated path and every segment tree.
func (mp *Planner) MissionGeoJSON(plan *MissionPlan) *geojson.FeatureCollection {
	trees := make([]*Tree, 0, len(plan.Segments))
	for _, seg := range plan.Segments {
		var noPath *NoPathError
		switch {
		case seg.Solution != nil:
			trees = append(trees, seg.Solution.Tree)
		case asNoPath(seg.Err, &noPath):
			trees = append(trees, noPath.Tree)
		default:
			trees = append(trees, nil)
		}
	}
	return ToGeoJSON(mp.model, plan.Path, trees...)
}
