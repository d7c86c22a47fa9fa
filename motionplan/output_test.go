package motionplan

import (
	"encoding/json"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.viam.com/test"

	"go.viam.com/carplan/motionplan/bicycle"
	"go.viam.com/carplan/occupancy"
	"go.viam.com/carplan/spatialmath"
)

func smallSearch(t *testing.T) (*occupancy.Map, *bicycle.Model, *Tree, spatialmath.Path) {
	t.Helper()
	occ, err := occupancy.NewEmpty(100, 120, 0.1, nil)
	test.That(t, err, test.ShouldBeNil)
	model := bicycle.NewDefaultModel()

	tree := NewTree(spatialmath.NewPose(0, 0, 0), spatialmath.NewPose(3, 0.5, 0), 0)
	a := model.Advance(tree.Start(), 0, 1.5)
	idA, err := tree.Insert(0, a, tree.Goal(), 0, 1.5)
	test.That(t, err, test.ShouldBeNil)
	b := model.Advance(a, 0.1, 1.5)
	idB, err := tree.Insert(idA, b, tree.Goal(), 0.1, 1.5)
	test.That(t, err, test.ShouldBeNil)
	_, err = tree.Insert(0, model.Advance(tree.Start(), -0.2, 1), tree.Goal(), -0.2, 1)
	test.That(t, err, test.ShouldBeNil)

	path, err := tree.PathTo(idB)
	test.That(t, err, test.ShouldBeNil)
	return occ, model, tree, path
}

func TestDrawTree(t *testing.T) {
	occ, model, tree, path := smallSearch(t)

	img := DrawTree(occ, model, tree, path, nil)
	test.That(t, img.Bounds().Dx(), test.ShouldEqual, 240)
	test.That(t, img.Bounds().Dy(), test.ShouldEqual, 200)

	// the start marker sits at the map centre
	r, g, b, _ := img.At(120, 100).RGBA()
	test.That(t, r>>8, test.ShouldEqual, uint32(255))
	test.That(t, g>>8, test.ShouldEqual, uint32(0))
	test.That(t, b>>8, test.ShouldEqual, uint32(0))

	// far from anything the map background shows through
	test.That(t, color.GrayModel.Convert(img.At(5, 5)).(color.Gray).Y, test.ShouldEqual, uint8(255))

	crop := image.Rect(10, 20, 60, 50)
	cropped := DrawTree(occ, model, tree, nil, &DrawOptions{Scale: 3, Crop: &crop})
	test.That(t, cropped.Bounds().Dx(), test.ShouldEqual, 150)
	test.That(t, cropped.Bounds().Dy(), test.ShouldEqual, 90)
}

func TestToGeoJSON(t *testing.T) {
	_, model, tree, path := smallSearch(t)

	fc := ToGeoJSON(model, path, tree)
	test.That(t, fc.Features, test.ShouldHaveLength, 4)

	kinds := map[string]int{}
	for _, f := range fc.Features {
		kinds[f.Properties.MustString("kind")]++
	}
	test.That(t, kinds["tree"], test.ShouldEqual, 3)
	test.That(t, kinds["path"], test.ShouldEqual, 1)

	pathFeature := fc.Features[3]
	ls, ok := pathFeature.Geometry.(orb.LineString)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, ls, test.ShouldHaveLength, 1+2*exportArcSegments)
	test.That(t, ls[0], test.ShouldResemble, orb.Point{0, 0})
	end := path.End()
	test.That(t, ls[len(ls)-1][0], test.ShouldAlmostEqual, end.X)
	test.That(t, ls[len(ls)-1][1], test.ShouldAlmostEqual, end.Y)
	test.That(t, pathFeature.Properties.MustFloat64("length"), test.ShouldAlmostEqual, 3.)

	data, err := json.Marshal(fc)
	test.That(t, err, test.ShouldBeNil)
	decoded, err := geojson.UnmarshalFeatureCollection(data)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, decoded.Features, test.ShouldHaveLength, 4)
}

func TestSummarize(t *testing.T) {
	_, _, _, path := smallSearch(t)
	summary := Summarize(path)
	test.That(t, summary.Arcs, test.ShouldEqual, 2)
	test.That(t, summary.Length, test.ShouldAlmostEqual, 3.)
	test.That(t, summary.MeanStep, test.ShouldAlmostEqual, 1.5)
	test.That(t, summary.StdDevStep, test.ShouldAlmostEqual, 0.)
	test.That(t, summary.MedianStep, test.ShouldAlmostEqual, 1.5)
	test.That(t, summary.MaxAbsSteering, test.ShouldAlmostEqual, 0.1)
	test.That(t, summary.TotalTurn, test.ShouldAlmostEqual, 1.5*math.Tan(0.1)/bicycle.DefaultWheelbase)

	test.That(t, Summarize(path[:1]), test.ShouldResemble, PathSummary{})
	single := Summarize(path[:2])
	test.That(t, single.StdDevStep, test.ShouldEqual, 0.)
}
