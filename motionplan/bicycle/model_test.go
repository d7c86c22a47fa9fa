package bicycle

import (
	"math"
	"math/rand"
	"testing"

	"go.viam.com/test"

	"go.viam.com/carplan/spatialmath"
)

func TestAdvanceStraight(t *testing.T) {
	m := NewDefaultModel()
	start := spatialmath.NewPose(1, 2, math.Pi/4)
	for _, steering := range []float64{0, 1e-12, -1e-12} {
		end := m.Advance(start, steering, math.Sqrt2)
		test.That(t, end.X, test.ShouldAlmostEqual, 2.)
		test.That(t, end.Y, test.ShouldAlmostEqual, 3.)
		test.That(t, end.Theta, test.ShouldEqual, start.Theta)
	}
}

func TestAdvanceQuarterCircle(t *testing.T) {
	m := NewDefaultModel()
	steering := m.MaxSteering
	radius := m.TurningRadius(steering)
	test.That(t, radius, test.ShouldAlmostEqual, m.Wheelbase/math.Tan(steering))

	// a quarter of the circumference turns the heading by pi/2 and lands one radius ahead and left
	end := m.Advance(spatialmath.NewPose(0, 0, 0), steering, radius*math.Pi/2)
	test.That(t, end.X, test.ShouldAlmostEqual, radius, 1e-9)
	test.That(t, end.Y, test.ShouldAlmostEqual, radius, 1e-9)
	test.That(t, end.Theta, test.ShouldAlmostEqual, math.Pi/2, 1e-9)

	// turning right mirrors it
	end = m.Advance(spatialmath.NewPose(0, 0, 0), -steering, radius*math.Pi/2)
	test.That(t, end.X, test.ShouldAlmostEqual, radius, 1e-9)
	test.That(t, end.Y, test.ShouldAlmostEqual, -radius, 1e-9)
	test.That(t, end.Theta, test.ShouldAlmostEqual, -math.Pi/2, 1e-9)
}

func TestAdvanceAdditive(t *testing.T) {
	m := NewDefaultModel()
	rseed := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		start := spatialmath.NewPose(rseed.Float64()*20-10, rseed.Float64()*20-10, rseed.Float64()*4*math.Pi-2*math.Pi)
		steering := (rseed.Float64()*2 - 1) * m.MaxSteering
		d1 := rseed.Float64() * 4
		d2 := rseed.Float64() * 4

		whole := m.Advance(start, steering, d1+d2)
		split := m.Advance(m.Advance(start, steering, d1), steering, d2)
		test.That(t, spatialmath.PoseAlmostEqual(whole, split, 1e-7), test.ShouldBeTrue)
	}
}

func TestAdvanceHeadingNotWrapped(t *testing.T) {
	m := NewDefaultModel()
	// driving several full circles keeps accumulating heading
	circumference := 2 * math.Pi * m.MinTurningRadius()
	end := m.Advance(spatialmath.NewPose(0, 0, 0), m.MaxSteering, 3*circumference)
	test.That(t, end.Theta, test.ShouldAlmostEqual, 6*math.Pi, 1e-9)
	test.That(t, end.X, test.ShouldAlmostEqual, 0., 1e-9)
	test.That(t, end.Y, test.ShouldAlmostEqual, 0., 1e-9)
}

func TestInterpolate(t *testing.T) {
	m := NewDefaultModel()
	start := spatialmath.NewPose(0, 0, 0.3)
	poses := m.Interpolate(start, 0.1, 2, 10)
	test.That(t, poses, test.ShouldHaveLength, 11)
	test.That(t, poses[0], test.ShouldResemble, start)
	test.That(t, spatialmath.PoseAlmostEqual(poses[10], m.Advance(start, 0.1, 2), 1e-12), test.ShouldBeTrue)
	for j := 1; j < len(poses); j++ {
		test.That(t, poses[j].Distance(poses[j-1]), test.ShouldBeLessThanOrEqualTo, 0.2+1e-9)
	}

	test.That(t, m.Interpolate(start, 0, 1, 0), test.ShouldHaveLength, 2)
}

func TestSteeringCandidates(t *testing.T) {
	m := NewDefaultModel()
	candidates := m.SteeringCandidates(11)
	test.That(t, candidates, test.ShouldHaveLength, 11)
	test.That(t, candidates[0], test.ShouldAlmostEqual, -m.MaxSteering)
	test.That(t, candidates[10], test.ShouldAlmostEqual, m.MaxSteering)
	test.That(t, candidates[5], test.ShouldEqual, 0.)
	for k := 1; k < len(candidates); k++ {
		test.That(t, candidates[k]-candidates[k-1], test.ShouldAlmostEqual, 0.04)
	}

	test.That(t, m.SteeringCandidates(1), test.ShouldResemble, []float64{0})
	test.That(t, m.SteeringCandidates(2), test.ShouldResemble, []float64{-m.MaxSteering, m.MaxSteering})
}

func TestModelValidate(t *testing.T) {
	_, err := NewModel(0, 0.2)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewModel(math.NaN(), 0.2)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewModel(0.3, -0.1)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewModel(0.3, math.Pi/2)
	test.That(t, err, test.ShouldNotBeNil)
	m, err := NewModel(0.3, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, math.IsInf(m.MinTurningRadius(), 1), test.ShouldBeTrue)
}
