package camera

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrTooFewWaypoints is returned when a flight path has fewer than two distinct waypoints.
var ErrTooFewWaypoints = errors.New("camera: flight path needs at least two distinct waypoints")

// FlightPath is a piecewise-linear route through world space, parameterized by distance
// travelled. It drives a CameraController for headless runs and benchmarks.
type FlightPath struct {
	points []mgl32.Vec3
	// cumulative[i] is the distance from points[0] to points[i]
	cumulative []float32
	loop       bool
}

// NewFlightPath builds a path through the given waypoints. Consecutive duplicates are dropped.
//
// Parameters:
//   - loop: when true, distances past the end wrap around and the path closes back to its start
//   - waypoints: world-space points in travel order
//
// Returns:
//   - *FlightPath: the path
//   - error: ErrTooFewWaypoints when fewer than two distinct points remain
func NewFlightPath(loop bool, waypoints ...mgl32.Vec3) (*FlightPath, error) {
	points := make([]mgl32.Vec3, 0, len(waypoints)+1)
	for _, p := range waypoints {
		if len(points) > 0 && points[len(points)-1].ApproxEqual(p) {
			continue
		}
		points = append(points, p)
	}
	if len(points) < 2 {
		return nil, ErrTooFewWaypoints
	}
	if loop && !points[0].ApproxEqual(points[len(points)-1]) {
		points = append(points, points[0])
	}

	cumulative := make([]float32, len(points))
	for i := 1; i < len(points); i++ {
		cumulative[i] = cumulative[i-1] + points[i].Sub(points[i-1]).Len()
	}
	return &FlightPath{points: points, cumulative: cumulative, loop: loop}, nil
}

// Length returns the total distance of the path.
func (p *FlightPath) Length() float32 {
	return p.cumulative[len(p.cumulative)-1]
}

// At returns the position and unit travel direction at a distance along the path.
// Distances are clamped to the ends, or wrapped for a looping path.
//
// Parameters:
//   - distance: distance travelled from the first waypoint
//
// Returns:
//   - mgl32.Vec3: the position
//   - mgl32.Vec3: the unit direction of the segment containing the position
func (p *FlightPath) At(distance float32) (mgl32.Vec3, mgl32.Vec3) {
	total := p.Length()
	switch {
	case p.loop:
		distance = float32(math.Mod(float64(distance), float64(total)))
		if distance < 0 {
			distance += total
		}
	case distance < 0:
		distance = 0
	case distance > total:
		distance = total
	}

	seg := 0
	for seg < len(p.points)-2 && p.cumulative[seg+1] < distance {
		seg++
	}
	from, to := p.points[seg], p.points[seg+1]
	span := p.cumulative[seg+1] - p.cumulative[seg]
	t := (distance - p.cumulative[seg]) / span
	dir := to.Sub(from).Normalize()
	return from.Add(to.Sub(from).Mul(t)), dir
}

// Drive moves a controller to a distance along the path, facing the direction of travel.
//
// Parameters:
//   - ctrl: the controller to move
//   - distance: distance travelled from the first waypoint
func (p *FlightPath) Drive(ctrl CameraController, distance float32) {
	pos, dir := p.At(distance)
	ctrl.SetPosition(pos)
	ctrl.LookAt(pos.Add(dir))
}
