// Package profile extracts line profiles from square intensity maps along a
// straight path, and measures them.
package profile

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/bob-anderson-ok/wavesim/ndarray"
)

// PathPoint is a sample position along the path in pixel coordinates
// (x = column, y = row) and its distance from the path start.
type PathPoint struct {
	X                 float64
	Y                 float64
	DistanceFromStart float64 // pixels
}

// Point is one sample of an extracted profile.
type Point struct {
	Distance  float64 // from path start, in the units of the pixel size given to Extract
	Intensity float64
}

// Path is a straight line across a Size x Size map.
type Path struct {
	// Input parameters
	AngleDegrees float64 // direction of travel, measured CCW from the +y (row) axis
	OffsetPx     float64 // perpendicular offset of the line from the map center
	Size         int     // map width in pixels

	// Computed values
	StartX, StartY float64
	EndX, EndY     float64
	Direction      string
	SamplePoints   []PathPoint
}

// annotatedPoint is an intersection with the map border.
type annotatedPoint struct {
	X, Y     float64
	Position string // "top", "bottom", "left", or "right"
}

// ErrNoIntersection is returned when the path does not cross the map.
var ErrNoIntersection = errors.New("line does not intersect square")

// ErrNoHalfMaximum is returned by FWHM when the profile does not fall below
// half of its peak on both sides.
var ErrNoHalfMaximum = errors.New("profile does not cross half maximum on both sides")

// ComputeEndpoints finds where the path enters and leaves the map.
func (p *Path) ComputeEndpoints() error {
	if p.Size < 2 {
		return fmt.Errorf("%w: map of %d pixels", ErrNoIntersection, p.Size)
	}
	theta := p.AngleDegrees * math.Pi / 180.0
	p1, p2, dx, dy, err := pathSquareIntersections(float64(p.Size-1), theta, p.OffsetPx)
	if err != nil {
		return err
	}

	// Entry point first.
	if (p2.X-p1.X)*dx+(p2.Y-p1.Y)*dy < 0 {
		p1, p2 = p2, p1
	}
	// Move the origin from the center to pixel (0, 0).
	c := float64(p.Size-1) / 2.0
	p.StartX, p.StartY = p1.X+c, p1.Y+c
	p.EndX, p.EndY = p2.X+c, p2.Y+c
	p.Direction = p1.Position + " to " + p2.Position
	p.SamplePoints = nil
	return nil
}

// pathSquareIntersections finds where a line intersects a square centered at origin.
// w: square width
// theta: angle of line measured CCW from y-axis (radians)
// d: perpendicular distance from origin to the line
// Returns the two intersection points and the direction vector (dx, dy).
func pathSquareIntersections(w, theta, d float64) (annotatedPoint, annotatedPoint, float64, float64, error) {
	halfW := w / 2.0

	dx := math.Sin(theta)
	dy := math.Cos(theta)

	// normal, direction rotated 90 degrees clockwise
	nx := dy
	ny := -dx

	// Line parametric form: x = x0 + t*dx, y = y0 + t*dy
	x0 := d * nx
	y0 := d * ny

	var intersections []annotatedPoint

	if math.Abs(dx) > 1e-12 {
		t := (halfW - x0) / dx
		if y := y0 + t*dy; y >= -halfW && y <= halfW {
			intersections = append(intersections, annotatedPoint{halfW, y, "right"})
		}
		t = (-halfW - x0) / dx
		if y := y0 + t*dy; y >= -halfW && y <= halfW {
			intersections = append(intersections, annotatedPoint{-halfW, y, "left"})
		}
	}
	if math.Abs(dy) > 1e-12 {
		t := (halfW - y0) / dy
		if x := x0 + t*dx; x >= -halfW && x <= halfW {
			intersections = append(intersections, annotatedPoint{x, halfW, "bottom"})
		}
		t = (-halfW - y0) / dy
		if x := x0 + t*dx; x >= -halfW && x <= halfW {
			intersections = append(intersections, annotatedPoint{x, -halfW, "top"})
		}
	}

	// corners are found twice
	intersections = removeDuplicatePoints(intersections, 1e-9)

	if len(intersections) < 2 {
		return annotatedPoint{}, annotatedPoint{}, dx, dy, ErrNoIntersection
	}
	return intersections[0], intersections[1], dx, dy, nil
}

func removeDuplicatePoints(pts []annotatedPoint, tol float64) []annotatedPoint {
	var result []annotatedPoint
	for _, p := range pts {
		duplicate := false
		for _, r := range result {
			if math.Abs(p.X-r.X) < tol && math.Abs(p.Y-r.Y) < tol {
				duplicate = true
				break
			}
		}
		if !duplicate {
			result = append(result, p)
		}
	}
	return result
}

// ComputeSamplePoints samples the path at 1-pixel intervals, both ends included.
func (p *Path) ComputeSamplePoints() {
	xLength := p.EndX - p.StartX
	yLength := p.EndY - p.StartY
	pathLength := math.Hypot(xLength, yLength)

	p.SamplePoints = nil
	if pathLength == 0 {
		p.SamplePoints = append(p.SamplePoints, PathPoint{X: p.StartX, Y: p.StartY})
		return
	}
	dXPerStep := xLength / pathLength
	dYPerStep := yLength / pathLength

	n := int(math.Floor(pathLength+1e-9)) + 1
	for i := 0; i < n; i++ {
		k := float64(i)
		p.SamplePoints = append(p.SamplePoints, PathPoint{
			X:                 p.StartX + k*dXPerStep,
			Y:                 p.StartY + k*dYPerStep,
			DistanceFromStart: k,
		})
	}
}

// interpolate performs bilinear interpolation of a 2D map at (x, y), clamping
// to the map edges.
func interpolate(m *ndarray.Real, x, y float64) float64 {
	h, w := m.Shape[0], m.Shape[1]
	x = math.Max(0, math.Min(x, float64(w-1)))
	y = math.Max(0, math.Min(y, float64(h-1)))

	x0 := min(int(x), w-2)
	y0 := min(int(y), h-2)
	x0, y0 = max(x0, 0), max(y0, 0)
	x1 := min(x0+1, w-1)
	y1 := min(y0+1, h-1)

	xFrac := x - float64(x0)
	yFrac := y - float64(y0)

	v00 := m.Data[y0*w+x0]
	v01 := m.Data[y0*w+x1]
	v10 := m.Data[y1*w+x0]
	v11 := m.Data[y1*w+x1]

	v0 := v00*(1-xFrac) + v01*xFrac
	v1 := v10*(1-xFrac) + v11*xFrac
	return v0*(1-yFrac) + v1*yFrac
}

func checkMap(m *ndarray.Real, p *Path) error {
	if m.Rank() != 2 || m.Shape[0] != p.Size || m.Shape[1] != p.Size {
		return fmt.Errorf("%w: map %v is not %dx%d", ndarray.ErrShapeMismatch, m.Shape, p.Size, p.Size)
	}
	return nil
}

// Extract samples the intensity map along the path. dx is the pixel size;
// distances in the result are in its units. Endpoints and sample points are
// computed when missing.
func Extract(intensity *ndarray.Real, p *Path, dx float64) ([]Point, error) {
	if err := checkMap(intensity, p); err != nil {
		return nil, err
	}
	if p.Direction == "" {
		if err := p.ComputeEndpoints(); err != nil {
			return nil, err
		}
	}
	if len(p.SamplePoints) == 0 {
		p.ComputeSamplePoints()
	}

	points := make([]Point, len(p.SamplePoints))
	for i, pt := range p.SamplePoints {
		points[i] = Point{
			Distance:  pt.DistanceFromStart * dx,
			Intensity: interpolate(intensity, pt.X, pt.Y),
		}
	}
	return points, nil
}

// FindEdges walks the path over a binary mask (non-zero inside an object) and
// returns the distances from the path start, in pixels, where the path enters
// or leaves the object.
func FindEdges(mask *ndarray.Real, p *Path) ([]float64, error) {
	if err := checkMap(mask, p); err != nil {
		return nil, err
	}
	if p.Direction == "" {
		if err := p.ComputeEndpoints(); err != nil {
			return nil, err
		}
	}
	if len(p.SamplePoints) == 0 {
		p.ComputeSamplePoints()
	}

	var edges []float64
	inside := false
	for _, pt := range p.SamplePoints {
		v := mask.Data[int(math.Round(pt.Y))*p.Size+int(math.Round(pt.X))]
		if (v != 0) != inside {
			edges = append(edges, pt.DistanceFromStart)
			inside = !inside
		}
	}
	return edges, nil
}

// FWHM returns the full width at half maximum of the highest peak of a
// profile, with both half-maximum crossings linearly interpolated.
func FWHM(points []Point) (float64, error) {
	if len(points) < 3 {
		return 0, ErrNoHalfMaximum
	}
	pts := append([]Point(nil), points...)
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Distance < pts[j].Distance })

	peak := 0
	for i, pt := range pts {
		if pt.Intensity > pts[peak].Intensity {
			peak = i
		}
	}
	half := pts[peak].Intensity / 2

	crossing := func(a, b Point) float64 {
		return a.Distance + (half-a.Intensity)*(b.Distance-a.Distance)/(b.Intensity-a.Intensity)
	}

	left := math.NaN()
	for i := peak; i > 0; i-- {
		if pts[i-1].Intensity < half {
			left = crossing(pts[i-1], pts[i])
			break
		}
	}
	right := math.NaN()
	for i := peak; i < len(pts)-1; i++ {
		if pts[i+1].Intensity < half {
			right = crossing(pts[i], pts[i+1])
			break
		}
	}
	if math.IsNaN(left) || math.IsNaN(right) {
		return 0, ErrNoHalfMaximum
	}
	return right - left, nil
}
