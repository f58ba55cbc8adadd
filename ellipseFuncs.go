package main

import (
	"math"

	"github.com/bob-anderson-ok/wavesim/field"
	"github.com/bob-anderson-ok/wavesim/filters"
	"github.com/bob-anderson-ok/wavesim/ndarray"
	"gonum.org/v1/gonum/floats"
)

// insideGeneralizedEllipse reports whether (x, y) is inside or on an ellipse
// centered at (x0, y0) with the given diameters along x and y before rotation.
// thetaDegrees rotates the ellipse counter-clockwise.
func insideGeneralizedEllipse(x, y, x0, y0, xDiam, yDiam, thetaDegrees float64) bool {
	xSemi := xDiam / 2.0
	ySemi := yDiam / 2.0
	thetaRadians := thetaDegrees * (math.Pi / 180.0)
	c, s := math.Cos(thetaRadians), math.Sin(thetaRadians)
	t1 := ((x-x0)*c + (y-y0)*s) / xSemi
	t2 := (-(x-x0)*s + (y-y0)*c) / ySemi
	return t1*t1+t2*t2 <= 1.0
}

// beadStacks voxelizes an ellipsoidal bead centered on the stack midplane into
// (num_slices, grid, grid) absorption and dn stacks. The depth semi-axis equals
// the x semi-axis. mask marks the bead's largest cross-section.
func beadStacks(p *SimulationParams) (absorption, dn, mask *ndarray.Real) {
	n := p.GridPoints
	absorption = ndarray.NewReal(p.NumSlices, n, n)
	dn = ndarray.NewReal(p.NumSlices, n, n)
	mask = ndarray.NewReal(n, n)

	coords := field.Coordinates(n, p.DxUm)
	depth := float64(p.NumSlices) * p.SliceThicknessUm
	// slice centers; a single slice sits at z = 0
	zs := make([]float64, p.NumSlices)
	if len(zs) > 1 {
		floats.Span(zs, -depth/2+p.SliceThicknessUm/2, depth/2-p.SliceThicknessUm/2)
	}
	zSemi := p.BeadDiameterUm / 2

	for k, z := range zs {
		if math.Abs(z) >= zSemi {
			continue
		}
		shrink := math.Sqrt(1 - (z/zSemi)*(z/zSemi))
		xDiam := p.BeadDiameterUm * shrink
		yDiam := p.BeadYDiameterUm * shrink
		for row, y := range coords {
			for col, x := range coords {
				if insideGeneralizedEllipse(x, y, p.BeadXCenterUm, p.BeadYCenterUm, xDiam, yDiam, p.BeadRotationDegrees) {
					off := (k*n+row)*n + col
					dn.Data[off] = p.BeadDn
					absorption.Data[off] = p.BeadAbsorption
				}
			}
		}
	}

	for row, y := range coords {
		for col, x := range coords {
			if insideGeneralizedEllipse(x, y, p.BeadXCenterUm, p.BeadYCenterUm, p.BeadDiameterUm, p.BeadYDiameterUm, p.BeadRotationDegrees) {
				mask.Data[row*n+col] = 1
			}
		}
	}
	return absorption, dn, mask
}

// blurStack smooths every slice of a (D, H, W) stack in place with a Gaussian
// of sigmaPx pixels, softening the staircase edges of the voxelized bead.
func blurStack(stack *ndarray.Real, sigmaPx float64) error {
	for k := 0; k < stack.Shape[0]; k++ {
		slice, err := ndarray.Slice2D(stack, k)
		if err != nil {
			return err
		}
		blurred, err := filters.GaussianFilter(slice, [2]float64{sigmaPx, sigmaPx})
		if err != nil {
			return err
		}
		copy(slice.Data, blurred.Data)
	}
	return nil
}
