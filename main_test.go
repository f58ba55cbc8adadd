package main

import (
	"math"
	"testing"

	json "github.com/KevinWang15/go-json5"
	"github.com/bob-anderson-ok/wavesim/ndarray"
	"github.com/bob-anderson-ok/wavesim/propagation"
	"github.com/bob-anderson-ok/wavesim/spectral"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

const paramFile = `{
	// bead in water, imaged 2 um past the exit surface
	title: "bead test",
	grid_points: 32,
	dx_um: 0.3,
	wavelength_um: 0.5,
	medium_index: 1.33,
	bead: {
		diameter_um: 3.0,
		dn: 0.05,
		absorption: 0.001,
	},
	num_slices: 4,
	slice_thickness_um: 0.75,
	propagation: {
		method: "exact",
		distance_um: 2.0,
	},
	profile_angle_degrees: 90,
}`

func parse(t *testing.T, text string) map[string]interface{} {
	t.Helper()
	var table map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text), &table))
	return table
}

func TestValidateFillsParams(t *testing.T) {
	var p SimulationParams
	msg, ok := validateJsonFileAndFillParams(parse(t, paramFile), &p)
	require.True(t, ok, msg)

	assert.Equal(t, "bead test", p.Title)
	assert.Equal(t, 32, p.GridPoints)
	assert.Equal(t, 0.3, p.DxUm)
	assert.Equal(t, 0.5, p.WavelengthUm)
	assert.Equal(t, 1.33, p.MediumIndex)
	assert.Equal(t, spectral.BackendGonum, p.FFTBackend)

	assert.True(t, p.BeadGiven)
	assert.Equal(t, 3.0, p.BeadDiameterUm)
	assert.Equal(t, 3.0, p.BeadYDiameterUm)
	assert.Equal(t, 0.0, p.BeadXCenterUm)
	assert.Equal(t, 4, p.NumSlices)
	assert.Equal(t, 8, p.MultisliceNPad)

	assert.Equal(t, propagation.MethodExact, p.Method)
	assert.Equal(t, propagation.ModeSame, p.Mode)
	assert.Nil(t, p.NPad)
	assert.False(t, p.PolarizerGiven)
	assert.False(t, p.ShowInput)
	assert.Zero(t, p.TaperWidthPx)
	assert.Zero(t, p.BeadEdgeBlurPx)
}

func TestValidateReportsBadKeys(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"missing grid", `{dx_um: 0.2, wavelength_um: 0.5, propagation: {distance_um: 1}}`, "grid_points: not found"},
		{"wrong type", `{grid_points: 32, dx_um: "0.2", wavelength_um: 0.5, propagation: {distance_um: 1}}`, "dx_um: is not a float64"},
		{"missing wavelength", `{grid_points: 32, dx_um: 0.2, propagation: {distance_um: 1}}`, "wavelength_um: not found"},
		{"nested", `{grid_points: 32, dx_um: 0.2, wavelength_um: 0.5, propagation: {}}`, "propagation.distance_um: not found"},
		{"bead", `{grid_points: 32, dx_um: 0.2, wavelength_um: 0.5, bead: {dn: 0.1}, propagation: {distance_um: 1}}`, "bead.diameter_um: not found"},
		{"show input", `{show_input_bool: 1, grid_points: 32}`, "show_input_bool: is not a bool"},
		{"taper", `{grid_points: 32, dx_um: 0.2, wavelength_um: 0.5, taper_width_px: -1}`, "taper_width_px: must not be negative"},
		{"blur", `{grid_points: 32, dx_um: 0.2, wavelength_um: 0.5, bead: {diameter_um: 1, dn: 0.1, edge_blur_px: -2}, num_slices: 1, slice_thickness_um: 1}`, "bead.edge_blur_px: must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p SimulationParams
			msg, ok := validateJsonFileAndFillParams(parse(t, tt.text), &p)
			assert.False(t, ok)
			assert.Equal(t, tt.want, msg)
		})
	}

	var p SimulationParams
	msg, ok := validateJsonFileAndFillParams(parse(t,
		`{grid_points: 32, dx_um: 0.2, wavelength_um: 0.5, propagation: {distance_um: 1, method: "sinc"}}`), &p)
	assert.False(t, ok)
	assert.Contains(t, msg, "propagation.method")

	msg, ok = validateJsonFileAndFillParams(parse(t,
		`{grid_points: 32, dx_um: 0.2, wavelength_um: 0.5, propagation: {distance_um: 1}, polarizer: {kind: "wire"}}`), &p)
	assert.False(t, ok)
	assert.Contains(t, msg, "polarizer.kind")
}

func TestSpectrumTable(t *testing.T) {
	var p SimulationParams
	msg, ok := validateJsonFileAndFillParams(parse(t,
		`{grid_points: 32, dx_um: 0.2, path_to_spectrum_table_file: "qe.json5", propagation: {distance_um: 1, n_pad: 16, mode: "full"}, fft_backend: "go-dsp"}`), &p)
	require.True(t, ok, msg)
	assert.Equal(t, "qe.json5", p.PathToSpectrumTable)
	assert.Equal(t, 16, *p.NPad)
	assert.Equal(t, propagation.ModeFull, p.Mode)
	assert.Equal(t, spectral.BackendGoDSP, p.FFTBackend)

	table, err := parseArrayFormat([]byte(`[[0.45, 1], [0.55, 3]] // um, weight`))
	require.NoError(t, err)
	table = normalizeSpectrum(table)
	assert.Equal(t, [][2]float64{{0.45, 0.25}, {0.55, 0.75}}, table)

	p.SpectrumTable = table
	f, err := sourceField(&p)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Channels())
	assert.Equal(t, []float64{0.25, 0.75}, f.SpectralDensity)
	assert.Equal(t, 0.55, f.WavelengthAt(1))
}

func TestBeadStacks(t *testing.T) {
	var p SimulationParams
	msg, ok := validateJsonFileAndFillParams(parse(t, paramFile), &p)
	require.True(t, ok, msg)

	absorption, dn, mask := beadStacks(&p)
	assert.Equal(t, []int{4, 32, 32}, dn.Shape)
	assert.Equal(t, dn.Shape, absorption.Shape)

	// center pixel of every slice is inside the bead
	for k := 0; k < 4; k++ {
		assert.Equal(t, 0.05, dn.At(k, 16, 16))
		assert.Equal(t, 0.001, absorption.At(k, 16, 16))
	}
	// the outer slices are narrower than the middle ones
	count := func(k int) int {
		c := 0
		for i := 0; i < 32*32; i++ {
			if dn.Data[k*32*32+i] != 0 {
				c++
			}
		}
		return c
	}
	assert.Less(t, count(0), count(1))
	assert.Equal(t, count(0), count(3))
	assert.Equal(t, 0.0, dn.At(1, 0, 0))

	assert.Equal(t, 1.0, mask.At(16, 16))
	assert.Equal(t, 1.0, mask.At(16, 20)) // 1.2 um off center
	assert.Equal(t, 0.0, mask.At(16, 22))
}

func TestBeadStacksSingleSlice(t *testing.T) {
	var p SimulationParams
	msg, ok := validateJsonFileAndFillParams(parse(t, paramFile), &p)
	require.True(t, ok, msg)
	p.NumSlices = 1

	_, dn, mask := beadStacks(&p)
	assert.Equal(t, []int{1, 32, 32}, dn.Shape)
	// the only slice is the midplane cross-section
	assert.InDelta(t, floats.Sum(mask.Data)*0.05, floats.Sum(dn.Data), 1e-9)
}

func TestBlurStack(t *testing.T) {
	stack := ndarray.NewReal(2, 16, 16)
	stack.Set(1, 1, 8, 8)
	require.NoError(t, blurStack(stack, 1))

	assert.Zero(t, floats.Sum(stack.Data[:256]))
	assert.InDelta(t, 1.0, floats.Sum(stack.Data[256:]), 1e-9)
	assert.Less(t, stack.At(1, 8, 8), 1.0)
	assert.Greater(t, stack.At(1, 8, 9), 0.0)
	assert.InDelta(t, stack.At(1, 8, 9), stack.At(1, 9, 8), 1e-12)
}

func TestTaperField(t *testing.T) {
	var p SimulationParams
	msg, ok := validateJsonFileAndFillParams(parse(t,
		`{grid_points: 16, dx_um: 0.5, wavelength_um: 0.5, taper_width_px: 2, propagation: {distance_um: 0}}`), &p)
	require.True(t, ok, msg)
	assert.Equal(t, 2.0, p.TaperWidthPx)

	f, err := sourceField(&p)
	require.NoError(t, err)
	g, err := taperField(f, p.TaperWidthPx)
	require.NoError(t, err)

	assert.Equal(t, complex(0, 0), g.U.At(0, 0, 5, 0, 0))
	assert.Equal(t, complex(0, 0), g.U.At(0, 15, 15, 0, 0))
	want := 2 * (1/(1+math.Exp(-7.0/2)) - 0.5)
	assert.InDelta(t, want, real(g.U.At(0, 8, 8, 0, 0)), 1e-12)
	// the source itself is untouched
	assert.Equal(t, complex(1, 0), f.U.At(0, 0, 5, 0, 0))
}

func TestInsideGeneralizedEllipse(t *testing.T) {
	assert.True(t, insideGeneralizedEllipse(1.9, 0, 0, 0, 4, 2, 0))
	assert.False(t, insideGeneralizedEllipse(0, 1.9, 0, 0, 4, 2, 0))
	assert.True(t, insideGeneralizedEllipse(0, 1.9, 0, 0, 4, 2, 90))
	assert.True(t, insideGeneralizedEllipse(5, 5, 5, 5, 0.1, 0.1, 0))
}

func TestSimulate(t *testing.T) {
	var p SimulationParams
	msg, ok := validateJsonFileAndFillParams(parse(t, paramFile), &p)
	require.True(t, ok, msg)

	res, err := simulate(&p)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 32, 32, 1, 1}, res.Output.Shape())
	assert.Equal(t, []int{32, 32}, res.Intensity.Shape)
	assert.Len(t, res.Profile, 32)
	require.Len(t, res.Edges, 2)
	assert.InDelta(t, 3.0, res.Edges[1]-res.Edges[0], 0.5)

	// the evanescent clamp keeps the result finite
	for _, v := range res.Intensity.Data {
		assert.False(t, math.IsNaN(v))
	}
	assert.Greater(t, res.Intensity.At(16, 16), 0.0)
}

func TestSimulateWithTaperAndEdgeBlur(t *testing.T) {
	var p SimulationParams
	msg, ok := validateJsonFileAndFillParams(parse(t, paramFile), &p)
	require.True(t, ok, msg)
	p.TaperWidthPx = 2
	p.BeadEdgeBlurPx = 0.7

	res, err := simulate(&p)
	require.NoError(t, err)
	require.Len(t, res.Edges, 2)
	for _, v := range res.Intensity.Data {
		assert.False(t, math.IsNaN(v))
	}
	assert.Greater(t, res.Intensity.At(16, 16), 0.0)
}

func TestSimulateWithPolarizer(t *testing.T) {
	var p SimulationParams
	msg, ok := validateJsonFileAndFillParams(parse(t,
		`{grid_points: 16, dx_um: 0.5, wavelength_um: 0.5, propagation: {distance_um: 0, n_pad: 0}, polarizer: {kind: "linear", angle_degrees: 0}}`), &p)
	require.True(t, ok, msg)

	res, err := simulate(&p)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Output.Polarizations())
	// half the intensity of a 45 degree wave passes a horizontal polarizer
	for _, v := range res.Intensity.Data {
		assert.InDelta(t, 0.5, v, 1e-12)
	}
	assert.True(t, math.IsNaN(res.FWHMUm))
}
