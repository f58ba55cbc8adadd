package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	json "github.com/KevinWang15/go-json5"
	"github.com/bob-anderson-ok/wavesim/field"
	"github.com/bob-anderson-ok/wavesim/filters"
	"github.com/bob-anderson-ok/wavesim/ndarray"
	"github.com/bob-anderson-ok/wavesim/polarizer"
	"github.com/bob-anderson-ok/wavesim/profile"
	"github.com/bob-anderson-ok/wavesim/propagation"
	"github.com/bob-anderson-ok/wavesim/sample"
	"github.com/bob-anderson-ok/wavesim/spectral"
	"gonum.org/v1/gonum/floats"
)

const version = "0_3_0"

// SimulationParams holds everything read from the parameter file. Lengths are
// in micrometers.
type SimulationParams struct {
	ShowInput           bool
	Title               string
	GridPoints          int
	DxUm                float64
	WavelengthUm        float64
	PathToSpectrumTable string
	SpectrumTable       [][2]float64 // normalized weights
	MediumIndex         float64
	FFTBackend          spectral.Backend
	TaperWidthPx        float64 // 0 leaves the source untapered

	BeadGiven           bool
	BeadXCenterUm       float64
	BeadYCenterUm       float64
	BeadDiameterUm      float64
	BeadYDiameterUm     float64
	BeadRotationDegrees float64
	BeadDn              float64
	BeadAbsorption      float64
	BeadEdgeBlurPx      float64 // Gaussian sigma; 0 keeps hard voxel edges
	NumSlices           int
	SliceThicknessUm    float64
	MultisliceNPad      int // per side

	DistanceUm float64
	Method     propagation.Method
	Mode       propagation.Mode
	NPad       *int // total per axis; nil selects automatic padding

	PolarizerGiven        bool
	PolarizerKind         string
	PolarizerAngleDegrees float64

	ProfileAngleDegrees float64
	ProfileOffsetUm     float64
}

// simulationResult is what main reports.
type simulationResult struct {
	Output    field.Field
	Intensity *ndarray.Real // (H, W) of the first batch entry
	Profile   []profile.Point
	Edges     []float64 // bead edges along the profile path, in um
	FWHMUm    float64   // NaN when the profile has no isolated peak
}

func main() {

	programStart := time.Now()

	args := os.Args

	if len(args) != 2 {
		fmt.Println("\n\tWrong number of arguments.\n\tUsage: wavesim <parameter-file>")
		os.Exit(1)
	}

	path := args[1]

	// Read the Json5 (or Json) parameter file
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tAttempt to read input file %q failed: %w\n", path, err))
		os.Exit(2)
	}

	// Parse json(5) data into a generic container
	var jsonTable map[string]interface{}
	err = json.Unmarshal(data, &jsonTable)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tFormat error in file %q: %w\n", path, err))
		os.Exit(3)
	}

	var params SimulationParams
	msg, ok := validateJsonFileAndFillParams(jsonTable, &params)
	if !ok {
		fmt.Println(msg)
		os.Exit(4)
	}

	// Check for user wanting printout of complete jsonTable
	if params.ShowInput {
		fmt.Printf("%s", "\nPrintout of  complete jsonTable contents...\n")
		fmt.Println(string(data))
	}

	// If a path to a spectrum table was given, read it
	if params.PathToSpectrumTable != "" {
		data, err := os.ReadFile(params.PathToSpectrumTable)
		if err != nil {
			fmt.Println(fmt.Errorf("\n\tAttempt to read file %q failed: %w\n", params.PathToSpectrumTable, err))
			os.Exit(13)
		}
		table, err := parseArrayFormat(data)
		if err != nil {
			fmt.Println(fmt.Errorf("\n\tError reading spectrum table %q: %w\n", params.PathToSpectrumTable, err))
			os.Exit(15)
		}
		if len(table) < 1 {
			fmt.Println(fmt.Errorf("\n\tThe spectrum table %q is empty.", params.PathToSpectrumTable))
			os.Exit(14)
		}
		params.SpectrumTable = normalizeSpectrum(table)
	}

	// Sanity check on grid size
	if params.GridPoints < 10 || params.GridPoints%2 != 0 {
		fmt.Println(fmt.Errorf("\n\tgrid_points must be an even number of at least 10."))
		os.Exit(16)
	}

	if params.Title != "" {
		fmt.Printf("\n%s\n", params.Title)
	}
	fmt.Printf("\nVersion %s\n\n", version)

	res, err := simulate(&params)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tSimulation failed: %w\n", err))
		switch {
		case errors.Is(err, propagation.ErrSampling):
			os.Exit(17)
		case errors.Is(err, profile.ErrNoIntersection):
			os.Exit(18)
		default:
			os.Exit(19)
		}
	}

	lo, hi := floats.Min(res.Intensity.Data), floats.Max(res.Intensity.Data)
	fmt.Printf("\nOutput grid %dx%d with dx = %0.4f um\n", res.Output.Height(), res.Output.Width(), res.Output.DxAt(0))
	fmt.Printf("Intensity range: %0.4f .. %0.4f\n", lo, hi)
	fmt.Printf("Profile along %0.1f degrees: %d points over %0.2f um\n",
		params.ProfileAngleDegrees, len(res.Profile), res.Profile[len(res.Profile)-1].Distance)
	for i, edge := range res.Edges {
		fmt.Printf("  Bead edge %d at %0.2f um\n", i+1, edge)
	}
	if math.IsNaN(res.FWHMUm) {
		fmt.Println("Profile has no isolated peak (no FWHM)")
	} else {
		fmt.Printf("Profile FWHM: %0.3f um\n", res.FWHMUm)
	}

	fmt.Printf("\nTotal run time: %s\n", time.Since(programStart))
}

func normalizeSpectrum(table [][2]float64) [][2]float64 {
	var cumWeights = 0.0
	for i := 0; i < len(table); i++ {
		cumWeights += table[i][1]
	}
	for i := 0; i < len(table); i++ {
		table[i][1] /= cumWeights
	}
	return table
}

// sourceField builds the illuminating plane wave. A polarizer needs a vector
// field, which is polarized at 45 degrees so every polarizer passes light.
func sourceField(p *SimulationParams) (field.Field, error) {
	spectrum := []float64{p.WavelengthUm}
	var density []float64
	if len(p.SpectrumTable) > 0 {
		spectrum = make([]float64, len(p.SpectrumTable))
		density = make([]float64, len(p.SpectrumTable))
		for i, row := range p.SpectrumTable {
			spectrum[i], density[i] = row[0], row[1]
		}
	}

	var f field.Field
	var err error
	if p.PolarizerGiven {
		a := complex(1/math.Sqrt2, 0)
		f, err = field.VectorPlaneWave(p.GridPoints, p.GridPoints, p.DxUm, spectrum, [2]complex128{a, a})
	} else {
		f, err = field.PlaneWave(p.GridPoints, p.GridPoints, p.DxUm, spectrum, [2]float64{})
	}
	if err != nil {
		return field.Field{}, err
	}
	if density != nil {
		f.SpectralDensity = density
	}
	return f, nil
}

// taperField rolls the amplitude of f off towards its border so the periodic
// FFT grid sees no hard edge.
func taperField(f field.Field, widthPx float64) (field.Field, error) {
	taper, err := ndarray.Broadcast2DToSpatial(filters.SigmoidTaper(f.Height(), f.Width(), widthPx), f.Ndim())
	if err != nil {
		return field.Field{}, err
	}
	u, err := ndarray.Map2(f.U, taper, func(v complex128, t float64) complex128 {
		return v * complex(t, 0)
	})
	if err != nil {
		return field.Field{}, err
	}
	return f.WithU(u), nil
}

func simulate(p *SimulationParams) (simulationResult, error) {
	var res simulationResult
	fftOpts := spectral.Options{Backend: p.FFTBackend}

	f, err := sourceField(p)
	if err != nil {
		return res, err
	}
	fmt.Printf("Fresnel number at %0.1f um is %0.3f\n", p.DistanceUm, propagation.FresnelNumber(f, p.DistanceUm))
	if p.TaperWidthPx > 0 {
		if f, err = taperField(f, p.TaperWidthPx); err != nil {
			return res, err
		}
	}

	var mask *ndarray.Real
	if p.BeadGiven {
		start := time.Now()
		absorption, dn, m := beadStacks(p)
		mask = m
		if p.BeadEdgeBlurPx > 0 {
			if err = blurStack(absorption, p.BeadEdgeBlurPx); err != nil {
				return res, err
			}
			if err = blurStack(dn, p.BeadEdgeBlurPx); err != nil {
				return res, err
			}
		}
		opts := sample.DefaultMultisliceOptions()
		opts.FFT = fftOpts
		f, err = sample.Multislice(f, absorption, dn, p.MediumIndex, p.SliceThicknessUm, p.MultisliceNPad, opts)
		if err != nil {
			return res, err
		}
		fmt.Printf("Multislice through %d slices took %s\n", p.NumSlices, time.Since(start))
	}

	start := time.Now()
	params := propagation.Params{
		Method:  p.Method,
		Mode:    p.Mode,
		NPad:    p.NPad,
		Options: propagation.Options{FFT: fftOpts},
	}
	if params.NPad == nil {
		nPad, err := propagation.AutoPad(f, p.DistanceUm, p.Method)
		if err != nil {
			return res, err
		}
		fmt.Printf("Automatic padding: %d pixels per axis\n", nPad)
		params.NPad = propagation.Pad(nPad)
	}
	f, err = propagation.Propagate(f, p.DistanceUm, p.MediumIndex, params)
	if err != nil {
		return res, err
	}
	fmt.Printf("%v propagation over %0.1f um took %s\n", p.Method, p.DistanceUm, time.Since(start))

	if p.PolarizerGiven {
		switch p.PolarizerKind {
		case "left":
			f, err = polarizer.LeftCircular(f)
		case "right":
			f, err = polarizer.RightCircular(f)
		default:
			f, err = polarizer.Linear(f, p.PolarizerAngleDegrees*math.Pi/180)
		}
		if err != nil {
			return res, err
		}
	}
	res.Output = f

	res.Intensity, err = ndarray.Slice2D(f.Intensity(), 0)
	if err != nil {
		return res, err
	}

	dx := f.DxAt(0)
	path := &profile.Path{
		AngleDegrees: p.ProfileAngleDegrees,
		OffsetPx:     p.ProfileOffsetUm / dx,
		Size:         f.Height(),
	}
	res.Profile, err = profile.Extract(res.Intensity, path, dx)
	if err != nil {
		return res, err
	}

	// Bead edges only line up with the output on the input grid.
	if mask != nil && f.Height() == p.GridPoints && dx == p.DxUm {
		edges, err := profile.FindEdges(mask, path)
		if err != nil {
			return res, err
		}
		for _, e := range edges {
			res.Edges = append(res.Edges, e*dx)
		}
	}

	res.FWHMUm, err = profile.FWHM(res.Profile)
	if errors.Is(err, profile.ErrNoHalfMaximum) {
		res.FWHMUm = math.NaN()
	} else if err != nil {
		return res, err
	}
	return res, nil
}
