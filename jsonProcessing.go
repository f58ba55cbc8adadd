package main

import (
	"fmt"
	"strings"

	json "github.com/KevinWang15/go-json5"
	"github.com/bob-anderson-ok/wavesim/propagation"
	"github.com/bob-anderson-ok/wavesim/spectral"
)

// parseArrayFormat reads a spectrum table: [[wavelength_um, weight], ...]
func parseArrayFormat(data []byte) ([][2]float64, error) {
	var pairs [][2]float64
	err := json.Unmarshal(data, &pairs)
	return pairs, err
}

func getLeafValue(jsonTable map[string]interface{}, path ...string) (interface{}, bool) {
	var cur interface{} = jsonTable
	for _, p := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// floatLeaf returns the float64 at path. A missing key yields def when def is
// not nil; otherwise it is an error like the rest.
func floatLeaf(jsonTable map[string]interface{}, def *float64, path ...string) (float64, string, bool) {
	name := strings.Join(path, ".")
	v, ok := getLeafValue(jsonTable, path...)
	if !ok {
		if def != nil {
			return *def, "", true
		}
		return 0, name + ": not found", false
	}
	f, ok := v.(float64)
	if !ok {
		return 0, name + ": is not a float64", false
	}
	return f, "", true
}

func stringLeaf(jsonTable map[string]interface{}, def string, path ...string) (string, string, bool) {
	v, ok := getLeafValue(jsonTable, path...)
	if !ok {
		return def, "", true
	}
	s, ok := v.(string)
	if !ok {
		return "", strings.Join(path, ".") + ": is not a string", false
	}
	return s, "", true
}

func fptr(v float64) *float64 { return &v }

func validateJsonFileAndFillParams(jsonTable map[string]interface{}, params *SimulationParams) (string, bool) {
	msg := "No problem found in json file" // Initialize msg to presumed success.
	var ok bool

	showInput, present := getLeafValue(jsonTable, "show_input_bool")
	if !present {
		params.ShowInput = false // default to false if this field is missing
	} else {
		params.ShowInput, ok = showInput.(bool)
		if !ok {
			msg = "show_input_bool: is not a bool"
			return msg, false
		}
	}

	if params.Title, msg, ok = stringLeaf(jsonTable, "", "title"); !ok {
		return msg, false
	}

	gridPoints, msg, ok := floatLeaf(jsonTable, nil, "grid_points")
	if !ok {
		return msg, false
	}
	params.GridPoints = int(gridPoints)

	if params.DxUm, msg, ok = floatLeaf(jsonTable, nil, "dx_um"); !ok {
		return msg, false
	}

	if params.PathToSpectrumTable, msg, ok = stringLeaf(jsonTable, "", "path_to_spectrum_table_file"); !ok {
		return msg, false
	}
	// A spectrum table replaces the single wavelength.
	if params.PathToSpectrumTable == "" {
		if params.WavelengthUm, msg, ok = floatLeaf(jsonTable, nil, "wavelength_um"); !ok {
			return msg, false
		}
	}

	if params.MediumIndex, msg, ok = floatLeaf(jsonTable, fptr(1.0), "medium_index"); !ok {
		return msg, false
	}

	if params.TaperWidthPx, msg, ok = floatLeaf(jsonTable, fptr(0), "taper_width_px"); !ok {
		return msg, false
	}
	if params.TaperWidthPx < 0 {
		return "taper_width_px: must not be negative", false
	}

	backend, msg, ok := stringLeaf(jsonTable, "gonum", "fft_backend")
	if !ok {
		return msg, false
	}
	switch backend {
	case spectral.BackendGonum.String():
		params.FFTBackend = spectral.BackendGonum
	case spectral.BackendGoDSP.String():
		params.FFTBackend = spectral.BackendGoDSP
	default:
		return fmt.Sprintf("fft_backend: %q is not one of gonum, go-dsp", backend), false
	}

	if _, params.BeadGiven = getLeafValue(jsonTable, "bead"); params.BeadGiven {
		if msg, ok = validateBead(jsonTable, params); !ok {
			return msg, false
		}
	}

	if msg, ok = validatePropagation(jsonTable, params); !ok {
		return msg, false
	}

	if _, params.PolarizerGiven = getLeafValue(jsonTable, "polarizer"); params.PolarizerGiven {
		if params.PolarizerKind, msg, ok = stringLeaf(jsonTable, "linear", "polarizer", "kind"); !ok {
			return msg, false
		}
		switch params.PolarizerKind {
		case "linear", "left", "right":
		default:
			return fmt.Sprintf("polarizer.kind: %q is not one of linear, left, right", params.PolarizerKind), false
		}
		if params.PolarizerAngleDegrees, msg, ok = floatLeaf(jsonTable, fptr(0), "polarizer", "angle_degrees"); !ok {
			return msg, false
		}
	}

	if params.ProfileAngleDegrees, msg, ok = floatLeaf(jsonTable, fptr(90), "profile_angle_degrees"); !ok {
		return msg, false
	}
	if params.ProfileOffsetUm, msg, ok = floatLeaf(jsonTable, fptr(0), "profile_offset_um"); !ok {
		return msg, false
	}

	return "No problem found in json file", true
}

func validateBead(jsonTable map[string]interface{}, params *SimulationParams) (string, bool) {
	var msg string
	var ok bool

	if params.BeadXCenterUm, msg, ok = floatLeaf(jsonTable, fptr(0), "bead", "x_center_um"); !ok {
		return msg, false
	}
	if params.BeadYCenterUm, msg, ok = floatLeaf(jsonTable, fptr(0), "bead", "y_center_um"); !ok {
		return msg, false
	}
	if params.BeadDiameterUm, msg, ok = floatLeaf(jsonTable, nil, "bead", "diameter_um"); !ok {
		return msg, false
	}
	// An elongated bead has a different extent along y.
	if params.BeadYDiameterUm, msg, ok = floatLeaf(jsonTable, fptr(params.BeadDiameterUm), "bead", "y_diameter_um"); !ok {
		return msg, false
	}
	if params.BeadRotationDegrees, msg, ok = floatLeaf(jsonTable, fptr(0), "bead", "rotation_degrees"); !ok {
		return msg, false
	}
	if params.BeadDn, msg, ok = floatLeaf(jsonTable, nil, "bead", "dn"); !ok {
		return msg, false
	}
	if params.BeadAbsorption, msg, ok = floatLeaf(jsonTable, fptr(0), "bead", "absorption"); !ok {
		return msg, false
	}
	if params.BeadEdgeBlurPx, msg, ok = floatLeaf(jsonTable, fptr(0), "bead", "edge_blur_px"); !ok {
		return msg, false
	}
	if params.BeadEdgeBlurPx < 0 {
		return "bead.edge_blur_px: must not be negative", false
	}

	numSlices, msg, ok := floatLeaf(jsonTable, nil, "num_slices")
	if !ok {
		return msg, false
	}
	params.NumSlices = int(numSlices)
	if params.SliceThicknessUm, msg, ok = floatLeaf(jsonTable, nil, "slice_thickness_um"); !ok {
		return msg, false
	}
	if params.NumSlices < 1 || params.SliceThicknessUm <= 0 {
		return "num_slices and slice_thickness_um: must be positive", false
	}

	pad, msg, ok := floatLeaf(jsonTable, fptr(float64(params.GridPoints/4)), "multislice_n_pad")
	if !ok {
		return msg, false
	}
	params.MultisliceNPad = int(pad)
	return "", true
}

func validatePropagation(jsonTable map[string]interface{}, params *SimulationParams) (string, bool) {
	var msg string
	var ok bool

	if params.DistanceUm, msg, ok = floatLeaf(jsonTable, nil, "propagation", "distance_um"); !ok {
		return msg, false
	}

	method, msg, ok := stringLeaf(jsonTable, "transfer", "propagation", "method")
	if !ok {
		return msg, false
	}
	m, err := propagation.ParseMethod(method)
	if err != nil {
		return fmt.Sprintf("propagation.method: %v", err), false
	}
	params.Method = m

	mode, msg, ok := stringLeaf(jsonTable, "same", "propagation", "mode")
	if !ok {
		return msg, false
	}
	md, err := propagation.ParseMode(mode)
	if err != nil {
		return fmt.Sprintf("propagation.mode: %v", err), false
	}
	params.Mode = md

	if _, present := getLeafValue(jsonTable, "propagation", "n_pad"); present {
		nPad, msg, ok := floatLeaf(jsonTable, nil, "propagation", "n_pad")
		if !ok {
			return msg, false
		}
		params.NPad = propagation.Pad(int(nPad))
	}
	return "", true
}
