package propagation_test

import (
	"fmt"
	"log"

	"github.com/bob-anderson-ok/wavesim/field"
	"github.com/bob-anderson-ok/wavesim/propagation"
)

// Example shows the automatic padding choice and a propagation that crops the
// padding away again.
func Example() {
	// 64x64 plane wave, 0.3 um pixels, 0.5 um light
	f, err := field.PlaneWave(64, 64, 0.3, []float64{0.5}, [2]float64{})
	if err != nil {
		log.Fatal(err)
	}

	transferPad, _ := propagation.AutoPad(f, 1.0, propagation.MethodTransfer)
	exactPad, _ := propagation.AutoPad(f, 1.0, propagation.MethodExact)
	fmt.Println("transfer pad:", transferPad)
	fmt.Println("exact pad:", exactPad)

	out, err := propagation.Propagate(f, 1.0, 1.0, propagation.Params{
		Method: propagation.MethodExact,
		Mode:   propagation.ModeSame,
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("shape:", out.Shape())

	// Output:
	// transfer pad: 64
	// exact pad: 168
	// shape: [1 64 64 1 1]
}
