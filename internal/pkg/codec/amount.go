package codec

import "fmt"

// MicroAlgosPerAlgo is the number of base units in one Algo.
const MicroAlgosPerAlgo = 1_000_000

// FormatMicroAlgos renders a base-unit amount as Algos with six decimals.
func FormatMicroAlgos(micro uint64) string {
	return fmt.Sprintf("%d.%06d", micro/MicroAlgosPerAlgo, micro%MicroAlgosPerAlgo)
}
