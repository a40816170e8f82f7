package kernel

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
)

// Time is a logical simulation time in picoseconds.
type Time uint64

// Time units.
const (
	PS Time = 1
	NS      = 1000 * PS
	US      = 1000 * NS
)

// VTime converts t to the engine time unit.
func (t Time) VTime() sim.VTimeInSec {
	return sim.VTimeInSec(float64(t) * 1e-12)
}

func (t Time) String() string {
	if t%NS == 0 {
		return fmt.Sprintf("%dns", uint64(t/NS))
	}

	return fmt.Sprintf("%dps", uint64(t))
}
