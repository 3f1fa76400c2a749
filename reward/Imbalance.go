package reward

import (
	"github.com/samuelfneumann/drlplace/timestep"
	"github.com/samuelfneumann/drlplace/utils/floatutils"
	"gonum.org/v1/gonum/stat"
)

// Imbalance returns the mean of the population standard deviations of
// node CPU utilization and memory usage, each expressed as a fraction
// in [0, 1]. Fewer than two nodes are perfectly balanced.
func Imbalance(nodes []timestep.Node) float64 {
	if len(nodes) < 2 {
		return 0
	}

	cpu := make([]float64, len(nodes))
	mem := make([]float64, len(nodes))
	for i, n := range nodes {
		cpu[i] = floatutils.Clip(floatutils.OrZero(n.UtilizationPct)/100, 0, 1)
		mem[i] = floatutils.Clip(floatutils.OrZero(n.MemoryPct)/100, 0, 1)
	}

	return (stat.PopStdDev(cpu, nil) + stat.PopStdDev(mem, nil)) / 2
}
