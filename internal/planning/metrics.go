package planning

import "github.com/prometheus/client_golang/prometheus"

var allocationRuns = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "planning_allocations_total",
		Help: "How many allocation runs were executed, partitioned by scenario version.",
	},
	[]string{"version"},
)

var allocationInconsistencies = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "planning_inconsistencies_total",
		Help: "How many allocation runs ended with assignments not adding up to the company total.",
	},
	[]string{"version"},
)

// Collectors returns the Prometheus collectors of the package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{allocationRuns, allocationInconsistencies}
}
