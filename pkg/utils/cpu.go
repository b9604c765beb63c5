package utils

import "github.com/shirou/gopsutil/cpu"

// CheckCPUUsage reports whether current CPU usage is under the ceiling,
// along with the sampled value. Used as an admission gate for new jobs.
func CheckCPUUsage(maxCPUUsage float64) (bool, float64) {
	usage, err := cpu.Percent(0, false)
	if err != nil || len(usage) == 0 {
		return true, 0
	}
	return usage[0] <= maxCPUUsage, usage[0]
}
