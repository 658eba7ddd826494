// Package hostinfo captures the hardware a benchmark run executed on, so
// stored timings can be compared across machines.
package hostinfo

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/planprobe/planprobe/pkg/models"
)

// Detect collects CPU and memory information. Detection failures degrade to
// partial info rather than failing the run; timings are still worth keeping.
func Detect() models.HostInfo {
	info := models.HostInfo{
		CPUThreads: runtime.NumCPU(),
		CPUModel:   "Unknown",
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
	}

	if cpus, err := cpu.Info(); err == nil && len(cpus) > 0 {
		info.CPUModel = cpus[0].ModelName
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.RAMTotalBytes = vm.Total
	}

	return info
}
