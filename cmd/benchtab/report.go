package main

import (
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/p-arndt/benchtab/bench"
	"github.com/p-arndt/benchtab/procstat"
)

type hardwareInfo struct {
	Hostname      string `json:"hostname"`
	Kernel        string `json:"kernel"`
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	GoVersion     string `json:"go_version"`
	CPUModel      string `json:"cpu_model"`
	LogicalCPUs   int    `json:"logical_cpus"`
	MemoryTotalMB int64  `json:"memory_total_mb"`
}

type benchmarkReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Hardware    hardwareInfo  `json:"hardware"`
	Runtime     string        `json:"runtime"`
	Result      *bench.Result `json:"result"`
}

func collectHardware() hardwareInfo {
	host, _ := os.Hostname()
	return hardwareInfo{
		Hostname:      host,
		Kernel:        readOneLine("/proc/sys/kernel/osrelease"),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
		GoVersion:     runtime.Version(),
		CPUModel:      readCPUModel("/proc/cpuinfo"),
		LogicalCPUs:   runtime.NumCPU(),
		MemoryTotalMB: readMemTotalMiB("/proc/meminfo"),
	}
}

func readCPUModel(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	for _, ln := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(ln, "model name") {
			parts := strings.SplitN(ln, ":", 2)
			if len(parts) == 2 {
				return strings.TrimSpace(parts[1])
			}
		}
	}
	return "unknown"
}

// readMemTotalMiB reads MemTotal from a meminfo file, which shares the
// "Key: value unit" layout of the status files procstat parses.
func readMemTotalMiB(path string) int64 {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	snap, err := procstat.Parse(string(data), []string{"MemTotal"})
	if err != nil {
		return 0
	}
	return int64(snap["MemTotal"])
}

func readOneLine(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
