package telemetry

import "github.com/shirou/gopsutil/v3/cpu"

// cpuPercent converts two cumulative CPU time readings into per-category
// percentages. Guest time is already counted in user and nice and is left
// out of the total.
func cpuPercent(before, after cpu.TimesStat) CPUPercent {
	total := busy(after) - busy(before)
	if total <= 0 {
		return CPUPercent{}
	}

	pct := func(a, b float64) float64 {
		delta := b - a
		if delta <= 0 {
			return 0
		}
		return min(100*delta/total, 100)
	}

	return CPUPercent{
		User:    pct(before.User, after.User),
		Nice:    pct(before.Nice, after.Nice),
		System:  pct(before.System, after.System),
		Idle:    pct(before.Idle, after.Idle),
		Iowait:  pct(before.Iowait, after.Iowait),
		Irq:     pct(before.Irq, after.Irq),
		Softirq: pct(before.Softirq, after.Softirq),
		Steal:   pct(before.Steal, after.Steal),
	}
}

func busy(t cpu.TimesStat) float64 {
	return t.User + t.Nice + t.System + t.Idle + t.Iowait + t.Irq + t.Softirq + t.Steal
}
