// Package accel reports whether an accelerator is present. Training never
// fails because one is missing; it stays on the CPU.
package accel

const (
	PlacementCPU  = "cpu"
	PlacementCUDA = "cuda"
)

type Info struct {
	Available   bool
	Name        string
	DeviceCount int
}

// Placement picks where a run executes.
func Placement(enabled bool, info Info) string {
	if enabled && info.Available {
		return PlacementCUDA
	}
	return PlacementCPU
}

// JobType is the tracker label for a placement.
func JobType(placement string) string {
	if placement == PlacementCUDA {
		return "CUDA"
	}
	return "CPU"
}
