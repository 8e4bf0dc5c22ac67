//go:build !linux || !cgo || !cuda

package accel

// Probe reports no accelerator on builds without the cuda tag.
func Probe() Info {
	return Info{Name: "CUDA (build with -tags cuda on Linux with cgo)"}
}
