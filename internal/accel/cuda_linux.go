//go:build linux && cgo && cuda

package accel

/*
#cgo LDFLAGS: -L/usr/local/cuda/lib64 -lcudart
#cgo CFLAGS: -I/usr/local/cuda/include

#include <cuda_runtime.h>
#include <stdlib.h>
#include <string.h>

int cuda_device_count(void) {
    int count = 0;
    if (cudaGetDeviceCount(&count) != cudaSuccess) {
        return 0;
    }
    return count;
}

int cuda_device_name(int device, char* out, int n) {
    struct cudaDeviceProp prop;
    if (cudaGetDeviceProperties(&prop, device) != cudaSuccess) {
        return 0;
    }
    strncpy(out, prop.name, n - 1);
    out[n - 1] = '\0';
    return 1;
}
*/
import "C"

import "unsafe"

func Probe() Info {
	count := int(C.cuda_device_count())
	if count == 0 {
		return Info{Name: "CUDA (no device)"}
	}

	buf := (*C.char)(C.malloc(256))
	defer C.free(unsafe.Pointer(buf))

	name := "CUDA"
	if C.cuda_device_name(0, buf, 256) == 1 {
		name = C.GoString(buf)
	}
	return Info{Available: true, Name: name, DeviceCount: count}
}
