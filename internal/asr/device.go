package asr

import (
	"os"
	"os/exec"
)

// Compute devices a recognizer can bind to.
const (
	DeviceCPU    = "cpu"
	DeviceCUDA   = "cuda"
	DeviceRemote = "remote" // http backend; compute happens off-box
)

// DetectDevice resolves the compute device once, at recognizer construction.
// An explicit override wins; otherwise CUDA is selected when an NVIDIA driver
// is visible, falling back to CPU.
func DetectDevice(override string) string {
	if override != "" {
		return override
	}
	if _, err := os.Stat("/proc/driver/nvidia/version"); err == nil {
		return DeviceCUDA
	}
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		return DeviceCUDA
	}
	return DeviceCPU
}
