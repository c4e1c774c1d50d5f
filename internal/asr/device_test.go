package asr

import "testing"

func TestDetectDevice(t *testing.T) {
	t.Run("override_wins", func(t *testing.T) {
		if got := DetectDevice(DeviceCUDA); got != DeviceCUDA {
			t.Errorf("DetectDevice(cuda) = %q", got)
		}
		if got := DetectDevice(DeviceCPU); got != DeviceCPU {
			t.Errorf("DetectDevice(cpu) = %q", got)
		}
	})

	t.Run("auto_detect_returns_known_device", func(t *testing.T) {
		got := DetectDevice("")
		if got != DeviceCPU && got != DeviceCUDA {
			t.Errorf("DetectDevice(\"\") = %q, want cpu or cuda", got)
		}
	})
}
