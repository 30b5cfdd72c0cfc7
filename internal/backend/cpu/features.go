package cpu

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// Features lists the SIMD extensions reported by the host CPU.
// The kernels are portable Go; the list is informational.
func Features() []string {
	var out []string
	switch runtime.GOARCH {
	case "amd64", "386":
		add := func(ok bool, name string) {
			if ok {
				out = append(out, name)
			}
		}
		add(cpu.X86.HasSSE41, "sse4.1")
		add(cpu.X86.HasAVX, "avx")
		add(cpu.X86.HasAVX2, "avx2")
		add(cpu.X86.HasFMA, "fma")
		add(cpu.X86.HasAVX512F, "avx512f")
	case "arm64":
		if cpu.ARM64.HasASIMD {
			out = append(out, "neon")
		}
		if cpu.ARM64.HasSVE {
			out = append(out, "sve")
		}
		if cpu.ARM64.HasFPHP {
			out = append(out, "fp16")
		}
	}
	return out
}
