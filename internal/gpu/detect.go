package gpu

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

const nvidiaVendorID = "10de"

// GPUInfo holds detected GPU information
type GPUInfo struct {
	Device    string `json:"device"`     // e.g. "NVIDIA GPU (2204)"
	VRAMTotal int64  `json:"vram_total"` // bytes, 0 if unknown
	Driver    string `json:"driver"`     // e.g. "nvidia"
	CUDA      bool   `json:"cuda"`       // NVIDIA driver loaded
}

// WhisperDevice returns the torch device and whether half precision is usable.
// fp16 is only reliable on CUDA; on CPU whisper falls back to fp32 with a warning.
func (g *GPUInfo) WhisperDevice() (device string, fp16 bool) {
	if g != nil && g.CUDA {
		return "cuda", true
	}
	return "cpu", false
}

var (
	cachedGPU  *GPUInfo
	detectOnce sync.Once
)

// DetectGPU probes the system once and caches the result.
func DetectGPU() *GPUInfo {
	detectOnce.Do(func() {
		cachedGPU = detectGPU("/")
		log.Printf("[gpu] detected: device=%q vram_total=%d MB driver=%s cuda=%t",
			cachedGPU.Device,
			cachedGPU.VRAMTotal/1024/1024,
			cachedGPU.Driver,
			cachedGPU.CUDA)
	})
	return cachedGPU
}

// detectGPU inspects sysfs/procfs below root. root is "/" outside tests.
func detectGPU(root string) *GPUInfo {
	info := &GPUInfo{}

	if _, err := os.Stat(filepath.Join(root, "proc/driver/nvidia/version")); err == nil {
		info.CUDA = true
		info.Driver = "nvidia"
	}

	cards, err := filepath.Glob(filepath.Join(root, "sys/class/drm/card[0-9]*"))
	if err != nil {
		return info
	}

	for _, card := range cards {
		// Skip connector nodes (cardN-XXX)
		if strings.Contains(filepath.Base(card), "-") {
			continue
		}
		deviceDir := filepath.Join(card, "device")

		vendorID, deviceID := readPCIID(deviceDir)
		if vendorID == "" {
			continue
		}

		vram, _ := readSysfsInt(filepath.Join(deviceDir, "mem_info_vram_total"))
		if vendorID != nvidiaVendorID && vram == 0 {
			continue // integrated graphics
		}

		info.Device = deviceName(vendorID, deviceID)
		info.VRAMTotal = vram
		if driverLink, err := os.Readlink(filepath.Join(deviceDir, "driver")); err == nil {
			info.Driver = filepath.Base(driverLink)
		}
		if vendorID == nvidiaVendorID && info.Driver == "nvidia" {
			info.CUDA = true
		}
		break
	}

	return info
}

func readSysfsInt(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
}

func readPCIID(deviceDir string) (vendorID, deviceID string) {
	data, err := os.ReadFile(filepath.Join(deviceDir, "uevent"))
	if err != nil {
		return "", ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "PCI_ID=") {
			parts := strings.Split(strings.TrimPrefix(line, "PCI_ID="), ":")
			if len(parts) == 2 {
				return strings.ToLower(parts[0]), strings.ToLower(parts[1])
			}
		}
	}
	return "", ""
}

func deviceName(vendorID, deviceID string) string {
	switch vendorID {
	case nvidiaVendorID:
		return "NVIDIA GPU (" + deviceID + ")"
	case "1002":
		return "AMD GPU (" + deviceID + ")"
	case "8086":
		return "Intel GPU (" + deviceID + ")"
	}
	return "GPU (" + vendorID + ":" + deviceID + ")"
}
