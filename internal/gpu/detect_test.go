package gpu

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDetectNoGPU(t *testing.T) {
	info := detectGPU(t.TempDir())
	assert.False(t, info.CUDA)
	device, fp16 := info.WhisperDevice()
	assert.Equal(t, "cpu", device)
	assert.False(t, fp16)
}

func TestDetectNvidiaDriver(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "proc/driver/nvidia/version"), "NVRM version: 550.54")
	writeFile(t, filepath.Join(root, "sys/class/drm/card0/device/uevent"), "DRIVER=nvidia\nPCI_ID=10DE:2204\n")

	info := detectGPU(root)
	assert.True(t, info.CUDA)
	assert.Equal(t, "NVIDIA GPU (2204)", info.Device)
	device, fp16 := info.WhisperDevice()
	assert.Equal(t, "cuda", device)
	assert.True(t, fp16)
}

func TestDetectSkipsIntegratedGraphics(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sys/class/drm/card0/device/uevent"), "PCI_ID=8086:46A6\n")
	writeFile(t, filepath.Join(root, "sys/class/drm/card1/device/uevent"), "PCI_ID=1002:73BF\n")
	writeFile(t, filepath.Join(root, "sys/class/drm/card1/device/mem_info_vram_total"), "17163091968\n")

	info := detectGPU(root)
	assert.Equal(t, "AMD GPU (73bf)", info.Device)
	assert.Equal(t, int64(17163091968), info.VRAMTotal)
	assert.False(t, info.CUDA)
}

func TestWhisperDeviceNil(t *testing.T) {
	var info *GPUInfo
	device, fp16 := info.WhisperDevice()
	assert.Equal(t, "cpu", device)
	assert.False(t, fp16)
}
