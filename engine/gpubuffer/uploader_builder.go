package gpubuffer

import (
	"log/slog"

	"github.com/cogentcore/webgpu/wgpu"
)

// UploaderBuilderOption is a functional option for configuring an Uploader via NewUploader.
type UploaderBuilderOption func(*uploaderImpl)

// WithLabel sets the label prefix used for GPU buffer names and log records.
//
// Parameters:
//   - label: the buffer label prefix
//
// Returns:
//   - UploaderBuilderOption: a function that applies the label option to an uploader
func WithLabel(label string) UploaderBuilderOption {
	return func(u *uploaderImpl) {
		u.label = label
	}
}

// WithLogger sets the structured logger.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - UploaderBuilderOption: a function that applies the logger option to an uploader
func WithLogger(logger *slog.Logger) UploaderBuilderOption {
	return func(u *uploaderImpl) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// WithDevice makes the WGPU backend write through an existing device and queue instead of
// acquiring its own headless device. Ignored by the memory backend.
//
// Parameters:
//   - device: the WebGPU device owning the buffers
//   - queue: the device queue used for writes
//
// Returns:
//   - UploaderBuilderOption: a function that applies the device option to an uploader
func WithDevice(device *wgpu.Device, queue *wgpu.Queue) UploaderBuilderOption {
	return func(u *uploaderImpl) {
		u.device = deviceHandles{device: device, queue: queue}
	}
}

// WithForceFallbackAdapter requests the software adapter when the WGPU backend acquires its
// own device.
//
// Parameters:
//   - force: true to force the fallback adapter
//
// Returns:
//   - UploaderBuilderOption: a function that applies the adapter option to an uploader
func WithForceFallbackAdapter(force bool) UploaderBuilderOption {
	return func(u *uploaderImpl) {
		u.forceFallbackAdapter = force
	}
}
