package memtrack

import (
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
	"github.com/vkngwrapper/memtrack/internal/debug"
	"github.com/vkngwrapper/memtrack/internal/state"
	"github.com/vkngwrapper/memtrack/report"
)

// CreateBuffer forwards the creation and records the buffer's create info
// for later binding and usage-flag checks.
func (t *Tracker) CreateBuffer(createInfo core1_0.BufferCreateInfo, callbacks *driver.AllocationCallbacks) (state.Buffer, common.VkResult, error) {
	t.logger.Debug("Tracker::CreateBuffer")

	buffer, res, err := t.driver.CreateBuffer(createInfo, callbacks)
	if err != nil {
		return buffer, res, err
	}

	t.lock.Lock()
	t.state.AddBuffer(buffer, createInfo)
	t.lock.Unlock()
	return buffer, res, nil
}

// DestroyBuffer clears any live memory binding and removes the record
// before forwarding.
func (t *Tracker) DestroyBuffer(buffer state.Buffer, callbacks *driver.AllocationCallbacks) (common.VkResult, error) {
	t.logger.Debug("Tracker::DestroyBuffer")

	t.lock.Lock()
	skip := t.state.RemoveResource(report.ObjectBuffer, uint64(buffer))
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	if skip {
		return validationFailed()
	}
	t.driver.DestroyBuffer(buffer, callbacks)
	return core1_0.VKSuccess, nil
}

// CreateImage forwards the creation and records the image's create info for
// later binding and usage-flag checks.
func (t *Tracker) CreateImage(createInfo core1_0.ImageCreateInfo, callbacks *driver.AllocationCallbacks) (state.Image, common.VkResult, error) {
	t.logger.Debug("Tracker::CreateImage")

	image, res, err := t.driver.CreateImage(createInfo, callbacks)
	if err != nil {
		return image, res, err
	}

	t.lock.Lock()
	t.state.AddImage(image, createInfo)
	t.lock.Unlock()
	return image, res, nil
}

// DestroyImage clears any live memory binding and removes the record before
// forwarding.
func (t *Tracker) DestroyImage(image state.Image, callbacks *driver.AllocationCallbacks) (common.VkResult, error) {
	t.logger.Debug("Tracker::DestroyImage")

	t.lock.Lock()
	skip := t.state.RemoveResource(report.ObjectImage, uint64(image))
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	if skip {
		return validationFailed()
	}
	t.driver.DestroyImage(image, callbacks)
	return core1_0.VKSuccess, nil
}

// CreateImageView requires the image to have been created with a usage that
// permits views; any of the sampled, storage, or attachment bits passes.
func (t *Tracker) CreateImageView(image state.Image, callbacks *driver.AllocationCallbacks) (state.ImageView, common.VkResult, error) {
	t.logger.Debug("Tracker::CreateImageView")

	desired := core1_0.ImageUsageSampled | core1_0.ImageUsageStorage |
		core1_0.ImageUsageColorAttachment | core1_0.ImageUsageDepthStencilAttachment

	t.lock.Lock()
	skip := t.state.ValidateUsageFlags(report.ObjectImage, uint64(image), uint32(desired), false,
		"CreateImageView()", desired.String())
	t.lock.Unlock()

	if skip {
		res, err := validationFailed()
		return 0, res, err
	}
	return t.driver.CreateImageView(image, callbacks)
}

// CreateBufferView requires the buffer to have been created with a texel
// usage bit; either uniform-texel or storage-texel passes.
func (t *Tracker) CreateBufferView(buffer state.Buffer, callbacks *driver.AllocationCallbacks) (state.BufferView, common.VkResult, error) {
	t.logger.Debug("Tracker::CreateBufferView")

	desired := core1_0.BufferUsageUniformTexelBuffer | core1_0.BufferUsageStorageTexelBuffer

	t.lock.Lock()
	skip := t.state.ValidateUsageFlags(report.ObjectBuffer, uint64(buffer), uint32(desired), false,
		"CreateBufferView()", desired.String())
	t.lock.Unlock()

	if skip {
		res, err := validationFailed()
		return 0, res, err
	}
	return t.driver.CreateBufferView(buffer, callbacks)
}

// BindBufferMemory wires the buffer into the memory object's binding set
// before forwarding.
func (t *Tracker) BindBufferMemory(buffer state.Buffer, mem state.DeviceMemory, memoryOffset int) (common.VkResult, error) {
	t.logger.Debug("Tracker::BindBufferMemory")

	t.lock.Lock()
	skip := t.state.SetBinding(report.ObjectBuffer, uint64(buffer), mem, "BindBufferMemory")
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	if skip {
		return validationFailed()
	}
	return t.driver.BindBufferMemory(buffer, mem, memoryOffset)
}

// BindImageMemory wires the image into the memory object's binding set
// before forwarding.
func (t *Tracker) BindImageMemory(image state.Image, mem state.DeviceMemory, memoryOffset int) (common.VkResult, error) {
	t.logger.Debug("Tracker::BindImageMemory")

	t.lock.Lock()
	skip := t.state.SetBinding(report.ObjectImage, uint64(image), mem, "BindImageMemory")
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	if skip {
		return validationFailed()
	}
	return t.driver.BindImageMemory(image, mem, memoryOffset)
}

// QueueBindSparse applies every sparse bind in the submission to the
// binding graph. Null memory handles unbind. The fence parameter forwards
// untouched; sparse submissions do not stamp command buffers.
func (t *Tracker) QueueBindSparse(queue state.Queue, bindInfos []BindSparseInfo, fence state.Fence) (common.VkResult, error) {
	t.logger.Debug("Tracker::QueueBindSparse")

	t.lock.Lock()
	skip := false
	for _, bindInfo := range bindInfos {
		for _, bufferBind := range bindInfo.BufferBinds {
			for _, bind := range bufferBind.Binds {
				if t.state.SetSparseBinding(report.ObjectBuffer, uint64(bufferBind.Buffer), bind.Memory, "QueueBindSparse") {
					skip = true
				}
			}
		}
		for _, imageOpaqueBind := range bindInfo.ImageOpaqueBinds {
			for _, bind := range imageOpaqueBind.Binds {
				if t.state.SetSparseBinding(report.ObjectImage, uint64(imageOpaqueBind.Image), bind.Memory, "QueueBindSparse") {
					skip = true
				}
			}
		}
		for _, imageBind := range bindInfo.ImageBinds {
			for _, bind := range imageBind.Binds {
				if t.state.SetSparseBinding(report.ObjectImage, uint64(imageBind.Image), bind.Memory, "QueueBindSparse") {
					skip = true
				}
			}
		}
	}
	debug.DebugValidate(t.state)
	t.lock.Unlock()

	if skip {
		return validationFailed()
	}
	return t.driver.QueueBindSparse(queue, bindInfos, fence)
}
