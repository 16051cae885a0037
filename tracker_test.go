package memtrack

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/ext_debug_report"
	"github.com/vkngwrapper/extensions/v2/khr_swapchain"
	"github.com/vkngwrapper/memtrack/config"
	"github.com/vkngwrapper/memtrack/internal/state"
	"github.com/vkngwrapper/memtrack/report"
	"golang.org/x/exp/slog"
)

func newTestTracker(t *testing.T) (*Tracker, *fakeDriver, *report.Recorder) {
	recorder := &report.Recorder{}

	instance, err := NewInstanceTracker(slog.Default(), config.Options{
		ReportFlags: report.SeverityInfo | report.SeverityWarn | report.SeverityError,
	})
	require.NoError(t, err)
	instance.RegisterCallback(recorder)
	t.Cleanup(func() {
		require.NoError(t, instance.Destroy())
	})

	deviceDriver := newFakeDriver()
	tracker, err := NewTracker(instance, deviceDriver, 0x1, CreateOptions{
		EnabledExtensions: []string{khr_swapchain.ExtensionName},
		MemoryProperties: core1_0.PhysicalDeviceMemoryProperties{
			MemoryTypes: []core1_0.MemoryType{
				{
					PropertyFlags: core1_0.MemoryPropertyDeviceLocal | core1_0.MemoryPropertyHostVisible,
					HeapIndex:     0,
				},
				{
					PropertyFlags: core1_0.MemoryPropertyDeviceLocal,
					HeapIndex:     0,
				},
			},
			MemoryHeaps: []core1_0.MemoryHeap{
				{
					Size:  1000000,
					Flags: core1_0.MemoryHeapDeviceLocal,
				},
			},
		},
	})
	require.NoError(t, err)
	return tracker, deviceDriver, recorder
}

func TestMapMemoryBounds(t *testing.T) {
	tracker, deviceDriver, recorder := newTestTracker(t)

	mem, res, err := tracker.AllocateMemory(core1_0.MemoryAllocateInfo{
		AllocationSize:  4096,
		MemoryTypeIndex: 0,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, core1_0.VKSuccess, res)

	_, res, err = tracker.MapMemory(mem, 0, 4096, 0)
	require.NoError(t, err)
	require.Equal(t, core1_0.VKSuccess, res)
	require.Empty(t, recorder.Messages)

	_, res, err = tracker.MapMemory(mem, 0, 8192, 0)
	require.Error(t, err)
	require.Equal(t, ext_debug_report.VKErrorValidationFailed, res)
	require.Equal(t, 1, recorder.CountOf(report.CodeInvalidMap))
	require.Equal(t, 1, deviceDriver.forwardCount("MapMemory"))

	recorder.Reset()
	tracker.FreeMemory(mem, nil)
	require.Empty(t, recorder.Messages)
	require.Equal(t, 1, deviceDriver.forwardCount("FreeMemory"))
}

func TestMapMemoryRequiresHostVisibleType(t *testing.T) {
	tracker, _, recorder := newTestTracker(t)

	mem, _, err := tracker.AllocateMemory(core1_0.MemoryAllocateInfo{
		AllocationSize:  4096,
		MemoryTypeIndex: 1,
	}, nil)
	require.NoError(t, err)

	_, res, err := tracker.MapMemory(mem, 0, 64, 0)
	require.Error(t, err)
	require.Equal(t, ext_debug_report.VKErrorValidationFailed, res)
	require.Equal(t, 1, recorder.CountOf(report.CodeInvalidState))
}

func TestFreeMemoryWithBoundBuffers(t *testing.T) {
	tracker, deviceDriver, recorder := newTestTracker(t)

	buffer1, _, err := tracker.CreateBuffer(core1_0.BufferCreateInfo{Usage: core1_0.BufferUsageTransferSrc}, nil)
	require.NoError(t, err)
	buffer2, _, err := tracker.CreateBuffer(core1_0.BufferCreateInfo{Usage: core1_0.BufferUsageTransferSrc}, nil)
	require.NoError(t, err)

	mem, _, err := tracker.AllocateMemory(core1_0.MemoryAllocateInfo{AllocationSize: 4096}, nil)
	require.NoError(t, err)

	_, err = tracker.BindBufferMemory(buffer1, mem, 0)
	require.NoError(t, err)
	_, err = tracker.BindBufferMemory(buffer2, mem, 0)
	require.NoError(t, err)

	tracker.FreeMemory(mem, nil)

	// One headline error plus one info per lingering binding; the record is
	// removed either way
	require.Equal(t, 3, recorder.CountOf(report.CodeFreedMemRef))
	require.Equal(t, 1, recorder.ErrorCount())
	require.Equal(t, 1, deviceDriver.forwardCount("FreeMemory"))

	_, found := tracker.state.MemoryObject(mem)
	require.False(t, found)
	require.NoError(t, tracker.state.Validate())
}

func TestCommandBufferInFlightLifecycle(t *testing.T) {
	tracker, deviceDriver, recorder := newTestTracker(t)

	fence, _, err := tracker.CreateFence(core1_0.FenceCreateInfo{}, nil)
	require.NoError(t, err)

	commandBuffers, _, err := tracker.AllocateCommandBuffers(CommandBufferAllocateInfo{
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	require.NoError(t, err)
	require.Len(t, commandBuffers, 1)
	cb := commandBuffers[0]

	queue := tracker.GetDeviceQueue(0, 0)

	res, err := tracker.QueueSubmit(queue, []SubmitInfo{
		{CommandBuffers: []state.CommandBuffer{cb}},
	}, fence)
	require.NoError(t, err)
	require.Equal(t, core1_0.VKSuccess, res)

	cbInfo, found := tracker.state.CommandBufferState(cb)
	require.True(t, found)
	require.EqualValues(t, 1, cbInfo.FenceID)

	queueInfo, found := tracker.state.QueueState(queue)
	require.True(t, found)
	require.EqualValues(t, 1, queueInfo.LastSubmittedID)

	// The submission has not retired, so an implicit reset is an error
	res, err = tracker.BeginCommandBuffer(cb, core1_0.CommandBufferBeginInfo{})
	require.Error(t, err)
	require.Equal(t, ext_debug_report.VKErrorValidationFailed, res)
	require.Equal(t, 1, recorder.CountOf(report.CodeResetCBWhileInFlight))
	require.Equal(t, 0, deviceDriver.forwardCount("BeginCommandBuffer"))

	// Observing the fence signal retires the submission
	res, err = tracker.GetFenceStatus(fence)
	require.NoError(t, err)
	require.Equal(t, core1_0.VKSuccess, res)

	queueInfo, _ = tracker.state.QueueState(queue)
	require.EqualValues(t, 1, queueInfo.LastRetiredID)

	recorder.Reset()
	res, err = tracker.BeginCommandBuffer(cb, core1_0.CommandBufferBeginInfo{})
	require.NoError(t, err)
	require.Equal(t, core1_0.VKSuccess, res)
	require.Equal(t, 0, recorder.ErrorCount())
}

func TestResubmitWithoutRetirementIsPermitted(t *testing.T) {
	tracker, deviceDriver, recorder := newTestTracker(t)

	commandBuffers, _, err := tracker.AllocateCommandBuffers(CommandBufferAllocateInfo{CommandBufferCount: 1})
	require.NoError(t, err)
	queue := tracker.GetDeviceQueue(0, 0)

	submits := []SubmitInfo{{CommandBuffers: commandBuffers}}
	_, err = tracker.QueueSubmit(queue, submits, state.NullFence)
	require.NoError(t, err)
	_, err = tracker.QueueSubmit(queue, submits, state.NullFence)
	require.NoError(t, err)

	require.Equal(t, 0, recorder.ErrorCount())
	require.Equal(t, 2, deviceDriver.forwardCount("QueueSubmit"))
}

func TestSemaphoreSubmissionStates(t *testing.T) {
	tracker, deviceDriver, recorder := newTestTracker(t)

	semaphore, _, err := tracker.CreateSemaphore(nil)
	require.NoError(t, err)
	queue := tracker.GetDeviceQueue(0, 0)

	res, err := tracker.QueueSubmit(queue, []SubmitInfo{
		{SignalSemaphores: []state.Semaphore{semaphore}},
	}, state.NullFence)
	require.NoError(t, err)
	require.Equal(t, core1_0.VKSuccess, res)

	current, _ := tracker.state.SemaphoreState(semaphore)
	require.Equal(t, state.SemaphoreSignaled, current)

	// Signaling an already-signaled semaphore is an error and the submit is
	// not forwarded
	res, err = tracker.QueueSubmit(queue, []SubmitInfo{
		{SignalSemaphores: []state.Semaphore{semaphore}},
	}, state.NullFence)
	require.Error(t, err)
	require.Equal(t, ext_debug_report.VKErrorValidationFailed, res)
	require.Equal(t, 1, recorder.ErrorCount())
	require.Equal(t, 1, deviceDriver.forwardCount("QueueSubmit"))

	// Waiting on the signaled semaphore succeeds and returns it to Unset
	// once the driver call completes
	recorder.Reset()
	res, err = tracker.QueueSubmit(queue, []SubmitInfo{
		{WaitSemaphores: []state.Semaphore{semaphore}},
	}, state.NullFence)
	require.NoError(t, err)
	require.Equal(t, core1_0.VKSuccess, res)
	require.Equal(t, 0, recorder.ErrorCount())

	current, _ = tracker.state.SemaphoreState(semaphore)
	require.Equal(t, state.SemaphoreUnset, current)

	tracker.DestroySemaphore(semaphore, nil)
	_, found := tracker.state.SemaphoreState(semaphore)
	require.False(t, found)
}

func TestSwapchainImageLifecycle(t *testing.T) {
	tracker, deviceDriver, recorder := newTestTracker(t)

	swapchain, _, err := tracker.CreateSwapchain(state.SwapchainCreateInfo{
		MinImageCount: 3,
		ImageUsage:    core1_0.ImageUsageColorAttachment,
	}, nil)
	require.NoError(t, err)

	images, _, err := tracker.GetSwapchainImages(swapchain)
	require.NoError(t, err)
	require.Len(t, images, 3)

	for _, image := range images {
		resource, found := tracker.state.Resource(report.ObjectSwapchainImage, uint64(image))
		require.True(t, found)
		require.Equal(t, state.SwapchainSentinel, resource.Memory)
		require.Equal(t, uint32(core1_0.ImageUsageColorAttachment), resource.UsageFlags())
	}

	res, err := tracker.DestroySwapchain(swapchain, nil)
	require.NoError(t, err)
	require.Equal(t, core1_0.VKSuccess, res)
	require.Equal(t, 1, deviceDriver.forwardCount("DestroySwapchain"))
	require.Equal(t, 0, recorder.ErrorCount())

	for _, image := range images {
		_, found := tracker.state.Resource(report.ObjectSwapchainImage, uint64(image))
		require.False(t, found)
	}
}

func TestAcquireNextImageSignalsSemaphore(t *testing.T) {
	tracker, _, recorder := newTestTracker(t)

	swapchain, _, err := tracker.CreateSwapchain(state.SwapchainCreateInfo{
		ImageUsage: core1_0.ImageUsageColorAttachment,
	}, nil)
	require.NoError(t, err)

	semaphore, _, err := tracker.CreateSemaphore(nil)
	require.NoError(t, err)

	_, res, err := tracker.AcquireNextImage(swapchain, time.Hour, semaphore)
	require.NoError(t, err)
	require.Equal(t, core1_0.VKSuccess, res)

	current, _ := tracker.state.SemaphoreState(semaphore)
	require.Equal(t, state.SemaphoreSignaled, current)

	// Acquiring into an already-signaled semaphore is an error
	_, res, err = tracker.AcquireNextImage(swapchain, time.Hour, semaphore)
	require.Error(t, err)
	require.Equal(t, ext_debug_report.VKErrorValidationFailed, res)
	require.Equal(t, 1, recorder.ErrorCount())
}

func TestCreateImageViewChecksUsage(t *testing.T) {
	tracker, deviceDriver, recorder := newTestTracker(t)

	image, _, err := tracker.CreateImage(core1_0.ImageCreateInfo{
		Usage: core1_0.ImageUsageTransferSrc,
	}, nil)
	require.NoError(t, err)

	_, res, err := tracker.CreateImageView(image, nil)
	require.Error(t, err)
	require.Equal(t, ext_debug_report.VKErrorValidationFailed, res)
	require.Equal(t, 1, recorder.CountOf(report.CodeInvalidUsageFlag))
	require.Equal(t, 0, deviceDriver.forwardCount("CreateImageView"))

	recorder.Reset()
	sampled, _, err := tracker.CreateImage(core1_0.ImageCreateInfo{
		Usage: core1_0.ImageUsageSampled | core1_0.ImageUsageTransferSrc,
	}, nil)
	require.NoError(t, err)

	_, res, err = tracker.CreateImageView(sampled, nil)
	require.NoError(t, err)
	require.Equal(t, core1_0.VKSuccess, res)
	require.Empty(t, recorder.Messages)
}

func TestResetUnsignaledFenceIsSkipped(t *testing.T) {
	tracker, deviceDriver, recorder := newTestTracker(t)

	fence, _, err := tracker.CreateFence(core1_0.FenceCreateInfo{}, nil)
	require.NoError(t, err)

	res, err := tracker.ResetFences([]state.Fence{fence})
	require.Error(t, err)
	require.Equal(t, ext_debug_report.VKErrorValidationFailed, res)
	require.Equal(t, 1, recorder.CountOf(report.CodeInvalidFenceState))
	require.Equal(t, 0, deviceDriver.forwardCount("ResetFences"))
}

func TestWaitForFencesRetirement(t *testing.T) {
	tracker, _, _ := newTestTracker(t)

	fence1, _, err := tracker.CreateFence(core1_0.FenceCreateInfo{}, nil)
	require.NoError(t, err)
	fence2, _, err := tracker.CreateFence(core1_0.FenceCreateInfo{}, nil)
	require.NoError(t, err)
	queue := tracker.GetDeviceQueue(0, 0)

	_, err = tracker.QueueSubmit(queue, nil, fence1)
	require.NoError(t, err)
	_, err = tracker.QueueSubmit(queue, nil, fence2)
	require.NoError(t, err)

	// Without waitAll and more than one fence, the signaled subset is
	// unknowable and retirement must not advance
	_, err = tracker.WaitForFences(false, time.Second, []state.Fence{fence1, fence2})
	require.NoError(t, err)
	queueInfo, _ := tracker.state.QueueState(queue)
	require.EqualValues(t, 0, queueInfo.LastRetiredID)

	_, err = tracker.WaitForFences(true, time.Second, []state.Fence{fence1, fence2})
	require.NoError(t, err)
	queueInfo, _ = tracker.state.QueueState(queue)
	require.EqualValues(t, 2, queueInfo.LastRetiredID)
}

func TestQueueWaitIdleRetires(t *testing.T) {
	tracker, _, _ := newTestTracker(t)

	queue := tracker.GetDeviceQueue(0, 0)
	_, err := tracker.QueueSubmit(queue, nil, state.NullFence)
	require.NoError(t, err)

	_, err = tracker.QueueWaitIdle(queue)
	require.NoError(t, err)

	queueInfo, _ := tracker.state.QueueState(queue)
	require.Equal(t, queueInfo.LastSubmittedID, queueInfo.LastRetiredID)
}

func TestDeviceWaitIdleRetiresAllQueues(t *testing.T) {
	tracker, _, _ := newTestTracker(t)

	queue1 := tracker.GetDeviceQueue(0, 0)
	queue2 := tracker.GetDeviceQueue(1, 0)
	_, err := tracker.QueueSubmit(queue1, nil, state.NullFence)
	require.NoError(t, err)
	_, err = tracker.QueueSubmit(queue2, nil, state.NullFence)
	require.NoError(t, err)

	_, err = tracker.DeviceWaitIdle()
	require.NoError(t, err)

	for _, queue := range []state.Queue{queue1, queue2} {
		queueInfo, _ := tracker.state.QueueState(queue)
		require.Equal(t, queueInfo.LastSubmittedID, queueInfo.LastRetiredID)
	}
}

func TestDestroyDeviceReportsLeaks(t *testing.T) {
	tracker, deviceDriver, recorder := newTestTracker(t)

	_, _, err := tracker.AllocateMemory(core1_0.MemoryAllocateInfo{AllocationSize: 4096}, nil)
	require.NoError(t, err)
	_, _, err = tracker.AllocateMemory(core1_0.MemoryAllocateInfo{AllocationSize: 128}, nil)
	require.NoError(t, err)

	res, err := tracker.DestroyDevice(nil)
	require.Error(t, err)
	require.Equal(t, ext_debug_report.VKErrorValidationFailed, res)
	require.Equal(t, 2, recorder.CountOf(report.CodeMemoryLeak))
	require.Equal(t, 0, deviceDriver.forwardCount("DestroyDevice"))
}

func TestDestroyDeviceCleanForwards(t *testing.T) {
	tracker, deviceDriver, _ := newTestTracker(t)

	mem, _, err := tracker.AllocateMemory(core1_0.MemoryAllocateInfo{AllocationSize: 4096}, nil)
	require.NoError(t, err)
	tracker.FreeMemory(mem, nil)

	res, err := tracker.DestroyDevice(nil)
	require.NoError(t, err)
	require.Equal(t, core1_0.VKSuccess, res)
	require.Equal(t, 1, deviceDriver.forwardCount("DestroyDevice"))
}

func TestRecordedCommandsTrackMemoryAndUsage(t *testing.T) {
	tracker, deviceDriver, recorder := newTestTracker(t)

	src, _, err := tracker.CreateBuffer(core1_0.BufferCreateInfo{Usage: core1_0.BufferUsageTransferSrc}, nil)
	require.NoError(t, err)
	dst, _, err := tracker.CreateBuffer(core1_0.BufferCreateInfo{Usage: core1_0.BufferUsageTransferDst}, nil)
	require.NoError(t, err)

	srcMem, _, err := tracker.AllocateMemory(core1_0.MemoryAllocateInfo{AllocationSize: 1024}, nil)
	require.NoError(t, err)
	dstMem, _, err := tracker.AllocateMemory(core1_0.MemoryAllocateInfo{AllocationSize: 1024}, nil)
	require.NoError(t, err)

	_, err = tracker.BindBufferMemory(src, srcMem, 0)
	require.NoError(t, err)
	_, err = tracker.BindBufferMemory(dst, dstMem, 0)
	require.NoError(t, err)

	commandBuffers, _, err := tracker.AllocateCommandBuffers(CommandBufferAllocateInfo{CommandBufferCount: 1})
	require.NoError(t, err)
	cb := commandBuffers[0]

	tracker.CmdCopyBuffer(cb, src, dst, []core1_0.BufferCopy{{Size: 1024}})
	require.Equal(t, 1, deviceDriver.forwardCount("CmdCopyBuffer"))
	require.Empty(t, recorder.Messages)

	cbInfo, _ := tracker.state.CommandBufferState(cb)
	require.Len(t, cbInfo.MemoryRefs, 2)

	// A copy with reversed roles fails both strict usage checks and is not
	// forwarded
	tracker.CmdCopyBuffer(cb, dst, src, nil)
	require.Equal(t, 1, deviceDriver.forwardCount("CmdCopyBuffer"))
	require.Equal(t, 2, recorder.CountOf(report.CodeInvalidUsageFlag))
	require.NoError(t, tracker.state.Validate())
}

func TestDynamicStateCommandsRequireKnownCB(t *testing.T) {
	tracker, deviceDriver, recorder := newTestTracker(t)

	tracker.CmdSetLineWidth(0xdead, 1.0)
	require.Equal(t, 0, deviceDriver.forwardCount("CmdSetLineWidth"))
	require.Equal(t, 1, recorder.CountOf(report.CodeInvalidCB))

	commandBuffers, _, err := tracker.AllocateCommandBuffers(CommandBufferAllocateInfo{CommandBufferCount: 1})
	require.NoError(t, err)

	tracker.CmdSetLineWidth(commandBuffers[0], 1.0)
	require.Equal(t, 1, deviceDriver.forwardCount("CmdSetLineWidth"))
}

func TestBuildStateString(t *testing.T) {
	tracker, _, _ := newTestTracker(t)

	mem, _, err := tracker.AllocateMemory(core1_0.MemoryAllocateInfo{AllocationSize: 4096}, nil)
	require.NoError(t, err)

	output := tracker.BuildStateString()
	require.Contains(t, output, "MemoryObjects")
	require.Contains(t, output, "CommandBuffers")

	tracker.FreeMemory(mem, nil)
}

func TestLayerIdentity(t *testing.T) {
	layers := EnumerateLayerProperties()
	require.Len(t, layers, 1)
	require.Equal(t, "MemTracker", layers[0].LayerName)
	require.NotEmpty(t, layers[0].Description)

	require.Empty(t, EnumerateInstanceExtensionProperties())
	require.Empty(t, EnumerateDeviceExtensionProperties())
}

func TestQueueBindSparseUpdatesBindings(t *testing.T) {
	tracker, deviceDriver, recorder := newTestTracker(t)

	buffer, _, err := tracker.CreateBuffer(core1_0.BufferCreateInfo{Usage: core1_0.BufferUsageTransferSrc}, nil)
	require.NoError(t, err)
	mem, _, err := tracker.AllocateMemory(core1_0.MemoryAllocateInfo{AllocationSize: 4096}, nil)
	require.NoError(t, err)
	queue := tracker.GetDeviceQueue(0, 0)

	bindInfos := []BindSparseInfo{
		{
			BufferBinds: []SparseBufferMemoryBindInfo{
				{
					Buffer: buffer,
					Binds:  []SparseMemoryBind{{Size: 4096, Memory: mem}},
				},
			},
		},
	}
	_, err = tracker.QueueBindSparse(queue, bindInfos, state.NullFence)
	require.NoError(t, err)
	require.Equal(t, 1, deviceDriver.forwardCount("QueueBindSparse"))
	require.Empty(t, recorder.Messages)

	memInfo, _ := tracker.state.MemoryObject(mem)
	require.Equal(t, 1, memInfo.RefCount)

	// Unbind through a null memory handle
	bindInfos[0].BufferBinds[0].Binds[0].Memory = state.NullMemory
	_, err = tracker.QueueBindSparse(queue, bindInfos, state.NullFence)
	require.NoError(t, err)

	memInfo, _ = tracker.state.MemoryObject(mem)
	require.Equal(t, 0, memInfo.RefCount)
	require.NoError(t, tracker.state.Validate())
}

func TestDestroyBufferClearsBinding(t *testing.T) {
	tracker, deviceDriver, recorder := newTestTracker(t)

	buffer, _, err := tracker.CreateBuffer(core1_0.BufferCreateInfo{Usage: core1_0.BufferUsageTransferSrc}, nil)
	require.NoError(t, err)
	mem, _, err := tracker.AllocateMemory(core1_0.MemoryAllocateInfo{AllocationSize: 4096}, nil)
	require.NoError(t, err)
	_, err = tracker.BindBufferMemory(buffer, mem, 0)
	require.NoError(t, err)

	res, err := tracker.DestroyBuffer(buffer, nil)
	require.NoError(t, err)
	require.Equal(t, core1_0.VKSuccess, res)
	require.Equal(t, 1, deviceDriver.forwardCount("DestroyBuffer"))
	require.Empty(t, recorder.Messages)

	memInfo, found := tracker.state.MemoryObject(mem)
	require.True(t, found)
	require.Equal(t, 0, memInfo.RefCount)
	require.NoError(t, tracker.state.Validate())
}

func TestDestroyUnboundBufferWarnsAndSkips(t *testing.T) {
	tracker, deviceDriver, recorder := newTestTracker(t)

	buffer, _, err := tracker.CreateBuffer(core1_0.BufferCreateInfo{}, nil)
	require.NoError(t, err)

	res, err := tracker.DestroyBuffer(buffer, nil)
	require.Error(t, err)
	require.Equal(t, ext_debug_report.VKErrorValidationFailed, res)
	require.Equal(t, 1, recorder.CountOf(report.CodeMemObjClearEmptyBindings))
	require.Equal(t, 0, deviceDriver.forwardCount("DestroyBuffer"))
}
