package state

import (
	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/memtrack/report"
	"golang.org/x/exp/slog"
)

// Layer prefixes attached to emitted diagnostics, matching the subsystem
// that produced them.
const (
	PrefixMem       = "MEM"
	PrefixSemaphore = "SEMAPHORE"
	PrefixSwapchain = "SWAP_CHAIN"
)

const initialTableCapacity = 64

// DeviceState is the per-device tracking core: one table per object kind
// plus the cross-reference graph tying memory to resources, resources to
// command buffers, command buffers to queues, and queues to fences.
//
// DeviceState performs no locking. Every mutating or reading method must be
// called with the owning tracker's core lock held.
type DeviceState struct {
	logger   *slog.Logger
	reporter *report.Reporter

	wsiEnabled  bool
	nextFenceID uint64
	memProps    core1_0.PhysicalDeviceMemoryProperties

	mem            *swiss.Map[DeviceMemory, *MemoryObject]
	resources      *swiss.Map[ResourceKey, *Resource]
	commandBuffers *swiss.Map[CommandBuffer, *CommandBufferState]
	queues         *swiss.Map[Queue, *QueueState]
	fences         *swiss.Map[Fence, *FenceState]
	semaphores     *swiss.Map[Semaphore, SemaphoreState]
	swapchains     *swiss.Map[Swapchain, *SwapchainState]
}

func NewDeviceState(logger *slog.Logger, reporter *report.Reporter, memProps core1_0.PhysicalDeviceMemoryProperties, wsiEnabled bool) *DeviceState {
	return &DeviceState{
		logger:   logger,
		reporter: reporter,

		wsiEnabled:  wsiEnabled,
		nextFenceID: 1,
		memProps:    memProps,

		mem:            swiss.NewMap[DeviceMemory, *MemoryObject](initialTableCapacity),
		resources:      swiss.NewMap[ResourceKey, *Resource](initialTableCapacity),
		commandBuffers: newCommandBufferTable(),
		queues:         swiss.NewMap[Queue, *QueueState](initialTableCapacity),
		fences:         swiss.NewMap[Fence, *FenceState](initialTableCapacity),
		semaphores:     swiss.NewMap[Semaphore, SemaphoreState](initialTableCapacity),
		swapchains:     swiss.NewMap[Swapchain, *SwapchainState](initialTableCapacity),
	}
}

func newCommandBufferTable() *swiss.Map[CommandBuffer, *CommandBufferState] {
	return swiss.NewMap[CommandBuffer, *CommandBufferState](initialTableCapacity)
}

func (s *DeviceState) WSIEnabled() bool {
	return s.wsiEnabled
}

func (s *DeviceState) AddMemoryObject(mem DeviceMemory, allocInfo core1_0.MemoryAllocateInfo) {
	s.mem.Put(mem, &MemoryObject{
		Handle:    mem,
		AllocInfo: allocInfo,
	})
}

func (s *DeviceState) MemoryObject(mem DeviceMemory) (*MemoryObject, bool) {
	return s.mem.Get(mem)
}

func (s *DeviceState) MemoryCount() int {
	return s.mem.Count()
}

func (s *DeviceState) AddBuffer(buffer Buffer, createInfo core1_0.BufferCreateInfo) {
	key := ResourceKey{Kind: report.ObjectBuffer, Handle: uint64(buffer)}
	s.resources.Put(key, &Resource{
		Key:        key,
		BufferInfo: createInfo,
	})
}

func (s *DeviceState) AddImage(image Image, createInfo core1_0.ImageCreateInfo) {
	key := ResourceKey{Kind: report.ObjectImage, Handle: uint64(image)}
	s.resources.Put(key, &Resource{
		Key:       key,
		ImageInfo: createInfo,
	})
}

func (s *DeviceState) addSwapchainImage(image Image, usage core1_0.ImageUsageFlags) {
	key := ResourceKey{Kind: report.ObjectSwapchainImage, Handle: uint64(image)}
	s.resources.Put(key, &Resource{
		Key: key,
		ImageInfo: core1_0.ImageCreateInfo{
			Usage: usage,
		},
		Memory: SwapchainSentinel,
	})
}

func (s *DeviceState) Resource(kind report.ObjectKind, handle uint64) (*Resource, bool) {
	return s.resources.Get(ResourceKey{Kind: kind, Handle: handle})
}

func (s *DeviceState) ResourceCount() int {
	return s.resources.Count()
}

// RemoveResource clears any live binding, then deletes the record. It
// returns true when a message of skip-worthy severity was emitted.
func (s *DeviceState) RemoveResource(kind report.ObjectKind, handle uint64) bool {
	key := ResourceKey{Kind: kind, Handle: handle}
	_, found := s.resources.Get(key)
	if !found {
		return false
	}

	skip := s.ClearBinding(kind, handle)
	s.resources.Delete(key)
	return skip
}

func (s *DeviceState) AddCommandBuffer(cb CommandBuffer) {
	s.commandBuffers.Put(cb, &CommandBufferState{
		Handle: cb,
	})
}

func (s *DeviceState) CommandBufferState(cb CommandBuffer) (*CommandBufferState, bool) {
	return s.commandBuffers.Get(cb)
}

// RequireCommandBuffer emits INVALID_CB when the command buffer is unknown.
// It backs the recording commands that touch no memory state but still must
// reject recording into a destroyed or never-created command buffer.
func (s *DeviceState) RequireCommandBuffer(cb CommandBuffer) bool {
	_, found := s.commandBuffers.Get(cb)
	if found {
		return false
	}
	return s.reporter.Log(report.SeverityError, report.ObjectCommandBuffer, uint64(cb), report.CodeInvalidCB, PrefixMem,
		"Unable to find command buffer object %#x, was it ever created?", uint64(cb))
}

func (s *DeviceState) AddQueue(queue Queue) {
	s.queues.Put(queue, &QueueState{
		Handle: queue,
	})
}

func (s *DeviceState) QueueState(queue Queue) (*QueueState, bool) {
	return s.queues.Get(queue)
}

// DropQueues discards the queue table during device teardown. Queues
// persist until the device is destroyed.
func (s *DeviceState) DropQueues() {
	s.queues = swiss.NewMap[Queue, *QueueState](initialTableCapacity)
}

func (s *DeviceState) AddSemaphore(semaphore Semaphore) {
	s.semaphores.Put(semaphore, SemaphoreUnset)
}

func (s *DeviceState) RemoveSemaphore(semaphore Semaphore) {
	s.semaphores.Delete(semaphore)
}

// Validate checks the cross-reference invariants of every table. It backs
// debug.DebugValidate and the state tests; production builds never call it.
func (s *DeviceState) Validate() error {
	var err error

	s.mem.Iter(func(mem DeviceMemory, info *MemoryObject) bool {
		if info.RefCount != len(info.ObjBindings)+len(info.CommandBufferBindings) {
			err = errors.Newf("memory object %#x has ref count %d but %d resource bindings and %d command buffer bindings",
				uint64(mem), info.RefCount, len(info.ObjBindings), len(info.CommandBufferBindings))
			return true
		}

		for _, cb := range info.CommandBufferBindings {
			cbInfo, found := s.commandBuffers.Get(cb)
			if !found || !cbInfo.hasMemoryRef(mem) {
				err = errors.Newf("memory object %#x lists command buffer %#x, which does not reference it back",
					uint64(mem), uint64(cb))
				return true
			}
		}
		return false
	})
	if err != nil {
		return err
	}

	s.resources.Iter(func(key ResourceKey, resource *Resource) bool {
		if resource.Memory == NullMemory || resource.Memory == SwapchainSentinel {
			return false
		}
		memInfo, found := s.mem.Get(resource.Memory)
		if !found {
			err = errors.Newf("%s %#x is bound to unknown memory object %#x",
				key.Kind, key.Handle, uint64(resource.Memory))
			return true
		}
		matches := 0
		for _, bound := range memInfo.ObjBindings {
			if bound.Kind == key.Kind && bound.Handle == key.Handle {
				matches++
			}
		}
		if matches != 1 {
			err = errors.Newf("%s %#x appears %d times in the binding set of memory object %#x",
				key.Kind, key.Handle, matches, uint64(resource.Memory))
			return true
		}
		return false
	})
	if err != nil {
		return err
	}

	s.commandBuffers.Iter(func(cb CommandBuffer, cbInfo *CommandBufferState) bool {
		for _, mem := range cbInfo.MemoryRefs {
			memInfo, found := s.mem.Get(mem)
			if !found || !memInfo.hasCommandBuffer(cb) {
				err = errors.Newf("command buffer %#x references memory object %#x, which does not list it back",
					uint64(cb), uint64(mem))
				return true
			}
		}
		return false
	})
	if err != nil {
		return err
	}

	s.queues.Iter(func(queue Queue, queueInfo *QueueState) bool {
		if queueInfo.LastRetiredID > queueInfo.LastSubmittedID {
			err = errors.Newf("queue %#x has retired id %d beyond submitted id %d",
				uint64(queue), queueInfo.LastRetiredID, queueInfo.LastSubmittedID)
			return true
		}
		return false
	})
	return err
}
