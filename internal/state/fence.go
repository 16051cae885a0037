package state

import (
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/memtrack/report"
)

func (s *DeviceState) AddFence(fence Fence, createInfo core1_0.FenceCreateInfo) {
	s.fences.Put(fence, &FenceState{
		Handle:     fence,
		CreateInfo: createInfo,
	})
}

func (s *DeviceState) FenceState(fence Fence) (*FenceState, bool) {
	return s.fences.Get(fence)
}

func (s *DeviceState) RemoveFence(fence Fence) {
	s.fences.Delete(fence)
}

// SubmitFence allocates the next per-device fence id for a submission and
// moves the queue's submitted watermark to it. When a fence handle is
// supplied it must currently be unsignaled; its submission identity is
// recorded either way.
func (s *DeviceState) SubmitFence(queue Queue, fence Fence) (fenceID uint64, skip bool) {
	fenceID = s.nextFenceID
	s.nextFenceID++

	if fence != NullFence {
		fenceInfo, found := s.fences.Get(fence)
		if !found {
			fenceInfo = &FenceState{Handle: fence}
			s.fences.Put(fence, fenceInfo)
		}
		if fenceInfo.Signaled() {
			skip = s.reporter.Log(report.SeverityError, report.ObjectFence, uint64(fence), report.CodeInvalidFenceState, PrefixMem,
				"Fence %#x submitted in SIGNALED state. Fences must be reset before being submitted", uint64(fence))
		}
		fenceInfo.SubmittedFenceID = fenceID
		fenceInfo.SubmittedQueue = queue
	}

	queueInfo, found := s.queues.Get(queue)
	if !found {
		queueInfo = &QueueState{Handle: queue}
		s.queues.Put(queue, queueInfo)
	}
	queueInfo.LastSubmittedID = fenceID
	return fenceID, skip
}

// RecordCBSubmission stamps one command buffer with the submission's fence
// id, fence handle, and queue.
func (s *DeviceState) RecordCBSubmission(cb CommandBuffer, fenceID uint64, fence Fence, queue Queue) bool {
	cbInfo, found := s.commandBuffers.Get(cb)
	if !found {
		return s.reporter.Log(report.SeverityError, report.ObjectCommandBuffer, uint64(cb), report.CodeInvalidCB, PrefixMem,
			"Unable to find command buffer object %#x submitted to queue %#x", uint64(cb), uint64(queue))
	}
	cbInfo.FenceID = fenceID
	cbInfo.LastSubmittedFence = fence
	cbInfo.LastSubmittedQueue = queue
	return false
}

// UpdateFenceTracking records that a fence is known to be signaled,
// advancing the retired watermark of the queue it was submitted on.
func (s *DeviceState) UpdateFenceTracking(fence Fence) {
	fenceInfo, found := s.fences.Get(fence)
	if !found {
		return
	}

	queueInfo, queueFound := s.queues.Get(fenceInfo.SubmittedQueue)
	if queueFound && queueInfo.LastRetiredID < fenceInfo.SubmittedFenceID {
		queueInfo.LastRetiredID = fenceInfo.SubmittedFenceID
	}
	fenceInfo.setSignaled(true)
}

// RetireQueue marks everything submitted to the queue as completed.
func (s *DeviceState) RetireQueue(queue Queue) {
	queueInfo, found := s.queues.Get(queue)
	if !found {
		return
	}
	queueInfo.LastRetiredID = queueInfo.LastSubmittedID
}

// RetireDevice applies RetireQueue to every queue on the device.
func (s *DeviceState) RetireDevice() {
	s.queues.Iter(func(queue Queue, queueInfo *QueueState) bool {
		queueInfo.LastRetiredID = queueInfo.LastSubmittedID
		return false
	})
}

// ResetFence validates and applies one fence reset: a fence that is not
// currently signaled warns, a signaled fence has its signaled flag cleared.
// The submission identity is retained across resets.
func (s *DeviceState) ResetFence(fence Fence) bool {
	fenceInfo, found := s.fences.Get(fence)
	if !found {
		return false
	}

	if !fenceInfo.Signaled() {
		return s.reporter.Log(report.SeverityWarn, report.ObjectFence, uint64(fence), report.CodeInvalidFenceState, PrefixMem,
			"Fence %#x submitted to ResetFences in UNSIGNALED state", uint64(fence))
	}
	fenceInfo.setSignaled(false)
	return false
}

// VerifyFenceStatus warns when a status or wait call targets a fence that
// is already signaled, or one that has never been submitted on any queue.
func (s *DeviceState) VerifyFenceStatus(fence Fence, apiName string) bool {
	fenceInfo, found := s.fences.Get(fence)
	if !found {
		return false
	}

	skip := false
	if fenceInfo.Signaled() {
		skip = s.reporter.Log(report.SeverityWarn, report.ObjectFence, uint64(fence), report.CodeInvalidFenceState, PrefixMem,
			"%s specified fence %#x already in SIGNALED state", apiName, uint64(fence))
	}
	if fenceInfo.SubmittedQueue == NullQueue {
		if s.reporter.Log(report.SeverityWarn, report.ObjectFence, uint64(fence), report.CodeInvalidFenceState, PrefixMem,
			"%s called for fence %#x which has not been submitted on a queue", apiName, uint64(fence)) {
			skip = true
		}
	}
	return skip
}
