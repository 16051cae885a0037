package state

import (
	"github.com/vkngwrapper/memtrack/report"
	"golang.org/x/exp/slices"
)

func (s *DeviceState) AddSwapchain(swapchain Swapchain, createInfo SwapchainCreateInfo) {
	s.swapchains.Put(swapchain, &SwapchainState{
		Handle:     swapchain,
		CreateInfo: createInfo,
	})
}

func (s *DeviceState) SwapchainState(swapchain Swapchain) (*SwapchainState, bool) {
	return s.swapchains.Get(swapchain)
}

// RegisterSwapchainImages stores the image handles reported for a swapchain
// the first time they are queried, registering each as a swapchain-image
// resource bound to the sentinel with the swapchain's image usage. Later
// queries that report a different list are a driver inconsistency and warn.
func (s *DeviceState) RegisterSwapchainImages(swapchain Swapchain, images []Image) {
	swapchainInfo, found := s.swapchains.Get(swapchain)
	if !found {
		return
	}

	if len(swapchainInfo.Images) == 0 {
		swapchainInfo.Images = make([]Image, len(images))
		copy(swapchainInfo.Images, images)

		for _, image := range images {
			s.addSwapchainImage(image, swapchainInfo.CreateInfo.ImageUsage)
		}
		return
	}

	if !slices.Equal(swapchainInfo.Images, images) {
		s.reporter.Log(report.SeverityWarn, report.ObjectSwapchain, uint64(swapchain), report.CodeNone, PrefixSwapchain,
			"GetSwapchainImages(%#x) returned mismatching data", uint64(swapchain))
	}
}

// DestroySwapchain removes every image the swapchain registered from the
// resource table and deletes the swapchain record. Sentinel bindings are
// dropped directly: there is no tracked allocation to unwire.
func (s *DeviceState) DestroySwapchain(swapchain Swapchain) bool {
	swapchainInfo, found := s.swapchains.Get(swapchain)
	if !found {
		return false
	}

	skip := false
	for _, image := range swapchainInfo.Images {
		resource, resourceFound := s.Resource(report.ObjectSwapchainImage, uint64(image))
		if !resourceFound {
			continue
		}
		if resource.Memory != SwapchainSentinel && resource.Memory != NullMemory {
			if s.ClearBinding(report.ObjectSwapchainImage, uint64(image)) {
				skip = true
			}
		}
		s.resources.Delete(ResourceKey{Kind: report.ObjectSwapchainImage, Handle: uint64(image)})
	}

	s.swapchains.Delete(swapchain)
	return skip
}
