package memtrack

import (
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
)

// LayerProperties identifies this layer to enumeration entry points.
type LayerProperties struct {
	LayerName             string
	SpecVersion           common.APIVersion
	ImplementationVersion common.Version
	Description           string
}

// EnumerateLayerProperties returns the single layer this module implements.
// It backs both the instance- and device-level layer enumeration entry
// points, which report the same list.
func EnumerateLayerProperties() []LayerProperties {
	return []LayerProperties{
		{
			LayerName:             "MemTracker",
			SpecVersion:           common.Vulkan1_0,
			ImplementationVersion: common.CreateVersion(0, 1, 0),
			Description:           "Validation layer: MemTracker",
		},
	}
}

// EnumerateInstanceExtensionProperties returns the instance extensions this
// layer provides. MemTracker has none.
func EnumerateInstanceExtensionProperties() []core1_0.ExtensionProperties {
	return nil
}

// EnumerateDeviceExtensionProperties returns the device extensions this
// layer provides. MemTracker has none.
func EnumerateDeviceExtensionProperties() []core1_0.ExtensionProperties {
	return nil
}
