/*
 * Copyright 2026 Comcast Cable Communications Management, LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package collector

import (
	"fmt"
	"slices"

	"github.com/comcast/fishyinventory/projection"
)

const (
	Dell = "Dell"
)

var (
	odataMeta   = []string{"@odata.context", "@odata.type"}
	odataAll    = []string{"@odata.context", "@odata.type", "@odata.id"}
	odataLinked = []string{"@odata.id", "@odata.context", "@odata.type", "Metrics", "Links"}
)

func dellBlock(model string, drop []string, missing projection.MissingPolicy) *projection.VendorRule {
	return &projection.VendorRule{
		Path:    []string{Dell, model},
		Drop:    drop,
		Nest:    true,
		Missing: missing,
	}
}

var systemRule = projection.Rule{
	Drop: []string{
		"@odata.id", "@odata.context", "@odata.type", "Links", "Actions", "Description",
		"EthernetInterfaces", "Storage", "Processors", "Memory", "SecureBoot",
		"NetworkInterfaces", "Bios", "SimpleStorage", "PCIeDevices", "PCIeFunctions",
	},
	Vendor: dellBlock("DellSystem", odataAll, projection.Abort),
}

var memoryRule = projection.Rule{
	Drop:   []string{"@odata.id", "@odata.context", "Assembly", "Metrics", "Links"},
	Vendor: dellBlock("DellMemory", odataMeta, projection.Abort),
}

var processorRule = projection.Rule{
	Drop:   slices.Concat(odataLinked, []string{"Description", "Assembly"}),
	Vendor: dellBlock("DellProcessor", odataMeta, projection.Abort),
}

// fans are copied as the BMC returns them
var fanRule = projection.Rule{}

// applies to PowerSupply resources and to the PowerSupplies members of a Power
// resource alike, the rest of a Power resource is never projected
var powerSupplyRule = projection.Rule{
	Vendor: dellBlock("DellPowerSupply", nil, projection.Abort),
}

var storageControllerRule = projection.Rule{
	Drop:      []string{"Status"},
	DropMatch: projection.ContainsAny("@", "odata"),
	Reshape: map[string]projection.ReshapeFunc{
		"StorageControllers": projection.MergeElements(projection.Rule{Flatten: []string{"Status"}}),
	},
	Vendor: dellBlock("DellController", nil, projection.Fallback),
}

var diskRule = projection.Rule{
	Vendor: dellBlock("DellPhysicalDisk", nil, projection.Abort),
}

var backplaneRule = projection.Rule{
	Drop:   slices.Concat(odataLinked, []string{"@Redfish.Settings", "RelatedItem", "Actions", "PCIeDevices"}),
	Vendor: dellBlock("DellEnclosure", odataAll, projection.Skip),
}

var networkAdapterRule = projection.Rule{
	Drop: slices.Concat(odataLinked, []string{"NetworkDeviceFunctions", "NetworkPorts", "Assembly"}),
	Reshape: map[string]projection.ReshapeFunc{
		"Controllers": controllerCapabilities,
	},
}

var networkPortRule = projection.Rule{
	Drop:   odataLinked,
	Vendor: dellBlock("DellSwitchConnection", odataMeta, projection.Skip),
}

// controllerCapabilities lifts ControllerCapabilities and FirmwarePackageVersion of
// the first adapter controller into the adapter entry.
func controllerCapabilities(key string, value any, out *projection.Object) error {
	items, ok := value.([]any)
	if !ok {
		return fmt.Errorf("value of type %T is not an array", value)
	}
	if len(items) == 0 {
		return nil
	}
	first, ok := items[0].(*projection.Object)
	if !ok {
		return fmt.Errorf("element 0 of type %T is not an object", items[0])
	}
	if v, ok := first.Get("ControllerCapabilities"); ok {
		out.Set("Controller Capabilities", v)
	}
	if v, ok := first.Get("FirmwarePackageVersion"); ok {
		out.Set("FirmwarePackageVersion", v)
	}
	return nil
}
