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
	"regexp"

	"github.com/comcast/fishyinventory/common"
	"github.com/comcast/fishyinventory/inventory"
	"github.com/comcast/fishyinventory/projection"
	"go.uber.org/zap"
)

var dimmSlot = regexp.MustCompile(`DIMM.+`)

// /redfish/v1/Systems/System.Embedded.1
func collectSystem(c *Collector) error {
	doc, err := c.fetchDocument(c.systemPath())
	if err != nil {
		return err
	}
	out, err := projection.Project(doc, systemRule)
	if err != nil {
		return err
	}
	return c.report.Merge(inventory.SystemInformation, nil, out)
}

// /redfish/v1/Systems/System.Embedded.1/Memory
func collectMemory(c *Collector) error {
	dimms, err := c.members(c.systemPath("Memory"))
	if err != nil {
		return err
	}
	if len(dimms) == 0 {
		zap.L().Warn("no memory detected for system", zap.String("target", c.target))
		return nil
	}

	// every member must name a DIMM slot before anything is fetched
	slots := make(map[string]string, len(dimms))
	for _, dimm := range dimms {
		slot := dimmSlot.FindString(common.LastSegment(dimm))
		if slot == "" {
			return fmt.Errorf("unable to get dimm slot info from %s", dimm)
		}
		slots[dimm] = slot
	}

	return c.fanOut(dimms, func(path string, doc *projection.Object) error {
		out, err := projection.Project(doc, memoryRule)
		if err != nil {
			return fmt.Errorf("%s - %w", path, err)
		}
		return c.report.Merge(inventory.MemoryInformation, []string{slots[path]}, out)
	})
}

// /redfish/v1/Systems/System.Embedded.1/Processors
func collectProcessors(c *Collector) error {
	cpus, err := c.members(c.systemPath("Processors"))
	if err != nil {
		return err
	}
	if len(cpus) == 0 {
		zap.L().Warn("no processors detected for system", zap.String("target", c.target))
		return nil
	}

	return c.fanOut(cpus, func(path string, doc *projection.Object) error {
		out, err := projection.Project(doc, processorRule)
		if err != nil {
			return fmt.Errorf("%s - %w", path, err)
		}
		return c.report.Merge(inventory.ProcessorInformation, []string{common.LastSegment(path)}, out)
	})
}
