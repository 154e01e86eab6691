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
	"strings"

	"github.com/comcast/fishyinventory/common"
	"github.com/comcast/fishyinventory/inventory"
	"github.com/comcast/fishyinventory/projection"
	"go.uber.org/zap"
)

// /redfish/v1/Systems/System.Embedded.1/NetworkInterfaces. Each interface is read
// through the matching NetworkAdapters resource and its ports are nested under it.
func collectNetwork(c *Collector) error {
	interfaces, err := c.members(c.systemPath("NetworkInterfaces"))
	if err != nil {
		return err
	}
	if len(interfaces) == 0 {
		zap.L().Warn("no network information detected for system", zap.String("target", c.target))
		return nil
	}

	adapters := make([]string, 0, len(interfaces))
	names := make(map[string]string, len(interfaces))
	for _, ref := range interfaces {
		adapter := strings.ReplaceAll(ref, "Interfaces", "Adapters")
		adapters = append(adapters, adapter)
		names[adapter] = common.LastSegment(ref)
	}

	return c.fanOut(adapters, func(path string, doc *projection.Object) error {
		name := names[path]
		out, err := projection.Project(doc, networkAdapterRule)
		if err != nil {
			return fmt.Errorf("%s - %w", path, err)
		}
		if err := c.report.Merge(inventory.NetworkDeviceInformation, []string{name}, out); err != nil {
			return err
		}
		return c.collectPorts(name, doc)
	})
}

func (c *Collector) collectPorts(adapter string, doc *projection.Object) error {
	link, ok := projection.Lookup(doc, "NetworkPorts")
	if !ok {
		return nil
	}
	portsPath := projection.String(link, "@odata.id")
	if portsPath == "" {
		return nil
	}

	ports, err := c.members(portsPath)
	if err != nil {
		return err
	}

	return c.fanOut(ports, func(path string, doc *projection.Object) error {
		out, err := projection.Project(doc, networkPortRule)
		if err != nil {
			return fmt.Errorf("%s - %w", path, err)
		}
		return c.report.Merge(inventory.NetworkDeviceInformation, []string{adapter, common.LastSegment(path)}, out)
	})
}
