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

	"github.com/comcast/fishyinventory/common"
	"github.com/comcast/fishyinventory/inventory"
	"github.com/comcast/fishyinventory/oem"
	"github.com/comcast/fishyinventory/projection"
	"go.uber.org/zap"
)

// Links.CooledBy of /redfish/v1/Systems/System.Embedded.1. A link points either at a
// single fan or at a Thermal resource listing all of them under Fans.
func collectFans(c *Collector) error {
	var sys oem.System
	if err := c.fetchInto(c.systemPath(), &sys); err != nil {
		return err
	}

	paths := uniqueResources(sys.Links.CooledBy.URLs())
	if len(paths) == 0 {
		zap.L().Warn("no fans detected for system", zap.String("target", c.target))
		return nil
	}

	return c.fanOutLenient(paths, func(path string, doc *projection.Object) error {
		return eachMember(doc, "Fans", path, func(fan *projection.Object) error {
			out, err := projection.Project(fan, fanRule)
			if err != nil {
				return err
			}
			name := firstString(fan, "FanName", "Name")
			if name == "" {
				name = common.LastSegment(path)
			}
			return c.report.Merge(inventory.FanInformation, []string{withoutSpaces(name)}, out)
		})
	})
}

// Links.PoweredBy of /redfish/v1/Systems/System.Embedded.1. A link points either at
// a PowerSupply resource or at a Power resource listing them under PowerSupplies.
func collectPowerSupplies(c *Collector) error {
	var sys oem.System
	if err := c.fetchInto(c.systemPath(), &sys); err != nil {
		return err
	}

	paths := uniqueResources(sys.Links.PoweredBy.URLs())
	if len(paths) == 0 {
		zap.L().Warn("no power supplies detected for system", zap.String("target", c.target))
		return nil
	}

	return c.fanOut(paths, func(path string, doc *projection.Object) error {
		return eachMember(doc, "PowerSupplies", path, func(psu *projection.Object) error {
			out, err := projection.Project(psu, powerSupplyRule)
			if err != nil {
				return fmt.Errorf("%s - %w", path, err)
			}
			name := firstString(psu, "Name")
			if name == "" {
				name = common.LastSegment(path)
			}
			return c.report.Merge(inventory.PowerSupplyInformation, []string{withoutSpaces(name)}, out)
		})
	})
}

// eachMember calls fn for every object of the array doc[key], or for doc itself when
// it has no such key.
func eachMember(doc *projection.Object, key, path string, fn func(*projection.Object) error) error {
	v, ok := doc.Get(key)
	if !ok {
		return fn(doc)
	}
	items, ok := v.([]any)
	if !ok {
		return fmt.Errorf("%s - %s of type %T is not an array", path, key, v)
	}
	for i, item := range items {
		obj, ok := item.(*projection.Object)
		if !ok {
			return fmt.Errorf("%s - %s element %d of type %T is not an object", path, key, i, item)
		}
		if err := fn(obj); err != nil {
			return err
		}
	}
	return nil
}

func firstString(obj *projection.Object, keys ...string) string {
	for _, k := range keys {
		if s := projection.String(obj, k); s != "" {
			return s
		}
	}
	return ""
}
