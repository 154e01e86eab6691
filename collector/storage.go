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
	"net/http"
	"strings"

	"github.com/comcast/fishyinventory/common"
	"github.com/comcast/fishyinventory/inventory"
	"github.com/comcast/fishyinventory/oem"
	"github.com/comcast/fishyinventory/projection"
	"go.uber.org/zap"
)

// /redfish/v1/Systems/System.Embedded.1/Storage
func collectStorageControllers(c *Collector) error {
	controllers, err := c.members(c.systemPath("Storage"))
	if err != nil {
		return err
	}
	c.controllers = controllers
	if len(controllers) == 0 {
		zap.L().Warn("no storage controllers detected for system", zap.String("target", c.target))
		return nil
	}

	return c.fanOut(controllers, func(path string, doc *projection.Object) error {
		out, err := projection.Project(doc, storageControllerRule)
		if err != nil {
			return fmt.Errorf("%s - %w", path, err)
		}
		return c.report.Merge(inventory.StorageControllerInformation, []string{common.LastSegment(path)}, out)
	})
}

// Drives of every storage controller
func collectStorageDisks(c *Collector) error {
	log := zap.L()

	if c.controllers == nil {
		controllers, err := c.members(c.systemPath("Storage"))
		if err != nil {
			return err
		}
		c.controllers = controllers
	}

	var drives []string
	for _, ctrl := range c.controllers {
		var storage oem.Storage
		// controllers busy with a background task answer 202
		if err := c.fetchInto(ctrl, &storage, http.StatusOK, http.StatusAccepted); err != nil {
			return err
		}
		urls := storage.Drives.URLs()
		if len(urls) == 0 {
			log.Warn("no drives detected for storage controller", zap.String("target", c.target),
				zap.String("controller", common.LastSegment(ctrl)))
			continue
		}
		drives = append(drives, urls...)
	}

	return c.fanOut(drives, func(path string, doc *projection.Object) error {
		out, err := projection.Project(doc, diskRule)
		if err != nil {
			return fmt.Errorf("%s - %w", path, err)
		}
		return c.report.Merge(inventory.StorageDisksInformation, []string{common.LastSegment(path)}, out)
	})
}

// Enclosure members of /redfish/v1/Chassis
func collectBackplanes(c *Collector) error {
	chassis, err := c.members(RedfishRoot + "/Chassis")
	if err != nil {
		return err
	}

	var enclosures []string
	for _, ch := range chassis {
		if strings.Contains(ch, "Enclosure") {
			enclosures = append(enclosures, ch)
		}
	}
	// unlike the other categories a system without backplanes fails the run
	if len(enclosures) == 0 {
		return fmt.Errorf("no backplane information detected for system - %w", ErrEmptyCollection)
	}

	return c.fanOut(enclosures, func(path string, doc *projection.Object) error {
		out, err := projection.Project(doc, backplaneRule)
		if err != nil {
			return fmt.Errorf("%s - %w", path, err)
		}
		return c.report.Merge(inventory.BackplaneInformation, []string{common.LastSegment(path)}, out)
	})
}
