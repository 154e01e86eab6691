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

// Package collector walks the Redfish tree of a Dell iDRAC and merges the projected
// documents of each inventory category into an inventory.Report.
package collector

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/comcast/fishyinventory/config"
	"github.com/comcast/fishyinventory/inventory"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const (
	RedfishRoot = "/redfish/v1"
)

var (
	ErrUnsupported     = errors.New("controller firmware does not support this feature using Redfish API")
	ErrEmptyCollection = errors.New("no members found in collection")
)

type collectFunc func(c *Collector) error

// collectors by category. Run calls them in inventory.Categories order, which puts
// storage controllers before disks: the disk collector walks the controller paths
// they leave behind.
var collectors = map[inventory.Category]collectFunc{
	inventory.SystemInformation:            collectSystem,
	inventory.MemoryInformation:            collectMemory,
	inventory.ProcessorInformation:         collectProcessors,
	inventory.StorageControllerInformation: collectStorageControllers,
	inventory.StorageDisksInformation:      collectStorageDisks,
	inventory.NetworkDeviceInformation:     collectNetwork,
	inventory.PowerSupplyInformation:       collectPowerSupplies,
	inventory.BackplaneInformation:         collectBackplanes,
	inventory.FanInformation:               collectFans,
}

// Collector runs the category collectors against a single BMC
type Collector struct {
	ctx         context.Context
	target      string
	host        string
	profile     string
	systemID    string
	concurrency int
	client      *retryablehttp.Client
	metrics     *Metrics
	report      *inventory.Report

	// storage controller resource paths, set by the controller collector
	controllers []string
}

// NewCollector returns a collector for target, a host, host:port or full URL
func NewCollector(ctx context.Context, target, profile string, cfg *config.Config, client *retryablehttp.Client, metrics *Metrics) (*Collector, error) {
	// Check that the target passed in has http:// or https:// prefixed
	fqdn, err := url.ParseRequestURI(target)
	if err != nil || fqdn.Host == "" {
		fqdn = &url.URL{
			Scheme: cfg.BMCScheme,
			Host:   target,
		}
	}
	if fqdn.Host == "" {
		return nil, fmt.Errorf("invalid target %q", target)
	}

	systemID := cfg.SystemID
	if systemID == "" {
		systemID = config.DefaultSystemID
	}

	return &Collector{
		ctx:         ctx,
		target:      target,
		host:        fqdn.Scheme + "://" + fqdn.Host,
		profile:     profile,
		systemID:    systemID,
		concurrency: cfg.Concurrency,
		client:      client,
		metrics:     metrics,
		report:      inventory.NewReport(),
	}, nil
}

// Report returns the report the collectors merge into
func (c *Collector) Report() *inventory.Report {
	return c.report
}

func (c *Collector) systemPath(sub ...string) string {
	return strings.Join(append([]string{RedfishRoot, "Systems", c.systemID}, sub...), "/")
}

// CheckSupported fails with ErrUnsupported when the system resource cannot be read
func (c *Collector) CheckSupported() error {
	_, err := c.fetchDocument(c.systemPath())
	if err != nil {
		return fmt.Errorf("%w - %w", ErrUnsupported, err)
	}
	return nil
}

// Run collects the given categories in report order, each at most once. The first
// error stops the run; the report is then incomplete and must not be emitted.
func (c *Collector) Run(categories []inventory.Category) (*inventory.Report, error) {
	log := zap.L()

	for _, cat := range inventory.Categories {
		if !slices.Contains(categories, cat) {
			continue
		}
		if err := c.ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		if err := collectors[cat](c); err != nil {
			log.Error("error collecting inventory category", zap.String("category", string(cat)),
				zap.String("target", c.target), zap.Error(err))
			return nil, fmt.Errorf("error collecting %s - %w", cat, err)
		}

		entries := 0
		if body, ok := c.report.Get(cat); ok {
			entries = body.Len()
		}
		took := time.Since(start)
		if c.metrics != nil {
			c.metrics.ObserveCategory(string(cat), entries, took)
		}
		log.Info("collected inventory category", zap.String("category", string(cat)),
			zap.Int("entries", entries), zap.Duration("took", took))
	}

	return c.report, nil
}
