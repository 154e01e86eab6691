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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/comcast/fishyinventory/common"
	"github.com/comcast/fishyinventory/oem"
	"github.com/comcast/fishyinventory/pool"
	"github.com/comcast/fishyinventory/projection"
	"go.uber.org/zap"
)

// documentHandler receives the decoded document fetched from path
type documentHandler func(path string, doc *projection.Object) error

func (c *Collector) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.host + path
}

func (c *Collector) fetch(path string, accepted ...int) ([]byte, error) {
	return common.Fetch(c.ctx, c.url(path), c.target, c.profile, c.client, accepted...)()
}

// fetchDocument GETs path and decodes it preserving key order
func (c *Collector) fetchDocument(path string, accepted ...int) (*projection.Object, error) {
	body, err := c.fetch(path, accepted...)
	if err != nil {
		return nil, err
	}
	doc, err := projection.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("error decoding %s - %w", path, err)
	}
	return doc, nil
}

// fetchInto GETs path and unmarshals it into v, used for navigation links only
func (c *Collector) fetchInto(path string, v any, accepted ...int) error {
	body, err := c.fetch(path, accepted...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("error unmarshalling %s - %w", path, err)
	}
	return nil
}

// members returns the @odata.id of every member of a collection
func (c *Collector) members(path string) ([]string, error) {
	var coll oem.Collection
	if err := c.fetchInto(path, &coll); err != nil {
		return nil, err
	}
	return coll.Members.URLs(), nil
}

// fanOut fetches every path on the worker pool and calls handle for each document
// in the order of paths once all fetches are done. No fetch is started after one
// fails, and that error is returned.
func (c *Collector) fanOut(paths []string, handle documentHandler, accepted ...int) error {
	workers := c.runPool(paths, handle, true, accepted...)
	return workers.Handle()
}

// fanOutLenient is fanOut for resources the BMC may fail to serve: a failed fetch is
// logged and the resource left out of the report.
func (c *Collector) fanOutLenient(paths []string, handle documentHandler) error {
	workers := c.runPool(paths, handle, false)
	for _, task := range workers.Tasks {
		if task.Err != nil {
			zap.L().Warn("skipping resource", zap.String("target", c.target), zap.String("path", task.URL), zap.Error(task.Err))
			continue
		}
		if err := task.Handle(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) runPool(paths []string, handle documentHandler, stopOnError bool, accepted ...int) *pool.Pool {
	tasks := make([]*pool.Task, 0, len(paths))
	for _, p := range paths {
		p := p
		tasks = append(tasks, pool.NewTask(p,
			common.Fetch(c.ctx, c.url(p), c.target, c.profile, c.client, accepted...),
			func(body []byte) error {
				doc, err := projection.Decode(body)
				if err != nil {
					return fmt.Errorf("error decoding %s - %w", p, err)
				}
				return handle(p, doc)
			}))
	}

	workers := pool.NewPool(tasks, c.concurrency)
	workers.StopOnError = stopOnError
	workers.Run()
	return workers
}

// uniqueResources strips JSON pointer fragments (Power#/PowerSupplies/0) and
// removes duplicate paths, keeping the first occurrence.
func uniqueResources(links []string) []string {
	seen := make(map[string]bool, len(links))
	paths := make([]string, 0, len(links))
	for _, l := range links {
		if i := strings.Index(l, "#"); i >= 0 {
			l = l[:i]
		}
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		paths = append(paths, l)
	}
	return paths
}

// withoutSpaces is how fan and power supply names become report keys
func withoutSpaces(s string) string {
	return strings.ReplaceAll(s, " ", "")
}
