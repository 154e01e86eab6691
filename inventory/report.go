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

package inventory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/comcast/fishyinventory/projection"
)

// Category is a top level key of the inventory report
type Category string

const (
	SystemInformation            Category = "SystemInformation"
	MemoryInformation            Category = "MemoryInformation"
	ProcessorInformation         Category = "ProcessorInformation"
	StorageControllerInformation Category = "StorageControllerInformation"
	StorageDisksInformation      Category = "StorageDisksInformation"
	NetworkDeviceInformation     Category = "NetworkDeviceInformation"
	PowerSupplyInformation       Category = "PowerSupplyInformation"
	BackplaneInformation         Category = "BackplaneInformation"
	FanInformation               Category = "FanInformation"
)

// Categories in the order they appear in the report
var Categories = []Category{
	SystemInformation,
	MemoryInformation,
	ProcessorInformation,
	StorageControllerInformation,
	StorageDisksInformation,
	NetworkDeviceInformation,
	PowerSupplyInformation,
	BackplaneInformation,
	FanInformation,
}

// Report accumulates projected documents per category for a single BMC.
type Report struct {
	mu  sync.Mutex
	doc *projection.Object
}

// NewReport returns a report with every category present and empty.
func NewReport() *Report {
	doc := projection.NewObject()
	for _, c := range Categories {
		doc.Set(string(c), projection.NewObject())
	}
	return &Report{doc: doc}
}

// Merge writes value under category/keyPath..., creating intermediate objects as
// needed. With an empty keyPath an object value has its fields merged into the
// category body.
func (r *Report) Merge(category Category, keyPath []string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	body, err := r.category(category)
	if err != nil {
		return err
	}

	if len(keyPath) == 0 {
		obj, ok := value.(*projection.Object)
		if !ok {
			return fmt.Errorf("cannot merge %T into %s - value must be an object", value, category)
		}
		for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
			body.Set(pair.Key, pair.Value)
		}
		return nil
	}

	cur := body
	for _, k := range keyPath[:len(keyPath)-1] {
		v, ok := cur.Get(k)
		next, isObj := v.(*projection.Object)
		if !ok || !isObj {
			next = projection.NewObject()
			cur.Set(k, next)
		}
		cur = next
	}
	cur.Set(keyPath[len(keyPath)-1], value)
	return nil
}

// Get returns the body of a category.
func (r *Report) Get(category Category) (*projection.Object, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	body, err := r.category(category)
	return body, err == nil
}

func (r *Report) category(category Category) (*projection.Object, error) {
	v, ok := r.doc.Get(string(category))
	if !ok {
		return nil, fmt.Errorf("unknown inventory category %q", category)
	}
	body, ok := v.(*projection.Object)
	if !ok {
		return nil, fmt.Errorf("inventory category %q is not an object", category)
	}
	return body, nil
}

// ServiceTag returns SystemInformation.SKU, Dell's service tag, when it was collected.
func (r *Report) ServiceTag() string {
	body, ok := r.Get(SystemInformation)
	if !ok {
		return ""
	}
	return projection.String(body, "SKU")
}

// Serialize renders the report as compact JSON or, if pretty is set, indented with two spaces.
func (r *Report) Serialize(pretty bool) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := json.Marshal(r.doc)
	if err != nil {
		return nil, fmt.Errorf("error marshalling inventory report - %w", err)
	}
	if !pretty {
		return b, nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", "  "); err != nil {
		return nil, fmt.Errorf("error indenting inventory report - %w", err)
	}
	return buf.Bytes(), nil
}

// Persist writes the pretty printed report to path, replacing any existing file. The
// content is written to a temporary file in the same directory first so a reader
// never sees a partial report.
func (r *Report) Persist(path string) error {
	b, err := r.Serialize(true)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("error creating temporary report file - %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(b, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing report file - %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error writing report file - %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("error setting report file permissions - %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("error moving report file into place - %w", err)
	}
	return nil
}

// FileName is the report file name for a BMC address.
func FileName(target string) string {
	name := strings.NewReplacer("://", "_", ":", "_", "/", "_").Replace(target)
	return "hw_inventory_" + name + ".json"
}
