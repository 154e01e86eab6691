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

// Package projection filters and reshapes Redfish documents into inventory entries.
//
// A Rule is static per category. Project walks the top level keys of a document in
// their original order and either drops, reshapes, flattens, unwraps (for the vendor
// extension block) or copies each one.
package projection

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	// OemMarker is the key Redfish uses for manufacturer specific extensions
	OemMarker = "Oem"
)

var (
	ErrVendorBlockMissing = errors.New("vendor extension block missing")
)

// MissingPolicy decides what Project does when the document has a vendor block
// but the configured path inside it does not exist.
type MissingPolicy int

const (
	// Abort fails the whole projection
	Abort MissingPolicy = iota
	// Skip leaves the vendor block out of the output
	Skip
	// Fallback copies the first element of the path (the vendor root) instead
	Fallback
)

func (p MissingPolicy) String() string {
	switch p {
	case Abort:
		return "abort"
	case Skip:
		return "skip"
	case Fallback:
		return "fallback"
	default:
		return fmt.Sprintf("MissingPolicy(%d)", int(p))
	}
}

// VendorRule describes how to unwrap the vendor extension block, e.g.
// Oem -> Dell -> DellMemory.
type VendorRule struct {
	// Marker is the top level key holding the block, defaults to OemMarker.
	Marker string
	// Path is the chain of keys under Marker leading to the object to copy.
	Path []string
	// Drop lists keys removed from the unwrapped object, typically @odata metadata.
	Drop []string
	// Nest writes the copied fields back under Marker/Path... instead of merging
	// them into the top level of the output.
	Nest    bool
	Missing MissingPolicy
}

// ReshapeFunc writes its own representation of key/value into out.
type ReshapeFunc func(key string, value any, out *Object) error

// Rule is the projection applied to one Redfish document.
type Rule struct {
	Drop      []string
	DropMatch func(key string) bool
	// Flatten lists keys whose object value is copied one level up into the output.
	Flatten []string
	Reshape map[string]ReshapeFunc
	Vendor  *VendorRule
}

func (r Rule) drops(key string) bool {
	if slices.Contains(r.Drop, key) {
		return true
	}
	return r.DropMatch != nil && r.DropMatch(key)
}

// Project applies rule to doc and returns a new object. doc is never modified. On error
// nothing is returned so callers cannot write a partially projected entry.
func Project(doc *Object, rule Rule) (*Object, error) {
	out := NewObject()
	if doc == nil {
		return out, nil
	}

	marker := ""
	if rule.Vendor != nil {
		marker = rule.Vendor.Marker
		if marker == "" {
			marker = OemMarker
		}
	}

	for pair := doc.Oldest(); pair != nil; pair = pair.Next() {
		key, val := pair.Key, pair.Value

		if rule.drops(key) {
			continue
		}

		if fn, ok := rule.Reshape[key]; ok {
			if err := fn(key, val, out); err != nil {
				return nil, fmt.Errorf("error reshaping %q - %w", key, err)
			}
			continue
		}

		if slices.Contains(rule.Flatten, key) {
			if err := FlattenInto(val, out); err != nil {
				return nil, fmt.Errorf("error flattening %q - %w", key, err)
			}
			continue
		}

		if marker != "" && key == marker {
			if err := unwrapVendor(val, rule.Vendor, marker, out); err != nil {
				return nil, err
			}
			continue
		}

		out.Set(key, val)
	}

	return out, nil
}

func unwrapVendor(val any, vr *VendorRule, marker string, out *Object) error {
	block, _ := val.(*Object)
	path := vr.Path

	src, ok := Lookup(block, path...)
	if !ok {
		switch vr.Missing {
		case Skip:
			return nil
		case Fallback:
			if len(path) == 0 {
				return fmt.Errorf("%w - %s", ErrVendorBlockMissing, marker)
			}
			root, ok := Lookup(block, path[0])
			if !ok {
				return fmt.Errorf("%w - %s/%s", ErrVendorBlockMissing, marker, path[0])
			}
			src, path = root, path[:1]
		default:
			return fmt.Errorf("%w - %s/%s", ErrVendorBlockMissing, marker, strings.Join(path, "/"))
		}
	}

	fields := NewObject()
	for pair := src.Oldest(); pair != nil; pair = pair.Next() {
		if slices.Contains(vr.Drop, pair.Key) {
			continue
		}
		fields.Set(pair.Key, pair.Value)
	}

	if !vr.Nest {
		for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
			out.Set(pair.Key, pair.Value)
		}
		return nil
	}

	// rebuild Marker/Path... around the copied fields
	var wrapped any = fields
	for i := len(path) - 1; i >= 0; i-- {
		parent := NewObject()
		parent.Set(path[i], wrapped)
		wrapped = parent
	}
	out.Set(marker, wrapped)
	return nil
}

// FlattenInto copies the fields of an object value one level up into out. Non-object
// values are an error.
func FlattenInto(val any, out *Object) error {
	obj, ok := val.(*Object)
	if !ok {
		return fmt.Errorf("value of type %T is not an object", val)
	}
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value)
	}
	return nil
}

// MergeElements returns a ReshapeFunc for arrays of objects: every element is
// projected with rule and their fields merged, in order, into a single object stored
// under the original key. Later elements overwrite earlier ones on key collision.
func MergeElements(rule Rule) ReshapeFunc {
	return func(key string, value any, out *Object) error {
		items, ok := value.([]any)
		if !ok {
			return fmt.Errorf("value of type %T is not an array", value)
		}
		merged := NewObject()
		for i, item := range items {
			obj, ok := item.(*Object)
			if !ok {
				return fmt.Errorf("element %d of type %T is not an object", i, item)
			}
			projected, err := Project(obj, rule)
			if err != nil {
				return err
			}
			for pair := projected.Oldest(); pair != nil; pair = pair.Next() {
				merged.Set(pair.Key, pair.Value)
			}
		}
		out.Set(key, merged)
		return nil
	}
}

// ContainsAny returns a DropMatch predicate that matches keys containing any of subs.
func ContainsAny(subs ...string) func(string) bool {
	return func(key string) bool {
		for _, s := range subs {
			if strings.Contains(key, s) {
				return true
			}
		}
		return false
	}
}
