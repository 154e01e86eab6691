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

package projection

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	ErrNotObject = errors.New("json document is not an object")
)

// Object is a JSON object that keeps its keys in the order they were decoded or set.
// Nested objects are *Object, arrays are []any and numbers are json.Number so that
// values re-serialize exactly as the BMC sent them.
type Object = orderedmap.OrderedMap[string, any]

// NewObject returns an empty Object.
func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// Decode parses body into an Object preserving key order at every level.
func Decode(body []byte) (*Object, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("error decoding json - %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, ErrNotObject
	}

	obj, err := decodeObject(dec)
	if err != nil {
		return nil, err
	}

	// anything after the closing brace other than whitespace is malformed
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("error decoding json - unexpected data after top-level object")
	}

	return obj, nil
}

func decodeObject(dec *json.Decoder) (*Object, error) {
	obj := NewObject()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("error decoding json - %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("error decoding json - object key %v is not a string", tok)
		}

		tok, err = dec.Token()
		if err != nil {
			return nil, fmt.Errorf("error decoding json value for %q - %w", key, err)
		}
		val, err := decodeValue(dec, tok)
		if err != nil {
			return nil, err
		}
		obj.Set(key, val)
	}

	// closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("error decoding json - %w", err)
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	arr := make([]any, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("error decoding json - %w", err)
		}
		val, err := decodeValue(dec, tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}

	// closing ']'
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("error decoding json - %w", err)
	}
	return arr, nil
}

func decodeValue(dec *json.Decoder, tok json.Token) (any, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("error decoding json - unexpected delimiter %q", t)
	default:
		// string, json.Number, bool or nil
		return t, nil
	}
}

// Lookup walks path through nested objects and returns the object found at the end of it.
func Lookup(obj *Object, path ...string) (*Object, bool) {
	cur := obj
	for _, p := range path {
		if cur == nil {
			return nil, false
		}
		v, ok := cur.Get(p)
		if !ok {
			return nil, false
		}
		next, ok := v.(*Object)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, cur != nil
}

// String returns the string stored under key, or "" when it is absent or not a string.
func String(obj *Object, key string) string {
	if obj == nil {
		return ""
	}
	v, ok := obj.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
