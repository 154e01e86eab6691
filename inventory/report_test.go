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
	"os"
	"path/filepath"
	"testing"

	"github.com/comcast/fishyinventory/projection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(t *testing.T, s string) *projection.Object {
	t.Helper()
	obj, err := projection.Decode([]byte(s))
	require.NoError(t, err)
	return obj
}

func Test_NewReport_EmptyCategories(t *testing.T) {
	r := NewReport()
	b, err := r.Serialize(false)
	assert.NoError(t, err)
	assert.Equal(t, `{"SystemInformation":{},"MemoryInformation":{},"ProcessorInformation":{},`+
		`"StorageControllerInformation":{},"StorageDisksInformation":{},"NetworkDeviceInformation":{},`+
		`"PowerSupplyInformation":{},"BackplaneInformation":{},"FanInformation":{}}`, string(b))
}

func Test_Merge(t *testing.T) {
	assert := assert.New(t)
	r := NewReport()

	assert.NoError(r.Merge(SystemInformation, nil, entry(t, `{"Model": "PowerEdge R640", "SKU": "ABC1234"}`)))
	assert.NoError(r.Merge(MemoryInformation, []string{"DIMM.Socket.B1"}, entry(t, `{"CapacityMiB": 16384}`)))
	assert.NoError(r.Merge(MemoryInformation, []string{"DIMM.Socket.A1"}, entry(t, `{"CapacityMiB": 32768}`)))
	assert.NoError(r.Merge(NetworkDeviceInformation, []string{"NIC.Integrated.1", "NIC.Integrated.1-1"}, entry(t, `{"LinkStatus": "Up"}`)))
	assert.NoError(r.Merge(NetworkDeviceInformation, []string{"NIC.Integrated.1", "Id"}, "NIC.Integrated.1"))

	// same key twice keeps the last write in its first position
	assert.NoError(r.Merge(MemoryInformation, []string{"DIMM.Socket.B1"}, entry(t, `{"CapacityMiB": 65536}`)))

	assert.Equal("ABC1234", r.ServiceTag())

	b, err := r.Serialize(false)
	assert.NoError(err)
	assert.Equal(`{"SystemInformation":{"Model":"PowerEdge R640","SKU":"ABC1234"},`+
		`"MemoryInformation":{"DIMM.Socket.B1":{"CapacityMiB":65536},"DIMM.Socket.A1":{"CapacityMiB":32768}},`+
		`"ProcessorInformation":{},"StorageControllerInformation":{},"StorageDisksInformation":{},`+
		`"NetworkDeviceInformation":{"NIC.Integrated.1":{"NIC.Integrated.1-1":{"LinkStatus":"Up"},"Id":"NIC.Integrated.1"}},`+
		`"PowerSupplyInformation":{},"BackplaneInformation":{},"FanInformation":{}}`, string(b))
}

func Test_Merge_Errors(t *testing.T) {
	r := NewReport()
	assert.Error(t, r.Merge(Category("BiosInformation"), []string{"x"}, 1))
	assert.Error(t, r.Merge(SystemInformation, nil, "not an object"))
	assert.Equal(t, "", r.ServiceTag())
}

func Test_Serialize_Pretty(t *testing.T) {
	r := NewReport()
	require.NoError(t, r.Merge(FanInformation, []string{"Fan1A"}, entry(t, `{"Reading": 5880}`)))

	b, err := r.Serialize(true)
	assert.NoError(t, err)
	assert.Contains(t, string(b), "\n  \"FanInformation\": {\n    \"Fan1A\": {\n      \"Reading\": 5880\n    }\n  }\n}")
}

func Test_Persist(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, FileName("10.0.0.5"))

	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	r := NewReport()
	require.NoError(t, r.Merge(SystemInformation, nil, entry(t, `{"SKU": "ABC1234", "MemorySummary": {"TotalSystemMemoryGiB": 1.5}}`)))
	assert.NoError(r.Persist(path))

	b, err := os.ReadFile(path)
	assert.NoError(err)

	// round trip keeps both order and number formatting
	back, err := projection.Decode(b)
	assert.NoError(err)
	sys, ok := projection.Lookup(back, string(SystemInformation), "MemorySummary")
	assert.True(ok)
	v, _ := sys.Get("TotalSystemMemoryGiB")
	assert.Equal("1.5", v.(interface{ String() string }).String())

	entries, err := os.ReadDir(dir)
	assert.NoError(err)
	assert.Len(entries, 1)
}

func Test_FileName(t *testing.T) {
	tests := map[string]string{
		"10.0.0.5":           "hw_inventory_10.0.0.5.json",
		"idrac-r640.lab":     "hw_inventory_idrac-r640.lab.json",
		"10.0.0.5:8443":      "hw_inventory_10.0.0.5_8443.json",
		"[fe80::1]":          "hw_inventory_[fe80__1].json",
		"https://10.0.0.5/x": "hw_inventory_https_10.0.0.5_x.json",
	}
	for target, expected := range tests {
		assert.Equal(t, expected, FileName(target), target)
	}
}
