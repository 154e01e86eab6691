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
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/comcast/fishyinventory/common"
	"github.com/comcast/fishyinventory/config"
	"github.com/stretchr/testify/require"
)

const (
	testUser = "root"
	testPass = "calvin"
)

// idracDocuments is a trimmed down PowerEdge R640
func idracDocuments() map[string]string {
	return map[string]string{
		"/redfish/v1/Systems/System.Embedded.1": `{
			"@odata.context": "/redfish/v1/$metadata#ComputerSystem.ComputerSystem",
			"@odata.id": "/redfish/v1/Systems/System.Embedded.1",
			"@odata.type": "#ComputerSystem.v1_12_0.ComputerSystem",
			"Actions": {"#ComputerSystem.Reset": {"target": "/redfish/v1/Systems/System.Embedded.1/Actions/ComputerSystem.Reset"}},
			"BiosVersion": "2.12.2",
			"Description": "Computer System which represents a machine (physical or virtual) and the local resources such as memory, cpu and other devices that can be accessed from that machine.",
			"Id": "System.Embedded.1",
			"Links": {
				"CooledBy": [
					{"@odata.id": "/redfish/v1/Chassis/System.Embedded.1/Sensors/Fans/Fan.Embedded.1A"},
					{"@odata.id": "/redfish/v1/Chassis/System.Embedded.1/Sensors/Fans/Fan.Embedded.1B"}
				],
				"PoweredBy": [
					{"@odata.id": "/redfish/v1/Chassis/System.Embedded.1/Power#/PowerSupplies/0"},
					{"@odata.id": "/redfish/v1/Chassis/System.Embedded.1/Power#/PowerSupplies/1"}
				]
			},
			"Memory": {"@odata.id": "/redfish/v1/Systems/System.Embedded.1/Memory"},
			"MemorySummary": {"TotalSystemMemoryGiB": 64, "Status": {"Health": "OK"}},
			"Model": "PowerEdge R640",
			"Oem": {"Dell": {"DellSystem": {
				"@odata.context": "/redfish/v1/$metadata#DellSystem.DellSystem",
				"@odata.id": "/redfish/v1/Dell/Systems/System.Embedded.1/DellSystem/System.Embedded.1",
				"@odata.type": "#DellSystem.v1_2_0.DellSystem",
				"BIOSReleaseDate": "03/15/2021",
				"ChassisServiceTag": "ABC1234"
			}}},
			"SKU": "ABC1234"
		}`,
		"/redfish/v1/Systems/System.Embedded.1/Memory": `{
			"Members": [
				{"@odata.id": "/redfish/v1/Systems/System.Embedded.1/Memory/DIMM.Socket.A1"},
				{"@odata.id": "/redfish/v1/Systems/System.Embedded.1/Memory/DIMM.Socket.B1"}
			],
			"Members@odata.count": 2
		}`,
		"/redfish/v1/Systems/System.Embedded.1/Memory/DIMM.Socket.A1": dimm("A1", 32768),
		"/redfish/v1/Systems/System.Embedded.1/Memory/DIMM.Socket.B1": dimm("B1", 16384),
		"/redfish/v1/Systems/System.Embedded.1/Processors": `{
			"Members": [{"@odata.id": "/redfish/v1/Systems/System.Embedded.1/Processors/CPU.Socket.1"}]
		}`,
		"/redfish/v1/Systems/System.Embedded.1/Processors/CPU.Socket.1": `{
			"@odata.id": "/redfish/v1/Systems/System.Embedded.1/Processors/CPU.Socket.1",
			"@odata.type": "#Processor.v1_10_0.Processor",
			"Description": "Represents the properties of a Processor attached to this System",
			"Id": "CPU.Socket.1",
			"Model": "Intel(R) Xeon(R) Gold 6230 CPU @ 2.10GHz",
			"TotalCores": 20,
			"Oem": {"Dell": {"DellProcessor": {"@odata.type": "#DellProcessor.v1_0_0.DellProcessor", "TurboModeEnabled": "Yes"}}}
		}`,
		"/redfish/v1/Systems/System.Embedded.1/Storage": `{
			"Members": [{"@odata.id": "/redfish/v1/Systems/System.Embedded.1/Storage/RAID.Integrated.1-1"}]
		}`,
		"/redfish/v1/Systems/System.Embedded.1/Storage/RAID.Integrated.1-1": `{
			"@odata.id": "/redfish/v1/Systems/System.Embedded.1/Storage/RAID.Integrated.1-1",
			"Drives": [
				{"@odata.id": "/redfish/v1/Systems/System.Embedded.1/Storage/Drives/Disk.Bay.0:Enclosure.Internal.0-1:RAID.Integrated.1-1"},
				{"@odata.id": "/redfish/v1/Systems/System.Embedded.1/Storage/Drives/Disk.Bay.1:Enclosure.Internal.0-1:RAID.Integrated.1-1"}
			],
			"Drives@odata.count": 2,
			"Id": "RAID.Integrated.1-1",
			"Name": "PERC H730P Mini",
			"Status": {"Health": "OK"},
			"StorageControllers": [
				{"@odata.id": "/redfish/v1/Systems/System.Embedded.1/StorageControllers/RAID.Integrated.1-1", "FirmwareVersion": "25.5.9.0001", "Status": {"Health": "OK", "State": "Enabled"}}
			],
			"Oem": {"Dell": {"DellController": {"CacheSizeInMB": 2048, "SecurityStatus": "EncryptionNotCapable"}}}
		}`,
		"/redfish/v1/Systems/System.Embedded.1/Storage/Drives/Disk.Bay.0:Enclosure.Internal.0-1:RAID.Integrated.1-1": disk("0"),
		"/redfish/v1/Systems/System.Embedded.1/Storage/Drives/Disk.Bay.1:Enclosure.Internal.0-1:RAID.Integrated.1-1": disk("1"),
		"/redfish/v1/Chassis": `{
			"Members": [
				{"@odata.id": "/redfish/v1/Chassis/System.Embedded.1"},
				{"@odata.id": "/redfish/v1/Chassis/Enclosure.Internal.0-1:RAID.Integrated.1-1"}
			]
		}`,
		"/redfish/v1/Chassis/Enclosure.Internal.0-1:RAID.Integrated.1-1": `{
			"@odata.id": "/redfish/v1/Chassis/Enclosure.Internal.0-1:RAID.Integrated.1-1",
			"@Redfish.Settings": {"SupportedApplyTimes": []},
			"ChassisType": "Enclosure",
			"Id": "Enclosure.Internal.0-1:RAID.Integrated.1-1",
			"Links": {"ManagedBy": []},
			"Oem": {"Dell": {"DellEnclosure": {"@odata.type": "#DellEnclosure.v1_0_0.DellEnclosure", "SlotCount": 8}}}
		}`,
		"/redfish/v1/Systems/System.Embedded.1/NetworkInterfaces": `{
			"Members": [{"@odata.id": "/redfish/v1/Systems/System.Embedded.1/NetworkInterfaces/NIC.Integrated.1"}]
		}`,
		"/redfish/v1/Systems/System.Embedded.1/NetworkAdapters/NIC.Integrated.1": `{
			"@odata.id": "/redfish/v1/Chassis/System.Embedded.1/NetworkAdapters/NIC.Integrated.1",
			"Controllers": [{"ControllerCapabilities": {"DataCenterBridging": {"Capable": true}}, "FirmwarePackageVersion": "21.80.9"}],
			"Id": "NIC.Integrated.1",
			"Manufacturer": "Intel Corporation",
			"NetworkPorts": {"@odata.id": "/redfish/v1/Chassis/System.Embedded.1/NetworkAdapters/NIC.Integrated.1/NetworkPorts"}
		}`,
		"/redfish/v1/Chassis/System.Embedded.1/NetworkAdapters/NIC.Integrated.1/NetworkPorts": `{
			"Members": [{"@odata.id": "/redfish/v1/Chassis/System.Embedded.1/NetworkAdapters/NIC.Integrated.1/NetworkPorts/NIC.Integrated.1-1"}]
		}`,
		"/redfish/v1/Chassis/System.Embedded.1/NetworkAdapters/NIC.Integrated.1/NetworkPorts/NIC.Integrated.1-1": `{
			"@odata.context": "/redfish/v1/$metadata#NetworkPort.NetworkPort",
			"Id": "NIC.Integrated.1-1",
			"LinkStatus": "Up",
			"Oem": {"Dell": {"DellSwitchConnection": {"@odata.type": "#DellSwitchConnection.v1_0_0.DellSwitchConnection", "SwitchPortConnectionID": "ethernet1/1/7"}}}
		}`,
		"/redfish/v1/Chassis/System.Embedded.1/Power": `{
			"@odata.id": "/redfish/v1/Chassis/System.Embedded.1/Power",
			"PowerSupplies": [
				{"Name": "PS1 Status", "PowerCapacityWatts": 750, "Oem": {"Dell": {"DellPowerSupply": {"IsSwitchingSupply": true}}}},
				{"Name": "PS2 Status", "PowerCapacityWatts": 750, "Oem": {"Dell": {"DellPowerSupply": {"IsSwitchingSupply": true}}}}
			],
			"Voltages": [{"Name": "PS1 Voltage 1", "ReadingVolts": 208}]
		}`,
		"/redfish/v1/Chassis/System.Embedded.1/Sensors/Fans/Fan.Embedded.1A": `{"FanName": "System Board Fan1A", "Reading": 5880, "ReadingUnits": "RPM"}`,
		"/redfish/v1/Chassis/System.Embedded.1/Sensors/Fans/Fan.Embedded.1B": `{"FanName": "System Board Fan1B", "Reading": 5760, "ReadingUnits": "RPM"}`,
	}
}

func dimm(slot string, capacity int) string {
	return `{
		"@odata.context": "/redfish/v1/$metadata#Memory.Memory",
		"@odata.id": "/redfish/v1/Systems/System.Embedded.1/Memory/DIMM.Socket.` + slot + `",
		"@odata.type": "#Memory.v1_7_1.Memory",
		"Assembly": {"@odata.id": "/redfish/v1/Chassis/System.Embedded.1/Assembly"},
		"CapacityMiB": ` + strconv.Itoa(capacity) + `,
		"DeviceLocator": "DIMM ` + slot + `",
		"Links": {"Chassis": {"@odata.id": "/redfish/v1/Chassis/System.Embedded.1"}},
		"Metrics": {"@odata.id": "/redfish/v1/Systems/System.Embedded.1/Memory/DIMM.Socket.` + slot + `/MemoryMetrics"},
		"Oem": {"Dell": {"DellMemory": {
			"@odata.context": "/redfish/v1/$metadata#DellMemory.DellMemory",
			"@odata.type": "#DellMemory.v1_0_0.DellMemory",
			"@odata.id": "/redfish/v1/Dell/Systems/System.Embedded.1/Memory/DIMM.Socket.` + slot + `",
			"MemoryTechnology": "DRAM"
		}}}
	}`
}

func disk(bay string) string {
	return `{
		"@odata.id": "/redfish/v1/Systems/System.Embedded.1/Storage/Drives/Disk.Bay.` + bay + `:Enclosure.Internal.0-1:RAID.Integrated.1-1",
		"CapacityBytes": 479559942144,
		"Id": "Disk.Bay.` + bay + `:Enclosure.Internal.0-1:RAID.Integrated.1-1",
		"MediaType": "SSD",
		"Status": {"Health": "OK", "State": "Enabled"},
		"Oem": {"Dell": {"DellPhysicalDisk": {"SystemEraseCapability": "CryptographicErasePD"}}}
	}`
}

// fakeIDRAC serves documents and records every requested path in order
type fakeIDRAC struct {
	*httptest.Server

	mu        sync.Mutex
	docs      map[string]string
	status    map[string]int
	requested []string
}

func newFakeIDRAC(t *testing.T) *fakeIDRAC {
	t.Helper()
	f := &fakeIDRAC{docs: idracDocuments(), status: map[string]int{}}
	f.Server = httptest.NewTLSServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeIDRAC) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, r.URL.Path)

	if user, pass, ok := r.BasicAuth(); !ok || user != testUser || pass != testPass {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if code, ok := f.status[r.URL.Path]; ok {
		w.WriteHeader(code)
		if code >= http.StatusBadRequest {
			w.Write([]byte(`{"error":{"code":"Base.1.7.GeneralError","message":"A general error has occurred."}}`))
			return
		}
	}
	doc, ok := f.docs[r.URL.Path]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Write([]byte(doc))
}

func (f *fakeIDRAC) set(path, doc string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[path] = doc
}

func (f *fakeIDRAC) fail(path string, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[path] = code
}

func (f *fakeIDRAC) requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requested...)
}

func (f *fakeIDRAC) target() string {
	return strings.TrimPrefix(f.URL, "https://")
}

func newTestCollector(t *testing.T, f *fakeIDRAC, concurrency int) (*Collector, *Metrics) {
	t.Helper()

	cfg := &config.Config{
		BMCScheme:   "https",
		BMCTimeout:  5 * time.Second,
		SystemID:    config.DefaultSystemID,
		Concurrency: concurrency,
	}
	metrics := NewMetrics(f.target())
	client, err := NewHTTPClient(cfg, metrics)
	require.NoError(t, err)

	common.ChassisCreds.Set(f.target(), &common.Credential{User: testUser, Pass: testPass})
	t.Cleanup(func() { common.ChassisCreds.Delete(f.target()) })

	c, err := NewCollector(context.Background(), f.target(), "", cfg, client, metrics)
	require.NoError(t, err)
	return c, metrics
}
