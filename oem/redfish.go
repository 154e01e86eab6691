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

package oem

import (
	"bytes"
	"encoding/json"
)

// Link is a Redfish navigation property
type Link struct {
	URL string `json:"@odata.id"`
}

// LinksWrapper holds one or more links. Some firmware versions return a single
// object where others return an array.
type LinksWrapper struct {
	Links []Link
}

func (w *LinksWrapper) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.HasPrefix(data, []byte("{")) {
		var l Link
		if err := json.Unmarshal(data, &l); err != nil {
			return err
		}
		w.Links = []Link{l}
		return nil
	}
	return json.Unmarshal(data, &w.Links)
}

// URLs returns the non-empty link targets in order
func (w LinksWrapper) URLs() []string {
	urls := make([]string, 0, len(w.Links))
	for _, l := range w.Links {
		if l.URL != "" {
			urls = append(urls, l.URL)
		}
	}
	return urls
}

// Collection returns an array of the endpoints from the BMC pertaining to a resource type
type Collection struct {
	Members      LinksWrapper `json:"Members"`
	MembersCount int          `json:"Members@odata.count"`
}

// /redfish/v1/Systems/System.Embedded.1

// System carries the navigation links the fan and power supply collectors follow
type System struct {
	Links struct {
		CooledBy  LinksWrapper `json:"CooledBy"`
		PoweredBy LinksWrapper `json:"PoweredBy"`
	} `json:"Links"`
}

// /redfish/v1/Systems/System.Embedded.1/Storage/RAID.Integrated.1-1

// Storage lists the drives attached to a storage controller
type Storage struct {
	Drives LinksWrapper `json:"Drives"`
}

// ErrorBody is the Redfish extended error document returned with 4xx/5xx responses
type ErrorBody struct {
	Error struct {
		Code         string `json:"code"`
		Message      string `json:"message"`
		ExtendedInfo []struct {
			MessageID string `json:"MessageId"`
			Message   string `json:"Message"`
		} `json:"@Message.ExtendedInfo"`
	} `json:"error"`
}

// Summary returns the most specific message in the error document
func (e ErrorBody) Summary() string {
	for _, info := range e.Error.ExtendedInfo {
		if info.Message != "" {
			return info.Message
		}
	}
	return e.Error.Message
}
