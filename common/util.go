/*
 * Copyright 2023 Comcast Cable Communications Management, LLC
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

package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/comcast/fishyinventory/buildinfo"
	"github.com/comcast/fishyinventory/config"
	"github.com/comcast/fishyinventory/oem"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredential = errors.New("invalid credential")
)

type documentHandler func([]byte) error
type Handler documentHandler

// StatusError is returned when the BMC answers with an unexpected HTTP status
type StatusError struct {
	URI        string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("HTTP status %d - GET %s", e.StatusCode, e.URI)
	if e.Message != "" {
		msg += " - " + e.Message
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrInvalidCredential
	}
	return nil
}

// Fetch returns a function performing an authenticated GET of uri. The body is
// returned when the response status is one of accepted, 200 OK when none are given.
func Fetch(ctx context.Context, uri, host, profile string, client *retryablehttp.Client, accepted ...int) func() ([]byte, error) {
	if len(accepted) == 0 {
		accepted = []int{http.StatusOK}
	}

	return func() ([]byte, error) {
		req, err := BuildRequest(ctx, uri, host)
		if err != nil {
			return nil, err
		}
		resp, err := DoRequest(client, req)
		if err != nil {
			return nil, err
		}
		defer EmptyAndCloseBody(resp)

		if resp.StatusCode == http.StatusUnauthorized && ChassisCreds.Vault != nil {
			// Credentials may have rotated, clear cache, go to vault and get the latest
			ChassisCreds.Delete(host)
			if _, err := ChassisCreds.Resolve(ctx, profile, host); err != nil {
				return nil, fmt.Errorf("issue retrieving credentials from vault using target: %s - %w", host, err)
			}

			// build new request with updated credentials
			req, err = BuildRequest(ctx, uri, host)
			if err != nil {
				return nil, err
			}

			// Properly close the previous response before making the second request
			EmptyAndCloseBody(resp)

			resp, err = DoRequest(client, req)
			if err != nil {
				return nil, fmt.Errorf("DoRequest with refreshed credentials failed - %w", err)
			}
			defer EmptyAndCloseBody(resp)
		}

		if !slices.Contains(accepted, resp.StatusCode) {
			return nil, newStatusError(uri, resp)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("error reading Response Body - %w", err)
		}
		return body, nil
	}
}

func newStatusError(uri string, resp *http.Response) *StatusError {
	se := &StatusError{URI: uri, StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(body) == 0 {
		return se
	}
	var e oem.ErrorBody
	if err := json.Unmarshal(body, &e); err == nil {
		se.Message = e.Summary()
	}
	return se
}

// This is required to have a proper cleanup of the response body
// to have correctly working keep-alive connections
func EmptyAndCloseBody(resp *http.Response) {
	if resp.Body != nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}

func BuildRequest(ctx context.Context, uri, host string) (*retryablehttp.Request, error) {
	var user, password string

	if c, ok := ChassisCreds.Get(host); ok {
		user = c.User
		password = c.Pass
	} else {
		// use statically configured credentials
		user = config.GetConfig().User
		password = config.GetConfig().Pass
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil || req == nil {
		return nil, fmt.Errorf("failed to build request - %w", err)
	}
	req.SetBasicAuth(user, password)
	// this header is required by iDRAC9 with FW ver. 3.xx and 4.xx
	req.Header.Add("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	return req, nil
}

func DoRequest(client *retryablehttp.Client, req *retryablehttp.Request) (*http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		zap.L().Debug("request failed", zap.String("uri", req.URL.String()), zap.Error(err))
		return nil, err
	}
	return resp, nil
}

// LastSegment returns the final element of a resource path, e.g. DIMM.Socket.A1
// for /redfish/v1/Systems/System.Embedded.1/Memory/DIMM.Socket.A1
func LastSegment(path string) string {
	path = strings.TrimRight(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
