/*
 * Copyright 2025 Comcast Cable Communications Management, LLC
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
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/comcast/fishyinventory/config"
	"github.com/comcast/fishyinventory/logger"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// pacedTransport spaces out requests to the BMC. iDRACs allow only a handful of
// concurrent sessions and start rejecting bursts with 503s.
type pacedTransport struct {
	limiter *rate.Limiter
	next    http.RoundTripper
}

func (p *pacedTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if err := p.limiter.Wait(r.Context()); err != nil {
		return nil, err
	}
	return p.next.RoundTrip(r)
}

// noRetry hands every response back to the caller unchanged
func noRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return false, nil
}

// NewHTTPClient builds the client used for every Redfish request of a run. A proxy
// set in cfg wins over the HTTP(S)_PROXY/NO_PROXY environment variables.
func NewHTTPClient(cfg *config.Config, metrics *Metrics) (*retryablehttp.Client, error) {
	tr := &http.Transport{
		Dial: (&net.Dialer{
			Timeout: 3 * time.Second,
		}).Dial,
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          cfg.Concurrency,
		MaxConnsPerHost:       cfg.Concurrency,
		MaxIdleConnsPerHost:   cfg.Concurrency,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !cfg.VerifyTLS,
			Renegotiation:      tls.RenegotiateOnceAsClient,
		},
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if cfg.Proxy != "" {
		u, err := url.Parse(cfg.Proxy)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy url %q", cfg.Proxy)
		}
		tr.Proxy = http.ProxyURL(u)
	}

	var rt http.RoundTripper = tr
	if cfg.RequestInterval > 0 {
		rt = &pacedTransport{
			limiter: rate.NewLimiter(rate.Every(cfg.RequestInterval), 1),
			next:    tr,
		}
	}

	retryClient := retryablehttp.NewClient()
	retryClient.CheckRetry = noRetry
	retryClient.HTTPClient.Transport = rt
	retryClient.HTTPClient.Timeout = cfg.BMCTimeout
	retryClient.Logger = nil
	retryClient.RetryMax = 0

	if logger.IsDebug() {
		retryClient.Logger = hclog.New(&hclog.LoggerOptions{
			Name:       "redfish",
			Level:      hclog.Debug,
			Output:     os.Stderr,
			JSONFormat: true,
		})
	}

	if metrics != nil {
		retryClient.ResponseLogHook = func(l retryablehttp.Logger, resp *http.Response) {
			metrics.ObserveResponse(resp.StatusCode)
		}
	}

	return retryClient, nil
}
