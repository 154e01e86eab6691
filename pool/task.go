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

package pool

import (
	"sync"

	"github.com/comcast/fishyinventory/common"
)

// Task encapsulates a work item that should go in a work pool
type Task struct {
	// Err holds an error that occurred during a task. Its
	// result is only meaningful after Run has been called
	// for the pool that holds it.
	Err error

	// URL is the resource the task fetched
	URL      string
	Body     []byte
	Handlers []common.Handler

	f       func() ([]byte, error)
	skipped bool
}

// NewTask initializes a new task based on a given work
// function.
func NewTask(url string, f func() ([]byte, error), handlers ...common.Handler) *Task {
	return &Task{URL: url, Handlers: handlers, f: f}
}

// Run runs a Task and does appropriate accounting via a
// given sync.WorkGroup. failed is called with the error before
// the task is marked done.
func (t *Task) Run(wg *sync.WaitGroup, failed func(error)) {
	t.Body, t.Err = t.f()
	if t.Err != nil {
		failed(t.Err)
	}
	wg.Done()
}

// Handle passes the fetched body to every handler in order. It
// returns the fetch error, if any, without calling the handlers.
func (t *Task) Handle() error {
	if t.Err != nil {
		return t.Err
	}
	for _, h := range t.Handlers {
		if err := h(t.Body); err != nil {
			return err
		}
	}
	return nil
}
