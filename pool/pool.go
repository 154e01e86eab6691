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

import "sync"

// Pool is a worker group that runs a number of tasks at a
// configured concurrency.
type Pool struct {
	Tasks []*Task

	// StopOnError stops handing out tasks once one of them fails
	StopOnError bool

	concurrency int
	tasksChan   chan *Task
	wg          sync.WaitGroup

	stop     chan struct{}
	stopOnce sync.Once
	err      error
}

// NewPool initializes a new pool with the given tasks and
// at the given concurrency.
func NewPool(tasks []*Task, concurrency int) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(tasks) && len(tasks) > 0 {
		concurrency = len(tasks)
	}
	return &Pool{
		Tasks:       tasks,
		concurrency: concurrency,
		tasksChan:   make(chan *Task),
	}
}

// Run runs all work within the pool and blocks until it's
// finished. Tasks keep their position in p.Tasks regardless of
// the order in which workers complete them.
func (p *Pool) Run() {
	p.stop = make(chan struct{})
	for i := 0; i < p.concurrency; i++ {
		go p.work()
	}

	p.wg.Add(len(p.Tasks))
dispatch:
	for i, task := range p.Tasks {
		if p.stopped() {
			p.skip(p.Tasks[i:])
			break
		}
		select {
		case p.tasksChan <- task:
		case <-p.stop:
			p.skip(p.Tasks[i:])
			break dispatch
		}
	}

	// all workers return
	close(p.tasksChan)

	p.wg.Wait()
}

// The work loop for any single goroutine.
func (p *Pool) work() {
	for task := range p.tasksChan {
		if p.stopped() {
			task.skipped = true
			p.wg.Done()
			continue
		}
		task.Run(&p.wg, p.fail)
	}
}

func (p *Pool) fail(err error) {
	if !p.StopOnError {
		return
	}
	p.stopOnce.Do(func() {
		p.err = err
		close(p.stop)
	})
}

func (p *Pool) stopped() bool {
	select {
	case <-p.stop:
		return true
	default:
		return false
	}
}

func (p *Pool) skip(tasks []*Task) {
	for _, task := range tasks {
		task.skipped = true
		p.wg.Done()
	}
}

// Handle calls Handle on every task in the order they were added and
// stops at the first error. A task skipped after a failure yields the
// error that stopped the pool.
func (p *Pool) Handle() error {
	for _, task := range p.Tasks {
		if task.skipped {
			return p.err
		}
		if err := task.Handle(); err != nil {
			return err
		}
	}
	return nil
}
