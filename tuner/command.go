// {{{ Copyright (c) The WebSDR-Transceiver Authors, 2026
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE. }}}

package tuner

import (
	"fmt"

	"hz.tools/rf"
)

// Command is an outbound message toward the backend. The set of commands is
// closed: RequestWorker, ReleaseWorker and Tune.
type Command interface {
	// Name is the wire name of the command.
	Name() string

	command()
}

// RequestWorker asks the backend for an audio worker.
type RequestWorker struct {
	Frequency rf.Hz
	Bandwidth rf.Hz
}

// Name implements Command.
func (RequestWorker) Name() string { return "request_worker" }
func (RequestWorker) command()     {}

func (c RequestWorker) String() string {
	return fmt.Sprintf("request_worker(%s, %s)", c.Frequency, c.Bandwidth)
}

// ReleaseWorker gives the assigned worker back.
type ReleaseWorker struct{}

// Name implements Command.
func (ReleaseWorker) Name() string { return "release_worker" }
func (ReleaseWorker) command()     {}

func (ReleaseWorker) String() string {
	return "release_worker"
}

// Tune moves the assigned worker.
type Tune struct {
	Frequency rf.Hz
	Bandwidth rf.Hz
}

// Name implements Command.
func (Tune) Name() string { return "tune" }
func (Tune) command()     {}

func (c Tune) String() string {
	return fmt.Sprintf("tune(%s, %s)", c.Frequency, c.Bandwidth)
}

// Severity of a Notice.
type Severity int

const (
	// SeverityInfo is for notices that need no action.
	SeverityInfo Severity = iota

	// SeverityWarn is for recoverable conditions, such as a full server.
	SeverityWarn

	// SeverityError is for failed requests.
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a transient, user facing notification.
type Notice struct {
	Severity Severity
	Summary  string
	Detail   string
}

// vim: foldmethod=marker
