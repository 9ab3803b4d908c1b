// Copyright 2026 The CSP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package csp

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Debug tracing for the channel and select state machines. Off in normal
// builds; flip the constants when chasing a pairing bug and every park,
// close, and select retry shows up on stderr.
const (
	debugChan   = false
	debugSelect = false
)

var debugLog = newDebugLog()

func newDebugLog() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.TraceLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}
