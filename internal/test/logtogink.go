// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package test

import (
	"bytes"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	. "github.com/onsi/ginkgo/v2"
)

// captured holds the log output of the current spec.
var captured logs

type logs struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *logs) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *logs) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

func (l *logs) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.b.Reset()
}

// LogToGinkgo sends debug-level log output to the GinkgoWriter for the
// duration of the current spec, so it only shows up for failed specs. The
// output is also captured for inspection using [Logs].
//
//	BeforeEach(test.LogToGinkgo)
func LogToGinkgo() {
	std := logrus.StandardLogger()
	out, formatter, level := std.Out, std.Formatter, std.GetLevel()
	captured.Reset()
	std.SetOutput(io.MultiWriter(GinkgoWriter, &captured))
	std.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "15:04:05.000",
		FullTimestamp:   true,
	})
	std.SetLevel(logrus.DebugLevel)
	DeferCleanup(func() {
		std.SetOutput(out)
		std.SetFormatter(formatter)
		std.SetLevel(level)
	})
}

// Logs returns the log output captured so far in the current spec.
func Logs() string {
	return captured.String()
}
