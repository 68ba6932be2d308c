// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

// dockdash renders a status page of the services exposed by the running
// containers of a host, either once or periodically, and optionally offers an
// HTTP API to trigger rendering on demand.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/thediveo/lxkns/log"

	_ "github.com/siemens/dockdash/lister/all"
	_ "github.com/thediveo/lxkns/log/logrus"
)

// Version is set during build.
var Version = "dev"

// Exit codes.
const (
	exitOK      = 0
	exitFailed  = 1 // one-shot render pass failed.
	exitStartup = 2 // unusable command line or startup failure.
)

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// exitCode returns the process exit code for the specified error returned
// from executing the root command.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitStartup
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		log.Errorf("%s", err.Error())
	}
	os.Exit(exitCode(err))
}

// versionString returns the version banner.
func versionString() string {
	return fmt.Sprintf("dockdash %s", Version)
}
