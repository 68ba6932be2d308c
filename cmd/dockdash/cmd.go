// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize/english"
	"github.com/siemens/dockdash"
	"github.com/siemens/dockdash/artifact"
	"github.com/siemens/dockdash/config"
	"github.com/siemens/dockdash/lister"
	"github.com/siemens/dockdash/scheduler"
	"github.com/siemens/dockdash/web"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/thediveo/lxkns/log"
)

// options are the command line settings.
type options struct {
	interval     uint
	enableWeb    bool
	webPort      uint16
	webBind      []string
	once         bool
	config       string
	output       string
	runtime      string
	endpoint     string
	querytimeout time.Duration
	grace        time.Duration
	debug        bool
}

// newRootCmd returns the dockdash root command, including its subcommands.
func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "dockdash",
		Short: "dockdash renders a dashboard of the services exposed by containers",
		Long: `dockdash renders a static HTML dashboard of all running containers that
expose at least one port on the host, linking to each service.

In daemon mode (the default) the dashboard is rendered at startup and then
periodically. The optional refresh listener additionally renders on demand at
GET /api/refresh, and serves the dashboard at / and /dashboard.

The refresh listener doesn't authenticate its clients: only bind it to the
loopback and private overlay network addresses.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.debug {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return &exitError{code: exitStartup, err: err}
			}
			return run(cmd.Context(), opts)
		},
	}

	flags := rootCmd.Flags()
	flags.UintVarP(&opts.interval, "interval", "i", uint(scheduler.DefaultInterval/time.Second),
		"seconds between render passes")
	flags.BoolVarP(&opts.enableWeb, "enable-web", "w", false,
		"enable the refresh listener")
	flags.Uint16VarP(&opts.webPort, "web-port", "p", web.DefaultPort,
		"refresh listener port")
	flags.StringArrayVar(&opts.webBind, "web-bind", []string{web.DefaultBindAddress},
		"refresh listener bind address; can be repeated. No authentication: only bind to loopback and private addresses")
	flags.BoolVar(&opts.once, "once", false,
		"render once and exit")
	flags.StringVarP(&opts.config, "config", "c", "config.json",
		"configuration file (JSON or YAML)")
	flags.StringVarP(&opts.output, "output", "o", "index.html",
		"path of the rendered dashboard page")
	flags.StringVar(&opts.runtime, "runtime", "docker",
		fmt.Sprintf("container runtime, one of: %s", english.OxfordWordSeries(lister.Runtimes(), "or")))
	flags.StringVar(&opts.endpoint, "endpoint", "",
		"container runtime API endpoint (default: the runtime's standard endpoint)")
	flags.DurationVar(&opts.querytimeout, "query-timeout", dockdash.DefaultQueryTimeout,
		"maximum duration of querying the container runtime")
	flags.DurationVar(&opts.grace, "grace", 10*time.Second,
		"maximum duration to wait for an in-flight render pass when shutting down")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false,
		"enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString())
		},
	})

	return rootCmd
}

// validate checks the command line settings for plausibility.
func (o *options) validate() error {
	switch {
	case o.interval == 0:
		return errors.New("interval must be at least one second")
	case o.enableWeb && o.webPort == 0:
		return errors.New("refresh listener port must not be zero")
	case o.querytimeout <= 0:
		return errors.New("query timeout must be positive")
	case o.grace < 0:
		return errors.New("grace period must not be negative")
	case o.output == "":
		return errors.New("output path must not be empty")
	}
	return nil
}

// run renders either once or, in daemon mode, until ctx is done. A failed
// one-shot pass returns an exitError with exitFailed, while startup failures
// return an exitError with exitStartup.
func run(ctx context.Context, opts *options) error {
	cfg, err := config.Load(opts.config)
	if err != nil {
		log.Warnf("%s, continuing with defaults for the affected settings", err.Error())
	}
	log.Infof("rendering services on %s://%s into %s", cfg.Protocol, cfg.Hostname, opts.output)

	l, err := lister.New(opts.runtime, opts.endpoint)
	if err != nil {
		return &exitError{code: exitStartup, err: err}
	}
	defer l.Close()

	if removed, err := artifact.Sweep(opts.output); err != nil {
		log.Warnf("cannot sweep stale temporary files, reason: %s", err.Error())
	} else if removed > 0 {
		log.Infof("removed %s", english.Plural(removed, "stale temporary file", ""))
	}

	renderer := dockdash.NewRenderer(l, cfg, opts.output,
		dockdash.WithQueryTimeout(opts.querytimeout))
	sched := scheduler.New(renderer,
		scheduler.WithInterval(time.Duration(opts.interval)*time.Second))

	if opts.once {
		if opts.enableWeb {
			log.Warnf("ignoring refresh listener in one-shot mode")
		}
		outcome := sched.Once(ctx)
		// A signal only lets us stop waiting, so the pass still needs to
		// finish writing before the process exits.
		if err := sched.Drain(opts.grace); err != nil {
			log.Warnf("exiting while the render pass is still in flight")
		}
		if outcome.Err != nil {
			return &exitError{code: exitFailed, err: fmt.Errorf("render pass failed: %w", outcome.Err)}
		}
		return nil
	}

	var srv *web.Server
	if opts.enableWeb {
		srv, err = web.Listen(opts.webBind, opts.webPort,
			web.NewRouter(web.NewHandler(sched, opts.output)))
		if err != nil {
			return &exitError{code: exitStartup, err: err}
		}
		srv.Serve()
	}

	_ = sched.Run(ctx)
	log.Infof("shutting down")
	if err := sched.Drain(opts.grace); err != nil {
		log.Warnf("proceeding with shutdown while a render pass is still in flight")
	}
	if srv != nil {
		shutdownctx, cancel := context.WithTimeout(context.Background(), opts.grace)
		defer cancel()
		if err := srv.Shutdown(shutdownctx); err != nil {
			log.Warnf("refresh listener shutdown incomplete, reason: %s", err.Error())
		}
	}
	log.Infof("shutdown complete")
	return nil
}
