// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/thediveo/lxkns/log"
)

// DefaultPort is the default port of the refresh listener; it differs from
// the usual reverse proxy ports.
const DefaultPort = 8090

// DefaultBindAddress restricts the refresh listener to the loopback interface.
const DefaultBindAddress = "127.0.0.1"

// Server serves an HTTP handler on multiple bind addresses, all on the same
// port.
type Server struct {
	server    *http.Server
	listeners []net.Listener
	wg        sync.WaitGroup
}

// Listen binds to the specified addresses and port, returning a Server ready
// to Serve the specified handler. If binding to any of the addresses fails,
// Listen closes all listeners bound so far and returns an error.
func Listen(addrs []string, port uint16, handler http.Handler) (*Server, error) {
	if len(addrs) == 0 {
		addrs = []string{DefaultBindAddress}
	}
	s := &Server{
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	for _, addr := range addrs {
		hostport := net.JoinHostPort(addr, strconv.FormatUint(uint64(port), 10))
		l, err := net.Listen("tcp", hostport)
		if err != nil {
			for _, l := range s.listeners {
				_ = l.Close()
			}
			return nil, fmt.Errorf("cannot listen on %s: %w", hostport, err)
		}
		s.listeners = append(s.listeners, l)
	}
	return s, nil
}

// Addrs returns the addresses the server is bound to.
func (s *Server) Addrs() []net.Addr {
	addrs := make([]net.Addr, 0, len(s.listeners))
	for _, l := range s.listeners {
		addrs = append(addrs, l.Addr())
	}
	return addrs
}

// Serve starts serving on all bound addresses in the background.
func (s *Server) Serve() {
	for _, l := range s.listeners {
		s.wg.Add(1)
		go func(l net.Listener) {
			defer s.wg.Done()
			log.Infof("refresh listener serving on http://%s", l.Addr())
			if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("refresh listener on %s failed, reason: %s", l.Addr(), err.Error())
			}
		}(l)
	}
}

// Shutdown gracefully shuts down the server, waiting for active requests to
// finish until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	// Listeners that never got served are unknown to the http.Server.
	for _, l := range s.listeners {
		_ = l.Close()
	}
	s.wg.Wait()
	return err
}
