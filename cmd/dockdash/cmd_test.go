// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/siemens/dockdash/internal/test"
	"github.com/siemens/dockdash/lister"
	"github.com/thediveo/go-plugger/v3"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/success"
)

// fakeFactory hands out the same fake lister, so tests can control the
// workloads "running" in the fake runtime.
type fakeFactory struct{}

var fakeLister = test.NewLister()

func (fakeFactory) Runtime() string                            { return "fake.example.org" }
func (fakeFactory) DefaultEndpoint() string                    { return "" }
func (fakeFactory) New(endpoint string) (lister.Lister, error) { return fakeLister, nil }

func init() {
	plugger.Group[lister.Factory]().Register(&fakeFactory{}, plugger.WithPlugin("fake"))
}

// execute runs the root command with the specified arguments, returning the
// exit code.
func execute(ctx context.Context, args ...string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(GinkgoWriter)
	cmd.SetErr(GinkgoWriter)
	return exitCode(cmd.ExecuteContext(ctx))
}

// freePort returns a currently unused TCP port on the loopback interface.
func freePort() uint16 {
	GinkgoHelper()
	l := Successful(net.Listen("tcp", "127.0.0.1:0"))
	defer l.Close()
	return uint16(l.Addr().(*net.TCPAddr).Port)
}

var _ = Describe("dockdash command", func() {

	var dir, output, cfgfile string

	BeforeEach(func() {
		test.LogToGinkgo()

		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).WithTimeout(goroutinesUnwindTimeout).WithPolling(goroutinesUnwindPolling).
				ShouldNot(HaveLeaked(goodgos))
		})

		dir = GinkgoT().TempDir()
		output = filepath.Join(dir, "index.html")
		cfgfile = filepath.Join(dir, "config.json")
		fakeLister.SetError(nil)
		fakeLister.SetDelay(0)
		fakeLister.SetWorkloads(
			test.Running("web_app", "8080->80/tcp"),
			test.Running("db_internal", "5432/tcp"))
	})

	It("has sensible defaults", func() {
		flags := newRootCmd().Flags()
		for flag, defval := range map[string]string{
			"interval":      "300",
			"enable-web":    "false",
			"web-port":      "8090",
			"web-bind":      "[127.0.0.1]",
			"once":          "false",
			"config":        "config.json",
			"output":        "index.html",
			"runtime":       "docker",
			"endpoint":      "",
			"query-timeout": "5s",
			"grace":         "10s",
		} {
			Expect(flags.Lookup(flag)).NotTo(BeNil(), "missing flag --%s", flag)
			Expect(flags.Lookup(flag).DefValue).To(Equal(defval), "flag --%s", flag)
		}
		for flag, short := range map[string]string{
			"interval": "i", "enable-web": "w", "web-port": "p", "config": "c", "output": "o",
		} {
			Expect(flags.Lookup(flag).Shorthand).To(Equal(short), "flag --%s", flag)
		}
	})

	It("maps errors to exit codes", func() {
		Expect(exitCode(nil)).To(Equal(exitOK))
		Expect(exitCode(&exitError{code: exitFailed, err: errors.New("D'oh!")})).To(Equal(exitFailed))
		Expect(exitCode(fmt.Errorf("wrapped: %w", &exitError{code: exitFailed, err: errors.New("D'oh!")}))).
			To(Equal(exitFailed))
		Expect(exitCode(errors.New("unknown flag"))).To(Equal(exitStartup))
	})

	It("prints its version", func(ctx context.Context) {
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetArgs([]string{"version"})
		cmd.SetOut(&out)
		Expect(cmd.ExecuteContext(ctx)).To(Succeed())
		Expect(out.String()).To(Equal("dockdash dev\n"))
	})

	DescribeTable("rejecting unusable command lines",
		func(args ...string) {
			Expect(execute(context.Background(), args...)).To(Equal(exitStartup))
			Expect(output).NotTo(BeAnExistingFile())
		},
		Entry("positional arguments", "--once", "foo"),
		Entry("unknown flag", "--once", "--foo"),
		Entry("zero interval", "--interval", "0"),
		Entry("zero port", "--enable-web", "--web-port", "0"),
		Entry("zero query timeout", "--once", "--query-timeout", "0s"),
		Entry("unknown runtime", "--once", "--runtime", "rumpelpumpel"),
	)

	When("rendering once", func() {

		It("renders the dashboard", func(ctx context.Context) {
			Expect(execute(ctx, "--once", "--runtime", "fake", "-c", cfgfile, "-o", output)).
				To(Equal(exitOK))
			Expect(string(Successful(os.ReadFile(output)))).To(And(
				ContainSubstring(">Web App</a>"),
				ContainSubstring(`href="http://localhost:8080"`)))
		})

		It("uses the configuration", func(ctx context.Context) {
			Expect(os.WriteFile(cfgfile, []byte(`{"hostname": "nas.example.org", "protocol": "https"}`), 0o644)).
				To(Succeed())
			Expect(execute(ctx, "--once", "--runtime", "fake", "-c", cfgfile, "-o", output)).
				To(Equal(exitOK))
			Expect(string(Successful(os.ReadFile(output)))).To(
				ContainSubstring(`href="https://nas.example.org:8080"`))
		})

		It("falls back to defaults for an invalid configuration", func(ctx context.Context) {
			Expect(os.WriteFile(cfgfile, []byte(`{"hostname": `), 0o644)).To(Succeed())
			Expect(execute(ctx, "--once", "--runtime", "fake", "-c", cfgfile, "-o", output)).
				To(Equal(exitOK))
			Expect(string(Successful(os.ReadFile(output)))).To(
				ContainSubstring(`href="http://localhost:8080"`))
			Expect(test.Logs()).To(ContainSubstring("configuration invalid"))
		})

		It("fails when the runtime is unavailable", func(ctx context.Context) {
			Expect(os.WriteFile(output, []byte("previous"), 0o644)).To(Succeed())
			fakeLister.SetError(errors.New("connection refused"))
			Expect(execute(ctx, "--once", "--runtime", "fake", "-c", cfgfile, "-o", output)).
				To(Equal(exitFailed))
			Expect(os.ReadFile(output)).To(Equal([]byte("previous")))
		})

		It("fails when the page cannot be written", func(ctx context.Context) {
			output = filepath.Join(dir, "gone", "index.html")
			Expect(execute(ctx, "--once", "--runtime", "fake", "-c", cfgfile, "-o", output)).
				To(Equal(exitFailed))
		})

		It("finishes writing the page when interrupted", func(ctx context.Context) {
			fakeLister.SetDelay(300 * time.Millisecond)
			interrupted, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()
			Expect(execute(interrupted, "--once", "--runtime", "fake", "-c", cfgfile, "-o", output)).
				To(Equal(exitFailed))
			Expect(output).To(BeARegularFile())
			Expect(filepath.Glob(filepath.Join(dir, ".index.html.*.tmp"))).To(BeEmpty())
		})

		It("sweeps stale temporary files", func(ctx context.Context) {
			stale := filepath.Join(dir, ".index.html.123456.tmp")
			Expect(os.WriteFile(stale, []byte("<html>"), 0o644)).To(Succeed())
			Expect(execute(ctx, "--once", "--runtime", "fake", "-c", cfgfile, "-o", output)).
				To(Equal(exitOK))
			Expect(stale).NotTo(BeAnExistingFile())
		})

	})

	It("runs as a daemon with a refresh listener until stopped", func(ctx context.Context) {
		port := freePort()
		daemonctx, cancel := context.WithCancel(ctx)
		defer cancel()
		done := make(chan int)
		go func() {
			defer GinkgoRecover()
			done <- execute(daemonctx, "--runtime", "fake", "-c", cfgfile, "-o", output,
				"--enable-web", "--web-port", strconv.Itoa(int(port)), "--grace", "1s")
		}()
		Eventually(output).Should(BeARegularFile())

		client := &http.Client{
			Transport: &http.Transport{DisableKeepAlives: true},
			Timeout:   5 * time.Second,
		}
		url := fmt.Sprintf("http://127.0.0.1:%d/api/refresh", port)
		Eventually(func() int {
			resp, err := client.Get(url)
			if err != nil {
				return 0
			}
			resp.Body.Close()
			return resp.StatusCode
		}).Should(Equal(http.StatusOK))
		calls := fakeLister.Calls()
		Expect(calls).To(BeNumerically(">=", 2))

		cancel()
		Eventually(done).WithTimeout(5 * time.Second).Should(Receive(Equal(exitOK)))
		Expect(client.Get(url)).Error().To(HaveOccurred())
		Expect(fakeLister.Calls()).To(Equal(calls))
	})

	It("fails to start when the refresh listener port is taken", func(ctx context.Context) {
		l := Successful(net.Listen("tcp", "127.0.0.1:0"))
		defer l.Close()
		port := l.Addr().(*net.TCPAddr).Port
		Expect(execute(ctx, "--runtime", "fake", "-c", cfgfile, "-o", output,
			"--enable-web", "--web-port", strconv.Itoa(port))).To(Equal(exitStartup))
		Expect(output).NotTo(BeAnExistingFile())
	})

})
