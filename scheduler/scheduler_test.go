// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/siemens/dockdash"
	"github.com/siemens/dockdash/config"
	"github.com/siemens/dockdash/internal/test"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/siemens/dockdash/matcher"
	. "github.com/thediveo/success"
)

// recorder is a renderer recording the start and end times of its passes; it
// optionally blocks passes until released.
type recorder struct {
	mu      sync.Mutex
	starts  []time.Time
	ends    []time.Time
	delay   time.Duration
	release chan struct{}
}

func (r *recorder) Render(ctx context.Context) (*dockdash.Snapshot, error) {
	r.mu.Lock()
	r.starts = append(r.starts, time.Now())
	release := r.release
	r.mu.Unlock()
	if release != nil {
		<-release
	}
	time.Sleep(r.delay)
	r.mu.Lock()
	r.ends = append(r.ends, time.Now())
	r.mu.Unlock()
	return &dockdash.Snapshot{GeneratedAt: time.Now()}, nil
}

func (r *recorder) times() (starts, ends []time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Time(nil), r.starts...), append([]time.Time(nil), r.ends...)
}

// panicker is a renderer that panics in every pass until defused.
type panicker struct {
	mu      sync.Mutex
	defused bool
}

func (p *panicker) Render(ctx context.Context) (*dockdash.Snapshot, error) {
	p.mu.Lock()
	defused := p.defused
	p.mu.Unlock()
	if !defused {
		panic(fmt.Sprintf("D'oh! %d", 42))
	}
	return &dockdash.Snapshot{GeneratedAt: time.Now()}, nil
}

func (p *panicker) defuse() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defused = true
}

var _ = Describe("scheduler", func() {

	var fake *test.Lister
	var output string
	var renderer *dockdash.Renderer

	BeforeEach(func() {
		test.LogToGinkgo()

		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).WithTimeout(goroutinesUnwindTimeout).WithPolling(goroutinesUnwindPolling).
				ShouldNot(HaveLeaked(goodgos))
		})

		fake = test.NewLister(
			test.Running("web_app", "8080->80/tcp"),
			test.Running("db_internal", "5432/tcp"))
		output = filepath.Join(GinkgoT().TempDir(), "index.html")
		renderer = dockdash.NewRenderer(fake, config.Default(), output,
			dockdash.WithQueryTimeout(time.Second))
	})

	It("defaults its interval", func() {
		Expect(New(renderer).Interval()).To(Equal(DefaultInterval))
		Expect(New(renderer, WithInterval(-1)).Interval()).To(Equal(DefaultInterval))
		Expect(New(renderer, WithInterval(time.Minute)).Interval()).To(Equal(time.Minute))
	})

	It("runs a single pass", func(ctx context.Context) {
		s := New(renderer)
		_, ok := s.Last()
		Expect(ok).To(BeFalse())

		outcome := s.Once(ctx)
		Expect(outcome.Err).NotTo(HaveOccurred())
		Expect(outcome.Kind()).To(Equal(dockdash.NoError))
		Expect(outcome.Trigger).To(Equal(TriggerOnce))
		Expect(outcome.Joined).To(BeFalse())
		Expect(uuid.Parse(outcome.PassID)).Error().NotTo(HaveOccurred())
		Expect(outcome.Duration()).To(BeNumerically(">=", 0))
		Expect(outcome.Snapshot).To(HaveServiceNames("Web App"))
		Expect(outcome.Changed).To(BeTrue())
		Expect(output).To(BeARegularFile())

		last, ok := s.Last()
		Expect(ok).To(BeTrue())
		Expect(last.PassID).To(Equal(outcome.PassID))

		By("noticing unchanged services")
		again := s.Once(ctx)
		Expect(again.PassID).NotTo(Equal(outcome.PassID))
		Expect(again.Changed).To(BeFalse())
		Expect(test.Logs()).To(ContainSubstring("services unchanged"))

		By("noticing changed services")
		fake.SetWorkloads(test.Running("grafana", "3000->3000/tcp"))
		Expect(s.Once(ctx).Changed).To(BeTrue())
	})

	It("reports failed passes", func(ctx context.Context) {
		s := New(renderer)
		Expect(s.Once(ctx).Err).NotTo(HaveOccurred())
		previous := Successful(os.ReadFile(output))

		fake.SetError(errors.New("connection refused"))
		outcome := s.Once(ctx)
		Expect(outcome.Err).To(MatchError(dockdash.ErrRuntimeUnavailable))
		Expect(outcome.Kind()).To(Equal(dockdash.RuntimeUnavailable))
		Expect(outcome.Snapshot).To(BeNil())
		Expect(os.ReadFile(output)).To(Equal(previous))
		Expect(test.Logs()).To(And(
			ContainSubstring(outcome.PassID),
			ContainSubstring("triggered by once"),
			ContainSubstring("RuntimeUnavailable")))

		By("recovering with the next pass")
		fake.SetError(nil)
		outcome = s.Once(ctx)
		Expect(outcome.Err).NotTo(HaveOccurred())
		Expect(outcome.Changed).To(BeFalse())
	})

	It("fails a pass with a panicking renderer", func(ctx context.Context) {
		p := &panicker{}
		s := New(p)
		outcome := s.Once(ctx)
		Expect(outcome.Err).To(MatchError(ErrPanicked))
		Expect(outcome.Err).To(MatchError(ContainSubstring("D'oh! 42")))
		Expect(outcome.Snapshot).To(BeNil())
		Expect(outcome.PassID).NotTo(BeEmpty())

		By("running the next pass")
		p.defuse()
		outcome = s.Trigger(ctx, TriggerRefresh)
		Expect(outcome.Err).NotTo(HaveOccurred())
		Expect(outcome.Joined).To(BeFalse())
	})

	It("joins triggers into the in-flight pass", func(ctx context.Context) {
		fake.SetDelay(500 * time.Millisecond)
		s := New(renderer)

		timerch := make(chan Outcome, 1)
		go func() {
			defer GinkgoRecover()
			timerch <- s.Trigger(ctx, TriggerTimer)
		}()
		Eventually(fake.Calls).Should(Equal(1))

		const refreshes = 5
		var wg sync.WaitGroup
		refreshch := make(chan Outcome, refreshes)
		for range refreshes {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				refreshch <- s.Trigger(ctx, TriggerRefresh)
			}()
		}
		wg.Wait()
		close(refreshch)

		var timed Outcome
		Eventually(timerch).Should(Receive(&timed))
		Expect(timed.Err).NotTo(HaveOccurred())
		Expect(timed.Joined).To(BeFalse())
		for refreshed := range refreshch {
			Expect(refreshed.PassID).To(Equal(timed.PassID))
			Expect(refreshed.Trigger).To(Equal(TriggerTimer))
			Expect(refreshed.Joined).To(BeTrue())
			Expect(refreshed.Err).NotTo(HaveOccurred())
		}
		Expect(fake.Calls()).To(Equal(1))
		Expect(fake.MaxConcurrent()).To(Equal(1))

		By("starting a new pass after the in-flight pass has finished")
		fake.SetDelay(0)
		refreshed := s.Trigger(ctx, TriggerRefresh)
		Expect(refreshed.PassID).NotTo(Equal(timed.PassID))
		Expect(refreshed.Joined).To(BeFalse())
		Expect(fake.Calls()).To(Equal(2))
	})

	It("lets impatient callers go while the pass completes", func(ctx context.Context) {
		fake.SetDelay(300 * time.Millisecond)
		s := New(renderer)
		impatient, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		outcome := s.Trigger(impatient, TriggerRefresh)
		Expect(outcome.Err).To(MatchError(context.DeadlineExceeded))
		Expect(outcome.PassID).To(BeEmpty())

		Eventually(func() bool {
			_, ok := s.Last()
			return ok
		}).Should(BeTrue())
		last, _ := s.Last()
		Expect(last.Err).NotTo(HaveOccurred())
		Expect(last.Trigger).To(Equal(TriggerRefresh))
		Expect(output).To(BeARegularFile())
	})

	It("keeps running passes despite failures", func(ctx context.Context) {
		fake.SetError(errors.New("D'oh!"))
		s := New(renderer, WithInterval(50*time.Millisecond))
		runctx, cancel := context.WithCancel(ctx)
		done := make(chan error)
		go func() {
			defer GinkgoRecover()
			done <- s.Run(runctx)
		}()
		Eventually(fake.Calls).Should(BeNumerically(">=", 3))
		Expect(output).NotTo(BeAnExistingFile())

		fake.SetError(nil)
		Eventually(output).Should(BeARegularFile())
		cancel()
		Eventually(done).Should(Receive(BeNil()))
		Expect(fake.MaxConcurrent()).To(Equal(1))
		Expect(test.Logs()).To(And(
			ContainSubstring("triggered by startup"),
			ContainSubstring("triggered by timer")))
	})

	It("counts the interval from the end of a pass", func(ctx context.Context) {
		const interval = 50 * time.Millisecond
		rec := &recorder{delay: 100 * time.Millisecond}
		s := New(rec, WithInterval(interval))
		runctx, cancel := context.WithCancel(ctx)
		done := make(chan error)
		go func() {
			defer GinkgoRecover()
			done <- s.Run(runctx)
		}()
		Eventually(func() int {
			_, ends := rec.times()
			return len(ends)
		}).WithTimeout(5 * time.Second).Should(BeNumerically(">=", 4))
		cancel()
		Eventually(done).WithTimeout(2 * time.Second).Should(Receive(BeNil()))

		starts, ends := rec.times()
		for idx := 1; idx < len(starts); idx++ {
			Expect(starts[idx].Sub(ends[idx-1])).To(BeNumerically(">=", interval),
				"pass %d started too early", idx)
		}
	})

	When("draining", func() {

		It("waits for the in-flight pass to finish", func(ctx context.Context) {
			fake.SetDelay(300 * time.Millisecond)
			s := New(renderer)
			outcomech := make(chan Outcome, 1)
			go func() {
				defer GinkgoRecover()
				outcomech <- s.Trigger(ctx, TriggerTimer)
			}()
			Eventually(fake.Calls).Should(Equal(1))

			Expect(s.Drain(2 * time.Second)).To(Succeed())
			Expect(output).To(BeARegularFile())
			Eventually(outcomech).Should(Receive(HaveField("Err", BeNil())))

			By("refusing any further passes")
			Expect(s.Trigger(ctx, TriggerRefresh).Err).To(MatchError(ErrStopped))
			Expect(s.Once(ctx).Err).To(MatchError(ErrStopped))
			Expect(s.Run(ctx)).To(MatchError(ErrStopped))
			Expect(fake.Calls()).To(Equal(1))
			Expect(s.Drain(time.Second)).To(Succeed())
		})

		It("gives up waiting after the grace period", func(ctx context.Context) {
			rec := &recorder{release: make(chan struct{})}
			s := New(rec)
			outcomech := make(chan Outcome, 1)
			go func() {
				defer GinkgoRecover()
				outcomech <- s.Trigger(ctx, TriggerRefresh)
			}()
			Eventually(func() int {
				starts, _ := rec.times()
				return len(starts)
			}).Should(Equal(1))

			Expect(s.Drain(100 * time.Millisecond)).To(MatchError(context.DeadlineExceeded))
			close(rec.release)
			Eventually(outcomech).Should(Receive(HaveField("Err", BeNil())))
		})

		It("stops a daemon", func(ctx context.Context) {
			s := New(renderer, WithInterval(20*time.Millisecond))
			done := make(chan error)
			go func() {
				defer GinkgoRecover()
				done <- s.Run(ctx)
			}()
			Eventually(fake.Calls).Should(BeNumerically(">=", 2))
			Expect(s.Drain(time.Second)).To(Succeed())
			Eventually(done).Should(Receive(MatchError(ErrStopped)))
		})

	})

})
