// Package monitor drives the periodic polling loop: on each cycle it
// assesses every discovered device and hands alert-worthy assessments to
// the notification dispatcher.
package monitor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dkellner/drivesentry/internal/detector"
	"github.com/dkellner/drivesentry/internal/metrics"
	"github.com/dkellner/drivesentry/internal/safety"
	"github.com/dkellner/drivesentry/internal/topology"
	"github.com/robfig/cron/v3"
)

// DefaultSchedule polls every five minutes.
const DefaultSchedule = "@every 300s"

// Assessor is the slice of the detector the scheduler needs.
type Assessor interface {
	AssessDevice(ctx context.Context, deviceID string) (*detector.Assessment, error)
}

// Notifier receives alert-worthy assessments. Delivery may block on
// network I/O, so the scheduler invokes it off the poll path.
type Notifier interface {
	NotifyFailure(ctx context.Context, assessment *detector.Assessment) bool
}

// Scheduler runs the periodic polling loop. It is the only writer of the
// history store and the detector's assessment cache; per-device
// serialization is guaranteed by the detector, so assessments of
// different devices run in parallel within a cycle.
type Scheduler struct {
	assessor Assessor
	notifier Notifier
	topo     topology.Provider
	filter   *safety.Filter

	schedule cron.Schedule
	notifyAt detector.Risk

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewScheduler builds a Scheduler. spec is a cron expression or
// descriptor ("@every 300s"); an empty spec falls back to
// DefaultSchedule. notifyAt is the minimum overall risk that triggers a
// notification. filter limits which discovered devices are polled; a nil
// filter polls everything.
func NewScheduler(assessor Assessor, notifier Notifier, topo topology.Provider, filter *safety.Filter, spec string, notifyAt detector.Risk) (*Scheduler, error) {
	if assessor == nil || topo == nil {
		panic("scheduler assessor and topology must not be nil")
	}
	if spec == "" {
		spec = DefaultSchedule
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse monitor schedule %q: %w", spec, err)
	}
	if filter == nil {
		filter = safety.NewFilter(nil, nil)
	}
	return &Scheduler{
		assessor: assessor,
		notifier: notifier,
		topo:     topo,
		filter:   filter,
		schedule: schedule,
		notifyAt: notifyAt,
	}, nil
}

// Start launches the polling loop. The first cycle runs immediately;
// subsequent cycles follow the configured schedule. Start is a no-op on
// an already-running scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true
	done := s.done
	s.mu.Unlock()

	go func() {
		defer close(done)

		s.runCycle(loopCtx)
		for {
			next := s.schedule.Next(time.Now())
			timer := time.NewTimer(time.Until(next))
			select {
			case <-loopCtx.Done():
				timer.Stop()
				return
			case <-timer.C:
				s.runCycle(loopCtx)
			}
		}
	}()
}

// Stop signals the loop to stop accepting new cycles and waits for an
// in-flight cycle to finish, bounded by ctx. Cancellation granularity is
// between devices: a device assessment already underway completes its
// event-log append before the cycle ends.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("monitor stop: %w", ctx.Err())
	}
}

// runCycle assesses every allowed device once. A single device's failure
// never prevents the rest of the cycle from completing.
func (s *Scheduler) runCycle(ctx context.Context) {
	start := time.Now()

	devices, err := s.topo.Devices()
	if err != nil {
		log.Printf("warning: device discovery failed, skipping cycle: %v", err)
		return
	}

	polled := 0
	var wg sync.WaitGroup
	for _, dev := range devices {
		// Cancellation is honored between devices, never mid-assessment.
		if ctx.Err() != nil {
			break
		}
		if !s.filter.IsAllowed(dev.ID) {
			continue
		}
		polled++

		wg.Add(1)
		go func(deviceID string) {
			defer wg.Done()
			s.assessOne(ctx, deviceID)
		}(dev.ID)
	}
	wg.Wait()

	metrics.DevicesMonitored.Set(float64(polled))
	metrics.PollCyclesTotal.Inc()
	metrics.PollCycleDurationSeconds.Observe(time.Since(start).Seconds())
}

// assessOne runs one device assessment and dispatches a notification
// when the risk is at or above the configured severity. Dispatch happens
// on its own goroutine so a slow channel cannot starve the next cycle.
func (s *Scheduler) assessOne(ctx context.Context, deviceID string) {
	assessment, err := s.assessor.AssessDevice(ctx, deviceID)
	if err != nil {
		log.Printf("warning: assessment of %s failed: %v", deviceID, err)
		return
	}

	metrics.AssessmentsTotal.WithLabelValues(assessment.OverallRisk.String()).Inc()
	for _, e := range assessment.Events {
		metrics.FailureEventsTotal.WithLabelValues(string(e.Kind), e.Risk.String()).Inc()
	}

	if s.notifier != nil && assessment.OverallRisk >= s.notifyAt {
		go s.notifier.NotifyFailure(context.WithoutCancel(ctx), assessment)
	}
}
