// Package evaluator walks the fleet on a fixed interval and feeds elapsed
// operating hours into each machine's maintenance alarms. The decision logic
// lives entirely in the domain engine; this service only orchestrates
// load-tick-save and hands triggered alarms to the notification pool.
package evaluator

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"

	"fleet-maintenance-backend/config"
	"fleet-maintenance-backend/internal/machine"
	"fleet-maintenance-backend/internal/notification"
	"fleet-maintenance-backend/internal/store"
)

// Dispatcher accepts maintenance-due notification jobs.
type Dispatcher interface {
	Dispatch(job notification.Job)
}

// Service orchestrates periodic maintenance-alarm evaluation.
type Service struct {
	cfg        *config.Config
	store      store.Store
	workerPool Dispatcher
	startPool  func(ctx context.Context)
}

// NewService creates and initializes a new evaluator service with its own
// notification worker pool.
func NewService(cfg *config.Config, s store.Store) *Service {
	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	pool := notification.NewWorkerPool(cfg.WorkerPool.Size, s.DB(), &webpushOptions)
	return &Service{
		cfg:        cfg,
		store:      s,
		workerPool: pool,
		startPool:  pool.Start,
	}
}

// Run starts the evaluation loop until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Evaluator.Enabled {
		log.Println("Alarm evaluator is disabled. Not starting.")
		return
	}
	log.Println("Starting alarm evaluator...")

	if s.startPool != nil {
		s.startPool(ctx)
	}

	s.EvaluateOnce(ctx)

	timer := time.NewTimer(s.cfg.Evaluator.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Alarm evaluator shutting down.")
			return
		case <-timer.C:
			s.EvaluateOnce(ctx)
			timer.Reset(s.cfg.Evaluator.Interval)
		}
	}
}

// EvaluateOnce runs one evaluation cycle over the whole fleet. Each machine
// is loaded, ticked with the operating hours elapsed since its last
// evaluation, and saved; notifications go out only after the save succeeded.
func (s *Service) EvaluateOnce(ctx context.Context) {
	log.Println("Executing alarm evaluation cycle...")
	now := time.Now().UTC()

	ids, err := s.store.ListMachineIDs(ctx)
	if err != nil {
		log.Printf("Error listing machines for evaluation: %v", err)
		return
	}

	evaluated, triggered := 0, 0
	for _, id := range ids {
		n, err := s.evaluateMachine(ctx, id, now)
		if err != nil {
			log.Printf("Error evaluating machine %s: %v", id, err)
			continue
		}
		evaluated++
		triggered += n
	}
	log.Printf("Alarm evaluation cycle finished: %d machines evaluated, %d alarms triggered.", evaluated, triggered)
}

// evaluateMachine ticks one machine's alarms and returns how many triggers
// fired. A version conflict is not an error: a concurrent writer won and the
// next cycle will pick up the remaining delta.
func (s *Service) evaluateMachine(ctx context.Context, id uuid.UUID, now time.Time) (int, error) {
	m, err := s.store.LoadMachine(ctx, id)
	if err != nil {
		return 0, err
	}
	if m.Specs == nil {
		return 0, nil
	}

	delta := m.Specs.OperatingHours - m.EvaluatedHours
	if delta < 0 {
		// The meter went backwards. Resync the baseline without ticking
		// rather than fabricating hours.
		log.Printf("Machine %s operating hours went backwards (%.1f -> %.1f); resetting baseline",
			id, m.EvaluatedHours, m.Specs.OperatingHours)
		m.EvaluatedHours = m.Specs.OperatingHours
		_, err := s.saveTolerantly(ctx, m)
		return 0, err
	}
	if delta == 0 {
		return 0, nil
	}

	triggers, err := m.TickAlarms(delta, now)
	if err != nil {
		return 0, err
	}
	m.EvaluatedHours = m.Specs.OperatingHours

	saved, err := s.saveTolerantly(ctx, m)
	if err != nil || !saved {
		return 0, err
	}

	for _, tr := range triggers {
		s.workerPool.Dispatch(notification.Job{
			MachineID:   m.ID,
			MachineName: m.Name,
			AlarmName:   tr.AlarmName,
		})
	}
	return len(triggers), nil
}

// saveTolerantly saves the aggregate, treating an optimistic-lock loss as a
// skipped machine rather than a cycle failure.
func (s *Service) saveTolerantly(ctx context.Context, m *machine.Machine) (bool, error) {
	err := s.store.SaveMachine(ctx, m)
	if errors.Is(err, store.ErrVersionConflict) {
		log.Printf("Machine %s changed during evaluation; deferring to next cycle", m.ID)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
