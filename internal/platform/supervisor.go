package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"protozoa/internal/logging"
)

type SupervisorPolicy struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	// MaxRestarts of zero means unlimited.
	MaxRestarts int
}

type RestartPolicy string

const (
	// RestartPermanent restarts a child whenever it returns.
	RestartPermanent RestartPolicy = "permanent"
	// RestartTransient restarts a child only when it returns an error.
	RestartTransient RestartPolicy = "transient"
	RestartTemporary RestartPolicy = "temporary"
)

type ChildSpec struct {
	Name    string
	Restart RestartPolicy
}

type ChildStatus struct {
	Name            string        `json:"name"`
	RestartPolicy   RestartPolicy `json:"restart_policy"`
	RestartCount    int           `json:"restart_count"`
	LastError       string        `json:"last_error,omitempty"`
	PermanentFailed bool          `json:"permanent_failed"`
	Running         bool          `json:"running"`
}

func defaultSupervisorPolicy() SupervisorPolicy {
	return SupervisorPolicy{
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		BackoffFactor:  2.0,
	}
}

func normalizeSupervisorPolicy(policy SupervisorPolicy) SupervisorPolicy {
	def := defaultSupervisorPolicy()
	if policy.InitialBackoff <= 0 {
		policy.InitialBackoff = def.InitialBackoff
	}
	if policy.MaxBackoff <= 0 {
		policy.MaxBackoff = def.MaxBackoff
	}
	if policy.MaxBackoff < policy.InitialBackoff {
		policy.MaxBackoff = policy.InitialBackoff
	}
	if policy.BackoffFactor < 1 {
		policy.BackoffFactor = def.BackoffFactor
	}
	return policy
}

// Supervisor keeps the long-lived children of `protozoactl serve` (the HTTP
// listener and the live simulation) running, restarting them with
// exponential backoff.
type Supervisor struct {
	policy SupervisorPolicy
	logger *slog.Logger

	mu       sync.Mutex
	children map[string]*child
}

type child struct {
	cancel context.CancelFunc
	done   chan struct{}
	spec   ChildSpec

	restartCount    int
	lastErr         error
	permanentFailed bool
	running         bool
}

func NewSupervisor(policy SupervisorPolicy, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		policy:   normalizeSupervisorPolicy(policy),
		logger:   logging.OrDefault(logger),
		children: make(map[string]*child),
	}
}

func (s *Supervisor) Start(ctx context.Context, spec ChildSpec, run func(ctx context.Context) error) error {
	if spec.Name == "" {
		return errors.New("child name is required")
	}
	if run == nil {
		return errors.New("child runner is required")
	}
	switch spec.Restart {
	case RestartPermanent, RestartTransient, RestartTemporary:
	default:
		spec.Restart = RestartPermanent
	}

	s.mu.Lock()
	if existing, ok := s.children[spec.Name]; ok && existing.running {
		s.mu.Unlock()
		return fmt.Errorf("child already running: %s", spec.Name)
	}
	cctx, cancel := context.WithCancel(ctx)
	c := &child{cancel: cancel, done: make(chan struct{}), spec: spec, running: true}
	s.children[spec.Name] = c
	s.mu.Unlock()

	go s.supervise(cctx, c, run)
	return nil
}

func (s *Supervisor) supervise(ctx context.Context, c *child, run func(ctx context.Context) error) {
	defer func() {
		s.mu.Lock()
		c.running = false
		s.mu.Unlock()
		close(c.done)
	}()

	backoff := s.policy.InitialBackoff
	for {
		err := run(ctx)
		if ctx.Err() != nil {
			return
		}
		if !shouldRestart(c.spec.Restart, err) {
			s.mu.Lock()
			c.lastErr = err
			s.mu.Unlock()
			return
		}
		s.mu.Lock()
		c.lastErr = err
		restarts := c.restartCount
		if s.policy.MaxRestarts > 0 && restarts >= s.policy.MaxRestarts {
			c.permanentFailed = true
			s.mu.Unlock()
			s.logger.Error("child gave up", "child", c.spec.Name, "restarts", restarts, "error", errString(err))
			return
		}
		c.restartCount++
		s.mu.Unlock()
		s.logger.Warn("child restarting", "child", c.spec.Name, "restarts", restarts+1, "backoff", backoff, "error", errString(err))

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		next := time.Duration(float64(backoff) * s.policy.BackoffFactor)
		if next > s.policy.MaxBackoff {
			next = s.policy.MaxBackoff
		}
		backoff = next
	}
}

func shouldRestart(policy RestartPolicy, err error) bool {
	switch policy {
	case RestartTransient:
		return err != nil
	case RestartTemporary:
		return false
	default:
		return true
	}
}

func (s *Supervisor) Stop(name string) {
	s.mu.Lock()
	c, ok := s.children[name]
	s.mu.Unlock()
	if !ok {
		return
	}
	c.cancel()
	<-c.done
}

func (s *Supervisor) StopAll() {
	s.mu.Lock()
	all := make([]*child, 0, len(s.children))
	for _, c := range s.children {
		all = append(all, c)
	}
	s.mu.Unlock()

	for _, c := range all {
		c.cancel()
	}
	for _, c := range all {
		<-c.done
	}
}

// Wait blocks until every child has stopped for good.
func (s *Supervisor) Wait() {
	s.mu.Lock()
	all := make([]*child, 0, len(s.children))
	for _, c := range s.children {
		all = append(all, c)
	}
	s.mu.Unlock()
	for _, c := range all {
		<-c.done
	}
}

func (s *Supervisor) Children() []ChildStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.children))
	for name := range s.children {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ChildStatus, 0, len(names))
	for _, name := range names {
		c := s.children[name]
		out = append(out, ChildStatus{
			Name:            c.spec.Name,
			RestartPolicy:   c.spec.Restart,
			RestartCount:    c.restartCount,
			LastError:       errString(c.lastErr),
			PermanentFailed: c.permanentFailed,
			Running:         c.running,
		})
	}
	return out
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
