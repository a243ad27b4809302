package circuit

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"

	"todo-bulk-update/pkg/logging"
)

// State represents the circuit breaker state
// Closed: normal operation; HalfOpen: testing; Open: fail fast
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Config tunes a circuit breaker instance.
type Config struct {
	Name string

	OperationTimeout  time.Duration // per-call timeout
	OpenFor           time.Duration // how long to stay open before probing
	MaxConsecFailures int           // consecutive failures to open
}

// ErrOpen indicates the breaker is open and calls are short-circuited.
var ErrOpen = errors.New("circuit open")

// Metrics are shared by every breaker and labelled by name.
type Metrics struct {
	State *prometheus.GaugeVec
	Calls *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		State: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "todo_bulk",
			Name:      "circuit_state",
			Help:      "Circuit breaker state (0=closed,1=open,2=half-open).",
		}, []string{"name"}),
		Calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "todo_bulk",
			Name:      "circuit_calls_total",
			Help:      "Calls through a circuit breaker, by result.",
		}, []string{"name", "result"}),
	}
	reg.MustRegister(m.State, m.Calls)
	return m
}

type Breaker struct {
	cfg       Config
	mu        sync.Mutex
	st        State
	nextProbe time.Time
	probing   bool
	consec    int
	now       func() time.Time

	metrics *Metrics
	log     *logging.ComponentLogger
}

// New builds a closed breaker. m may be nil.
func New(cfg Config, m *Metrics, logger *logging.Logger) *Breaker {
	if cfg.MaxConsecFailures <= 0 {
		cfg.MaxConsecFailures = 5
	}
	b := &Breaker{cfg: cfg, now: time.Now, metrics: m, log: logger.WithComponent("circuit")}
	b.observe()
	return b
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.st
}

func (b *Breaker) observe() {
	if b.metrics != nil {
		b.metrics.State.WithLabelValues(b.cfg.Name).Set(float64(b.st))
	}
}

func (b *Breaker) count(result string) {
	if b.metrics != nil {
		b.metrics.Calls.WithLabelValues(b.cfg.Name, result).Inc()
	}
}

func (b *Breaker) setStateLocked(st State) {
	if b.st == st {
		return
	}
	b.st = st
	if st == Open {
		b.nextProbe = b.now().Add(b.cfg.OpenFor)
	}
	b.observe()
	b.log.Info("breaker state change", logging.String("name", b.cfg.Name), logging.String("state", st.String()))
}

// Do runs op under the breaker. While open, calls fail with ErrOpen without
// running op. After OpenFor a single probe call is let through.
func (b *Breaker) Do(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	switch b.st {
	case Open:
		if b.now().Before(b.nextProbe) {
			b.mu.Unlock()
			b.count("rejected")
			return ErrOpen
		}
		b.setStateLocked(HalfOpen)
		b.probing = true
	case HalfOpen:
		if b.probing {
			b.mu.Unlock()
			b.count("rejected")
			return ErrOpen
		}
		b.probing = true
	}
	b.mu.Unlock()

	if b.cfg.OperationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.OperationTimeout)
		defer cancel()
	}
	err := op(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
	if err != nil {
		b.count("failure")
		b.consec++
		if b.st == HalfOpen || b.consec >= b.cfg.MaxConsecFailures {
			b.setStateLocked(Open)
		}
		return err
	}
	b.count("success")
	b.consec = 0
	b.setStateLocked(Closed)
	return nil
}
