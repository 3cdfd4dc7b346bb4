package sql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/syssam/sqlkit/dialect"
)

// QueryStats holds statement execution statistics.
type QueryStats struct {
	// TotalQueries is the total number of queries executed.
	TotalQueries atomic.Int64
	// TotalExecs is the total number of exec statements executed.
	TotalExecs atomic.Int64
	// TotalDuration is the total time spent executing statements.
	TotalDuration atomic.Int64 // nanoseconds
	// SlowQueries is the count of statements exceeding the slow threshold.
	SlowQueries atomic.Int64
	// Errors is the count of failed statements.
	Errors atomic.Int64
	// Per statement kind, by leading keyword.
	Selects, Inserts, Updates, Deletes atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.TotalQueries.Load(),
		TotalExecs:    s.TotalExecs.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
		Selects:       s.Selects.Load(),
		Inserts:       s.Inserts.Load(),
		Updates:       s.Updates.Load(),
		Deletes:       s.Deletes.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.TotalQueries.Store(0)
	s.TotalExecs.Store(0)
	s.TotalDuration.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
	s.Selects.Store(0)
	s.Inserts.Store(0)
	s.Updates.Store(0)
	s.Deletes.Store(0)
}

func (s *QueryStats) count(op Op) {
	switch op {
	case OpSelect:
		s.Selects.Add(1)
	case OpInsert:
		s.Inserts.Add(1)
	case OpUpdate:
		s.Updates.Add(1)
	case OpDelete:
		s.Deletes.Add(1)
	}
}

// StatementOp classifies query by its leading keyword. It returns 0 for
// anything other than SELECT, INSERT, UPDATE and DELETE.
func StatementOp(query string) Op {
	query = strings.TrimLeft(query, " \t\r\n(")
	end := strings.IndexAny(query, " \t\r\n(")
	if end < 0 {
		end = len(query)
	}
	switch strings.ToUpper(query[:end]) {
	case "SELECT":
		return OpSelect
	case "INSERT":
		return OpInsert
	case "UPDATE":
		return OpUpdate
	case "DELETE":
		return OpDelete
	default:
		return 0
	}
}

// StatsSnapshot is a point-in-time snapshot of statement statistics.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
	Selects       int64
	Inserts       int64
	Updates       int64
	Deletes       int64
}

// AvgQueryDuration returns the average statement duration.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d select=%d insert=%d update=%d delete=%d",
		s.TotalQueries, s.TotalExecs, s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors, s.Selects, s.Inserts, s.Updates, s.Deletes,
	)
}

// SlowQueryHook is called when a slow statement is detected.
type SlowQueryHook func(ctx context.Context, query string, args []dialect.Arg, duration time.Duration)

// StatsExecutor wraps an executor with statistics collection.
type StatsExecutor struct {
	dialect.Executor
	stats         *QueryStats
	slowThreshold time.Duration
	slowHook      SlowQueryHook
	mu            sync.RWMutex
}

// StatsOption configures the StatsExecutor.
type StatsOption func(*StatsExecutor)

// WithSlowThreshold sets the threshold for slow statement detection.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsExecutor) {
		s.slowThreshold = d
	}
}

// WithSlowQueryHook sets a callback function for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsExecutor) {
		s.slowHook = hook
	}
}

// WithSlowQueryLog logs slow statements to logger, or to the default
// logger when logger is nil.
func WithSlowQueryLog(logger *slog.Logger) StatsOption {
	if logger == nil {
		logger = slog.Default()
	}
	return WithSlowQueryHook(func(ctx context.Context, query string, args []dialect.Arg, duration time.Duration) {
		logger.WarnContext(ctx, "slow query detected", "duration", duration, "query", query, "args", ArgsString(args))
	})
}

// NewStatsExecutor wraps exec with statistics collection.
//
// Example:
//
//	drv, _ := sql.Open(dialect.MustGet(dialect.Postgres), "postgres", dsn)
//	exec := sql.NewStatsExecutor(drv,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(nil),
//	)
//	client, _ := sqlkit.New(exec, sqlkit.WithDialect(dialect.Postgres))
//
//	// Later, check statistics:
//	fmt.Println(exec.QueryStats().Stats())
func NewStatsExecutor(exec dialect.Executor, opts ...StatsOption) *StatsExecutor {
	s := &StatsExecutor{
		Executor:      exec,
		stats:         &QueryStats{},
		slowThreshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the underlying QueryStats for reading statistics.
func (s *StatsExecutor) QueryStats() *QueryStats {
	return s.stats
}

// SlowThreshold returns the current slow statement threshold.
func (s *StatsExecutor) SlowThreshold() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slowThreshold
}

// SetSlowThreshold updates the slow statement threshold.
func (s *StatsExecutor) SetSlowThreshold(threshold time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slowThreshold = threshold
}

// Query executes a query and records statistics.
func (s *StatsExecutor) Query(ctx context.Context, query string, args []dialect.Arg) (dialect.Rows, error) {
	start := time.Now()
	rows, err := s.Executor.Query(ctx, query, args)
	s.record(ctx, query, args, start, err, true)
	return rows, err
}

// Exec executes a statement and records statistics.
func (s *StatsExecutor) Exec(ctx context.Context, query string, args []dialect.Arg) (int64, error) {
	start := time.Now()
	n, err := s.Executor.Exec(ctx, query, args)
	s.record(ctx, query, args, start, err, false)
	return n, err
}

func (s *StatsExecutor) record(ctx context.Context, query string, args []dialect.Arg, start time.Time, err error, isQuery bool) {
	duration := time.Since(start)
	if isQuery {
		s.stats.TotalQueries.Add(1)
	} else {
		s.stats.TotalExecs.Add(1)
	}
	s.stats.TotalDuration.Add(int64(duration))
	s.stats.count(StatementOp(query))
	if err != nil {
		s.stats.Errors.Add(1)
	}

	s.mu.RLock()
	threshold := s.slowThreshold
	hook := s.slowHook
	s.mu.RUnlock()

	if duration > threshold {
		s.stats.SlowQueries.Add(1)
		if hook != nil {
			hook(ctx, query, args, duration)
		}
	}
}

// DebugExecutor wraps an executor with debug logging.
type DebugExecutor struct {
	dialect.Executor
	log func(context.Context, ...any)
}

// DebugOption configures the DebugExecutor.
type DebugOption func(*DebugExecutor)

// DebugWithLog sets a custom log function.
func DebugWithLog(logFunc func(context.Context, ...any)) DebugOption {
	return func(d *DebugExecutor) {
		d.log = logFunc
	}
}

// NewDebugExecutor wraps exec with debug logging. Statements are logged at
// debug level on the default logger unless DebugWithLog is given.
func NewDebugExecutor(exec dialect.Executor, opts ...DebugOption) *DebugExecutor {
	d := &DebugExecutor{
		Executor: exec,
		log: func(ctx context.Context, v ...any) {
			slog.DebugContext(ctx, fmt.Sprint(v...))
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Query logs and executes a query.
func (d *DebugExecutor) Query(ctx context.Context, query string, args []dialect.Arg) (dialect.Rows, error) {
	d.log(ctx, fmt.Sprintf("query: %s args: %s", query, ArgsString(args)))
	return d.Executor.Query(ctx, query, args)
}

// Exec logs and executes a statement.
func (d *DebugExecutor) Exec(ctx context.Context, query string, args []dialect.Arg) (int64, error) {
	d.log(ctx, fmt.Sprintf("exec: %s args: %s", query, ArgsString(args)))
	return d.Executor.Exec(ctx, query, args)
}

var (
	_ dialect.Executor = (*StatsExecutor)(nil)
	_ dialect.Executor = (*DebugExecutor)(nil)
)

// OpenWithStats opens a database connection with statistics collection
// enabled.
func OpenWithStats(d dialect.Dialect, driverName, source string, opts ...StatsOption) (*StatsExecutor, *QueryStats, error) {
	drv, err := Open(d, driverName, source)
	if err != nil {
		return nil, nil, err
	}
	exec := NewStatsExecutor(drv, opts...)
	return exec, exec.QueryStats(), nil
}
