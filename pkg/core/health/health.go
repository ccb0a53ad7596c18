// Package health aggregates the health of the broker daemon and its
// components into one report.
package health

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Status represents the health status of a check or component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
	StatusUnknown   Status = "unknown"
)

// severity orders statuses from best to worst
func (s Status) severity() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusUnknown:
		return 1
	case StatusDegraded:
		return 2
	default:
		return 3
	}
}

// Worst returns the more severe of a and b
func Worst(a, b Status) Status {
	if b.severity() > a.severity() {
		return b
	}
	return a
}

// ParseStatus maps a status string reported by the daemon to a Status.
// "OK", "SERVING", "UP" and "HEALTHY" are healthy, anything else that is
// not empty is unhealthy.
func ParseStatus(s string) Status {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OK", "SERVING", "UP", "HEALTHY":
		return StatusHealthy
	case "DEGRADED":
		return StatusDegraded
	case "", "UNKNOWN":
		return StatusUnknown
	default:
		return StatusUnhealthy
	}
}

// CheckResult represents the result of a health check
type CheckResult struct {
	Name      string            `json:"name"`
	Status    Status            `json:"status"`
	Message   string            `json:"message,omitempty"`
	Duration  time.Duration     `json:"duration"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}

// Checker is an interface for health checks
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// CheckFunc is a function type that implements Checker
type CheckFunc func(ctx context.Context) CheckResult

// Check implements the Checker interface
func (f CheckFunc) Check(ctx context.Context) CheckResult {
	return f(ctx)
}

// Name returns a default name
func (f CheckFunc) Name() string {
	return "unknown"
}

// NamedCheckFunc wraps a check function with a name
type NamedCheckFunc struct {
	name string
	fn   func(ctx context.Context) CheckResult
}

// NewChecker creates a named checker from a function
func NewChecker(name string, fn func(ctx context.Context) CheckResult) Checker {
	return &NamedCheckFunc{name: name, fn: fn}
}

// Name returns the checker name
func (c *NamedCheckFunc) Name() string {
	return c.name
}

// Check runs the health check
func (c *NamedCheckFunc) Check(ctx context.Context) CheckResult {
	return c.fn(ctx)
}

// Registry manages multiple health checkers
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	target   string
	version  string
}

// NewRegistry creates a registry for the daemon at target. version is the
// client version written into every report.
func NewRegistry(target, version string) *Registry {
	return &Registry{
		checkers: make(map[string]Checker),
		target:   target,
		version:  version,
	}
}

// Register adds a checker to the registry
func (r *Registry) Register(checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[checker.Name()] = checker
}

// RegisterFunc adds a check function to the registry
func (r *Registry) RegisterFunc(name string, fn func(ctx context.Context) CheckResult) {
	r.Register(NewChecker(name, fn))
}

// Unregister removes a checker from the registry
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.checkers, name)
}

// Check runs all health checks concurrently. Results are sorted by name.
func (r *Registry) Check(ctx context.Context) *Report {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report := &Report{
		Target:    r.target,
		Version:   r.version,
		Timestamp: time.Now(),
		Checks:    make([]CheckResult, 0, len(r.checkers)),
	}

	var wg sync.WaitGroup
	results := make(chan CheckResult, len(r.checkers))

	for _, checker := range r.checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			start := time.Now()
			result := c.Check(ctx)
			result.Duration = time.Since(start)
			result.Timestamp = time.Now()
			if result.Name == "" {
				result.Name = c.Name()
			}
			results <- result
		}(checker)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	overallStatus := StatusHealthy
	for result := range results {
		report.Checks = append(report.Checks, result)
		overallStatus = Worst(overallStatus, result.Status)
	}
	sort.Slice(report.Checks, func(i, j int) bool {
		return report.Checks[i].Name < report.Checks[j].Name
	})

	report.Status = overallStatus
	return report
}

// CheckWithTimeout runs all health checks with a timeout
func (r *Registry) CheckWithTimeout(timeout time.Duration) *Report {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return r.Check(ctx)
}

// Report represents the overall health report
type Report struct {
	Target    string        `json:"target"`
	Version   string        `json:"version"`
	Status    Status        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []CheckResult `json:"checks"`
}

// Healthy reports whether every check passed
func (r *Report) Healthy() bool {
	return r.Status == StatusHealthy
}

// String returns a string representation of the report
func (r *Report) String() string {
	return fmt.Sprintf("Target: %s, Status: %s, Checks: %d",
		r.Target, r.Status, len(r.Checks))
}

// Caller is the unary call surface of a bound daemon service
type Caller interface {
	Call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

// RPCCheck calls method on svc and turns the component statuses in the
// response into the check details. A failed call is unhealthy.
func RPCCheck(name string, svc Caller, method string) Checker {
	return NewChecker(name, func(ctx context.Context) CheckResult {
		res, err := svc.Call(ctx, method, nil)
		if err != nil {
			return CheckResult{
				Name:    name,
				Status:  StatusUnhealthy,
				Message: err.Error(),
			}
		}

		components := Components(res)
		status := StatusHealthy
		for _, v := range components {
			status = Worst(status, ParseStatus(v))
		}
		return CheckResult{
			Name:    name,
			Status:  status,
			Message: fmt.Sprintf("%d component(s) reported", len(components)),
			Details: components,
		}
	})
}

// Components extracts the status fields of a health response. Every field
// whose name ends in "status" counts: a string is one component, a struct
// contributes one component per string field and a list of structs one per
// entry, keyed by its symbol, market or name.
func Components(res *structpb.Struct) map[string]string {
	out := make(map[string]string)
	for key, v := range res.GetFields() {
		if !strings.HasSuffix(strings.ToLower(key), "status") {
			continue
		}
		switch k := v.GetKind().(type) {
		case *structpb.Value_StringValue:
			out[key] = k.StringValue
		case *structpb.Value_StructValue:
			for sub, sv := range k.StructValue.GetFields() {
				if s, ok := sv.GetKind().(*structpb.Value_StringValue); ok {
					out[key+"."+sub] = s.StringValue
				}
			}
		case *structpb.Value_ListValue:
			for i, item := range k.ListValue.GetValues() {
				fields := item.GetStructValue().GetFields()
				id := fmt.Sprint(i)
				for _, idKey := range []string{"symbol", "market", "name"} {
					if s := fields[idKey].GetStringValue(); s != "" {
						id = s
						break
					}
				}
				out[key+"."+id] = fields["status"].GetStringValue()
			}
		}
	}
	return out
}
