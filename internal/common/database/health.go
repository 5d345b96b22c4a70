// internal/common/database/health.go
package database

import (
	"context"
	"sync"
	"time"
)

// Pinger is any dependency the readiness probe can check.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// CheckAll pings every dependency concurrently and returns the error text per
// failing name. An empty map means everything is reachable.
func CheckAll(ctx context.Context, timeout time.Duration, deps ...Pinger) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		failures = map[string]string{}
	)
	for _, dep := range deps {
		if dep == nil {
			continue
		}
		wg.Add(1)
		go func(p Pinger) {
			defer wg.Done()
			if err := p.Ping(ctx); err != nil {
				mu.Lock()
				failures[p.Name()] = err.Error()
				mu.Unlock()
			}
		}(dep)
	}
	wg.Wait()
	return failures
}
