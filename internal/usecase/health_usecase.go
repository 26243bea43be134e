package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"proofhire-backend/pkg/logger"
)

const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
	HealthDown     = "down"
)

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name string
	// Critical dependencies take the whole service down when they fail.
	Critical bool
	Probe    func(ctx context.Context) error
}

type HealthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type HealthUsecase interface {
	Check(ctx context.Context) HealthReport
}

type healthUsecase struct {
	checks  []HealthCheck
	timeout time.Duration
}

func NewHealthUsecase(checks ...HealthCheck) HealthUsecase {
	sorted := append([]HealthCheck(nil), checks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &healthUsecase{checks: sorted, timeout: 3 * time.Second}
}

func (u *healthUsecase) Check(ctx context.Context) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	report := HealthReport{Status: HealthOK, Checks: make(map[string]string, len(u.checks))}
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, check := range u.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := check.Probe(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				report.Checks[check.Name] = HealthOK
				return
			}
			logger.Log.Warn("Health check failed", "dependency", check.Name, "error", err)
			report.Checks[check.Name] = HealthDown
			switch {
			case check.Critical:
				report.Status = HealthDown
			case report.Status == HealthOK:
				report.Status = HealthDegraded
			}
		}()
	}
	wg.Wait()
	return report
}
