package metrics

import (
	"net/http"
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	withdrawalsCompleted uint64
	withdrawalsFailed    uint64
	withdrawnPaise       uint64
	attendanceEntries    uint64
	settlementsProcessed uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == http.StatusTooManyRequests {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordWithdrawal counts a finished payout. amount is in rupees.
func (c *Collector) RecordWithdrawal(completed bool, amount float64) {
	if c == nil {
		return
	}
	if !completed {
		atomic.AddUint64(&c.withdrawalsFailed, 1)
		return
	}
	atomic.AddUint64(&c.withdrawalsCompleted, 1)
	if amount > 0 {
		atomic.AddUint64(&c.withdrawnPaise, uint64(amount*100+0.5))
	}
}

func (c *Collector) RecordAttendance(entries int) {
	if c == nil || entries <= 0 {
		return
	}
	atomic.AddUint64(&c.attendanceEntries, uint64(entries))
}

func (c *Collector) RecordSettlement() {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.settlementsProcessed, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requests_total":              total,
		"errors_total":                atomic.LoadUint64(&c.errorRequests),
		"rate_limited_total":          atomic.LoadUint64(&c.rateLimited),
		"avg_duration_ms":             avg,
		"total_duration_ms":           totalMs,
		"withdrawals_completed_total": atomic.LoadUint64(&c.withdrawalsCompleted),
		"withdrawals_failed_total":    atomic.LoadUint64(&c.withdrawalsFailed),
		"withdrawn_amount_total":      float64(atomic.LoadUint64(&c.withdrawnPaise)) / 100,
		"attendance_entries_total":    atomic.LoadUint64(&c.attendanceEntries),
		"settlements_processed_total": atomic.LoadUint64(&c.settlementsProcessed),
	}
}
