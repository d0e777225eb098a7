package metrics

import (
	"net/http"
	"testing"
	"time"
)

func TestCollectorSnapshot(t *testing.T) {
	c := New()
	c.Record(http.StatusOK, 10*time.Millisecond)
	c.Record(http.StatusInternalServerError, 30*time.Millisecond)
	c.Record(http.StatusTooManyRequests, 0)
	c.RecordWithdrawal(true, 500.25)
	c.RecordWithdrawal(true, 100)
	c.RecordWithdrawal(false, 900)
	c.RecordAttendance(3)
	c.RecordSettlement()

	snap := c.Snapshot()
	if snap["requests_total"].(uint64) != 3 || snap["errors_total"].(uint64) != 1 || snap["rate_limited_total"].(uint64) != 1 {
		t.Fatalf("unexpected request counters %+v", snap)
	}
	if snap["avg_duration_ms"].(float64) != float64(40)/3 {
		t.Fatalf("unexpected average %v", snap["avg_duration_ms"])
	}
	if snap["withdrawals_completed_total"].(uint64) != 2 || snap["withdrawals_failed_total"].(uint64) != 1 {
		t.Fatalf("unexpected withdrawal counters %+v", snap)
	}
	if snap["withdrawn_amount_total"].(float64) != 600.25 {
		t.Fatalf("unexpected withdrawn total %v", snap["withdrawn_amount_total"])
	}
	if snap["attendance_entries_total"].(uint64) != 3 || snap["settlements_processed_total"].(uint64) != 1 {
		t.Fatalf("unexpected domain counters %+v", snap)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.Record(http.StatusOK, time.Millisecond)
	c.RecordWithdrawal(true, 1)
	c.RecordAttendance(1)
	c.RecordSettlement()
}
