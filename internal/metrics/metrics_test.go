package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/skalibog/tradegate/pkg/models"
)

func TestRecordEvaluation(t *testing.T) {
	r := New()

	eval := &models.Evaluation{
		Symbol:   "BTCUSDT",
		Decision: models.Decision{Direction: models.Sell, Confidence: 0.9},
		Verdict:  models.Verdict{Accepted: true, Reason: "accepted"},
	}
	r.RecordEvaluation(eval, 3, time.Millisecond)
	r.RecordEvaluation(eval, 4, time.Millisecond)
	r.RecordJournalError()

	if got := testutil.ToFloat64(r.evaluations.WithLabelValues("BTCUSDT")); got != 2 {
		t.Fatalf("evaluations=%v, expected 2", got)
	}
	if got := testutil.ToFloat64(r.decisions.WithLabelValues("sell")); got != 2 {
		t.Fatalf("decisions=%v, expected 2", got)
	}
	if got := testutil.ToFloat64(r.verdicts.WithLabelValues("true", "accepted")); got != 2 {
		t.Fatalf("verdicts=%v, expected 2", got)
	}
	if got := testutil.ToFloat64(r.openPositions); got != 4 {
		t.Fatalf("open positions=%v, expected 4", got)
	}
	if got := testutil.ToFloat64(r.journalErrors); got != 1 {
		t.Fatalf("journal errors=%v, expected 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := New()
	r.RecordEvaluation(&models.Evaluation{Symbol: "ETHUSDT", Decision: models.Decision{Direction: models.Hold}}, 0, time.Microsecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `tradegate_evaluations_total{symbol="ETHUSDT"} 1`) {
		t.Fatalf("metrics output missing evaluation counter:\n%s", body)
	}
}
