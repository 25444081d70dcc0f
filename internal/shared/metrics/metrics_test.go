package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCommandCounters(t *testing.T) {
	before := testutil.ToFloat64(commandsSubmitted.WithLabelValues("901"))
	CommandSubmitted(901, 3)
	if got := testutil.ToFloat64(commandsSubmitted.WithLabelValues("901")); got != before+1 {
		t.Errorf("submitted = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(inboxDepth.WithLabelValues("901")); got != 3 {
		t.Errorf("depth = %v, want 3", got)
	}

	InboxDrained(901, 0)
	if got := testutil.ToFloat64(inboxDepth.WithLabelValues("901")); got != 0 {
		t.Errorf("depth after drain = %v, want 0", got)
	}

	CommandApplied("adjust_funds", errors.New("boom"))
	if got := testutil.ToFloat64(commandsApplied.WithLabelValues("adjust_funds", "error")); got < 1 {
		t.Errorf("applied error counter = %v", got)
	}
}

func TestHandlerExposesNamespace(t *testing.T) {
	CommandRejected(902, "queue_full")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "empires_inbox_rejected_total") {
		t.Error("rejected counter not exported")
	}
}
