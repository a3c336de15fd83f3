package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistryRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg, "CLIENT1")

	r.OutboundSeq.Set(4)
	r.MessagesSentTotal.Inc()

	if got := testutil.ToFloat64(r.OutboundSeq); got != 4 {
		t.Errorf("OutboundSeq = %v, want 4", got)
	}
	if got := testutil.ToFloat64(r.MessagesSentTotal); got != 1 {
		t.Errorf("MessagesSentTotal = %v, want 1", got)
	}

	count, err := testutil.GatherAndCount(reg)
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if count != 8 {
		t.Errorf("gathered %d metric families, want 8", count)
	}
}

func TestNewRegistryPanicsOnDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewRegistry(reg, "CLIENT1")

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic registering the same collectors twice")
		}
	}()
	NewRegistry(reg, "CLIENT1")
}
