package timeseries_test

import (
	"testing"

	"github.com/tsflow/engine/timeseries"
)

func TestPeeredTSBTicksAsWholeRecord(t *testing.T) {
	type quote struct {
		Bid, Ask float64
	}
	b := timeseries.NewPeeredTSBOutput[quote](func(a, c quote) bool { return a == c })

	b.Set(quote{Bid: 1, Ask: 2}, 10)
	if b.LastModifiedTime() != 10 {
		t.Fatalf("got lastModified %v, want 10", b.LastModifiedTime())
	}

	b.Set(quote{Bid: 1, Ask: 2}, 20)
	if b.LastModifiedTime() != 10 {
		t.Fatalf("expected no tick on identical record, got lastModified %v", b.LastModifiedTime())
	}

	b.Set(quote{Bid: 1, Ask: 3}, 20)
	if b.LastModifiedTime() != 20 {
		t.Fatalf("expected tick on changed record, got lastModified %v", b.LastModifiedTime())
	}
}
