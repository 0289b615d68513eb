package directory

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/law-makers/taxcert/internal/adapter"
	"github.com/law-makers/taxcert/internal/adapter/maricopa"
	"github.com/law-makers/taxcert/internal/adapter/ohio"
)

func TestMemory_Counties(t *testing.T) {
	registry := adapter.NewRegistry(append(ohio.Adapters(), maricopa.New())...)
	dir := NewMemory(registry)
	ctx := context.Background()

	got, err := dir.Counties(ctx, "az")
	if err != nil {
		t.Fatalf("Counties failed: %v", err)
	}
	want := []adapter.County{{County: "Maricopa County", Path: "AZ/maricopa"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Counties mismatch (-want +got):\n%s", diff)
	}

	ohioCounties, _ := dir.Counties(ctx, "OH")
	if len(ohioCounties) != 6 {
		t.Errorf("Expected 6 Ohio counties, got %d", len(ohioCounties))
	}
	for i := 1; i < len(ohioCounties); i++ {
		if ohioCounties[i-1].Path >= ohioCounties[i].Path {
			t.Errorf("Expected counties ordered by path, got %v", ohioCounties)
		}
	}

	none, err := dir.Counties(ctx, "WA")
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("Expected empty non-nil list, got %#v, %v", none, err)
	}
}
