package repo_test

import (
	"context"
	"testing"

	"github.com/hamed0406/uptimatum/internal/repo"
	"github.com/hamed0406/uptimatum/internal/repo/memory"
	pg "github.com/hamed0406/uptimatum/internal/repo/postgres"
)

// Compile-time interface satisfaction checks.
// Using external test package avoids import cycle.
func TestInterfaceSatisfaction(t *testing.T) {
	var _ repo.Store = memory.New()
	var _ repo.EndpointRegistry = memory.New()

	// Postgres store types compile against the interfaces, too.
	var _ repo.Store = (*pg.Store)(nil)
	var _ repo.CheckStore = (*pg.Store)(nil)
}

func TestSeedDemo_OnlyOnEmptyStore(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	seeded, err := repo.SeedDemo(ctx, s, s)
	if err != nil || !seeded {
		t.Fatalf("want seeded, got %v err=%v", seeded, err)
	}
	active, _ := s.ListActive(ctx)
	if len(active) != 3 {
		t.Fatalf("want 3 demo endpoints, got %d", len(active))
	}

	seeded, err = repo.SeedDemo(ctx, s, s)
	if err != nil || seeded {
		t.Fatalf("second seed should be a no-op, got %v err=%v", seeded, err)
	}
}
