package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/rackworks/gearrack/internal/rack"
	"github.com/rackworks/gearrack/internal/storage"
)

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(filepath.Join(t.TempDir(), "cache.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecentsOrderAndBump(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for _, id := range []string{"la2a", "1176", "pultec"} {
		if err := s.AddRecent(ctx, id); err != nil {
			t.Fatalf("AddRecent(%s): %v", id, err)
		}
	}
	// Re-using la2a bumps it to the front.
	if err := s.AddRecent(ctx, "la2a"); err != nil {
		t.Fatalf("AddRecent bump: %v", err)
	}

	got, err := s.RecentUnits(ctx, 10)
	if err != nil {
		t.Fatalf("RecentUnits: %v", err)
	}
	if len(got) != 3 || got[0] != "la2a" {
		t.Fatalf("unexpected recents: %v", got)
	}

	limited, err := s.RecentUnits(ctx, 2)
	if err != nil {
		t.Fatalf("RecentUnits limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limit not applied: %v", limited)
	}
}

func TestAddRecentRequiresUnitID(t *testing.T) {
	s := openStore(t)
	if err := s.AddRecent(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty unit id")
	}
}

func TestFavoriteRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	fav, err := s.IsFavorite(ctx, "la2a")
	if err != nil || fav {
		t.Fatalf("expected not favorite initially, got %v/%v", fav, err)
	}

	if err := s.SetFavorite(ctx, "la2a", true); err != nil {
		t.Fatalf("SetFavorite: %v", err)
	}
	if err := s.SetFavorite(ctx, "la2a", true); err != nil {
		t.Fatalf("SetFavorite twice must not fail: %v", err)
	}

	fav, err = s.IsFavorite(ctx, "la2a")
	if err != nil || !fav {
		t.Fatalf("expected favorite, got %v/%v", fav, err)
	}

	all, err := s.Favorites(ctx)
	if err != nil || len(all) != 1 || all[0] != "la2a" {
		t.Fatalf("unexpected favorites: %v/%v", all, err)
	}

	if err := s.SetFavorite(ctx, "la2a", false); err != nil {
		t.Fatalf("unset favorite: %v", err)
	}
	fav, _ = s.IsFavorite(ctx, "la2a")
	if fav {
		t.Fatal("expected favorite cleared")
	}
}

func TestPresetRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	snap := rack.Snapshot{Slots: []rack.SlotSnapshot{{
		Slot:         2,
		UnitID:       "la2a",
		InstanceID:   "inst-1",
		SourceUnitID: "la2a",
		Values:       []rack.ControlValue{{ControlID: "gain", Value: 42}},
	}}}

	if err := s.SavePreset(ctx, "vocal chain", snap); err != nil {
		t.Fatalf("SavePreset: %v", err)
	}

	loaded, err := s.LoadPreset(ctx, "vocal chain")
	if err != nil {
		t.Fatalf("LoadPreset: %v", err)
	}
	if len(loaded.Slots) != 1 || loaded.Slots[0].UnitID != "la2a" || loaded.Slots[0].Values[0].Value != 42 {
		t.Fatalf("unexpected snapshot: %+v", loaded)
	}

	// Overwrite under the same name.
	snap.Slots[0].Values[0].Value = 7
	if err := s.SavePreset(ctx, "vocal chain", snap); err != nil {
		t.Fatalf("SavePreset overwrite: %v", err)
	}
	loaded, _ = s.LoadPreset(ctx, "vocal chain")
	if loaded.Slots[0].Values[0].Value != 7 {
		t.Fatalf("overwrite not applied: %+v", loaded)
	}

	list, err := s.ListPresets(ctx)
	if err != nil || len(list) != 1 || list[0].Name != "vocal chain" {
		t.Fatalf("unexpected listing: %v/%v", list, err)
	}
	if list[0].ID == "" {
		t.Fatal("listing is missing the preset id")
	}

	if err := s.DeletePreset(ctx, "vocal chain"); err != nil {
		t.Fatalf("DeletePreset: %v", err)
	}
	if _, err := s.LoadPreset(ctx, "vocal chain"); !errors.Is(err, storage.ErrPresetNotFound) {
		t.Fatalf("expected ErrPresetNotFound, got %v", err)
	}
	if err := s.DeletePreset(ctx, "vocal chain"); !errors.Is(err, storage.ErrPresetNotFound) {
		t.Fatalf("expected ErrPresetNotFound on double delete, got %v", err)
	}
}

func TestPresetIDStableAcrossOverwrite(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.SavePreset(ctx, "bus chain", rack.Snapshot{}); err != nil {
		t.Fatalf("SavePreset: %v", err)
	}
	before, err := s.ListPresets(ctx)
	if err != nil || len(before) != 1 {
		t.Fatalf("listing: %v/%v", before, err)
	}

	if err := s.SavePreset(ctx, "bus chain", rack.Snapshot{}); err != nil {
		t.Fatalf("SavePreset overwrite: %v", err)
	}
	after, err := s.ListPresets(ctx)
	if err != nil || len(after) != 1 {
		t.Fatalf("listing: %v/%v", after, err)
	}

	if before[0].ID == "" || before[0].ID != after[0].ID {
		t.Fatalf("preset id changed across overwrite: %q -> %q", before[0].ID, after[0].ID)
	}
}
