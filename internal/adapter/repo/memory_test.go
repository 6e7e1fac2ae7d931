package repo

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"donasi/internal/domain"
)

func appendItem(item string) func(domain.CollectionRecord) (domain.CollectionRecord, error) {
	return func(rec domain.CollectionRecord) (domain.CollectionRecord, error) {
		var items []json.RawMessage
		if len(rec.Items) > 0 {
			if err := json.Unmarshal(rec.Items, &items); err != nil {
				return rec, err
			}
		}
		items = append(items, json.RawMessage(item))
		raw, err := json.Marshal(items)
		if err != nil {
			return rec, err
		}
		rec.Items = raw
		rec.NextID++
		return rec, nil
	}
}

func TestMemoryStoreUpdateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zerolog.Nop())

	rec, err := s.Get(ctx, domain.KeyDonations)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(rec.Items) != 0 || rec.NextID != 0 {
		t.Fatalf("expected empty record, got %+v", rec)
	}

	if err := s.Update(ctx, domain.KeyDonations, appendItem(`{"id":1}`)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	rec, _ = s.Get(ctx, domain.KeyDonations)
	if string(rec.Items) != `[{"id":1}]` || rec.NextID != 1 {
		t.Fatalf("unexpected record %s next=%d", rec.Items, rec.NextID)
	}
}

func TestMemoryStoreUpdateErrorLeavesRecord(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(zerolog.Nop())
	_ = s.Update(ctx, domain.KeyFundUsage, appendItem(`{"id":1}`))

	boom := errors.New("boom")
	err := s.Update(ctx, domain.KeyFundUsage, func(rec domain.CollectionRecord) (domain.CollectionRecord, error) {
		rec.Items = json.RawMessage(`[]`)
		return rec, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update error = %v, want boom", err)
	}
	rec, _ := s.Get(ctx, domain.KeyFundUsage)
	if string(rec.Items) != `[{"id":1}]` {
		t.Fatalf("record changed after failed update: %s", rec.Items)
	}
}

func TestSnapshotStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	fsys := afero.NewMemMapFs()

	s, err := NewSnapshotStore(fsys, zerolog.Nop(), domain.KeyDonations, domain.KeyFundUsage)
	if err != nil {
		t.Fatalf("NewSnapshotStore: %v", err)
	}
	if err := s.Update(ctx, domain.KeyFundUsage, appendItem(`{"id":1,"category":"Logistik"}`)); err != nil {
		t.Fatalf("Update: %v", err)
	}

	raw, err := afero.ReadFile(fsys, "fund-usage.json")
	if err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	if !strings.Contains(string(raw), "\n  {") {
		t.Fatalf("snapshot should be indented, got %s", raw)
	}
	seq, _ := afero.ReadFile(fsys, "fund-usage.seq")
	if string(seq) != "1" {
		t.Fatalf("sequence file = %q, want 1", seq)
	}

	reloaded, err := NewSnapshotStore(fsys, zerolog.Nop(), domain.KeyDonations, domain.KeyFundUsage)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	rec, _ := reloaded.Get(ctx, domain.KeyFundUsage)
	if rec.NextID != 1 {
		t.Fatalf("reloaded NextID = %d, want 1", rec.NextID)
	}
	var items []map[string]any
	if err := json.Unmarshal(rec.Items, &items); err != nil || len(items) != 1 {
		t.Fatalf("reloaded items = %s (%v)", rec.Items, err)
	}
}

func TestSnapshotStoreLoadsLegacyFileWithoutSequence(t *testing.T) {
	fsys := afero.NewMemMapFs()
	legacy := `[{"id":1,"name":"Budi","amount":50000}]`
	if err := afero.WriteFile(fsys, "donations.json", []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewSnapshotStore(fsys, zerolog.Nop(), domain.KeyDonations)
	if err != nil {
		t.Fatalf("NewSnapshotStore: %v", err)
	}
	rec, _ := s.Get(context.Background(), domain.KeyDonations)
	if string(rec.Items) != legacy || rec.NextID != 0 {
		t.Fatalf("unexpected record %s next=%d", rec.Items, rec.NextID)
	}
}

func TestSnapshotStoreRejectsCorruptFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	_ = afero.WriteFile(fsys, "donations.json", []byte(`[{"id":`), 0o644)
	if _, err := NewSnapshotStore(fsys, zerolog.Nop(), domain.KeyDonations); err == nil {
		t.Fatalf("expected error for corrupt snapshot")
	}
}

func TestSnapshotWriteFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	s, err := NewSnapshotStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSnapshotStore: %v", err)
	}
	if err := s.Update(ctx, domain.KeyDonations, appendItem(`{"id":1}`)); err == nil {
		t.Fatalf("expected snapshot write failure")
	}
	rec, _ := s.Get(ctx, domain.KeyDonations)
	if len(rec.Items) != 0 {
		t.Fatalf("memory updated despite failed snapshot: %s", rec.Items)
	}
}

func TestSnapshotName(t *testing.T) {
	cases := map[string]string{
		domain.KeyDonations: "donations.json",
		domain.KeyFundUsage: "fund-usage.json",
		"other":             "other.json",
	}
	for key, want := range cases {
		if got := SnapshotName(key); got != want {
			t.Fatalf("SnapshotName(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestSnapshotStoreReloadPicksUpOtherWriter(t *testing.T) {
	ctx := context.Background()
	fsys := afero.NewMemMapFs()

	reader, err := NewSnapshotStore(fsys, zerolog.Nop(), domain.KeyDonations)
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	writer, err := NewSnapshotStore(fsys, zerolog.Nop(), domain.KeyDonations)
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	if err := writer.Update(ctx, domain.KeyDonations, appendItem(`{"id":1,"name":"Budi"}`)); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if rec, _ := reader.Get(ctx, domain.KeyDonations); len(rec.Items) != 0 {
		t.Fatalf("reader saw %s before reload", rec.Items)
	}
	if err := reader.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	rec, _ := reader.Get(ctx, domain.KeyDonations)
	var items []map[string]any
	if err := json.Unmarshal(rec.Items, &items); err != nil || len(items) != 1 || rec.NextID != 1 {
		t.Fatalf("after reload items = %s next = %d (%v)", rec.Items, rec.NextID, err)
	}

	if err := NewMemoryStore(zerolog.Nop()).Reload(ctx); err != nil {
		t.Fatalf("Reload without snapshots: %v", err)
	}
}
