package pattern

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	b := NewBank()
	b.ToggleStep(0, 0, 0)
	b.ToggleStep(0, 1, 4)
	b.SetVelocity(0, 1, 4, 80)
	b.SetRowLength(0, 2, 12)
	b.ToggleStep(7, 5, 3)

	name, err := store.Save(b)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Ext(name) != ".json" {
		t.Errorf("save name %q, want .json suffix", name)
	}

	loaded := NewBank()
	if err := store.Load(loaded, name); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !reflect.DeepEqual(loaded.Snapshot(0), b.Snapshot(0)) {
		t.Error("pattern 1 did not survive the round trip")
	}
	if !reflect.DeepEqual(loaded.Snapshot(7), b.Snapshot(7)) {
		t.Error("pattern 8 did not survive the round trip")
	}
	evs := loaded.EventsForStep(4)
	if len(evs) != 1 || evs[0].Velocity != 80 {
		t.Errorf("loaded step events = %v, want one hit at velocity 80", evs)
	}
}

func TestStoreLoadNewestByDefault(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	// Two fabricated saves with distinct timestamps
	older := NewBank()
	older.ToggleStep(0, 0, 1)
	newer := NewBank()
	newer.ToggleStep(0, 0, 2)

	writeSave := func(name string, b *Bank) {
		t.Helper()
		tmp := NewStore(t.TempDir())
		saved, err := tmp.Save(b)
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		data, err := os.ReadFile(filepath.Join(tmp.Dir, saved))
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			t.Fatal(err)
		}
	}
	writeSave("2024-01-01_10-00-00.json", older)
	writeSave("2024-06-01_10-00-00.json", newer)

	saves, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(saves) != 2 {
		t.Fatalf("List returned %d saves, want 2", len(saves))
	}
	if saves[0].Filename != "2024-06-01_10-00-00.json" {
		t.Errorf("newest first: got %q", saves[0].Filename)
	}

	got := NewBank()
	if err := store.Load(got, ""); err != nil {
		t.Fatalf("Load newest: %v", err)
	}
	if evs := got.EventsForStep(2); len(evs) != 1 {
		t.Error("default Load did not pick the newest save")
	}
}

func TestStoreListEmptyDir(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "does-not-exist"))
	saves, err := store.List()
	if err != nil {
		t.Fatalf("List on missing dir: %v", err)
	}
	if len(saves) != 0 {
		t.Errorf("got %d saves from a missing dir", len(saves))
	}
}

func TestStoreLoadMissingFile(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Load(NewBank(), ""); err == nil {
		t.Error("Load with no saves should fail")
	}
	if err := store.Load(NewBank(), "nope.json"); err == nil {
		t.Error("Load of a missing file should fail")
	}
}

func TestStoreIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "random.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	saves, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(saves) != 0 {
		t.Errorf("List picked up %d foreign files", len(saves))
	}
}

func TestStoreDelete(t *testing.T) {
	store := NewStore(t.TempDir())
	name, err := store.Save(NewBank())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(name); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	saves, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(saves) != 0 {
		t.Errorf("save survived Delete")
	}
}
