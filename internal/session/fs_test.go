package session_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/studyscroll/studyscroll/internal/deck"
	"github.com/studyscroll/studyscroll/internal/narrate"
	"github.com/studyscroll/studyscroll/internal/session"
)

func testSession(withAudio bool) *session.Session {
	nar := (*narrate.Narration)(nil)
	if withAudio {
		nar = &narrate.Narration{
			Audio:    []byte("RIFF-not-really-but-opaque-here"),
			Duration: 42 * time.Second,
			Alignment: narrate.Alignment{
				{Order: 0, Start: 1.5, End: 20},
				{Order: 1, Start: 20, End: 42},
			},
		}
	}
	cards := deck.Sequence{
		{Type: deck.TypeConcept, Title: "What is entropy", Body: "Disorder, roughly.", Order: 0},
		{Type: deck.TypeSummary, Title: "In short", Body: "It only goes up.", Order: 1},
	}
	return session.New("entropy", cards, nar)
}

func TestFSStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := session.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}

	want := testSession(true)
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx, want.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.ID != want.ID || got.Topic != want.Topic {
		t.Errorf("Load() = {%s %s}, want {%s %s}", got.ID, got.Topic, want.ID, want.Topic)
	}
	if len(got.Cards) != len(want.Cards) {
		t.Fatalf("len(Cards) = %d, want %d", len(got.Cards), len(want.Cards))
	}
	if got.Cards[0].Title != want.Cards[0].Title {
		t.Errorf("Cards[0].Title = %q, want %q", got.Cards[0].Title, want.Cards[0].Title)
	}
	if len(got.Alignment) != 2 {
		t.Fatalf("len(Alignment) = %d, want 2", len(got.Alignment))
	}
	if got.Alignment[1].End != 42 {
		t.Errorf("Alignment[1].End = %v, want 42", got.Alignment[1].End)
	}
	if string(got.Audio) != string(want.Audio) {
		t.Errorf("Audio mismatch: got %d bytes, want %d", len(got.Audio), len(want.Audio))
	}
}

func TestFSStoreTextOnlySession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := session.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}

	want := testSession(false)
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx, want.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.HasAudio() {
		t.Error("HasAudio() = true, want false for text-only session")
	}
	if len(got.Alignment) != 0 {
		t.Errorf("Alignment = %v, want empty", got.Alignment)
	}
}

func TestFSStoreNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := session.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}

	if _, err := store.Load(ctx, "nope"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Load(unknown) = %v, want ErrNotFound", err)
	}
	ok, err := store.Exists(ctx, "nope")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if ok {
		t.Error("Exists(unknown) = true, want false")
	}
}

func TestFSStoreExists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := session.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}

	s := testSession(true)
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	ok, err := store.Exists(ctx, s.ID)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !ok {
		t.Error("Exists() = false, want true")
	}
}

func TestFSStoreLeavesNoTempFiles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := t.TempDir()
	store, err := session.NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}
	if err := store.Save(ctx, testSession(true)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("leftover temp file %s", filepath.Join(dir, e.Name()))
		}
	}
	if len(entries) != 2 {
		t.Errorf("session dir has %d entries, want 2 (json + wav)", len(entries))
	}
}

func TestSessionIDsAreDistinct(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := session.NewID()
		if id == "" {
			t.Fatal("NewID() returned empty id")
		}
		if seen[id] {
			t.Fatalf("NewID() repeated id %s", id)
		}
		seen[id] = true
	}
}

func TestFSStoreAudioAloneIsInvisible(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := t.TempDir()
	store, err := session.NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}

	// A crash between the audio rename and the JSON rename leaves a lone
	// .wav; that must not surface as a session.
	id := session.NewID()
	if err := os.WriteFile(filepath.Join(dir, id+".wav"), []byte("audio"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := store.Load(ctx, id); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Load() = %v, want ErrNotFound for orphaned audio", err)
	}
	ok, err := store.Exists(ctx, id)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if ok {
		t.Error("Exists() = true, want false for orphaned audio")
	}
}
