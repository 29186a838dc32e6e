package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FSStore persists sessions as file pairs under one directory: <id>.json for
// the document and <id>.wav for the narration. Both are written to temporary
// names and renamed into place, the JSON last, so a session only becomes
// visible once it is complete.
type FSStore struct {
	dir string
}

// Compile-time interface assertion.
var _ Store = (*FSStore)(nil)

// NewFSStore creates the directory if needed and returns a store over it.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("session store: create dir: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) jsonPath(id string) string { return filepath.Join(s.dir, id+".json") }
func (s *FSStore) wavPath(id string) string  { return filepath.Join(s.dir, id+".wav") }

// Save implements Store.
func (s *FSStore) Save(ctx context.Context, sess *Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Audio first. A stray .wav without its .json is invisible to readers;
	// the JSON rename below is the publish point.
	if sess.HasAudio() {
		if err := writeAtomic(s.wavPath(sess.ID), sess.Audio); err != nil {
			return fmt.Errorf("session store: write audio: %w", err)
		}
	}

	doc, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session store: marshal session: %w", err)
	}
	if err := writeAtomic(s.jsonPath(sess.ID), doc); err != nil {
		return fmt.Errorf("session store: write session: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *FSStore) Load(ctx context.Context, id string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := os.ReadFile(s.jsonPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("session store: read session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(doc, &sess); err != nil {
		return nil, fmt.Errorf("session store: decode session %s: %w", id, err)
	}

	audio, err := os.ReadFile(s.wavPath(id))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Text-only session.
	case err != nil:
		return nil, fmt.Errorf("session store: read audio: %w", err)
	default:
		sess.Audio = audio
	}
	return &sess, nil
}

// Exists implements Store.
func (s *FSStore) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(s.jsonPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("session store: stat session: %w", err)
	}
	return true, nil
}

// writeAtomic writes data to path via a temp file and rename in the same
// directory.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
