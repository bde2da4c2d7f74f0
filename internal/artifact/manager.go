// Package artifact implements a process-local manager of NDJSON files
// materializing large fetch_history results, addressed by an opaque
// telegram-artifact:// URI and swept on a TTL.
package artifact

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/tolmachov/mcp-telegram/internal/apperr"
	"github.com/tolmachov/mcp-telegram/internal/model"
)

const uriScheme = "telegram-artifact://"

// Manager creates, serves, and sweeps NDJSON artifacts on disk.
type Manager struct {
	dir   string
	ttl   time.Duration
	mu    sync.Mutex
	byURI map[string]*entry
	group singleflight.Group
}

type entry struct {
	artifact model.Artifact
	path     string
	refs     int
}

// New creates a Manager rooted at dir, which must already exist. ttl is the
// lifetime given to every artifact the Manager creates.
func New(dir string, ttl time.Duration) *Manager {
	return &Manager{
		dir:   dir,
		ttl:   ttl,
		byURI: make(map[string]*entry),
	}
}

// Create writes messages as NDJSON and returns the resulting Artifact.
// Concurrent Create calls for the same (chatCanonicalID, windowHash) are
// deduplicated via singleflight so a hammered export doesn't re-materialize
// the same window twice. Create blocks until the file is fully written.
func (m *Manager) Create(ctx context.Context, chatCanonicalID int64, windowHash string, messages []model.Message) (model.Artifact, error) {
	key := fmt.Sprintf("%d:%s", chatCanonicalID, windowHash)

	v, err, _ := m.group.Do(key, func() (interface{}, error) {
		return m.writeArtifact(chatCanonicalID, windowHash, messages)
	})
	if err != nil {
		return model.Artifact{}, err
	}
	return v.(model.Artifact), nil
}

func (m *Manager) writeArtifact(chatCanonicalID int64, windowHash string, messages []model.Message) (model.Artifact, error) {
	id := uuid.NewString()
	filename := fmt.Sprintf("%d-%s-%s.ndjson", chatCanonicalID, windowHash, id)
	path := filepath.Join(m.dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return model.Artifact{}, apperr.Wrap(apperr.KindInternal, "failed to create artifact file", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, msg := range messages {
		if err := enc.Encode(msg); err != nil {
			os.Remove(path)
			return model.Artifact{}, apperr.Wrap(apperr.KindInternal, "failed to encode artifact message", err)
		}
	}
	if err := w.Flush(); err != nil {
		os.Remove(path)
		return model.Artifact{}, apperr.Wrap(apperr.KindInternal, "failed to flush artifact file", err)
	}

	info, err := f.Stat()
	if err != nil {
		os.Remove(path)
		return model.Artifact{}, apperr.Wrap(apperr.KindInternal, "failed to stat artifact file", err)
	}

	art := model.Artifact{
		URI:             uriScheme + id,
		CreatedAt:       nowFunc(),
		TTL:             m.ttl,
		ChatCanonicalID: chatCanonicalID,
		WindowHash:      windowHash,
		SizeBytes:       info.Size(),
		MessageCount:    len(messages),
	}

	m.mu.Lock()
	m.byURI[art.URI] = &entry{artifact: art, path: path}
	m.mu.Unlock()

	return art, nil
}

// Read opens the artifact named by uri for streaming, incrementing its
// reader refcount so a concurrent sweep doesn't delete it mid-read. Callers
// must call the returned release func when done.
func (m *Manager) Read(uri string) (file *os.File, release func(), err error) {
	m.mu.Lock()
	e, ok := m.byURI[uri]
	if !ok {
		m.mu.Unlock()
		return nil, nil, apperr.New(apperr.KindResourceExpired, "artifact not found or expired", uri)
	}
	e.refs++
	path := e.path
	m.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		m.mu.Lock()
		e.refs--
		m.mu.Unlock()
		return nil, nil, apperr.Wrap(apperr.KindResourceExpired, "artifact file is no longer readable", err)
	}

	release = func() {
		m.mu.Lock()
		e.refs--
		m.mu.Unlock()
	}
	return f, release, nil
}

// Sweep deletes expired, unreferenced artifacts. Run periodically from a
// ticker owned by the caller (see Run, started from internal/server).
func (m *Manager) Sweep(now time.Time) {
	m.mu.Lock()
	var paths []string
	for uri, e := range m.byURI {
		if e.refs > 0 {
			continue
		}
		if now.Sub(e.artifact.CreatedAt) >= e.artifact.TTL {
			paths = append(paths, e.path)
			delete(m.byURI, uri)
		}
	}
	m.mu.Unlock()

	for _, path := range paths {
		os.Remove(path)
	}
}

// Run starts a background goroutine sweeping every interval until ctx is
// canceled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				m.Sweep(t)
			}
		}
	}()
}

// nowFunc is a seam for deterministic artifact-creation-time tests.
var nowFunc = time.Now
