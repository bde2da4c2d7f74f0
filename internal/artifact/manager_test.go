package artifact

import (
	"bufio"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/tolmachov/mcp-telegram/internal/apperr"
	"github.com/tolmachov/mcp-telegram/internal/model"
)

func testMessages() []model.Message {
	return []model.Message{
		{ID: 1, Text: "hello"},
		{ID: 2, Text: "world"},
	}
}

func TestCreateWritesNDJSON(t *testing.T) {
	dir := t.TempDir()
	m := New(dir, time.Hour)

	art, err := m.Create(context.Background(), 42, "hash1", testMessages())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if art.MessageCount != 2 {
		t.Errorf("got MessageCount=%d, want 2", art.MessageCount)
	}
	if art.URI == "" || art.URI[:len(uriScheme)] != uriScheme {
		t.Errorf("got URI %q, want prefix %q", art.URI, uriScheme)
	}

	f, release, err := m.Read(art.URI)
	if err != nil {
		t.Fatalf("unexpected error reading artifact: %v", err)
	}
	defer release()
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var count int
	for scanner.Scan() {
		var msg model.Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			t.Fatalf("line %d did not parse as JSON: %v", count, err)
		}
		count++
	}
	if count != 2 {
		t.Errorf("got %d NDJSON lines, want 2", count)
	}
}

func TestReadUnknownURIReturnsResourceExpired(t *testing.T) {
	m := New(t.TempDir(), time.Hour)
	_, _, err := m.Read(uriScheme + "does-not-exist")
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind != apperr.KindResourceExpired {
		t.Fatalf("expected KindResourceExpired, got %v", err)
	}
}

func TestSweepRemovesExpiredUnreferenced(t *testing.T) {
	dir := t.TempDir()
	m := New(dir, time.Millisecond)

	art, err := m.Create(context.Background(), 1, "hash", testMessages())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.Sweep(art.CreatedAt.Add(time.Hour))

	if _, _, err := m.Read(art.URI); err == nil {
		t.Error("expected artifact to be gone after sweep")
	}
}

func TestSweepSparesReferencedArtifact(t *testing.T) {
	dir := t.TempDir()
	m := New(dir, time.Millisecond)

	art, err := m.Create(context.Background(), 1, "hash", testMessages())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, release, err := m.Read(art.URI)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	m.Sweep(art.CreatedAt.Add(time.Hour))

	if _, _, err := m.Read(art.URI); err != nil {
		t.Error("expected referenced artifact to survive sweep while held open")
	}

	release()
}

func TestCreateDeduplicatesConcurrentSameWindow(t *testing.T) {
	dir := t.TempDir()
	m := New(dir, time.Hour)

	const n = 8
	var uris [n]string
	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer done.Done()
			start.Wait()
			art, err := m.Create(context.Background(), 7, "same-hash", testMessages())
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			uris[i] = art.URI
		}()
	}
	start.Done()
	done.Wait()

	first := uris[0]
	for _, uri := range uris {
		if uri != first {
			t.Errorf("expected all concurrent Create calls for the same window to dedupe to one URI, got %v", uris)
			break
		}
	}
}
