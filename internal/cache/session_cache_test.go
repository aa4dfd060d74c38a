package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tutorium/tutorium-backend/internal/model"
)

func newRecord(id string) *model.SessionRecord {
	return &model.SessionRecord{
		SessionID:        id,
		TestID:           uuid.New(),
		UserID:           "user-1",
		StartTime:        time.Now(),
		TimeLimitMinutes: 30,
		IsAdminTest:      true,
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	c := NewSessionCache()
	rec := newRecord("s1")

	if err := c.Put("s1", rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := c.Get("s1")
	if !ok {
		t.Fatal("Get returned absent for a cached id")
	}
	if got != rec {
		t.Errorf("Get returned a different record: got %+v want %+v", got, rec)
	}
}

func TestPutDuplicateFails(t *testing.T) {
	c := NewSessionCache()
	if err := c.Put("s1", newRecord("s1")); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}

	err := c.Put("s1", newRecord("s1"))
	if !errors.Is(err, ErrDuplicateSession) {
		t.Errorf("duplicate Put: got %v, want ErrDuplicateSession", err)
	}
}

func TestDeleteMakesAbsent(t *testing.T) {
	c := NewSessionCache()
	if err := c.Put("s1", newRecord("s1")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	c.Delete("s1")

	if _, ok := c.Get("s1"); ok {
		t.Error("Get returned a record after Delete")
	}

	// Deleting again must be a no-op.
	c.Delete("s1")
}

func TestKeysSnapshot(t *testing.T) {
	c := NewSessionCache()
	want := map[string]bool{"a": true, "b": true, "c": true}
	for id := range want {
		if err := c.Put(id, newRecord(id)); err != nil {
			t.Fatalf("Put %s failed: %v", id, err)
		}
	}

	keys := c.Keys()
	if len(keys) != len(want) {
		t.Fatalf("Keys returned %d ids, want %d", len(keys), len(want))
	}
	for _, k := range keys {
		if !want[k] {
			t.Errorf("unexpected key %q in snapshot", k)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := NewSessionCache()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("session-%d", n)
			if err := c.Put(id, newRecord(id)); err != nil {
				t.Errorf("Put %s: %v", id, err)
				return
			}
			if _, ok := c.Get(id); !ok {
				t.Errorf("Get %s: absent after Put", id)
			}
			_ = c.Keys()
			if n%2 == 0 {
				c.Delete(id)
			}
		}(i)
	}
	wg.Wait()

	if c.Len() != 25 {
		t.Errorf("Len after concurrent churn = %d, want 25", c.Len())
	}
}
