package collection

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/TobiSchelling/blogpipe/internal/content"
)

func TestNewStoreBuildsEagerly(t *testing.T) {
	var calls atomic.Int32
	s, err := NewStore(context.Background(), func(ctx context.Context) (*Collection, error) {
		calls.Add(1)
		return Publish([]content.Record{rec("a", "X", "A", "", false)}, nil), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected one build, got %d", calls.Load())
	}
	if s.Current().Len() != 1 {
		t.Errorf("expected populated snapshot")
	}
}

func TestNewStoreFailsWhenFirstBuildFails(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewStore(context.Background(), func(ctx context.Context) (*Collection, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected build error, got %v", err)
	}
	if _, err := NewStore(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil build")
	}
}

func TestReloadSwapsSnapshot(t *testing.T) {
	var n atomic.Int32
	s, err := NewStore(context.Background(), func(ctx context.Context) (*Collection, error) {
		i := n.Add(1)
		records := make([]content.Record, 0, i)
		for j := int32(0); j < i; j++ {
			records = append(records, rec(string(rune('a'+j)), "X", "T", "", false))
		}
		return Publish(records, nil), nil
	})
	if err != nil {
		t.Fatal(err)
	}

	old := s.Current()
	c, err := s.Reload(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if c.Len() != 2 || s.Current() != c {
		t.Errorf("expected new snapshot with 2 records, got %d", s.Current().Len())
	}
	if old.Len() != 1 {
		t.Error("old snapshot was mutated")
	}
}

func TestReloadFailureKeepsPrevious(t *testing.T) {
	fail := false
	s, err := NewStore(context.Background(), func(ctx context.Context) (*Collection, error) {
		if fail {
			return nil, errors.New("content root vanished")
		}
		return Publish([]content.Record{rec("a", "X", "A", "", false)}, nil), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	before := s.Current()

	fail = true
	c, err := s.Reload(context.Background())
	if err == nil {
		t.Fatal("expected reload error")
	}
	if c != before || s.Current() != before {
		t.Error("failed reload replaced the snapshot")
	}
}

func TestConcurrentReloadsShareOneBuild(t *testing.T) {
	var builds atomic.Int32
	release := make(chan struct{})
	first := true

	s, err := NewStore(context.Background(), func(ctx context.Context) (*Collection, error) {
		if first {
			first = false
			return Publish(nil, nil), nil
		}
		builds.Add(1)
		<-release
		return Publish([]content.Record{rec("a", "X", "A", "", false)}, nil), nil
	})
	if err != nil {
		t.Fatal(err)
	}

	const readers = 8
	var wg sync.WaitGroup
	results := make([]*Collection, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := s.Reload(context.Background())
			if err != nil {
				t.Errorf("reload: %v", err)
			}
			results[i] = c
		}(i)
	}

	// Readers keep seeing a complete snapshot while the build is running.
	for builds.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	if s.Current().Len() != 0 {
		t.Error("snapshot changed before build finished")
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := builds.Load(); got != 1 {
		t.Errorf("expected one shared build, got %d", got)
	}
	for i, c := range results {
		if c == nil || c.Len() != 1 {
			t.Errorf("reader %d got an unexpected snapshot", i)
		}
	}
}
