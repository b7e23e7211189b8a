package memory

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/twin-registry/internal/shell"
)

type item struct{ k string }

func itemKey(i item) string { return i.k }

// consistent reports whether the sorted index and lookup map hold the same keys.
func (ix *Index[T]) consistent() bool {
	if ix.sorted.Len() != len(ix.lookup) {
		return false
	}
	ok := true
	ix.sorted.Ascend(func(k string) bool {
		if _, found := ix.lookup[k]; !found {
			ok = false
		}
		return ok
	})
	return ok
}

func TestIndexAscendAfter(t *testing.T) {
	g := NewGuard(itemKey)
	if err := g.Write(func(ix *Index[item]) error {
		for _, k := range []string{"c", "a", "e", "b", "d"} {
			ix.Put(item{k})
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	collect := func(after string) string {
		var out string
		g.Read(func(v View[item]) {
			v.AscendAfter(after, func(i item) bool {
				out += i.k
				return true
			})
		})
		return out
	}

	if got := collect(""); got != "abcde" {
		t.Errorf("AscendAfter(\"\") = %s", got)
	}
	if got := collect("b"); got != "cde" {
		t.Errorf("AscendAfter(b) = %s", got)
	}
	if got := collect("bb"); got != "cde" {
		t.Errorf("AscendAfter(bb) = %s", got)
	}
	if got := collect("e"); got != "" {
		t.Errorf("AscendAfter(e) = %s", got)
	}
}

func TestGuardWriteErrorPropagates(t *testing.T) {
	g := NewGuard(itemKey)
	sentinel := errors.New("boom")
	if err := g.Write(func(*Index[item]) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Errorf("Write() error = %v, want sentinel", err)
	}
}

func TestGuardClearEmptiesBothIndexes(t *testing.T) {
	g := NewGuard(itemKey)
	_ = g.Write(func(ix *Index[item]) error {
		ix.Put(item{"b"})
		ix.Put(item{"a"})
		return nil
	})

	removed := g.Clear()
	if len(removed) != 2 || removed[0] != "a" || removed[1] != "b" {
		t.Errorf("Clear() = %v", removed)
	}
	g.Read(func(v View[item]) {
		if v.Len() != 0 {
			t.Errorf("Len() after Clear = %d", v.Len())
		}
	})
	if !g.index.consistent() || g.index.sorted.Len() != 0 {
		t.Error("indexes disagree after Clear")
	}
}

func TestGuardConcurrentReadersWithWriter(t *testing.T) {
	s := New()
	ctx := context.Background()
	const readers = 16
	const inserts = 200

	var mismatches atomic.Int64
	done := make(chan struct{})

	var g errgroup.Group
	for r := 0; r < readers; r++ {
		g.Go(func() error {
			for {
				select {
				case <-done:
					return nil
				default:
				}
				s.guard.Read(func(v View[*shell.Shell]) {
					ix := v.(*Index[*shell.Shell])
					if !ix.consistent() {
						mismatches.Add(1)
					}
				})
			}
		})
	}

	for i := 0; i < inserts; i++ {
		id := fmt.Sprintf("shell-%04d", i)
		if err := s.Insert(ctx, &shell.Shell{ID: id}); err != nil {
			t.Fatalf("Insert(%s): %v", id, err)
		}
		got, err := s.Get(ctx, id)
		if err != nil || got.ID != id {
			t.Fatalf("read after completed write missed %s: %v", id, err)
		}
		if i%50 == 0 {
			s.Clear(ctx) //nolint:errcheck // memory Clear never fails
		}
	}
	close(done)

	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if n := mismatches.Load(); n != 0 {
		t.Errorf("readers observed %d index mismatches", n)
	}
}
