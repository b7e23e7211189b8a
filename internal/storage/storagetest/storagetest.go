// Package storagetest holds a behavioural suite shared by every
// storage.Storage implementation, plus the fixture shells it runs against.
package storagetest

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/twin-registry/internal/filter"
	"github.com/nerrad567/twin-registry/internal/paging"
	"github.com/nerrad567/twin-registry/internal/shell"
	"github.com/nerrad567/twin-registry/internal/storage"
)

var fixtureTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Fixtures returns a fresh set of shells covering every filter dimension.
func Fixtures() []*shell.Shell {
	mk := func(id, idShort string, info *shell.AssetInformation) *shell.Shell {
		return &shell.Shell{ID: id, IDShort: idShort, AssetInformation: info, CreatedAt: fixtureTime, UpdatedAt: fixtureTime}
	}
	return []*shell.Shell{
		mk("a", "pump", nil),
		mk("b", "pump", &shell.AssetInformation{
			AssetKind: shell.KindInstance,
			AssetType: "type1",
			SpecificAssetIDs: []shell.SpecificAssetID{
				{Name: "assetType", Value: "type1"},
				{Name: "manufacturer", Value: "companyX"},
			},
		}),
		mk("c", "valve", &shell.AssetInformation{AssetKind: shell.KindType, AssetType: "type1"}),
		mk("d", "", &shell.AssetInformation{
			AssetKind:        shell.KindType,
			AssetType:        "type2",
			SpecificAssetIDs: []shell.SpecificAssetID{{Name: "assetType", Value: "type1"}},
		}),
		mk("e", "motor", &shell.AssetInformation{GlobalAssetID: "urn:asset:e"}),
		mk("f", "motor", &shell.AssetInformation{
			AssetKind: shell.KindInstance,
			SpecificAssetIDs: []shell.SpecificAssetID{
				{Name: "manufacturer", Value: "companyX"},
				{Name: "serial", Value: "42"},
			},
		}),
	}
}

// Specs returns filters whose expected results are derived from
// filter.Apply over Fixtures.
func Specs() map[string]filter.Spec {
	return map[string]filter.Spec{
		"empty":          {},
		"ids":            {IDs: []string{"a", "c", "f", "missing"}},
		"idShort":        {IDShort: "motor"},
		"blank idShort":  {IDShort: " "},
		"instance":       {AssetKind: shell.KindInstance},
		"not applicable": {AssetKind: shell.KindNotApplicable},
		"type":           {AssetKind: shell.KindType},
		"type+assetType": {AssetKind: shell.KindType, AssetType: "type1"},
		"specific subset": {SpecificAssetIDs: []shell.SpecificAssetID{
			{Name: "assetType", Value: "type1"},
		}},
		"specific all": {SpecificAssetIDs: []shell.SpecificAssetID{
			{Name: "manufacturer", Value: "companyX"},
			{Name: "serial", Value: "42"},
		}},
		"specific crossed": {SpecificAssetIDs: []shell.SpecificAssetID{
			{Name: "manufacturer", Value: "42"},
		}},
		"unrecognised kind": {AssetKind: "instance"},
		"combined": {IDs: []string{"b", "f"}, IDShort: "pump", AssetKind: shell.KindInstance},
	}
}

// Expected returns the IDs filter.Apply selects from Fixtures.
func Expected(spec filter.Spec) []string {
	return IDs(filter.Apply(spec, Fixtures()))
}

// IDs extracts shell IDs in order.
func IDs(items []*shell.Shell) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		out = append(out, s.ID)
	}
	return out
}

// Seed inserts every fixture into store.
func Seed(t *testing.T, store storage.Storage) {
	t.Helper()
	for _, s := range Fixtures() {
		if err := store.Insert(context.Background(), s); err != nil {
			t.Fatalf("Insert(%s): %v", s.ID, err)
		}
	}
}

// Collect follows cursors until the last page and returns every item.
func Collect(t *testing.T, lister storage.Lister, spec filter.Spec, limit int) []string {
	t.Helper()
	var all []string
	cursor := ""
	for pages := 0; ; pages++ {
		if pages > 100 {
			t.Fatal("pagination did not terminate")
		}
		page, err := lister.List(context.Background(), spec, paging.Info{Cursor: cursor, Limit: limit})
		if err != nil {
			t.Fatalf("List(cursor=%q): %v", cursor, err)
		}
		for _, s := range page.Items {
			if s.ID == cursor {
				t.Fatalf("cursor %q returned again", cursor)
			}
		}
		all = append(all, IDs(page.Items)...)
		if !page.HasMore() {
			return all
		}
		cursor = page.NextCursor
	}
}

// Run exercises newStore against the shared behaviour every backend must
// provide. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Storage) {
	t.Run("InsertGet", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		s := Fixtures()[1]

		if err := store.Insert(ctx, s); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if err := store.Insert(ctx, s); !errors.Is(err, shell.ErrExists) {
			t.Fatalf("duplicate Insert error = %v, want ErrExists", err)
		}

		got, err := store.Get(ctx, "b")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.IDShort != "pump" || got.Kind() != shell.KindInstance || len(got.SpecificAssetIDs()) != 2 {
			t.Errorf("Get returned %+v", got)
		}

		got.IDShort = "mutated"
		again, err := store.Get(ctx, "b")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if again.IDShort != "pump" {
			t.Error("mutating a returned shell changed stored state")
		}

		if _, err := store.Get(ctx, "missing"); !errors.Is(err, shell.ErrNotFound) {
			t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("UpdateDelete", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		Seed(t, store)

		upd := Fixtures()[0]
		upd.IDShort = "renamed"
		upd.AssetInformation = &shell.AssetInformation{AssetKind: shell.KindType, AssetType: "t9"}
		if err := store.Update(ctx, "a", upd); err != nil {
			t.Fatalf("Update: %v", err)
		}
		got, err := store.Get(ctx, "a")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.IDShort != "renamed" || got.AssetType() != "t9" {
			t.Errorf("Update not applied: %+v", got)
		}

		if err := store.Update(ctx, "zz", &shell.Shell{ID: "zz"}); !errors.Is(err, shell.ErrNotFound) {
			t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
		}
		if err := store.Update(ctx, "a", &shell.Shell{ID: "b"}); !errors.Is(err, shell.ErrIDMismatch) {
			t.Errorf("Update(mismatch) error = %v, want ErrIDMismatch", err)
		}

		if err := store.Delete(ctx, "a"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if err := store.Delete(ctx, "a"); !errors.Is(err, shell.ErrNotFound) {
			t.Errorf("second Delete error = %v, want ErrNotFound", err)
		}
	})

	t.Run("Pagination", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		for _, id := range []string{"d", "b", "e", "a", "c"} {
			if err := store.Insert(ctx, &shell.Shell{ID: id}); err != nil {
				t.Fatalf("Insert(%s): %v", id, err)
			}
		}

		pages := []struct {
			cursor   string
			want     string
			wantNext string
		}{
			{"", "a,b", "b"},
			{"b", "c,d", "d"},
			{"d", "e", ""},
		}
		for _, p := range pages {
			page, err := store.List(ctx, filter.Spec{}, paging.Info{Cursor: p.cursor, Limit: 2})
			if err != nil {
				t.Fatalf("List(%q): %v", p.cursor, err)
			}
			if got := strings.Join(IDs(page.Items), ","); got != p.want {
				t.Errorf("cursor %q: items = %s, want %s", p.cursor, got, p.want)
			}
			if page.NextCursor != p.wantNext {
				t.Errorf("cursor %q: next = %q, want %q", p.cursor, page.NextCursor, p.wantNext)
			}
		}

		for limit := 1; limit <= 6; limit++ {
			if got := strings.Join(Collect(t, store, filter.Spec{}, limit), ""); got != "abcde" {
				t.Errorf("limit %d: collected %s", limit, got)
			}
		}

		if err := store.Delete(ctx, "b"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		page, err := store.List(ctx, filter.Spec{}, paging.Info{Cursor: "b", Limit: 2})
		if err != nil {
			t.Fatalf("List after delete: %v", err)
		}
		if got := strings.Join(IDs(page.Items), ","); got != "c,d" {
			t.Errorf("stale cursor page = %s, want c,d", got)
		}

		if _, err := store.List(ctx, filter.Spec{}, paging.Info{Limit: -1}); !errors.Is(err, paging.ErrInvalidLimit) {
			t.Errorf("negative limit error = %v, want ErrInvalidLimit", err)
		}
	})

	t.Run("FilterEquivalence", func(t *testing.T) {
		store := newStore(t)
		Seed(t, store)

		for name, spec := range Specs() {
			want := Expected(spec)
			got := Collect(t, store, spec, 0)
			if !slices.Equal(got, want) {
				t.Errorf("%s: unbounded = %v, want %v", name, got, want)
			}
			paged := Collect(t, store, spec, 1)
			if !slices.Equal(paged, want) {
				t.Errorf("%s: paged = %v, want %v", name, paged, want)
			}
		}
	})

	t.Run("Clear", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		Seed(t, store)

		removed, err := store.Clear(ctx)
		if err != nil {
			t.Fatalf("Clear: %v", err)
		}
		if got := strings.Join(removed, ""); got != "abcdef" {
			t.Errorf("Clear removed %v", removed)
		}
		page, err := store.List(ctx, filter.Spec{}, paging.Info{})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(page.Items) != 0 || page.HasMore() {
			t.Errorf("store not empty after Clear: %+v", page)
		}
	})
}
