package registry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/twin-registry/internal/filter"
	"github.com/nerrad567/twin-registry/internal/paging"
	"github.com/nerrad567/twin-registry/internal/shell"
	"github.com/nerrad567/twin-registry/internal/storage/memory"
)

// recordingInterceptor captures events and optionally fails.
type recordingInterceptor struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recordingInterceptor) Name() string { return "recorder" }

func (r *recordingInterceptor) Intercept(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingInterceptor) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

// recordingObserver counts operations by name and result.
type recordingObserver struct {
	mu    sync.Mutex
	calls map[string]int
}

func (o *recordingObserver) ObserveOperation(op, backend string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.calls == nil {
		o.calls = make(map[string]int)
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	o.calls[op+"/"+backend+"/"+result]++
}

func (o *recordingObserver) ObservePage(backend string, items int, _ bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.calls == nil {
		o.calls = make(map[string]int)
	}
	o.calls["page/"+backend] += items
}

func newTestRegistry(t *testing.T) (*Registry, *recordingInterceptor) {
	t.Helper()
	reg := New(memory.New())
	rec := &recordingInterceptor{}
	reg.AddInterceptor(rec)
	return reg, rec
}

func TestCreateShellGeneratesID(t *testing.T) {
	reg, rec := newTestRegistry(t)
	ctx := context.Background()

	sh := &shell.Shell{IDShort: "pump"}
	if err := reg.CreateShell(ctx, sh); err != nil {
		t.Fatalf("CreateShell() error = %v", err)
	}
	if !strings.HasPrefix(sh.ID, "urn:uuid:") {
		t.Errorf("generated ID = %q, want urn:uuid prefix", sh.ID)
	}
	if sh.CreatedAt.IsZero() || !sh.CreatedAt.Equal(sh.UpdatedAt) {
		t.Errorf("timestamps = %v / %v, want equal and set", sh.CreatedAt, sh.UpdatedAt)
	}

	got, err := reg.GetShell(ctx, sh.ID)
	if err != nil {
		t.Fatalf("GetShell() error = %v", err)
	}
	if got.IDShort != "pump" {
		t.Errorf("IDShort = %q, want pump", got.IDShort)
	}
	if types := rec.types(); len(types) != 1 || types[0] != EventCreated {
		t.Errorf("events = %v, want [created]", types)
	}
}

func TestCreateShellRejectsInvalidAndDuplicate(t *testing.T) {
	reg, rec := newTestRegistry(t)
	ctx := context.Background()

	bad := &shell.Shell{ID: "x", AssetInformation: &shell.AssetInformation{AssetKind: "ROBOT"}}
	if err := reg.CreateShell(ctx, bad); !errors.Is(err, shell.ErrInvalidAssetKind) {
		t.Errorf("CreateShell(invalid kind) error = %v, want ErrInvalidAssetKind", err)
	}

	if err := reg.CreateShell(ctx, &shell.Shell{ID: "x"}); err != nil {
		t.Fatalf("CreateShell() error = %v", err)
	}
	if err := reg.CreateShell(ctx, &shell.Shell{ID: "x"}); !errors.Is(err, shell.ErrExists) {
		t.Errorf("CreateShell(duplicate) error = %v, want ErrExists", err)
	}
	if got := len(rec.types()); got != 1 {
		t.Errorf("interceptor calls = %d, want 1", got)
	}
}

func TestUpdateShell(t *testing.T) {
	reg, rec := newTestRegistry(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return base }
	if err := reg.CreateShell(ctx, &shell.Shell{ID: "x", IDShort: "old"}); err != nil {
		t.Fatalf("CreateShell() error = %v", err)
	}

	reg.now = func() time.Time { return base.Add(time.Hour) }
	if err := reg.UpdateShell(ctx, "x", &shell.Shell{IDShort: "new"}); err != nil {
		t.Fatalf("UpdateShell() error = %v", err)
	}

	got, err := reg.GetShell(ctx, "x")
	if err != nil {
		t.Fatalf("GetShell() error = %v", err)
	}
	if got.IDShort != "new" {
		t.Errorf("IDShort = %q, want new", got.IDShort)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, base)
	}
	if !got.UpdatedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, base.Add(time.Hour))
	}
	if types := rec.types(); len(types) != 2 || types[1] != EventUpdated {
		t.Errorf("events = %v, want [created updated]", types)
	}
}

func TestUpdateShellIDMismatch(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	if err := reg.CreateShell(ctx, &shell.Shell{ID: "x"}); err != nil {
		t.Fatalf("CreateShell() error = %v", err)
	}
	err := reg.UpdateShell(ctx, "x", &shell.Shell{ID: "y"})
	if !errors.Is(err, shell.ErrIDMismatch) {
		t.Errorf("UpdateShell() error = %v, want ErrIDMismatch", err)
	}
	if err := reg.UpdateShell(ctx, "missing", &shell.Shell{}); !errors.Is(err, shell.ErrNotFound) {
		t.Errorf("UpdateShell(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteAndClear(t *testing.T) {
	reg, rec := newTestRegistry(t)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		if err := reg.CreateShell(ctx, &shell.Shell{ID: id}); err != nil {
			t.Fatalf("CreateShell(%s) error = %v", id, err)
		}
	}
	if err := reg.DeleteShell(ctx, "b"); err != nil {
		t.Fatalf("DeleteShell() error = %v", err)
	}
	if err := reg.DeleteShell(ctx, "b"); !errors.Is(err, shell.ErrNotFound) {
		t.Errorf("DeleteShell(again) error = %v, want ErrNotFound", err)
	}

	removed, err := reg.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if strings.Join(removed, ",") != "a,c" {
		t.Errorf("Clear() = %v, want [a c]", removed)
	}

	rec.mu.Lock()
	last := rec.events[len(rec.events)-1]
	rec.mu.Unlock()
	if last.Type != EventCleared || len(last.RemovedIDs) != 2 {
		t.Errorf("last event = %+v, want cleared with 2 ids", last)
	}
}

func TestInterceptorFailureIsReportedAfterCommit(t *testing.T) {
	reg, rec := newTestRegistry(t)
	rec.err = errors.New("broker down")
	ctx := context.Background()

	err := reg.CreateShell(ctx, &shell.Shell{ID: "x"})
	if !errors.Is(err, ErrInterceptor) {
		t.Fatalf("CreateShell() error = %v, want ErrInterceptor", err)
	}
	if !strings.Contains(err.Error(), "broker down") {
		t.Errorf("error %q does not carry interceptor cause", err)
	}
	if _, err := reg.GetShell(ctx, "x"); err != nil {
		t.Errorf("shell not committed: %v", err)
	}
}

func TestListShells(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	kinds := map[string]shell.AssetKind{"a": shell.KindInstance, "b": shell.KindType, "c": shell.KindInstance}
	for _, id := range []string{"a", "b", "c"} {
		sh := &shell.Shell{ID: id, AssetInformation: &shell.AssetInformation{AssetKind: kinds[id]}}
		if err := reg.CreateShell(ctx, sh); err != nil {
			t.Fatalf("CreateShell(%s) error = %v", id, err)
		}
	}

	page, err := reg.ListShells(ctx, filter.Spec{AssetKind: shell.KindInstance}, paging.Info{Limit: 1})
	if err != nil {
		t.Fatalf("ListShells() error = %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "a" || page.NextCursor != "a" {
		t.Errorf("first page = %v / %q, want [a] / a", page.Items, page.NextCursor)
	}

	page, err = reg.ListShells(ctx, filter.Spec{AssetKind: shell.KindInstance}, paging.Info{Cursor: "a", Limit: 1})
	if err != nil {
		t.Fatalf("ListShells() error = %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "c" || page.NextCursor != "" {
		t.Errorf("second page = %v / %q, want [c] / \"\"", page.Items, page.NextCursor)
	}

	if _, err := reg.ListShells(ctx, filter.Spec{}, paging.Info{Limit: -1}); !errors.Is(err, paging.ErrInvalidLimit) {
		t.Errorf("ListShells(negative limit) error = %v, want ErrInvalidLimit", err)
	}
	if _, err := reg.ListShells(ctx, filter.Spec{AssetKind: "ROBOT"}, paging.Info{}); !errors.Is(err, shell.ErrInvalidAssetKind) {
		t.Errorf("ListShells(bad kind) error = %v, want ErrInvalidAssetKind", err)
	}
}

// staticLister returns a fixed page so routing can be observed.
type staticLister struct{ calls int }

func (s *staticLister) Name() string { return "static" }

func (s *staticLister) List(context.Context, filter.Spec, paging.Info) (paging.Result[*shell.Shell], error) {
	s.calls++
	return paging.Result[*shell.Shell]{Items: []*shell.Shell{{ID: "from-index"}}}, nil
}

func TestSetListerRoutesListings(t *testing.T) {
	reg, _ := newTestRegistry(t)
	idx := &staticLister{}
	reg.SetLister(idx)

	page, err := reg.ListShells(context.Background(), filter.Spec{}, paging.Info{})
	if err != nil {
		t.Fatalf("ListShells() error = %v", err)
	}
	if idx.calls != 1 || len(page.Items) != 1 || page.Items[0].ID != "from-index" {
		t.Errorf("listing not routed to lister: calls=%d items=%v", idx.calls, page.Items)
	}
}

func TestSubmodelRefs(t *testing.T) {
	reg, rec := newTestRegistry(t)
	ctx := context.Background()

	if err := reg.CreateShell(ctx, &shell.Shell{ID: "x"}); err != nil {
		t.Fatalf("CreateShell() error = %v", err)
	}
	for _, id := range []string{"sm-c", "sm-a", "sm-b"} {
		if err := reg.AddSubmodelRef(ctx, "x", shell.SubmodelRef{ID: id}); err != nil {
			t.Fatalf("AddSubmodelRef(%s) error = %v", id, err)
		}
	}
	if err := reg.AddSubmodelRef(ctx, "x", shell.SubmodelRef{ID: "sm-a"}); !errors.Is(err, shell.ErrSubmodelRefExists) {
		t.Errorf("AddSubmodelRef(duplicate) error = %v, want ErrSubmodelRefExists", err)
	}
	if err := reg.AddSubmodelRef(ctx, "x", shell.SubmodelRef{}); !errors.Is(err, shell.ErrInvalid) {
		t.Errorf("AddSubmodelRef(empty) error = %v, want ErrInvalid", err)
	}
	if err := reg.AddSubmodelRef(ctx, "missing", shell.SubmodelRef{ID: "sm"}); !errors.Is(err, shell.ErrNotFound) {
		t.Errorf("AddSubmodelRef(missing shell) error = %v, want ErrNotFound", err)
	}

	page, err := reg.ListSubmodelRefs(ctx, "x", paging.Info{Limit: 2})
	if err != nil {
		t.Fatalf("ListSubmodelRefs() error = %v", err)
	}
	if len(page.Items) != 2 || page.Items[0].ID != "sm-a" || page.Items[1].ID != "sm-b" || page.NextCursor != "sm-b" {
		t.Errorf("first page = %+v / %q", page.Items, page.NextCursor)
	}
	page, err = reg.ListSubmodelRefs(ctx, "x", paging.Info{Cursor: page.NextCursor, Limit: 2})
	if err != nil {
		t.Fatalf("ListSubmodelRefs() error = %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "sm-c" || page.NextCursor != "" {
		t.Errorf("second page = %+v / %q", page.Items, page.NextCursor)
	}

	if err := reg.RemoveSubmodelRef(ctx, "x", "sm-b"); err != nil {
		t.Fatalf("RemoveSubmodelRef() error = %v", err)
	}
	if err := reg.RemoveSubmodelRef(ctx, "x", "sm-b"); !errors.Is(err, shell.ErrSubmodelRefNotFound) {
		t.Errorf("RemoveSubmodelRef(again) error = %v, want ErrSubmodelRefNotFound", err)
	}

	got, err := reg.GetShell(ctx, "x")
	if err != nil {
		t.Fatalf("GetShell() error = %v", err)
	}
	if len(got.Submodels) != 2 || got.HasSubmodel("sm-b") {
		t.Errorf("submodels = %+v, want sm-c and sm-a", got.Submodels)
	}

	// one create, three adds, one remove
	if n := len(rec.types()); n != 5 {
		t.Errorf("interceptor calls = %d, want 5", n)
	}
}

func TestConcurrentSubmodelAdds(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	if err := reg.CreateShell(ctx, &shell.Shell{ID: "x"}); err != nil {
		t.Fatalf("CreateShell() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ref := shell.SubmodelRef{ID: "sm-" + string(rune('a'+i))}
			if err := reg.AddSubmodelRef(ctx, "x", ref); err != nil {
				t.Errorf("AddSubmodelRef(%s) error = %v", ref.ID, err)
			}
		}(i)
	}
	wg.Wait()

	got, err := reg.GetShell(ctx, "x")
	if err != nil {
		t.Fatalf("GetShell() error = %v", err)
	}
	if len(got.Submodels) != 20 {
		t.Errorf("submodels = %d, want 20", len(got.Submodels))
	}
}

func TestObserverSeesEveryOperation(t *testing.T) {
	reg, _ := newTestRegistry(t)
	obs := &recordingObserver{}
	reg.SetObserver(obs)
	ctx := context.Background()

	_ = reg.CreateShell(ctx, &shell.Shell{ID: "x"})
	_, _ = reg.GetShell(ctx, "missing")
	_, _ = reg.ListShells(ctx, filter.Spec{}, paging.Info{})

	want := map[string]int{
		"create/memory/ok": 1,
		"get/memory/error": 1,
		"list/memory/ok":   1,
	}
	for key, n := range want {
		if obs.calls[key] != n {
			t.Errorf("observer[%s] = %d, want %d (all: %v)", key, obs.calls[key], n, obs.calls)
		}
	}
}

func TestBackendAndHealth(t *testing.T) {
	reg, _ := newTestRegistry(t)
	if reg.Backend() != "memory" {
		t.Errorf("Backend() = %q, want memory", reg.Backend())
	}
	if err := reg.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestAssetKindIsCanonicalised(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	if err := reg.CreateShell(ctx, &shell.Shell{ID: "x", AssetInformation: &shell.AssetInformation{AssetKind: "instance"}}); err != nil {
		t.Fatalf("CreateShell() error = %v", err)
	}
	if err := reg.CreateShell(ctx, &shell.Shell{ID: "y", AssetInformation: &shell.AssetInformation{AssetKind: shell.KindType}}); err != nil {
		t.Fatalf("CreateShell() error = %v", err)
	}
	if err := reg.CreateShell(ctx, &shell.Shell{ID: "z"}); err != nil {
		t.Fatalf("CreateShell() error = %v", err)
	}

	got, err := reg.GetShell(ctx, "x")
	if err != nil {
		t.Fatalf("GetShell() error = %v", err)
	}
	if got.Kind() != shell.KindInstance {
		t.Errorf("stored kind = %q, want INSTANCE", got.Kind())
	}

	tests := []struct {
		kind shell.AssetKind
		want string
	}{
		{shell.KindInstance, "x"},
		{"instance", "x"},
		{" type ", "y"},
		{shell.KindNotApplicable, "z"},
	}
	for _, tt := range tests {
		page, err := reg.ListShells(ctx, filter.Spec{AssetKind: tt.kind}, paging.Info{})
		if err != nil {
			t.Fatalf("ListShells(%q) error = %v", tt.kind, err)
		}
		if len(page.Items) != 1 || page.Items[0].ID != tt.want {
			t.Errorf("ListShells(%q) = %v, want [%s]", tt.kind, page.Items, tt.want)
		}
	}

	if err := reg.UpdateShell(ctx, "z", &shell.Shell{AssetInformation: &shell.AssetInformation{AssetKind: "Type"}}); err != nil {
		t.Fatalf("UpdateShell() error = %v", err)
	}
	if got, _ := reg.GetShell(ctx, "z"); got.Kind() != shell.KindType {
		t.Errorf("updated kind = %q, want TYPE", got.Kind())
	}
}

func TestFailedWritesLeaveInputUntouched(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	bad := &shell.Shell{AssetInformation: &shell.AssetInformation{AssetKind: "ROBOT"}}
	if err := reg.CreateShell(ctx, bad); !errors.Is(err, shell.ErrInvalidAssetKind) {
		t.Fatalf("CreateShell() error = %v, want ErrInvalidAssetKind", err)
	}
	if bad.ID != "" || !bad.CreatedAt.IsZero() {
		t.Errorf("CreateShell mutated input on failure: %+v", bad)
	}

	missing := &shell.Shell{IDShort: "m"}
	if err := reg.UpdateShell(ctx, "missing", missing); !errors.Is(err, shell.ErrNotFound) {
		t.Fatalf("UpdateShell() error = %v, want ErrNotFound", err)
	}
	if missing.ID != "" || !missing.UpdatedAt.IsZero() {
		t.Errorf("UpdateShell mutated input on failure: %+v", missing)
	}

	if err := reg.CreateShell(ctx, nil); !errors.Is(err, shell.ErrInvalid) {
		t.Errorf("CreateShell(nil) error = %v, want ErrInvalid", err)
	}
}

func TestDeleteEventCarriesRemovedShell(t *testing.T) {
	reg, rec := newTestRegistry(t)
	ctx := context.Background()

	if err := reg.CreateShell(ctx, &shell.Shell{ID: "x", IDShort: "pump"}); err != nil {
		t.Fatalf("CreateShell() error = %v", err)
	}
	if err := reg.DeleteShell(ctx, "x"); err != nil {
		t.Fatalf("DeleteShell() error = %v", err)
	}

	rec.mu.Lock()
	last := rec.events[len(rec.events)-1]
	rec.mu.Unlock()
	if last.Type != EventDeleted || last.Shell == nil || last.Shell.IDShort != "pump" {
		t.Errorf("deleted event = %+v, want removed shell attached", last)
	}
}

func TestPageObservationsNameTheLister(t *testing.T) {
	reg, _ := newTestRegistry(t)
	obs := &recordingObserver{}
	reg.SetObserver(obs)
	ctx := context.Background()

	if err := reg.CreateShell(ctx, &shell.Shell{ID: "x"}); err != nil {
		t.Fatalf("CreateShell() error = %v", err)
	}
	if _, err := reg.ListShells(ctx, filter.Spec{}, paging.Info{}); err != nil {
		t.Fatalf("ListShells() error = %v", err)
	}
	reg.SetLister(&staticLister{})
	if _, err := reg.ListShells(ctx, filter.Spec{}, paging.Info{}); err != nil {
		t.Fatalf("ListShells() error = %v", err)
	}

	if obs.calls["page/memory"] != 1 || obs.calls["page/static"] != 1 {
		t.Errorf("page observations = %v, want one page each for memory and static", obs.calls)
	}
	if obs.calls["list/memory/ok"] != 2 {
		t.Errorf("list operations = %d, want 2 labelled with the primary store", obs.calls["list/memory/ok"])
	}
}
