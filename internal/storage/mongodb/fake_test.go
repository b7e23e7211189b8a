package mongodb

import (
	"context"
	"slices"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/nerrad567/twin-registry/internal/shell"
)

// fakeCollection stores BSON documents in memory and evaluates the subset
// of aggregation stages and query operators the Store emits.
type fakeCollection struct {
	mu        sync.Mutex
	docs      map[string]bson.Raw
	pipelines []mongo.Pipeline

	aggregateErr error
	pingErr      error
}

func newFakeCollection() *fakeCollection {
	return &fakeCollection{docs: make(map[string]bson.Raw)}
}

func (f *fakeCollection) Aggregate(_ context.Context, pipeline mongo.Pipeline) ([]*shell.Shell, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pipelines = append(f.pipelines, pipeline)
	if f.aggregateErr != nil {
		return nil, f.aggregateErr
	}

	ids := make([]string, 0, len(f.docs))
	for id := range f.docs {
		ids = append(ids, id)
	}
	docs := make([]bson.Raw, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, f.docs[id])
	}

	for _, stage := range pipeline {
		op := stage[0]
		switch op.Key {
		case "$match":
			kept := docs[:0:0]
			for _, d := range docs {
				if matches(d, op.Value.(bson.D)) {
					kept = append(kept, d)
				}
			}
			docs = kept
		case "$sort":
			slices.SortFunc(docs, func(a, b bson.Raw) int {
				return strings.Compare(docID(a), docID(b))
			})
		case "$limit":
			if n := op.Value.(int); len(docs) > n {
				docs = docs[:n]
			}
		case "$project":
		default:
			panic("fakeCollection: unsupported stage " + op.Key)
		}
	}

	out := make([]*shell.Shell, 0, len(docs))
	for _, d := range docs {
		var sh shell.Shell
		if err := bson.Unmarshal(d, &sh); err != nil {
			return nil, err
		}
		out = append(out, &sh)
	}
	return out, nil
}

func (f *fakeCollection) FindByID(_ context.Context, id string) (*shell.Shell, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, ok := f.docs[id]
	if !ok {
		return nil, ErrNoDocument
	}
	var sh shell.Shell
	if err := bson.Unmarshal(raw, &sh); err != nil {
		return nil, err
	}
	return &sh, nil
}

func (f *fakeCollection) Insert(_ context.Context, s *shell.Shell) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.docs[s.ID]; ok {
		return ErrDuplicateKey
	}
	raw, err := bson.Marshal(s)
	if err != nil {
		return err
	}
	f.docs[s.ID] = raw
	return nil
}

func (f *fakeCollection) Replace(_ context.Context, id string, s *shell.Shell) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.docs[id]; !ok {
		return 0, nil
	}
	raw, err := bson.Marshal(s)
	if err != nil {
		return 0, err
	}
	f.docs[id] = raw
	return 1, nil
}

func (f *fakeCollection) Delete(_ context.Context, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.docs[id]; !ok {
		return 0, nil
	}
	delete(f.docs, id)
	return 1, nil
}

func (f *fakeCollection) DeleteAll(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = make(map[string]bson.Raw)
	return nil
}

func (f *fakeCollection) Ping(context.Context) error {
	return f.pingErr
}

func docID(d bson.Raw) string {
	return d.Lookup("_id").StringValue()
}

// matches evaluates a query document against d.
func matches(d bson.Raw, query bson.D) bool {
	for _, cond := range query {
		if cond.Key == "$and" {
			for _, clause := range cond.Value.(bson.A) {
				if !matches(d, clause.(bson.D)) {
					return false
				}
			}
			continue
		}

		val, err := d.LookupErr(strings.Split(cond.Key, ".")...)
		missing := err != nil

		switch want := cond.Value.(type) {
		case nil:
			if !missing && val.Type != bson.TypeNull {
				return false
			}
		case string:
			got, ok := val.StringValueOK()
			if missing || !ok || got != want {
				return false
			}
		case bson.D:
			if missing || !matchOperators(val, want) {
				return false
			}
		default:
			panic("fakeCollection: unsupported condition value")
		}
	}
	return true
}

func matchOperators(val bson.RawValue, ops bson.D) bool {
	for _, op := range ops {
		switch op.Key {
		case "$in":
			got, ok := val.StringValueOK()
			if !ok || !slices.Contains(op.Value.([]string), got) {
				return false
			}
		case "$gt":
			got, ok := val.StringValueOK()
			if !ok || got <= op.Value.(string) {
				return false
			}
		case "$elemMatch":
			arr, ok := val.ArrayOK()
			if !ok {
				return false
			}
			values, err := arr.Values()
			if err != nil {
				return false
			}
			found := false
			for _, v := range values {
				if elem, ok := v.DocumentOK(); ok && matches(elem, op.Value.(bson.D)) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			panic("fakeCollection: unsupported operator " + op.Key)
		}
	}
	return true
}
