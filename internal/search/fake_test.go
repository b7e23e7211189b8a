package search

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// fakeClient keeps documents in memory and evaluates the query DSL the
// index generates: match_all, bool filter/must_not, term, terms, exists
// and nested.
type fakeClient struct {
	mu       sync.Mutex
	docs     map[string]json.RawMessage
	requests []map[string]any
	mapping  string

	searchErr error
	indexErr  error
	pingErr   error
}

func newFakeClient() *fakeClient {
	return &fakeClient{docs: make(map[string]json.RawMessage)}
}

func (f *fakeClient) Ping(context.Context) error { return f.pingErr }

func (f *fakeClient) EnsureIndex(_ context.Context, _ string, mapping []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mapping = string(mapping)
	return nil
}

func (f *fakeClient) IndexDocument(_ context.Context, _, id string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indexErr != nil {
		return f.indexErr
	}
	f.docs[id] = slices.Clone(body)
	return nil
}

func (f *fakeClient) DeleteDocument(_ context.Context, _, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

func (f *fakeClient) DeleteAll(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = make(map[string]json.RawMessage)
	return nil
}

func (f *fakeClient) Search(_ context.Context, _ string, body []byte) ([]Hit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var req map[string]any
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	f.requests = append(f.requests, req)
	if f.searchErr != nil {
		return nil, f.searchErr
	}

	query, _ := req["query"].(map[string]any)
	size := 0
	if n, ok := req["size"].(float64); ok {
		size = int(n)
	}
	after := ""
	if sa, ok := req["search_after"].([]any); ok && len(sa) > 0 {
		after = fmt.Sprint(sa[0])
	}

	ids := make([]string, 0, len(f.docs))
	for id := range f.docs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var hits []Hit
	for _, id := range ids {
		if after != "" && id <= after {
			continue
		}
		var doc map[string]any
		if err := json.Unmarshal(f.docs[id], &doc); err != nil {
			return nil, err
		}
		if !evaluate(query, doc) {
			continue
		}
		hits = append(hits, Hit{ID: id, Source: f.docs[id]})
		if size > 0 && len(hits) == size {
			break
		}
	}
	return hits, nil
}

func (f *fakeClient) lastRequest() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

func evaluate(query map[string]any, doc map[string]any) bool {
	for op, arg := range query {
		body, _ := arg.(map[string]any)
		switch op {
		case "match_all":
		case "bool":
			for _, c := range asList(body["filter"]) {
				if !evaluate(c.(map[string]any), doc) {
					return false
				}
			}
			for _, c := range asList(body["must_not"]) {
				if evaluate(c.(map[string]any), doc) {
					return false
				}
			}
		case "term":
			for field, want := range body {
				if !slices.Contains(stringValues(doc, field), fmt.Sprint(want)) {
					return false
				}
			}
		case "terms":
			for field, wants := range body {
				have := stringValues(doc, field)
				found := false
				for _, w := range asList(wants) {
					if slices.Contains(have, fmt.Sprint(w)) {
						found = true
					}
				}
				if !found {
					return false
				}
			}
		case "exists":
			if len(stringValues(doc, body["field"].(string))) == 0 {
				return false
			}
		case "nested":
			path := body["path"].(string)
			inner := body["query"].(map[string]any)
			matched := false
			for _, elem := range lookup(doc, path) {
				if evaluate(inner, scoped(path, elem)) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		default:
			panic("fake search: unsupported query " + op)
		}
	}
	return true
}

func asList(v any) []any {
	list, _ := v.([]any)
	return list
}

// lookup follows a dotted path, fanning out over arrays.
func lookup(doc any, path string) []any {
	current := []any{doc}
	for _, part := range strings.Split(path, ".") {
		var next []any
		for _, c := range current {
			m, ok := c.(map[string]any)
			if !ok {
				continue
			}
			switch v := m[part].(type) {
			case nil:
			case []any:
				next = append(next, v...)
			default:
				next = append(next, v)
			}
		}
		current = next
	}
	return current
}

func stringValues(doc map[string]any, field string) []string {
	var out []string
	for _, v := range lookup(doc, field) {
		out = append(out, fmt.Sprint(v))
	}
	return out
}

// scoped builds a document holding only elem under path.
func scoped(path string, elem any) map[string]any {
	parts := strings.Split(path, ".")
	var v any = elem
	for i := len(parts) - 1; i >= 0; i-- {
		v = map[string]any{parts[i]: v}
	}
	return v.(map[string]any)
}
