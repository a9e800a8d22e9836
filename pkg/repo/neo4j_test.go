package repo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type testPart struct {
	Number string
	Name   string
}

// fakeResult replays canned records.
type fakeResult struct {
	records []*neo4j.Record
	pos     int
}

func (r *fakeResult) Next(context.Context) bool {
	if r.pos >= len(r.records) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeResult) Record() *neo4j.Record { return r.records[r.pos-1] }

// fakeRunner records the last query and returns canned results.
type fakeRunner struct {
	cypher  string
	params  map[string]any
	records []*neo4j.Record
	closed  bool
}

func (f *fakeRunner) Run(_ context.Context, cypher string, params map[string]any) (rows, error) {
	f.cypher = cypher
	f.params = params
	return &fakeResult{records: f.records}, nil
}

func (f *fakeRunner) Close(context.Context) error {
	f.closed = true
	return nil
}

func partRecord(number, name string) *neo4j.Record {
	return &neo4j.Record{
		Keys:   []string{"n"},
		Values: []any{map[string]any{"part_number": number, "name": name}},
	}
}

func newTestRepo(f *fakeRunner) *Neo4jRepo[testPart, string] {
	r := NewNeo4jRepo[testPart, string](
		nil,
		"Part",
		func(p testPart) map[string]any {
			return map[string]any{"part_number": p.Number, "name": p.Name}
		},
		func(rec *neo4j.Record) (testPart, error) {
			props := rec.Values[0].(map[string]any)
			return testPart{
				Number: props["part_number"].(string),
				Name:   props["name"].(string),
			}, nil
		},
		WithIDKey[testPart, string]("part_number"),
	)
	r.newSession = func(context.Context) runner { return f }
	return r
}

func TestGetMatchesByIDKey(t *testing.T) {
	f := &fakeRunner{records: []*neo4j.Record{partRecord("PS11752778", "Ice Maker Assembly")}}
	r := newTestRepo(f)

	p, err := r.Get(context.Background(), "PS11752778")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Name != "Ice Maker Assembly" {
		t.Errorf("name = %q", p.Name)
	}
	if !strings.Contains(f.cypher, "MATCH (n:Part {part_number: $id})") {
		t.Errorf("cypher = %q", f.cypher)
	}
	if f.params["id"] != "PS11752778" {
		t.Errorf("params = %v", f.params)
	}
	if !f.closed {
		t.Error("session left open")
	}
}

func TestGetNotFound(t *testing.T) {
	r := newTestRepo(&fakeRunner{})
	if _, err := r.Get(context.Background(), "PS00000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListDefaultsLimit(t *testing.T) {
	f := &fakeRunner{records: []*neo4j.Record{
		partRecord("PS11752778", "Ice Maker Assembly"),
		partRecord("PS733947", "Door Shelf Bin"),
	}}
	r := newTestRepo(f)

	items, err := r.List(context.Background(), ListOpts{Offset: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d", len(items))
	}
	if f.params["limit"] != 100 || f.params["offset"] != 10 {
		t.Errorf("params = %v", f.params)
	}
}

func TestCreatePassesProps(t *testing.T) {
	f := &fakeRunner{records: []*neo4j.Record{partRecord("PS733947", "Door Shelf Bin")}}
	r := newTestRepo(f)

	p, err := r.Create(context.Background(), testPart{Number: "PS733947", Name: "Door Shelf Bin"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Number != "PS733947" {
		t.Errorf("number = %q", p.Number)
	}
	props := f.params["props"].(map[string]any)
	if props["part_number"] != "PS733947" {
		t.Errorf("props = %v", props)
	}
	if !strings.Contains(f.cypher, "CREATE (n:Part $props)") {
		t.Errorf("cypher = %q", f.cypher)
	}
}

func TestUpdateUsesIDFromProps(t *testing.T) {
	f := &fakeRunner{records: []*neo4j.Record{partRecord("PS733947", "Renamed Bin")}}
	r := newTestRepo(f)

	p, err := r.Update(context.Background(), testPart{Number: "PS733947", Name: "Renamed Bin"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if p.Name != "Renamed Bin" {
		t.Errorf("name = %q", p.Name)
	}
	if f.params["id"] != "PS733947" {
		t.Errorf("params = %v", f.params)
	}
	if !strings.Contains(f.cypher, "SET n += $props") {
		t.Errorf("cypher = %q", f.cypher)
	}
}

func TestDelete(t *testing.T) {
	f := &fakeRunner{}
	r := newTestRepo(f)

	if err := r.Delete(context.Background(), "PS733947"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !strings.Contains(f.cypher, "DELETE n") {
		t.Errorf("cypher = %q", f.cypher)
	}
}

func TestWithIDKeyDefault(t *testing.T) {
	r := NewNeo4jRepo[testPart, string](nil, "Part", nil, nil)
	if r.idKey != "id" {
		t.Fatalf("default idKey = %q", r.idKey)
	}
}
