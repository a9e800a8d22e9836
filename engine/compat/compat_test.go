package compat

import (
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

func TestPartToMap(t *testing.T) {
	m := partToMap(Part{PartNumber: "PS11752778", Name: "Door Shelf Bin", Price: 36.08})
	if m["part_number"] != "PS11752778" {
		t.Fatal("missing part_number")
	}
	if m["name"] != "Door Shelf Bin" {
		t.Fatal("missing name")
	}
	if m["price"] != 36.08 {
		t.Fatal("missing price")
	}
}

func TestPartFromProps(t *testing.T) {
	props := map[string]any{
		"part_number": "PS11756692",
		"name":        "Rack Adjuster Kit",
		"price":       44.95,
	}
	p := partFromProps(props)
	if p.PartNumber != "PS11756692" {
		t.Fatalf("expected part_number, got %s", p.PartNumber)
	}
	if p.Name != "Rack Adjuster Kit" {
		t.Fatalf("expected name, got %s", p.Name)
	}
	if p.Price != 44.95 {
		t.Fatalf("expected price, got %f", p.Price)
	}
}

func TestPartFromProps_MissingFields(t *testing.T) {
	p := partFromProps(map[string]any{"part_number": "PS11752778"})
	if p.PartNumber != "PS11752778" || p.Name != "" || p.Price != 0 {
		t.Fatalf("unexpected part: %+v", p)
	}
}

func TestPartFromRecord_EitherBinding(t *testing.T) {
	node := dbtype.Node{Props: map[string]any{"part_number": "PS11752778", "name": "Bin", "price": 36.08}}
	for _, key := range []string{"n", "p"} {
		rec := &neo4j.Record{Keys: []string{key}, Values: []any{node}}
		p, err := partFromRecord(rec)
		if err != nil {
			t.Fatalf("binding %q: %v", key, err)
		}
		if p.PartNumber != "PS11752778" {
			t.Errorf("binding %q: part = %+v", key, p)
		}
	}
}

func TestNewStore(t *testing.T) {
	// Construction needs no live Neo4j.
	if s := New(nil); s == nil || s.parts == nil {
		t.Fatal("expected wired store")
	}
}
