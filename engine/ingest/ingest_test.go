package ingest

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/PartPalAI/partpal-mvp/engine/retrieval"
	"github.com/PartPalAI/partpal-mvp/engine/semantic"
)

func newDeps() Deps {
	emb := semantic.NewHashingEmbedder(semantic.DefaultDimension)
	return Deps{Retrieval: retrieval.New(emb, semantic.NewFlatIndex(emb.Dimension()), nil)}
}

func TestToProduct(t *testing.T) {
	rec := CatalogRecord{
		PartNumber:         " ps11752778 ",
		Name:               " Door Shelf Bin ",
		Price:              36.08,
		Description:        "Replacement bin",
		ModelCompatibility: "WRS325SDHZ, WRS315SDHM\nWRS588FIHZ",
		RepairStories: []RepairStoryRecord{
			{Title: "Cracked bin", Symptoms: "items falling", Solution: "replaced bin"},
		},
	}
	p := ToProduct(rec)
	if p.PartNumber != "PS11752778" {
		t.Errorf("PartNumber = %q, want canonical upper case", p.PartNumber)
	}
	if p.Name != "Door Shelf Bin" {
		t.Errorf("Name = %q", p.Name)
	}
	wantModels := []string{"WRS325SDHZ", "WRS315SDHM", "WRS588FIHZ"}
	if !reflect.DeepEqual(p.ModelCompatibility, wantModels) {
		t.Errorf("ModelCompatibility = %v, want %v", p.ModelCompatibility, wantModels)
	}
	if len(p.RepairStories) != 1 || p.RepairStories[0].Title != "Cracked bin" {
		t.Errorf("RepairStories = %+v", p.RepairStories)
	}
}

func TestToProduct_EmptyCompat(t *testing.T) {
	p := ToProduct(CatalogRecord{PartNumber: "PS11752778", Name: "Bin", ModelCompatibility: "  "})
	if p.ModelCompatibility != nil {
		t.Errorf("expected nil compatibility, got %v", p.ModelCompatibility)
	}
}

func TestLoadFile_MissingIsEmpty(t *testing.T) {
	records := LoadFile(filepath.Join(t.TempDir(), "nope.json"), nil)
	if len(records) != 0 {
		t.Errorf("expected empty catalog, got %d records", len(records))
	}
}

func TestLoadFile_MalformedIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if records := LoadFile(path, nil); len(records) != 0 {
		t.Errorf("expected empty catalog, got %d records", len(records))
	}
}

func TestLoadFile_ReadsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	payload := `[
		{"part_number": "PS11752778", "name": "Door Shelf Bin", "price": 36.08},
		{"part_number": "PS11756692", "name": "Rack Adjuster Kit", "price": 44.95}
	]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}
	records := LoadFile(path, nil)
	if len(records) != 2 || records[0].PartNumber != "PS11752778" {
		t.Errorf("records = %+v", records)
	}
}

func TestLoadFile_ReadsWrappedRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	payload := `{"products": [
		{"part_number": "PS11752778", "name": "Door Shelf Bin", "price": 36.08}
	]}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}
	records := LoadFile(path, nil)
	if len(records) != 1 || records[0].PartNumber != "PS11752778" {
		t.Errorf("records = %+v", records)
	}
}

func TestBulkLoad_SkipsBadRecords(t *testing.T) {
	deps := newDeps()
	records := []CatalogRecord{
		{PartNumber: "PS11752778", Name: "Door Shelf Bin", Price: 36.08},
		{PartNumber: "BAD", Name: "Nameless", Price: 1},
		{PartNumber: "PS11756692", Name: "Rack Adjuster Kit", Price: 44.95},
	}
	loaded := BulkLoad(context.Background(), records, deps)
	if loaded != 2 {
		t.Errorf("loaded = %d, want 2", loaded)
	}
	if deps.Retrieval.Count() != 2 {
		t.Errorf("engine holds %d products, want 2", deps.Retrieval.Count())
	}
	if _, ok := deps.Retrieval.LookupExact("PS11756692"); !ok {
		t.Error("good record after a bad one must still be indexed")
	}
}

func TestBulkLoad_EmptyCatalogStaysQueryable(t *testing.T) {
	deps := newDeps()
	if loaded := BulkLoad(context.Background(), nil, deps); loaded != 0 {
		t.Errorf("loaded = %d", loaded)
	}
	got, err := deps.Retrieval.Search(context.Background(), "anything", 5)
	if err != nil || len(got) != 0 {
		t.Errorf("empty engine must answer with no results, got %v, %v", got, err)
	}
}
