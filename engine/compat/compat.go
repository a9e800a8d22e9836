// Package compat maintains the part-to-appliance-model compatibility
// graph in Neo4j. Parts and appliance models are nodes; a FITS edge
// records that a part is compatible with a model. The graph is seeded
// from catalog ingest and queried when users ask which parts fit
// their appliance.
package compat

import (
	"context"
	"fmt"

	"github.com/PartPalAI/partpal-mvp/engine/domain"
	"github.com/PartPalAI/partpal-mvp/pkg/repo"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Part is the graph projection of a catalog product.
type Part struct {
	PartNumber string  `json:"part_number"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
}

// Store owns all Neo4j operations for the compatibility graph.
type Store struct {
	driver neo4j.DriverWithContext
	parts  *repo.Neo4jRepo[Part, string]
}

// New creates a Store on top of an open driver.
func New(driver neo4j.DriverWithContext) *Store {
	return &Store{
		driver: driver,
		parts:  newPartRepo(driver),
	}
}

// GetPart returns a part node by part number.
func (s *Store) GetPart(ctx context.Context, partNumber string) (Part, error) {
	return s.parts.Get(ctx, partNumber)
}

// SavePart upserts the part node and a FITS edge to every compatible
// model, creating model nodes as needed.
func (s *Store) SavePart(ctx context.Context, p domain.Product) error {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	_, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			`MERGE (p:Part {part_number: $part_number}) SET p += $props`,
			map[string]any{
				"part_number": p.PartNumber,
				"props":       partToMap(Part{PartNumber: p.PartNumber, Name: p.Name, Price: p.Price}),
			})
		if err != nil {
			return nil, err
		}
		for _, model := range p.ModelCompatibility {
			_, err := tx.Run(ctx,
				`MERGE (m:ApplianceModel {model: $model})
				 WITH m
				 MATCH (p:Part {part_number: $part_number})
				 MERGE (p)-[:FITS]->(m)`,
				map[string]any{"model": model, "part_number": p.PartNumber})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("compat: save part %s: %w", p.PartNumber, err)
	}
	return nil
}

// CompatibleModels returns the models a part fits, in graph order.
func (s *Store) CompatibleModels(ctx context.Context, partNumber string) ([]string, error) {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	result, err := sess.Run(ctx,
		`MATCH (:Part {part_number: $part_number})-[:FITS]->(m:ApplianceModel)
		 RETURN m.model AS model`,
		map[string]any{"part_number": partNumber})
	if err != nil {
		return nil, fmt.Errorf("compat: models for %s: %w", partNumber, err)
	}

	var models []string
	for result.Next(ctx) {
		if v, ok := result.Record().Get("model"); ok {
			if m, ok := v.(string); ok {
				models = append(models, m)
			}
		}
	}
	return models, nil
}

// PartsForModel returns every part that fits the given appliance model.
func (s *Store) PartsForModel(ctx context.Context, model string) ([]Part, error) {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	result, err := sess.Run(ctx,
		`MATCH (p:Part)-[:FITS]->(:ApplianceModel {model: $model}) RETURN p`,
		map[string]any{"model": model})
	if err != nil {
		return nil, fmt.Errorf("compat: parts for %s: %w", model, err)
	}

	var parts []Part
	for result.Next(ctx) {
		p, err := partFromRecord(result.Record())
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, nil
}
