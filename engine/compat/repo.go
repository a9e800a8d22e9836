package compat

import (
	"fmt"

	"github.com/PartPalAI/partpal-mvp/pkg/repo"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// newPartRepo creates a Neo4j-backed repository for Part nodes.
func newPartRepo(driver neo4j.DriverWithContext) *repo.Neo4jRepo[Part, string] {
	return repo.NewNeo4jRepo[Part, string](
		driver,
		"Part",
		partToMap,
		partFromRecord,
		repo.WithIDKey[Part, string]("part_number"),
	)
}

func partToMap(p Part) map[string]any {
	return map[string]any{
		"part_number": p.PartNumber,
		"name":        p.Name,
		"price":       p.Price,
	}
}

// partFromRecord accepts records bound as either "n" (generic repo
// queries) or "p" (the store's own cypher).
func partFromRecord(rec *neo4j.Record) (Part, error) {
	for _, key := range []string{"n", "p"} {
		if v, ok := rec.Get(key); ok {
			if node, ok := v.(dbtype.Node); ok {
				return partFromProps(node.Props), nil
			}
		}
	}
	return Part{}, fmt.Errorf("compat: no part node in record")
}

func partFromProps(props map[string]any) Part {
	p := Part{
		PartNumber: strProp(props, "part_number"),
		Name:       strProp(props, "name"),
	}
	if v, ok := props["price"].(float64); ok {
		p.Price = v
	}
	return p
}

func strProp(props map[string]any, key string) string {
	if v, ok := props[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
