package neo4jdb

import (
	"encoding/json"
	"fmt"

	"github.com/leomrlima/nosql/codec"
	"github.com/leomrlima/nosql/mapping"
	"github.com/leomrlima/nosql/provider"
)

// insertStatement builds the CREATE statement for a document
func insertStatement(meta *mapping.EntityMetadata, doc codec.Document) (string, map[string]any, error) {
	props, err := flattenProps(meta, doc)
	if err != nil {
		return "", nil, err
	}
	query := fmt.Sprintf("CREATE (n:`%s`) SET n = $props", meta.Name)
	return query, map[string]any{"props": props}, nil
}

// updateStatement builds the property-replacement statement for a document
func updateStatement(meta *mapping.EntityMetadata, doc codec.Document) (string, map[string]any, error) {
	id, err := provider.DocumentID(meta, doc)
	if err != nil {
		return "", nil, err
	}
	props, err := flattenProps(meta, doc)
	if err != nil {
		return "", nil, err
	}
	idf, _ := meta.ID()
	query := fmt.Sprintf("MATCH (n:`%s`) WHERE n.`%s` = $id SET n = $props", meta.Name, idf.Column)
	return query, map[string]any{"id": id, "props": props}, nil
}

// getStatement builds the lookup statement for an identifier
func getStatement(meta *mapping.EntityMetadata, id any) (string, map[string]any, error) {
	idf, ok := meta.ID()
	if !ok {
		return "", nil, fmt.Errorf("%w: entity %s declares no identifier", provider.ErrMissingID, meta.Name)
	}
	query := fmt.Sprintf("MATCH (n:`%s`) WHERE n.`%s` = $id RETURN n LIMIT 1", meta.Name, idf.Column)
	return query, map[string]any{"id": id}, nil
}

// deleteStatement builds the removal statement for an identifier
func deleteStatement(meta *mapping.EntityMetadata, id any) (string, map[string]any, error) {
	idf, ok := meta.ID()
	if !ok {
		return "", nil, fmt.Errorf("%w: entity %s declares no identifier", provider.ErrMissingID, meta.Name)
	}
	query := fmt.Sprintf("MATCH (n:`%s`) WHERE n.`%s` = $id DETACH DELETE n", meta.Name, idf.Column)
	return query, map[string]any{"id": id}, nil
}

// flattenProps converts a document to node properties. Graph properties hold
// primitives and arrays of primitives only, so nested documents and nested
// collections are JSON-encoded to strings.
func flattenProps(meta *mapping.EntityMetadata, doc codec.Document) (map[string]any, error) {
	props := make(map[string]any, len(doc))
	for i := range meta.Fields {
		f := &meta.Fields[i]
		v, ok := doc[f.Column]
		if !ok || v == nil {
			continue
		}
		if f.Kind.IsNested() {
			payload, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("neo4j: failed to encode property %s: %w", f.Column, err)
			}
			props[f.Column] = string(payload)
			continue
		}
		props[f.Column] = v
	}
	return props, nil
}

// expandProps reverses flattenProps for properties read from a node
func expandProps(meta *mapping.EntityMetadata, props map[string]any) (codec.Document, error) {
	doc := make(codec.Document, len(props))
	for i := range meta.Fields {
		f := &meta.Fields[i]
		v, ok := props[f.Column]
		if !ok || v == nil {
			continue
		}
		if f.Kind.IsNested() {
			payload, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("neo4j: property %s holds %T, expected JSON text", f.Column, v)
			}
			var decoded any
			if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
				return nil, fmt.Errorf("neo4j: failed to decode property %s: %w", f.Column, err)
			}
			doc[f.Column] = decoded
			continue
		}
		doc[f.Column] = v
	}
	return doc, nil
}
