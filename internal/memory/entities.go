package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Entity is a tracked person, project, company, tool, or similar, identified
// by (name, entity_type). Attributes preserve insertion order so that an
// entity round-trips through export without reshuffling.
type Entity struct {
	ID          string                                `json:"id"`
	Name        string                                `json:"name"`
	EntityType  string                                `json:"entity_type"`
	Attributes  *orderedmap.OrderedMap[string, any]   `json:"attributes"`
	FirstSeen   string                                `json:"first_seen"`
	LastUpdated string                                `json:"last_updated"`
	FactIDs     []string                              `json:"fact_ids"`
}

const entityColumns = `id, name, entity_type, attributes, first_seen, last_updated, fact_ids`

// TrackEntity creates or refreshes an entity. If an entity with the same
// name and type already exists its attributes are replaced wholesale and
// its last_updated bumped; use UpdateEntity to merge instead. Returns the
// entity's id, which is stable across repeated tracking.
func (s *Store) TrackEntity(name, entityType string, attributes *orderedmap.OrderedMap[string, any]) (string, error) {
	if attributes == nil {
		attributes = orderedmap.New[string, any]()
	}
	attrs, err := json.Marshal(attributes)
	if err != nil {
		return "", fmt.Errorf("track entity: encode attributes: %w", err)
	}
	now := Now()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("track entity: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing string
	err = tx.QueryRow(
		`SELECT id FROM entities WHERE name = ? AND entity_type = ?`,
		name, entityType,
	).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		id := newID(entityType + ":" + name)
		if _, err := tx.Exec(
			`INSERT INTO entities (id, name, entity_type, attributes, first_seen, last_updated, fact_ids)
			 VALUES (?, ?, ?, ?, ?, ?, '[]')`,
			id, name, entityType, string(attrs), now, now,
		); err != nil {
			return "", fmt.Errorf("track entity: insert: %w", err)
		}
		existing = id
	case err != nil:
		return "", fmt.Errorf("track entity: %w", err)
	default:
		if _, err := tx.Exec(
			`UPDATE entities SET attributes = ?, last_updated = ? WHERE id = ?`,
			string(attrs), now, existing,
		); err != nil {
			return "", fmt.Errorf("track entity: update: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("track entity: commit: %w", err)
	}
	return existing, nil
}

// UpdateEntity merges attributes into an existing entity: incoming keys
// overwrite existing ones, keys not mentioned are kept. Returns the updated
// entity, or (nil, nil) when no entity matches name and type.
func (s *Store) UpdateEntity(name, entityType string, attributes *orderedmap.OrderedMap[string, any]) (*Entity, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("update entity: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id, rawAttrs string
	err = tx.QueryRow(
		`SELECT id, attributes FROM entities WHERE name = ? AND entity_type = ?`,
		name, entityType,
	).Scan(&id, &rawAttrs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update entity: %w", err)
	}

	merged, err := decodeAttributes(rawAttrs)
	if err != nil {
		return nil, fmt.Errorf("update entity: %w", err)
	}
	if attributes != nil {
		for pair := attributes.Oldest(); pair != nil; pair = pair.Next() {
			merged.Set(pair.Key, pair.Value)
		}
	}
	attrs, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("update entity: encode attributes: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE entities SET attributes = ?, last_updated = ? WHERE id = ?`,
		string(attrs), Now(), id,
	); err != nil {
		return nil, fmt.Errorf("update entity: write: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update entity: commit: %w", err)
	}

	return s.GetEntity(name, entityType)
}

// GetEntity retrieves an entity by name, optionally narrowed by type.
// With an empty entityType and several same-named entities of different
// types, the most recently updated one wins. Returns (nil, nil) when
// nothing matches.
func (s *Store) GetEntity(name, entityType string) (*Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities WHERE name = ?`
	args := []any{name}
	if entityType != "" {
		query += ` AND entity_type = ?`
		args = append(args, entityType)
	}
	query += ` ORDER BY last_updated DESC LIMIT 1`

	row := s.db.QueryRow(query, args...)
	e, err := scanEntity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entity: %w", err)
	}
	return e, nil
}

// ListEntities returns entities ordered by last update, newest first,
// optionally filtered by type.
func (s *Store) ListEntities(entityType string) ([]Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities`
	var args []any
	if entityType != "" {
		query += ` WHERE entity_type = ?`
		args = append(args, entityType)
	}
	query += ` ORDER BY last_updated DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("list entities: scan: %w", err)
		}
		results = append(results, *e)
	}
	return results, rows.Err()
}

// LinkFactToEntity appends a fact id to the entity's fact list. The link is
// idempotent, the lookup is by name only (first match by recency when types
// collide), and the fact id is not verified against the facts table.
// Linking to an unknown entity is a silent no-op.
func (s *Store) LinkFactToEntity(entityName, factID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("link fact: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id, rawIDs string
	err = tx.QueryRow(
		`SELECT id, fact_ids FROM entities WHERE name = ? ORDER BY last_updated DESC LIMIT 1`,
		entityName,
	).Scan(&id, &rawIDs)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("link fact: %w", err)
	}

	var factIDs []string
	if rawIDs != "" {
		if err := json.Unmarshal([]byte(rawIDs), &factIDs); err != nil {
			return fmt.Errorf("link fact: decode fact ids: %w", err)
		}
	}
	if contains(factIDs, factID) {
		return tx.Commit()
	}
	factIDs = append(factIDs, factID)
	encoded, err := json.Marshal(factIDs)
	if err != nil {
		return fmt.Errorf("link fact: encode fact ids: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE entities SET fact_ids = ? WHERE id = ?`,
		string(encoded), id,
	); err != nil {
		return fmt.Errorf("link fact: write: %w", err)
	}
	return tx.Commit()
}

func scanEntity(row rowScanner) (*Entity, error) {
	var e Entity
	var rawAttrs, rawIDs string
	if err := row.Scan(&e.ID, &e.Name, &e.EntityType, &rawAttrs, &e.FirstSeen, &e.LastUpdated, &rawIDs); err != nil {
		return nil, err
	}
	attrs, err := decodeAttributes(rawAttrs)
	if err != nil {
		return nil, err
	}
	e.Attributes = attrs
	e.FactIDs = []string{}
	if rawIDs != "" {
		if err := json.Unmarshal([]byte(rawIDs), &e.FactIDs); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

func encodeAttributes(attrs *orderedmap.OrderedMap[string, any]) (string, error) {
	if attrs == nil {
		return "{}", nil
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func encodeFactIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeAttributes(raw string) (*orderedmap.OrderedMap[string, any], error) {
	attrs := orderedmap.New[string, any]()
	if raw == "" || raw == "{}" {
		return attrs, nil
	}
	if err := json.Unmarshal([]byte(raw), attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}
