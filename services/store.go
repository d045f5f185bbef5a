package services

import (
	"encoding/json"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// Collection names.
const (
	SitesCollection    = "sites"
	TasksCollection    = "tasks"
	BOQFilesCollection = "boq_files"
)

// DocumentStore is the document database as seen by the progress engine:
// equality-filter queries, partial updates and array appends.
type DocumentStore interface {
	Find(collection string, filters map[string]any) ([]*core.Record, error)
	Update(collection, id string, fields map[string]any) error
	Append(collection, id, arrayField string, value any) error
}

// RecordStore implements DocumentStore on a PocketBase app. Pass the
// transactional app inside RunInTransaction to scope it to a transaction.
type RecordStore struct {
	app core.App
}

// NewRecordStore wraps app.
func NewRecordStore(app core.App) *RecordStore {
	return &RecordStore{app: app}
}

// App returns the wrapped app.
func (s *RecordStore) App() core.App {
	return s.app
}

// Find returns the records of collection whose fields equal every filter
// value, in insertion order.
func (s *RecordStore) Find(collection string, filters map[string]any) ([]*core.Record, error) {
	query := s.app.RecordQuery(collection).OrderBy("rowid ASC")
	if len(filters) > 0 {
		query = query.AndWhere(dbx.HashExp(filters))
	}
	var records []*core.Record
	if err := query.All(&records); err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	return records, nil
}

// Update sets the given fields on one record.
func (s *RecordStore) Update(collection, id string, fields map[string]any) error {
	record, err := s.app.FindRecordById(collection, id)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	for k, v := range fields {
		record.Set(k, v)
	}
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return nil
}

// Append adds value to the end of a JSON array field.
func (s *RecordStore) Append(collection, id, arrayField string, value any) error {
	record, err := s.app.FindRecordById(collection, id)
	if err != nil {
		return fmt.Errorf("append %s/%s: %w", collection, id, err)
	}
	var items []json.RawMessage
	if err := unmarshalArrayField(record, arrayField, &items); err != nil {
		return fmt.Errorf("append %s/%s: %w", collection, id, err)
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("append %s/%s: encode value: %w", collection, id, err)
	}
	items = append(items, encoded)
	record.Set(arrayField, items)
	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("append %s/%s: %w", collection, id, err)
	}
	return nil
}

// unmarshalArrayField decodes a JSON array field, treating an unset field
// (stored as null) as an empty array.
func unmarshalArrayField(record *core.Record, field string, dst any) error {
	raw := record.GetString(field)
	if raw == "" || raw == "null" {
		return nil
	}
	if err := record.UnmarshalJSONField(field, dst); err != nil {
		return fmt.Errorf("decode %s: %w", field, err)
	}
	return nil
}
