package services

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
)

var (
	// ErrSectionLocked is returned when uploading to or deleting from a
	// section whose derived status is Done.
	ErrSectionLocked = errors.New("section is already done")
	// ErrRecordLocked is returned when replacing an upload that was signed off.
	ErrRecordLocked = errors.New("upload is already done")
	// ErrTaskNotFound is returned for an unknown task document id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrRecordIndex is returned for an out-of-range upload position.
	ErrRecordIndex = errors.New("upload index out of range")
	// ErrUnknownSection is returned for a section the catalog does not define.
	ErrUnknownSection = errors.New("unknown section")
)

// SectionWriter mutates the sections arrays of task documents.
//
// Every mutation reads the owning document, computes the new array and
// writes it back inside one transaction, so concurrent writers to the same
// document are serialized instead of overwriting each other's changes.
type SectionWriter struct {
	app     core.App
	catalog *Catalog
	now     func() time.Time
}

// NewSectionWriter returns a writer using catalog for section lookups.
func NewSectionWriter(app core.App, catalog *Catalog) *SectionWriter {
	return &SectionWriter{app: app, catalog: catalog, now: time.Now}
}

// UploadResult identifies a stored upload.
type UploadResult struct {
	TaskID string                `json:"taskId"`
	Index  int                   `json:"index"`
	Record UploadedSectionRecord `json:"record"`
}

// Upload appends a new record for the site. The record goes to the first
// task document of its division, which is created when missing.
func (w *SectionWriter) Upload(site Site, in UploadInput) (UploadResult, error) {
	if err := in.Validate(); err != nil {
		return UploadResult{}, err
	}
	division, _ := ParseDivision(in.Division)
	def, ok := w.catalog.Lookup(division, strings.TrimSpace(in.Section))
	if !ok {
		return UploadResult{}, fmt.Errorf("%w: %s / %s", ErrUnknownSection, division, in.Section)
	}

	now := w.now()
	rec := UploadedSectionRecord{
		Section:    def.BareName,
		Division:   division,
		FileURL:    in.FileURL,
		FileName:   in.FileName,
		Details:    in.Details,
		Remark:     in.Remark,
		UploadBy:   in.UploadBy,
		Review:     Pending(),
		UploadedAt: now,
	}
	if rec.FileURL == "" {
		rec.FileURL = StoragePath(site.SiteID, division, def.BareName, now, in.FileName)
	}

	var result UploadResult
	err := w.app.RunInTransaction(func(txApp core.App) error {
		store := NewRecordStore(txApp)

		docs, err := siteTasks(store, site.SiteID)
		if err != nil {
			return err
		}
		if SectionStatus(def, flattenUploads(docs)).Done() {
			return fmt.Errorf("%w: %s", ErrSectionLocked, def.Title)
		}

		var target *TaskDocument
		for i := range docs {
			if docs[i].Division == division {
				target = &docs[i]
				break
			}
		}
		if target == nil {
			created, err := createTask(txApp, site, division)
			if err != nil {
				return err
			}
			target = &created
		}

		if err := store.Append(TasksCollection, target.ID, "sections", rec); err != nil {
			return err
		}
		result = UploadResult{TaskID: target.ID, Index: len(target.Sections), Record: rec}
		return nil
	})
	if err != nil {
		return UploadResult{}, err
	}
	return result, nil
}

// Replace overwrites the file and metadata of an upload that has not been
// signed off. The record keeps its position and goes back to review.
func (w *SectionWriter) Replace(taskID string, index int, in ReplaceInput) (UploadedSectionRecord, error) {
	if err := in.Validate(); err != nil {
		return UploadedSectionRecord{}, err
	}

	var out UploadedSectionRecord
	err := w.mutate(taskID, index, func(doc *TaskDocument, store *RecordStore) error {
		rec := &doc.Sections[index]
		if rec.Unreadable() {
			return fmt.Errorf("%w: #%d", ErrUnreadableRecord, index)
		}
		if rec.Review.IsDone() {
			return fmt.Errorf("%w: %s #%d", ErrRecordLocked, rec.Section, index)
		}
		now := w.now()
		rec.FileName = in.FileName
		rec.FileURL = in.FileURL
		if rec.FileURL == "" {
			rec.FileURL = StoragePath(doc.SiteID, doc.Division, rec.Section, now, in.FileName)
		}
		rec.Details = in.Details
		rec.Remark = in.Remark
		if in.UploadBy != "" {
			rec.UploadBy = in.UploadBy
		}
		rec.Review = Pending()
		rec.UploadedAt = now
		out = *rec
		return nil
	})
	return out, err
}

// SetReview records a reviewer verdict on one upload.
func (w *SectionWriter) SetReview(taskID string, index int, review Review) (UploadedSectionRecord, error) {
	if review.Status == ReviewRejected && review.Reason == "" {
		return UploadedSectionRecord{}, ErrRejectReasonRequired
	}

	var out UploadedSectionRecord
	err := w.mutate(taskID, index, func(doc *TaskDocument, _ *RecordStore) error {
		if doc.Sections[index].Unreadable() {
			return fmt.Errorf("%w: #%d", ErrUnreadableRecord, index)
		}
		doc.Sections[index].Review = review
		out = doc.Sections[index]
		return nil
	})
	return out, err
}

// Delete removes one upload unless its section is Done for the site.
// Unreadable records can always be removed.
func (w *SectionWriter) Delete(taskID string, index int) error {
	return w.mutate(taskID, index, func(doc *TaskDocument, store *RecordStore) error {
		rec := doc.Sections[index]
		if rec.Unreadable() {
			doc.Sections = append(doc.Sections[:index], doc.Sections[index+1:]...)
			return nil
		}
		docs, err := siteTasks(store, doc.SiteID)
		if err != nil {
			return err
		}
		def := SectionDefinition{Title: rec.Section, BareName: rec.Section, Division: doc.Division}
		if SectionStatus(def, flattenUploads(docs)).Done() {
			return fmt.Errorf("%w: %s", ErrSectionLocked, rec.Section)
		}
		doc.Sections = append(doc.Sections[:index], doc.Sections[index+1:]...)
		return nil
	})
}

// mutate loads a task document, applies fn to it and writes the sections
// array back, all inside one transaction.
func (w *SectionWriter) mutate(taskID string, index int, fn func(doc *TaskDocument, store *RecordStore) error) error {
	return w.app.RunInTransaction(func(txApp core.App) error {
		record, err := txApp.FindRecordById(TasksCollection, taskID)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		doc, err := TaskFromRecord(record)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(doc.Sections) {
			return fmt.Errorf("%w: %d of %d", ErrRecordIndex, index, len(doc.Sections))
		}

		store := NewRecordStore(txApp)
		if err := fn(&doc, store); err != nil {
			return err
		}
		sections := doc.Sections
		if sections == nil {
			sections = []UploadedSectionRecord{}
		}
		return store.Update(TasksCollection, doc.ID, map[string]any{"sections": sections})
	})
}

func siteTasks(store DocumentStore, siteID string) ([]TaskDocument, error) {
	records, err := store.Find(TasksCollection, map[string]any{"site_id": siteID})
	if err != nil {
		return nil, err
	}
	docs := make([]TaskDocument, 0, len(records))
	for _, r := range records {
		doc, err := TaskFromRecord(r)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func flattenUploads(docs []TaskDocument) []UploadedSectionRecord {
	var out []UploadedSectionRecord
	for _, d := range docs {
		out = append(out, d.Sections...)
	}
	return out
}

func createTask(app core.App, site Site, division Division) (TaskDocument, error) {
	col, err := app.FindCollectionByNameOrId(TasksCollection)
	if err != nil {
		return TaskDocument{}, fmt.Errorf("tasks collection not found: %w", err)
	}
	record := core.NewRecord(col)
	record.Set("site_id", site.SiteID)
	record.Set("site_name", site.SiteName)
	record.Set("division", string(division))
	record.Set("sections", []UploadedSectionRecord{})
	if err := app.Save(record); err != nil {
		return TaskDocument{}, fmt.Errorf("create task for %s/%s: %w", site.SiteID, division, err)
	}
	return TaskDocument{
		ID:       record.Id,
		SiteID:   site.SiteID,
		SiteName: site.SiteName,
		Division: division,
	}, nil
}

// StoragePath returns the file storage key of an upload:
// uploads/{site}/{division}/{section}/{unixMillis}_{file}.
func StoragePath(siteID string, division Division, section string, at time.Time, fileName string) string {
	return path.Join(
		"uploads",
		sanitizePathSegment(siteID),
		division.Slug(),
		sectionKey(section),
		fmt.Sprintf("%d_%s", at.UnixMilli(), sanitizePathSegment(fileName)),
	)
}

// sectionKey turns a bare section name into a path segment.
func sectionKey(section string) string {
	return strings.ToLower(strings.Join(strings.Fields(sanitizePathSegment(section)), "_"))
}

// sanitizePathSegment removes characters that are unsafe in storage keys.
func sanitizePathSegment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	s = strings.ReplaceAll(s, "..", "-")
	return s
}
