package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pocketbase/pocketbase/core"
)

// ErrSiteNotFound is returned when no sites record has the given site id.
var ErrSiteNotFound = errors.New("site not found")

// Site is a deployment site.
type Site struct {
	RecordID string `json:"id"`
	SiteID   string `json:"siteId"`
	SiteName string `json:"siteName"`
	City     string `json:"city"`
	Region   string `json:"region"`
}

// SiteFromRecord maps a sites record.
func SiteFromRecord(r *core.Record) Site {
	return Site{
		RecordID: r.Id,
		SiteID:   r.GetString("site_id"),
		SiteName: r.GetString("site_name"),
		City:     r.GetString("city"),
		Region:   r.GetString("region"),
	}
}

// TaskDocument is one tasks record: the uploads of one division of a site.
type TaskDocument struct {
	ID       string
	SiteID   string
	SiteName string
	Division Division
	Sections []UploadedSectionRecord
}

// TaskFromRecord decodes a tasks record. The document division is
// normalized, and records without their own division inherit it. Records
// that cannot be read are logged and kept in place as unreadable entries,
// so array positions still match the stored document.
func TaskFromRecord(r *core.Record) (TaskDocument, error) {
	doc := TaskDocument{
		ID:       r.Id,
		SiteID:   r.GetString("site_id"),
		SiteName: r.GetString("site_name"),
		Division: Division(r.GetString("division")),
	}
	if d, ok := ParseDivision(string(doc.Division)); ok {
		doc.Division = d
	}
	var raws []json.RawMessage
	if err := unmarshalArrayField(r, "sections", &raws); err != nil {
		return doc, fmt.Errorf("task %s: %w", r.Id, err)
	}
	doc.Sections = make([]UploadedSectionRecord, 0, len(raws))
	for i, raw := range raws {
		rec, err := DecodeUploadedSection(raw)
		if err != nil {
			log.Printf("tasks: task %s record %d: %v", r.Id, i, err)
		} else if rec.Division == "" {
			rec.Division = doc.Division
		}
		doc.Sections = append(doc.Sections, rec)
	}
	return doc, nil
}

// BOQFileFromRecord decodes a boq_files record. Items that are not JSON
// objects are logged and skipped.
func BOQFileFromRecord(r *core.Record) (BOQFile, error) {
	f := BOQFile{
		SiteID:   r.GetString("site_id"),
		SiteName: r.GetString("site_name"),
		City:     r.GetString("city"),
		Type:     BOQType(r.GetString("boq_type")),
	}
	var raws []json.RawMessage
	if err := unmarshalArrayField(r, "items", &raws); err != nil {
		return f, fmt.Errorf("boq file %s: %w", r.Id, err)
	}
	for i, raw := range raws {
		var item BOQLineItem
		if err := json.Unmarshal(raw, &item); err != nil {
			log.Printf("boq_files: file %s item %d skipped: %v", r.Id, i, err)
			continue
		}
		f.Items = append(f.Items, item)
	}
	return f, nil
}

// FindSite loads a site by its site id.
func FindSite(store DocumentStore, siteID string) (Site, error) {
	records, err := store.Find(SitesCollection, map[string]any{"site_id": siteID})
	if err != nil {
		return Site{}, err
	}
	if len(records) == 0 {
		return Site{}, fmt.Errorf("%w: %s", ErrSiteNotFound, siteID)
	}
	return SiteFromRecord(records[0]), nil
}

// SiteSnapshot is everything the engine needs about one site.
type SiteSnapshot struct {
	Site    Site
	Tasks   []TaskDocument
	Uploads []UploadedSectionRecord
	BOQ     *BOQContext
}

// LoadSiteSnapshot fetches the task documents and BOQ files of a site and
// flattens the uploads in document order. Query and decode failures are
// logged and degrade to empty data.
func LoadSiteSnapshot(store DocumentStore, site Site) SiteSnapshot {
	snap := SiteSnapshot{Site: site}

	taskRecords, err := store.Find(TasksCollection, map[string]any{"site_id": site.SiteID})
	if err != nil {
		log.Printf("site_progress: tasks for site %s: %v", site.SiteID, err)
	}
	for _, r := range taskRecords {
		doc, err := TaskFromRecord(r)
		if err != nil {
			log.Printf("site_progress: %v", err)
			continue
		}
		snap.Tasks = append(snap.Tasks, doc)
		snap.Uploads = append(snap.Uploads, doc.Sections...)
	}

	boqRecords, err := store.Find(BOQFilesCollection, map[string]any{"site_id": site.SiteID})
	if err != nil {
		log.Printf("site_progress: boq files for site %s: %v", site.SiteID, err)
	}
	var files []BOQFile
	for _, r := range boqRecords {
		f, err := BOQFileFromRecord(r)
		if err != nil {
			log.Printf("site_progress: %v", err)
			continue
		}
		files = append(files, f)
	}
	snap.BOQ = NewBOQContext(files)

	return snap
}

// SectionProgress is the derived state of one section.
type SectionProgress struct {
	Title    string      `json:"title"`
	Section  string      `json:"section"`
	Uploaded int         `json:"uploaded"`
	Target   int         `json:"target"`
	Status   StatusBadge `json:"status"`
	Locked   bool        `json:"locked"`
}

// DivisionSummary is the derived state of one division of a site.
type DivisionSummary struct {
	Division        Division          `json:"division"`
	Progress        Progress          `json:"progress"`
	LatestCompleted string            `json:"latestCompleted"`
	Sections        []SectionProgress `json:"sections"`
}

// SiteProgress is the full derived view of a site.
type SiteProgress struct {
	Site          Site              `json:"site"`
	Divisions     []DivisionSummary `json:"divisions"`
	HasBOQ        bool              `json:"hasBoq"`
	LastUpdatedAt *time.Time        `json:"lastUpdatedAt,omitempty"`
	LastUpdate    string            `json:"lastUpdate"`
}

// Division returns the summary of d, or false when absent.
func (p SiteProgress) Division(d Division) (DivisionSummary, bool) {
	for _, ds := range p.Divisions {
		if ds.Division == d {
			return ds, true
		}
	}
	return DivisionSummary{}, false
}

// BuildSiteProgress derives per-section and per-division progress for a
// site snapshot. now anchors the relative "last update" label.
func BuildSiteProgress(catalog *Catalog, snap SiteSnapshot, now time.Time) SiteProgress {
	out := SiteProgress{
		Site:       snap.Site,
		HasBOQ:     snap.BOQ != nil,
		LastUpdate: NoSectionLabel,
	}

	for _, d := range Divisions {
		sections := catalog.SectionsIn(d)
		summary := DivisionSummary{
			Division:        d,
			Progress:        catalog.DivisionProgress(d, snap.Uploads, snap.BOQ),
			LatestCompleted: LatestCompletedLabel(d, snap.Uploads),
			Sections:        make([]SectionProgress, 0, len(sections)),
		}
		for _, s := range sections {
			status := SectionStatus(s, snap.Uploads)
			summary.Sections = append(summary.Sections, SectionProgress{
				Title:    s.Title,
				Section:  s.BareName,
				Uploaded: CountUploads(s, snap.Uploads),
				Target:   catalog.ResolveTarget(s, snap.BOQ),
				Status:   status,
				Locked:   status.Done(),
			})
		}
		out.Divisions = append(out.Divisions, summary)
	}

	var latest time.Time
	for _, u := range snap.Uploads {
		if u.UploadedAt.After(latest) {
			latest = u.UploadedAt
		}
	}
	if !latest.IsZero() {
		out.LastUpdatedAt = &latest
		out.LastUpdate = humanize.RelTime(latest, now, "ago", "from now")
	}
	return out
}
