package services

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// ReviewStatus is the reviewer verdict on a single upload.
type ReviewStatus int

const (
	ReviewPending ReviewStatus = iota
	ReviewDone
	ReviewRejected
)

// Stored status_task values. Pending is stored as an absent field.
const (
	statusTaskDone     = "Done"
	statusTaskRejected = "Rejected"
)

var (
	// ErrRejectReasonRequired is returned when a rejection carries no reason.
	ErrRejectReasonRequired = errors.New("reject reason is required")
	// ErrUnreadableRecord is returned for a stored upload that is not a JSON object.
	ErrUnreadableRecord = errors.New("upload record is unreadable")
)

// Review is the verdict attached to an upload. Reason is only meaningful
// for ReviewRejected.
type Review struct {
	Status ReviewStatus
	Reason string
}

// Pending returns the review state of a freshly uploaded record.
func Pending() Review { return Review{Status: ReviewPending} }

// Approved returns a Done review.
func Approved() Review { return Review{Status: ReviewDone} }

// Rejected returns a Rejected review with the given reason.
func Rejected(reason string) (Review, error) {
	if reason == "" {
		return Review{}, ErrRejectReasonRequired
	}
	return Review{Status: ReviewRejected, Reason: reason}, nil
}

// IsDone reports whether the review is a Done sign-off.
func (r Review) IsDone() bool { return r.Status == ReviewDone }

// String returns the stored status_task value ("" for pending).
func (r Review) String() string {
	switch r.Status {
	case ReviewDone:
		return statusTaskDone
	case ReviewRejected:
		return statusTaskRejected
	}
	return ""
}

// UploadedSectionRecord is one uploaded piece of evidence for a section,
// stored inside the sections array of a tasks document.
type UploadedSectionRecord struct {
	Section    string
	Division   Division
	FileURL    string
	FileName   string
	Details    string
	Remark     string
	UploadBy   string
	Review     Review
	UploadedAt time.Time

	// raw holds the stored bytes of an unreadable record so that it is
	// written back unchanged and keeps its position in the array.
	raw string
}

// Unreadable reports whether the stored record could not be decoded.
func (r UploadedSectionRecord) Unreadable() bool { return r.raw != "" }

// uploadedSectionWire is the stored document shape.
type uploadedSectionWire struct {
	Section      string     `json:"section"`
	Division     Division   `json:"division"`
	FileURL      string     `json:"fileUrl,omitempty"`
	FileName     string     `json:"fileName,omitempty"`
	Details      string     `json:"details,omitempty"`
	Remark       string     `json:"remark,omitempty"`
	UploadBy     string     `json:"uploadBy,omitempty"`
	StatusTask   string     `json:"status_task,omitempty"`
	RejectReason string     `json:"reject_reason,omitempty"`
	UploadedAt   *time.Time `json:"uploadedAt,omitempty"`
}

// MarshalJSON encodes the record in its stored shape.
func (r UploadedSectionRecord) MarshalJSON() ([]byte, error) {
	if r.raw != "" {
		return []byte(r.raw), nil
	}
	w := uploadedSectionWire{
		Section:    r.Section,
		Division:   r.Division,
		FileURL:    r.FileURL,
		FileName:   r.FileName,
		Details:    r.Details,
		Remark:     r.Remark,
		UploadBy:   r.UploadBy,
		StatusTask: r.Review.String(),
	}
	if r.Review.Status == ReviewRejected {
		w.RejectReason = r.Review.Reason
	}
	if !r.UploadedAt.IsZero() {
		t := r.UploadedAt.UTC()
		w.UploadedAt = &t
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a stored record. See DecodeUploadedSection.
func (r *UploadedSectionRecord) UnmarshalJSON(data []byte) error {
	rec, err := DecodeUploadedSection(data)
	*r = rec
	return err
}

// DecodeUploadedSection decodes one stored record field by field. Values
// of the wrong type are coerced to strings or left empty, an unparseable
// uploadedAt is the zero time, and unknown status_task values are pending.
// Only data that is not a JSON object fails; the returned record then
// keeps the original bytes and counts towards no section.
func DecodeUploadedSection(data []byte) (UploadedSectionRecord, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return UploadedSectionRecord{raw: string(data)}, ErrUnreadableRecord
	}

	text := func(key string) string {
		return strings.TrimSpace(cast.ToString(fields[key]))
	}
	r := UploadedSectionRecord{
		Section:    text("section"),
		Division:   Division(text("division")),
		FileURL:    text("fileUrl"),
		FileName:   text("fileName"),
		Details:    text("details"),
		Remark:     text("remark"),
		UploadBy:   text("uploadBy"),
		UploadedAt: parseUploadedAt(fields["uploadedAt"]),
	}
	if d, ok := ParseDivision(string(r.Division)); ok {
		r.Division = d
	}
	switch text("status_task") {
	case statusTaskDone:
		r.Review = Approved()
	case statusTaskRejected:
		r.Review = Review{Status: ReviewRejected, Reason: text("reject_reason")}
	default:
		r.Review = Pending()
	}
	return r, nil
}

// Layouts tried for string timestamps before falling back to cast.
var uploadedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.000Z07:00",
	"2006-01-02 15:04:05Z07:00",
}

// parseUploadedAt reads an RFC 3339 or PocketBase datetime string, or an
// epoch in milliseconds given as a number or a digit string. Anything
// else, including "", is the zero time.
func parseUploadedAt(v any) time.Time {
	switch val := v.(type) {
	case float64:
		return time.UnixMilli(int64(val)).UTC()
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}
		}
		if ms, err := cast.ToInt64E(s); err == nil {
			return time.UnixMilli(ms).UTC()
		}
		for _, layout := range uploadedAtLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
		if t, err := cast.ToTimeE(s); err == nil {
			return t
		}
	}
	return time.Time{}
}
