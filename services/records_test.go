package services

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseDivision(t *testing.T) {
	tests := []struct {
		input string
		want  Division
		ok    bool
	}{
		{"cw", DivisionCW, true},
		{"CW", DivisionCW, true},
		{" El ", DivisionEL, true},
		{"snd", DivisionSND, true},
		{"Civil Work", DivisionCW, true},
		{"document", DivisionDocument, true},
		{"MATERIAL", DivisionMaterial, true},
		{"permit", DivisionPermit, true},
		{"plumbing", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseDivision(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseDivision(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDivision_Valid(t *testing.T) {
	for _, d := range Divisions {
		if !d.Valid() {
			t.Errorf("%q.Valid() = false", d)
		}
	}
	if Division("cw").Valid() {
		t.Error(`"cw".Valid() = true, want false for non-canonical spelling`)
	}
}

func TestRejected_RequiresReason(t *testing.T) {
	if _, err := Rejected(""); !errors.Is(err, ErrRejectReasonRequired) {
		t.Errorf("Rejected(\"\") error = %v, want ErrRejectReasonRequired", err)
	}
	r, err := Rejected("wrong angle")
	if err != nil {
		t.Fatalf("Rejected error = %v", err)
	}
	if r.Status != ReviewRejected || r.Reason != "wrong angle" {
		t.Errorf("Rejected = %+v", r)
	}
}

func TestUploadedSectionRecord_Decode(t *testing.T) {
	raw := `{
		"section": "Splicing",
		"division": "el",
		"fileUrl": "https://files.example/uploads/S-1/el/splicing/1_a.jpg",
		"fileName": "a.jpg",
		"uploadBy": "field01",
		"status_task": "Rejected",
		"reject_reason": "dark photo",
		"uploadedAt": "2024-05-02T10:00:00Z"
	}`
	var rec UploadedSectionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Division != DivisionEL {
		t.Errorf("Division = %q, want EL", rec.Division)
	}
	if rec.Review.Status != ReviewRejected || rec.Review.Reason != "dark photo" {
		t.Errorf("Review = %+v", rec.Review)
	}
	if !rec.UploadedAt.Equal(time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("UploadedAt = %v", rec.UploadedAt)
	}
}

func TestUploadedSectionRecord_UnknownStatusIsPending(t *testing.T) {
	var rec UploadedSectionRecord
	if err := json.Unmarshal([]byte(`{"section":"Visit","division":"SND","status_task":"Maybe"}`), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Review.Status != ReviewPending {
		t.Errorf("Review = %+v, want pending", rec.Review)
	}
}

func TestUploadedSectionRecord_EncodePending(t *testing.T) {
	rec := UploadedSectionRecord{Section: "Visit", Division: DivisionSND, Review: Pending()}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	for _, absent := range []string{"status_task", "reject_reason", "uploadedAt"} {
		if strings.Contains(s, absent) {
			t.Errorf("encoded pending record contains %q: %s", absent, s)
		}
	}
}

func TestUploadedSectionRecord_EncodeDoneDropsReason(t *testing.T) {
	rec := UploadedSectionRecord{Section: "Visit", Division: DivisionSND, Review: Review{Status: ReviewDone, Reason: "stale"}}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"status_task":"Done"`) {
		t.Errorf("encoded = %s, want status_task Done", data)
	}
	if strings.Contains(string(data), "reject_reason") {
		t.Errorf("encoded Done record carries reject_reason: %s", data)
	}
}

func TestStripOrdinal(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"B. Digging Hole", "Digging Hole"},
		{"A. Visit", "Visit"},
		{"12. Splicing", "Splicing"},
		{"AB. Redline", "Redline"},
		{"No Prefix", "No Prefix"},
		{"Mr.Smith Report", "Mr.Smith Report"},
		{"E.g. note", "E.g. note"},
	}
	for _, tt := range tests {
		if got := stripOrdinal(tt.input); got != tt.want {
			t.Errorf("stripOrdinal(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDefaultCatalog_BareNamesUnique(t *testing.T) {
	seen := make(map[string]Division)
	for _, s := range DefaultCatalog().Sections() {
		if prev, ok := seen[s.BareName]; ok {
			t.Errorf("bare name %q used by %s and %s", s.BareName, prev, s.Division)
		}
		seen[s.BareName] = s.Division
		if !s.Division.Valid() {
			t.Errorf("section %q has invalid division %q", s.Title, s.Division)
		}
	}
}

func TestCatalog_Lookup(t *testing.T) {
	catalog := DefaultCatalog()
	s, ok := catalog.Lookup(DivisionCW, "Digging Hole")
	if !ok || s.Title != "B. Digging Hole" {
		t.Errorf("Lookup = %+v, %v", s, ok)
	}
	if _, ok := catalog.Lookup(DivisionEL, "Digging Hole"); ok {
		t.Error("Lookup found Digging Hole under EL")
	}
}

func TestDecodeUploadedSection_UploadedAt(t *testing.T) {
	want := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"rfc3339", `{"uploadedAt":"2024-06-01T09:30:00Z"}`, want},
		{"pocketbase layout", `{"uploadedAt":"2024-06-01 09:30:00.000Z"}`, want},
		{"epoch millis", `{"uploadedAt":1717234200000}`, want},
		{"epoch millis string", `{"uploadedAt":"1717234200000"}`, want},
		{"empty", `{"uploadedAt":""}`, time.Time{}},
		{"garbage", `{"uploadedAt":"yesterday"}`, time.Time{}},
		{"wrong type", `{"uploadedAt":{"at":1}}`, time.Time{}},
		{"absent", `{}`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := DecodeUploadedSection([]byte(tt.raw))
			if err != nil {
				t.Fatalf("DecodeUploadedSection error: %v", err)
			}
			if !rec.UploadedAt.Equal(tt.want) {
				t.Errorf("UploadedAt = %v, want %v", rec.UploadedAt, tt.want)
			}
		})
	}
}

func TestDecodeUploadedSection_CoercesFieldTypes(t *testing.T) {
	rec, err := DecodeUploadedSection([]byte(`{"section":"Visit","division":"snd","fileName":42,"uploadBy":true,"remark":null}`))
	if err != nil {
		t.Fatalf("DecodeUploadedSection error: %v", err)
	}
	if rec.Section != "Visit" || rec.Division != DivisionSND || rec.FileName != "42" || rec.UploadBy != "true" || rec.Remark != "" {
		t.Errorf("record = %+v", rec)
	}
	if rec.Unreadable() {
		t.Error("object record reported unreadable")
	}
}

func TestDecodeUploadedSection_NonObjectRoundTrips(t *testing.T) {
	rec, err := DecodeUploadedSection([]byte(`"garbage"`))
	if !errors.Is(err, ErrUnreadableRecord) {
		t.Fatalf("error = %v, want ErrUnreadableRecord", err)
	}
	if !rec.Unreadable() || rec.Section != "" {
		t.Errorf("record = %+v, want an unreadable placeholder", rec)
	}
	out, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"garbage"` {
		t.Errorf("marshal = %s, want the stored bytes", out)
	}
}
