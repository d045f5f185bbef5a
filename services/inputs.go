package services

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// UploadInput is the metadata of a new section upload.
type UploadInput struct {
	Section  string `json:"section"`
	Division string `json:"division"`
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
	Details  string `json:"details"`
	Remark   string `json:"remark"`
	UploadBy string `json:"uploadBy"`
}

var knownDivision = validation.By(func(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, ok := ParseDivision(s); !ok {
		return errors.New("must be one of Permit, SND, CW, EL, Document, Material")
	}
	return nil
})

// Validate implements validation.Validatable.
func (in UploadInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Section, validation.Required, validation.Length(1, 120)),
		validation.Field(&in.Division, validation.Required, knownDivision),
		validation.Field(&in.FileName, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.FileURL, is.URL),
		validation.Field(&in.Remark, validation.Length(0, 2000)),
		validation.Field(&in.Details, validation.Length(0, 2000)),
	)
}

// ReplaceInput overwrites the file and metadata of an existing upload.
type ReplaceInput struct {
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
	Details  string `json:"details"`
	Remark   string `json:"remark"`
	UploadBy string `json:"uploadBy"`
}

// Validate implements validation.Validatable.
func (in ReplaceInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.FileName, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.FileURL, is.URL),
		validation.Field(&in.Remark, validation.Length(0, 2000)),
		validation.Field(&in.Details, validation.Length(0, 2000)),
	)
}

// ReviewInput is a reviewer verdict as submitted by a form.
type ReviewInput struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// Validate implements validation.Validatable.
func (in ReviewInput) Validate() error {
	rejected := strings.EqualFold(in.Status, statusTaskRejected)
	return validation.ValidateStruct(&in,
		validation.Field(&in.Status, validation.Required, validation.By(func(value any) error {
			if _, ok := parseReviewStatus(value.(string)); !ok {
				return errors.New("must be Done, Rejected or Pending")
			}
			return nil
		})),
		validation.Field(&in.Reason, validation.When(rejected, validation.Required.Error("is required when rejecting"))),
	)
}

// Review converts a validated input to a Review.
func (in ReviewInput) Review() (Review, error) {
	if err := in.Validate(); err != nil {
		return Review{}, err
	}
	status, _ := parseReviewStatus(in.Status)
	switch status {
	case ReviewDone:
		return Approved(), nil
	case ReviewRejected:
		return Rejected(strings.TrimSpace(in.Reason))
	}
	return Pending(), nil
}

func parseReviewStatus(s string) (ReviewStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "done", "approved":
		return ReviewDone, true
	case "rejected":
		return ReviewRejected, true
	case "pending":
		return ReviewPending, true
	}
	return ReviewPending, false
}
