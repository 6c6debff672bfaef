package models

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultTemplateID  = 1
	MaxTemplateID      = 5
	DefaultMusicChoice = 1
	MaxMusicChoice     = 3
)

// Invitation represents a wedding invitation record
type Invitation struct {
	ID             string    `db:"id" json:"id"`
	OwnerID        string    `db:"user_id" json:"user_id"`
	BrideName      string    `db:"bride_name" json:"bride_name"`
	GroomName      string    `db:"groom_name" json:"groom_name"`
	WeddingDate    string    `db:"wedding_date" json:"wedding_date"`
	WeddingTime    *string   `db:"wedding_time" json:"wedding_time"`
	VenueName      *string   `db:"venue_name" json:"venue_name"`
	VenueAddress   *string   `db:"venue_address" json:"venue_address"`
	AdditionalInfo *string   `db:"additional_info" json:"additional_info"`
	TemplateID     int       `db:"template_id" json:"template_id"`
	MusicChoice    int       `db:"music_choice" json:"music_choice"`
	BridePhotoURL  *string   `db:"bride_photo_url" json:"bride_photo_url"`
	GroomPhotoURL  *string   `db:"groom_photo_url" json:"groom_photo_url"`
	IsPublished    bool      `db:"is_published" json:"is_published"`
	Slug           *string   `db:"slug" json:"slug"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// SlugValue returns the slug or "" when none is assigned.
func (i *Invitation) SlugValue() string {
	if i.Slug == nil {
		return ""
	}
	return *i.Slug
}

// Apply overwrites the content attributes with f. Identity, ownership,
// publication state and timestamps are left alone.
func (i *Invitation) Apply(f InvitationFields) {
	i.BrideName = f.BrideName
	i.GroomName = f.GroomName
	i.WeddingDate = f.WeddingDate
	i.WeddingTime = f.WeddingTime
	i.VenueName = f.VenueName
	i.VenueAddress = f.VenueAddress
	i.AdditionalInfo = f.AdditionalInfo
	i.TemplateID = f.TemplateID
	i.MusicChoice = f.MusicChoice
	i.BridePhotoURL = f.BridePhotoURL
	i.GroomPhotoURL = f.GroomPhotoURL
}

// InvitationFields is the editable content of an invitation, as submitted by
// the create and edit forms.
type InvitationFields struct {
	BrideName      string  `json:"bride_name" validate:"notblank"`
	GroomName      string  `json:"groom_name" validate:"notblank"`
	WeddingDate    string  `json:"wedding_date" validate:"notblank,datetime=2006-01-02"`
	WeddingTime    *string `json:"wedding_time" validate:"omitempty,clocktime"`
	VenueName      *string `json:"venue_name"`
	VenueAddress   *string `json:"venue_address"`
	AdditionalInfo *string `json:"additional_info"`
	TemplateID     int     `json:"template_id" validate:"min=1,max=5"`
	MusicChoice    int     `json:"music_choice" validate:"min=1,max=3"`
	BridePhotoURL  *string `json:"bride_photo_url" validate:"omitempty,url"`
	GroomPhotoURL  *string `json:"groom_photo_url" validate:"omitempty,url"`
}

// Normalize applies the defaults for omitted values: blank optional strings
// become nil and a zero template or music selector becomes 1. Mandatory fields
// are not touched.
func (f *InvitationFields) Normalize() {
	for _, p := range []**string{
		&f.WeddingTime, &f.VenueName, &f.VenueAddress, &f.AdditionalInfo,
		&f.BridePhotoURL, &f.GroomPhotoURL,
	} {
		if *p != nil && strings.TrimSpace(**p) == "" {
			*p = nil
		}
	}
	if f.TemplateID == 0 {
		f.TemplateID = DefaultTemplateID
	}
	if f.MusicChoice == 0 {
		f.MusicChoice = DefaultMusicChoice
	}
}

// Validate checks the fields after Normalize.
func (f *InvitationFields) Validate() error {
	return ValidateStruct(f)
}

// ParseInvitationForm reads the loosely typed create/edit form into
// InvitationFields. Non-numeric template or music values fall back to the
// defaults; everything else is left for Validate to judge.
func ParseInvitationForm(values url.Values) InvitationFields {
	f := InvitationFields{
		BrideName:      values.Get("brideName"),
		GroomName:      values.Get("groomName"),
		WeddingDate:    values.Get("weddingDate"),
		WeddingTime:    optional(values, "weddingTime"),
		VenueName:      optional(values, "venueName"),
		VenueAddress:   optional(values, "venueAddress"),
		AdditionalInfo: optional(values, "additionalInfo"),
		TemplateID:     atoiOr(values.Get("template"), DefaultTemplateID),
		MusicChoice:    atoiOr(values.Get("music"), DefaultMusicChoice),
		BridePhotoURL:  optional(values, "bridePhotoUrl"),
		GroomPhotoURL:  optional(values, "groomPhotoUrl"),
	}
	f.Normalize()
	return f
}

func optional(values url.Values, key string) *string {
	v := values.Get(key)
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}
