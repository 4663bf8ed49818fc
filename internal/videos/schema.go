package videos

import (
	"strconv"
	"time"
)

// Input header names.
const (
	ColTitle       = "Title"
	ColVideoID     = "Video ID"
	ColPublishedAt = "Published At"
	ColKeyword     = "Keyword"
	ColLikes       = "Likes"
	ColComments    = "Comments"
	ColViews       = "Views"
)

// RequiredColumns lists every header the loader expects, in canonical order.
var RequiredColumns = []string{ColTitle, ColVideoID, ColPublishedAt, ColKeyword, ColLikes, ColComments, ColViews}

// Field names exposed to aggregation and charting.
const (
	FieldTitle           = "title"
	FieldVideoID         = "video_id"
	FieldPublishedAt     = "published_at"
	FieldKeyword         = "keyword"
	FieldLikes           = "likes"
	FieldComments        = "comments"
	FieldViews           = "views"
	FieldLikesPer1K      = "likes_per_1k"
	FieldCommentsPer1K   = "comments_per_1k"
	FieldTitleLength     = "title_length"
	FieldPublicationYear = "publication_year"
)

// RawFields are available on every loaded record.
var RawFields = []string{FieldTitle, FieldVideoID, FieldPublishedAt, FieldKeyword, FieldLikes, FieldComments, FieldViews}

// DerivedFields are available once a table has gone through Derive.
var DerivedFields = []string{FieldLikesPer1K, FieldCommentsPer1K, FieldTitleLength, FieldPublicationYear}

// Count is a non-negative integer that may be missing in the raw input.
type Count struct {
	N     int64
	Valid bool
}

// Present returns a valid Count holding n.
func Present(n int64) Count { return Count{N: n, Valid: true} }

func (c Count) String() string {
	if !c.Valid {
		return ""
	}
	return strconv.FormatInt(c.N, 10)
}

// Record is one video's metadata row.
type Record struct {
	Title        string
	VideoID      string
	PublishedAt  time.Time
	PublishedRaw string
	Keyword      string
	Likes        Count
	Comments     Count
	Views        Count
	// Features is nil until the record has been derived. A Features value is
	// never modified after it is attached.
	Features *Features
}

// Features holds the columns computed by Derive.
type Features struct {
	// LikesPer1K and CommentsPer1K are NaN when views == 0.
	LikesPer1K      float64
	CommentsPer1K   float64
	TitleLength     int
	PublicationYear string
}

// Complete reports whether likes, comments and views are all present.
func (r Record) Complete() bool {
	return r.Likes.Valid && r.Comments.Valid && r.Views.Valid
}

// Field returns the value of a named field. Counts are returned as int64,
// ratios as float64, title_length as int and everything else as string.
// Missing counts and underived features report ok == false.
func (r Record) Field(name string) (any, bool) {
	switch name {
	case FieldTitle:
		return r.Title, true
	case FieldVideoID:
		return r.VideoID, true
	case FieldPublishedAt:
		return r.PublishedRaw, true
	case FieldKeyword:
		return r.Keyword, true
	case FieldLikes:
		return r.Likes.N, r.Likes.Valid
	case FieldComments:
		return r.Comments.N, r.Comments.Valid
	case FieldViews:
		return r.Views.N, r.Views.Valid
	}
	if r.Features == nil {
		return nil, false
	}
	switch name {
	case FieldLikesPer1K:
		return r.Features.LikesPer1K, true
	case FieldCommentsPer1K:
		return r.Features.CommentsPer1K, true
	case FieldTitleLength:
		return r.Features.TitleLength, true
	case FieldPublicationYear:
		return r.Features.PublicationYear, true
	}
	return nil, false
}

// IsField reports whether name is a raw or derived field name.
func IsField(name string) bool {
	for _, f := range RawFields {
		if f == name {
			return true
		}
	}
	for _, f := range DerivedFields {
		if f == name {
			return true
		}
	}
	return false
}

// Table is an in-memory set of records. Pipeline stages return new tables and
// leave their input untouched.
type Table struct {
	// Source is the base name of the file the table was loaded from.
	Source  string
	Records []Record
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Derived reports whether every record carries features.
func (t *Table) Derived() bool {
	if t == nil {
		return false
	}
	for _, r := range t.Records {
		if r.Features == nil {
			return false
		}
	}
	return true
}

// Fields returns the field names populated on this table.
func (t *Table) Fields() []string {
	out := append([]string(nil), RawFields...)
	if t.Len() > 0 && t.Derived() {
		out = append(out, DerivedFields...)
	}
	return out
}

func (t *Table) derive(capHint int) *Table {
	return &Table{Source: t.Source, Records: make([]Record, 0, capHint)}
}
