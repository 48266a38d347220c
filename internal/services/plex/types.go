package plex

import (
	"strings"

	"golang.org/x/text/cases"
)

// Item is the subset of a Plex movie the tagger reads.
type Item struct {
	RatingKey  string
	SectionKey string
	Title      string
	Year       int
	Summary    string
	Genres     []string
	Labels     LabelSet
}

// LabelSet is a case-insensitive set of label tags.
type LabelSet struct {
	tags []string
}

// NewLabelSet builds a set from raw tags, dropping blanks and duplicates.
func NewLabelSet(tags ...string) LabelSet {
	var set LabelSet
	for _, tag := range tags {
		set = set.With(tag)
	}
	return set
}

// Has reports whether label is present, ignoring case.
func (s LabelSet) Has(label string) bool {
	want := foldLabel(label)
	if want == "" {
		return false
	}
	for _, tag := range s.tags {
		if foldLabel(tag) == want {
			return true
		}
	}
	return false
}

// With returns a copy of the set including label.
func (s LabelSet) With(label string) LabelSet {
	label = strings.TrimSpace(label)
	if label == "" || s.Has(label) {
		return s
	}
	tags := make([]string, len(s.tags), len(s.tags)+1)
	copy(tags, s.tags)
	return LabelSet{tags: append(tags, label)}
}

// Tags returns the labels in insertion order.
func (s LabelSet) Tags() []string {
	out := make([]string, len(s.tags))
	copy(out, s.tags)
	return out
}

// Len returns the number of labels.
func (s LabelSet) Len() int {
	return len(s.tags)
}

func foldLabel(label string) string {
	// Casers carry state, so each call gets its own.
	return cases.Fold().String(strings.TrimSpace(label))
}

type mediaContainer struct {
	LibrarySectionID string      `xml:"librarySectionID,attr"`
	Directories      []directory `xml:"Directory"`
	Videos           []video     `xml:"Video"`
	Settings         []setting   `xml:"Setting"`
}

type directory struct {
	Key   string `xml:"key,attr"`
	Title string `xml:"title,attr"`
}

type setting struct {
	ID      string `xml:"id,attr"`
	Value   string `xml:"value,attr"`
	Default string `xml:"default,attr"`
}

type tag struct {
	Tag string `xml:"tag,attr"`
}

type video struct {
	RatingKey        string `xml:"ratingKey,attr"`
	LibrarySectionID string `xml:"librarySectionID,attr"`
	Title            string `xml:"title,attr"`
	Year             int    `xml:"year,attr"`
	Summary          string `xml:"summary,attr"`
	Genres           []tag  `xml:"Genre"`
	Labels           []tag  `xml:"Label"`
}

func (v video) toItem() Item {
	item := Item{
		RatingKey:  strings.TrimSpace(v.RatingKey),
		SectionKey: strings.TrimSpace(v.LibrarySectionID),
		Title:      strings.TrimSpace(v.Title),
		Year:       v.Year,
		Summary:    strings.TrimSpace(v.Summary),
	}
	for _, g := range v.Genres {
		if name := strings.TrimSpace(g.Tag); name != "" {
			item.Genres = append(item.Genres, name)
		}
	}
	for _, l := range v.Labels {
		item.Labels = item.Labels.With(l.Tag)
	}
	return item
}
