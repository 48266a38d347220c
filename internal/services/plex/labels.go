package plex

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrConflictingLabel is returned by AddLabel when the item already carries
// one of the labels declared exclusive with the one being added.
var ErrConflictingLabel = errors.New("conflicting label present")

// LabelWriteError reports that Plex rejected a label edit.
type LabelWriteError struct {
	RatingKey string
	Label     string
	Op        string
	Err       error
}

func (e *LabelWriteError) Error() string {
	return fmt.Sprintf("plex %s label %q on %s: %v", e.Op, e.Label, e.RatingKey, e.Err)
}

func (e *LabelWriteError) Unwrap() error {
	return e.Err
}

// ConflictError reports that an add was refused because an exclusive label
// is already on the item.
type ConflictError struct {
	RatingKey string
	Label     string
	Present   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("plex add label %q on %s: %q present: %v", e.Label, e.RatingKey, e.Present, ErrConflictingLabel)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflictingLabel
}

// LabelStore reads and writes label tags on catalog items. Reads always hit
// the server; the catalog is the only source of truth and operators may edit
// labels at any time.
type LabelStore struct {
	client *Client
}

// NewLabelStore wraps a Plex client.
func NewLabelStore(client *Client) *LabelStore {
	return &LabelStore{client: client}
}

// Labels returns the live label set for item.
func (s *LabelStore) Labels(ctx context.Context, item Item) (LabelSet, error) {
	current, err := s.client.Metadata(ctx, item.RatingKey)
	if err != nil {
		return LabelSet{}, err
	}
	return current.Labels, nil
}

// AddLabel appends label to item, keeping every label already present. Plex
// replaces the label list on edit, so the current set is re-sent with the new
// tag appended. If the live set holds any of the exclusive labels nothing is
// written and the error wraps ErrConflictingLabel.
func (s *LabelStore) AddLabel(ctx context.Context, item Item, label string, exclusive ...string) error {
	label = strings.TrimSpace(label)
	current, err := s.client.Metadata(ctx, item.RatingKey)
	if err != nil {
		return &LabelWriteError{RatingKey: item.RatingKey, Label: label, Op: "add", Err: err}
	}
	for _, other := range exclusive {
		if current.Labels.Has(other) {
			return &ConflictError{RatingKey: item.RatingKey, Label: label, Present: strings.TrimSpace(other)}
		}
	}
	if current.Labels.Has(label) {
		return nil
	}
	if item.SectionKey == "" {
		item.SectionKey = current.SectionKey
	}

	query := url.Values{}
	for i, tag := range current.Labels.With(label).Tags() {
		query.Set(fmt.Sprintf("label[%d].tag.tag", i), tag)
	}
	query.Set("label.locked", "1")
	if err := s.client.editLabels(ctx, item, query); err != nil {
		return &LabelWriteError{RatingKey: item.RatingKey, Label: label, Op: "add", Err: err}
	}
	return nil
}

// RemoveLabel drops label from item, leaving other labels untouched.
func (s *LabelStore) RemoveLabel(ctx context.Context, item Item, label string) error {
	label = strings.TrimSpace(label)
	if item.SectionKey == "" {
		current, err := s.client.Metadata(ctx, item.RatingKey)
		if err != nil {
			return &LabelWriteError{RatingKey: item.RatingKey, Label: label, Op: "remove", Err: err}
		}
		item.SectionKey = current.SectionKey
	}

	query := url.Values{}
	query.Set("label[].tag.tag-", label)
	if err := s.client.editLabels(ctx, item, query); err != nil {
		return &LabelWriteError{RatingKey: item.RatingKey, Label: label, Op: "remove", Err: err}
	}
	return nil
}
