package testsupport

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
)

// PlexMovie is one movie served by FakePlex.
type PlexMovie struct {
	RatingKey string
	Title     string
	Year      int
	Summary   string
	Genres    []string
	Labels    []string
}

// PlexEdit records a label edit received by FakePlex.
type PlexEdit struct {
	RatingKey string
	Query     url.Values
}

// FakePlex is an in-memory Plex Media Server covering the endpoints the tagger uses.
type FakePlex struct {
	Server *httptest.Server
	Token  string

	mu             sync.Mutex
	sectionKey     string
	sectionTitle   string
	movies         []*PlexMovie
	edits          []PlexEdit
	failEdits      map[string]int
	butlerEndHour  string
	listFailStatus int
}

// FakePlexOption customizes a FakePlex.
type FakePlexOption func(*FakePlex)

// WithButlerEndHour sets the ButlerEndHour preference value. An empty value
// omits the preference entirely.
func WithButlerEndHour(value string) FakePlexOption {
	return func(f *FakePlex) {
		f.butlerEndHour = value
	}
}

// NewFakePlex starts a fake server with a single "Movies" section.
func NewFakePlex(t testing.TB, movies []PlexMovie, opts ...FakePlexOption) *FakePlex {
	t.Helper()
	fake := &FakePlex{
		Token:         "test-token",
		sectionKey:    "1",
		sectionTitle:  "Movies",
		failEdits:     map[string]int{},
		butlerEndHour: "5",
	}
	for i := range movies {
		movie := movies[i]
		fake.movies = append(fake.movies, &movie)
	}
	for _, opt := range opts {
		opt(fake)
	}
	fake.Server = httptest.NewServer(http.HandlerFunc(fake.serve))
	t.Cleanup(fake.Server.Close)
	return fake
}

// URL returns the server base URL.
func (f *FakePlex) URL() string {
	return f.Server.URL
}

// FailEdits makes the next n label edits for ratingKey fail with a 500.
func (f *FakePlex) FailEdits(ratingKey string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failEdits[ratingKey] = n
}

// FailListing makes catalog listings fail with the given status until reset with 0.
func (f *FakePlex) FailListing(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listFailStatus = status
}

// DeleteMovie removes a movie, as if it vanished mid-run.
func (f *FakePlex) DeleteMovie(ratingKey string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, movie := range f.movies {
		if movie.RatingKey == ratingKey {
			f.movies = append(f.movies[:i], f.movies[i+1:]...)
			return
		}
	}
}

// Labels returns the current labels for ratingKey.
func (f *FakePlex) Labels(ratingKey string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if movie := f.findLocked(ratingKey); movie != nil {
		return append([]string(nil), movie.Labels...)
	}
	return nil
}

// SetLabels overwrites the labels for ratingKey.
func (f *FakePlex) SetLabels(ratingKey string, labels ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if movie := f.findLocked(ratingKey); movie != nil {
		movie.Labels = append([]string(nil), labels...)
	}
}

// Edits returns every label edit received so far.
func (f *FakePlex) Edits() []PlexEdit {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]PlexEdit(nil), f.edits...)
}

func (f *FakePlex) findLocked(ratingKey string) *PlexMovie {
	for _, movie := range f.movies {
		if movie.RatingKey == ratingKey {
			return movie
		}
	}
	return nil
}

var metadataPath = regexp.MustCompile(`^/library/metadata/([^/]+)$`)

func (f *FakePlex) serve(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Plex-Token") != f.Token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	sectionBase := "/library/sections/" + f.sectionKey
	switch {
	case r.URL.Path == "/library/sections" && r.Method == http.MethodGet:
		writeXML(w, fmt.Sprintf(`<MediaContainer size="1"><Directory key=%q type="movie" title=%q/></MediaContainer>`, f.sectionKey, f.sectionTitle))
	case r.URL.Path == sectionBase+"/genre" && r.Method == http.MethodGet:
		f.serveGenres(w)
	case r.URL.Path == sectionBase+"/all" && r.Method == http.MethodGet:
		f.serveListing(w, r.URL.Query())
	case r.URL.Path == sectionBase+"/all" && r.Method == http.MethodPut:
		f.serveEdit(w, r.URL.Query())
	case r.URL.Path == "/:/prefs" && r.Method == http.MethodGet:
		if f.butlerEndHour == "" {
			writeXML(w, `<MediaContainer size="0"></MediaContainer>`)
			return
		}
		writeXML(w, fmt.Sprintf(`<MediaContainer size="1"><Setting id="ButlerEndHour" label="Time at which tasks stop running" default="5" value=%q type="int"/></MediaContainer>`, f.butlerEndHour))
	case metadataPath.MatchString(r.URL.Path) && r.Method == http.MethodGet:
		key := metadataPath.FindStringSubmatch(r.URL.Path)[1]
		movie := f.findLocked(key)
		if movie == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeXML(w, fmt.Sprintf(`<MediaContainer size="1" librarySectionID=%q>%s</MediaContainer>`, f.sectionKey, f.videoXML(movie)))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *FakePlex) genreIDs() []string {
	var names []string
	seen := map[string]bool{}
	for _, movie := range f.movies {
		for _, genre := range movie.Genres {
			if !seen[genre] {
				seen[genre] = true
				names = append(names, genre)
			}
		}
	}
	return names
}

func (f *FakePlex) serveGenres(w http.ResponseWriter) {
	var b strings.Builder
	b.WriteString(`<MediaContainer>`)
	for i, genre := range f.genreIDs() {
		fmt.Fprintf(&b, `<Directory key="%d" title=%q/>`, 100+i, genre)
	}
	b.WriteString(`</MediaContainer>`)
	writeXML(w, b.String())
}

func (f *FakePlex) serveListing(w http.ResponseWriter, query url.Values) {
	if f.listFailStatus != 0 {
		w.WriteHeader(f.listFailStatus)
		return
	}
	wantGenre := ""
	if id := query.Get("genre"); id != "" {
		for i, genre := range f.genreIDs() {
			if fmt.Sprint(100+i) == id {
				wantGenre = genre
			}
		}
		if wantGenre == "" {
			writeXML(w, `<MediaContainer size="0"></MediaContainer>`)
			return
		}
	}
	var b strings.Builder
	b.WriteString(`<MediaContainer>`)
	for _, movie := range f.movies {
		if wantGenre != "" && !contains(movie.Genres, wantGenre) {
			continue
		}
		b.WriteString(f.videoXML(movie))
	}
	b.WriteString(`</MediaContainer>`)
	writeXML(w, b.String())
}

func (f *FakePlex) serveEdit(w http.ResponseWriter, query url.Values) {
	key := query.Get("id")
	f.edits = append(f.edits, PlexEdit{RatingKey: key, Query: query})
	if n := f.failEdits[key]; n > 0 {
		f.failEdits[key] = n - 1
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	movie := f.findLocked(key)
	if movie == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if removed := query.Get("label[].tag.tag-"); removed != "" {
		kept := movie.Labels[:0]
		for _, label := range movie.Labels {
			if !strings.EqualFold(label, removed) {
				kept = append(kept, label)
			}
		}
		movie.Labels = kept
		w.WriteHeader(http.StatusOK)
		return
	}
	var labels []string
	for i := 0; ; i++ {
		value, ok := query[fmt.Sprintf("label[%d].tag.tag", i)]
		if !ok {
			break
		}
		labels = append(labels, value...)
	}
	movie.Labels = labels
	w.WriteHeader(http.StatusOK)
}

func (f *FakePlex) videoXML(movie *PlexMovie) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<Video ratingKey=%q librarySectionID=%q type="movie" title="%s" year="%d" summary="%s">`,
		movie.RatingKey, f.sectionKey, xmlEscape(movie.Title), movie.Year, xmlEscape(movie.Summary))
	for _, genre := range movie.Genres {
		fmt.Fprintf(&b, `<Genre tag="%s"/>`, xmlEscape(genre))
	}
	for _, label := range movie.Labels {
		fmt.Fprintf(&b, `<Label tag="%s"/>`, xmlEscape(label))
	}
	b.WriteString(`</Video>`)
	return b.String()
}

func writeXML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` + body))
}

func xmlEscape(value string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(value))
	return b.String()
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
