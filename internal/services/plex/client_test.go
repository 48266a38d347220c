package plex_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"plextagger/internal/services/plex"
	"plextagger/internal/testsupport"
)

func newClient(fake *testsupport.FakePlex) *plex.Client {
	return plex.NewClient(plex.Config{URL: fake.URL() + "/", Token: fake.Token})
}

func TestItemsInGenreFiltersByGenre(t *testing.T) {
	fake := testsupport.NewFakePlex(t, []testsupport.PlexMovie{
		{RatingKey: "10", Title: "Superbad", Year: 2007, Genres: []string{"Comedy"}},
		{RatingKey: "11", Title: "Heat", Year: 1995, Genres: []string{"Crime"}},
		{RatingKey: "12", Title: "Nate Bargatze: The Greatest Average American", Year: 2021, Summary: "Live on stage in Nashville.", Genres: []string{"Comedy"}, Labels: []string{"standup"}},
	})
	client := newClient(fake)

	items, err := client.ItemsInGenre(context.Background(), "movies", "comedy")
	if err != nil {
		t.Fatalf("ItemsInGenre returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 comedy items, got %d", len(items))
	}
	if items[0].RatingKey != "10" || items[1].RatingKey != "12" {
		t.Fatalf("expected catalog order preserved, got %+v", items)
	}
	if items[1].Summary != "Live on stage in Nashville." || items[1].Year != 2021 {
		t.Fatalf("unexpected item fields: %+v", items[1])
	}
	if !items[1].Labels.Has("STANDUP") {
		t.Fatalf("expected case-insensitive label match, got %v", items[1].Labels.Tags())
	}
	if items[0].SectionKey != "1" {
		t.Fatalf("expected section key on listed items, got %q", items[0].SectionKey)
	}
}

func TestItemsInGenreMissingGenreReturnsEmpty(t *testing.T) {
	fake := testsupport.NewFakePlex(t, []testsupport.PlexMovie{
		{RatingKey: "11", Title: "Heat", Genres: []string{"Crime"}},
	})
	items, err := newClient(fake).ItemsInGenre(context.Background(), "Movies", "Comedy")
	if err != nil {
		t.Fatalf("ItemsInGenre returned error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}

func TestItemsInGenreUnknownLibrary(t *testing.T) {
	fake := testsupport.NewFakePlex(t, nil)
	_, err := newClient(fake).ItemsInGenre(context.Background(), "TV Shows", "Comedy")
	if !errors.Is(err, plex.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClientRejectsBadToken(t *testing.T) {
	fake := testsupport.NewFakePlex(t, nil)
	client := plex.NewClient(plex.Config{URL: fake.URL(), Token: "wrong"})
	if err := client.Ping(context.Background()); !errors.Is(err, plex.ErrAuthorizationMissing) {
		t.Fatalf("expected ErrAuthorizationMissing, got %v", err)
	}
}

func TestListingFailureSurfaces(t *testing.T) {
	fake := testsupport.NewFakePlex(t, []testsupport.PlexMovie{{RatingKey: "1", Title: "Superbad", Genres: []string{"Comedy"}}})
	fake.FailListing(http.StatusServiceUnavailable)
	if _, err := newClient(fake).ItemsInGenre(context.Background(), "Movies", "Comedy"); err == nil {
		t.Fatal("expected listing failure")
	}
}

func TestMaintenanceEndHour(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int
		wantErr bool
	}{
		{name: "configured", value: "3", want: 3},
		{name: "missing", value: "", wantErr: true},
		{name: "garbage", value: "late", wantErr: true},
		{name: "out of range", value: "27", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testsupport.NewFakePlex(t, nil, testsupport.WithButlerEndHour(tt.value))
			hour, err := newClient(fake).MaintenanceEndHour(context.Background())
			if tt.wantErr {
				if !errors.Is(err, plex.ErrPreferenceUnavailable) {
					t.Fatalf("expected ErrPreferenceUnavailable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("MaintenanceEndHour returned error: %v", err)
			}
			if hour != tt.want {
				t.Fatalf("expected hour %d, got %d", tt.want, hour)
			}
		})
	}
}

func TestMetadataMissingItem(t *testing.T) {
	fake := testsupport.NewFakePlex(t, nil)
	if _, err := newClient(fake).Metadata(context.Background(), "404"); !errors.Is(err, plex.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
