package scan_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"plextagger/internal/classifier"
	"plextagger/internal/logging"
	"plextagger/internal/scan"
	"plextagger/internal/services/llm"
	"plextagger/internal/services/plex"
	"plextagger/internal/testsupport"
)

type stubClassifier struct {
	mu       sync.Mutex
	verdicts map[string]classifier.Verdict
	calls    []string
}

func (s *stubClassifier) Classify(_ context.Context, item classifier.Item) classifier.Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, item.Title)
	return s.verdicts[item.Title]
}

func (s *stubClassifier) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

const (
	bargatze = "Nate Bargatze: The Greatest Average American"
	superbad = "Superbad"
)

func comedyCatalog() []testsupport.PlexMovie {
	return []testsupport.PlexMovie{
		{RatingKey: "10", Title: bargatze, Year: 2021, Summary: "Live on stage in Nashville.", Genres: []string{"Comedy"}},
		{RatingKey: "11", Title: superbad, Year: 2007, Summary: "Two high school seniors plan a party.", Genres: []string{"Comedy"}},
		{RatingKey: "12", Title: "Dave Chappelle: Sticks & Stones", Genres: []string{"Comedy"}, Labels: []string{"standup"}},
		{RatingKey: "13", Title: "Mystery Special", Genres: []string{"Comedy"}},
		{RatingKey: "14", Title: "Heat", Genres: []string{"Crime"}},
	}
}

func newRunner(fake *testsupport.FakePlex, cls scan.Classifier, opts scan.Options) *scan.Runner {
	client := plex.NewClient(plex.Config{URL: fake.URL(), Token: fake.Token})
	if opts.Library == "" {
		opts.Library = "Movies"
	}
	if opts.Genre == "" {
		opts.Genre = "Comedy"
	}
	return scan.NewRunner(client, plex.NewLabelStore(client), cls, logging.NewNop(), opts)
}

func defaultVerdicts() *stubClassifier {
	return &stubClassifier{verdicts: map[string]classifier.Verdict{
		bargatze:          classifier.Standup,
		superbad:          classifier.NotStandup,
		"Mystery Special": classifier.Unknown,
	}}
}

func TestRunLabelsComedyItems(t *testing.T) {
	fake := testsupport.NewFakePlex(t, comedyCatalog())
	cls := defaultVerdicts()
	runner := newRunner(fake, cls, scan.Options{})

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := fake.Labels("10"); !reflect.DeepEqual(got, []string{"standup"}) {
		t.Fatalf("bargatze labels = %v", got)
	}
	if got := fake.Labels("11"); !reflect.DeepEqual(got, []string{"verified_not_standup"}) {
		t.Fatalf("superbad labels = %v", got)
	}
	if got := fake.Labels("12"); !reflect.DeepEqual(got, []string{"standup"}) {
		t.Fatalf("pre-labeled item changed: %v", got)
	}
	if got := fake.Labels("13"); len(got) != 0 {
		t.Fatalf("unknown item should stay unlabeled, got %v", got)
	}
	if got := fake.Labels("14"); len(got) != 0 {
		t.Fatalf("non-comedy item touched: %v", got)
	}

	for _, title := range cls.Calls() {
		if title == "Dave Chappelle: Sticks & Stones" || title == "Heat" {
			t.Fatalf("classifier invoked for %q", title)
		}
	}

	want := scan.Summary{Processed: 4, Skipped: 1, Standup: 1, NotStandup: 1, Unknown: 1}
	if report.Summary != want {
		t.Fatalf("summary = %+v, want %+v", report.Summary, want)
	}
	if report.RunID == "" || report.FinishedAt.Before(report.StartedAt) {
		t.Fatalf("unexpected report metadata: %+v", report)
	}
	if len(report.Outcomes) != 4 || report.Outcomes[0].Item.RatingKey != "10" {
		t.Fatalf("expected outcomes in catalog order, got %+v", report.Outcomes)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	fake := testsupport.NewFakePlex(t, comedyCatalog())
	cls := defaultVerdicts()
	runner := newRunner(fake, cls, scan.Options{})

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("first Run returned error: %v", err)
	}
	editsAfterFirst := len(fake.Edits())
	firstCalls := len(cls.Calls())

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run returned error: %v", err)
	}
	if got := len(fake.Edits()); got != editsAfterFirst {
		t.Fatalf("second run wrote labels: %d edits, want %d", got, editsAfterFirst)
	}
	secondCalls := cls.Calls()[firstCalls:]
	if !reflect.DeepEqual(secondCalls, []string{"Mystery Special"}) {
		t.Fatalf("second run should only reconsider the unknown item, got %v", secondCalls)
	}
	want := scan.Summary{Processed: 4, Skipped: 3, Unknown: 1}
	if report.Summary != want {
		t.Fatalf("summary = %+v, want %+v", report.Summary, want)
	}
}

func TestRunReconsidersUnknownOnNextRun(t *testing.T) {
	fake := testsupport.NewFakePlex(t, []testsupport.PlexMovie{
		{RatingKey: "13", Title: "Mystery Special", Genres: []string{"Comedy"}},
	})
	cls := &stubClassifier{verdicts: map[string]classifier.Verdict{"Mystery Special": classifier.Unknown}}
	runner := newRunner(fake, cls, scan.Options{})
	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	cls.mu.Lock()
	cls.verdicts["Mystery Special"] = classifier.Standup
	cls.mu.Unlock()
	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := fake.Labels("13"); !reflect.DeepEqual(got, []string{"standup"}) {
		t.Fatalf("expected item labeled on retry, got %v", got)
	}
}

func TestRunRepairsConflictingLabels(t *testing.T) {
	fake := testsupport.NewFakePlex(t, []testsupport.PlexMovie{
		{RatingKey: "20", Title: "Ambiguous", Genres: []string{"Comedy"}, Labels: []string{"standup", "favorites", "verified_not_standup"}},
	})
	cls := &stubClassifier{}
	report, err := newRunner(fake, cls, scan.Options{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := fake.Labels("20"); !reflect.DeepEqual(got, []string{"favorites", "verified_not_standup"}) {
		t.Fatalf("unexpected labels after repair: %v", got)
	}
	if len(cls.Calls()) != 0 {
		t.Fatalf("classifier should not run for conflicting items, got %v", cls.Calls())
	}
	if report.Summary.ConflictsResolved != 1 || report.Summary.Processed != 1 {
		t.Fatalf("unexpected summary %+v", report.Summary)
	}
}

// racingClassifier stands in for an operator tagging the item while the model
// call is in flight.
type racingClassifier struct {
	fake    *testsupport.FakePlex
	key     string
	labels  []string
	verdict classifier.Verdict
}

func (c *racingClassifier) Classify(context.Context, classifier.Item) classifier.Verdict {
	c.fake.SetLabels(c.key, c.labels...)
	return c.verdict
}

func TestRunKeepsLabelAddedDuringClassification(t *testing.T) {
	fake := testsupport.NewFakePlex(t, []testsupport.PlexMovie{
		{RatingKey: "30", Title: "Late Edit", Genres: []string{"Comedy"}},
	})
	cls := &racingClassifier{fake: fake, key: "30", labels: []string{"verified_not_standup"}, verdict: classifier.Standup}

	report, err := newRunner(fake, cls, scan.Options{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := fake.Labels("30"); !reflect.DeepEqual(got, []string{"verified_not_standup"}) {
		t.Fatalf("expected only the concurrent label, got %v", got)
	}
	if len(fake.Edits()) != 0 {
		t.Fatalf("expected no label writes, got %+v", fake.Edits())
	}
	want := scan.Summary{Processed: 1, Skipped: 1}
	if report.Summary != want {
		t.Fatalf("summary = %+v, want %+v", report.Summary, want)
	}
	if out := report.Outcomes[0]; out.Action != scan.ActionSkipped || out.Label != "verified_not_standup" || out.Err != nil {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestRunLabelWriteFailureIsPerItem(t *testing.T) {
	fake := testsupport.NewFakePlex(t, comedyCatalog())
	fake.FailEdits("10", 1)
	cls := defaultVerdicts()
	runner := newRunner(fake, cls, scan.Options{})

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Summary.Failed != 1 || report.Summary.NotStandup != 1 {
		t.Fatalf("unexpected summary %+v", report.Summary)
	}
	var writeErr *plex.LabelWriteError
	if !errors.As(report.Outcomes[0].Err, &writeErr) {
		t.Fatalf("expected LabelWriteError outcome, got %v", report.Outcomes[0].Err)
	}
	if got := fake.Labels("10"); len(got) != 0 {
		t.Fatalf("failed item should stay unlabeled, got %v", got)
	}

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := fake.Labels("10"); !reflect.DeepEqual(got, []string{"standup"}) {
		t.Fatalf("expected label on next run, got %v", got)
	}
}

func TestRunCatalogFetchFailure(t *testing.T) {
	fake := testsupport.NewFakePlex(t, comedyCatalog())
	fake.FailListing(http.StatusServiceUnavailable)
	cls := defaultVerdicts()
	runner := newRunner(fake, cls, scan.Options{})

	_, err := runner.Run(context.Background())
	if !errors.Is(err, scan.ErrCatalogFetch) {
		t.Fatalf("expected ErrCatalogFetch, got %v", err)
	}
	if len(cls.Calls()) != 0 || len(fake.Edits()) != 0 {
		t.Fatal("aborted run should not classify or write")
	}

	fake.FailListing(0)
	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("next run should proceed, got %v", err)
	}
}

func TestRunUnknownLibraryIsCatalogFetchError(t *testing.T) {
	fake := testsupport.NewFakePlex(t, comedyCatalog())
	_, err := newRunner(fake, defaultVerdicts(), scan.Options{Library: "TV Shows"}).Run(context.Background())
	if !errors.Is(err, scan.ErrCatalogFetch) || !errors.Is(err, plex.ErrNotFound) {
		t.Fatalf("expected ErrCatalogFetch wrapping ErrNotFound, got %v", err)
	}
}

func TestRunClassifierTimeoutLeavesItemUnlabeled(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)

	fake := testsupport.NewFakePlex(t, []testsupport.PlexMovie{
		{RatingKey: "10", Title: bargatze, Genres: []string{"Comedy"}},
	})
	llmClient := llm.NewClient(llm.Config{BaseURL: slow.URL, Model: "llama3", Timeout: 20 * time.Millisecond}, llm.WithRetryMaxAttempts(1))
	cls := classifier.New(llmClient, logging.NewNop())

	report, err := newRunner(fake, cls, scan.Options{}).Run(context.Background())
	if err != nil {
		t.Fatalf("timeout must not be fatal, got %v", err)
	}
	if report.Summary.Unknown != 1 {
		t.Fatalf("expected unknown count 1, got %+v", report.Summary)
	}
	if got := fake.Labels("10"); len(got) != 0 {
		t.Fatalf("expected no label, got %v", got)
	}
}

type failingLabels struct{}

func (failingLabels) Labels(context.Context, plex.Item) (plex.LabelSet, error) {
	return plex.LabelSet{}, plex.ErrNotFound
}

func (failingLabels) AddLabel(context.Context, plex.Item, string, ...string) error { return nil }

func (failingLabels) RemoveLabel(context.Context, plex.Item, string) error { return nil }

func TestRunLabelReadFailureIsPerItem(t *testing.T) {
	fake := testsupport.NewFakePlex(t, comedyCatalog())
	client := plex.NewClient(plex.Config{URL: fake.URL(), Token: fake.Token})
	cls := defaultVerdicts()
	runner := scan.NewRunner(client, failingLabels{}, cls, nil, scan.Options{Library: "Movies", Genre: "Comedy"})

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Summary.Failed != 4 || report.Summary.Processed != 4 {
		t.Fatalf("unexpected summary %+v", report.Summary)
	}
	if len(cls.Calls()) != 0 {
		t.Fatalf("classifier should not run without label state, got %v", cls.Calls())
	}
}

func TestRunStopsWhenCancelled(t *testing.T) {
	fake := testsupport.NewFakePlex(t, comedyCatalog())
	ctx, cancel := context.WithCancel(context.Background())
	cls := &cancellingClassifier{cancel: cancel}
	report, err := newRunner(fake, cls, scan.Options{}).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report.Summary.Processed != 1 {
		t.Fatalf("expected to stop after the first item, got %+v", report.Summary)
	}
}

type cancellingClassifier struct {
	cancel context.CancelFunc
}

func (c *cancellingClassifier) Classify(context.Context, classifier.Item) classifier.Verdict {
	c.cancel()
	return classifier.Unknown
}

type blockingClassifier struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingClassifier) Classify(context.Context, classifier.Item) classifier.Verdict {
	b.entered <- struct{}{}
	<-b.release
	return classifier.Unknown
}

func TestRunSkipsWhenAlreadyRunning(t *testing.T) {
	fake := testsupport.NewFakePlex(t, []testsupport.PlexMovie{
		{RatingKey: "13", Title: "Mystery Special", Genres: []string{"Comedy"}},
	})
	cls := &blockingClassifier{entered: make(chan struct{}, 1), release: make(chan struct{})}
	runner := newRunner(fake, cls, scan.Options{})

	done := make(chan error, 1)
	go func() {
		_, err := runner.Run(context.Background())
		done <- err
	}()
	<-cls.entered

	if _, err := runner.Run(context.Background()); !errors.Is(err, scan.ErrScanInProgress) {
		t.Fatalf("expected ErrScanInProgress, got %v", err)
	}
	close(cls.release)
	if err := <-done; err != nil {
		t.Fatalf("first run returned error: %v", err)
	}
}

func TestGuardLockFileExcludesOtherGuards(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.lock")
	first := scan.NewGuard(path)
	second := scan.NewGuard(path)

	release, err := first.TryAcquire()
	if err != nil {
		t.Fatalf("TryAcquire returned error: %v", err)
	}
	if !first.Running() {
		t.Fatal("expected first guard to report running")
	}
	if _, err := second.TryAcquire(); !errors.Is(err, scan.ErrScanInProgress) {
		t.Fatalf("expected ErrScanInProgress from second guard, got %v", err)
	}
	release()

	releaseSecond, err := second.TryAcquire()
	if err != nil {
		t.Fatalf("expected second guard to acquire after release, got %v", err)
	}
	releaseSecond()
}

func TestReset(t *testing.T) {
	fake := testsupport.NewFakePlex(t, []testsupport.PlexMovie{
		{RatingKey: "10", Title: bargatze, Genres: []string{"Comedy"}, Labels: []string{"standup", "favorites"}},
		{RatingKey: "11", Title: superbad, Genres: []string{"Comedy"}, Labels: []string{"verified_not_standup"}},
		{RatingKey: "14", Title: "Heat", Genres: []string{"Crime"}, Labels: []string{"4k"}},
	})
	runner := newRunner(fake, &stubClassifier{}, scan.Options{})

	report, err := runner.Reset(context.Background())
	if err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	if report.Examined != 3 || report.Cleared != 2 || report.Failed != 0 {
		t.Fatalf("unexpected reset report %+v", report)
	}
	if got := fake.Labels("10"); !reflect.DeepEqual(got, []string{"favorites"}) {
		t.Fatalf("unexpected labels for 10: %v", got)
	}
	if got := fake.Labels("11"); len(got) != 0 {
		t.Fatalf("unexpected labels for 11: %v", got)
	}
	if got := fake.Labels("14"); !reflect.DeepEqual(got, []string{"4k"}) {
		t.Fatalf("unmanaged labels changed: %v", got)
	}
}
