package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/db"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/output"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/remote"
	gndsync "github.com/cucerdariancatalin/contribution-ground-android/internal/sync"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const treesJob = `
id: trees
survey_id: s1
name: Tree inventory
tasks:
  - id: species
    label: Species
    type: text
    required: true
  - id: height
    label: Height (m)
    type: number
  - id: health
    label: Health
    type: multiple_choice
    cardinality: select_one
    options:
      - id: good
        label: Good
      - id: poor
        label: Poor
  - id: seen
    type: date
`

// setupProject initializes a project in a temp dir and points the CLI at it.
func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	database, err := db.Initialize(dir)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	database.Close()

	p := dir
	old := baseDirOverride
	baseDirOverride = &p
	t.Cleanup(func() { baseDirOverride = old })

	t.Setenv("GND_CONFIG_DIR", t.TempDir())
	for _, key := range []string{"GND_FIRESTORE_PROJECT", "GND_FIRESTORE_DATABASE", "GND_FIRESTORE_ENDPOINT", "FIRESTORE_EMULATOR_HOST", "GND_CREDENTIALS",
		"GND_FEATURES", "GND_FEATURE_STRICT_RESPONSES", "GND_FEATURE_SYNC_METRICS"} {
		t.Setenv(key, "")
	}
	return dir
}

// resetFlags returns every flag of the command tree to its default so
// tests do not leak values into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, child := range c.Commands() {
		resetFlags(child)
	}
}

// runCLI executes gnd with args and returns everything it printed.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	loiCreateFlags = loiFlags{}
	loiUpdateFlags = loiFlags{}
	loiDeleteFlags = loiFlags{}
	pendingStatus = syncStatusValue{}
	pendingType = mutationTypeValue{}

	var buf bytes.Buffer
	restore := output.SetWriter(&buf)
	defer restore()

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("gnd %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func importTrees(t *testing.T, dir string) {
	t.Helper()
	path := filepath.Join(dir, "trees.yaml")
	if err := os.WriteFile(path, []byte(treesJob), 0644); err != nil {
		t.Fatal(err)
	}
	mustRun(t, "job", "import", path)
}

func openProject(t *testing.T, dir string) *db.DB {
	t.Helper()
	database, err := db.Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// fakeRemote records applied mutations and fails the LOIs listed in failLOI.
type fakeRemote struct {
	mu      sync.Mutex
	applied []models.LOIMutation
	users   []models.User
	failLOI map[string]error
}

func (f *fakeRemote) ApplyMutation(ctx context.Context, m models.LOIMutation, user models.User) (*remote.WriteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failLOI[m.LOIID]; err != nil {
		return nil, err
	}
	f.applied = append(f.applied, m)
	f.users = append(f.users, user)
	return &remote.WriteResult{
		DocumentName: "projects/demo/databases/(default)/documents/surveys/" + m.SurveyID + "/lois/" + m.LOIID,
		CommitTime:   time.Now(),
		Deleted:      m.Type == models.MutationDelete,
	}, nil
}

func useFakeRemote(t *testing.T, f *fakeRemote) {
	t.Helper()
	old := newRemote
	newRemote = func(ctx context.Context, opts remote.Options) (remote.Remote, error) {
		if opts.ProjectID == "" {
			t.Errorf("remote built without project id")
		}
		return f, nil
	}
	t.Cleanup(func() { newRemote = old })
	t.Setenv("GND_FIRESTORE_PROJECT", "demo")
}

func TestInitCreatesStore(t *testing.T) {
	dir := t.TempDir()
	p := dir
	old := baseDirOverride
	baseDirOverride = &p
	defer func() { baseDirOverride = old }()

	if err := os.Mkdir(filepath.Join(dir, ".git"), 0755); err != nil {
		t.Fatal(err)
	}

	out := mustRun(t, "init", "--survey", "s1")
	if !strings.Contains(out, "INITIALIZED .gnd/") || !strings.Contains(out, "Active survey: s1") {
		t.Errorf("output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, ".gnd", "ground.db")); err != nil {
		t.Errorf("database missing: %v", err)
	}
	gitignore, _ := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if !strings.Contains(string(gitignore), ".gnd/") {
		t.Errorf(".gitignore = %q", gitignore)
	}

	out = mustRun(t, "init")
	if !strings.Contains(out, "already exists") {
		t.Errorf("second init output = %q", out)
	}
}

func TestCommandsRequireInit(t *testing.T) {
	dir := t.TempDir()
	old := baseDirOverride
	baseDirOverride = &dir
	defer func() { baseDirOverride = old }()

	_, err := runCLI(t, "job", "list")
	if !errors.Is(err, db.ErrNotInitialized) {
		t.Errorf("err = %v, want ErrNotInitialized", err)
	}
}

func TestJobImportListShow(t *testing.T) {
	dir := setupProject(t)
	importTrees(t, dir)

	out := mustRun(t, "job", "list")
	if !strings.Contains(out, "* trees") || !strings.Contains(out, "tasks=4") {
		t.Errorf("list output = %q", out)
	}

	out = mustRun(t, "job", "show", "trees", "--raw")
	if !strings.Contains(out, "# Tree inventory") || !strings.Contains(out, "`good` Good") {
		t.Errorf("show output = %q", out)
	}

	out = mustRun(t, "job", "show", "--json")
	var job models.Job
	if err := json.Unmarshal([]byte(out), &job); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if job.ID != "trees" || len(job.Tasks) != 4 {
		t.Errorf("job = %+v", job)
	}

	if _, err := runCLI(t, "job", "show", "missing"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("missing job err = %v", err)
	}
}

func TestSubmitStoresTypedResponses(t *testing.T) {
	dir := setupProject(t)
	importTrees(t, dir)

	out := mustRun(t, "submit", "--loi", "loi-1", "-r", "species=oak", "-r", "height=12.5", "-r", "health=good", "-r", "seen=2026-02-01")
	if !strings.Contains(out, "SUBMITTED") {
		t.Fatalf("submit output = %q", out)
	}

	database := openProject(t, dir)
	subs, err := database.ListSubmissions(db.SubmissionFilter{LOIID: "loi-1"})
	if err != nil || len(subs) != 1 {
		t.Fatalf("ListSubmissions = %v, %v", subs, err)
	}
	s := subs[0]
	if s.JobID != "trees" || s.SurveyID != "s1" || s.Responses.Len() != 4 {
		t.Errorf("submission = %+v", s)
	}
	if r, ok := s.Responses.Response("height"); !ok || !models.ResponsesEqual(r, models.NumberResponse{Value: 12.5}) {
		t.Errorf("height = %#v", r)
	}

	out = mustRun(t, "submission", "show", s.ID)
	for _, want := range []string{"Species: oak", "Height (m): 12.5", "Health: good"} {
		if !strings.Contains(out, want) {
			t.Errorf("show missing %q:\n%s", want, out)
		}
	}

	mustRun(t, "submission", "update", s.ID, "-r", "species=", "--remove", "seen")
	updated, _, err := database.GetSubmission(s.ID)
	if err != nil {
		t.Fatalf("GetSubmission: %v", err)
	}
	if updated.Responses.Has("seen") {
		t.Errorf("seen should be removed: %v", updated.Responses.TaskIDs())
	}
	if _, ok := updated.Responses.Response("species"); ok {
		t.Error("species should be cleared")
	}
	if updated.Responses.Len() != 2 {
		t.Errorf("updated responses = %v", updated.Responses.TaskIDs())
	}
}

func TestSubmitRejectsBadInput(t *testing.T) {
	dir := setupProject(t)
	importTrees(t, dir)

	out, err := runCLI(t, "submit", "trees", "--loi", "l", "-r", "specis=oak")
	if err == nil || !strings.Contains(out, "did you mean species") {
		t.Errorf("unknown task: err=%v out=%q", err, out)
	}

	if _, err := runCLI(t, "submit", "trees", "--loi", "l", "-r", "health=good,poor"); err == nil {
		t.Error("two options on select_one should fail")
	}
	if _, err := runCLI(t, "submit", "trees", "-r", "species=oak"); err == nil {
		t.Error("missing --loi should fail")
	}

	database := openProject(t, dir)
	subs, _ := database.ListSubmissions(db.SubmissionFilter{})
	if len(subs) != 0 {
		t.Errorf("rejected submits stored %d rows", len(subs))
	}
}

// storeRawResponses submits for loi-1 and then overwrites the stored
// responses column with raw.
func storeRawResponses(t *testing.T, dir, raw string) string {
	t.Helper()
	mustRun(t, "submit", "--loi", "loi-1", "-r", "species=oak")
	database := openProject(t, dir)
	subs, err := database.ListSubmissions(db.SubmissionFilter{LOIID: "loi-1"})
	if err != nil || len(subs) != 1 {
		t.Fatalf("ListSubmissions = %v, %v", subs, err)
	}
	if _, err := database.Conn().Exec(`UPDATE submissions SET responses = ? WHERE id = ?`, raw, subs[0].ID); err != nil {
		t.Fatal(err)
	}
	return subs[0].ID
}

func storedResponses(t *testing.T, dir, id string) string {
	t.Helper()
	var raw string
	if err := openProject(t, dir).Conn().QueryRow(`SELECT responses FROM submissions WHERE id = ?`, id).Scan(&raw); err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestSubmissionUpdateWarnsAboutUnreadableEntries(t *testing.T) {
	dir := setupProject(t)
	importTrees(t, dir)
	id := storeRawResponses(t, dir, `{"species":"oak","legacy_task":"keep me","height":"not-a-number"}`)

	out := mustRun(t, "submission", "update", id, "-r", "health=good")
	for _, want := range []string{"dropped response legacy_task", "dropped response height", "UPDATED"} {
		if !strings.Contains(out, want) {
			t.Errorf("update output missing %q:\n%s", want, out)
		}
	}
	if got := storedResponses(t, dir, id); got != `{"health":["good"],"species":"oak"}` {
		t.Errorf("stored responses = %s", got)
	}
}

func TestSubmissionUpdateStrictKeepsUnreadableEntries(t *testing.T) {
	dir := setupProject(t)
	importTrees(t, dir)
	raw := `{"species":"oak","legacy_task":"keep me","height":"not-a-number"}`
	id := storeRawResponses(t, dir, raw)
	mustRun(t, "config", "feature", "set", "strict_responses", "true")

	out, err := runCLI(t, "submission", "update", id, "-r", "health=good")
	if err == nil {
		t.Fatalf("strict update should fail, output:\n%s", out)
	}
	if !strings.Contains(out, "would be lost") || strings.Contains(out, "UPDATED") {
		t.Errorf("strict update output = %q", out)
	}
	if got := storedResponses(t, dir, id); got != raw {
		t.Errorf("stored responses changed to %s", got)
	}

	// A malformed document is refused the same way.
	if _, err := openProject(t, dir).Conn().Exec(`UPDATE submissions SET responses = '{"species":' WHERE id = ?`, id); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "submission", "update", id, "-r", "health=good"); err == nil {
		t.Error("strict update over a malformed document should fail")
	}
}

func TestLOICommandsQueueMutations(t *testing.T) {
	dir := setupProject(t)
	importTrees(t, dir)
	mustRun(t, "config", "set", "user.id", "u1")

	mustRun(t, "loi", "create", "--survey", "s1", "--loi", "loi-1", "--at", "45.5,-122.5")
	mustRun(t, "loi", "update", "--survey", "s1", "--loi", "loi-1",
		"--vertex", "0,0", "--vertex", "0,1", "--vertex", "1,1", "--when", "2026-01-02T03:04:05Z")
	mustRun(t, "loi", "delete", "loi-1", "--survey", "s1")

	if _, err := runCLI(t, "loi", "create", "--survey", "s1"); err == nil {
		t.Error("create without geometry should fail")
	}
	if _, err := runCLI(t, "loi", "create", "--survey", "s1", "--at", "95,0"); err == nil {
		t.Error("out of range point should fail")
	}

	database := openProject(t, dir)
	queued, err := database.ListLOIMutations()
	if err != nil {
		t.Fatalf("ListLOIMutations: %v", err)
	}
	if len(queued) != 3 {
		t.Fatalf("queued %d mutations, want 3", len(queued))
	}

	byType := make(map[models.MutationType]models.LOIMutation)
	for _, m := range queued {
		byType[m.Type] = m
		if m.SyncStatus != models.SyncPending || m.UserID != "u1" || m.JobID != "trees" {
			t.Errorf("mutation = %+v", m)
		}
	}
	if c := byType[models.MutationCreate]; !c.Location.Valid || c.Location.Point.Latitude != 45.5 {
		t.Errorf("create location = %+v", c.Location)
	}
	u := byType[models.MutationUpdate]
	if len(u.PolygonVertices) != 3 || u.PolygonVertices[1] != (models.Point{Latitude: 0, Longitude: 1}) {
		t.Errorf("update vertices = %+v", u.PolygonVertices)
	}
	if !u.ClientTimestamp.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("update timestamp = %v", u.ClientTimestamp)
	}

	out := mustRun(t, "loi", "pending", "--type", "delete")
	if strings.Count(out, "loi=loi-1") != 1 || !strings.Contains(out, "delete") {
		t.Errorf("pending --type delete = %q", out)
	}
	if _, err := runCLI(t, "loi", "pending", "--type", "move"); err == nil {
		t.Error("unknown --type should fail flag parsing")
	}
}

func TestSyncPushesQueue(t *testing.T) {
	dir := setupProject(t)
	importTrees(t, dir)
	fake := &fakeRemote{}
	useFakeRemote(t, fake)
	mustRun(t, "config", "set", "user.display_name", "Ana")

	mustRun(t, "loi", "create", "--survey", "s1", "--loi", "a", "--at", "1,2", "--user", "u1")
	mustRun(t, "loi", "delete", "a", "--survey", "s1", "--user", "u1")

	metrics := filepath.Join(t.TempDir(), "gnd.prom")
	out := mustRun(t, "sync", "--metrics-file", metrics)
	if !strings.Contains(out, "Pushed 2 of 2") || !strings.Contains(out, "0 still queued") {
		t.Errorf("sync output = %q", out)
	}
	if len(fake.applied) != 2 || fake.applied[0].Type != models.MutationCreate || fake.applied[1].Type != models.MutationDelete {
		t.Fatalf("applied = %+v", fake.applied)
	}
	if fake.users[0].DisplayName != "Ana" || fake.users[0].ID != "u1" {
		t.Errorf("acting user = %+v", fake.users[0])
	}

	database := openProject(t, dir)
	all, _ := database.ListLOIMutations(models.SyncCompleted)
	if len(all) != 2 || all[0].SyncedAt == nil {
		t.Errorf("completed = %+v", all)
	}
	history, _ := database.GetSyncHistoryTail(10)
	if len(history) != 2 || history[0].EntityID != "a" || history[0].Status != "completed" {
		t.Errorf("history = %+v", history)
	}
	if data, err := os.ReadFile(metrics); err != nil || !strings.Contains(string(data), "gnd_") {
		t.Errorf("metrics file: %v\n%s", err, data)
	}

	out = mustRun(t, "sync")
	if !strings.Contains(out, "Nothing to push") {
		t.Errorf("second sync = %q", out)
	}
}

func TestSyncHoldsBackAfterFailure(t *testing.T) {
	dir := setupProject(t)
	importTrees(t, dir)
	fake := &fakeRemote{failLOI: map[string]error{"bad": remote.ErrUnauthorized}}
	useFakeRemote(t, fake)

	mustRun(t, "loi", "create", "--survey", "s1", "--loi", "bad", "--at", "1,1", "--when", "2026-01-01T00:00:00Z")
	mustRun(t, "loi", "update", "--survey", "s1", "--loi", "bad", "--at", "1,2", "--when", "2026-01-01T00:01:00Z")
	mustRun(t, "loi", "create", "--survey", "s1", "--loi", "good", "--at", "2,2", "--when", "2026-01-01T00:02:00Z")

	out, err := runCLI(t, "sync")
	if err == nil || !errors.Is(err, remote.ErrUnauthorized) {
		t.Errorf("sync err = %v", err)
	}
	if !strings.Contains(out, "Pushed 1 of 3") || !strings.Contains(out, "1 held back") {
		t.Errorf("sync output = %q", out)
	}

	database := openProject(t, dir)
	failed, _ := database.ListLOIMutations(models.SyncFailed)
	if len(failed) != 1 || failed[0].LOIID != "bad" || failed[0].RetryCount != 1 {
		t.Errorf("failed = %+v", failed)
	}
	pending, _ := database.ListLOIMutations(models.SyncPending)
	if len(pending) != 1 || pending[0].Type != models.MutationUpdate {
		t.Errorf("pending = %+v", pending)
	}

	out = mustRun(t, "sync", "--status")
	if !strings.Contains(out, "Failed:      1") || !strings.Contains(out, "Pending:     1") {
		t.Errorf("status = %q", out)
	}
}

func TestSyncDryRunPrintsRemoteFields(t *testing.T) {
	dir := setupProject(t)
	importTrees(t, dir)
	mustRun(t, "loi", "create", "--survey", "s1", "--loi", "a", "--at", "1,2", "--user", "u1",
		"--vertex", "0,0", "--vertex", "0,1", "--vertex", "1,1")
	mustRun(t, "loi", "delete", "a", "--survey", "s1")

	out := mustRun(t, "sync", "--dry-run")
	var entries []dryRunEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %+v", entries)
	}

	create := entries[0]
	if create.Document != "surveys/s1/lois/a" || create.Error != "" {
		t.Errorf("create entry = %+v", create)
	}
	fields := create.Fields.(map[string]any)
	if fields["jobId"] != "trees" {
		t.Errorf("jobId = %v", fields["jobId"])
	}
	geometry := fields["geometry"].(map[string]any)
	if geometry["type"] != "Polygon" || len(geometry["coordinates"].([]any)) != 3 {
		t.Errorf("geometry = %v", geometry)
	}
	created := fields["created"].(map[string]any)
	if created["serverTimestamp"] != "<server timestamp>" {
		t.Errorf("created = %v", created)
	}
	if !entries[1].Delete || entries[1].Fields != nil {
		t.Errorf("delete entry = %+v", entries[1])
	}

	database := openProject(t, dir)
	pending, _ := database.ListLOIMutations(models.SyncPending)
	if len(pending) != 2 {
		t.Errorf("dry run changed the queue: %d pending", len(pending))
	}
}

func TestSyncDryRunMatchesWhatSyncWouldPush(t *testing.T) {
	dir := setupProject(t)
	importTrees(t, dir)
	mustRun(t, "loi", "create", "--survey", "s1", "--loi", "a", "--at", "1,2", "--when", "2026-01-01T10:00:00Z")
	mustRun(t, "loi", "update", "--survey", "s1", "--loi", "a", "--at", "1,3", "--when", "2026-01-01T11:00:00Z")
	mustRun(t, "loi", "create", "--survey", "s1", "--loi", "b", "--at", "5,5", "--when", "2026-01-01T12:00:00Z")

	database := openProject(t, dir)
	if _, err := database.Conn().Exec(`UPDATE loi_mutations SET sync_status = ?, retry_count = ? WHERE loi_id = 'a' AND type = 'create'`,
		string(models.SyncFailed), gndsync.MaxRetries); err != nil {
		t.Fatal(err)
	}

	out := mustRun(t, "sync", "--dry-run")
	var entries []dryRunEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(entries) != 1 || entries[0].Document != "surveys/s1/lois/b" {
		t.Fatalf("dry run entries = %+v, want only loi b", entries)
	}

	f := &fakeRemote{}
	useFakeRemote(t, f)
	mustRun(t, "sync")
	if len(f.applied) != 1 || f.applied[0].LOIID != "b" {
		t.Errorf("sync pushed %+v", f.applied)
	}
}

func TestSyncRefusesConcurrentRun(t *testing.T) {
	dir := setupProject(t)
	database := openProject(t, dir)

	release, err := database.AcquireSyncLock()
	if err != nil {
		t.Fatalf("AcquireSyncLock: %v", err)
	}
	defer release()

	_, err = pushPending(context.Background(), database, &fakeRemote{}, pushOptions{})
	if !errors.Is(err, db.ErrSyncInProgress) {
		t.Errorf("err = %v, want ErrSyncInProgress", err)
	}
}

func TestSyncRequiresProject(t *testing.T) {
	setupProject(t)
	_, err := runCLI(t, "sync")
	if err == nil || !strings.Contains(err.Error(), "not configured") {
		t.Errorf("err = %v", err)
	}
}

func TestConfigCommands(t *testing.T) {
	setupProject(t)

	mustRun(t, "config", "set", "firestore.project", "field-demo")
	if out := mustRun(t, "config", "get", "firestore.project"); strings.TrimSpace(out) != "field-demo" {
		t.Errorf("get = %q", out)
	}

	out, err := runCLI(t, "config", "set", "firestore.projct", "x")
	if err == nil || !strings.Contains(out, "did you mean firestore.project") {
		t.Errorf("typo: err=%v out=%q", err, out)
	}

	if _, err := runCLI(t, "config", "set", "sync.batch_size", "--", "-3"); err == nil {
		t.Error("negative batch size should fail")
	}

	mustRun(t, "config", "feature", "set", "strict_responses", "true")
	out = mustRun(t, "config", "feature", "list")
	if !strings.Contains(out, "strict_responses") || !strings.Contains(out, "(config)") {
		t.Errorf("feature list = %q", out)
	}
	if _, err := runCLI(t, "config", "feature", "set", "nope", "true"); err == nil {
		t.Error("unknown feature should fail")
	}
}

func TestNormalizeWorkDir(t *testing.T) {
	if got := normalizeWorkDir("/data/plots/.gnd"); got != "/data/plots" {
		t.Errorf("normalizeWorkDir(.gnd) = %q", got)
	}
	if got := normalizeWorkDir("/data/plots/"); got != "/data/plots" {
		t.Errorf("normalizeWorkDir(dir) = %q", got)
	}
}

func TestFlagValues(t *testing.T) {
	var p pointValue
	if err := p.Set("1.5,-2"); err != nil || p.String() != "1.5,-2" {
		t.Errorf("point = %q, %v", p.String(), err)
	}
	if err := p.Set("x"); err == nil {
		t.Error("bad point accepted")
	}

	var list pointListValue
	_ = list.Set("0,0")
	_ = list.Set("1,1")
	if len(list.points) != 2 || list.String() != "[0,0 1,1]" {
		t.Errorf("list = %s", list.String())
	}

	var mt mutationTypeValue
	if err := mt.Set("EDIT"); err != nil || mt.t != models.MutationUpdate {
		t.Errorf("type = %v, %v", mt.t, err)
	}
	if err := mt.Set("move"); err == nil {
		t.Error("unknown type accepted")
	}

	var st syncStatusValue
	if err := st.Set("Failed"); err != nil || st.s != models.SyncFailed {
		t.Errorf("status = %v, %v", st.s, err)
	}
	if err := st.Set("done"); err == nil {
		t.Error("unknown status accepted")
	}
}
