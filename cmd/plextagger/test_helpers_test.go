package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"plextagger/internal/config"
	"plextagger/internal/testsupport"
)

// fakeOllama answers /api/generate requests. A prompt containing a key of
// replies gets that reply; anything else gets "no".
type fakeOllama struct {
	server *httptest.Server

	mu      sync.Mutex
	replies map[string]string
	prompts []string
}

func newFakeOllama(t *testing.T, replies map[string]string) *fakeOllama {
	t.Helper()
	f := &fakeOllama{replies: replies}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeOllama) endpoint() string {
	return f.server.URL + "/api/generate"
}

func (f *fakeOllama) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.prompts = append(f.prompts, req.Prompt)
	reply := "no"
	if strings.Contains(req.Prompt, "single word OK") {
		reply = "OK"
	}
	for key, value := range f.replies {
		if strings.Contains(req.Prompt, key) {
			reply = value
		}
	}
	f.mu.Unlock()
	_ = json.NewEncoder(w).Encode(map[string]any{"response": reply, "done": true})
}

func (f *fakeOllama) promptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type cliTestEnv struct {
	plex       *testsupport.FakePlex
	llm        *fakeOllama
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T, movies []testsupport.PlexMovie, replies map[string]string) *cliTestEnv {
	t.Helper()
	clearConfigEnv(t)

	env := &cliTestEnv{
		plex: testsupport.NewFakePlex(t, movies),
		llm:  newFakeOllama(t, replies),
	}
	env.cfg = testsupport.NewConfig(t,
		testsupport.WithPlex(env.plex),
		testsupport.WithLLMEndpoint(env.llm.endpoint()),
	)
	base := testsupport.BaseDir(env.cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	env.configPath = filepath.Join(base, "config.toml")
	testsupport.WriteConfig(t, env.cfg, env.configPath)
	return env
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PLEX_URL", "PLEX_TOKEN", "OLLAMA_URL", "LLM_API_KEY", "OPENROUTER_API_KEY", "NTFY_TOPIC", "NO_COLOR"} {
		t.Setenv(key, "")
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, args, configPath, "")
}

func runCLIWithInput(t *testing.T, args []string, configPath, input string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(input))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
