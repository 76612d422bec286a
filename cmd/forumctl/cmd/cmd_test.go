package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forumdb/pkg/forum"
	"forumdb/pkg/store/db"
)

func seedStore(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "store")
	s, err := db.Open(db.Options{Path: dir})
	require.NoError(t, err)
	f, err := forum.New(s)
	require.NoError(t, err)
	for _, name := range []string{"admin", "ann"} {
		_, err := f.CreateUser(name, "hash")
		require.NoError(t, err)
	}
	require.NoError(t, s.Close())
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestInspectListsNamespaces(t *testing.T) {
	dir := seedStore(t)
	out, err := run(t, "inspect", "--db", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "NAMESPACE")
	assert.Regexp(t, `(?m)^usernames\s+2\s+registered$`, out)
	assert.Regexp(t, `(?m)^solos\s+0\s+registered$`, out)
}

func TestInspectNamespaceRows(t *testing.T) {
	dir := seedStore(t)
	out, err := run(t, "inspect", "--db", dir, "--ns", "usernames")
	require.NoError(t, err)
	assert.Equal(t, "admin\t1\nann\t2\n", out)

	out, err = run(t, "inspect", "--db", dir, "--ns", "usernames", "--n", "1", "--desc")
	require.NoError(t, err)
	assert.Equal(t, "ann\t2\n... more rows from --anchor 1\n", out)

	out, err = run(t, "inspect", "--db", dir, "--ns", "usernames", "--json")
	require.NoError(t, err)
	var body struct {
		Namespace string `json:"namespace"`
		Rows      []struct {
			Key string `json:"key"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "usernames", body.Namespace)
	assert.Len(t, body.Rows, 2)
}

func TestInspectErrors(t *testing.T) {
	dir := seedStore(t)
	_, err := run(t, "inspect", "--db", dir, "--ns", "nope")
	assert.ErrorContains(t, err, "unknown namespace")

	_, err = run(t, "inspect", "--db", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	dir := seedStore(t)
	outPath := filepath.Join(t.TempDir(), "dump.json")

	out, err := run(t, "export", "--db", dir, "--out", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "to "+outPath)

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var dump struct {
		Source     string `json:"source"`
		Namespaces map[string][]struct {
			Key   string `json:"key"`
			Value any    `json:"value"`
		} `json:"namespaces"`
	}
	require.NoError(t, json.Unmarshal(raw, &dump))
	assert.Equal(t, dir, dump.Source)
	assert.Len(t, dump.Namespaces, len(forum.AllNamespaces))

	var keys []string
	for _, r := range dump.Namespaces[forum.NsUsernames] {
		keys = append(keys, r.Key)
	}
	if diff := cmp.Diff([]string{"admin", "ann"}, keys); diff != "" {
		t.Errorf("usernames (-want +got):\n%s", diff)
	}
	assert.Empty(t, dump.Namespaces[forum.NsSolos])
	assert.NotNil(t, dump.Namespaces[forum.NsSolos])

	_, err = run(t, "export", "--db", dir)
	assert.ErrorContains(t, err, "--out")
}

func TestExportYAML(t *testing.T) {
	dir := seedStore(t)
	outPath := filepath.Join(t.TempDir(), "dump.yaml")
	_, err := run(t, "export", "--db", dir, "--out", outPath, "--format", "yaml")
	require.NoError(t, err)

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var dump struct {
		Source     string                      `yaml:"source"`
		Namespaces map[string][]map[string]any `yaml:"namespaces"`
	}
	require.NoError(t, yaml.Unmarshal(raw, &dump))
	assert.Equal(t, dir, dump.Source)
	require.Len(t, dump.Namespaces[forum.NsUsernames], 2)
	assert.Equal(t, "admin", dump.Namespaces[forum.NsUsernames][0]["key"])

	_, err = run(t, "export", "--db", dir, "--out", outPath, "--format", "xml")
	assert.ErrorContains(t, err, "--format")
}
