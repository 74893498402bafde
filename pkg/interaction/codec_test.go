package interaction

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/getmockd/mitmcore/pkg/httpvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInteractionFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadDefaultsMatchWhenKeyAbsent(t *testing.T) {
	dir := t.TempDir()
	path := writeInteractionFile(t, dir, "interaction_0.yaml", `
request:
  url: https://api.example.com/widgets
  method: GET
response:
  status:
    code: 200
  body: ok
`)

	in, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "interaction_0", in.Name)
	assert.Equal(t, DefaultExactFields, in.Match.Exact)
	assert.Empty(t, in.Match.Regex)
	assert.Equal(t, Unlimited, in.MaxReplays)
	assert.Equal(t, "https://api.example.com/widgets", in.Request.URL)
	assert.Equal(t, 200, in.Response.StatusCode)
	assert.Equal(t, "ok", in.Response.BodyText())
}

func TestLoadEmptyMatchBlockMeansNoFields(t *testing.T) {
	dir := t.TempDir()
	path := writeInteractionFile(t, dir, "interaction_1.yaml", `
request:
  url: https://api.example.com/widgets
  method: GET
response:
  status:
    code: 200
match: {}
`)

	in, err := Load(path)
	require.NoError(t, err)

	assert.Empty(t, in.Match.Exact)
	assert.Empty(t, in.Match.Regex)
}

func TestLoadMatchWithExactAndRegexFields(t *testing.T) {
	dir := t.TempDir()
	path := writeInteractionFile(t, dir, "interaction_2.yaml", `
request:
  url: https://api.example.com/widgets
  method: POST
response:
  status:
    code: 201
match:
  exact:
    - method
  regex:
    url: 'https://api\.example\.com/.*'
`)

	in, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"method"}, in.Match.Exact)
	assert.Equal(t, map[string]string{"url": `https://api\.example\.com/.*`}, in.Match.Regex)
}

func TestLoadCallbackDelayDefaultsWhenOmitted(t *testing.T) {
	dir := t.TempDir()
	path := writeInteractionFile(t, dir, "interaction_3.yaml", `
request:
  url: https://api.example.com/widgets
  method: GET
response:
  status:
    code: 200
callbacks:
  - request:
      url: https://callback.example.com/notify
      method: POST
  - delay: 2.5
    request:
      url: https://callback.example.com/notify2
      method: POST
`)

	in, err := Load(path)
	require.NoError(t, err)
	require.Len(t, in.Callbacks, 2)
	assert.Equal(t, 0.5, in.Callbacks[0].DelaySeconds)
	assert.Equal(t, 2.5, in.Callbacks[1].DelaySeconds)
}

func TestLoadAndSaveRoundTripDescription(t *testing.T) {
	dir := t.TempDir()
	in := &Interaction{
		Name:        "interaction_0",
		Description: "widgets happy path",
		Request:     httpvalue.NewRequestFromText("https://host/a", "GET", "", httpvalue.NewHeaders(), "", ""),
		Response:    httpvalue.NewResponseFromText(200, "OK", "", httpvalue.NewHeaders(), "", ""),
		MaxReplays:  Unlimited,
	}
	require.NoError(t, Save(in, dir))

	loaded, err := Load(filepath.Join(dir, "interaction_0.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "widgets happy path", loaded.Description)
}

func TestLoadMaxReplaysExplicit(t *testing.T) {
	dir := t.TempDir()
	path := writeInteractionFile(t, dir, "interaction_4.yaml", `
request:
  url: https://api.example.com/widgets
  method: GET
response:
  status:
    code: 200
max_replays: 3
`)

	in, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, in.MaxReplays)
}

func TestLoadInvalidRegexReturnsError(t *testing.T) {
	dir := t.TempDir()
	path := writeInteractionFile(t, dir, "interaction_5.yaml", `
request:
  url: https://api.example.com/widgets
  method: GET
response:
  status:
    code: 200
match:
  regex:
    url: "("
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	headers := httpvalue.NewHeaders()
	headers.Add("Content-Type", "application/json")

	in := &Interaction{
		Name:     "interaction_0",
		Request:  httpvalue.NewRequestFromText("https://api.example.com/widgets", "POST", `{"id":1}`, headers, "", ""),
		Response: httpvalue.NewResponseFromText(201, "Created", `{"ok":true}`, httpvalue.NewHeaders(), "", ""),
		Match:    MatchDescriptor{Exact: []string{FieldURL, FieldMethod}},
		Callbacks: []CallbackDescriptor{
			{Request: httpvalue.NewRequestFromText("https://callback.example.com/hook", "POST", "", httpvalue.NewHeaders(), "", ""), DelaySeconds: 1.5},
		},
		MaxReplays: 5,
	}

	require.NoError(t, Save(in, dir))

	loaded, err := Load(filepath.Join(dir, "interaction_0.yaml"))
	require.NoError(t, err)

	assert.Equal(t, in.Name, loaded.Name)
	assert.Equal(t, in.Request.URL, loaded.Request.URL)
	assert.Equal(t, in.Request.Method, loaded.Request.Method)
	assert.Equal(t, in.Response.StatusCode, loaded.Response.StatusCode)
	assert.Equal(t, in.Response.BodyText(), loaded.Response.BodyText())
	assert.Equal(t, in.Match.Exact, loaded.Match.Exact)
	require.Len(t, loaded.Callbacks, 1)
	assert.Equal(t, 1.5, loaded.Callbacks[0].DelaySeconds)
	assert.Equal(t, 5, loaded.MaxReplays)
}

func TestSaveEmitsExplicitMatchBlockEvenWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	in := &Interaction{
		Name:       "interaction_0",
		Request:    httpvalue.NewRequestFromText("https://host/a", "GET", "", httpvalue.NewHeaders(), "", ""),
		Response:   httpvalue.NewResponseFromText(200, "OK", "", httpvalue.NewHeaders(), "", ""),
		MaxReplays: Unlimited,
	}
	require.NoError(t, Save(in, dir))

	data, err := os.ReadFile(filepath.Join(dir, "interaction_0.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "match:")
}

func TestSaveDoesNotLeaveTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	in := &Interaction{
		Name:       "interaction_0",
		Request:    httpvalue.NewRequestFromText("https://host/a", "GET", "", httpvalue.NewHeaders(), "", ""),
		Response:   httpvalue.NewResponseFromText(200, "OK", "", httpvalue.NewHeaders(), "", ""),
		MaxReplays: Unlimited,
	}
	require.NoError(t, Save(in, dir))

	_, err := os.Stat(filepath.Join(dir, "interaction_0.yaml.tmp"))
	assert.True(t, os.IsNotExist(err))
}
