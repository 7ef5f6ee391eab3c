package cli

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"survey-builder/internal/config"
)

func TestRootCommandWiresSubcommands(t *testing.T) {
	cmd := newRootCmd()

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"start", "migrate", "generate"} {
		assert.True(t, names[want], "missing %s command", want)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("verbose"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestResolvePortPrecedence(t *testing.T) {
	t.Setenv("PORT", "")
	assert.Equal(t, "8080", resolvePort("", ""))
	assert.Equal(t, "9000", resolvePort("", "9000"))

	t.Setenv("PORT", "7000")
	assert.Equal(t, "7000", resolvePort("", "9000"))
	assert.Equal(t, "6000", resolvePort("6000", "9000"))

	flag := newRootCmd().PersistentFlags().Lookup("port")
	assert.Equal(t, "", flag.DefValue, "an unset flag must not hide the configured port")
}

func TestNewGeneratorRejectsUnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Generator.Provider = "oracle"
	_, err := newGenerator(t.Context(), cfg)
	assert.Error(t, err)

	cfg.Generator.Provider = "mock"
	gen, err := newGenerator(t.Context(), cfg)
	assert.NoError(t, err)
	assert.NotNil(t, gen)
}

func testConfig() config.Config {
	return config.Config{}
}

func TestGenerateCommandAgainstService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/surveys/generate" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"survey":{"id":"srv_coffee","title":"Survey: coffee","questions":[{"id":"q1","type":"open_text","text":"Why?"}]}}`))
	}))
	defer srv.Close()

	cmd := newRootCmd()
	cmd.SetArgs([]string{"generate", "--config", filepath.Join(t.TempDir(), "none.yaml"), "--api-base", srv.URL, "coffee"})
	assert.NoError(t, cmd.Execute())
}

func TestGenerateCommandSurfacesServiceErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"description too short"}`))
	}))
	defer srv.Close()

	cmd := newRootCmd()
	cmd.SetArgs([]string{"generate", "--config", filepath.Join(t.TempDir(), "none.yaml"), "--api-base", srv.URL, "cof"})
	err := cmd.Execute()
	assert.ErrorContains(t, err, "description too short")
}
