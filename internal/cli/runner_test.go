package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/habits/internal/auth"
	"github.com/idilsaglam/habits/internal/config"
	"github.com/idilsaglam/habits/internal/directoryserver"
	"github.com/idilsaglam/habits/internal/model"
	"github.com/idilsaglam/habits/internal/settings"
	"github.com/idilsaglam/habits/internal/snapshot"
	"github.com/idilsaglam/habits/internal/ui"
)

type harness struct {
	opt    Options
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newHarness(t *testing.T, apiURL string) *harness {
	t.Helper()
	t.Setenv("HABITS_TOKEN", "")

	dir := t.TempDir()
	h := &harness{
		opt: Options{
			Config: &config.Config{
				APIURL:         apiURL,
				SettingsPath:   filepath.Join(dir, "settings.json"),
				RequestTimeout: time.Second,
			},
			Credentials: &auth.Store{Dir: dir},
		},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	ui.Stdout, ui.Stderr = h.stdout, h.stderr
	ui.SetTheme("classic")
	ui.SetColorForcing(false, false)
	return h
}

func (h *harness) run(args ...string) int {
	return Run(context.Background(), args, h.opt)
}

func newDirectory(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(directoryserver.NewRouter(directoryserver.SampleSeed()))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestListSortedWithFollowedStar(t *testing.T) {
	h := newHarness(t, newDirectory(t))
	require.Equal(t, 0, h.run("follow", "u2"))
	h.stdout.Reset()

	require.Equal(t, 0, h.run("ls"))

	out := h.stdout.String()
	alice := strings.Index(out, "☆ Alice (u1)")
	bob := strings.Index(out, "★ Bob (u2)")
	carol := strings.Index(out, "☆ Carol (u3)")
	require.True(t, alice >= 0 && bob >= 0 && carol >= 0, out)
	assert.Less(t, alice, bob)
	assert.Less(t, bob, carol)
	assert.Contains(t, out, "★ 1")
	assert.Contains(t, out, "Total 4")
}

func TestFollowTogglesAndPersists(t *testing.T) {
	h := newHarness(t, newDirectory(t))

	assert.Equal(t, 0, h.run("follow", "u2"))
	assert.Contains(t, h.stdout.String(), "following Bob")

	s, err := settings.Open(h.opt.Config.SettingsPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, s.FollowedUserIDs())

	assert.Equal(t, 0, h.run("follow", "u2"))
	assert.Contains(t, h.stdout.String(), "unfollowed Bob")
}

func TestFollowUnknownUser(t *testing.T) {
	h := newHarness(t, newDirectory(t))

	assert.Equal(t, 2, h.run("follow", "nobody"))
	assert.Contains(t, h.stderr.String(), "unknown user: nobody")
	assert.Equal(t, 2, h.run("follow"))
}

func TestFollowedListsOnlyFollowedUsers(t *testing.T) {
	h := newHarness(t, newDirectory(t))
	require.Equal(t, 0, h.run("follow", "u3"))
	h.stdout.Reset()

	require.Equal(t, 0, h.run("followed"))
	out := h.stdout.String()
	assert.Contains(t, out, "Carol")
	assert.NotContains(t, out, "Alice")
}

func TestListWithUnreachableDirectoryShowsNoUsers(t *testing.T) {
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()
	h := newHarness(t, url)

	assert.Equal(t, 0, h.run("ls"))
	assert.Contains(t, h.stdout.String(), "no users")
}

func TestHabitsSortedByName(t *testing.T) {
	h := newHarness(t, newDirectory(t))

	require.Equal(t, 0, h.run("habits"))
	out := h.stdout.String()
	names := []string{"Drink water", "Meditate", "Read", "Run"}
	last := -1
	for _, name := range names {
		idx := strings.Index(out, name)
		require.Greater(t, idx, last, "%s out of order in:\n%s", name, out)
		last = idx
	}
}

func TestAuthLoginStatusLogout(t *testing.T) {
	h := newHarness(t, newDirectory(t))
	Stdin = strings.NewReader("Bearer tok-123\n")

	require.Equal(t, 0, h.run("auth", "login"))
	assert.Equal(t, "tok-123", h.opt.Credentials.Token())

	require.Equal(t, 0, h.run("auth", "status"))
	assert.Contains(t, h.stdout.String(), "source: file")

	require.Equal(t, 0, h.run("auth", "logout"))
	assert.Empty(t, h.opt.Credentials.Token())

	assert.Equal(t, 2, h.run("auth", "rotate"))
}

func TestUsage(t *testing.T) {
	h := newHarness(t, newDirectory(t))

	assert.Equal(t, 2, h.run())
	assert.Equal(t, 0, h.run("help"))
	assert.Equal(t, 2, h.run("frobnicate"))
	assert.Contains(t, h.stderr.String(), "unknown subcommand: frobnicate")
}

func TestLongNamesTruncateOnRuneBoundaries(t *testing.T) {
	long := strings.Repeat("é", 70)
	lines := userLines([]snapshot.Item{{User: model.User{ID: "u9", Name: long}}})

	require.Len(t, lines, 1)
	assert.True(t, utf8.ValidString(lines[0]))
	assert.Contains(t, lines[0], "...")
	assert.NotContains(t, lines[0], long)

	short := userLines([]snapshot.Item{{User: model.User{ID: "u1", Name: "Zoë"}}})
	assert.Contains(t, short[0], "Zoë")
}
