package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/idilsaglam/habits/internal/auth"
	"github.com/idilsaglam/habits/internal/config"
	"github.com/idilsaglam/habits/internal/directory"
	"github.com/idilsaglam/habits/internal/model"
	"github.com/idilsaglam/habits/internal/settings"
	"github.com/idilsaglam/habits/internal/snapshot"
	"github.com/idilsaglam/habits/internal/tui"
	"github.com/idilsaglam/habits/internal/ui"
	"github.com/idilsaglam/habits/internal/userapi"
)

// Stdin feeds `auth login`.
var Stdin io.Reader = os.Stdin

// Options carry the resolved configuration into every subcommand.
type Options struct {
	Config *config.Config
	// Credentials defaults to the store under config.Dir().
	Credentials *auth.Store
}

func (o Options) credentials() auth.Store {
	if o.Credentials != nil {
		return *o.Credentials
	}
	return auth.Store{Dir: config.Dir()}
}

func (o Options) client() *userapi.Client {
	return userapi.New(o.Config.APIURL,
		userapi.WithToken(o.credentials().Token()),
		userapi.WithTimeout(o.Config.RequestTimeout),
	)
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, opt Options) int {
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0

	case "ui":
		return doUI(ctx, opt)

	case "ls":
		return doList(ctx, opt)

	case "follow":
		if len(a) != 1 {
			ui.Fail("usage: habits follow <user-id>")
			return 2
		}
		return doFollow(ctx, opt, a[0])

	case "followed":
		return doFollowed(ctx, opt)

	case "habits":
		return doHabits(ctx, opt)

	case "auth":
		if len(a) == 0 {
			ui.Fail("usage: habits auth <login|logout|status>")
			return 2
		}
		switch a[0] {
		case "login":
			return doAuthLogin(opt)
		case "logout":
			return doAuthLogout(opt)
		case "status":
			return doAuthStatus(opt)
		default:
			ui.Fail("usage: habits auth <login|logout|status>")
			return 2
		}
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(ui.Stderr)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Fprint(ui.Stdout, `habits - browse and follow people building habits

Usage:
  habits [flags] <subcommand> [args]

Subcommands:
  ui                 Interactive users screen (default)
  ls                 List users, followed ones starred
  follow <user-id>   Toggle following a user
  followed           List followed users
  habits             List habits by name
  auth <login|logout|status>   API token

Flags:
  -u <url>           user directory API (HABITS_API_URL)
  -s <path>          settings file (HABITS_SETTINGS_PATH)
  -t <theme>         classic, neon or mono (HABITS_THEME)
  -l <level>         log level (HABITS_LOG_LEVEL)

Examples:
  habits ls
  habits follow u2
  habits -t mono followed
`)
}

// -------------- subcommand impls ----------------

// loadDirectory runs one fetch through the same controller the screen uses.
func loadDirectory(ctx context.Context, opt Options) *directory.Controller {
	dir := directory.New(opt.client())
	dir.Apply(dir.Trigger(ctx)())
	return dir
}

func openSettings(opt Options) (*settings.Settings, bool) {
	s, err := settings.Open(opt.Config.SettingsPath)
	if err != nil {
		ui.Fail(err.Error())
		return nil, false
	}
	return s, true
}

func doUI(ctx context.Context, opt Options) int {
	s, ok := openSettings(opt)
	if !ok {
		return 1
	}
	if err := tui.Run(ctx, directory.New(opt.client()), s); err != nil {
		ui.Fail("tui: " + err.Error())
		return 1
	}
	return 0
}

func doList(ctx context.Context, opt Options) int {
	s, ok := openSettings(opt)
	if !ok {
		return 1
	}
	dir := loadDirectory(ctx, opt)
	items := snapshot.Build(dir.Users(), s).Items(snapshot.MainSection)

	t := ui.Current()
	followed := 0
	for _, it := range items {
		if it.Followed {
			followed++
		}
	}
	header := fmt.Sprintf("%s  %s %d  %s %d",
		ui.C(t.Title, "Users"),
		ui.C(t.Followed, t.StarOn), followed,
		ui.C(t.Accent, "Total"), len(items),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, ui.C(t.Muted, ui.ProgressBar(followed, len(items), 28)))
	lines = append(lines, "")
	lines = append(lines, userLines(items)...)
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Muted, "Tip: follow with `habits follow <user-id>`"))
	ui.Panel(lines)
	return 0
}

func doFollow(ctx context.Context, opt Options, id string) int {
	s, ok := openSettings(opt)
	if !ok {
		return 1
	}
	dir := loadDirectory(ctx, opt)
	u, found := dir.User(id)
	if !found {
		ui.Fail(fmt.Sprintf("unknown user: %s", id))
		fmt.Fprintln(ui.Stderr, ui.C(ui.Current().Muted, "Hint: run `habits ls` to see user ids"))
		return 2
	}
	if err := s.ToggleFollowed(u); err != nil {
		ui.Fail(err.Error())
		return 1
	}
	if s.Contains(model.UserKey(u)) {
		ui.OK("following " + u.Name)
	} else {
		ui.OK("unfollowed " + u.Name)
	}
	return 0
}

func doFollowed(ctx context.Context, opt Options) int {
	s, ok := openSettings(opt)
	if !ok {
		return 1
	}
	dir := loadDirectory(ctx, opt)

	var items []snapshot.Item
	for _, it := range snapshot.Build(dir.Users(), s).Items(snapshot.MainSection) {
		if it.Followed {
			items = append(items, it)
		}
	}
	ui.Panel(append([]string{ui.C(ui.Current().Title, "Following"), ""}, userLines(items)...))
	return 0
}

func doHabits(ctx context.Context, opt Options) int {
	habits, err := opt.client().FetchHabits(ctx)
	if err != nil {
		ui.Fail("habits: " + err.Error())
		return 1
	}
	list := make([]model.Habit, 0, len(habits))
	for _, h := range habits {
		list = append(list, h)
	}
	sort.Slice(list, func(i, j int) bool { return model.HabitLess(list[i], list[j]) })

	t := ui.Current()
	lines := []string{ui.C(t.Title, "Habits"), ""}
	if len(list) == 0 {
		lines = append(lines, ui.C(t.Muted, "no habits"))
	}
	for _, h := range list {
		lines = append(lines, fmt.Sprintf("%s %s %s",
			h.Name, ui.C(t.Accent, "["+h.Category.Name+"]"), ui.C(t.Muted, h.Info)))
	}
	ui.Panel(lines)
	return 0
}

// -------------- auth ----------------

func doAuthLogin(opt Options) int {
	fmt.Fprint(ui.Stdout, "Paste your token: ")
	line, err := bufio.NewReader(Stdin).ReadString('\n')
	if err != nil && line == "" {
		ui.Fail("read token: " + err.Error())
		return 1
	}
	if err := opt.credentials().Set(line, nil); err != nil {
		ui.Fail("save token: " + err.Error())
		return 1
	}
	ui.OK("logged in")
	return 0
}

func doAuthLogout(opt Options) int {
	store := opt.credentials()
	ti, _ := store.Get()
	if ti != nil && ti.Source == "env" {
		ui.OK("token is provided by HABITS_TOKEN env var (nothing to delete)")
		return 0
	}
	if err := store.Delete(); err != nil {
		ui.Fail("logout: " + err.Error())
		return 1
	}
	ui.OK("logged out")
	return 0
}

func doAuthStatus(opt Options) int {
	ti, err := opt.credentials().Get()
	if err != nil {
		ui.Fail("auth: " + err.Error())
		return 1
	}
	if ti == nil {
		fmt.Fprintln(ui.Stdout, ui.C(ui.Current().Muted, "not logged in"))
		fmt.Fprintln(ui.Stdout, "Run: habits auth login")
		return 0
	}
	fmt.Fprintf(ui.Stdout, "source: %s\n", ti.Source)
	if ti.ExpiresAt != nil {
		fmt.Fprintf(ui.Stdout, "expires: %s\n", ti.ExpiresAt.UTC().Format(time.RFC3339))
	} else {
		fmt.Fprintln(ui.Stdout, "expires: (unknown)")
	}
	fmt.Fprintln(ui.Stdout, "env override: HABITS_TOKEN")
	return 0
}

// -------------- rendering helpers --------------

func userLines(items []snapshot.Item) []string {
	t := ui.Current()
	if len(items) == 0 {
		return []string{ui.C(t.Muted, "no users")}
	}
	out := make([]string, 0, len(items))
	for i, it := range items {
		idx := fmt.Sprintf("%2d.", i+1)
		star, color := t.StarOff, t.Muted
		if it.Followed {
			star, color = t.StarOn, t.Followed
		}
		name := it.User.Name
		name = runewidth.Truncate(name, 60, "...")
		out = append(out, fmt.Sprintf("%s %s %s %s",
			ui.Dim(idx), ui.C(color, star), name, ui.C(t.Muted, "("+strings.TrimSpace(it.User.ID)+")")))
	}
	return out
}
