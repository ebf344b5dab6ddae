package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/boolean-maybe/navitree/internal/storage"
	"github.com/boolean-maybe/navitree/loaders"
	"github.com/boolean-maybe/navitree/navitree"
	tviewAdapter "github.com/boolean-maybe/navitree/navitree/tview"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// config holds the parsed CLI configuration.
type config struct {
	configPath string
	store      string
	style      string
	historyMax int
	verbose    bool
	noRestore  bool
	roots      []string
}

func parseFlags() config {
	var cfg config

	flag.StringVar(&cfg.configPath, "config", "", "path to config.json (default: user config dir)")
	flag.StringVar(&cfg.store, "store", "", "session store backend: file or sqlite (overrides config)")
	flag.StringVar(&cfg.style, "style", "", "markdown style: dark, light or auto (overrides config)")
	flag.IntVar(&cfg.historyMax, "history-max", 0, "history entries kept per document (overrides config)")
	flag.BoolVar(&cfg.verbose, "verbose", false, "log to navitree.log in the data dir")
	flag.BoolVar(&cfg.noRestore, "no-restore", false, "start without restoring the previous session")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: navitree [flags] [root ...]\n\n")
		fmt.Fprintf(os.Stderr, "navitree browses directory trees in the terminal, with per-tab\n")
		fmt.Fprintf(os.Stderr, "back/forward history that survives restarts.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()
	cfg.roots = flag.Args()
	return cfg
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cli config) error {
	settings, err := storage.LoadConfig(cli.configPath)
	if err != nil {
		return err
	}
	applyOverrides(settings, cli)

	dataDir, err := storage.DataDir()
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(dataDir, cli.verbose)
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := storage.Open(settings.Store, dataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	session := navitree.NewSessionSettings()
	if !cli.noRestore {
		el, err := store.Load(ctx, navitree.SessionSettingsTag)
		if err != nil {
			log.Printf("Session: could not load previous session, starting fresh: %v", err)
		}
		session = navitree.LoadSessionSettings(el)
	}

	roots := cli.roots
	if len(roots) == 0 {
		roots = session.Roots
	}
	if len(roots) == 0 {
		roots = settings.Roots
	}
	if len(roots) == 0 {
		roots = []string{"."}
	}

	renderer, err := navitree.NewCachingRenderer(navitree.NewANSIRenderer(settings.Style), settings.RenderCache)
	if err != nil {
		return fmt.Errorf("creating render cache: %w", err)
	}

	ws := navitree.NewWorkspace(navitree.DocumentOptions{
		Provider:   &loaders.FileHTTP{},
		Renderer:   renderer,
		HistoryMax: settings.HistoryMax,
	})

	dirs := &loaders.DirTree{}
	var loaded []string
	for _, r := range roots {
		node, err := dirs.Root(r)
		if err != nil {
			log.Printf("Tree: skipping root %q: %v", r, err)
			continue
		}
		ws.AddRoot(node)
		loaded = append(loaded, node.Source)
	}
	if len(loaded) == 0 {
		return fmt.Errorf("no usable roots in %v", roots)
	}

	if !cli.noRestore {
		if err := ws.RestoreSession(session); err != nil {
			log.Printf("Session: could not restore documents: %v", err)
		}
	}

	app := tview.NewApplication()
	browser := tviewAdapter.NewBrowser(ws).SetFocusFunc(func(p tview.Primitive) { app.SetFocus(p) })
	if d := ws.Active(); d != nil && len(d.SelectedNodes()) > 0 {
		browser.Reveal(d.SelectedNodes()[0])
	} else if session.ActiveTreeViewPath != nil {
		browser.Reveal(session.ActiveTreeViewPath)
	}
	browser.Sync()

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyRune && event.Rune() == 'q' {
			app.Stop()
			return nil
		}
		return event
	})

	if err := app.SetRoot(browser, true).Run(); err != nil {
		return fmt.Errorf("running application: %w", err)
	}

	session.Roots = loaded
	var activePath navitree.NodePath
	if n := browser.Tree().CurrentNode(); n != nil {
		activePath = ws.Tree().PathForNode(n)
	}
	if err := ws.SaveSession(session, activePath); err != nil {
		return err
	}

	saveCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Save(saveCtx, session.Element()); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	log.Printf("Session: saved %d documents", len(ws.Documents()))
	return nil
}

func applyOverrides(settings *storage.Config, cli config) {
	if cli.store != "" {
		settings.Store = cli.store
	}
	if cli.style != "" {
		settings.Style = cli.style
	}
	if cli.historyMax > 0 {
		settings.HistoryMax = cli.historyMax
	}
}

// setupLogging keeps log output off the terminal while the UI owns it.
func setupLogging(dataDir string, verbose bool) (func(), error) {
	if !verbose {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dataDir, "navitree.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return func() { _ = f.Close() }, nil
}
