package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/punic/dystats/internal/config"
	"github.com/punic/dystats/internal/store"
	"github.com/punic/dystats/pkg/browser"
	"github.com/punic/dystats/pkg/collect"
	"github.com/punic/dystats/pkg/feed"
	"github.com/punic/dystats/pkg/fetch"
	"github.com/punic/dystats/pkg/harvest"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func detailStyle(cfg *config.Config) fetch.DetailURLStyle {
	if cfg.Harvest.DetailStyle == "video" {
		return fetch.StyleVideo
	}
	return fetch.StyleModal
}

// mergeSink tees successful records into the run dump on their way to
// the reconciliation store.
type mergeSink struct {
	db   store.Store
	dump *store.RunDump
}

func (m mergeSink) Merge(ctx context.Context, key string, outcome harvest.Outcome) error {
	if m.dump != nil && outcome.OK() {
		if err := m.dump.Append(*outcome.Record); err != nil {
			slog.Warn("append run dump", "key", key, "err", err)
		}
	}
	return m.db.Merge(ctx, key, outcome)
}

func runHarvest(capOverride int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if capOverride > 0 {
		cfg.Harvest.Cap = capOverride
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sess, err := browser.NewSession(ctx, cfg.Browser.Headless)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer sess.Close()

	if err := sess.Open(ctx, "https://www.douyin.com/"); err != nil {
		return fmt.Errorf("open home page: %w", err)
	}
	if !cfg.Browser.Headless {
		fmt.Fprintln(os.Stderr, "complete the login in the browser window, then press Enter to continue...")
		bufio.NewReader(os.Stdin).ReadString('\n')
	}

	if cfg.Browser.CookieFile != "" {
		if cookies, err := sess.Cookies(ctx); err == nil {
			if err := browser.SaveCookies(cfg.Browser.CookieFile, cookies); err != nil {
				slog.Warn("save cookies", "err", err)
			}
		}
	}

	var sources []collect.Source
	for _, f := range cfg.Feeds.Pages {
		sources = append(sources, feed.NewPage(sess, f.Name, f.URL))
	}
	for _, f := range cfg.Feeds.RSS {
		sources = append(sources, feed.NewRSS(f.Name, f.URL))
	}

	ids, err := collect.New(cfg.Harvest.Cap).Collect(ctx, sources...)
	if err != nil {
		return fmt.Errorf("collect ids: %w", err)
	}
	slog.Info("collection finished", "ids", len(ids))
	if len(ids) == 0 {
		return fmt.Errorf("no item ids collected from %d feed sources", len(sources))
	}

	// Rendered counters are the cheapest source; the captured detail API
	// response is the fallback when the page has not hydrated them.
	settle := time.Duration(cfg.Browser.SettleSeconds) * time.Second
	fetcher := fetch.Chain{
		fetch.NewDOMStats(sess, detailStyle(cfg), settle),
		fetch.NewNetLog(sess, sess, detailStyle(cfg), settle),
	}

	return runPipeline(ctx, cfg, db, fetcher, ids)
}

func runFetch(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cookies []*http.Cookie
	if cfg.Browser.CookieFile != "" {
		cookies, err = browser.LoadCookies(cfg.Browser.CookieFile)
		if err != nil {
			slog.Warn("load cookies", "err", err)
		}
	}

	ids, failed := resolveItemIDs(ctx, args)
	for key, reason := range failed {
		if err := db.Merge(ctx, key, harvest.Terminal(reason)); err != nil {
			slog.Warn("record unresolved argument", "key", key, "err", err)
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("no item ids resolved from %d arguments", len(args))
	}

	fetcher := fetch.NewDetail(detailStyle(cfg), cookies)
	return runPipeline(ctx, cfg, db, fetcher, ids)
}

// resolveItemIDs turns command line arguments (bare ids, detail urls, or
// share short links) into item identifiers. Short links are resolved by
// following their redirect. Arguments that yield no id are returned in
// failed, keyed by their one-based position, so the failure still lands
// in the store.
func resolveItemIDs(ctx context.Context, args []string) (ids []string, failed map[string]string) {
	client := resty.New().SetTimeout(15 * time.Second)
	failed = make(map[string]string)

	for n, arg := range args {
		arg = strings.TrimSpace(arg)
		rowKey := fmt.Sprintf("row:%d", n+1)

		if !strings.Contains(arg, "/") {
			ids = append(ids, arg)
			continue
		}

		url := fetch.FirstURL(arg)
		if url == "" {
			slog.Warn("no url in argument", "key", rowKey, "arg", arg)
			failed[rowKey] = harvest.ReasonNotFound
			continue
		}

		if id := fetch.IDFromURL(url); id != "" {
			ids = append(ids, id)
			continue
		}

		// Share short link: follow redirects and read the landing URL.
		resp, err := client.R().SetContext(ctx).Get(url)
		if err != nil {
			slog.Warn("resolve short link", "key", rowKey, "url", url, "err", err)
			failed[rowKey] = harvest.ReasonFetchError
			continue
		}
		final := resp.RawResponse.Request.URL.String()
		if id := fetch.IDFromURL(final); id != "" {
			ids = append(ids, id)
			continue
		}
		slog.Warn("no item id in resolved url", "key", rowKey, "url", final)
		failed[rowKey] = harvest.ReasonNotFound
	}
	return ids, failed
}

func runPipeline(ctx context.Context, cfg *config.Config, db store.Store, fetcher fetch.Fetcher, ids []string) error {
	sink := mergeSink{db: db}
	if cfg.Output.DumpDir != "" {
		dump, err := store.NewRunDump(cfg.Output.DumpDir)
		if err != nil {
			return fmt.Errorf("open run dump: %w", err)
		}
		defer dump.Close()
		sink.dump = dump
		slog.Info("run dump", "path", dump.Path())
	}

	orch := harvest.NewOrchestrator(fetcher, cfg.Harvest.MaxAttempts, cfg.Harvest.ParseBackoff())
	orch.DebugDir = cfg.Output.DebugPayloadDir
	runner := harvest.NewRunner(orch, sink,
		cfg.Harvest.ParseCooldownMin(), cfg.Harvest.ParseCooldownMax())

	sum, err := runner.Run(ctx, ids)
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	slog.Info("pipeline finished", "succeeded", sum.Succeeded, "failed", sum.Failed)
	return nil
}

func runExport(jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	rows, err := db.Snapshot(context.Background())
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("no rows yet (run: dystats harvest)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAUTHOR\tDIGG\tCOMMENT\tSHARE\tCOLLECT\tPLAY\tOK\tERROR")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%t\t%s\n",
			r.ID.String, r.Author.String,
			nullCount(r.Digg), nullCount(r.Comment), nullCount(r.Share),
			nullCount(r.Collect), nullCount(r.Play),
			r.OK, r.ErrorReason.String)
	}
	return w.Flush()
}

func nullCount(v sql.NullInt64) string {
	if !v.Valid {
		return "-"
	}
	return fmt.Sprintf("%d", v.Int64)
}
