package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/umputun/enggist/pkg/config"
	"github.com/umputun/enggist/pkg/domain"
	"github.com/umputun/enggist/pkg/feed"
	"github.com/umputun/enggist/pkg/scheduler"
	"github.com/umputun/enggist/pkg/trigger"
)

var errLocked = errors.New("another run is in progress")

// sourceCreator adds sources unless already known
type sourceCreator interface {
	CreateSourceIfAbsent(ctx context.Context, src *domain.Source) (bool, error)
}

// runOnce executes a single job in-process and prints the result table.
// The lock file keeps cron invocations from overlapping, the job is time-boxed by timeout.
func runOnce(ctx context.Context, job, lockPath string, timeout time.Duration, ingester scheduler.Ingester,
	batcher scheduler.Batcher, out io.Writer) error {
	j, err := trigger.ParseJob(job)
	if err != nil {
		return err
	}

	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", lockPath, err)
	}
	if !locked {
		return fmt.Errorf("%w, lock %s is held", errLocked, lockPath)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Printf("[WARN] failed to release lock %s: %v", lockPath, err)
		}
	}()

	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch j {
	case trigger.JobIngest:
		res, err := ingester.Run(ctx)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		printIngest(out, res)
	case trigger.JobSummarize:
		res, err := batcher.Run(ctx)
		if err != nil {
			return fmt.Errorf("summarize failed: %w", err)
		}
		printSummarize(out, res)
	}
	return nil
}

func printIngest(out io.Writer, res domain.IngestResult) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Source", "New", "Skipped", "Error"})
	skipped := 0
	for _, s := range res.Sources {
		tw.AppendRow(table.Row{s.Name, s.New, s.Skipped, s.Error})
		skipped += s.Skipped
	}
	tw.AppendFooter(table.Row{"Total", res.TotalNew, skipped, ""})
	tw.Render()
}

func printSummarize(out io.Writer, res domain.SummarizeResult) {
	if res.Message != "" {
		fmt.Fprintln(out, res.Message)
		return
	}
	fmt.Fprintf(out, "summarized: %d, failed: %d\n", res.Summarized, res.Failed)
	if len(res.Errors) == 0 {
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Post", "Title", "Error"})
	for _, e := range res.Errors {
		tw.AppendRow(table.Row{e.PostID, e.Title, e.Error})
	}
	tw.Render()
}

// triggerJob calls the job endpoint of a running server and prints its response
func triggerJob(ctx context.Context, cfg *config.Config, job string, out io.Writer) error {
	j, err := trigger.ParseJob(job)
	if err != nil {
		return err
	}
	if cfg.Server.IngestSecret == "" {
		return errors.New("server.ingest_secret is required to trigger jobs")
	}

	body, err := trigger.NewClient(cfg.Trigger.URL, cfg.Server.IngestSecret, cfg.Trigger.Timeout).Trigger(ctx, j)
	if err != nil {
		if len(body) > 0 {
			fmt.Fprintln(out, string(body))
		}
		return err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		buf.Reset()
		buf.Write(body)
	}
	fmt.Fprintln(out, buf.String())
	return nil
}

// importOPML adds sources listed in the OPML file, skipping known feed urls
func importOPML(ctx context.Context, store sourceCreator, path string, out io.Writer) error {
	fh, err := os.Open(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return fmt.Errorf("failed to open opml: %w", err)
	}
	defer fh.Close()

	sources, err := feed.ParseOPML(fh)
	if err != nil {
		return err
	}

	added := 0
	for i := range sources {
		created, err := store.CreateSourceIfAbsent(ctx, &sources[i])
		if err != nil {
			return fmt.Errorf("failed to add source %s: %w", sources[i].FeedURL, err)
		}
		if created {
			added++
			log.Printf("[INFO] added source %s (%s)", sources[i].Name, sources[i].FeedURL)
		}
	}
	fmt.Fprintf(out, "imported %d of %d sources\n", added, len(sources))
	return nil
}
