package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/markdave123-py/Fixpress/internal/app"
	"github.com/markdave123-py/Fixpress/internal/config"
)

// Opts with all CLI options
type Opts struct {
	Job     string `short:"j" long:"job" required:"true" description:"YAML job file"`
	Publish bool   `long:"publish" description:"publish generated articles to WordPress"`
	Out     string `short:"o" long:"out" description:"directory for one markdown file per article"`
	Report  string `short:"r" long:"report" description:"write the run report as JSON to this path"`
	Debug   bool   `long:"dbg" env:"DEBUG" description:"debug mode"`
	NoColor bool   `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	cfg := config.LoadConfig()
	setupLog(opts.Debug, opts.NoColor, cfg.Secrets()...)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts, cfg, os.Stdout); err != nil {
		log.Printf("[ERROR] %v", err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts Opts, cfg *config.Config, out io.Writer) error {
	job, err := loadJob(opts.Job)
	if err != nil {
		return err
	}

	a, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if opts.Publish && a.PublishTarget() == nil {
		return fmt.Errorf("--publish needs WORDPRESS_URL, WORDPRESS_USER and WORDPRESS_APP_PASSWORD")
	}

	log.Printf("[INFO] generating %d articles for %s (%s)", len(job.Errors), job.Model, job.Manual)
	gen := a.Orchestrator.GenerateForManual(ctx, job.Manual, job.Model, job.Errors, job.Status)
	rep := runReport{Job: job, Generation: gen}
	if run := a.Articles.SaveRun(ctx, job.Manual, job.Model, gen); run != nil {
		rep.RunID = run.ID
	}
	fmt.Fprintf(out, "generated %d/%d articles, %d failed\n", gen.Successful, gen.Total, gen.Failed)
	for _, e := range gen.ErrorsLog {
		fmt.Fprintf(out, "  failed: %s: %s\n", e.Error, e.Detail)
	}

	if opts.Out != "" && len(gen.Articles) > 0 {
		paths, err := exportMarkdown(opts.Out, gen.Articles)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %d markdown files to %s\n", len(paths), opts.Out)
	}

	if opts.Publish && len(gen.Articles) > 0 {
		pub := a.Orchestrator.PublishAll(ctx, a.PublishTarget(), gen.Articles)
		rep.Publication = pub
		fmt.Fprintf(out, "published %d/%d articles\n", pub.Successful, pub.Total)
		for _, p := range pub.Published {
			fmt.Fprintf(out, "  %s -> %s\n", p.Title, p.URL)
		}
		for _, e := range pub.Errors {
			fmt.Fprintf(out, "  failed: %s: %s\n", e.Title, e.Error)
		}
	}

	if opts.Report != "" {
		if err := writeReport(opts.Report, rep); err != nil {
			return err
		}
	}

	if gen.Aborted() {
		return fmt.Errorf("run aborted: %s", gen.ErrorsLog[0].Detail)
	}
	return nil
}

func setupLog(dbg, noColor bool, secs ...string) {
	logOpts := []lgr.Option{lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	if !noColor {
		colorizer := lgr.Mapper{
			ErrorFunc: func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
			WarnFunc:  func(s string) string { return color.New(color.FgRed).Sprint(s) },
			InfoFunc:  func(s string) string { return color.New(color.FgYellow).Sprint(s) },
			DebugFunc: func(s string) string { return color.New(color.FgWhite).Sprint(s) },
			TimeFunc:  func(s string) string { return color.New(color.FgCyan).Sprint(s) },
		}
		logOpts = append(logOpts, lgr.Map(colorizer))
	}
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
