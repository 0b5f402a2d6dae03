package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/ericksa/contractlens/internal/app"
	"github.com/ericksa/contractlens/internal/config"
	"github.com/ericksa/contractlens/internal/pipeline"
	"github.com/ericksa/contractlens/internal/report"
)

func main() {
	// Command-line flags
	var (
		file   = flag.String("file", "", "Contract to analyze (.pdf, .html or .txt)")
		format = flag.String("format", "md", "Output format: md, html, or json")
		lang   = flag.String("lang", "", "Also translate the summary into this language and synthesize speech")
		output = flag.String("output", "", "Write the report to this path instead of stdout")
		help   = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help || *file == "" {
		printHelp()
		if *help {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if err := run(*file, *format, *lang, *output); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// run does the work of main so deferred cleanup runs before the process
// exits.
func run(file, format, lang, output string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := a.Analyzer.AnalyzeFile(ctx, file, "")
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	out, err := render(res, format)
	if err != nil {
		return err
	}
	if output != "" {
		if err := os.WriteFile(output, []byte(out), 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", output)
	} else {
		fmt.Println(out)
	}

	if lang != "" && res.Outcome == pipeline.OutcomeAnalyzed {
		spoken, err := a.TranslateAndSpeak(ctx, res.Summary.String(), lang)
		if err != nil {
			return fmt.Errorf("translation failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "\n%s\nAudio: %s\n", spoken.Text, spoken.Audio.Location)
	}
	return nil
}

func render(res *pipeline.Result, format string) (string, error) {
	switch format {
	case "md", "markdown":
		return report.Markdown(res), nil
	case "html":
		return report.HTML(res)
	case "json":
		b, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
}

func printHelp() {
	fmt.Fprintln(os.Stderr, `contractlens - analyze a lease contract

Usage:
  contractlens -file lease.pdf [-format md|html|json] [-lang hi] [-output report.md]

Configuration is read from config.yaml, .env and CONTRACTLENS_* variables.`)
}
