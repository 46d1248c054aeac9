package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/term"

	"github.com/justjake/fntimer/pkg/suites"
)

//go:generate go run ../doc -in README.in.md -out README.md -config-pkg ../../pkg/config -cmd main.go

//go:embed README.md
var readmeMarkdown string

var bannerLines = []string{
	`    ____        __  _                    `,
	`   / __/____   / /_(_)____ ___   ___  _____`,
	`  / /_ / __ \ / __/ // __ '__ \ / _ \/ ___/`,
	` / __// / / // /_/ // / / / / //  __/ /    `,
	`/_/  /_/ /_/ \__/_//_/ /_/ /_/ \___/_/     `,
}

func printBanner() {
	// Gradient from teal to purple
	teal, _ := colorful.Hex("#00CED1")
	purple, _ := colorful.Hex("#9B30FF")
	bgColor := lipgloss.Color("#1a1a2e")

	maxWidth := 0
	for _, line := range bannerLines {
		maxWidth = max(maxWidth, len(line))
	}

	var lines []string
	for _, line := range bannerLines {
		var result strings.Builder
		line += strings.Repeat(" ", maxWidth-len(line))
		for i, r := range line {
			t := float64(i) / float64(maxWidth-1)
			c := teal.BlendLuv(purple, t)
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(c.Hex())).
				Background(bgColor).
				Bold(true)
			result.WriteString(style.Render(string(r)))
		}
		lines = append(lines, result.String())
	}

	box := lipgloss.NewStyle().
		Background(bgColor).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))

	fmt.Println(box)
	fmt.Println()
}

var (
	// Styles for usage output
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00CED1"))

	descStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	flagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9B30FF")).
			Bold(true)

	exampleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)
)

func printUsage() {
	fmt.Println(titleStyle.Render("Usage:"))
	fmt.Printf("  fntimer %s [options]\n", flagStyle.Render("-suite <name>"))
	fmt.Printf("  fntimer %s\n", flagStyle.Render("-overhead"))
	fmt.Println()

	fmt.Println(titleStyle.Render("Options:"))
	flag.VisitAll(func(f *flag.Flag) {
		typeName := fmt.Sprintf("%T", f.Value)
		// Extract type name from *flag.stringValue -> string
		typeName = strings.TrimPrefix(typeName, "*flag.")
		typeName = strings.TrimSuffix(typeName, "Value")

		fmt.Printf("  %s %s\n",
			flagStyle.Render("-"+f.Name),
			descStyle.Render(typeName))
		fmt.Printf("      %s\n", f.Usage)
	})
	fmt.Println()

	fmt.Println(titleStyle.Render("Suites:"))
	for _, s := range suites.All() {
		fmt.Printf("  %s %s\n", flagStyle.Render(s.Name), descStyle.Render(s.Description))
	}
	fmt.Println()

	fmt.Println(titleStyle.Render("Example:"))
	fmt.Println(exampleStyle.Render("  fntimer -suite strings -input 'Hello, World!' -duration 2s"))
	fmt.Println()

	fmt.Println(descStyle.Render("Run 'fntimer -help' for full documentation."))
	fmt.Println()
}

func printSuites() {
	for _, s := range suites.All() {
		fmt.Printf("%s\t%s\n", s.Name, s.Description)
	}
}

func printFullDocs() {
	// Get terminal width, default to 80 if not a terminal
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		// Fallback to raw markdown
		fmt.Println(readmeMarkdown)
		return
	}

	out, err := renderer.Render(readmeMarkdown)
	if err != nil {
		// Fallback to raw markdown
		fmt.Println(readmeMarkdown)
		return
	}

	fmt.Print(out)
}

func main() {
	var f cliFlags
	flag.StringVar(&f.suite, "suite", "", "name of the suite to run (see -list)")
	flag.StringVar(&f.input, "input", "", "input string for the suite (empty = the suite's default)")
	flag.BoolVar(&f.overhead, "overhead", false, "measure the harness's own per-call overhead")
	flag.BoolVar(&f.overheadArgs, "overhead-args", false, "measure the overhead of the multi-argument call path")
	flag.StringVar(&f.configPath, "config", "", "path to fntimer.json config file")
	flag.DurationVar(&f.duration, "duration", 0, "target duration per candidate (0 = config or 1s)")
	flag.StringVar(&f.strategy, "strategy", "", "calibration strategy: inline or separate (empty = config or inline)")
	flag.BoolVar(&f.continueOnFault, "continue", false, "keep measuring the remaining candidates after one fails")
	flag.StringVar(&f.outputDir, "output", "", "directory that receives results.json and BENCHMARK.md for each run")
	flag.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this file when the run finishes")
	flag.StringVar(&f.metricsListen, "metrics-listen", "", "serve Prometheus metrics on host:port/path after the run until interrupted")
	flag.StringVar(&f.traceExporter, "trace", "", "export traces with this exporter: stdout or otlp")
	jsonLogs := flag.Bool("json", false, "output logs in JSON format")
	verbose := flag.Bool("verbose", false, "log calibration details")
	listSuites := flag.Bool("list", false, "list the available suites and exit")
	showHelp := flag.Bool("help", false, "show full documentation")
	flag.Usage = printUsage
	flag.Parse()

	// Show full docs with -help
	if *showHelp {
		printFullDocs()
		os.Exit(0)
	}

	if *listSuites {
		printSuites()
		os.Exit(0)
	}

	// Show compact usage when there is nothing to measure
	if f.suite == "" && !f.overhead && !f.overheadArgs {
		printBanner()
		printUsage()
		os.Exit(1)
	}

	// Logs go to stderr so the results table on stdout stays clean.
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if *jsonLogs {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, f, logger); err != nil {
		logger.Error("fntimer failed", "error", err)
		stop()
		os.Exit(1)
	}
}
