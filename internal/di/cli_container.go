package di

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phish-triage/internal/config"
	"github.com/mikey/phish-triage/internal/console"
	"github.com/mikey/phish-triage/internal/core"
	"github.com/mikey/phish-triage/internal/feed"
	"github.com/mikey/phish-triage/internal/logging"
	"github.com/mikey/phish-triage/internal/session"
)

// CLIFlags contains all command line flags for the console
type CLIFlags struct {
	// Backend flags
	APIURL  string
	Backend string

	// Output flags
	Format  string
	NoColor bool
	HTMLOut string

	// Escalation flags
	Report bool

	// Logging and config flags
	Verbose    bool
	JSONLog    bool
	ConfigFile string

	// Command is the subcommand and Args its operands
	Command string
	Args    []string
}

// ParseFlags parses the global flags that precede the subcommand
func ParseFlags(args []string, output io.Writer) (*CLIFlags, error) {
	flags := &CLIFlags{}

	fs := flag.NewFlagSet("triage", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: triage [flags] <command> [args]\n\n")
		fmt.Fprintf(fs.Output(), "Commands:\n")
		fmt.Fprintf(fs.Output(), "  analyze-email [file]  analyze an email (stdin if no file)\n")
		fmt.Fprintf(fs.Output(), "  analyze-url <url>     analyze a URL\n")
		fmt.Fprintf(fs.Output(), "  history               list the incident audit history\n")
		fmt.Fprintf(fs.Output(), "  show <id>             show one incident in detail\n")
		fmt.Fprintf(fs.Output(), "  feed                  list the external threat feed\n")
		fmt.Fprintf(fs.Output(), "  dashboard             load history and threat feed together\n")
		fmt.Fprintf(fs.Output(), "  reports               list escalations recorded locally\n\n")
		fmt.Fprintf(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
	}

	// Backend flags
	fs.StringVar(&flags.APIURL, "api-url", "", "Analysis backend base URL (overrides api.base_url)")
	fs.StringVar(&flags.Backend, "backend", "", "Analyzer backend (http, bedrock, gemini, openai)")

	// Output flags
	fs.StringVar(&flags.Format, "format", "", "Output format (text, json, yaml)")
	fs.BoolVar(&flags.NoColor, "no-color", false, "Disable ANSI colors")
	fs.StringVar(&flags.HTMLOut, "html", "", "Write the attribution overlay as HTML to this path")

	// Escalation flags
	fs.BoolVar(&flags.Report, "report", false, "Escalate a positive verdict to the CERT")

	// Logging and config flags
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return nil, fmt.Errorf("no command given")
	}

	flags.Command = fs.Arg(0)
	flags.Args = fs.Args()[1:]
	return flags, nil
}

// BuildCLIContainer creates the dependency injection container for the console
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		return loadCLIConfig(flags, logger)
	}); err != nil {
		return nil, err
	}

	if err := provideServices(container); err != nil {
		return nil, err
	}

	// Register printer
	if err := container.Provide(func(cfg *config.Config) (*console.Printer, error) {
		out := cfg.GetOutput()
		format, err := console.ParseFormat(out.Format)
		if err != nil {
			return nil, err
		}
		return console.NewPrinter(os.Stdout, format, out.Color), nil
	}); err != nil {
		return nil, err
	}

	// Register analysis session and feeds
	if err := container.Provide(func(analyzer core.AnalyzerService, logger *zap.Logger) *session.Session {
		return session.New(analyzer, logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(feed.NewHistoryFeed); err != nil {
		return nil, err
	}
	if err := container.Provide(feed.NewThreatFeed); err != nil {
		return nil, err
	}

	return container, nil
}

// loadCLIConfig reads the config file and applies command line overrides
func loadCLIConfig(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.ConfigFile != "" {
		cfg, err = config.NewFromFile(flags.ConfigFile)
	} else {
		cfg, err = config.New()
	}
	if err != nil {
		return nil, err
	}
	if used := cfg.GetViper().ConfigFileUsed(); used != "" {
		logger.Info("Loaded configuration from file", zap.String("file", used))
	}

	if flags.APIURL != "" {
		cfg.Set("api.base_url", flags.APIURL)
	}
	if flags.Backend != "" {
		cfg.Set("analyzer.backend", flags.Backend)
	}
	if flags.Format != "" {
		cfg.Set("output.format", flags.Format)
	}
	if flags.NoColor {
		cfg.Set("output.color", false)
	}
	return cfg, nil
}
