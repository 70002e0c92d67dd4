package commands

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/moondial/internal/config"
	derrors "git.home.luguber.info/inful/moondial/internal/foundation/errors"
	"git.home.luguber.info/inful/moondial/internal/observability"
	"git.home.luguber.info/inful/moondial/internal/version"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "moondial.yaml"

// Global is shared state handed to every command.
type Global struct {
	Logger *observability.Logger
	Out    io.Writer
	Err    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"moondial.yaml" env:"MOONDIAL_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run      RunCmd      `cmd:"" help:"Run the dial daemon until interrupted"`
	Tick     TickCmd     `cmd:"" help:"Perform one dial update against the configured storage and print it"`
	Phase    PhaseCmd    `cmd:"" help:"Print the lunar phase for a moment"`
	Simulate SimulateCmd `cmd:"" help:"Run the dial over consecutive days and print the progression"`
	History  HistoryCmd  `cmd:"" help:"Print committed updates from the journal"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
}

// NewParser builds the command-line parser for cli. g is bound for hooks and commands.
func NewParser(cli *CLI, g *Global, opts ...kong.Option) (*kong.Kong, error) {
	if g.Out == nil {
		g.Out = os.Stdout
	}
	if g.Err == nil {
		g.Err = os.Stderr
	}
	base := []kong.Option{
		kong.Name("moondial"),
		kong.Description("Drives a two-sided moon dial from the current lunar phase."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(g),
	}
	return kong.New(cli, append(base, opts...)...)
}

// AfterApply runs after flag parsing and installs a bootstrap logger.
// Commands that load configuration replace it with the configured one.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := config.LogLevelInfo
	if c.Verbose {
		level = config.LogLevelDebug
	}
	g.Logger = observability.NewLogger(g.Err, config.MonitoringLogging{Level: level, Format: config.LogFormatText})
	slog.SetDefault(g.Logger.Logger)
	return nil
}

// LoadConfig reads the configuration file. A missing file at the default
// path falls back to built-in defaults; an explicit path must exist.
func (c *CLI) LoadConfig(g *Global) (*config.Config, error) {
	var cfg *config.Config
	if _, err := os.Stat(c.Config); errors.Is(err, fs.ErrNotExist) && c.Config == DefaultConfigPath {
		cfg = config.Default()
		g.Logger.Debug("No configuration file found, using defaults", "path", c.Config)
	} else {
		loaded, warnings, err := config.Load(c.Config)
		if err != nil {
			return nil, err
		}
		for _, w := range warnings {
			g.Logger.Warn("Configuration normalized", "detail", w)
		}
		cfg = loaded
	}

	logging := cfg.Monitoring.Logging
	if c.Verbose {
		logging.Level = config.LogLevelDebug
	}
	g.Logger = observability.NewLogger(g.Err, logging)
	slog.SetDefault(g.Logger.Logger)
	return cfg, nil
}

// configPathIfPresent returns the config path when the file exists, so the
// daemon only watches real files.
func (c *CLI) configPathIfPresent() string {
	if _, err := os.Stat(c.Config); err != nil {
		return ""
	}
	return c.Config
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseAt parses a --at style timestamp in loc. Empty means now. Layouts
// without a zone are read as wall-clock time in loc.
func ParseAt(raw string, loc *time.Location, now func() time.Time) (time.Time, error) {
	if raw == "" {
		return now().In(loc), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, derrors.ValidationError("unrecognized time").
		WithContext("value", raw).
		WithContext("expected", "RFC3339, YYYY-MM-DDTHH:MM or YYYY-MM-DD").
		Build()
}

func dialLocation(cfg *config.Config) (*time.Location, error) {
	loc, err := cfg.Dial.LoadLocation()
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "invalid dial location").
			WithContext("location", cfg.Dial.Location).
			Build()
	}
	return loc, nil
}
