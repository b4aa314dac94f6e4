// Command songtext manages a song library: it parses and renders verse markup, expands and
// contracts order strings, stores songs in SQLite and serves them over HTTP.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/JuniperSongs/core/sqlite"
	"github.com/FocuswithJustin/JuniperSongs/internal/config"
	"github.com/FocuswithJustin/JuniperSongs/internal/logging"
	"github.com/FocuswithJustin/JuniperSongs/internal/songstore"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// CLI is the songtext command line.
type CLI struct {
	ConfigFile string `name:"config" short:"c" help:"Path to config file" type:"path"`
	DB         string `name:"db" help:"Song database path (overrides config)"`
	LogLevel   string `name:"log-level" help:"Log level: debug, info, warn, error"`

	Verses  VersesCmd  `cmd:"" help:"Parse, render and deduplicate verse markup"`
	Order   OrderCmd   `cmd:"" help:"Expand, contract and check order strings"`
	Songs   SongsCmd   `cmd:"" help:"Manage the song library"`
	Serve   ServeCmd   `cmd:"" help:"Run the song API server"`
	Config  ConfigCmd  `cmd:"" help:"Manage the config file"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// Env carries the streams and shared settings every command runs against.
type Env struct {
	cli *CLI
	cfg *config.Config

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("songtext"),
		kong.Description("Song library verse text engine"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		fmt.Fprintf(stderr, "songtext: %v\n", err)
		return 2
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "songtext: %v\n", err)
		return 2
	}

	level := logging.LevelWarn
	if cli.LogLevel != "" {
		if level, err = logging.ParseLevel(cli.LogLevel); err != nil {
			fmt.Fprintf(stderr, "songtext: %v\n", err)
			return 2
		}
	}
	logging.InitLoggerTo(stderr, level, logging.FormatText)

	env := &Env{cli: &cli, Stdin: stdin, Stdout: stdout, Stderr: stderr}
	if err := ctx.Run(env); err != nil {
		fmt.Fprintf(stderr, "songtext: %v\n", err)
		return 1
	}
	return 0
}

// config loads the config file once and applies the command-line overrides.
func (e *Env) config() (*config.Config, error) {
	if e.cfg != nil {
		return e.cfg, nil
	}

	cfg, _, _, err := config.Load(e.cli.ConfigFile)
	if err != nil {
		return nil, err
	}
	if e.cli.DB != "" {
		path := e.cli.DB
		if path != config.MemoryStorePath {
			if path, err = config.ExpandPath(path); err != nil {
				return nil, err
			}
		}
		cfg.Store.Path = path
	}
	if e.cli.LogLevel != "" {
		cfg.Logging.Level = e.cli.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, _ := logging.ParseLevel(cfg.Logging.Level)
	format, _ := logging.ParseFormat(cfg.Logging.Format)
	logging.InitLoggerTo(e.Stderr, level, format)

	e.cfg = cfg
	return cfg, nil
}

// openStore opens the configured song database. The caller closes it.
func (e *Env) openStore(ctx context.Context) (*songstore.Store, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	return songstore.Open(ctx, cfg.Store.Path)
}

// VersionCmd prints build information.
type VersionCmd struct{}

func (c *VersionCmd) Run(env *Env) error {
	info := sqlite.Driver()
	fmt.Fprintf(env.Stdout, "songtext %s\n", version)
	fmt.Fprintf(env.Stdout, "sqlite driver: %s (%s, %s)\n", info.Name, info.Type, info.Package)
	return nil
}

// ConfigCmd groups config file commands.
type ConfigCmd struct {
	Init ConfigInitCmd `cmd:"" help:"Write a sample config file"`
}

// ConfigInitCmd writes the sample config.
type ConfigInitCmd struct {
	Path  string `arg:"" optional:"" help:"Destination (default: ~/.config/songtext/config.toml)" type:"path"`
	Force bool   `help:"Overwrite an existing file"`
}

func (c *ConfigInitCmd) Run(env *Env) error {
	path := c.Path
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}
	if _, err := os.Stat(path); err == nil && !c.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.CreateSample(path); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "Wrote %s\n", path)
	return nil
}
