package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	internal "github.com/ZanzyTHEbar/mvault/mvault"
	"github.com/ZanzyTHEbar/mvault/mvault/config"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem"
	"github.com/ZanzyTHEbar/mvault/mvault/filesystem/common"
	"github.com/ZanzyTHEbar/mvault/mvault/output"

	"github.com/spf13/pflag"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// usageError marks argument problems that exit with status 2.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

type globalArgs struct {
	configPath string
	flags      *pflag.FlagSet
	command    string
	rest       []string
}

type commandArgs struct {
	root   string
	dryRun bool
	tree   bool
}

func newGlobalFlags(stderr io.Writer) (*pflag.FlagSet, *string) {
	fs := pflag.NewFlagSet(internal.DefaultAppName, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	configPath := fs.StringP("config", "c", "", "config file (default ./config.yaml or $HOME/.config/mvault/config.yaml)")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("log-format", internal.LogFormatAuto, "log format: auto, console, json")
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	return fs, configPath
}

func parseGlobal(args []string, stderr io.Writer) (globalArgs, error) {
	fs, configPath := newGlobalFlags(stderr)
	if err := fs.Parse(args); err != nil {
		return globalArgs{}, err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return globalArgs{}, usagef("missing command")
	}
	return globalArgs{configPath: *configPath, flags: fs, command: rest[0], rest: rest[1:]}, nil
}

func parseCommand(name string, args []string, stderr io.Writer) (commandArgs, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	var ca commandArgs
	fs.BoolVarP(&ca.dryRun, "dry-run", "n", false, "log what would happen without changing anything")
	if name == "organize" {
		fs.BoolVar(&ca.tree, "tree", false, "print the archive targets as a tree (implied by --dry-run)")
	}
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	if err := fs.Parse(args); err != nil {
		return commandArgs{}, err
	}
	switch fs.NArg() {
	case 0:
		return commandArgs{}, usagef("%s needs an archive root", name)
	case 1:
		ca.root = fs.Arg(0)
	default:
		return commandArgs{}, usagef("%s takes one archive root, got %d arguments", name, fs.NArg())
	}
	return ca, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	g, err := parseGlobal(args, stderr)
	if err != nil {
		return reportUsage(err, stderr)
	}
	if g.command == "help" {
		fmt.Fprint(stdout, usage)
		return exitOK
	}
	if g.command != "organize" && g.command != "refresh" {
		return reportUsage(usagef("unknown command %q", g.command), stderr)
	}

	ca, err := parseCommand(g.command, g.rest, stderr)
	if err != nil {
		return reportUsage(err, stderr)
	}

	cfg, err := config.LoadConfig(g.configPath, g.flags)
	if err != nil {
		fmt.Fprintf(stderr, "mvault: %v\n", err)
		return exitFailure
	}
	log, err := internal.NewLogger(cfg.Log.Level, cfg.Log.Format, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "mvault: %v\n", err)
		return exitUsage
	}

	fsys, err := filesystem.New(cfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "mvault: %v\n", err)
		return exitFailure
	}

	switch g.command {
	case "organize":
		res, err := fsys.Organize(ctx, ca.root, ca.dryRun)
		if res != nil {
			output.WriteOrganizeSummary(stdout, res)
			if (ca.tree || ca.dryRun) && res.Counters.Moved > 0 {
				fmt.Fprint(stdout, output.ArchiveTree(res).Render())
			}
		}
		if err != nil {
			if common.IsFatal(err) {
				log.Error().Err(err).Str("root", ca.root).Msg("Intake aborted, checksum index unusable")
				fmt.Fprintf(stderr, "mvault: run \"mvault refresh %s\" to rebuild the checksum index\n", ca.root)
				return exitFailure
			}
			log.Error().Err(err).Str("root", ca.root).Msg("Intake failed")
			return exitFailure
		}
		if len(res.Failures()) > 0 {
			return exitFailure
		}
	case "refresh":
		res, err := fsys.Refresh(ctx, ca.root, ca.dryRun)
		if err != nil {
			log.Error().Err(err).Str("root", ca.root).Msg("Index rebuild failed")
			return exitFailure
		}
		output.WriteReconcileSummary(stdout, res)
		if len(res.Failures) > 0 {
			return exitFailure
		}
	}
	return exitOK
}

func reportUsage(err error, stderr io.Writer) int {
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	fmt.Fprintf(stderr, "mvault: %v\n\n%s", err, usage)
	return exitUsage
}

const usage = `Usage:
  mvault [--config FILE] [--log-level LEVEL] [--log-format auto|console|json] <command> [flags] <archive-root>

Commands:
  organize   move new media from the dropbox into the archive, delete known duplicates
  refresh    rebuild the checksum index from the photo and video subtrees

Flags:
  -n, --dry-run   log what would happen without changing anything
      --tree      organize only: print archive targets as a tree (implied by --dry-run)
  -h, --help      show this help
`
