// storage-inputs inspects and edits the cli-inputs.json of storage
// resources and migrates resources still described by the legacy
// parameters.json / policy template layout.
//
// Usage:
//
//	storage-inputs [global flags] <command> <resource> [command flags]
//
// Commands: show, validate, needs-migration, migrate, add-trigger,
// set-admin-trigger, clear-admin-trigger.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/terraform-plugin-log/tflog"
	"github.com/hashicorp/terraform-plugin-log/tfsdklog"
	"github.com/spf13/pflag"

	"github.com/coreweave/storage-inputs/internal/config"
	"github.com/coreweave/storage-inputs/internal/schema"
	"github.com/coreweave/storage-inputs/storage/inputs"
	"github.com/coreweave/storage-inputs/storage/migration"
)

const toolName = "storage-inputs"

var errUsage = errors.New("usage error")

func main() {
	a := &app{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		exit:   os.Exit,
	}
	if err := a.run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the process boundary so commands can run in tests.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	exit   func(int)

	cfg      config.Config
	registry *inputs.Registry
}

type command struct {
	name    string
	summary string
	flags   func(fs *pflag.FlagSet) action
}

var commands = []command{
	{"show", "print the resource's cli inputs", showCommand},
	{"validate", "check cli-inputs.json against the S3UserInputs schema", validateCommand},
	{"needs-migration", "report whether legacy files are still present", needsMigrationCommand},
	{"migrate", "rewrite legacy files into cli-inputs.json", migrateCommand},
	{"add-trigger", "bind an additional trigger function to key prefixes", addTriggerCommand},
	{"set-admin-trigger", "install the admin trigger function", setAdminTriggerCommand},
	{"clear-admin-trigger", "remove the admin trigger function", clearAdminTriggerCommand},
}

func (a *app) run(ctx context.Context, args []string) error {
	var (
		configPath  string
		backendDir  string
		logLevel    string
		autoApprove bool
	)

	global := pflag.NewFlagSet(toolName, pflag.ContinueOnError)
	global.SetOutput(a.stderr)
	global.SetInterspersed(false)
	global.StringVar(&configPath, "config", "", fmt.Sprintf("path to a YAML config file (env %s)", config.ConfigFileEnvVar))
	global.StringVar(&backendDir, "backend-dir", "", fmt.Sprintf("backend directory holding the storage resources (env %s)", config.BackendDirEnvVar))
	global.StringVar(&logLevel, "log-level", "", fmt.Sprintf("TRACE, DEBUG, INFO, WARN, ERROR or OFF (env %s)", config.LogLevelEnvVar))
	global.BoolVarP(&autoApprove, "yes", "y", false, fmt.Sprintf("approve the auth dependency migration without asking (env %s)", config.AutoApproveEnvVar))
	global.Usage = func() { a.printUsage(global) }

	if err := global.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if backendDir != "" {
		cfg.BackendDir = backendDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if global.Changed("yes") {
		cfg.AutoApprove = autoApprove
	}
	a.cfg = cfg

	ctx, err = a.withLogger(ctx)
	if err != nil {
		return err
	}

	rest := global.Args()
	if len(rest) == 0 {
		a.printUsage(global)
		return fmt.Errorf("%w: missing command", errUsage)
	}
	cmd, ok := lookupCommand(rest[0])
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, rest[0])
	}

	fs := pflag.NewFlagSet(cmd.name, pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	act := cmd.flags(fs)
	if err := fs.Parse(rest[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: %s takes exactly one resource name", errUsage, cmd.name)
	}
	resourceName := fs.Arg(0)

	a.registry = inputs.NewRegistry(inputs.Config{
		BackendDir: cfg.BackendDir,
		Validator:  schema.NewDefault(),
		Migration: migration.Options{
			AuthMigrator: migration.AuthMigratorFunc(a.confirmAuthMigration),
			Exit:         a.exit,
		},
	})

	ctx = tflog.SetField(ctx, "command", cmd.name)
	m, err := a.registry.GetOrOpen(ctx, resourceName, nil)
	if err != nil {
		return err
	}
	return act(ctx, a, m)
}

// withLogger installs the root logger. Log lines always go to the process
// stderr as JSON.
func (a *app) withLogger(ctx context.Context) (context.Context, error) {
	level := hclog.LevelFromString(a.cfg.LogLevel)
	if level == hclog.NoLevel {
		return nil, fmt.Errorf("invalid log level %q", a.cfg.LogLevel)
	}
	return tfsdklog.NewRootProviderLogger(ctx,
		tfsdklog.WithLogName(toolName),
		tfsdklog.WithLevel(level),
		tfsdklog.WithoutLocation(),
	), nil
}

// confirmAuthMigration asks on stdin unless auto approval is configured.
func (a *app) confirmAuthMigration(ctx context.Context) (bool, error) {
	if a.cfg.AutoApprove {
		tflog.Debug(ctx, "auth dependency migration approved by configuration")
		return true, nil
	}
	fmt.Fprint(a.stdout, "Storage depends on the auth resource, which must be migrated first. Continue? [y/N] ")
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func (a *app) printUsage(global *pflag.FlagSet) {
	fmt.Fprintf(a.stderr, "Usage: %s [flags] <command> <resource> [command flags]\n\nCommands:\n", toolName)
	for _, c := range commands {
		fmt.Fprintf(a.stderr, "  %-20s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(a.stderr, "\nFlags:\n%s", global.FlagUsages())
}
