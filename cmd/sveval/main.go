// Package main provides the sveval command-line tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/sveval/internal/duckdb"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const configName = ".sveval"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// exitError carries a specific exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error {
	return &exitError{code: ExitUsage, err: err}
}

// usageArgs marks positional argument errors as usage errors.
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	defer a.close()

	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		if strings.HasPrefix(err.Error(), "unknown command") {
			return ExitUsage
		}
		return ExitError
	}
	return ExitSuccess
}

// app holds the per-invocation state shared by all commands.
type app struct {
	stdout io.Writer
	stderr io.Writer
	v      *viper.Viper
	logger *zap.Logger

	cfgFile string
	stores  map[string]*duckdb.Store
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout: stdout,
		stderr: stderr,
		v:      viper.New(),
		logger: zap.NewNop(),
		stores: make(map[string]*duckdb.Store),
	}
}

func (a *app) close() {
	for path, s := range a.stores {
		if err := s.Close(); err != nil {
			a.logger.Warn("close database", zap.String("path", path), zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sveval",
		Short: "Structural-variant callset concordance",
		Long: `sveval compares structural-variant callsets: offspring against parents,
replicate runs of one sample, or somatic callers against a truth set.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initConfig(); err != nil {
				return err
			}
			return a.initLogger()
		},
	}
	root.SetVersionTemplate("sveval version {{.Version}}\n")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ~/.sveval.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("db", "", "DuckDB file to persist evaluation results")
	pf.String("cache-db", "", "DuckDB file caching parsed callsets")
	a.bind("log.level", pf.Lookup("log-level"))
	a.bind("db", pf.Lookup("db"))
	a.bind("cache_db", pf.Lookup("cache-db"))

	root.AddCommand(a.newTrioCmd())
	root.AddCommand(a.newReplicateCmd())
	root.AddCommand(a.newSomaticCmd())
	root.AddCommand(a.newSpecificCmd())
	root.AddCommand(a.newConfigCmd())

	return root
}

func (a *app) initConfig() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			a.v.AddConfigPath(home)
		}
		a.v.SetConfigName(configName)
		a.v.SetConfigType("yaml")
	}

	a.v.SetEnvPrefix("SVEVAL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

func (a *app) initLogger() error {
	level, err := zapcore.ParseLevel(a.v.GetString("log.level"))
	if err != nil {
		return usageError(fmt.Errorf("invalid log level: %w", err))
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.CallerKey = ""

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(a.stderr), level)
	a.logger = zap.New(core)
	return nil
}

// configPath returns the file that config set writes to.
func (a *app) configPath() (string, error) {
	if f := a.v.ConfigFileUsed(); f != "" {
		return f, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, configName+".yaml"), nil
}
