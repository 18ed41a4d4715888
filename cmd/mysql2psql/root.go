package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kmatt/mysql2psql/internal/config"
	"github.com/kmatt/mysql2psql/internal/logging"
)

const envPrefix = "MYSQL2PSQL"

// app carries what every command needs once flags are parsed.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	log    *logrus.Logger
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: viper.New(), stdout: stdout, stderr: stderr}

	var configPath string
	rootCmd := &cobra.Command{
		Use:   "mysql2psql",
		Short: "Convert MySQL dumps into PostgreSQL scripts",
		Long: `mysql2psql converts a mysqldump file (best produced with --compatible=postgresql)
into a script psql can load, in a single streaming pass.

Settings are read from mysql2psql.toml (next to the executable or in the working
directory, or the file given with --config), then MYSQL2PSQL_* environment
variables, then flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(configPath)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to a TOML configuration file")
	flags.String("log-level", "info", "Log level: trace, debug, info, warn, error")
	flags.String("log-format", "text", "Log format: text or json")
	a.bind(flags, "log.level", "log-level")
	a.bind(flags, "log.format", "log-format")

	rootCmd.AddCommand(newConvertCmd(a))
	rootCmd.AddCommand(newApplyCmd(a))
	rootCmd.AddCommand(newVersionCmd(a))
	return rootCmd
}

// bind ties a flag to a dotted configuration key.
func (a *app) bind(flags *pflag.FlagSet, key, name string) {
	if err := a.v.BindPFlag(key, flags.Lookup(name)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", name, err))
	}
}

// init loads the configuration file, layers the environment and flags over
// it and builds the logger.
func (a *app) init(configPath string) error {
	fileCfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	for key, value := range fileCfg.Settings() {
		a.v.SetDefault(key, value)
	}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	cfg := a.resolve(fileCfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, a.stderr)
	if err != nil {
		return err
	}
	a.log = logger
	return nil
}

// resolve reads the effective value of every key. Casts only come from the
// file; the convert command merges --cast on top.
func (a *app) resolve(fileCfg *config.Config) *config.Config {
	return &config.Config{
		Convert: config.ConvertConfig{
			Rollback:     a.v.GetBool("convert.rollback"),
			InputCharset: a.v.GetString("convert.input_charset"),
			Progress:     a.v.GetBool("convert.progress"),
			Report:       strings.ToLower(strings.TrimSpace(a.v.GetString("convert.report"))),
			Casts:        fileCfg.Convert.Casts,
		},
		Apply: config.ApplyConfig{
			DSN:                   a.v.GetString("apply.dsn"),
			DryRun:                a.v.GetBool("apply.dry_run"),
			Transaction:           a.v.GetBool("apply.transaction"),
			AllowNonTransactional: a.v.GetBool("apply.allow_non_transactional"),
			Unsafe:                a.v.GetBool("apply.unsafe"),
			Timeout:               a.v.GetInt("apply.timeout"),
		},
		Log: config.LogConfig{
			Level:  a.v.GetString("log.level"),
			Format: a.v.GetString("log.format"),
		},
	}
}

// loadConfig reads path, or the first mysql2psql.toml found next to the
// executable or in the working directory. Without a file the defaults apply.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	for _, candidate := range configCandidates() {
		if _, err := os.Stat(candidate); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("config: stat %q: %w", candidate, err)
		}
		return config.Load(candidate)
	}
	return config.Default(), nil
}

func configCandidates() []string {
	var paths []string
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), config.FileName))
	}
	if wd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(wd, config.FileName))
	}
	return paths
}
