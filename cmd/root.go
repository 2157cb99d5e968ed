package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/wmnctl/internal/config"
	wmnerrors "github.com/conneroisu/wmnctl/internal/errors"
	"github.com/conneroisu/wmnctl/internal/logging"
	"github.com/conneroisu/wmnctl/internal/pipeline"
)

var (
	cfgFile string
	// errConfigRead is set by initConfig when an existing config file could
	// not be read.
	errConfigRead error

	appConfig *config.Config
	logger    logging.Logger = logging.NewLogger(nil)
	// appFs is replaced in tests.
	appFs = afero.NewOsFs()
)

// flagKeys maps flag names to the configuration keys they override.
var flagKeys = map[string]string{
	"data":                "files.data",
	"schema":              "files.schema",
	"log-level":           "log.level",
	"log-format":          "log.format",
	"indent":              "format.indent",
	"algorithm":           "hash.algorithm",
	"output":              "validate.output",
	"draft":               "validate.draft",
	"casefold-duplicates": "validate.casefold_duplicates",
	"debounce":            "watch.debounce",
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wmnctl",
	Short: "Maintain the WhatsMyName dataset",
	Long: `wmnctl keeps the WhatsMyName site dataset and its JSON Schema in a
canonical, hashed and validated state.

Quick Start:
  wmnctl format      Rewrite the dataset and schema in canonical form
  wmnctl hash        Refresh the digest files next to each tracked file
  wmnctl validate    Check the dataset against the schema and for duplicate names
  wmnctl check       Run format, hash and validate in sequence
  wmnctl watch       Re-run check whenever a tracked file changes

Configuration is read from .wmn.yml in the working directory (or --config,
or WMN_CONFIG_FILE), overridden by WMN_* environment variables and flags.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command. Any error, including a recovered panic, is
// logged once and returned so main can exit non-zero.
func Execute() (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer func() {
		if r := recover(); r != nil {
			err = wmnerrors.NewInternalError(wmnerrors.ErrCodeUnexpected, "unexpected error", wmnerrors.FromPanic(r))
			reportError(ctx, err)
		}
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		reportError(ctx, err)
		return err
	}
	return nil
}

func reportError(ctx context.Context, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		logger.Info(ctx, "Interrupted")
	case wmnerrors.IsDomain(err):
		logger.Error(ctx, err, "Command failed", "kind", string(wmnerrors.KindOf(err)), "code", wmnerrors.CodeOf(err))
	default:
		logger.Error(ctx, err, "Unexpected error")
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .wmn.yml, can also use WMN_CONFIG_FILE env var)")
	flags.String("data", config.DefaultDataFile, "dataset file")
	flags.String("schema", config.DefaultSchemaFile, "JSON schema file")
	flags.StringP("log-level", "l", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("log-format", config.DefaultLogFormat, "log format (text, json)")
}

// initConfig selects the config file: --config, then WMN_CONFIG_FILE, then
// .wmn.yml in the working directory. A missing default file is not an error.
func initConfig() {
	errConfigRead = nil
	explicit := true

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("WMN_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		explicit = false
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".wmn")
	}

	config.SetDefaults()
	config.BindEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			errConfigRead = err
		}
	}
}

// setup binds the running command's flags, loads the configuration and
// builds the run's logger.
func setup(cmd *cobra.Command, args []string) error {
	if errConfigRead != nil {
		return wmnerrors.NewFileError(wmnerrors.ErrCodeIO, "failed to read config file", errConfigRead)
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = viper.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return bindErr
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger = logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	}).With("run_id", uuid.NewString())
	appConfig = cfg

	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug(cmd.Context(), "Using config file", "path", used)
	}
	return nil
}

func newRunner(cmd *cobra.Command) *pipeline.Runner {
	return pipeline.New(appConfig, appFs, cmd.OutOrStdout(), logger)
}
