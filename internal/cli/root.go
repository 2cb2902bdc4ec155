// Package cli implements the mgres command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "mgres",
	Short: "Microgrid resilience analysis and capacity sizing",
	Long: `mgres scores how well a microgrid rides through a disturbance and
searches for minimal diesel, battery and PV capacities that serve its load.

Every study is described by a YAML scenario file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command until it returns or the process is signalled.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// ExecuteServe runs the serve command with the process arguments.
func ExecuteServe() error {
	rootCmd.SetArgs(append([]string{"serve"}, os.Args[1:]...))
	return Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "settings file (default is ./mgres.yaml)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("out", "results", "directory for result files")
	flags.String("mongo-uri", "", "MongoDB URI for result storage")
	flags.String("mongo-database", "mgres", "MongoDB database name")
	flags.String("sql-driver", "mysql", "SQL driver for result storage: mysql or postgres")
	flags.String("sql-dsn", "", "SQL data source name for result storage")
	flags.String("nats-url", "", "NATS server to publish results to")

	for _, key := range []string{"log-level", "out", "mongo-uri", "mongo-database", "sql-driver", "sql-dsn", "nats-url"} {
		viper.BindPFlag(key, flags.Lookup(key))
	}

	rootCmd.AddCommand(resilienceCmd)
	rootCmd.AddCommand(sizingCmd)
	rootCmd.AddCommand(serveCmd)
}

func initConfig() {
	// a missing .env is not an error
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("mgres")
	}

	viper.SetEnvPrefix("MGRES")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func newLogger() (*zap.Logger, error) {
	level := viper.GetString("log-level")
	if strings.EqualFold(level, "debug") {
		return zap.NewDevelopmentConfig().Build()
	}
	cfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg.Level = lvl
	return cfg.Build()
}
