// Package main is the entry point for the oncostage CLI. It runs the same
// extraction and staging pipeline as the HTTP service against local files.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rawmatterx/oncostaging/logging"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the oncostage CLI.
var rootCmd = &cobra.Command{
	Use:   "oncostage",
	Short: "Extract oncology features from pathology reports and assign TNM stages",
	Long: `oncostage reads free-text pathology reports, extracts tumour size, depth,
lymph node count, metastasis and liver invasion, and assigns a TNM stage using
per-cancer staging rules.

extract and analyze work on report files, stage works on features given as
flags, and audit inspects the staging history kept in the audit database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := viper.GetString("log_level")
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = "debug"
		}
		logging.InitConsoleLogger(os.Stderr, level)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./oncostage.yaml or ~/.config/oncostage/config.yaml)")
	rootCmd.PersistentFlags().String("format", formatJSON, "output format: json or yaml")
	rootCmd.PersistentFlags().String("audit-db", "", "SQLite audit database path (empty disables auditing)")
	rootCmd.PersistentFlags().String("guidelines", "", "YAML file overriding the embedded guideline catalog")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug output to stderr")

	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("audit.db_path", rootCmd.PersistentFlags().Lookup("audit-db"))
	_ = viper.BindPFlag("guidelines.file", rootCmd.PersistentFlags().Lookup("guidelines"))
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("audit.retention_days", 90)
	setStagingDefaults()
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("oncostage")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "oncostage"))
		}
	}

	viper.SetEnvPrefix("ONCOSTAGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
