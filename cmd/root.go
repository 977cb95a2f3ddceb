// Package cmd provides the command-line interface for bustle.
//
// Configuration System:
//
//	Settings are read from several sources with clear precedence:
//	1. Command-line flags (--static-url, --manifest, etc.) - highest priority
//	2. Individual environment variables (BUSTLE_STATIC_URL, BUSTLE_LESS_BIN, etc.)
//	3. Configuration files (.bustle.yml, or the file named by --config or
//	   BUSTLE_CONFIG_FILE) - lowest priority
//
// Environment Variables:
//
//	BUSTLE_CONFIG_FILE: Path to custom configuration file
//	BUSTLE_STATIC_ROOT: Override the static root
//	BUSTLE_LESS_ENABLED: Enable/disable LESS preprocessing
//	And the rest following the BUSTLE_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/bustle/internal/config"
	"github.com/conneroisu/bustle/internal/staleness"
)

var (
	cfgFile     string
	stalePolicy staleness.Policy
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bustle",
	Short: "Bundle, version and render static assets",
	Long: `Bustle turns named bundles of CSS, LESS and JavaScript files into the
markup that references them, compiling LESS on demand during development and
serving minified, cache-busted artifacts in production.

Quick Start:
  bustle render css main          Print the <link> tags for the "main" bundle
  bustle render js app --debug    Reference every source of the "app" bundle
  bustle compile                  Compile stale LESS sources
  bustle build                    Write minified bundles and the build file
  bustle watch                    Recompile LESS sources as they change
  bustle list                     List the bundles of the manifest
  bustle ids                      Print the build ids templates receive`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .bustle.yml, can also use BUSTLE_CONFIG_FILE env var)")
	flags.StringP("log-level", "l", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("log-format", config.DefaultLogFormat, "log format (text, json)")
	flags.String("static-root", config.DefaultStaticRoot, "directory static files are served from")
	flags.String("static-url", config.DefaultStaticURL, "URL prefix of static files, must end with /")
	flags.StringSlice("source", nil, "asset source directory, searched before the static root (repeatable)")
	flags.StringP("manifest", "m", config.DefaultManifest, "bundle manifest (.yml, .yaml, .json, .jsonc)")
	flags.String("build-file", config.DefaultBuildFile, "build artifact holding the build ids")
	flags.Bool("less", false, "compile .less sources with lessc")
	flags.String("lessc", config.DefaultLessBin, "lessc binary")
	flags.Var(&stalePolicy, "stale-policy", "when derived CSS is regenerated (mtime, always)")

	bindFlags(map[string]string{
		"log.level":      "log-level",
		"log.format":     "log-format",
		"static.root":    "static-root",
		"static.url":     "static-url",
		"static.sources": "source",
		"manifest":       "manifest",
		"build_file":     "build-file",
		"less.enabled":   "less",
		"less.bin":       "lessc",
		"less.policy":    "stale-policy",
	})
}

func bindFlags(bindings map[string]string) {
	for key, name := range bindings {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("binding --%s: %v", name, err))
		}
	}
}

// initConfig initializes the configuration system.
//
// Configuration file priority (highest to lowest):
//  1. --config flag
//  2. BUSTLE_CONFIG_FILE environment variable
//  3. .bustle.yml in the current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("BUSTLE_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".bustle")
	}

	config.BindEnv(viper.GetViper())

	// A missing config file is fine; defaults and flags still apply
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
