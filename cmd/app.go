package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/bustle/internal/bundle"
	"github.com/conneroisu/bustle/internal/compiler"
	"github.com/conneroisu/bustle/internal/config"
	"github.com/conneroisu/bustle/internal/identity"
	"github.com/conneroisu/bustle/internal/logging"
	"github.com/conneroisu/bustle/internal/manifest"
	"github.com/conneroisu/bustle/internal/resolver"
	"github.com/conneroisu/bustle/internal/types"
)

// app holds the components every command is built from. Everything is
// constructed once from the loaded configuration and is read-only afterwards.
type app struct {
	cfg      *config.Config
	logger   logging.Logger
	resolver *resolver.Resolver
	manifest *manifest.Manifest
	identity *identity.Store
	// compiler is nil when LESS preprocessing is disabled
	compiler *compiler.LessCompiler

	// buildFile is the resolved build artifact path
	buildFile string
}

func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})

	m, err := manifest.Load(cfg.ManifestPath(configRelativeDir("manifest", "manifest")))
	if err != nil {
		return nil, err
	}

	buildFile := cfg.BuildFilePath(configRelativeDir("build_file", "build-file"))
	a := &app{
		cfg:       cfg,
		logger:    logger,
		resolver:  resolver.New(cfg.Static.Root, cfg.Static.Sources...),
		manifest:  m,
		identity:  identity.Load(ctx, buildFile, logger),
		buildFile: buildFile,
	}

	if cfg.Less.Enabled {
		a.compiler, err = compiler.NewLessCompiler(a.resolver, compiler.Options{
			Binary:  cfg.Less.Bin,
			Timeout: cfg.Less.Timeout,
			Policy:  cfg.StalePolicy(),
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
	}

	return a, nil
}

// configRelativeDir returns the config file's directory when key was read
// from that file, so a relative manifest or build file written there does not
// depend on the working directory. Flag and env values stay relative to it.
func configRelativeDir(key, flag string) string {
	used := viper.ConfigFileUsed()
	if used == "" || !viper.InConfig(key) || rootCmd.PersistentFlags().Changed(flag) {
		return ""
	}
	env := config.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if _, ok := os.LookupEnv(env); ok {
		return ""
	}
	return filepath.Dir(used)
}

func (a *app) bundleBuilder() (*bundle.Builder, error) {
	opts := bundle.Options{
		Manifest:    a.manifest,
		Identity:    a.identity,
		StaticURL:   a.cfg.Static.URL,
		LessEnabled: a.cfg.Less.Enabled,
		Debug:       a.cfg.Debug,
		Logger:      a.logger,
	}
	if a.compiler != nil {
		opts.Compiler = a.compiler
	}
	return bundle.New(opts)
}

// lessTargets lists the .less sources named by CSS bundles, in manifest
// order without repeats.
func (a *app) lessTargets() []string {
	var targets []string
	seen := map[string]bool{}
	for _, name := range a.manifest.Names(types.KindCSS) {
		paths, _ := a.manifest.Bundle(types.KindCSS, name)
		for _, p := range paths {
			if types.IsDerivable(p) && !seen[p] {
				seen[p] = true
				targets = append(targets, p)
			}
		}
	}
	return targets
}

// watchRoots are the directories LESS sources are read from.
func (a *app) watchRoots() []string {
	if sources := a.resolver.Sources(); len(sources) > 0 {
		return sources
	}
	return []string{a.resolver.Root()}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
