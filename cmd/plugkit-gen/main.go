package main

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"

	"github.com/platinummonkey/plugkit/pkg/codegen"
	"github.com/platinummonkey/plugkit/pkg/sandbox"
	"github.com/sirupsen/logrus"
)

// Config holds the generator's command-line configuration
type Config struct {
	Dir      string
	Output   string
	Check    bool
	Init     bool
	Module   string
	Version  string
	LogLevel string
}

// plugkit-gen writes the plugin declaration table of a package directory
func main() {
	config := parseFlags()
	logger := setupLogger(config.LogLevel)

	if config.Init {
		manifest, created, err := codegen.InitImage(config.Dir, config.Module, config.Version)
		if err != nil {
			logger.Fatalf("Failed to initialize module image: %v", err)
		}
		if created {
			logger.Infof("Wrote %s for %s %s", filepath.Join(config.Dir, sandbox.ManifestFile), manifest.Module, manifest.Version)
		}
	}

	file, err := codegen.NewGenerator(logger).Generate(config.Dir, config.Output)
	if err != nil {
		var diagErr *codegen.DiagnosticsError
		if errors.As(err, &diagErr) {
			for _, d := range diagErr.Diagnostics {
				logger.Error(d.String())
			}
		}
		logger.Fatalf("Failed to generate declarations: %v", err)
	}

	target := filepath.Join(config.Dir, file.Path)

	if config.Check {
		existing, err := os.ReadFile(target)
		if err != nil || !bytes.Equal(existing, file.Content) {
			logger.Fatalf("%s is out of date", target)
		}
		logger.Infof("%s is up to date", target)
		return
	}

	if err := os.WriteFile(target, file.Content, 0644); err != nil {
		logger.Fatalf("Failed to write %s: %v", target, err)
	}
	logger.Infof("Wrote %s (%d bytes)", target, file.Size)
}

func parseFlags() *Config {
	config := &Config{}

	flag.StringVar(&config.Dir, "dir", ".", "Plugin package directory containing module.yaml")
	flag.StringVar(&config.Output, "out", codegen.DefaultOutput, "Output file name within the package directory")
	flag.BoolVar(&config.Check, "check", false, "Fail if the output file is out of date instead of writing it")
	flag.BoolVar(&config.Init, "init", false, "Write module.yaml first when the directory has none")
	flag.StringVar(&config.Module, "module", "", "Module import path for -init")
	flag.StringVar(&config.Version, "version", codegen.DefaultImageVersion, "Module version for -init")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	flag.Parse()

	return config
}

func setupLogger(logLevel string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
