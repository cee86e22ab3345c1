package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chrissnell/celestial/internal/app"
	"github.com/chrissnell/celestial/internal/constants"
	"github.com/chrissnell/celestial/internal/log"
	"github.com/chrissnell/celestial/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to configuration source:\n\t\t\t  YAML: config.yaml\n\t\t\t  SQLite: config.db\n\t\t\t  Use 'config-convert' tool to convert YAML→SQLite")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	logFile := flag.String("log-file", "", "Also write JSON logs to this file, rotated by size")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", constants.AppName, constants.Version)
		os.Exit(0)
	}

	// Load configuration
	settings, err := loadSettings(*cfgFile, *cfgBackend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Set up logging
	if *logFile != "" {
		err = log.InitFile(*debug || settings.Debug, *logFile)
	} else {
		err = log.Init(*debug || settings.Debug)
	}
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Debugw("configuration loaded", "source", *cfgFile, "backend", *cfgBackend)

	// Create and run the application
	application := app.New(settings, log.GetSugaredLogger())
	if err := application.Run(context.Background()); err != nil {
		log.Errorf("Application error: %v", err)
		log.Sync()
		os.Exit(1)
	}
}

func loadSettings(cfgFile, cfgBackend string) (*config.Settings, error) {
	filename, _ := filepath.Abs(cfgFile)

	var provider config.SettingsProvider
	var err error

	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(filename)
	case "sqlite":
		provider, err = config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
	defer provider.Close()

	settings, err := config.NewCache(provider, os.LookupEnv).Get()
	if err != nil {
		return nil, fmt.Errorf("error reading configuration. Did you pass the -config flag? Run with -h for help: %w", err)
	}

	return settings, nil
}
