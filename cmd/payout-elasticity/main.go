package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/iwvelando/payout-elasticity/internal/analysis"
	"github.com/iwvelando/payout-elasticity/internal/cache"
	"github.com/iwvelando/payout-elasticity/internal/config"
	"github.com/iwvelando/payout-elasticity/internal/logging"
	"github.com/iwvelando/payout-elasticity/internal/scenario"
	"github.com/iwvelando/payout-elasticity/pkg/constants"
	"github.com/iwvelando/payout-elasticity/pkg/output"
	"github.com/iwvelando/payout-elasticity/pkg/validation"
	"go.uber.org/zap"
)

func loadConfiguration(path string) (*config.Configuration, error) {
	if path == "" {
		return config.LoadConfigurationFromReader(strings.NewReader(""))
	}
	return config.LoadConfiguration(path)
}

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file; empty uses the built-in plan")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	structureName := flag.String("structure", "", "payout structure to analyse (default: analysis.structure or the first)")
	profileName := flag.String("profile", "", "performance profile to analyse (default: analysis.profile or the first)")
	compare := flag.Bool("compare", false, "compare every structure against every profile instead of a full report")
	flag.Parse()

	conf, err := loadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	if *structureName != "" {
		conf.Analysis.Structure = *structureName
	}
	if *profileName != "" {
		conf.Analysis.Profile = *profileName
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	ctx := context.Background()

	if *compare {
		results, err := scenario.NewRunner(logger, 0).Compare(ctx, conf.Structures, conf.Profiles)
		if err != nil {
			logger.Fatal("failed to compare payout structures",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		if outputFormat == constants.OutputFormatJSON {
			err = output.JSONFormat(os.Stdout, results)
		} else {
			err = output.PrettyComparison(os.Stdout, results)
		}
		if err != nil {
			logger.Fatal("failed to write comparison",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
	}

	c, err := cache.New(conf.Cache)
	if err != nil {
		logger.Fatal("failed to initialize cache",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("failed to close cache",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}()

	req, err := analysis.FromConfiguration(conf)
	if err != nil {
		logger.Fatal("failed to select structure and profile",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	report, err := analysis.NewService(logger, c, conf.Cache.EntryTTL()).Run(ctx, req)
	if err != nil {
		logger.Fatal("failed to compute analysis",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if err := output.Write(os.Stdout, outputFormat, report); err != nil {
		logger.Fatal("failed to write report",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
