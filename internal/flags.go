package internal

import (
	"github.com/urfave/cli/v3"

	"github.com/tolmachov/mcp-telegram/internal/config"
)

const (
	flagAPIID                = "api-id"
	flagAPIHash              = "api-hash"
	flagPhone                = "phone"
	flagMaxPageSize          = "max-page-size"
	flagExportThreshold      = "export-threshold"
	flagArtifactTTL          = "artifact-ttl"
	flagArtifactSweep        = "artifact-sweep-interval"
	flagArtifactDir          = "artifact-dir"
	flagWaitBudget           = "wait-budget"
	flagMaxRetryAttempts     = "max-retry-attempts"
	flagRequestTimeout       = "request-timeout"
	flagInnerReadMultiplier  = "inner-read-multiplier"
	flagResolverCacheEnabled = "resolver-cache-enabled"
	flagResolverCacheSize    = "resolver-cache-size"
)

func apiIDFlag() *cli.IntFlag {
	return &cli.IntFlag{
		Name:     flagAPIID,
		Usage:    "Telegram API ID",
		Sources:  cli.EnvVars("TELEGRAM_API_ID"),
		Required: true,
	}
}

func apiHashFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     flagAPIHash,
		Usage:    "Telegram API Hash",
		Sources:  cli.EnvVars("TELEGRAM_API_HASH"),
		Required: true,
	}
}

func phoneFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     flagPhone,
		Aliases:  []string{"p"},
		Usage:    "Phone number with country code (e.g., +1234567890)",
		Required: true,
	}
}

func maxPageSizeFlag(def config.Config) *cli.IntFlag {
	return &cli.IntFlag{
		Name:    flagMaxPageSize,
		Value:   def.MaxPageSize,
		Usage:   "Largest page_size a fetch_history call may request",
		Sources: cli.EnvVars("MAX_PAGE_SIZE"),
	}
}

func exportThresholdFlag(def config.Config) *cli.IntFlag {
	return &cli.IntFlag{
		Name:    flagExportThreshold,
		Value:   def.ExportThreshold,
		Usage:   "Message count above which a page is materialized as an artifact",
		Sources: cli.EnvVars("EXPORT_THRESHOLD"),
	}
}

func artifactTTLFlag(def config.Config) *cli.DurationFlag {
	return &cli.DurationFlag{
		Name:    flagArtifactTTL,
		Value:   def.ArtifactTTL,
		Usage:   "How long a materialized artifact stays readable",
		Sources: cli.EnvVars("ARTIFACT_TTL"),
	}
}

func artifactSweepIntervalFlag(def config.Config) *cli.DurationFlag {
	return &cli.DurationFlag{
		Name:    flagArtifactSweep,
		Value:   def.ArtifactSweepInterval,
		Usage:   "How often the artifact sweeper runs",
		Sources: cli.EnvVars("ARTIFACT_SWEEP_INTERVAL"),
	}
}

func artifactDirFlag(def config.Config) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    flagArtifactDir,
		Value:   def.ArtifactDir,
		Usage:   "Directory where NDJSON artifacts are written",
		Sources: cli.EnvVars("ARTIFACT_DIR"),
	}
}

func waitBudgetFlag(def config.Config) *cli.DurationFlag {
	return &cli.DurationFlag{
		Name:    flagWaitBudget,
		Value:   def.WaitBudget,
		Usage:   "Longest flood-wait the Wait Controller will sleep through before surfacing RATE_LIMITED",
		Sources: cli.EnvVars("WAIT_BUDGET"),
	}
}

func maxRetryAttemptsFlag(def config.Config) *cli.IntFlag {
	return &cli.IntFlag{
		Name:    flagMaxRetryAttempts,
		Value:   def.MaxRetryAttempts,
		Usage:   "Maximum attempts for flood-wait and transient-error retries",
		Sources: cli.EnvVars("MAX_RETRY_ATTEMPTS"),
	}
}

func requestTimeoutFlag(def config.Config) *cli.DurationFlag {
	return &cli.DurationFlag{
		Name:    flagRequestTimeout,
		Value:   def.RequestTimeout,
		Usage:   "Timeout applied to a single provider call",
		Sources: cli.EnvVars("REQUEST_TIMEOUT"),
	}
}

func innerReadMultiplierFlag(def config.Config) *cli.IntFlag {
	return &cli.IntFlag{
		Name:    flagInnerReadMultiplier,
		Value:   def.InnerReadMultiplier,
		Usage:   "Bounds internal reads per fetch_history page to page_size times this factor",
		Sources: cli.EnvVars("INNER_READ_MULTIPLIER"),
	}
}

func resolverCacheEnabledFlag(def config.Config) *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:    flagResolverCacheEnabled,
		Value:   def.ResolverCacheEnabled,
		Usage:   "Enable the Chat Resolver's bounded LRU cache",
		Sources: cli.EnvVars("RESOLVER_CACHE_ENABLED"),
	}
}

func resolverCacheSizeFlag(def config.Config) *cli.IntFlag {
	return &cli.IntFlag{
		Name:    flagResolverCacheSize,
		Value:   def.ResolverCacheSize,
		Usage:   "Maximum entries in the Chat Resolver cache",
		Sources: cli.EnvVars("RESOLVER_CACHE_SIZE"),
	}
}

func runFlags() []cli.Flag {
	def := config.Default()
	return []cli.Flag{
		apiIDFlag(),
		apiHashFlag(),
		maxPageSizeFlag(def),
		exportThresholdFlag(def),
		artifactTTLFlag(def),
		artifactSweepIntervalFlag(def),
		artifactDirFlag(def),
		waitBudgetFlag(def),
		maxRetryAttemptsFlag(def),
		requestTimeoutFlag(def),
		innerReadMultiplierFlag(def),
		resolverCacheEnabledFlag(def),
		resolverCacheSizeFlag(def),
	}
}

func configFromCommand(cmd *cli.Command) config.Config {
	return config.Config{
		APIID:                 cmd.Int(flagAPIID),
		APIHash:               cmd.String(flagAPIHash),
		MaxPageSize:           cmd.Int(flagMaxPageSize),
		ExportThreshold:       cmd.Int(flagExportThreshold),
		ArtifactTTL:           cmd.Duration(flagArtifactTTL),
		ArtifactSweepInterval: cmd.Duration(flagArtifactSweep),
		ArtifactDir:           cmd.String(flagArtifactDir),
		WaitBudget:            cmd.Duration(flagWaitBudget),
		MaxRetryAttempts:      cmd.Int(flagMaxRetryAttempts),
		RequestTimeout:        cmd.Duration(flagRequestTimeout),
		InnerReadMultiplier:   cmd.Int(flagInnerReadMultiplier),
		ResolverCacheEnabled:  cmd.Bool(flagResolverCacheEnabled),
		ResolverCacheSize:     cmd.Int(flagResolverCacheSize),
	}
}
