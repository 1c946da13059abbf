package main

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/ironsheep/donut-corners-mcp/internal/corners"
	"github.com/ironsheep/donut-corners-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := os.Getenv("CORNERS_MCP_CONFIG")

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; {
		case arg == "--version" || arg == "-v" || arg == "version":
			fmt.Printf("donut-corners-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case arg == "--help" || arg == "-h" || arg == "help":
			printUsage()
			return
		case arg == "--config" || arg == "-c":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--config requires a path")
				os.Exit(2)
			}
			i++
			configPath = args[i]
		case strings.HasPrefix(arg, "--config="):
			configPath = strings.TrimPrefix(arg, "--config=")
		default:
			fmt.Fprintf(os.Stderr, "unknown argument %q (see --help)\n", arg)
			os.Exit(2)
		}
	}

	// Log to stderr; stdout is for MCP protocol
	logger, err := newLogger(os.Getenv("CORNERS_MCP_LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	defaults := corners.DefaultConfig()
	if configPath != "" {
		defaults, err = corners.LoadConfig(configPath)
		if err != nil {
			logger.Fatal("failed to load configuration", zap.String("path", configPath), zap.Error(err))
		}
		if err := defaults.Validate(); err != nil {
			logger.Fatal("invalid configuration", zap.String("path", configPath), zap.Error(err))
		}
	}

	logger.Debug("starting donut corners MCP server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit", GitCommit),
		zap.String("config", configPath))

	srv := server.New(
		server.WithLogger(logger),
		server.WithDefaults(defaults),
		server.WithVersion(Version),
	)
	if err := srv.Run(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid CORNERS_MCP_LOG_LEVEL: %w", err)
		}
		cfg.Level = lvl
	}
	return cfg.Build()
}

func printUsage() {
	fmt.Println("donut-corners-mcp - MCP server for donut-kernel corner detection")
	fmt.Println()
	fmt.Println("Usage: donut-corners-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config, -c PATH  YAML detector defaults (missing file = built-in defaults)")
	fmt.Println("  --version, -v      Print version information")
	fmt.Println("  --help, -h         Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  CORNERS_MCP_LOG_LEVEL=debug    Log level (debug, info, warn, error)")
	fmt.Println("  CORNERS_MCP_CONFIG=PATH        Same as --config")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}
