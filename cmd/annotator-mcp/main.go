package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ironsheep/mask-annotator-mcp/internal/config"
	"github.com/ironsheep/mask-annotator-mcp/internal/logging"
	"github.com/ironsheep/mask-annotator-mcp/internal/server"
	"github.com/ironsheep/mask-annotator-mcp/internal/session"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("%s %s\n", server.Name, Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Printf("%s - MCP server for mask and bounding box annotation\n", server.Name)
			fmt.Println()
			fmt.Printf("Usage: %s [options]\n", server.Name)
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  ANNOTATOR_CONFIG=<file>              YAML configuration file")
			fmt.Println("  ANNOTATOR_LOG_MODE=release           JSON logs instead of console logs")
			fmt.Println("  ANNOTATOR_SESSION_HIT_RADIUS=<px>    Corner and edge hit radius")
			fmt.Println("  ANNOTATOR_SESSION_MIN_BOX_SIZE=<px>  Smallest box a drag creates")
			fmt.Println("  ANNOTATOR_SESSION_PEN_SIZE=<px>      Freehand pen diameter")
			fmt.Println("  ANNOTATOR_PATHS_MASK_DIR=<dir>       Mask directory, relative to the image")
			fmt.Println("  ANNOTATOR_PATHS_XML_DIR=<dir>        Box record directory, relative to the image")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	cfg, err := config.Load(os.Getenv("ANNOTATOR_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr; stdout is for MCP protocol
	if err := logging.Init(cfg.Log.Mode); err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	logging.L().Info("starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit", GitCommit))

	sess, err := session.New(cfg)
	if err != nil {
		logging.L().Fatal("session setup failed", zap.Error(err))
	}

	server.Version = Version
	srv := server.New(sess)
	if err := srv.Run(); err != nil {
		logging.L().Fatal("server error", zap.Error(err))
	}
}
