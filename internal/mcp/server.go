package mcp

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/mvp-joe/big-brother/internal/config"
)

// ServerName is the name announced to MCP clients.
const ServerName = "big-brother"

// ConfigLoader loads the configuration for a scan root.
type ConfigLoader func(root string) (*config.Config, error)

// Server exposes scanning and split planning to agents over MCP.
type Server struct {
	fs         afero.Fs
	loadConfig ConfigLoader
	log        *zap.Logger
	mcp        *server.MCPServer
}

// NewServer creates an MCP server with the bb_* tools registered.
func NewServer(fs afero.Fs, loadConfig ConfigLoader, version string, log *zap.Logger) *Server {
	if loadConfig == nil {
		loadConfig = config.LoadConfigFromDir
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		fs:         fs,
		loadConfig: loadConfig,
		log:        log,
		mcp: server.NewMCPServer(
			ServerName,
			version,
			server.WithToolCapabilities(true),
		),
	}

	AddScanTool(s.mcp, s)
	AddSplitPlanTool(s.mcp, s)
	AddLawsTool(s.mcp, s)
	return s
}

// Serve runs the server on stdio until the client disconnects, a signal
// arrives or ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting MCP server on stdio")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-sigCh:
		s.log.Info("received shutdown signal, stopping")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// configFor loads the configuration governing path: the directory
// itself, or the directory holding a file.
func (s *Server) configFor(path string) (*config.Config, error) {
	root := path
	if info, err := s.fs.Stat(path); err == nil && !info.IsDir() {
		root = filepath.Dir(path)
	}
	return s.loadConfig(root)
}
