package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kasuganosora/gridsource/pkg/window"
	"github.com/kasuganosora/gridsource/server/httpapi"
	mcpserver "github.com/kasuganosora/gridsource/server/mcp"
)

type serveOptions struct {
	host string
	port int
	mcp  bool
}

func newServeCmd(global *globalOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve dataset windows over HTTP (and MCP when enabled)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, global, opts)
		},
	}
	cmd.Flags().StringVar(&opts.host, "host", "", "override server.host")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "override server.port")
	cmd.Flags().BoolVar(&opts.mcp, "mcp", false, "enable the MCP server")
	return cmd
}

func runServe(cmd *cobra.Command, global *globalOptions, opts *serveOptions) error {
	cfg, err := global.loadConfig()
	if err != nil {
		return err
	}
	if opts.mcp {
		cfg.MCP.Enabled = true
	}

	// stdio MCP owns stdout
	var logOutput io.Writer
	if cfg.MCP.Enabled && cfg.MCP.Transport == "stdio" {
		logOutput = os.Stderr
	}
	l, err := newLogger(cfg, logOutput)
	if err != nil {
		return err
	}
	defer l.Sync()
	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if opts.port != 0 {
		cfg.Server.Port = opts.port
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry, err := openDatasets(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer registry.Close(context.Background())
	l.Info("加载数据集: %v", registry.Names())

	resolver := window.NewResolver(window.WithLogger(l), window.WithPushdown(cfg.Window.Pushdown))
	httpServer := httpapi.NewServer(cfg, registry, resolver, l)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpServer.Start)

	var mcpSrv *mcpserver.Server
	if cfg.MCP.Enabled {
		mcpSrv = mcpserver.NewServer(cfg, registry, resolver, l)
		g.Go(func() error {
			err := mcpSrv.Start(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		l.Info("服务器停止")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if mcpSrv != nil {
			if err := mcpSrv.Shutdown(shutdownCtx); err != nil {
				l.Warn("MCP 服务器关闭失败: %v", err)
			}
		}
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
