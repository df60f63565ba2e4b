package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"viewsim/internal/app"
	"viewsim/internal/shared/config"
	"viewsim/internal/shared/logger"
	"viewsim/internal/shared/types"
)

const projectName = "viewsim"

var (
	configDir  string
	proxyCount int

	rootCmd = &cobra.Command{
		Use:          projectName,
		Short:        "Simulated multi-window video viewing dashboard",
		SilenceUsage: true,
		RunE: func(*cobra.Command, []string) error {
			return run()
		},
	}

	proxiesCmd = &cobra.Command{
		Use:   "proxies",
		Short: "Fetch and validate proxies from the configured sources, then print them as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printProxies(cmd.Context())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "configdir", "configs", "Path to config directory")
	proxiesCmd.Flags().IntVarP(&proxyCount, "count", "n", 10, "number of working proxies wanted")
	rootCmd.AddCommand(proxiesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (*types.Config, error) {
	// 1. 加载 .env 与 viewsim.ini 行为配置
	cfg, err := config.Load(configDir)
	if err != nil {
		// Use standard fmt before logger is initialized.
		return nil, fmt.Errorf("failed to load config from '%s': %w", configDir, err)
	}
	// 1.1 初始化日志系统
	if err := logger.Init(cfg.LogConf); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

func run() error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	// 2. 创建并运行服务器
	appServer, err := app.New(cfg, configDir)
	if err != nil {
		return err
	}
	return appServer.Run()
}

func printProxies(ctx context.Context) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appServer, err := app.New(cfg, configDir)
	if err != nil {
		return err
	}
	res, err := appServer.ValidatedProxies(ctx, proxyCount)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
