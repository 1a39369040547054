package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Eugenepoly/market-agent/internal/app"
	"github.com/Eugenepoly/market-agent/pkg/api"
	"github.com/Eugenepoly/market-agent/pkg/cli/output"
	"github.com/Eugenepoly/market-agent/pkg/config"
)

var (
	serverPort int
	serverHost string
	configPath string
)

// serverCmd server子命令
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "服务管理命令",
	Long:  `管理Market Agent HTTP API服务。`,
}

// serverStartCmd 启动服务
var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "启动HTTP API服务",
	Long: `启动Market Agent HTTP API服务。

示例：
  # 使用默认配置启动
  market-agent server start

  # 指定端口启动
  market-agent server start --port 8080

  # 指定配置文件启动
  market-agent server start --config ./configs/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			output.Error("加载配置失败: %v", err)
			return err
		}
		if serverPort != 0 {
			cfg.HTTPPort = serverPort
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		application, err := app.New(ctx, cfg)
		if err != nil {
			output.Error("初始化失败: %v", err)
			return err
		}
		defer application.Shutdown()

		if err := application.Start(ctx); err != nil {
			output.Error("启动后台组件失败: %v", err)
			return err
		}

		// 创建并启动API服务器
		serverConfig := api.ServerConfig{
			Host:         serverHost,
			Port:         cfg.HTTPPort,
			ReadTimeout:  api.DefaultServerConfig().ReadTimeout,
			WriteTimeout: api.DefaultServerConfig().WriteTimeout,
		}
		apiServer := api.NewAPIServer(application.Orchestrator, application.Stores.Artifacts, serverConfig, Version)

		go func() {
			if err := apiServer.Start(); err != nil {
				log.Printf("API服务器错误: %v", err)
			}
		}()

		output.Success("Market Agent Server started on %s:%d", serverHost, cfg.HTTPPort)

		// 等待中断信号
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		output.Info("正在关闭服务...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), api.DefaultServerConfig().WriteTimeout)
		defer shutdownCancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			output.Error("关闭API服务器失败: %v", err)
		}

		output.Success("服务已停止")
		return nil
	},
}

func init() {
	serverStartCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "监听端口（0表示使用配置文件）")
	serverStartCmd.Flags().StringVarP(&serverHost, "host", "H", "0.0.0.0", "监听地址")
	serverStartCmd.Flags().StringVarP(&configPath, "config", "c", "./configs/config.yaml", "配置文件路径")

	serverCmd.AddCommand(serverStartCmd)
}
