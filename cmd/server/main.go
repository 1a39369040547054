package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Eugenepoly/market-agent/internal/app"
	"github.com/Eugenepoly/market-agent/pkg/api"
	"github.com/Eugenepoly/market-agent/pkg/config"
)

var (
	Version   = "0.3.1"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	// 命令行参数
	configPath := flag.String("config", "./configs/config.yaml", "配置文件路径")
	host := flag.String("host", "0.0.0.0", "监听地址")
	port := flag.Int("port", 0, "监听端口（0表示使用配置文件）")
	flag.Parse()

	log.Printf("Market Agent Server v%s", Version)
	log.Printf("配置文件: %s", *configPath)

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if *port != 0 {
		cfg.HTTPPort = *port
	}

	// 2. 组装应用
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}
	defer application.Shutdown()

	// 3. 启动后台组件（提醒器/定时调度器）
	if err := application.Start(ctx); err != nil {
		log.Fatalf("启动后台组件失败: %v", err)
	}

	// 4. 创建API服务器
	serverConfig := api.ServerConfig{
		Host:         *host,
		Port:         cfg.HTTPPort,
		ReadTimeout:  api.DefaultServerConfig().ReadTimeout,
		WriteTimeout: api.DefaultServerConfig().WriteTimeout,
	}
	apiServer := api.NewAPIServer(application.Orchestrator, application.Stores.Artifacts, serverConfig, Version)

	// 5. 在goroutine中启动API服务器
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Printf("API服务器错误: %v", err)
		}
	}()

	// 6. 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("收到退出信号，正在关闭...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), api.DefaultServerConfig().WriteTimeout)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("关闭API服务器失败: %v", err)
	}
}
