/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mautops/fieldops-gin/internal/api"
	"github.com/mautops/fieldops-gin/internal/config"
	"github.com/mautops/fieldops-gin/internal/container"
	"github.com/mautops/fieldops-gin/internal/metrics"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the Fieldops Gin API server.
The server will listen on the configured host and port,
and provide REST API interfaces for work order management
and offline synchronization.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// 2. 初始化容器
		ctr, err := container.NewContainer(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		logger := ctr.Logger()

		// 3. 重新入队上次停机时尚未投递的完成事件
		if err := ctr.Dispatcher().RequeuePending(100); err != nil {
			logger.WithError(err).Warn("failed to requeue pending order events")
		}

		// 4. 监听配置文件变更(仅热更新日志级别)
		if configPath != "" {
			watcher := config.NewWatcher(cfg, configPath, logger)
			watcher.OnChange(func(updated *config.Config) {
				if lvl, err := logrus.ParseLevel(updated.Log.Level); err == nil {
					logger.SetLevel(lvl)
				}
			})
			if err := watcher.Start(); err != nil {
				logger.WithError(err).Warn("failed to start config watcher")
			} else {
				defer watcher.Stop()
			}
		}

		// 5. 启动后台指标收集器
		statsSvc := ctr.StatisticsService()
		collector := metrics.NewCollector(ctr.DB(), 30*time.Second, func() {
			if err := statsSvc.RefreshMetrics(); err != nil {
				logger.WithError(err).Warn("failed to refresh order metrics")
			}
		})
		collector.Start()
		defer collector.Stop()

		// 6. 设置路由
		router := api.SetupRoutes(&api.RouterDeps{
			DB:       ctr.DB(),
			Config:   cfg,
			Logger:   logger,
			Orders:   ctr.OrderService(),
			Workflow: ctr.WorkflowService(),
			Sync:     ctr.SyncService(),
			Stats:    ctr.StatisticsService(),
		})

		// 7. 启动服务器
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		// 启动服务器（在 goroutine 中）
		go func() {
			logger.WithField("addr", addr).Info("server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Fatal("failed to start server")
			}
		}()

		// 等待中断信号
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("shutting down server")

		// 优雅关闭
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.WithError(err).Fatal("server forced to shutdown")
		}

		logger.Info("server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// 服务器配置标志
	serverCmd.Flags().String("config", "", "Config file path (default: config.yaml)")
	serverCmd.Flags().String("host", "0.0.0.0", "Server host")
	serverCmd.Flags().Int("port", 8080, "Server port")
}

// LoadConfig 加载配置
func LoadConfig(configPath string) (*config.Config, error) {
	return config.Load(configPath)
}
