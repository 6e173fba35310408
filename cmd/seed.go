/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"log"

	"github.com/mautops/fieldops-gin/internal/config"
	"github.com/mautops/fieldops-gin/internal/database"
	"github.com/spf13/cobra"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed catalog data",
	Long: `Seed the work order state catalog into the database.
States are upserted by code, so the command is safe to run repeatedly.
Migrations must have been applied before seeding.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// 2. 连接数据库
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect database: %w", err)
		}
		defer func() {
			sqlDB, _ := db.DB()
			if sqlDB != nil {
				sqlDB.Close()
			}
		}()

		// 3. 写入状态目录
		log.Println("Seeding order states...")
		if err := database.SeedStates(db); err != nil {
			return fmt.Errorf("failed to seed order states: %w", err)
		}

		log.Println("Seeding completed successfully!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("config", "", "Config file path (default: config.yaml)")
}
