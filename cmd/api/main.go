package main

import (
	"log"
	"os"

	"MoonSniper/pkg/api"
	"MoonSniper/pkg/config"
	"MoonSniper/pkg/database"
	"MoonSniper/pkg/store"
)

func main() {
	log.Println("启动规则管理API服务...")

	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v\n", err)
	}

	// 规则存储
	ruleStore := store.NewStore(cfg.Alerts.File)

	// 历史库，未配置时历史接口返回503
	var db *database.Database
	if cfg.Database.Postgres.Host != "" {
		db, err = database.NewDatabase(cfg)
		if err != nil {
			log.Fatalf("连接数据库失败: %v\n", err)
		}
		defer db.Close()
	}

	// 创建服务器并注册路由
	server := api.NewServer(cfg.API.Port, cfg.API.ReadTimeout, cfg.API.WriteTimeout)
	server.SetupRoutes(api.NewHandlers(ruleStore, db))

	// 阻塞到收到中断信号
	server.Start()
}
