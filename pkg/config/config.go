package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	App struct {
		Name string `yaml:"name"`
		Env  string `yaml:"env"`
	} `yaml:"app"`

	Alerts struct {
		File           string        `yaml:"file"`            // 规则文档路径
		Interval       time.Duration `yaml:"interval"`        // 扫描间隔
		DefaultWebhook []string      `yaml:"default_webhook"` // 默认webhook地址
		DefaultEmail   string        `yaml:"default_email"`   // 默认收件邮箱
		BrevoKey       string        `yaml:"brevo_key"`       // Brevo API密钥
		SenderName     string        `yaml:"sender_name"`     // 邮件发件人名称
		SenderEmail    string        `yaml:"sender_email"`    // 邮件发件地址
		Username       string        `yaml:"username"`        // webhook默认显示名
	} `yaml:"alerts"`

	DataSources struct {
		QuoteAPI struct {
			APIKey  string        `yaml:"api_key"`
			BaseURL string        `yaml:"base_url"`
			Timeout time.Duration `yaml:"timeout"`
		} `yaml:"quote_api"`
		WatchlistsDir string `yaml:"watchlists_dir"`
	} `yaml:"data_sources"`

	Database struct {
		Postgres struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			DBName   string `yaml:"dbname"`
			SSLMode  string `yaml:"sslmode"`
		} `yaml:"postgres"`
	} `yaml:"database"`

	NATS struct {
		URL      string `yaml:"url"`
		ClientID string `yaml:"client_id"`
	} `yaml:"nats"`

	API struct {
		Port         string        `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"api"`
}

// LoadConfig 从文件加载配置
func LoadConfig(path string) (*Config, error) {
	// 读取配置文件
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 解析YAML
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 环境变量覆盖
	overrideFromEnv(&config)

	// 默认值
	applyDefaults(&config)

	return &config, nil
}

// applyDefaults 填充缺省配置
func applyDefaults(config *Config) {
	if config.App.Name == "" {
		config.App.Name = "Moon Sniper"
	}
	if config.Alerts.File == "" {
		config.Alerts.File = "alerts/alerts.json"
	}
	if config.Alerts.Interval <= 0 {
		config.Alerts.Interval = 60 * time.Second
	}
	if config.Alerts.Username == "" {
		config.Alerts.Username = config.App.Name
	}
	if config.Alerts.SenderName == "" {
		config.Alerts.SenderName = config.App.Name
	}
	if config.DataSources.QuoteAPI.Timeout <= 0 {
		config.DataSources.QuoteAPI.Timeout = 10 * time.Second
	}
	if config.DataSources.WatchlistsDir == "" {
		config.DataSources.WatchlistsDir = "watchlists"
	}
	if config.API.Port == "" {
		config.API.Port = "8080"
	}
}

// overrideFromEnv 使用环境变量覆盖配置
func overrideFromEnv(config *Config) {
	// 应用名称
	if env := os.Getenv("APP_NAME"); env != "" {
		config.App.Name = env
	}

	// 环境
	if env := os.Getenv("APP_ENV"); env != "" {
		config.App.Env = env
	}

	// 预警配置
	if env := os.Getenv("ALERTS_FILE"); env != "" {
		config.Alerts.File = env
	}
	if env := os.Getenv("BREVO_API_KEY"); env != "" {
		config.Alerts.BrevoKey = env
	}
	if env := os.Getenv("DEFAULT_WEBHOOK"); env != "" {
		config.Alerts.DefaultWebhook = []string{env}
	}
	if env := os.Getenv("DEFAULT_EMAIL"); env != "" {
		config.Alerts.DefaultEmail = env
	}

	// 行情数据源配置
	if env := os.Getenv("QUOTE_API_KEY"); env != "" {
		config.DataSources.QuoteAPI.APIKey = env
	}
	if env := os.Getenv("QUOTE_API_URL"); env != "" {
		config.DataSources.QuoteAPI.BaseURL = env
	}
	if env := os.Getenv("WATCHLISTS_DIR"); env != "" {
		config.DataSources.WatchlistsDir = env
	}

	// 数据库配置
	if env := os.Getenv("DB_HOST"); env != "" {
		config.Database.Postgres.Host = env
	}
	if env := os.Getenv("DB_PORT"); env != "" {
		var port int
		fmt.Sscanf(env, "%d", &port)
		if port > 0 {
			config.Database.Postgres.Port = port
		}
	}
	if env := os.Getenv("DB_USER"); env != "" {
		config.Database.Postgres.User = env
	}
	if env := os.Getenv("DB_PASSWORD"); env != "" {
		config.Database.Postgres.Password = env
	}
	if env := os.Getenv("DB_NAME"); env != "" {
		config.Database.Postgres.DBName = env
	}

	// NATS配置
	if env := os.Getenv("NATS_URL"); env != "" {
		config.NATS.URL = env
	}
	if env := os.Getenv("NATS_CLIENT_ID"); env != "" {
		config.NATS.ClientID = env
	}

	// API配置
	if env := os.Getenv("API_PORT"); env != "" {
		config.API.Port = env
	}
}

// GetDefaultConfigPath 获取默认配置文件路径
func GetDefaultConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev" // 默认开发环境
	}

	return fmt.Sprintf("configs/%s/app.yaml", env)
}
