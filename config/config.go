package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config — весь конфиг процесса (читается один раз при старте).
type Config struct {
	Server struct {
		Address  string `mapstructure:"address"`
		HTTPPort string `mapstructure:"http_port"`
	} `mapstructure:"server"`

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"` // "text" | "json"
		File   string `mapstructure:"file"`
	} `mapstructure:"logging"`

	Database struct {
		// "sqlite" | "mysql" | "postgres" | "" (без БД, in-memory статус)
		Driver string `mapstructure:"driver"`
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"database"`

	Release struct {
		// HoldSecs — минимальное время удержания линии, оно же период опроса.
		HoldSecs int `mapstructure:"hold_secs"`
		// MaxWaitSecs — общий дедлайн подтверждения отстрела.
		MaxWaitSecs int `mapstructure:"max_wait_secs"`
		// OffsetSecs — грейс при стартовой сверке расписания.
		OffsetSecs        int `mapstructure:"offset_secs"`
		SamplingTimeHours int `mapstructure:"sampling_time_hours"`
	} `mapstructure:"release"`

	Fleet struct {
		File string `mapstructure:"file"`
	} `mapstructure:"fleet"`

	Drop struct {
		BaseDir string `mapstructure:"base_dir"`
		Inbound string `mapstructure:"inbound"`
	} `mapstructure:"drop"`

	Actuator struct {
		Driver string `mapstructure:"driver"` // "gpio" | "mock"
	} `mapstructure:"actuator"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.http_port", "8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "buoyd.db")
	v.SetDefault("release.hold_secs", 10)
	v.SetDefault("release.max_wait_secs", 120)
	v.SetDefault("release.offset_secs", 60)
	v.SetDefault("release.sampling_time_hours", 6)
	v.SetDefault("fleet.file", "fleet.yaml")
	v.SetDefault("drop.base_dir", "FTP")
	v.SetDefault("drop.inbound", "PopUpBuoy")
	v.SetDefault("actuator.driver", "gpio")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
