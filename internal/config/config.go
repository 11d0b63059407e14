package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env-default:"8080"`
}

type ReferralConfig struct {
	RewardPerCompletion    int `yaml:"reward_per_completion" env-default:"5"`
	MaxPendingReferrals    int `yaml:"max_pending_referrals" env-default:"20"`
	MaxReferralsPerDay     int `yaml:"max_referrals_per_day" env-default:"5"`
	ReferralExpirationDays int `yaml:"expiration_days" env-default:"30"`
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env-default:"27017"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"referrals"`
}

type TelegramConfig struct {
	Enabled  bool    `yaml:"enabled" env-default:"false"`
	ApiKey   string  `yaml:"api_key" env-default:""`
	ChatIds  []int64 `yaml:"chat_ids"`
	MinLevel int     `yaml:"min_level" env-default:"8"`
}

type Config struct {
	Env      string         `yaml:"env" env-default:"local"`
	Listen   Listen         `yaml:"listen"`
	ShareUrl string         `yaml:"share_url" env:"SHARE_URL" env-default:"http://localhost:8080"`
	Seed     bool           `yaml:"seed" env-default:"true"`
	Referral ReferralConfig `yaml:"referral"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Telegram TelegramConfig `yaml:"telegram"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}

// Load reads the config without the process-wide singleton
func Load(path string) (*Config, error) {
	conf := &Config{}
	if err := cleanenv.ReadConfig(path, conf); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return conf, nil
}
