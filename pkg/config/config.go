package config

import (
	"github.com/BurntSushi/toml"
)

type Config struct {
	CollectorIP   string
	CollectorPort int
	PacketsPerSec int
	SpoolDir      string
	DBFile        string
	MetricsPort   int
}

func GetConfig(file string) (Config, error) {
	conf := Config{}
	_, err := toml.DecodeFile(file, &conf)
	return conf, err
}
