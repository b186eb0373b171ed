package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Ingest struct {
		Workers    int     `yaml:"workers"`
		QueueSize  int     `yaml:"queue_size"`
		RatePerSec float64 `yaml:"rate_per_sec"`
		Burst      int     `yaml:"burst"`
	} `yaml:"ingest"`

	Tasks struct {
		SweepSeconds     int `yaml:"sweep_seconds"`
		ReconcileSeconds int `yaml:"reconcile_seconds"`
	} `yaml:"tasks"`

	Dashboard struct {
		GraphDays     int `yaml:"graph_days"`
		UpcomingLimit int `yaml:"upcoming_limit"`
	} `yaml:"dashboard"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
