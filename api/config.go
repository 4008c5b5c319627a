package api

import (
	"sync"
	"time"

	"github.com/kaikhaya123/RES-sub000/logging"
	"github.com/spf13/viper"
)

type Config struct {
	StorageConfig
	ServerConfig
	VotingConfig
	GuardConfig
	RankingConfig
	ReconcileConfig
}

type StorageConfig struct {
	UseMemory            bool
	TableNameVoters      string
	TableNameContestants string
	TableNameQuota       string
	TableNameLedger      string
	TableNameSnapshots   string
}

type ServerConfig struct {
	Port int
}

type VotingConfig struct {
	DefaultDailyAllowance int
}

type GuardConfig struct {
	BurstLimit      int
	BurstWindow     time.Duration
	SybilVoterLimit int
	SybilWindow     time.Duration
}

type RankingConfig struct {
	Interval        time.Duration
	RetainSnapshots int
}

type ReconcileConfig struct {
	Interval time.Duration
}

var settingsOnce sync.Once

func ReadConfig() *Config {
	var conf = &Config{
		StorageConfig: StorageConfig{
			UseMemory:            viper.GetBool("storage.UseMemory"),
			TableNameVoters:      viper.GetString("storage.TableNameVoters"),
			TableNameContestants: viper.GetString("storage.TableNameContestants"),
			TableNameQuota:       viper.GetString("storage.TableNameQuota"),
			TableNameLedger:      viper.GetString("storage.TableNameLedger"),
			TableNameSnapshots:   viper.GetString("storage.TableNameSnapshots"),
		},
		ServerConfig: ServerConfig{
			Port: viper.GetInt("server.port"),
		},
		VotingConfig: VotingConfig{
			DefaultDailyAllowance: getIntOrDefault("voting.DefaultDailyAllowance", 100),
		},
		GuardConfig: GuardConfig{
			BurstLimit:      getIntOrDefault("guard.BurstLimit", 10),
			BurstWindow:     time.Duration(getIntOrDefault("guard.BurstWindowSeconds", 10)) * time.Second,
			SybilVoterLimit: getIntOrDefault("guard.SybilVoterLimit", 5),
			SybilWindow:     time.Duration(getIntOrDefault("guard.SybilWindowSeconds", 60)) * time.Second,
		},
		RankingConfig: RankingConfig{
			Interval:        time.Duration(getIntOrDefault("ranking.IntervalSeconds", 5)) * time.Second,
			RetainSnapshots: getIntOrDefault("ranking.RetainSnapshots", 20),
		},
		ReconcileConfig: ReconcileConfig{
			Interval: time.Duration(getIntOrDefault("reconcile.IntervalSeconds", 300)) * time.Second,
		},
	}

	settingsOnce.Do(func() {
		logging.Log.Print("Reading settings!")
	})

	return conf
}

func getIntOrDefault(name string, def int) int {
	if viper.IsSet(name) {
		v := viper.GetInt(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}
