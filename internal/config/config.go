// Package config loads process configuration from the environment, with
// an optional .env file for local runs. Secrets and endpoints live here;
// scheduling knobs have defaults suitable for production.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/girasol-pay/deposit-listener/internal/chains"
)

type Config struct {
	MysqlDSN string
	RPCURLs  map[string]string

	MainSafe       string
	RelayerKeyFile string

	LiriumAPIURL    string
	LiriumAPIKey    string
	LiriumSecretKey string
	LiriumCompanyID string
	SendURL         string

	MinConfirmations       uint64
	RequireSweptBeforeSend bool
	SweepWaitTimeout       time.Duration
	SyncInterval           time.Duration
	SweepInterval          time.Duration
	ListenAddr             string
}

func Load() (*Config, error) {
	// missing .env is fine, env vars may come from the deployment
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("MYSQL_DSN", "root:passwd@tcp(127.0.0.1:3306)/girasol?parseTime=true")
	v.SetDefault("MIN_CONFIRMATIONS", 3)
	v.SetDefault("REQUIRE_SWEPT_BEFORE_SEND", false)
	v.SetDefault("SWEEP_WAIT_TIMEOUT", "3m")
	v.SetDefault("SYNC_INTERVAL", "1m")
	v.SetDefault("SWEEP_INTERVAL", "2m")
	v.SetDefault("LISTEN_ADDR", ":8085")
	v.SetDefault("RELAYER_KEY_FILE", "key.txt")

	cfg := &Config{
		MysqlDSN:               v.GetString("MYSQL_DSN"),
		RPCURLs:                make(map[string]string, len(chains.SupportedChainIDs)),
		MainSafe:               v.GetString("MAIN_SAFE"),
		RelayerKeyFile:         v.GetString("RELAYER_KEY_FILE"),
		LiriumAPIURL:           v.GetString("LIRIUM_API_URL"),
		LiriumAPIKey:           v.GetString("LIRIUM_API_KEY"),
		LiriumSecretKey:        v.GetString("LIRIUM_SECRET_KEY"),
		LiriumCompanyID:        v.GetString("LIRIUM_COMPANY_ID"),
		SendURL:                v.GetString("SEND_URL"),
		MinConfirmations:       v.GetUint64("MIN_CONFIRMATIONS"),
		RequireSweptBeforeSend: v.GetBool("REQUIRE_SWEPT_BEFORE_SEND"),
		SweepWaitTimeout:       v.GetDuration("SWEEP_WAIT_TIMEOUT"),
		SyncInterval:           v.GetDuration("SYNC_INTERVAL"),
		SweepInterval:          v.GetDuration("SWEEP_INTERVAL"),
		ListenAddr:             v.GetString("LISTEN_ADDR"),
	}

	var missing []string
	for _, chainID := range chains.SupportedChainIDs {
		key := chains.RPCEnvKey(chainID)
		url := v.GetString(key)
		if url == "" {
			missing = append(missing, key)
			continue
		}
		cfg.RPCURLs[chainID] = url
	}
	for key, value := range map[string]string{
		"MAIN_SAFE":         cfg.MainSafe,
		"SEND_URL":          cfg.SendURL,
		"LIRIUM_API_KEY":    cfg.LiriumAPIKey,
		"LIRIUM_SECRET_KEY": cfg.LiriumSecretKey,
		"LIRIUM_COMPANY_ID": cfg.LiriumCompanyID,
	} {
		if value == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing env: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}
