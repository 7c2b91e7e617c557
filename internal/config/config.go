// Package config loads the wlansme configuration with Viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/tomiamao/wlansme/mlme"
	"github.com/tomiamao/wlansme/scan"
	"github.com/tomiamao/wlansme/sme"
)

// Load reads configuration from file and environment variables. A missing
// configuration file is not an error.
func Load(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("interface.name", "wlan0")
	v.SetDefault("sme.rsna_timeout", sme.DefaultRsnaTimeout.String())
	v.SetDefault("sme.key_frame_timeout", sme.DefaultKeyFrameTimeout.String())
	v.SetDefault("sme.key_frame_max_attempts", sme.DefaultKeyFrameMaxAttempts)
	v.SetDefault("scan.type", "active")
	v.SetDefault("scan.min_channel_time", scan.DefaultMinChannelTime)
	v.SetDefault("scan.max_channel_time", scan.DefaultMaxChannelTime)
	v.SetDefault("driver.signal_poll_interval", "2s")
	v.SetDefault("metrics.listen", ":9477")
	v.SetDefault("connect.ssid", "")
	v.SetDefault("connect.password", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("wlansme")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/wlansme")
	}

	// Environment variable support: WLANSME_INTERFACE_NAME=wlp2s0
	v.SetEnvPrefix("WLANSME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return v, nil
}

// ScanType returns the configured scan type.
func ScanType(v *viper.Viper) (mlme.ScanType, error) {
	switch t := v.GetString("scan.type"); t {
	case "active", "":
		return mlme.ScanTypeActive, nil
	case "passive":
		return mlme.ScanTypePassive, nil
	default:
		return 0, fmt.Errorf("invalid scan type %q: must be \"active\" or \"passive\"", t)
	}
}

// SMEOptions maps the sme and scan keys to coordinator options.
func SMEOptions(v *viper.Viper) sme.Options {
	return sme.Options{
		RsnaTimeout:         v.GetDuration("sme.rsna_timeout"),
		KeyFrameTimeout:     v.GetDuration("sme.key_frame_timeout"),
		KeyFrameMaxAttempts: v.GetInt("sme.key_frame_max_attempts"),
		MinChannelTime:      v.GetUint32("scan.min_channel_time"),
		MaxChannelTime:      v.GetUint32("scan.max_channel_time"),
	}
}
