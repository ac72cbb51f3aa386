package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Watch re-reads the configuration whenever the file behind v changes
// and hands the result to onChange. Read errors are logged and the
// previous configuration stays in effect. Without a config file there is
// nothing to watch and Watch returns false.
func Watch(v *viper.Viper, onChange func(Config)) bool {
	if v.ConfigFileUsed() == "" {
		return false
	}

	v.OnConfigChange(func(event fsnotify.Event) {
		if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
			return
		}
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			log.Error().Err(err).Str("file", event.Name).Msg("Failed to reload configuration")
			return
		}
		log.Info().Str("file", event.Name).Msg("Configuration changed")
		onChange(cfg)
	})
	v.WatchConfig()
	return true
}
