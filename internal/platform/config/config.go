// Package config reads settings from prefixed environment variables,
// optionally backed by a config file of the same flat keys
package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	perr "newslens/internal/platform/errors"
	"newslens/internal/platform/logger"
)

// Conf is a view under a prefix such as "CORE_API_"
type Conf struct {
	prefix string
	v      *viper.Viper
}

var envOnly = source()

func source() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	return v
}

// New reads the process environment only
func New() Conf { return Conf{v: envOnly} }

// Load reads path (yaml, json, toml or .env by extension) under the environment.
// Keys in the file are the env names, e.g. CORE_API_API_PORT; a set env var still wins.
// An empty path is New.
func Load(path string) (Conf, error) {
	if strings.TrimSpace(path) == "" {
		return New(), nil
	}
	v := source()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Conf{}, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "config file %s", path)
	}
	logger.Get().Info().Str("file", v.ConfigFileUsed()).Msg("config file loaded")
	return Conf{v: v}, nil
}

// Prefix nests p under the current prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p, v: c.v} }

func (c Conf) lookup(key string) (name, value string) {
	name = c.prefix + key
	v := c.v
	if v == nil {
		v = envOnly
	}
	return name, strings.TrimSpace(v.GetString(name))
}

// MustString panics when key is unset or blank
func (c Conf) MustString(key string) string {
	name, v := c.lookup(key)
	if v == "" {
		logger.Get().Panic().Str("key", name).Msg("missing required env")
	}
	return v
}

func (c Conf) MayString(key, def string) string {
	if _, v := c.lookup(key); v != "" {
		return v
	}
	return def
}

// may parses key with parse; a value that does not parse logs a warning and yields def
func may[T any](c Conf, key string, def T, parse func(string) (T, error)) T {
	name, s := c.lookup(key)
	if s == "" {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().Str("key", name).Str("value", s).Interface("default", def).Msg("invalid env value, using default")
		return def
	}
	return v
}

func (c Conf) MayInt(key string, def int) int { return may(c, key, def, strconv.Atoi) }

func (c Conf) MayBool(key string, def bool) bool { return may(c, key, def, strconv.ParseBool) }

func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return may(c, key, def, time.ParseDuration)
}

func (c Conf) MayFloat64(key string, def float64) float64 {
	return may(c, key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

// MayCSV splits a comma list, dropping blanks; an all blank list is def
func (c Conf) MayCSV(key string, def []string) []string {
	_, s := c.lookup(key)
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayEnum returns the value when it case-insensitively matches one of allowed and panics otherwise.
// Misspelled backends should stop startup rather than fall back silently.
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	name, v := c.lookup(key)
	if v == "" {
		return def
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return v
		}
	}
	logger.Get().Panic().Str("key", name).Str("value", v).Strs("allowed", allowed).Msg("invalid enum value")
	return ""
}
