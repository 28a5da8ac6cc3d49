// Copyright 2025 The transitlake authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config aggregates configuration for the application. Values
// come from an optional config file and from environment variables;
// trigger payloads and command flags override both.
package config

import (
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

// Config aggregates configuration for both jobs.
type Config struct {
	Ingest  IngestConfig  `mapstructure:"ingest"`
	Compact CompactConfig `mapstructure:"compact"`
	S3      S3Config      `mapstructure:"s3"`
}

// IngestConfig configures the feed ingestor.
type IngestConfig struct {
	FeedURL         string `mapstructure:"feed_url"`
	Timezone        string `mapstructure:"timezone"`
	Bucket          string `mapstructure:"bucket"`
	Scope           string `mapstructure:"scope"`
	AuthHeaderName  string `mapstructure:"auth_header_name"`
	AuthHeaderValue string `mapstructure:"auth_header_value"`
}

// CompactConfig supplies defaults for compaction runs triggered without
// a full payload.
type CompactConfig struct {
	Bucket         string `mapstructure:"bucket"`
	Timezone       string `mapstructure:"timezone"`
	Scope          string `mapstructure:"scope"`
	PreviousDays   int    `mapstructure:"previous_days"`
	PreviousMonths int    `mapstructure:"previous_months"`
	CompactToNow   bool   `mapstructure:"compact_to_now"`
}

// S3Config tunes the storage client for non-AWS endpoints.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	PathStyle bool   `mapstructure:"path_style"`
}

// Load reads configuration from files and environment variables.
// Environment variables use the prefix "TRANSITLAKE" and the dot
// character in keys is replaced by an underscore. For example,
// "ingest.feed_url" becomes "TRANSITLAKE_INGEST_FEED_URL".
func Load() (*Config, error) {
	cfg := &Config{}

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.SetDefault("ingest.timezone", "UTC")
	v.SetDefault("compact.timezone", "UTC")
	v.SetEnvPrefix("TRANSITLAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	_ = v.ReadInConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(parts, tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
