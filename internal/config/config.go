package config

import (
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	JWTSecret   string
	JWTUser     string
	JWTPassword string

	SearchTimeout time.Duration
	MinDwell      time.Duration
	HorizonDays   int
	MaxRetries    int
	Concurrency   int

	RyanairURL string
	Market     string
	Currency   string

	AirportsCSV string
	ServedCSV   string

	ListenAddr  string
	TLSCertFile string
	TLSKeyFile  string
	Debug       bool
}

func Load() *Config {
	v := viper.New()

	v.SetDefault("auth_user", "demo")
	v.SetDefault("auth_pass", "demo123")
	v.SetDefault("search_timeout", "20s")
	v.SetDefault("min_dwell", "0s")
	v.SetDefault("horizon_days", 180)
	v.SetDefault("max_retries", 3)
	v.SetDefault("concurrency", 8)

	v.SetDefault("ryanair_url", "https://www.ryanair.com/api/farfnd/v4")
	v.SetDefault("market", "en-gb")
	v.SetDefault("currency", "EUR")

	v.SetDefault("airports_csv", "airports.csv")
	v.SetDefault("served_csv", "ryanair_airports.csv")
	v.SetDefault("listen_addr", ":8080")

	if path := os.Getenv("DAYTRIP_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		// Fallback to conventional locations for local dev
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/daytrip") // add the container path
	}

	if err := v.ReadInConfig(); err != nil {
		log.Printf("no config file found, using defaults + env vars: %v", err)
	}

	v.AutomaticEnv()

	to, err := time.ParseDuration(v.GetString("search_timeout"))
	if err != nil {
		log.Fatalf("bad search_timeout: %v", err)
	}
	dwell, err := time.ParseDuration(v.GetString("min_dwell"))
	if err != nil {
		log.Fatalf("bad min_dwell: %v", err)
	}

	return &Config{
		JWTSecret:     v.GetString("jwt_secret"),
		JWTUser:       v.GetString("auth_user"),
		JWTPassword:   v.GetString("auth_pass"),
		SearchTimeout: to,
		MinDwell:      dwell,
		HorizonDays:   v.GetInt("horizon_days"),
		MaxRetries:    v.GetInt("max_retries"),
		Concurrency:   v.GetInt("concurrency"),
		RyanairURL:    v.GetString("ryanair_url"),
		Market:        v.GetString("market"),
		Currency:      v.GetString("currency"),
		AirportsCSV:   v.GetString("airports_csv"),
		ServedCSV:     v.GetString("served_csv"),
		ListenAddr:    v.GetString("listen_addr"),
		TLSCertFile:   os.Getenv("TLS_CERT_FILE"),
		TLSKeyFile:    os.Getenv("TLS_KEY_FILE"),
		Debug:         v.GetBool("debug"),
	}
}
