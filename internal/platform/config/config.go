package config

import (
	"os"
	"strconv"
)

// DefaultHistoryBuffer bounds the recent-history stream backlog.
const DefaultHistoryBuffer = 256

// Server captures process level configuration of walletd.
type Server struct {
	Addr          string
	DataDir       string
	ConfigFile    string
	LogLevel      string
	HistoryBuffer int
}

// InMemory reports whether the wallet runs without durable storage.
func (s Server) InMemory() bool {
	return s.DataDir == ""
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("WALLETD_ADDR")
	if addr == "" {
		addr = ":8090"
	}

	level := os.Getenv("WALLETD_LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	buffer := DefaultHistoryBuffer
	if raw := os.Getenv("WALLETD_HISTORY_BUFFER"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			buffer = n
		}
	}

	return Server{
		Addr:          addr,
		DataDir:       os.Getenv("WALLETD_DATA_DIR"),
		ConfigFile:    os.Getenv("WALLETD_CONFIG_FILE"),
		LogLevel:      level,
		HistoryBuffer: buffer,
	}
}
