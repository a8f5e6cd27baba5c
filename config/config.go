package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrInvalidGame is returned by Validate when the game settings cannot produce a playable board.
var ErrInvalidGame = errors.New("invalid game configuration")

// EnvPrefix prefixes every environment override, e.g. ESCAPE_GAME_GRID_SIZE.
const EnvPrefix = "ESCAPE"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	HTTPAddress string `mapstructure:"http_address"`
	RPCAddress  string `mapstructure:"rpc_address"`
	// GRPCAddress enables the gRPC health service when non-empty.
	GRPCAddress string `mapstructure:"grpc_address"`
	// SendQueue is the per-connection outbound frame buffer.
	SendQueue int `mapstructure:"send_queue"`
}

type GameConfig struct {
	GridSize          int           `mapstructure:"grid_size"`
	ObstacleCount     int           `mapstructure:"obstacle_count"`
	TurnDuration      time.Duration `mapstructure:"turn_duration"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	MaxBoardAttempts  int           `mapstructure:"max_board_attempts"`
	NicknameMaxLength int           `mapstructure:"nickname_max_length"`
}

type DatabaseConfig struct {
	// Driver selects the round archive: memory, postgres, sqlite or gorm.
	Driver     string         `mapstructure:"driver"`
	SQLitePath string         `mapstructure:"sqlite_path"`
	Postgres   PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", ":8081")
	v.SetDefault("server.grpc_address", "")
	v.SetDefault("server.send_queue", 32)

	v.SetDefault("game.grid_size", 5)
	v.SetDefault("game.obstacle_count", 5)
	v.SetDefault("game.turn_duration", 10*time.Second)
	v.SetDefault("game.heartbeat_interval", time.Second)
	v.SetDefault("game.max_board_attempts", 10000)
	v.SetDefault("game.nickname_max_length", 20)

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.sqlite_path", "data/escape.db")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", "escape")

	v.SetDefault("log.level", "info")
}

// LoadConfig reads config.yaml from path (optional), .env (optional) and ESCAPE_* variables,
// in increasing order of precedence, and validates the result.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects game settings for which no legal board exists.
func (c *Config) Validate() error {
	g := c.Game
	switch {
	case g.GridSize < 2:
		return fmt.Errorf("%w: grid_size %d is below 2", ErrInvalidGame, g.GridSize)
	case g.ObstacleCount < 0:
		return fmt.Errorf("%w: obstacle_count %d is negative", ErrInvalidGame, g.ObstacleCount)
	case g.ObstacleCount > g.GridSize*g.GridSize-3:
		// one tunnel plus two distinct starting cells must remain
		return fmt.Errorf("%w: obstacle_count %d leaves no room on a %dx%d grid",
			ErrInvalidGame, g.ObstacleCount, g.GridSize, g.GridSize)
	case g.TurnDuration <= 0:
		return fmt.Errorf("%w: turn_duration must be positive", ErrInvalidGame)
	case g.HeartbeatInterval <= 0:
		return fmt.Errorf("%w: heartbeat_interval must be positive", ErrInvalidGame)
	case g.MaxBoardAttempts <= 0:
		return fmt.Errorf("%w: max_board_attempts must be positive", ErrInvalidGame)
	case g.NicknameMaxLength <= 0:
		return fmt.Errorf("%w: nickname_max_length must be positive", ErrInvalidGame)
	}
	return nil
}

// DSN builds a lib/pq style connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.User, p.Password, p.DBName)
}
