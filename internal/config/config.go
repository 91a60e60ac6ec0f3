package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port              int           `envconfig:"PORT" default:"8080"`
	Mode              string        `envconfig:"MODE" default:"3d"`
	Lit               bool          `envconfig:"LIT" default:"true"`
	CanvasWidth       int           `envconfig:"CANVAS_WIDTH" default:"800"`
	CanvasHeight      int           `envconfig:"CANVAS_HEIGHT" default:"600"`
	FieldOfView       float64       `envconfig:"FIELD_OF_VIEW" default:"60"`
	ZNear             float64       `envconfig:"Z_NEAR" default:"1"`
	ZFar              float64       `envconfig:"Z_FAR" default:"2000"`
	CirclePrecision   int           `envconfig:"CIRCLE_PRECISION" default:"30"`
	AnimationInterval time.Duration `envconfig:"ANIMATION_INTERVAL" default:"17ms"`
	Background        string        `envconfig:"BACKGROUND" default:"#000000"`
	Supersample       int           `envconfig:"SUPERSAMPLE" default:"1"`
	SampleScene       bool          `envconfig:"SAMPLE_SCENE" default:"true"`
	JWTSecret         string        `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	AllowedOrigins    string        `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Is3D reports whether the configured mode renders the perspective scene.
func (c *Config) Is3D() bool {
	return !strings.EqualFold(c.Mode, "2d")
}

// Origins splits AllowedOrigins for the CORS middleware.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		out = append(out, o)
	}
	return out
}

// OriginPatterns are the origins without their scheme, as the websocket
// handshake matches them against the Origin host.
func (c *Config) OriginPatterns() []string {
	origins := c.Origins()
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if i := strings.Index(o, "://"); i >= 0 {
			o = o[i+3:]
		}
		out = append(out, strings.TrimSuffix(o, "/"))
	}
	return out
}

func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
