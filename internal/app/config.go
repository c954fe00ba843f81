package app

import (
	"strings"
	"time"

	"github.com/jumlahub/jumla-backend/internal/platform/logger"
	"github.com/jumlahub/jumla-backend/internal/utils"
)

type Config struct {
	Port              string
	JWTSecretKey      string
	HeartbeatInterval time.Duration
	OutboundBuffer    int
	RedisAddr         string
	AllowOrigins      []string
}

func LoadConfig(log *logger.Logger) Config {
	port := utils.GetEnv("PORT", "8080", log)
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	heartbeatSeconds := utils.GetEnvAsInt("WS_HEARTBEAT_SECONDS", 30, log)
	outboundBuffer := utils.GetEnvAsInt("WS_OUTBOUND_BUFFER", 32, log)
	redisAddr := utils.GetEnv("REDIS_ADDR", "", log)
	origins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", log)

	return Config{
		Port:              port,
		JWTSecretKey:      jwtSecretKey,
		HeartbeatInterval: time.Duration(heartbeatSeconds) * time.Second,
		OutboundBuffer:    outboundBuffer,
		RedisAddr:         redisAddr,
		AllowOrigins:      strings.Split(origins, ","),
	}
}
