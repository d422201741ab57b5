package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pjsousa/hello-stomp-live/internal/config"
	"github.com/pjsousa/hello-stomp-live/internal/core"
	"github.com/pjsousa/hello-stomp-live/internal/proto"
)

// OptionsResponse lists the advisory option sets and their defaults so
// clients can render pickers before connecting.
type OptionsResponse struct {
	Protocol        int      `json:"protocol"`
	AnimalOptions   []string `json:"animalOptions"`
	FoodOptions     []string `json:"foodOptions"`
	DefaultSendMe   string   `json:"defaultSendMe"`
	DefaultSendHere string   `json:"defaultSendHere"`
	DefaultSendUs   string   `json:"defaultSendUs"`
}

// NewServer builds the HTTP server: health, option discovery and the
// WebSocket endpoint.
func NewServer(hub *core.Hub, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(LoggerMiddleware(logger), gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})
	router.GET("/api/options", func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, OptionsResponse{
			Protocol:        proto.ProtocolVersion,
			AnimalOptions:   core.IdentityOptions,
			FoodOptions:     core.ValueOptions,
			DefaultSendMe:   core.DefaultSendMe(),
			DefaultSendHere: core.DefaultSendHere(),
			DefaultSendUs:   core.DefaultSendUs(),
		})
	})
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, cfg.MessageRateLimit, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
