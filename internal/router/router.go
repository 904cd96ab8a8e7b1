package router

import (
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/allocato/backend/internal/controllers/healthz"
	"github.com/allocato/backend/internal/controllers/root"
	v1 "github.com/allocato/backend/internal/controllers/v1"
	"github.com/allocato/backend/internal/httputil"
	"github.com/allocato/backend/internal/models"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/logger"
	"github.com/gin-contrib/pprof"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// version is overridden at build time with -ldflags.
var version = "0.0.0"

// Config sets up the router and its middlewares. The returned teardown
// function must be called before the process (or test) exits.
func Config(url *url.URL) (*gin.Engine, func(), error) {
	r := gin.New()

	// Don’t process X-Forwarded-For header as we do not do anything with
	// client IPs
	r.ForwardedByClientIP = false

	// Send a HTTP 405 (Method not allowed) for all paths where there is
	// a handler, but not for the specific method used
	r.HandleMethodNotAllowed = true

	r.Use(gin.Recovery())
	r.Use(requestid.New())
	r.Use(URLMiddleware(url))
	r.Use(MetricsMiddleware())
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "This HTTP method is not allowed for the endpoint you called"})
	})
	r.Use(logger.SetLogger(
		logger.WithDefaultLevel(zerolog.InfoLevel),
		logger.WithClientErrorLevel(zerolog.InfoLevel),
		logger.WithServerErrorLevel(zerolog.ErrorLevel),
		logger.WithLogger(func(c *gin.Context, logger zerolog.Logger) zerolog.Logger {
			return logger.With().
				Str("request-id", requestid.Get(c)).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Int("status", c.Writer.Status()).
				Int("size", c.Writer.Size()).
				Str("user-agent", c.Request.UserAgent()).
				Logger()
		})))

	// CORS settings
	allowOrigins, ok := os.LookupEnv("CORS_ALLOW_ORIGINS")
	if ok {
		log.Debug().Str("CORS Allowed Origins", allowOrigins).Msg("Router")

		r.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Fields(allowOrigins),
			AllowMethods:     []string{"OPTIONS", "GET", "POST", "PATCH", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	// Disable the gin debug route printing as it clutters logs (and test logs)
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, numHandlers int) {}

	// Don’t trust any proxy. We do not process any client IPs,
	// therefore we don’t need to trust anyone here.
	_ = r.SetTrustedProxies([]string{})

	log.Debug().Str("API Base URL", url.String()).Str("Host", url.Host).Str("Path", url.Path).Msg("Router")
	log.Info().Str("version", version).Msg("Router")

	err := registerPrometheusMetrics()
	if err != nil {
		return nil, func() {}, err
	}

	return r, func() { unregisterPrometheusMetrics() }, nil
}

// AttachRoutes attaches the API routes to the router group that is passed in.
// Separating this from Config() allows us to attach it to different paths for
// different use cases.
func AttachRoutes(group *gin.RouterGroup) {
	root.RegisterRoutes(group)
	healthz.RegisterRoutes(group.Group("/healthz"))

	group.GET("/version", GetVersion)
	group.OPTIONS("/version", OptionsVersion)

	group.GET("/metrics", gin.WrapH(promhttp.Handler()))
	group.OPTIONS("/metrics", OptionsMetrics)

	// pprof performance profiles
	enablePprof, ok := os.LookupEnv("ENABLE_PPROF")
	if ok && enablePprof == "true" {
		pprof.RouteRegister(group, "debug/pprof")
	}

	// API v1 setup
	v1Group := group.Group("/v1")
	{
		v1Group.GET("", GetV1)
		v1Group.OPTIONS("", OptionsV1)
	}

	v1.RegisterCostCenterRoutes(v1Group.Group("/cost-centers"))
	v1.RegisterAllocationRuleRoutes(v1Group.Group("/allocation-rules"))
	v1.RegisterCostPoolRoutes(v1Group.Group("/cost-pools"))
	v1.RegisterCostEntryRoutes(v1Group.Group("/cost-entries"))
	v1.RegisterBasisWeightRoutes(v1Group.Group("/basis-weights"))
	v1.RegisterBatchRoutes(v1Group.Group("/batches"))
	v1.RegisterJournalRoutes(v1Group.Group("/journals"))
}

type VersionResponse struct {
	Data VersionObject `json:"data"` // Data object for the version endpoint
}
type VersionObject struct {
	Version string `json:"version" example:"1.1.0"` // the running version of the backend
}

// GetVersion returns the API version object
func GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, VersionResponse{
		Data: VersionObject{
			Version: version,
		},
	})
}

// OptionsVersion returns the allowed HTTP methods
func OptionsVersion(c *gin.Context) {
	httputil.OptionsGet(c)
}

// OptionsMetrics returns the allowed HTTP methods
func OptionsMetrics(c *gin.Context) {
	httputil.OptionsGet(c)
}

type V1Response struct {
	Links V1Links `json:"links"` // Links for the v1 API
}

type V1Links struct {
	CostCenters     string `json:"costCenters" example:"https://example.com/api/v1/cost-centers"`         // URL of cost center list endpoint
	AllocationRules string `json:"allocationRules" example:"https://example.com/api/v1/allocation-rules"` // URL of allocation rule list endpoint
	CostPools       string `json:"costPools" example:"https://example.com/api/v1/cost-pools"`             // URL of cost pool list endpoint
	CostEntries     string `json:"costEntries" example:"https://example.com/api/v1/cost-entries"`         // URL of cost entry list endpoint
	BasisWeights    string `json:"basisWeights" example:"https://example.com/api/v1/basis-weights"`       // URL of basis weight list endpoint
	Batches         string `json:"batches" example:"https://example.com/api/v1/batches"`                  // URL of batch list endpoint
	Journals        string `json:"journals" example:"https://example.com/api/v1/journals"`                // URL of journal list endpoint
}

// GetV1 returns the link list for v1
func GetV1(c *gin.Context) {
	url := c.GetString(string(models.DBContextURL))

	c.JSON(http.StatusOK, V1Response{
		Links: V1Links{
			CostCenters:     url + "/v1/cost-centers",
			AllocationRules: url + "/v1/allocation-rules",
			CostPools:       url + "/v1/cost-pools",
			CostEntries:     url + "/v1/cost-entries",
			BasisWeights:    url + "/v1/basis-weights",
			Batches:         url + "/v1/batches",
			Journals:        url + "/v1/journals",
		},
	})
}

// OptionsV1 returns the allowed HTTP methods
func OptionsV1(c *gin.Context) {
	httputil.OptionsGet(c)
}
