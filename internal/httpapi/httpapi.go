// Package httpapi exposes the graph operations as JSON over HTTP.
//
// Every operation is a POST to /v1/<operation> whose body is the same JSON
// object the matching MCP tool accepts.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/database"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/metrics"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/persistence"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/server"
)

// Error codes carried in {"error":{"code":...}} bodies.
const (
	CodeEntityNotFound   = "ENTITY_NOT_FOUND"
	CodeInvalidArgument  = "INVALID_ARGUMENT"
	CodePersistenceWrite = "PERSISTENCE_WRITE_FAILED"
	CodeStoreClosed      = "STORE_CLOSED"
	CodeInternal         = "INTERNAL"
)

// ErrorBody is the error envelope returned with every non-2xx response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewRouter builds the gin engine serving db.
func NewRouter(db *database.DBManager, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	{
		v1.GET("/graph", func(c *gin.Context) {
			run(c, "read_graph", func(ctx context.Context, _ *struct{}) (any, error) {
				g, err := db.ReadGraph(ctx, c.Query("projectName"))
				return toResult(g), err
			})
		})
		v1.GET("/health", func(c *gin.Context) {
			run(c, "health_check", func(ctx context.Context, _ *struct{}) (any, error) {
				return server.Health(ctx, db, c.Query("projectName"))
			})
		})

		v1.POST("/create_entities", func(c *gin.Context) {
			run(c, "create_entities", func(ctx context.Context, a *apptype.CreateEntitiesArgs) (any, error) {
				created, err := db.CreateEntities(ctx, a.ProjectArgs.ProjectName, a.Entities)
				return apptype.CreateEntitiesResult{Created: created}, err
			})
		})
		v1.POST("/create_relations", func(c *gin.Context) {
			run(c, "create_relations", func(ctx context.Context, a *apptype.CreateRelationsArgs) (any, error) {
				created, err := db.CreateRelations(ctx, a.ProjectArgs.ProjectName, a.Relations)
				return apptype.CreateRelationsResult{Created: created}, err
			})
		})
		v1.POST("/add_observations", func(c *gin.Context) {
			run(c, "add_observations", func(ctx context.Context, a *apptype.AddObservationsArgs) (any, error) {
				results, err := db.AddObservations(ctx, a.ProjectArgs.ProjectName, a.Observations)
				return apptype.AddObservationsResult{Results: results}, err
			})
		})
		v1.POST("/delete_entities", func(c *gin.Context) {
			run(c, "delete_entities", func(ctx context.Context, a *apptype.DeleteEntitiesArgs) (any, error) {
				return ok(), db.DeleteEntities(ctx, a.ProjectArgs.ProjectName, a.EntityNames)
			})
		})
		v1.POST("/delete_observations", func(c *gin.Context) {
			run(c, "delete_observations", func(ctx context.Context, a *apptype.DeleteObservationsArgs) (any, error) {
				return ok(), db.DeleteObservations(ctx, a.ProjectArgs.ProjectName, a.Deletions)
			})
		})
		v1.POST("/delete_relations", func(c *gin.Context) {
			run(c, "delete_relations", func(ctx context.Context, a *apptype.DeleteRelationsArgs) (any, error) {
				return ok(), db.DeleteRelations(ctx, a.ProjectArgs.ProjectName, a.Relations)
			})
		})
		v1.POST("/read_graph", func(c *gin.Context) {
			run(c, "read_graph", func(ctx context.Context, a *apptype.ReadGraphArgs) (any, error) {
				g, err := db.ReadGraph(ctx, a.ProjectArgs.ProjectName)
				return toResult(g), err
			})
		})
		v1.POST("/search_nodes", func(c *gin.Context) {
			run(c, "search_nodes", func(ctx context.Context, a *apptype.SearchNodesArgs) (any, error) {
				g, err := db.SearchNodes(ctx, a.ProjectArgs.ProjectName, a.Query, database.SearchOptions{Limit: a.Limit, Offset: a.Offset})
				return toResult(g), err
			})
		})
		v1.POST("/open_nodes", func(c *gin.Context) {
			run(c, "open_nodes", func(ctx context.Context, a *apptype.OpenNodesArgs) (any, error) {
				g, err := db.OpenNodes(ctx, a.ProjectArgs.ProjectName, a.Names)
				return toResult(g), err
			})
		})
		v1.POST("/neighbors", func(c *gin.Context) {
			run(c, "neighbors", func(ctx context.Context, a *apptype.NeighborsArgs) (any, error) {
				g, err := db.GetNeighbors(ctx, a.ProjectArgs.ProjectName, a.Names, a.Direction, a.Limit)
				return toResult(g), err
			})
		})
		v1.POST("/walk", func(c *gin.Context) {
			run(c, "walk", func(ctx context.Context, a *apptype.WalkArgs) (any, error) {
				g, err := db.Walk(ctx, a.ProjectArgs.ProjectName, a.Names, a.MaxDepth, a.Direction, a.Limit)
				return toResult(g), err
			})
		})
		v1.POST("/shortest_path", func(c *gin.Context) {
			run(c, "shortest_path", func(ctx context.Context, a *apptype.ShortestPathArgs) (any, error) {
				g, err := db.ShortestPath(ctx, a.ProjectArgs.ProjectName, a.From, a.To, a.Direction)
				return toResult(g), err
			})
		})
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorBody{Error: ErrorDetail{Code: "NOT_FOUND", Message: "unknown route " + c.Request.URL.Path}})
	})
	return router
}

// run decodes the request body into A (GET requests have none), calls fn and
// writes either its result or the mapped error.
func run[A any](c *gin.Context, op string, fn func(context.Context, *A) (any, error)) {
	done := metrics.TimeHTTP(op)
	success := false
	defer func() { done(success) }()

	args := new(A)
	if c.Request.Method == http.MethodPost && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(args); err != nil {
			c.JSON(http.StatusBadRequest, ErrorBody{Error: ErrorDetail{Code: CodeInvalidArgument, Message: err.Error()}})
			return
		}
	}
	res, err := fn(c.Request.Context(), args)
	if err != nil {
		status, body := mapError(err)
		c.JSON(status, body)
		return
	}
	success = true
	c.JSON(http.StatusOK, res)
}

func mapError(err error) (int, ErrorBody) {
	detail := ErrorDetail{Code: CodeInternal, Message: err.Error()}
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, database.ErrEntityNotFound):
		status, detail.Code = http.StatusNotFound, CodeEntityNotFound
	case errors.Is(err, database.ErrInvalidArgument):
		status, detail.Code = http.StatusBadRequest, CodeInvalidArgument
	case errors.Is(err, persistence.ErrPersistenceWrite):
		detail.Code = CodePersistenceWrite
	case errors.Is(err, database.ErrClosed):
		status, detail.Code = http.StatusServiceUnavailable, CodeStoreClosed
	}
	return status, ErrorBody{Error: detail}
}

func toResult(g apptype.Graph) apptype.GraphResult {
	res := apptype.GraphResult{Entities: g.Entities, Relations: g.Relations}
	if res.Entities == nil {
		res.Entities = []apptype.Entity{}
	}
	if res.Relations == nil {
		res.Relations = []apptype.Relation{}
	}
	return res
}

func ok() gin.H { return gin.H{"status": "ok"} }

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
