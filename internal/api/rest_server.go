package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/voxel-blast/internal/collision"
	"github.com/annel0/voxel-blast/internal/explosion"
	"github.com/annel0/voxel-blast/internal/logging"
	"github.com/annel0/voxel-blast/internal/middleware"
	"github.com/annel0/voxel-blast/internal/physics"
	"github.com/annel0/voxel-blast/internal/vec"
	"github.com/annel0/voxel-blast/internal/world"
	"github.com/annel0/voxel-blast/internal/world/entity"
)

// errEntityNotFound возвращается обработчиками, если сущность не найдена
var errEntityNotFound = errors.New("entity not found")

// RestServer — отладочный REST API над одним регионом мира.
// Все обращения к миру и сущностям идут через Region.Do.
type RestServer struct {
	router    *gin.Engine
	region    *world.Region
	engine    *collision.Engine
	simulator *explosion.Simulator
	port      string
	metrics   *ServerMetrics
	server    *http.Server
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port      string               // порт для запуска сервера
	Region    *world.Region        // регион, владеющий миром
	Engine    *collision.Engine    // запросы столкновений над миром региона
	Simulator *explosion.Simulator // взрывы над миром региона
	Registry  *prometheus.Registry // nil — регистр по умолчанию
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	// === Observability middleware ===
	router.Use(otelgin.Middleware("blast_api"))
	router.Use(middleware.NewRequestLogger(250 * time.Millisecond).Handler())

	var reg prometheus.Registerer
	var gatherer prometheus.Gatherer
	if config.Registry != nil {
		reg, gatherer = config.Registry, config.Registry
	}
	promMw := middleware.NewPrometheusMiddleware("blast_api", reg)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, gatherer)

	rs := &RestServer{
		router:    router,
		region:    config.Region,
		engine:    config.Engine,
		simulator: config.Simulator,
		port:      config.Port,
		metrics:   NewServerMetrics(),
	}
	rs.setupRoutes()
	return rs
}

// Router возвращает gin.Engine (используется в тестах)
func (rs *RestServer) Router() *gin.Engine {
	return rs.router
}

func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	{
		api.GET("/stats", rs.handleStats)
		api.POST("/explosions", rs.handleExplosion)
		api.POST("/collisions", rs.handleCollisions)
		api.POST("/raycast", rs.handleRaycast)
		api.POST("/entities", rs.handleSpawnEntity)
		api.GET("/entities/:id", rs.handleGetEntity)
		api.GET("/entities/:id/support", rs.handleSupport)
	}
}

// Start запускает HTTP сервер и блокируется до его остановки
func (rs *RestServer) Start() error {
	rs.server = &http.Server{
		Addr:              rs.port,
		Handler:           rs.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logging.Info("🌐 REST API слушает %s", rs.port)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("rest api: %w", err)
	}
	return nil
}

// Shutdown останавливает HTTP сервер
func (rs *RestServer) Shutdown(ctx context.Context) error {
	if rs.server == nil {
		return nil
	}
	return rs.server.Shutdown(ctx)
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, GenericResponse{Success: false, Message: msg})
}

func ok(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: msg, Data: data})
}

// do выполняет fn в горутине региона с таймаутом запроса.
// fn получает только контекст: *gin.Context после ответа уже может
// обслуживать другой запрос.
func (rs *RestServer) do(parent context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, 5*time.Second)
	defer cancel()
	return rs.region.Do(ctx, func() error { return fn(ctx) })
}

// failRegion переводит ошибку региона в HTTP-ответ
func failRegion(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errEntityNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, vec.ErrCoordinateOverflow):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, world.ErrRegionStopped):
		fail(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		fail(c, http.StatusGatewayTimeout, "region busy")
	default:
		logging.Error("Ошибка обработки запроса %s: %v", c.FullPath(), err)
		fail(c, http.StatusInternalServerError, "internal error")
	}
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"world":  rs.region.World().ID(),
		"tick":   rs.region.Tick(),
	})
}

func (rs *RestServer) handleStats(c *gin.Context) {
	stats := map[string]interface{}{
		"server": rs.metrics.Snapshot(),
	}
	err := rs.do(c.Request.Context(), func(ctx context.Context) error {
		stats["world"] = map[string]interface{}{
			"id":            rs.region.World().ID(),
			"loaded_chunks": len(rs.region.World().LoadedChunks()),
			"entities":      rs.region.Entities().Count(),
			"tick":          rs.region.Tick(),
		}
		return nil
	})
	if err != nil {
		failRegion(c, err)
		return
	}
	ok(c, "Статистика получена", stats)
}

// entityByID ищет сущность; вызывается только в горутине региона
func (rs *RestServer) entityByID(id uint64) (*entity.Entity, error) {
	if id == 0 {
		return nil, nil
	}
	e, found := rs.region.Entities().Get(id)
	if !found {
		return nil, fmt.Errorf("%w: %d", errEntityNotFound, id)
	}
	return e, nil
}

func (rs *RestServer) handleExplosion(c *gin.Context) {
	var req ExplosionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}
	interaction, valid := explosion.ParseInteraction(req.Interaction)
	if !valid {
		fail(c, http.StatusBadRequest, "unknown interaction "+strconv.Quote(req.Interaction))
		return
	}
	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	var res *explosion.Result
	err := rs.do(c.Request.Context(), func(ctx context.Context) error {
		source, err := rs.entityByID(req.SourceID)
		if err != nil {
			return err
		}
		res, err = rs.simulator.Run(ctx, explosion.Request{
			Origin:      req.Origin.vec(),
			Power:       req.Power,
			Source:      source,
			Interaction: interaction,
			Fire:        req.Fire,
			Seed:        seed,
		})
		return err
	})
	if err != nil {
		failRegion(c, err)
		return
	}
	ok(c, "Взрыв выполнен", newExplosionResponse(res))
}

func (rs *RestServer) handleCollisions(c *gin.Context) {
	var req CollisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}
	policy, valid := collision.ParseChunkPolicy(req.Chunks)
	if !valid {
		fail(c, http.StatusBadRequest, "unknown chunk policy "+strconv.Quote(req.Chunks))
		return
	}
	box := req.Box.box()
	if err := physics.CheckBox(box); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	var resp CollisionResponse
	err := rs.do(c.Request.Context(), func(ctx context.Context) error {
		actor, err := rs.entityByID(req.ActorID)
		if err != nil {
			return err
		}
		query := collision.Context{Actor: actor, Chunks: policy}

		var shapes []physics.Shape
		if policy == collision.UnloadedUnknown {
			shapes, resp.Loaded = rs.engine.CollisionsForIfLoaded(query, box)
		} else {
			shapes, resp.Loaded = rs.engine.CollisionsFor(query, box), true
		}
		for _, s := range shapes {
			for _, b := range s.Boxes() {
				resp.Boxes = append(resp.Boxes, newBoxDTO(b))
			}
		}
		resp.NoCollision = rs.engine.NoCollisionIfLoaded(query, box).String()
		resp.Unobstructed = rs.engine.IsUnobstructed(actor, physics.FromBox(box))
		return nil
	})
	if err != nil {
		failRegion(c, err)
		return
	}
	ok(c, "Столкновения найдены", resp)
}

func (rs *RestServer) handleRaycast(c *gin.Context) {
	var req RaycastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}
	from, to := req.From.vec(), req.To.vec()
	if err := physics.CheckBox(physics.Box{Min: from, Max: from}); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := physics.CheckBox(physics.Box{Min: to, Max: to}); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	var hit collision.HitResult
	err := rs.do(c.Request.Context(), func(ctx context.Context) error {
		hit = rs.engine.ClipRay(collision.Context{}, from, to)
		return nil
	})
	if err != nil {
		failRegion(c, err)
		return
	}
	ok(c, "Луч оттрассирован", newRaycastResponse(hit))
}

func (rs *RestServer) handleSpawnEntity(c *gin.Context) {
	var req SpawnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}
	typ, valid := entity.ParseEntityType(req.Type)
	if !valid {
		fail(c, http.StatusBadRequest, "unknown entity type "+strconv.Quote(req.Type))
		return
	}
	pos := req.Position.vec()
	if err := vec.CheckPoint(pos); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	var dto EntityDTO
	err := rs.do(c.Request.Context(), func(ctx context.Context) error {
		e := rs.region.Entities().Spawn(typ, pos)
		e.Spectator = req.Spectator
		e.IgnoresExplosion = req.IgnoresExplosion
		dto = newEntityDTO(e)
		return nil
	})
	if err != nil {
		failRegion(c, err)
		return
	}
	c.JSON(http.StatusCreated, GenericResponse{Success: true, Message: "Сущность создана", Data: dto})
}

func parseEntityID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, "invalid entity id")
		return 0, false
	}
	return id, true
}

func (rs *RestServer) handleGetEntity(c *gin.Context) {
	id, valid := parseEntityID(c)
	if !valid {
		return
	}
	var dto EntityDTO
	err := rs.do(c.Request.Context(), func(ctx context.Context) error {
		e, err := rs.entityByID(id)
		if err != nil {
			return err
		}
		dto = newEntityDTO(e)
		return nil
	})
	if err != nil {
		failRegion(c, err)
		return
	}
	ok(c, "Сущность найдена", dto)
}

func (rs *RestServer) handleSupport(c *gin.Context) {
	id, valid := parseEntityID(c)
	if !valid {
		return
	}
	policy, valid := collision.ParseChunkPolicy(c.Query("chunks"))
	if !valid {
		fail(c, http.StatusBadRequest, "unknown chunk policy")
		return
	}

	var resp SupportResponse
	err := rs.do(c.Request.Context(), func(ctx context.Context) error {
		e, err := rs.entityByID(id)
		if err != nil {
			return err
		}
		if err := physics.CheckBox(e.Box()); err != nil {
			return err
		}
		cell, outcome := rs.engine.FindSupportingCell(collision.Context{Actor: e, Chunks: policy}, collision.SupportProbe(e.Box()))
		resp.Outcome = outcome.String()
		if outcome == collision.OutcomeYes {
			resp.Cell = &CellDTO{X: cell.X, Y: cell.Y, Z: cell.Z}
		}
		return nil
	})
	if err != nil {
		failRegion(c, err)
		return
	}
	ok(c, "Опора найдена", resp)
}

// Point — точка в JSON как [x, y, z]
type Point [3]float64

func (p Point) vec() mgl64.Vec3 { return mgl64.Vec3(p) }
