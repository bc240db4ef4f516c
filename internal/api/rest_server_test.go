package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-blast/internal/collision"
	"github.com/annel0/voxel-blast/internal/explosion"
	"github.com/annel0/voxel-blast/internal/vec"
	"github.com/annel0/voxel-blast/internal/world"
	"github.com/annel0/voxel-blast/internal/world/block"
	_ "github.com/annel0/voxel-blast/internal/world/block/implementations"
	"github.com/annel0/voxel-blast/internal/world/entity"
)

// newTestServer поднимает регион с плоским миром: бедрок на y=0, земля на y=1..3
func newTestServer(t *testing.T) (*RestServer, *world.Region) {
	t.Helper()
	w := world.NewWorld("api-test", 0, 64, world.FlatGenerator{
		Layers: []block.BlockID{block.BedrockBlockID, block.DirtBlockID, block.DirtBlockID, block.DirtBlockID},
	})
	for cx := -1; cx <= 1; cx++ {
		for cz := -1; cz <= 1; cz++ {
			_, err := w.LoadChunk(vec.ChunkPos{X: cx, Z: cz})
			require.NoError(t, err)
		}
	}
	em := entity.NewEntityManager()
	region := world.NewRegion(w, em, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go region.Run(ctx)

	reg := prometheus.NewRegistry()
	engine := collision.NewEngine(w, em.Index(), collision.Config{}, collision.NewMetrics(reg))
	sim := explosion.NewSimulator(w, em.Index(), explosion.DefaultConfig())
	sim.SetMetrics(explosion.NewMetrics(reg))

	rs := NewRestServer(Config{Region: region, Engine: engine, Simulator: sim, Registry: reg})
	return rs, region
}

func doJSON(t *testing.T, rs *RestServer, method, path string, body interface{}) (*httptest.ResponseRecorder, GenericResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	rs.Router().ServeHTTP(rec, req)

	var resp GenericResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

// decodeData перекладывает поле Data ответа в out
func decodeData(t *testing.T, resp GenericResponse, out interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func cellOf(c CellDTO) vec.Vec3 {
	return vec.Vec3{X: c.X, Y: c.Y, Z: c.Z}
}

func TestHealth(t *testing.T) {
	rs, _ := newTestServer(t)

	rec, _ := doJSON(t, rs, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"world":"api-test"`)
	assert.NotEmpty(t, rec.Header().Get("X-Trace-Id"))
}

func TestSpawnAndSupport(t *testing.T) {
	rs, _ := newTestServer(t)

	rec, resp := doJSON(t, rs, http.MethodPost, "/api/entities", SpawnRequest{Type: "player", Position: Point{0.5, 4, 0.5}})
	require.Equal(t, http.StatusCreated, rec.Code)
	var ent EntityDTO
	decodeData(t, resp, &ent)
	assert.Equal(t, "player", ent.Type)
	assert.Equal(t, 20.0, ent.Health)

	id := strconv.FormatUint(ent.ID, 10)
	rec, resp = doJSON(t, rs, http.MethodGet, "/api/entities/"+id+"/support", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sup SupportResponse
	decodeData(t, resp, &sup)
	assert.Equal(t, "yes", sup.Outcome)
	require.NotNil(t, sup.Cell)
	assert.Equal(t, CellDTO{X: 0, Y: 3, Z: 0}, *sup.Cell)

	rec, _ = doJSON(t, rs, http.MethodGet, "/api/entities/999/support", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doJSON(t, rs, http.MethodGet, "/api/entities/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, rs, http.MethodPost, "/api/entities", SpawnRequest{Type: "dragon"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCollisions(t *testing.T) {
	rs, _ := newTestServer(t)

	rec, resp := doJSON(t, rs, http.MethodPost, "/api/collisions", CollisionRequest{
		Box: BoxDTO{Min: Point{0.2, 3.5, 0.2}, Max: Point{0.8, 4.5, 0.8}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var col CollisionResponse
	decodeData(t, resp, &col)
	require.Len(t, col.Boxes, 1)
	assert.Equal(t, BoxDTO{Min: Point{0, 3, 0}, Max: Point{1, 4, 1}}, col.Boxes[0])
	assert.True(t, col.Loaded)
	assert.Equal(t, "no", col.NoCollision)
	assert.True(t, col.Unobstructed, "Сущностей в боксе нет")

	rec, resp = doJSON(t, rs, http.MethodPost, "/api/collisions", CollisionRequest{
		Box:    BoxDTO{Min: Point{5000.2, 10, 5000.2}, Max: Point{5000.8, 11, 5000.8}},
		Chunks: "unknown",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var far CollisionResponse
	decodeData(t, resp, &far)
	assert.False(t, far.Loaded)
	assert.Equal(t, "unknown", far.NoCollision)

	rec, _ = doJSON(t, rs, http.MethodPost, "/api/collisions", CollisionRequest{
		Box: BoxDTO{Min: Point{4e7, 0, 0}, Max: Point{4e7 + 1, 1, 1}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, rs, http.MethodPost, "/api/collisions", CollisionRequest{Chunks: "maybe"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRaycast(t *testing.T) {
	rs, _ := newTestServer(t)

	rec, resp := doJSON(t, rs, http.MethodPost, "/api/raycast", RaycastRequest{From: Point{0.5, 10, 0.5}, To: Point{0.5, 0.5, 0.5}})
	require.Equal(t, http.StatusOK, rec.Code)
	var ray RaycastResponse
	decodeData(t, resp, &ray)
	assert.True(t, ray.Hit)
	assert.Equal(t, "up", ray.Face)
	require.NotNil(t, ray.Cell)
	assert.Equal(t, CellDTO{X: 0, Y: 3, Z: 0}, *ray.Cell)
	assert.InDelta(t, 4.0, ray.End[1], 1e-9)

	rec, resp = doJSON(t, rs, http.MethodPost, "/api/raycast", RaycastRequest{From: Point{0.5, 10, 0.5}, To: Point{5.5, 12, 0.5}})
	require.Equal(t, http.StatusOK, rec.Code)
	var miss RaycastResponse
	decodeData(t, resp, &miss)
	assert.False(t, miss.Hit)
	assert.Nil(t, miss.Cell)
	assert.Equal(t, Point{5.5, 12, 0.5}, miss.End)
}

func TestExplosionEndpoint(t *testing.T) {
	rs, region := newTestServer(t)

	_, resp := doJSON(t, rs, http.MethodPost, "/api/entities", SpawnRequest{Type: "player", Position: Point{2.5, 4, 0.5}})
	var ent EntityDTO
	decodeData(t, resp, &ent)

	seed := int64(5)
	rec, resp := doJSON(t, rs, http.MethodPost, "/api/explosions", ExplosionRequest{
		Origin: Point{0.5, 4.5, 0.5}, Power: 3, Interaction: "destroy", Seed: &seed,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var out ExplosionResponse
	decodeData(t, resp, &out)
	assert.Equal(t, "destroy", out.Interaction)
	assert.NotEmpty(t, out.Destroyed)
	assert.Equal(t, len(out.Destroyed), out.Removed)
	require.Contains(t, out.Entities, strconv.FormatUint(ent.ID, 10))
	assert.Greater(t, out.Entities[strconv.FormatUint(ent.ID, 10)].Damage, 0.0)

	// Блоки действительно удалены в мире региона
	first := out.Destroyed[0]
	var id block.BlockID
	require.NoError(t, region.Do(context.Background(), func() error {
		var err error
		id, err = region.World().BlockAt(cellOf(first))
		return err
	}))
	assert.Equal(t, block.AirBlockID, id)

	rec, _ = doJSON(t, rs, http.MethodPost, "/api/explosions", ExplosionRequest{Power: 1, Interaction: "nuke"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, rs, http.MethodPost, "/api/explosions", ExplosionRequest{Origin: Point{0, 1e9, 0}, Power: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, rs, http.MethodPost, "/api/explosions", ExplosionRequest{Power: 1, SourceID: 12345})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rs, _ := newTestServer(t)

	doJSON(t, rs, http.MethodGet, "/health", nil)
	doJSON(t, rs, http.MethodGet, "/api/stats", nil)

	rec := httptest.NewRecorder()
	rs.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "blast_api_http_request_duration_seconds")
	assert.Contains(t, rec.Body.String(), `route="/api/stats"`)
}

func TestRegionStopped(t *testing.T) {
	w := world.NewWorld("stopped", 0, 16, nil)
	em := entity.NewEntityManager()
	region := world.NewRegion(w, em, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		region.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	reg := prometheus.NewRegistry()
	rs := NewRestServer(Config{
		Region:    region,
		Engine:    collision.NewEngine(w, em.Index(), collision.Config{}, nil),
		Simulator: explosion.NewSimulator(w, em.Index(), explosion.DefaultConfig()),
		Registry:  reg,
	})
	rec, _ := doJSON(t, rs, http.MethodGet, "/api/stats", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
