package api

import (
	"sort"
	"strconv"

	"github.com/annel0/voxel-blast/internal/collision"
	"github.com/annel0/voxel-blast/internal/explosion"
	"github.com/annel0/voxel-blast/internal/physics"
	"github.com/annel0/voxel-blast/internal/world/entity"
)

// ExplosionRequest — тело POST /api/explosions
type ExplosionRequest struct {
	Origin      Point   `json:"origin"`
	Power       float64 `json:"power"`
	Interaction string  `json:"interaction"` // keep | destroy | destroy_with_decay
	Fire        bool    `json:"fire"`
	Seed        *int64  `json:"seed,omitempty"` // Без seed берётся текущее время
	SourceID    uint64  `json:"source_id,omitempty"`
}

// CollisionRequest — тело POST /api/collisions
type CollisionRequest struct {
	Box     BoxDTO `json:"box"`
	ActorID uint64 `json:"actor_id,omitempty"`
	Chunks  string `json:"chunks"` // solid | load | unknown
}

// RaycastRequest — тело POST /api/raycast
type RaycastRequest struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

// SpawnRequest — тело POST /api/entities
type SpawnRequest struct {
	Type             string `json:"type" binding:"required"`
	Position         Point  `json:"position"`
	Spectator        bool   `json:"spectator"`
	IgnoresExplosion bool   `json:"ignores_explosion"`
}

type BoxDTO struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

func newBoxDTO(b physics.Box) BoxDTO {
	return BoxDTO{Min: Point(b.Min), Max: Point(b.Max)}
}

func (b BoxDTO) box() physics.Box {
	return physics.NewBox(b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2])
}

type CellDTO struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

type CollisionResponse struct {
	Boxes        []BoxDTO `json:"boxes"`
	Loaded       bool     `json:"loaded"`
	NoCollision  string   `json:"no_collision"` // yes | no | unknown
	Unobstructed bool     `json:"unobstructed"`
}

type RaycastResponse struct {
	Hit    bool     `json:"hit"`
	End    Point    `json:"end"`
	Face   string   `json:"face,omitempty"`
	Cell   *CellDTO `json:"cell,omitempty"`
	Inside bool     `json:"inside,omitempty"`
}

func newRaycastResponse(h collision.HitResult) RaycastResponse {
	resp := RaycastResponse{Hit: h.Hit, End: Point(h.End)}
	if h.Hit {
		resp.Face = h.Info.Face.String()
		resp.Cell = &CellDTO{X: h.Info.Cell.X, Y: h.Info.Cell.Y, Z: h.Info.Cell.Z}
		resp.Inside = h.Info.Inside
	}
	return resp
}

type SupportResponse struct {
	Outcome string   `json:"outcome"`
	Cell    *CellDTO `json:"cell,omitempty"`
}

type EntityDTO struct {
	ID       uint64  `json:"id"`
	Type     string  `json:"type"`
	Position Point   `json:"position"`
	Velocity Point   `json:"velocity"`
	Health   float64 `json:"health"`
	Box      BoxDTO  `json:"box"`
}

func newEntityDTO(e *entity.Entity) EntityDTO {
	return EntityDTO{
		ID:       e.ID,
		Type:     e.Type.String(),
		Position: Point(e.Position),
		Velocity: Point(e.Velocity),
		Health:   e.Health,
		Box:      newBoxDTO(e.Box()),
	}
}

type DropDTO struct {
	Block uint16  `json:"block"`
	Cell  CellDTO `json:"cell"`
	Count int     `json:"count"`
}

type EntityEffectDTO struct {
	Knockback Point   `json:"knockback"`
	Damage    float64 `json:"damage"`
}

type ExplosionResponse struct {
	ID          string                     `json:"id"`
	Radius      float64                    `json:"radius"`
	Interaction string                     `json:"interaction"`
	NoOp        bool                       `json:"noop"`
	Cancelled   bool                       `json:"cancelled"`
	Destroyed   []CellDTO                  `json:"destroyed"`
	Removed     int                        `json:"removed"`
	Ignited     []CellDTO                  `json:"ignited,omitempty"`
	Drops       []DropDTO                  `json:"drops,omitempty"`
	Entities    map[string]EntityEffectDTO `json:"entities,omitempty"`
	CachedCells int                        `json:"cached_cells"`
}

func newExplosionResponse(res *explosion.Result) ExplosionResponse {
	resp := ExplosionResponse{
		ID:          res.ID.String(),
		Radius:      res.Radius,
		Interaction: res.Interaction.String(),
		NoOp:        res.NoOp,
		Cancelled:   res.Cancelled,
		Removed:     res.Removed,
		Destroyed:   make([]CellDTO, 0, len(res.Destroyed)),
		CachedCells: res.CachedCells,
	}
	for _, c := range res.Destroyed {
		resp.Destroyed = append(resp.Destroyed, CellDTO{X: c.X, Y: c.Y, Z: c.Z})
	}
	// Порядок разрушения случайный, наружу отдаём отсортированным
	sort.Slice(resp.Destroyed, func(i, j int) bool {
		a, b := resp.Destroyed[i], resp.Destroyed[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return a.X < b.X
	})
	for _, c := range res.Ignited {
		resp.Ignited = append(resp.Ignited, CellDTO{X: c.X, Y: c.Y, Z: c.Z})
	}
	for _, d := range res.Drops {
		resp.Drops = append(resp.Drops, DropDTO{
			Block: uint16(d.Block),
			Cell:  CellDTO{X: d.Cell.X, Y: d.Cell.Y, Z: d.Cell.Z},
			Count: d.Count,
		})
	}
	if len(res.Knockback) > 0 || len(res.Damage) > 0 {
		resp.Entities = make(map[string]EntityEffectDTO)
		for id, kb := range res.Knockback {
			eff := resp.Entities[strconv.FormatUint(id, 10)]
			eff.Knockback = Point(kb)
			resp.Entities[strconv.FormatUint(id, 10)] = eff
		}
		for id, dmg := range res.Damage {
			eff := resp.Entities[strconv.FormatUint(id, 10)]
			eff.Damage = dmg
			resp.Entities[strconv.FormatUint(id, 10)] = eff
		}
	}
	return resp
}
