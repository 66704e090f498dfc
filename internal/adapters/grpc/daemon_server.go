package grpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tiletransit/simcore/internal/application/command"
	"github.com/tiletransit/simcore/internal/application/simcontext"
	"github.com/tiletransit/simcore/internal/domain/grid"
)

// TickObserver receives per-tick timing/volume measurements; satisfied by
// metrics.Collectors without this package importing the metrics package
// directly (it has no other reason to depend on prometheus).
type TickObserver interface {
	ObserveTick(d time.Duration, vehicleCount int)
}

// DaemonServer implements Server against a live simulation context and
// command dispatcher, translating the generic Struct payloads into
// command.Request/simcontext calls.
type DaemonServer struct {
	sc       *simcontext.Context
	disp     *command.Dispatcher
	observer TickObserver

	limiterMu sync.Mutex
	limiters  map[grid.Owner]*rate.Limiter
	limit     rate.Limit
	burst     int
}

// NewDaemonServer builds a DaemonServer bound to sc/disp. observer may be
// nil to skip metrics collection. Commands are rate-limited per calling
// player at commandsPerSecond/burst so a runaway scripted client can't
// flood the single-threaded dispatcher between ticks; a non-positive
// commandsPerSecond disables limiting (useful for in-process tests).
func NewDaemonServer(sc *simcontext.Context, disp *command.Dispatcher, observer TickObserver, commandsPerSecond float64, burst int) *DaemonServer {
	return &DaemonServer{
		sc: sc, disp: disp, observer: observer,
		limiters: make(map[grid.Owner]*rate.Limiter),
		limit:    rate.Limit(commandsPerSecond),
		burst:    burst,
	}
}

// limiterFor returns (creating if needed) the per-player token bucket.
func (s *DaemonServer) limiterFor(p grid.Owner) *rate.Limiter {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	l, ok := s.limiters[p]
	if !ok {
		l = rate.NewLimiter(s.limit, s.burst)
		s.limiters[p] = l
	}
	return l
}

// Tick advances the simulation by one tick and reports the resulting
// tick number and any invariant violations.
func (s *DaemonServer) Tick(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	start := time.Now()
	violations := s.sc.Tick()
	if s.observer != nil {
		s.observer.ObserveTick(time.Since(start), s.sc.Pool.Count())
	}
	out := map[string]interface{}{
		"tick": float64(s.sc.Clock.Now()),
	}
	if len(violations) > 0 {
		msgs := make([]interface{}, 0, len(violations))
		for _, v := range violations {
			msgs = append(msgs, v.Message)
		}
		out["violations"] = msgs
	}
	return structpb.NewStruct(out)
}

// DoCommand decodes a {tile,p1,p2,flags,player,cmd} payload, dispatches
// it, and returns {cost} or {error}.
func (s *DaemonServer) DoCommand(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := req.GetFields()
	cmdID := command.ID(f["cmd"].GetNumberValue())
	creq := command.Request{
		Tile:   grid.TileIndex(uint32(f["tile"].GetNumberValue())),
		P1:     uint32(f["p1"].GetNumberValue()),
		P2:     uint32(f["p2"].GetNumberValue()),
		Flags:  command.Flags(uint8(f["flags"].GetNumberValue())),
		Player: grid.Owner(int16(f["player"].GetNumberValue())),
	}

	if s.limit > 0 {
		if !s.limiterFor(creq.Player).Allow() {
			return structpb.NewStruct(map[string]interface{}{
				"error": "command rate limit exceeded for player",
			})
		}
	}

	cost, cmdErr := s.disp.DoCommand(ctx, cmdID, creq)
	if cmdErr != nil {
		return structpb.NewStruct(map[string]interface{}{
			"error": cmdErr.Error(),
		})
	}
	return structpb.NewStruct(map[string]interface{}{
		"cost": float64(cost),
	})
}

// GetVehicle reports a train's head-car position and speed. Road
// vehicles and ships are out of scope for this read-back RPC until a
// caller needs them; the dispatcher-facing command surface already
// covers all three kinds.
func (s *DaemonServer) GetVehicle(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := uint32(req.GetFields()["id"].GetNumberValue())
	t := s.sc.Train(id)
	if t == nil || len(t.Cars) == 0 {
		return nil, fmt.Errorf("vehicle %d not found", id)
	}
	head := t.Cars[0]
	return structpb.NewStruct(map[string]interface{}{
		"id":    float64(id),
		"tile":  float64(head.Veh.Tile),
		"speed": float64(t.Speed),
	})
}
