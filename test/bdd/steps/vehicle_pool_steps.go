package steps

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/tiletransit/simcore/internal/domain/grid"
	"github.com/tiletransit/simcore/internal/domain/vehicle"
)

type vehiclePoolContext struct {
	pool     *vehicle.Pool
	lastID   uint32
	found    *vehicle.Vehicle
	searched bool
}

func (c *vehiclePoolContext) reset() {
	c.pool = nil
	c.lastID = 0
	c.found = nil
	c.searched = false
}

func (c *vehiclePoolContext) anEmptyVehiclePool() error {
	p, err := vehicle.NewPool()
	if err != nil {
		return err
	}
	c.pool = p
	return nil
}

func (c *vehiclePoolContext) iAllocateATrainForOwnerAtTile(owner, tile int) error {
	v, ok := c.pool.Allocate(vehicle.KindTrain, grid.Owner(owner), grid.TileIndex(tile))
	if !ok {
		return fmt.Errorf("allocation failed")
	}
	c.lastID = v.ID
	return nil
}

func (c *vehiclePoolContext) iAllocateAnEffectVehicleForOwnerAtTile(owner, tile int) error {
	v, ok := c.pool.AllocateEffect(grid.Owner(owner), grid.TileIndex(tile))
	if !ok {
		return fmt.Errorf("effect allocation failed")
	}
	c.lastID = v.ID
	return nil
}

func (c *vehiclePoolContext) theAllocatedVehiclesIDShouldBeAtLeast(min int) error {
	if c.lastID < uint32(min) {
		return fmt.Errorf("allocated id %d is below %d", c.lastID, min)
	}
	return nil
}

func (c *vehiclePoolContext) theAllocatedVehiclesIDShouldBeLessThan(max int) error {
	if c.lastID >= uint32(max) {
		return fmt.Errorf("allocated id %d is not below %d", c.lastID, max)
	}
	return nil
}

func (c *vehiclePoolContext) iFreeTheAllocatedVehicle() error {
	c.pool.Free(c.lastID)
	return nil
}

func (c *vehiclePoolContext) lookingUpTheAllocatedVehiclesIDShouldReturnNothing() error {
	if v := c.pool.Get(c.lastID); v != nil {
		return fmt.Errorf("expected id %d to be gone, found %+v", c.lastID, v)
	}
	return nil
}

func (c *vehiclePoolContext) theAllocatedVehicleIsMovedToPixelPosition(x, y int) error {
	v := c.pool.Get(c.lastID)
	if v == nil {
		return fmt.Errorf("allocated vehicle %d not found", c.lastID)
	}
	v.X, v.Y = int32(x), int32(y)
	return c.pool.PositionChanged(v)
}

func (c *vehiclePoolContext) iSearchForAVehicleNearPixelPositionOwnedBy(x, y, owner int) error {
	c.searched = true
	c.found = c.pool.VehicleFromPos(int32(x), int32(y), func(v *vehicle.Vehicle) bool {
		return v.Owner == grid.Owner(owner)
	})
	return nil
}

func (c *vehiclePoolContext) theSearchShouldFindTheAllocatedVehicle() error {
	if c.found == nil || c.found.ID != c.lastID {
		return fmt.Errorf("expected to find vehicle %d, found %+v", c.lastID, c.found)
	}
	return nil
}

func (c *vehiclePoolContext) theSearchShouldFindNothing() error {
	if c.found != nil {
		return fmt.Errorf("expected no match, found %+v", c.found)
	}
	return nil
}

// InitializeVehiclePoolScenario registers the vehicle-pool step definitions
// (spec.md §4.8).
func InitializeVehiclePoolScenario(sc *godog.ScenarioContext) {
	c := &vehiclePoolContext{}

	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		c.reset()
		return ctx, nil
	})

	sc.Step(`^an empty vehicle pool$`, c.anEmptyVehiclePool)
	sc.Step(`^I allocate a train for owner (\d+) at tile (\d+)$`, c.iAllocateATrainForOwnerAtTile)
	sc.Step(`^I allocate an effect vehicle for owner (\d+) at tile (\d+)$`, c.iAllocateAnEffectVehicleForOwnerAtTile)
	sc.Step(`^the allocated vehicle's id should be at least (\d+)$`, c.theAllocatedVehiclesIDShouldBeAtLeast)
	sc.Step(`^the allocated vehicle's id should be less than (\d+)$`, c.theAllocatedVehiclesIDShouldBeLessThan)
	sc.Step(`^I free the allocated vehicle$`, c.iFreeTheAllocatedVehicle)
	sc.Step(`^looking up the allocated vehicle's id should return nothing$`, c.lookingUpTheAllocatedVehiclesIDShouldReturnNothing)
	sc.Step(`^the allocated vehicle is moved to pixel position (\d+), (\d+)$`, c.theAllocatedVehicleIsMovedToPixelPosition)
	sc.Step(`^I search for a vehicle near pixel position (\d+), (\d+) owned by (\d+)$`, c.iSearchForAVehicleNearPixelPositionOwnedBy)
	sc.Step(`^the search should find the allocated vehicle$`, c.theSearchShouldFindTheAllocatedVehicle)
	sc.Step(`^the search should find nothing$`, c.theSearchShouldFindNothing)
}
