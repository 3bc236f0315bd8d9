package relay

import (
	"context"
	"log/slog"
	"sync"

	"gobot.io/x/gobot/v2/drivers/gpio"
	"gobot.io/x/gobot/v2/platforms/raspi"

	"github.com/JoeyEinTX/aquamind/internal/errors"
	"github.com/JoeyEinTX/aquamind/internal/logfields"
)

// zoneRelay is the slice of the gobot relay driver the GPIO variant needs,
// narrowed so tests can substitute a fake.
type zoneRelay interface {
	On() error
	Off() error
}

// GPIO drives zone relays through Raspberry Pi output pins via gobot.
// A pin that fails to initialize leaves only that zone uncontrollable;
// startup continues for the remaining zones.
type GPIO struct {
	mu     sync.Mutex
	relays map[int]zoneRelay
	on     map[int]bool
}

// NewGPIO connects the Raspberry Pi adaptor and prepares one relay driver
// per configured zone pin. An adaptor-level failure is returned so the
// factory can degrade to the simulated driver.
func NewGPIO(pins map[int]string) (*GPIO, error) {
	adaptor := raspi.NewAdaptor()
	if err := adaptor.Connect(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryHardware, errors.SeverityError, "gpio adaptor unavailable")
	}

	g := &GPIO{
		relays: make(map[int]zoneRelay, len(pins)),
		on:     make(map[int]bool, len(pins)),
	}

	for zoneID, pin := range pins {
		driver := gpio.NewRelayDriver(adaptor, pin)
		if err := driver.Start(); err != nil {
			// That zone stays uncontrollable; the rest keep working.
			slog.Error("Failed to initialize relay pin, zone left uncontrollable",
				logfields.ZoneID(zoneID),
				slog.String("pin", pin),
				logfields.Error(err))
			continue
		}
		// Relays are wired normally-open; make sure nothing is energized at startup.
		if err := driver.Off(); err != nil {
			slog.Warn("Failed to reset relay at startup",
				logfields.ZoneID(zoneID),
				logfields.Error(err))
		}
		g.relays[zoneID] = driver
	}

	return g, nil
}

func (g *GPIO) Activate(_ context.Context, zoneID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	relay, ok := g.relays[zoneID]
	if !ok {
		return errors.New(errors.CategoryHardware, errors.SeverityError, "zone has no controllable output").
			WithContext("zone_id", zoneID)
	}
	if err := relay.On(); err != nil {
		return errors.RelayActivateError(zoneID, err)
	}
	g.on[zoneID] = true
	return nil
}

func (g *GPIO) Deactivate(_ context.Context, zoneID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	relay, ok := g.relays[zoneID]
	if !ok {
		return errors.New(errors.CategoryHardware, errors.SeverityError, "zone has no controllable output").
			WithContext("zone_id", zoneID)
	}
	if err := relay.Off(); err != nil {
		return errors.RelayDeactivateError(zoneID, err)
	}
	g.on[zoneID] = false
	return nil
}

func (g *GPIO) IsActive(zoneID int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.on[zoneID]
}

func (g *GPIO) Name() string { return "gpio" }
