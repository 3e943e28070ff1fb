package peripheral

import (
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// PinLookup finds a GPIO by name. gpioreg.ByName is the default.
type PinLookup func(name string) gpio.PinIO

// resetPin drives name low so a released data line reads as a reset gap
// rather than floating. An empty name is a no-op.
func resetPin(lookup PinLookup, name string) error {
	if name == "" {
		return nil
	}
	if lookup == nil {
		lookup = gpioreg.ByName
	}
	p := lookup(name)
	if p == nil {
		return errors.Errorf("peripheral: unknown pin %q", name)
	}
	if err := p.Out(gpio.Low); err != nil {
		return errors.Wrapf(err, "peripheral: reset pin %s", name)
	}
	return nil
}
