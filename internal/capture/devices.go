package capture

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Device describes an input-capable device.
type Device struct {
	ID                int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	DefaultSampleRate float64
	Default           bool
}

// Devices lists the devices that can capture, with IDs usable as
// Options.DeviceID.
func Devices() ([]Device, error) {
	all, err := paDevicesFunc()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	def, _ := paDefaultInputFunc()

	var out []Device
	for id, d := range all {
		if d.MaxInputChannels <= 0 {
			continue
		}
		dev := Device{
			ID:                id,
			Name:              d.Name,
			MaxInputChannels:  d.MaxInputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
			Default:           def != nil && d.Name == def.Name,
		}
		if d.HostApi != nil {
			dev.HostAPI = d.HostApi.Name
		}
		out = append(out, dev)
	}
	return out, nil
}

func inputDevice(id int) (*portaudio.DeviceInfo, error) {
	if id == DefaultDevice {
		d, err := paDefaultInputFunc()
		if err != nil {
			return nil, fmt.Errorf("%w: no default input: %v", ErrInvalidDevice, err)
		}
		return d, nil
	}
	all, err := paDevicesFunc()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	if id < 0 || id >= len(all) {
		return nil, fmt.Errorf("%w: id %d", ErrInvalidDevice, id)
	}
	return all[id], nil
}
