package config

import "sort"

// DeviceProfile describes an emulated device. Mirrors the descriptor shape
// the upstream driver ships for its built-in device registry.
type DeviceProfile struct {
	UserAgent         string
	Viewport          Viewport
	DeviceScaleFactor float64
	IsMobile          bool
	HasTouch          bool
}

// deviceProfiles is the built-in device table. Names follow the upstream
// driver's registry so clients can use familiar identifiers.
var deviceProfiles = map[string]DeviceProfile{
	"Desktop Chrome": {
		UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Viewport:          Viewport{Width: 1280, Height: 720},
		DeviceScaleFactor: 1,
	},
	"Desktop Firefox": {
		UserAgent:         "Mozilla/5.0 (X11; Linux x86_64; rv:133.0) Gecko/20100101 Firefox/133.0",
		Viewport:          Viewport{Width: 1280, Height: 720},
		DeviceScaleFactor: 1,
	},
	"iPhone 13": {
		UserAgent:         "Mozilla/5.0 (iPhone; CPU iPhone OS 15_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.0 Mobile/15E148 Safari/604.1",
		Viewport:          Viewport{Width: 390, Height: 664},
		DeviceScaleFactor: 3,
		IsMobile:          true,
		HasTouch:          true,
	},
	"iPhone 15": {
		UserAgent:         "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
		Viewport:          Viewport{Width: 393, Height: 659},
		DeviceScaleFactor: 3,
		IsMobile:          true,
		HasTouch:          true,
	},
	"iPad Mini": {
		UserAgent:         "Mozilla/5.0 (iPad; CPU OS 15_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.0 Mobile/15E148 Safari/604.1",
		Viewport:          Viewport{Width: 768, Height: 1024},
		DeviceScaleFactor: 2,
		IsMobile:          true,
		HasTouch:          true,
	},
	"Pixel 7": {
		UserAgent:         "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Mobile Safari/537.36",
		Viewport:          Viewport{Width: 412, Height: 839},
		DeviceScaleFactor: 2.625,
		IsMobile:          true,
		HasTouch:          true,
	},
	"Galaxy S23": {
		UserAgent:         "Mozilla/5.0 (Linux; Android 13; SM-S911B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Mobile Safari/537.36",
		Viewport:          Viewport{Width: 360, Height: 780},
		DeviceScaleFactor: 3,
		IsMobile:          true,
		HasTouch:          true,
	},
}

// LookupDevice returns the profile for a device name.
func LookupDevice(name string) (DeviceProfile, bool) {
	p, ok := deviceProfiles[name]
	return p, ok
}

// DeviceNames returns the known device names sorted alphabetically.
func DeviceNames() []string {
	names := make([]string, 0, len(deviceProfiles))
	for name := range deviceProfiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
