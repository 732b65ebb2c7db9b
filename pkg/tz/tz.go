package tz

import (
	"fmt"
	"time"
)

// DefaultZone is used when no zone is configured.
const DefaultZone = "Europe/Berlin"

// Load resolves an IANA zone name, defaulting to DefaultZone when empty.
func Load(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("tz: load %s: %w", name, err)
	}
	return loc, nil
}

// MustLoad is Load for values validated at startup.
func MustLoad(name string) *time.Location {
	loc, err := Load(name)
	if err != nil {
		panic(err.Error())
	}
	return loc
}
