package sim

import (
	"errors"
	"fmt"
)

// ErrSystemDown is returned when a logon or logoff is attempted while the
// environment is locked for deployment.
var ErrSystemDown = errors.New("environment down")

// ErrNotLoggedOn is returned when logging off an identity that never logged on.
var ErrNotLoggedOn = errors.New("identity not logged on")

// Environment is the single shared deploy/test target. It has two contention
// modes that exclude each other: a hard lock (one holder, nobody else on the
// system) and a logon set (any number of concurrent users while the system is
// up). Taking the lock clears all logons.
type Environment struct {
	available bool
	logons    map[string]struct{}
}

func NewEnvironment() *Environment {
	return &Environment{
		available: true,
		logons:    make(map[string]struct{}),
	}
}

// Lock takes the environment down when on is true, dropping every logon, and
// brings it back up when on is false.
func (e *Environment) Lock(on bool) {
	e.available = !on
	if on {
		for id := range e.logons {
			delete(e.logons, id)
		}
	}
}

// Logon adds id to the logon set. Fails while the environment is down.
func (e *Environment) Logon(id string) error {
	if !e.available {
		return fmt.Errorf("logon %s: %w", id, ErrSystemDown)
	}
	e.logons[id] = struct{}{}
	return nil
}

// Logoff removes id from the logon set. Fails while the environment is down,
// and fails if id is not currently logged on: an unmatched logoff means the
// resource protocol was violated somewhere.
func (e *Environment) Logoff(id string) error {
	if !e.available {
		return fmt.Errorf("logoff %s: %w", id, ErrSystemDown)
	}
	if _, ok := e.logons[id]; !ok {
		return fmt.Errorf("logoff %s: %w", id, ErrNotLoggedOn)
	}
	delete(e.logons, id)
	return nil
}

func (e *Environment) HasLogons() bool { return len(e.logons) > 0 }

func (e *Environment) Available() bool { return e.available }
