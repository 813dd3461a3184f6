/*
Package resilience provides a circuit breaker for connections that may be
absent for long stretches.

# Overview

The portal adapter dials the session bus lazily. When no bus or no portal
service is present, every user action would otherwise pay for a fresh dial.
The breaker remembers the failure and answers ErrCircuitOpen until the
cooldown passes, then lets one trial attempt through.

# Usage

	breaker := resilience.New("session-bus", resilience.Settings{
		Threshold: 1,
		Cooldown:  30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Info("Breaker state changed", zap.String("name", name),
				zap.Stringer("from", from), zap.Stringer("to", to))
		},
	})

	err := breaker.Do(func() error {
		bus, err = dial()
		return err
	})

# States

	Closed --[Threshold failures]-> Open --[Cooldown]-> Half-Open --[success]-> Closed
	                                  ^                     |
	                                  +------[failure]------+
*/
package resilience
