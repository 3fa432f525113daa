package main

import (
	"time"

	"github.com/comalice/hsi"
	"github.com/comalice/hsi/internal/actors"
	"github.com/comalice/hsi/machine"
)

// buildConfig assembles a small power-aware traffic light: "on" cycles
// red/green/yellow on TIMER, POWER_OFF parks it in "off", and POWER_ON
// resumes whichever color was showing via a shallow history child of
// "on". It exists to give every production integration (persistence,
// publishing, visualization, tracing, an invoked service) a live
// target to exercise in the run/visualize/serve subcommands below.
func buildConfig() machine.MachineConfig {
	red := machine.NewStateConfig("red", machine.Atomic).
		WithOn(map[string][]machine.TransitionConfig{
			"TIMER": {{Target: "power.on.green"}},
		})
	green := machine.NewStateConfig("green", machine.Atomic).
		WithOn(map[string][]machine.TransitionConfig{
			"TIMER": {{Target: "power.on.yellow"}},
		})
	yellow := machine.NewStateConfig("yellow", machine.Atomic).
		WithOn(map[string][]machine.TransitionConfig{
			"TIMER": {{Target: "power.on.red"}},
		})
	resume := machine.NewStateConfig("resume", machine.ShallowHistory)

	on := machine.NewStateConfig("on", machine.Compound).
		WithInitial("red").
		WithChildren([]*machine.StateConfig{red, green, yellow, resume}).
		WithOn(map[string][]machine.TransitionConfig{
			"POWER_OFF": {{Target: "power.off"}},
		})
	on.Entry = []machine.ActionRef{
		machine.LogAction("power", "on"),
		machine.StartAction("watchdog", "watchdog", nil, true),
	}
	on.Exit = []machine.ActionRef{machine.StopAction("watchdog")}

	off := machine.NewStateConfig("off", machine.Atomic).
		WithOn(map[string][]machine.TransitionConfig{
			"POWER_ON": {{Target: "power.on.resume"}},
		})
	off.Entry = []machine.ActionRef{machine.LogAction("power", "off")}

	power := machine.NewStateConfig("power", machine.Compound).
		WithInitial("on").
		WithChildren([]*machine.StateConfig{on, off})

	return machine.MachineConfig{
		ID:      "traffic-control",
		Initial: "power",
		States: map[string]*machine.StateConfig{
			"power": power,
		},
	}
}

// watchdogFactory invokes a five-second ticker for as long as "on" stays
// active, demonstrating the "start" action / hsi.FromObservable path
// with internal/actors' production-grade observable adapter.
func watchdogFactory(ctx any, ev hsi.Event, data any) (hsi.Spawnable, error) {
	return hsi.FromObservable(actors.NewTickerObservable("WATCHDOG_TICK", nil, 5*time.Second)), nil
}

func compile() (*machine.Definition, error) {
	return machine.Compile(buildConfig())
}
