package batch

import (
	"time"

	"grist/internal/logging"
)

// reschedule constructs generation N+1 and hands it to the host's async
// scheduling primitive. The successor gets a fresh processor from the
// factory registry and the freshly adapted scope; delay and scope clamp to
// a minimum of 1 regardless of what earlier mutation produced.
func (g *Generation) reschedule() {
	if g.deps.Scheduler == nil {
		g.logger.Warn("no scheduler configured, chain ends here")
		return
	}

	factory := lookupFactory(g.deps.Registry, g.def.Name())
	if factory == nil {
		g.logger.Error("no factory registered for job, chain ends here",
			logging.String(logging.FieldEventType, "reschedule_factory_missing"),
			logging.String(logging.FieldErrorHint, "register the job before starting its chain"),
		)
		return
	}

	nextScope := AdaptScope(g.hadExhaustion, g.scope, g.def.ScopeSize())
	next := g.successor(factory(), nextScope)

	delayTicks := clampMin(g.def.DelayBeforeNextRun(), 1)
	delay := time.Duration(delayTicks) * time.Second

	if g.hadExhaustion && nextScope < g.scope {
		g.logger.Warn("shrinking scope after exhaustion",
			logging.Int("from", g.scope),
			logging.Int("to", nextScope),
		)
	} else if nextScope > g.scope {
		g.logger.Info("restoring baseline scope",
			logging.Int("from", g.scope),
			logging.Int("to", nextScope),
		)
	}

	g.deps.Scheduler.Schedule(next, g.def.ScheduledName(next.proc), delay, next.ScopeSize())
}

func lookupFactory(reg *Registry, name string) Factory {
	if reg == nil {
		return nil
	}
	return reg.Lookup(name)
}
