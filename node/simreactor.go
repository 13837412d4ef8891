package node

import (
	"context"

	"collabnode/cob"
)

// SimStep is one deterministic input fed to a Service by SimReactor.
type SimStep struct {
	Kind string // "tick", "connected", "message", "disconnected", "command"
	Addr string
	Link LinkDirection
	Msg  Message
	Cmd  Command
	Now  cob.Physical
}

// SimReactor replays a fixed, deterministic script of inputs against a
// Service and records every Io instruction produced, so replaying the same
// script against two independently constructed Service instances can be
// asserted to produce byte-identical output.
type SimReactor struct {
	Steps []SimStep
}

// Run feeds every step to svc in order, draining and collecting the outbox
// after each one.
func (r *SimReactor) Run(svc *Service) []Io {
	var all []Io
	for _, step := range r.Steps {
		switch step.Kind {
		case "tick":
			svc.Tick(step.Now)
		case "connected":
			svc.Connected(step.Addr, step.Link, step.Now)
		case "message":
			svc.ReceivedMessage(step.Addr, step.Msg, step.Now)
		case "disconnected":
			svc.Disconnected(step.Addr, step.Now)
		case "command":
			svc.Command(step.Cmd, step.Now)
		}
		all = append(all, svc.Outbox().Drain()...)
	}
	return all
}

// RunReactor satisfies the Reactor interface for integration points that
// expect one, ignoring ctx and listenAddrs since the script is fixed.
func (r *SimReactor) RunReactor(ctx context.Context, listenAddrs []string, svc *Service) error {
	r.Run(svc)
	return nil
}

var _ Reactor = (*simReactorAdapter)(nil)

type simReactorAdapter struct{ *SimReactor }

func (a simReactorAdapter) Run(ctx context.Context, listenAddrs []string, svc *Service) error {
	return a.RunReactor(ctx, listenAddrs, svc)
}

// AsReactor adapts a SimReactor to the Reactor interface.
func (r *SimReactor) AsReactor() Reactor { return simReactorAdapter{r} }
