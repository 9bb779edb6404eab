package runtime

import (
	"context"

	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/ports"
	"github.com/aretw0/prism/pkg/registry"
	"go.trai.ch/zerr"
)

// Endpoint addresses a port by registry, scope and name. It is resolved on every
// cycle so that links survive retyping.
type Endpoint struct {
	Registry *registry.Registry
	Scope    domain.Scope
	Name     string
}

func (p Endpoint) channel() ports.Channel {
	if p.Registry == nil {
		return nil
	}
	return p.Registry.Channel(p.Scope, p.Name)
}

// Link copies every slice of one port into another, like a patch cord between nodes.
// The destination is marked connected while the link is evaluated.
type Link struct {
	From Endpoint
	To   Endpoint
}

// Evaluate implements ports.Node.
// A missing endpoint leaves the destination untouched.
func (l *Link) Evaluate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	from, to := l.From.channel(), l.To.channel()
	if from == nil || to == nil {
		return nil
	}
	if c, ok := to.(ports.Connector); ok {
		c.SetConnected(true)
	}

	n := from.Len()
	to.SetLen(n)
	for i := range n {
		if err := to.Set(i, from.Get(i)); err != nil {
			return zerr.With(zerr.With(err, "from", l.From.Name), "to", l.To.Name)
		}
	}
	return nil
}
