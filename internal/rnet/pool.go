// Package rnet demonstrates retrying a pooled network operation: a
// connection is checked out of a netpool.Netpool, the operation runs
// against it, and the connection is returned to the pool (marked bad on
// failure so the pool discards rather than recycles it) whether or not
// the retry engine decides to try again.
package rnet

import (
	"context"
	"net"

	"github.com/yudhasubki/netpool"

	"github.com/relaypoint/retry"
)

// Pool wraps a netpool.Netpool with a Template so callers get automatic
// retry of pooled-connection operations without reimplementing the
// get/use/put dance around every call.
type Pool struct {
	net      *netpool.Netpool
	Template *retry.Template
}

// New builds a Pool whose connections are created by dial.
func New(dial func() (net.Conn, error), tmpl *retry.Template) (*Pool, error) {
	np, err := netpool.New(dial)
	if err != nil {
		return nil, err
	}
	return &Pool{net: np, Template: tmpl}, nil
}

// Close releases every pooled connection.
func (p *Pool) Close() error {
	p.net.Close()
	return nil
}

// Do checks a connection out of the pool, retries fn against it under
// p.Template, and returns the connection to the pool — bad if fn's
// final attempt failed, so the pool discards rather than reuses it.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context, conn net.Conn) error) error {
	conn, err := p.net.Get()
	if err != nil {
		return err
	}

	opErr := p.Template.Execute(ctx, func(ctx context.Context, rc *retry.RetryContext) error {
		return fn(ctx, conn)
	})

	p.net.Put(conn, opErr)
	return opErr
}
