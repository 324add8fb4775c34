package server

import (
	"context"
	"net"
	"sync"

	"github.com/lineframe/respd/internal/logging"
	"github.com/lineframe/respd/internal/resp"
	"github.com/lineframe/respd/internal/store"
)

// Listen opens a TCP listener on addr and serves connections against
// st until ctx is cancelled. It blocks until every in-flight
// connection's Serve loop has returned.
func Listen(ctx context.Context, addr string, st *store.Store, log *logging.Logger, limits resp.Limits) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Info("listening on %s", addr)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	for {
		nc, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				log.Info("listener on %s closed", addr)
			default:
				log.Warn("accept error on %s: %v", addr, err)
			}
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("accepted connection from %s", nc.RemoteAddr())
			conn := NewConn(nc, st, log, limits)
			conn.Serve()
			log.Info("closed connection from %s", nc.RemoteAddr())
		}()
	}

	wg.Wait()
	return nil
}
