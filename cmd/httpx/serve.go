package main

import (
	"context"
	"net"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/k3nju/httpx/pkg/logger"
)

// serve accepts on addr until SIGINT or SIGTERM and runs handle for every
// connection in its own goroutine. acceptRate limits accepts per second,
// 0 means unlimited.
func serve(addr string, acceptRate float64, handle func(c net.Conn)) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(err, "listen")
	}
	logger.Infow("listening", "addr", l.Addr().String())

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		l.Close()
	}()

	var lim *rate.Limiter
	if acceptRate > 0 {
		burst := int(acceptRate)
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(acceptRate), burst)
	}

	for {
		if lim != nil {
			if err := lim.Wait(ctx); err != nil {
				return nil
			}
		}

		c, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warnw("accept failed", "error", err)
			continue
		}
		logger.Debugw("accepted", "remote", c.RemoteAddr().String())

		go handle(c)
	}
}
