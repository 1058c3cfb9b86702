package main

import (
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/k3nju/httpx"
	"github.com/k3nju/httpx/pkg/logger"
)

const storageRequestID = "request-id"

func newProxyCmd(o *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Run a forwarding HTTP proxy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				o.cfg.Proxy.Listen = listen
			}

			return serve(o.cfg.Proxy.Listen, o.cfg.Proxy.AcceptRate, handleProxy)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (overrides proxy.listen)")

	return cmd
}

type serverConn struct {
	*httpx.BufConn
	daddr string
}

func handleProxy(c net.Conn) {
	cc := httpx.NewBufConn(c)
	var sc *serverConn
	var req *httpx.Request
	var res *httpx.Response

	defer func() {
		logger.Debugw("exiting handle", "remote", c.RemoteAddr().String())
		closeBodies(req, res)
		cc.Close()
		if sc != nil {
			sc.Close()
		}
	}()

	for {
		closeBodies(req, res)
		req, res = nil, nil

		var err error
		req, err = httpx.ReadRequest(cc)
		if err != nil {
			if err != io.EOF {
				logger.Warnw("reading request failed", "remote", c.RemoteAddr().String(), "error", err)
				replyError(cc, 400, err)
			}
			return
		}
		req.Storage.Set(storageRequestID, uuid.New())
		req.Storage.Set("remote", c.RemoteAddr().String())

		if req.Method == "CONNECT" {
			tunnel(cc, req)
			return
		}

		daddr, rt, err := parseRequestTarget(req.RequestTarget)
		if err != nil {
			logger.Warnw("bad request target", "target", req.RequestTarget, "error", err)
			replyError(cc, 400, err)
			return
		}
		req.RequestTarget = rt
		logger.Infow("request", "method", req.Method, "host", daddr, "target", rt,
			storageRequestID, storageValue(req.Storage, storageRequestID))
		logger.Debug(req.StorageDescription())

		if sc != nil && sc.daddr != daddr {
			logger.Debugw("switching upstream", "from", sc.daddr, "to", daddr)
			sc.Close()
			sc = nil
		}
		if sc == nil {
			sc, err = connect(daddr)
			if err != nil {
				logger.Warnw("connecting upstream failed", "host", daddr, "error", err)
				replyError(cc, 502, err)
				return
			}
		}

		if _, err := req.WriteTo(sc); err != nil {
			logger.Warnw("writing request failed", "host", daddr, "error", err)
			return
		}

		res, err = httpx.ReadResponse(sc.BufConn, req)
		if err != nil {
			logger.Warnw("reading response failed", "host", daddr, "error", err)
			replyError(cc, 502, err)
			return
		}
		res.Storage.Set(storageRequestID, storageValue(req.Storage, storageRequestID))

		if _, err := res.WriteTo(cc); err != nil {
			logger.Warnw("writing response failed", "remote", c.RemoteAddr().String(), "error", err)
			return
		}
		logger.Infow("response", "status", res.StatusCode,
			storageRequestID, storageValue(res.Storage, storageRequestID))

		if !res.IsKeepAlive() {
			logger.Debug("server side is not persistent connection. closing")
			sc.Close()
			sc = nil
		}
		if !req.IsKeepAlive() {
			logger.Debug("client side is not persistent. closing")
			return
		}
	}
}

// closeBodies releases bodies left unread when a relay stops early.
func closeBodies(req *httpx.Request, res *httpx.Response) {
	if req != nil {
		req.CloseBody()
	}
	if res != nil {
		res.CloseBody()
	}
}

func storageValue(s *httpx.Storage, key string) interface{} {
	v, _ := s.Get(key)
	return v
}

func replyError(w io.Writer, code uint, cause error) {
	res := httpx.NewStatusCode(code, cause.Error()+"\n").Response(httpx.HTTP11)
	if _, err := res.WriteTo(w); err != nil {
		logger.Debugw("writing error response failed", "error", err)
	}
}

func connect(daddr string) (*serverConn, error) {
	s, err := net.Dial("tcp", daddr)
	if err != nil {
		return nil, err
	}

	return &serverConn{
		BufConn: httpx.NewBufConn(s),
		daddr:   daddr,
	}, nil
}

// parseRequestTarget splits an absolute-form target into the upstream
// host:port and the origin-form target sent upstream.
func parseRequestTarget(rt string) (string, string, error) {
	u, err := url.ParseRequestURI(rt)
	if err != nil {
		return "", "", err
	}
	if u.Host == "" {
		return "", "", errors.Errorf("request target %q is not absolute", rt)
	}

	host := u.Host
	if !hasPort(host) {
		host = host + ":80"
	}

	return host, u.RequestURI(), nil
}

func hasPort(host string) bool {
	i := strings.LastIndex(host, ":")
	if i < 0 {
		return false
	}
	if _, err := strconv.ParseUint(host[i+1:], 10, 16); err != nil {
		return false
	}
	return true
}
