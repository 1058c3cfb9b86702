package main

import (
	"net"
	"sync"

	"github.com/spf13/cobra"

	"github.com/k3nju/httpx"
	"github.com/k3nju/httpx/pkg/logger"
)

func newTunnelCmd(o *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "tunnel",
		Short: "Run a CONNECT tunnel for HTTPS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				o.cfg.Tunnel.Listen = listen
			}

			return serve(o.cfg.Tunnel.Listen, o.cfg.Proxy.AcceptRate, handleTunnel)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (overrides tunnel.listen)")

	return cmd
}

func handleTunnel(c net.Conn) {
	cc := httpx.NewBufConn(c)
	defer cc.Close()

	req, err := httpx.ReadRequest(cc)
	if err != nil {
		logger.Warnw("reading request failed", "remote", c.RemoteAddr().String(), "error", err)
		replyError(cc, 400, err)
		return
	}
	if req.Method != "CONNECT" {
		replyError(cc, 400, httpx.NewError("only CONNECT is served"))
		return
	}

	tunnel(cc, req)
}

// tunnel answers a CONNECT request and relays bytes both ways until either
// side closes. cc is closed by the caller.
func tunnel(cc *httpx.BufConn, req *httpx.Request) {
	logger.Infow("tunnel", "target", req.RequestTarget, "version", req.Version.String())

	s, err := net.Dial("tcp", req.RequestTarget)
	if err != nil {
		logger.Warnw("net.Dial() failed", "target", req.RequestTarget, "error", err)
		replyError(cc, 502, err)
		return
	}
	sc := httpx.NewBufConn(s)
	defer sc.Close()

	res := httpx.NewResponse(req.Version, &httpx.StatusCode{
		StatusCode:   200,
		ReasonPhrase: "Connection established",
	})
	if _, err := res.WriteTo(cc); err != nil {
		logger.Warnw("Write() failed", "error", err)
		return
	}

	//
	// here, become a tunneling mode
	//
	var wg sync.WaitGroup
	wg.Add(2)
	go transport("client to server", cc, sc, &wg)
	go transport("server to client", sc, cc, &wg)
	wg.Wait()
}

func transport(dir string, src, dst *httpx.BufConn, wg *sync.WaitGroup) {
	defer wg.Done()

	buf := make([]byte, httpx.DefaultBodyBlockSize)
	for {
		rn, err := src.Read(buf)
		if rn > 0 {
			if _, werr := dst.Write(buf[:rn]); werr != nil {
				logger.Debugw("Write() failed", "dir", dir, "error", werr)
				break
			}
		}
		if err != nil {
			logger.Debugw("Read() finished", "dir", dir, "error", err)
			break
		}
	}

	if c, ok := dst.C.(interface{ CloseWrite() error }); ok {
		c.CloseWrite()
	}
}
