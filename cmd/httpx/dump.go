package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/k3nju/httpx"
)

type dumpOptions struct {
	response bool
	method   string
}

func newDumpCmd(o *rootOptions) *cobra.Command {
	d := &dumpOptions{}

	cmd := &cobra.Command{
		Use:   "dump [file]",
		Short: "Parse a raw HTTP message and print its derived fields",
		Long: "dump reads one raw HTTP/1.x request (or response with --response) from\n" +
			"file, or stdin when file is omitted or \"-\", buffers its body and prints\n" +
			"the fields derived from its headers.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := "-"
			if len(args) == 1 {
				src = args[0]
			}

			var in io.Reader = cmd.InOrStdin()
			if src != "-" {
				f, err := os.Open(src)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			return d.run(cmd.OutOrStdout(), httpx.NewBufferedReader(in), src, o.cfg.Body.MaxBufferSize)
		},
	}
	cmd.Flags().BoolVarP(&d.response, "response", "r", false, "input is a response")
	cmd.Flags().StringVarP(&d.method, "method", "m", "GET", "method of the request a response answers")

	return cmd
}

func (d *dumpOptions) run(w io.Writer, r httpx.Reader, src string, limit int64) error {
	var (
		head []byte
		msg  *httpx.Message
	)

	if d.response {
		res, err := httpx.ReadResponse(r, httpx.NewRequest(strings.ToUpper(d.method), "/"))
		if err != nil {
			return err
		}
		head, msg = res.Head(), &res.Message
	} else {
		req, err := httpx.ReadRequest(r)
		if err != nil {
			return err
		}
		head, msg = req.Head(), &req.Message
	}

	msg.BufferLimit = limit
	msg.Storage.Set("id", uuid.New())
	msg.Storage.Set("source", src)

	kind := msg.Body.Kind()
	body, err := msg.Buffer()
	if err != nil {
		return err
	}

	io.WriteString(w, string(head))
	fmt.Fprintf(w, "content-type: %s\n", optional(msg.ContentType()))
	if n, ok := msg.ContentLength(); ok {
		fmt.Fprintf(w, "content-length: %d\n", n)
	} else {
		fmt.Fprintf(w, "content-length: -\n")
	}
	fmt.Fprintf(w, "transfer-encoding: %s\n", list(msg.TransferEncoding()))
	fmt.Fprintf(w, "chunked: %t\n", msg.IsChunkEncoded())
	fmt.Fprintf(w, "connection: %s\n", list(msg.Connection()))
	fmt.Fprintf(w, "keep-alive: %t\n", msg.IsKeepAlive())
	fmt.Fprintf(w, "upgrade: %s\n", list(msg.Upgrade()))
	fmt.Fprintf(w, "is-upgrade: %t\n", msg.IsUpgrade())
	fmt.Fprintf(w, "body: %d bytes (%s)\n", len(body), kind)
	fmt.Fprintf(w, "%s\n", msg.StorageDescription())

	return nil
}

func optional(mt *httpx.MediaType) string {
	if mt == nil {
		return "-"
	}
	return mt.String()
}

func list(vs []string) string {
	if len(vs) == 0 {
		return "-"
	}
	return strings.Join(vs, " | ")
}
