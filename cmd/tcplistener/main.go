// Command tcplistener prints how each raw request on a port would be parsed,
// without serving anything.
package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/nhdewitt/fileserver-from-tcp/internal/headers"
	"github.com/nhdewitt/fileserver-from-tcp/internal/request"
)

const port = ":42069"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	listener, err := net.Listen("tcp", port)
	if err != nil {
		logger.Error("error listening", "error", err)
		os.Exit(1)
	}
	defer listener.Close()

	fmt.Println("Listening for TCP traffic on", port)
	for {
		c, err := listener.Accept()
		if err != nil {
			logger.Error("error accepting connection", "error", err)
			continue
		}
		logger.Info("connection accepted", "remote", c.RemoteAddr())
		inspect(c)
		c.Close()
		fmt.Println("Connection to", c.RemoteAddr(), "closed")
	}
}

func inspect(c net.Conn) {
	raw, err := request.ReadRaw(c)
	if err != nil {
		fmt.Printf("read error: %v\n", err)
		return
	}

	req, err := request.Parse(raw)
	if err != nil {
		fmt.Printf("Rejected (400): %v\n", err)
	} else {
		fmt.Println("Request line:")
		fmt.Printf("- Method: %s\n", req.RequestLine.Method)
		fmt.Printf("- Target: %s\n", req.RequestLine.RequestTarget)
		fmt.Printf("- Version: %s\n", req.RequestLine.HttpVersion)
		fmt.Printf("- Path: %s\n", req.Path)
	}

	// Headers are ignored by the server; show them anyway.
	idx := bytes.Index(raw, []byte("\r\n"))
	if idx == -1 {
		return
	}
	h := headers.NewHeaders()
	data := raw[idx+2:]
	for len(data) > 0 {
		n, done, err := h.Parse(data)
		if err != nil {
			fmt.Printf("header error: %v\n", err)
			break
		}
		if n == 0 || done {
			break
		}
		data = data[n:]
	}
	if h.Len() == 0 {
		return
	}
	fmt.Println("Headers:")
	for _, k := range h.Keys() {
		fmt.Printf("- %s: %s\n", k, h.Get(k))
	}
}
