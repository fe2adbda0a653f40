// Command server renders Mandelbrot regions for remote clients.
// irpc clients connect over tcp or the /irpc websocket endpoint and get whole renders.
// Websocket clients on /ws send a render request and receive the coloured pixels in batches.
package main

import (
	"context"
	"fmt"
	"log"
	"net"

	"github.com/marben/irpc"
	"github.com/spf13/cobra"

	mandel "github.com/marben/simd_mandel"
)

const (
	defaultAddr      = ":8080"
	defaultTCPAddr   = ":8081"
	defaultCacheSize = 32
	defaultBatchSize = 4096
	// defaultMaxPixels admits a 4096 x 4096 render
	defaultMaxPixels = 1 << 24
)

type options struct {
	addr      string
	tcpAddr   string
	cacheSize int
	batchSize int
	maxPixels int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:          "server",
		Short:        "Serve Mandelbrot renders over irpc and websocket",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", defaultAddr, "http listen address for the /ws and /irpc websocket endpoints")
	f.StringVar(&opts.tcpAddr, "tcp-addr", defaultTCPAddr, "irpc tcp listen address")
	f.IntVar(&opts.cacheSize, "cache-size", defaultCacheSize, "number of finished renders kept in memory")
	f.IntVar(&opts.batchSize, "batch", defaultBatchSize, "pixels per websocket message")
	f.IntVar(&opts.maxPixels, "max-pixels", defaultMaxPixels, "largest region in pixels the server renders")
	return cmd
}

func run(opts options) error {
	rs, err := newRenderScheduler(opts.cacheSize, opts.batchSize, opts.maxPixels)
	if err != nil {
		return fmt.Errorf("newRenderScheduler: %w", err)
	}

	// rendererIrpcService provides mandel.Renderer over network, backed by the same
	// scheduler and cache as the streaming websocket sessions
	irpcServer := irpc.NewServer(irpc.WithOnConnect(func(ep *irpc.Endpoint) {
		log.Printf("got connection from: %s", ep.RemoteAddr())
	}))
	irpcServer.AddService(mandel.NewRendererIrpcService(rs))

	// TCP
	log.Printf("tcp listening on %s", opts.tcpAddr)
	tcpListener, err := net.Listen("tcp", opts.tcpAddr)
	if err != nil {
		return fmt.Errorf("net.Listen: %w", err)
	}

	// WEBSOCKET
	websocketListener, httpServer := webServer(context.Background(), opts.addr, rs)

	errCh := make(chan error, 3)
	go func() {
		log.Printf("listening on ws://localhost%s/ws and ws://localhost%s/irpc", opts.addr, opts.addr)
		errCh <- fmt.Errorf("httpServer: %w", httpServer.ListenAndServe())
	}()
	// irpcServer serves both the tcp and the websocket listener
	go func() {
		errCh <- fmt.Errorf("server.Serve tcp: %w", irpcServer.Serve(tcpListener))
	}()
	go func() {
		errCh <- fmt.Errorf("server.Serve ws: %w", irpcServer.Serve(websocketListener))
	}()

	log.Printf("mb server waiting for tcp and websocket connections")
	err = <-errCh
	irpcServer.Close()
	httpServer.Close()
	return err
}
