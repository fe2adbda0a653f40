// cliclient is a CLI client for the Mandelbrot render server.
// It requests a region from the server over irpc or the streaming websocket endpoint
// (or renders it in-process with --local), places the returned pixels on an image
// and saves it as a PNG file.

package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"net"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/marben/irpc"
	"github.com/spf13/cobra"

	mandel "github.com/marben/simd_mandel"
	"github.com/marben/simd_mandel/palette"
)

// batchReadLimit bounds one PixelBatch message from the server.
const batchReadLimit = 32 << 20

const (
	transportIrpc = "irpc"
	transportWS   = "ws"
)

type options struct {
	transport string
	irpcAddr  string
	server    string
	preset    string
	width     int
	height    int
	maxIter   uint64
	strategy  string
	policy    string
	palette   string
	out       string
	local     bool
	timeout   time.Duration
}

// main is the entry point for the CLI client.
// It runs the client logic and logs any fatal errors.
func main() {
	log.Printf("Starting CLI client...")
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:          "cliclient",
		Short:        "Render a Mandelbrot region to a PNG file",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.transport, "transport", transportIrpc, "how to reach the server: irpc (tcp) or ws (streaming websocket)")
	f.StringVar(&opts.irpcAddr, "irpc-addr", "localhost:8081", "render server irpc tcp address")
	f.StringVar(&opts.server, "server", "ws://localhost:8080/ws", "render server websocket url")
	f.StringVar(&opts.preset, "preset", "overview", "landmark region to render")
	f.IntVar(&opts.width, "width", 0, "image width in pixels (0 keeps the preset's)")
	f.IntVar(&opts.height, "height", 0, "image height in pixels (0 keeps the preset's)")
	f.Uint64Var(&opts.maxIter, "max-iter", 0, "iteration cap (0 keeps the preset's)")
	f.StringVar(&opts.strategy, "strategy", string(mandel.VectorParallel), "evaluation strategy: scalar, parallel, vector or vector_parallel")
	f.StringVar(&opts.policy, "policy", "smooth", "colour policy: histogram or smooth")
	f.StringVar(&opts.palette, "palette", "default", "palette for the smooth policy")
	f.StringVar(&opts.out, "out", "mandel.png", "output file")
	f.BoolVar(&opts.local, "local", false, "render in-process instead of asking the server")
	f.DurationVar(&opts.timeout, "timeout", 5*time.Minute, "give up on the server after this long")
	return cmd
}

// buildRequest resolves the preset and the overrides into a render request.
func buildRequest(opts options) (mandel.RenderRequest, error) {
	region, err := mandel.Landmark(opts.preset)
	if err != nil {
		return mandel.RenderRequest{}, err
	}
	if opts.width > 0 {
		region.Width = opts.width
	}
	if opts.height > 0 {
		region.Height = opts.height
	}
	if opts.maxIter > 0 {
		region.MaxIterations = opts.maxIter
	}
	strategy, err := mandel.ParseStrategy(opts.strategy)
	if err != nil {
		return mandel.RenderRequest{}, err
	}
	return mandel.RenderRequest{
		Region:   region,
		Strategy: strategy,
		Policy:   opts.policy,
		Palette:  opts.palette,
	}, nil
}

// run builds the request, obtains the pixels and saves them as a PNG file.
func run(ctx context.Context, opts options) error {
	req, err := buildRequest(opts)
	if err != nil {
		return fmt.Errorf("buildRequest: %w", err)
	}

	start := time.Now()
	var pixels []mandel.Pixel
	if opts.local {
		log.Printf("Rendering %dx%d locally with %s...", req.Region.Width, req.Region.Height, req.Strategy)
		pixels, err = renderLocal(req)
	} else {
		ctx, cancel := context.WithTimeout(ctx, opts.timeout)
		defer cancel()
		switch opts.transport {
		case transportIrpc:
			log.Printf("Requesting %dx%d render from %s...", req.Region.Width, req.Region.Height, opts.irpcAddr)
			pixels, err = renderIrpc(ctx, opts.irpcAddr, req)
		case transportWS:
			log.Printf("Requesting %dx%d render from %s...", req.Region.Width, req.Region.Height, opts.server)
			pixels, err = renderRemote(ctx, opts.server, req)
		default:
			err = fmt.Errorf("unknown transport %q: %w", opts.transport, mandel.ErrInvalidParameter)
		}
	}
	if err != nil {
		return err
	}
	log.Printf("Got %d pixels in %s", len(pixels), time.Since(start))

	img := placePixels(req.Region, pixels)

	log.Printf("Saving rendered image to %q...", opts.out)
	f, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	log.Printf("Fully rendered image saved to %q", opts.out)
	return nil
}

func renderLocal(req mandel.RenderRequest) ([]mandel.Pixel, error) {
	var pal mandel.Palette
	if req.Policy != "histogram" {
		p, err := palette.Named(req.Palette)
		if err != nil {
			return nil, err
		}
		pal = p
	}
	policy, err := mandel.ParsePolicy(req.Policy, pal)
	if err != nil {
		return nil, err
	}
	results, err := mandel.Evaluate(req.Region, req.Strategy)
	if err != nil {
		return nil, fmt.Errorf("mandel.Evaluate: %w", err)
	}
	return mandel.Colour(req.Region, results, policy)
}

// renderIrpc asks the server's Renderer service for the whole render at once.
func renderIrpc(ctx context.Context, addr string, req mandel.RenderRequest) ([]mandel.Pixel, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	ep := irpc.NewEndpoint(conn)
	defer ep.Close()

	client, err := mandel.NewRendererIrpcClient(ep)
	if err != nil {
		return nil, err
	}
	pixels, err := client.Render(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("client.Render: %w", err)
	}
	return pixels, nil
}

// renderRemote streams the render from the server's websocket endpoint.
func renderRemote(ctx context.Context, server string, req mandel.RenderRequest) ([]mandel.Pixel, error) {
	c, _, err := websocket.Dial(ctx, server, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer c.CloseNow()
	c.SetReadLimit(batchReadLimit)

	pixels, err := fetchPixels(ctx, c, req)
	if err != nil {
		return nil, err
	}
	c.Close(websocket.StatusNormalClosure, "")
	return pixels, nil
}

// fetchPixels sends one render request over c and collects batches until the last one.
func fetchPixels(ctx context.Context, c *websocket.Conn, req mandel.RenderRequest) ([]mandel.Pixel, error) {
	if err := wsjson.Write(ctx, c, req); err != nil {
		return nil, fmt.Errorf("wsjson.Write: %w", err)
	}

	var pixels []mandel.Pixel
	for {
		var batch mandel.PixelBatch
		if err := wsjson.Read(ctx, c, &batch); err != nil {
			return nil, fmt.Errorf("wsjson.Read: %w", err)
		}
		if batch.Error != "" {
			return nil, fmt.Errorf("server: %s", batch.Error)
		}
		if pixels == nil {
			pixels = make([]mandel.Pixel, 0, batch.Total)
		}
		pixels = append(pixels, batch.Pixels...)
		if batch.Done {
			return pixels, nil
		}
	}
}

// placePixels draws every pixel that falls on the image grid.
func placePixels(r mandel.Region, pixels []mandel.Pixel) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	for _, px := range pixels {
		if px.X >= uint64(r.Width) || px.Y >= uint64(r.Height) {
			continue
		}
		img.SetRGBA(int(px.X), int(px.Y), color.RGBA{R: px.R, G: px.G, B: px.B, A: 255})
	}
	return img
}
