package main

import (
	"context"
	"errors"
	"image/color"
	"image/png"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/marben/irpc"

	mandel "github.com/marben/simd_mandel"
)

func TestBuildRequest(t *testing.T) {
	req, err := buildRequest(options{preset: "seahorse", width: 64, maxIter: 77, strategy: "vector", policy: "smooth", palette: "rainbow"})
	if err != nil {
		t.Fatal(err)
	}
	want := mandel.SeahorseValley
	want.Width = 64
	want.MaxIterations = 77
	if req.Region != want {
		t.Errorf("Region = %+v, want %+v", req.Region, want)
	}
	if req.Strategy != mandel.Vector || req.Policy != "smooth" || req.Palette != "rainbow" {
		t.Errorf("got %+v", req)
	}

	if _, err := buildRequest(options{preset: "atlantis", strategy: "vector"}); !errors.Is(err, mandel.ErrInvalidParameter) {
		t.Errorf("unknown preset: %v", err)
	}
	if _, err := buildRequest(options{preset: "overview", strategy: "gpu"}); !errors.Is(err, mandel.ErrInvalidParameter) {
		t.Errorf("unknown strategy: %v", err)
	}
}

func TestPlacePixels(t *testing.T) {
	r := mandel.Region{ReMin: -1, ReMax: 1, ImMin: -1, ImMax: 1, Width: 3, Height: 2, MaxIterations: 1}
	img := placePixels(r, []mandel.Pixel{
		{X: 2, Y: 1, RGB: mandel.RGB{R: 9, G: 8, B: 7}},
		{X: 3, Y: 0, RGB: mandel.RGB{R: 1}}, // off the grid
		{X: 0, Y: 5, RGB: mandel.RGB{R: 1}}, // off the grid
	})
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Fatalf("bounds = %v, want 3x2", b)
	}
	if got, want := img.RGBAAt(2, 1), (color.RGBA{R: 9, G: 8, B: 7, A: 255}); got != want {
		t.Errorf("RGBAAt(2, 1) = %v, want %v", got, want)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{}) {
		t.Errorf("RGBAAt(0, 0) = %v, want untouched", got)
	}
}

func TestRenderLocal(t *testing.T) {
	req, err := buildRequest(options{preset: "overview", width: 21, height: 13, strategy: "vector_parallel", policy: "histogram"})
	if err != nil {
		t.Fatal(err)
	}
	pixels, err := renderLocal(req)
	if err != nil {
		t.Fatal(err)
	}
	if len(pixels) != req.Region.Len() {
		t.Errorf("got %d pixels, want %d", len(pixels), req.Region.Len())
	}

	req.Policy, req.Palette = "smooth", "sepia"
	if _, err := renderLocal(req); !errors.Is(err, mandel.ErrInvalidParameter) {
		t.Errorf("unknown palette: %v", err)
	}
}

// batchServer answers every request with the given batches.
func batchServer(t *testing.T, batches []mandel.PixelBatch) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.CloseNow()
		var req mandel.RenderRequest
		if err := wsjson.Read(r.Context(), c, &req); err != nil {
			return
		}
		for _, b := range batches {
			if err := wsjson.Write(r.Context(), c, b); err != nil {
				return
			}
		}
		// wait for the client to hang up
		c.Read(r.Context())
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestRenderRemote(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := batchServer(t, []mandel.PixelBatch{
		{Pixels: []mandel.Pixel{{X: 0, Y: 0}, {X: 1, Y: 0}}, Total: 3},
		{Pixels: []mandel.Pixel{{X: 2, Y: 0}}, Total: 3, Done: true},
	})
	pixels, err := renderRemote(ctx, url, mandel.RenderRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(pixels) != 3 || pixels[2].X != 2 {
		t.Errorf("got %v", pixels)
	}

	url = batchServer(t, []mandel.PixelBatch{{Done: true, Error: "unknown strategy"}})
	if _, err := renderRemote(ctx, url, mandel.RenderRequest{}); err == nil {
		t.Errorf("server error was not reported")
	}
}

// fixedRenderer answers every render with the same pixels or error.
type fixedRenderer struct {
	pixels []mandel.Pixel
	err    error
}

func (f fixedRenderer) Render(ctx context.Context, req mandel.RenderRequest) ([]mandel.Pixel, error) {
	return f.pixels, f.err
}

// irpcServer serves r on a local tcp port and returns its address.
func irpcServer(t *testing.T, r mandel.Renderer) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	srv := irpc.NewServer(irpc.WithServices(mandel.NewRendererIrpcService(r)))
	go srv.Serve(l)
	t.Cleanup(func() { srv.Close() })
	return l.Addr().String()
}

func TestRenderIrpc(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	want := []mandel.Pixel{{X: 0, Y: 0, RGB: mandel.RGB{R: 1, G: 2, B: 3}}, {X: 1, Y: 0}, {X: 2, Y: 0, RGB: mandel.RGB{B: 255}}}
	addr := irpcServer(t, fixedRenderer{pixels: want})
	got, err := renderIrpc(ctx, addr, mandel.RenderRequest{Region: mandel.Overview, Strategy: mandel.Vector})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	addr = irpcServer(t, fixedRenderer{err: errors.New("unknown strategy")})
	if _, err := renderIrpc(ctx, addr, mandel.RenderRequest{}); err == nil || !strings.Contains(err.Error(), "unknown strategy") {
		t.Errorf("renderIrpc() = %v, want the server's error", err)
	}
}

func TestRunUnknownTransport(t *testing.T) {
	err := run(context.Background(), options{
		transport: "carrier-pigeon", preset: "overview", width: 4, height: 4,
		strategy: "scalar", policy: "histogram", timeout: time.Second,
	})
	if !errors.Is(err, mandel.ErrInvalidParameter) {
		t.Errorf("run() = %v, want ErrInvalidParameter", err)
	}
}

func TestRunLocal(t *testing.T) {
	out := filepath.Join(t.TempDir(), "mandel.png")
	err := run(context.Background(), options{
		preset: "overview", width: 16, height: 9, strategy: "scalar",
		policy: "smooth", palette: "default", out: out, local: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 9 {
		t.Errorf("bounds = %v, want 16x9", b)
	}
}
