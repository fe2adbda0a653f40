package main

import (
	"cmp"
	"context"
	"errors"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	mandel "github.com/marben/simd_mandel"
)

var testRegion = mandel.Region{ReMin: -2, ReMax: 1, ImMin: -1, ImMax: 1, Width: 30, Height: 17, MaxIterations: 100}

const testMaxPixels = 10_000

func dialTestServer(t *testing.T, rs *renderScheduler) (context.Context, *websocket.Conn) {
	t.Helper()
	l := newWebsocketListener(context.Background(), "test/irpc")
	t.Cleanup(func() { l.Close() })
	srv := httptest.NewServer(newMux(rs, l))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	c, _, err := websocket.Dial(ctx, srv.URL+"/ws", nil)
	if err != nil {
		t.Fatalf("websocket.Dial: %v", err)
	}
	t.Cleanup(func() { c.CloseNow() })
	return ctx, c
}

// roundTrip sends req and collects batches until the last one.
func roundTrip(t *testing.T, ctx context.Context, c *websocket.Conn, req mandel.RenderRequest) ([]mandel.Pixel, mandel.PixelBatch) {
	t.Helper()
	if err := wsjson.Write(ctx, c, req); err != nil {
		t.Fatalf("wsjson.Write: %v", err)
	}
	var pixels []mandel.Pixel
	for {
		var batch mandel.PixelBatch
		if err := wsjson.Read(ctx, c, &batch); err != nil {
			t.Fatalf("wsjson.Read: %v", err)
		}
		pixels = append(pixels, batch.Pixels...)
		if batch.Done {
			return pixels, batch
		}
	}
}

func sortPixels(px []mandel.Pixel) {
	slices.SortFunc(px, func(a, b mandel.Pixel) int {
		return cmp.Or(cmp.Compare(a.Y, b.Y), cmp.Compare(a.X, b.X))
	})
}

func checkCoverage(t *testing.T, r mandel.Region, pixels []mandel.Pixel) {
	t.Helper()
	if len(pixels) != r.Len() {
		t.Fatalf("got %d pixels, want %d", len(pixels), r.Len())
	}
	seen := make(map[[2]uint64]bool, len(pixels))
	for _, px := range pixels {
		if px.X >= uint64(r.Width) || px.Y >= uint64(r.Height) {
			t.Fatalf("pixel (%d, %d) off the %dx%d grid", px.X, px.Y, r.Width, r.Height)
		}
		seen[[2]uint64{px.X, px.Y}] = true
	}
	if len(seen) != r.Len() {
		t.Errorf("covered %d cells, want %d", len(seen), r.Len())
	}
}

func TestRenderSession(t *testing.T) {
	rs, err := newRenderScheduler(4, 64, testMaxPixels)
	if err != nil {
		t.Fatal(err)
	}
	ctx, c := dialTestServer(t, rs)

	for _, s := range mandel.Strategies {
		for _, policy := range []string{"smooth", "histogram"} {
			req := mandel.RenderRequest{Region: testRegion, Strategy: s, Policy: policy, Palette: "rainbow"}
			pixels, last := roundTrip(t, ctx, c, req)
			if last.Error != "" {
				t.Fatalf("%s/%s: server error %q", s, policy, last.Error)
			}
			if last.Total != testRegion.Len() {
				t.Errorf("%s/%s: Total = %d, want %d", s, policy, last.Total, testRegion.Len())
			}
			checkCoverage(t, testRegion, pixels)
		}
	}
}

func TestRenderSessionCache(t *testing.T) {
	rs, err := newRenderScheduler(4, 50, testMaxPixels)
	if err != nil {
		t.Fatal(err)
	}
	ctx, c := dialTestServer(t, rs)

	req := mandel.RenderRequest{Region: testRegion, Strategy: mandel.VectorParallel, Policy: "smooth", Palette: "default"}
	first, _ := roundTrip(t, ctx, c, req)
	if _, ok := rs.cache.Get(req); !ok {
		t.Fatalf("render was not cached")
	}
	second, _ := roundTrip(t, ctx, c, req)

	sortPixels(first)
	sortPixels(second)
	if !slices.Equal(first, second) {
		t.Errorf("cached render differs from the first one")
	}
}

func TestRenderSessionBadRequest(t *testing.T) {
	rs, err := newRenderScheduler(4, 64, testMaxPixels)
	if err != nil {
		t.Fatal(err)
	}
	ctx, c := dialTestServer(t, rs)

	bad := []mandel.RenderRequest{
		{Region: testRegion, Strategy: "gpu", Policy: "smooth", Palette: "default"},
		{Region: testRegion, Strategy: mandel.Scalar, Policy: "plasma", Palette: "default"},
		{Region: testRegion, Strategy: mandel.Scalar, Policy: "smooth", Palette: "sepia"},
		{Region: mandel.Region{ReMin: 1, ReMax: -1, ImMin: -1, ImMax: 1, Width: 4, Height: 4}, Strategy: mandel.Vector, Policy: "histogram"},
		// above the scheduler's pixel limit
		{Region: mandel.Region{ReMin: -2, ReMax: 1, ImMin: -1, ImMax: 1, Width: 101, Height: 100, MaxIterations: 10}, Strategy: mandel.Parallel, Policy: "histogram"},
		// Width * Height overflows int
		{Region: mandel.Region{ReMin: -2, ReMax: 1, ImMin: -1, ImMax: 1, Width: 1 << 40, Height: 1 << 40, MaxIterations: 10}, Strategy: mandel.VectorParallel, Policy: "smooth", Palette: "default"},
		{Region: mandel.Region{ReMin: -1e308, ReMax: 1e308, ImMin: -1, ImMax: 1, Width: 3, Height: 1, MaxIterations: 5}, Strategy: mandel.Vector, Policy: "histogram"},
	}
	for _, req := range bad {
		pixels, last := roundTrip(t, ctx, c, req)
		if last.Error == "" {
			t.Errorf("request %+v: want an error", req)
		}
		if len(pixels) != 0 {
			t.Errorf("request %+v: got %d pixels with the error", req, len(pixels))
		}
	}

	// the session survives bad requests
	pixels, last := roundTrip(t, ctx, c, mandel.RenderRequest{Region: testRegion, Strategy: mandel.Vector, Policy: "histogram"})
	if last.Error != "" {
		t.Fatalf("server error %q", last.Error)
	}
	checkCoverage(t, testRegion, pixels)
}

func TestRenderSessionEmptyRegion(t *testing.T) {
	rs, err := newRenderScheduler(4, 64, testMaxPixels)
	if err != nil {
		t.Fatal(err)
	}
	ctx, c := dialTestServer(t, rs)

	empty := testRegion
	empty.Width = 0
	for _, policy := range []string{"smooth", "histogram"} {
		pixels, last := roundTrip(t, ctx, c, mandel.RenderRequest{Region: empty, Strategy: mandel.VectorParallel, Policy: policy, Palette: "default"})
		if last.Error != "" || len(pixels) != 0 {
			t.Errorf("%s: got %d pixels, error %q; want none", policy, len(pixels), last.Error)
		}
	}
}

func TestNewRenderSchedulerLimits(t *testing.T) {
	if _, err := newRenderScheduler(4, 0, testMaxPixels); err == nil {
		t.Errorf("newRenderScheduler(batch 0) succeeded")
	}
	if _, err := newRenderScheduler(4, 64, 0); err == nil {
		t.Errorf("newRenderScheduler(max pixels 0) succeeded")
	}
}

func TestCheckSize(t *testing.T) {
	rs, err := newRenderScheduler(4, 64, testMaxPixels)
	if err != nil {
		t.Fatal(err)
	}
	atLimit := testRegion
	atLimit.Width, atLimit.Height = 100, 100
	if err := rs.checkSize(atLimit); err != nil {
		t.Errorf("checkSize(100x100) = %v, want nil", err)
	}
	atLimit.Width++
	if err := rs.checkSize(atLimit); !errors.Is(err, mandel.ErrInvalidParameter) {
		t.Errorf("checkSize(101x100) = %v, want ErrInvalidParameter", err)
	}
}
