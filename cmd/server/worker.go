package main

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/samber/lo"

	mandel "github.com/marben/simd_mandel"
	"github.com/marben/simd_mandel/palette"
)

// renderScheduler evaluates render requests for connected clients and keeps
// the most recent finished renders around for repeated requests.
// It serves websocket sessions through render and irpc clients through Render.
type renderScheduler struct {
	batchSize int
	maxPixels int
	cache     *lru.Cache[mandel.RenderRequest, []mandel.Pixel]

	renders int
	m       sync.Mutex
}

var _ mandel.Renderer = (*renderScheduler)(nil)

func newRenderScheduler(cacheSize, batchSize, maxPixels int) (*renderScheduler, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size %d: %w", batchSize, mandel.ErrInvalidParameter)
	}
	if maxPixels <= 0 {
		return nil, fmt.Errorf("max pixels %d: %w", maxPixels, mandel.ErrInvalidParameter)
	}
	cache, err := lru.New[mandel.RenderRequest, []mandel.Pixel](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("lru.New: %w", err)
	}
	return &renderScheduler{batchSize: batchSize, maxPixels: maxPixels, cache: cache}, nil
}

func (rs *renderScheduler) incActiveRenders() {
	rs.m.Lock()
	rs.renders++
	n := rs.renders
	rs.m.Unlock()

	log.Printf("active renders: %d", n)
}

func (rs *renderScheduler) decActiveRenders() {
	rs.m.Lock()
	rs.renders--
	n := rs.renders
	rs.m.Unlock()

	log.Printf("active renders: %d", n)
}

// render evaluates req and sends the coloured pixels to c.
// Streaming policies send pixels while the region is still being evaluated,
// barrier policies only after every point is done.
func (rs *renderScheduler) render(ctx context.Context, c *websocket.Conn, req mandel.RenderRequest) error {
	rs.incActiveRenders()
	defer rs.decActiveRenders()

	if err := rs.checkSize(req.Region); err != nil {
		return err
	}
	total := req.Region.Len()
	if pixels, ok := rs.cache.Get(req); ok {
		log.Printf("render %dx%d served from cache", req.Region.Width, req.Region.Height)
		return rs.sendAll(ctx, c, pixels, total)
	}

	policy, err := resolvePolicy(req)
	if err != nil {
		return err
	}

	var pixels []mandel.Pixel
	switch p := policy.(type) {
	case mandel.StreamingPolicy:
		pixels, err = rs.stream(ctx, c, req, p)
	default:
		pixels, err = colourAll(req, p)
		if err == nil {
			err = rs.sendAll(ctx, c, pixels, len(pixels))
		}
	}
	if err != nil {
		return err
	}

	rs.cache.Add(req, pixels)
	log.Printf("render %dx%d (%s, %s) finished", req.Region.Width, req.Region.Height, req.Strategy, policy.Name())
	return nil
}

// Render evaluates req and returns every pixel at once.
func (rs *renderScheduler) Render(ctx context.Context, req mandel.RenderRequest) ([]mandel.Pixel, error) {
	rs.incActiveRenders()
	defer rs.decActiveRenders()

	if err := rs.checkSize(req.Region); err != nil {
		return nil, err
	}
	if pixels, ok := rs.cache.Get(req); ok {
		log.Printf("render %dx%d served from cache", req.Region.Width, req.Region.Height)
		return pixels, nil
	}

	policy, err := resolvePolicy(req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pixels, err := colourAll(req, policy)
	if err != nil {
		return nil, err
	}

	rs.cache.Add(req, pixels)
	log.Printf("render %dx%d (%s, %s) finished", req.Region.Width, req.Region.Height, req.Strategy, policy.Name())
	return pixels, nil
}

// checkSize rejects invalid regions and regions above maxPixels before
// anything is allocated for them.
func (rs *renderScheduler) checkSize(r mandel.Region) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if n := r.Len(); n > rs.maxPixels {
		return fmt.Errorf("region %dx%d has %d pixels, limit is %d: %w", r.Width, r.Height, n, rs.maxPixels, mandel.ErrInvalidParameter)
	}
	return nil
}

func resolvePolicy(req mandel.RenderRequest) (mandel.Policy, error) {
	var pal mandel.Palette
	if req.Policy != "histogram" {
		p, err := palette.Named(req.Palette)
		if err != nil {
			return nil, err
		}
		pal = p
	}
	return mandel.ParsePolicy(req.Policy, pal)
}

// stream colours results as the evaluator delivers them. The evaluator runs on
// its own goroutine; this one batches pixels and writes them to the connection.
func (rs *renderScheduler) stream(ctx context.Context, c *websocket.Conn, req mandel.RenderRequest, p mandel.StreamingPolicy) ([]mandel.Pixel, error) {
	pixelCh := make(chan mandel.Pixel, rs.batchSize)
	errCh := make(chan error, 1)
	go func() {
		defer close(pixelCh)
		errCh <- mandel.Stream(req.Region, req.Strategy, mandel.ColourStream(req.Region, p, func(px mandel.Pixel) {
			pixelCh <- px
		}))
	}()

	total := req.Region.Len()
	all := make([]mandel.Pixel, 0, max(total, 0))
	batch := make([]mandel.Pixel, 0, rs.batchSize)
	var sendErr error
	for px := range pixelCh {
		all = append(all, px)
		batch = append(batch, px)
		if len(batch) < rs.batchSize {
			continue
		}
		// keep draining after a failed send so the evaluator can finish
		if sendErr == nil {
			sendErr = wsjson.Write(ctx, c, mandel.PixelBatch{Pixels: batch, Total: total})
		}
		batch = batch[:0]
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	if sendErr != nil {
		return nil, fmt.Errorf("wsjson.Write: %w", sendErr)
	}
	if err := wsjson.Write(ctx, c, mandel.PixelBatch{Pixels: batch, Total: total, Done: true}); err != nil {
		return nil, fmt.Errorf("wsjson.Write: %w", err)
	}
	return all, nil
}

// colourAll waits for the whole result set before colouring it.
func colourAll(req mandel.RenderRequest, p mandel.Policy) ([]mandel.Pixel, error) {
	results, err := mandel.Evaluate(req.Region, req.Strategy)
	if err != nil {
		return nil, err
	}
	return mandel.Colour(req.Region, results, p)
}

func (rs *renderScheduler) sendAll(ctx context.Context, c *websocket.Conn, pixels []mandel.Pixel, total int) error {
	batches := lo.Chunk(pixels, rs.batchSize)
	if len(batches) == 0 {
		batches = [][]mandel.Pixel{nil}
	}
	for i, b := range batches {
		msg := mandel.PixelBatch{Pixels: b, Total: total, Done: i == len(batches)-1}
		if err := wsjson.Write(ctx, c, msg); err != nil {
			return fmt.Errorf("wsjson.Write: %w", err)
		}
	}
	return nil
}
