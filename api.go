package mandel

import "context"

//go:generate go tool irpc

// Renderer renders a region into coloured pixels.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) ([]Pixel, error)
}

// RenderRequest asks a render server for a coloured region.
type RenderRequest struct {
	Region   Region   `json:"region"`
	Strategy Strategy `json:"strategy"`
	Policy   string   `json:"policy"`
	Palette  string   `json:"palette"`
}

// PixelBatch carries a slice of a render back to the client.
// The last batch of a render has Done set; Error is set when the render failed.
type PixelBatch struct {
	Pixels []Pixel `json:"pixels,omitempty"`
	Done   bool    `json:"done,omitempty"`
	Total  int     `json:"total"`
	Error  string  `json:"error,omitempty"`
}
