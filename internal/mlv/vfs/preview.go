package vfs

import (
	"github.com/alxayo/mlvfs-core/internal/mlv/container"
	"github.com/alxayo/mlvfs-core/internal/mlv/correct"
	"github.com/alxayo/mlvfs-core/internal/mlv/frameheader"
	"github.com/alxayo/mlvfs-core/internal/mlv/index"
	"github.com/alxayo/mlvfs-core/internal/mlv/preview"
)

// buildPreview samples and encodes the container's animated GIF preview,
// decoding each sampled frame under the currently published config.
func (c *Core) buildPreview(chunks *container.ChunkSet, table *index.Table) (interface{}, error) {
	cfg := c.cfg.Get()
	decode := func(chunks *container.ChunkSet, bundle *frameheader.Bundle) (*correct.Buffer, error) {
		return decodeFrame(chunks, bundle, cfg)
	}
	return preview.Build(chunks, table, decode)
}
