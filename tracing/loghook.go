package tracing

import (
	"context"
	"log/slog"

	"github.com/sarchlab/pagesim/sim/hooking"
)

// LogHook writes every memory event to a logger at debug level.
type LogHook struct {
	logger *slog.Logger
}

// NewLogHook creates a LogHook.
func NewLogHook(logger *slog.Logger) *LogHook {
	return &LogHook{logger: logger}
}

// Func logs the event.
func (h *LogHook) Func(ctx hooking.HookCtx) {
	if !h.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	attrs := []any{"domain", ctx.Domain.Name()}

	switch item := ctx.Item.(type) {
	case hooking.PageEvent:
		attrs = append(attrs, "page", item.Page, "frame", item.Frame)
		if ctx.Pos == hooking.HookPosPageEvict ||
			ctx.Pos == hooking.HookPosSwapIn {
			attrs = append(attrs,
				"swap_type", item.SwapType, "swap_offset", item.SwapOffset)
		}
	case hooking.RegionEvent:
		attrs = append(attrs,
			"id", item.ID, "seg", item.SegID,
			"start", item.Start, "end", item.End)
	}

	h.logger.Debug(ctx.Pos.Name, attrs...)
}
