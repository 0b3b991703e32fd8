package reporting

import (
	"context"
	"maps"
	"time"
)

type metaContextKey struct{}

type Meta struct {
	tags      map[string]string
	extras    map[string]string
	startedAt time.Time
}

// MetaFromContext returns a copy of the reporting meta in ctx, safe to modify
func MetaFromContext(ctx context.Context) Meta {
	meta, ok := ctx.Value(metaContextKey{}).(Meta)
	if !ok {
		return Meta{
			tags:   make(map[string]string),
			extras: make(map[string]string),
		}
	}
	return Meta{
		tags:      maps.Clone(meta.tags),
		extras:    maps.Clone(meta.extras),
		startedAt: meta.startedAt,
	}
}

func withMeta(ctx context.Context, meta Meta) context.Context {
	return context.WithValue(ctx, metaContextKey{}, meta)
}

func setStartedAtInContext(ctx context.Context, startedAt time.Time) context.Context {
	meta := MetaFromContext(ctx)
	meta.startedAt = startedAt
	return withMeta(ctx, meta)
}

func AddExtrasToContext(ctx context.Context, extras map[string]string) context.Context {
	meta := MetaFromContext(ctx)
	maps.Copy(meta.extras, extras)
	return withMeta(ctx, meta)
}

func AddTagsToContext(ctx context.Context, tags map[string]string) context.Context {
	meta := MetaFromContext(ctx)
	maps.Copy(meta.tags, tags)
	return withMeta(ctx, meta)
}
