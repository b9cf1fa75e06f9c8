package pseudo

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for pseudo events.
var (
	SignalRulesCompiled     = capitan.NewSignal("pseudo.rules.compiled", "Rule set compiled")
	SignalSchemaMatched     = capitan.NewSignal("pseudo.schema.matched", "Schema walk finished")
	SignalTreeBuilt         = capitan.NewSignal("pseudo.tree.built", "Document built from tabular input")
	SignalMatchStart        = capitan.NewSignal("pseudo.match.start", "Data walk beginning")
	SignalMatchComplete     = capitan.NewSignal("pseudo.match.complete", "Data walk finished")
	SignalColumnUpdated     = capitan.NewSignal("pseudo.column.updated", "Column update applied or rejected")
	SignalTransformComplete = capitan.NewSignal("pseudo.transform.complete", "Matched field transformed")
)

// Keys for typed event data.
var (
	KeyPath       = capitan.NewStringKey("path")
	KeyFunction   = capitan.NewStringKey("function")
	KeyRuleCount  = capitan.NewIntKey("rule_count")
	KeyMatchCount = capitan.NewIntKey("match_count")
	KeyRows       = capitan.NewIntKey("rows")
	KeyColumns    = capitan.NewIntKey("columns")
	KeyTasks      = capitan.NewIntKey("tasks")
	KeyPartitions = capitan.NewIntKey("partitions")
	KeyDuration   = capitan.NewDurationKey("duration")
	KeyError      = capitan.NewErrorKey("error")
)

func emitRulesCompiled(ctx context.Context, rules int, err error) {
	fields := []capitan.Field{
		KeyRuleCount.Field(rules),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalRulesCompiled, fields...)
	} else {
		capitan.Emit(ctx, SignalRulesCompiled, fields...)
	}
}

// emitSchemaMatched emits an event when a schema walk finishes.
func emitSchemaMatched(ctx context.Context, rules, matches int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyRuleCount.Field(rules),
		KeyMatchCount.Field(matches),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalSchemaMatched, fields...)
	} else {
		capitan.Emit(ctx, SignalSchemaMatched, fields...)
	}
}

// emitTreeBuilt emits an event when a document is built.
func emitTreeBuilt(ctx context.Context, rows, columns int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyRows.Field(rows),
		KeyColumns.Field(columns),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalTreeBuilt, fields...)
	} else {
		capitan.Emit(ctx, SignalTreeBuilt, fields...)
	}
}

// emitMatchStart emits an event when a data walk begins.
func emitMatchStart(ctx context.Context, rules int) {
	capitan.Emit(ctx, SignalMatchStart,
		KeyRuleCount.Field(rules),
	)
}

// emitMatchComplete emits an event when a data walk finishes.
func emitMatchComplete(ctx context.Context, rules, matches, tasks int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyRuleCount.Field(rules),
		KeyMatchCount.Field(matches),
		KeyTasks.Field(tasks),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalMatchComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalMatchComplete, fields...)
	}
}

func emitColumnUpdated(ctx context.Context, path string, rows int, err error) {
	fields := []capitan.Field{
		KeyPath.Field(path),
		KeyRows.Field(rows),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalColumnUpdated, fields...)
	} else {
		capitan.Emit(ctx, SignalColumnUpdated, fields...)
	}
}

// emitTransformComplete emits an event when a matched field has been transformed.
func emitTransformComplete(ctx context.Context, path, function string, partitions int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyPath.Field(path),
		KeyFunction.Field(function),
		KeyPartitions.Field(partitions),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalTransformComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalTransformComplete, fields...)
	}
}
