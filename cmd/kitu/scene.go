package main

import (
	"context"
	"fmt"

	"github.com/kitu-show/kitu/internal/data"
	"github.com/kitu-show/kitu/internal/engine"
	"github.com/kitu-show/kitu/internal/persist"
	"github.com/kitu-show/kitu/internal/scripting"
	"github.com/kitu-show/kitu/internal/system"
	"github.com/kitu-show/kitu/internal/timeline"
	"go.uber.org/zap"
)

type sceneOptions struct {
	Charset     string
	EmitAddress string
	Log         *zap.Logger
}

type sceneCounts struct {
	Components int
	Timelines  int
	Scripts    int
	Tables     int
}

// applyScene loads everything a scene names into rt before the first tick:
// components are registered, timelines become TimelinePlayers, scripts that
// define on_tick become ScriptSystems, and TMD files are ingested into store.
func applyScene(ctx context.Context, rt *engine.Runtime, host *scripting.Host, store persist.TableStore, scene *data.Scene, opts sceneOptions) (sceneCounts, error) {
	var n sceneCounts
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	for _, c := range scene.Components {
		if err := rt.WorldMut().RegisterComponent(c); err != nil {
			return n, fmt.Errorf("component %s: %w", c, err)
		}
		n.Components++
	}

	for _, f := range scene.Timelines {
		text, err := data.ReadText(scene.Resolve(f.File), opts.Charset)
		if err != nil {
			return n, err
		}
		tl, err := timeline.Parse(text)
		if err != nil {
			return n, fmt.Errorf("timeline %s: %w", f.Name, err)
		}
		rt.Runner().RegisterPhased(system.NewTimelinePlayer(f.Name, tl, rt.Outbox(), opts.EmitAddress, log.Named("timeline")))
		n.Timelines++
	}

	for _, f := range scene.Scripts {
		text, err := data.ReadText(scene.Resolve(f.File), opts.Charset)
		if err != nil {
			return n, err
		}
		if err := host.RegisterScript(f.Name, text); err != nil {
			return n, err
		}
		if host.Has(f.Name, system.OnTick) {
			rt.Runner().RegisterPhased(system.NewScriptSystem(host, f.Name, system.OnTick))
		} else {
			log.Info("script has no on_tick, loaded only", zap.String("script", f.Name))
		}
		n.Scripts++
	}

	for _, t := range scene.Tables {
		text, err := data.ReadText(scene.Resolve(t.File), opts.Charset)
		if err != nil {
			return n, err
		}
		doc, err := data.ParseTMD(text)
		if err != nil {
			return n, fmt.Errorf("table %s: %w", t.Table, err)
		}
		if err := doc.Ingest(ctx, store, t.Table); err != nil {
			return n, err
		}
		n.Tables++
	}
	return n, nil
}
