package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/prometheus/client_golang/prometheus"

	"genecore/internal/alleles"
	"genecore/internal/config"
	"genecore/internal/definitions"
	"genecore/internal/itemstore"
	"genecore/internal/metrics"
	"genecore/internal/organism"
	"genecore/internal/saveformat"
	"genecore/internal/savehandler"
	"genecore/pkg/genetics"
	"genecore/plugins/frog"
)

// app is the wiring shared by all commands.
type app struct {
	items    itemstore.Repository
	handler  *savehandler.Handler
	roots    map[string]genetics.Root
	registry *prometheus.Registry
	logger   *slog.Logger
	stderr   io.Writer
}

func newApp(ctx context.Context, cfg config.Config, stderr io.Writer) (*app, error) {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	format, err := saveformat.ParseFormat(cfg.WriteFormat)
	if err != nil {
		return nil, err
	}

	table := alleles.NewRegistry()
	organisms := organism.NewRegistry()
	roots := make(map[string]genetics.Root)
	root, err := frog.New().Register(table, organisms)
	if err != nil {
		return nil, err
	}
	roots[root.UID] = root
	for _, path := range cfg.Definitions {
		doc, err := definitions.Load(path)
		if err != nil {
			return nil, err
		}
		ks, err := definitions.Apply(doc, table)
		if err != nil {
			return nil, fmt.Errorf("definitions %s: %w", path, err)
		}
		for _, k := range ks {
			if _, dup := roots[k.UID()]; dup {
				return nil, fmt.Errorf("definitions %s: karyotype %s already defined", path, k.UID())
			}
			roots[k.UID()] = genetics.Root{UID: k.UID(), Karyotype: k}
		}
	}
	table.Freeze()

	registry := prometheus.NewRegistry()
	recorder, err := metrics.NewPrometheusRecorder(registry)
	if err != nil {
		return nil, err
	}
	d, err := saveformat.NewDispatcher(table,
		saveformat.WithWriteFormat(format),
		saveformat.WithMetrics(recorder),
		saveformat.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	items, err := itemstore.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("genectl_ready", "store", cfg.StoreDriver, "write_format", format.String(), "roots", len(roots))
	return &app{
		items:    items,
		handler:  savehandler.New(d, organisms, savehandler.WithMetrics(recorder), savehandler.WithLogger(logger)),
		roots:    roots,
		registry: registry,
		logger:   logger,
		stderr:   stderr,
	}, nil
}

func (a *app) root(uid string) (genetics.Root, error) {
	r, ok := a.roots[uid]
	if !ok {
		return genetics.Root{}, fmt.Errorf("unknown organism family %q", uid)
	}
	return r, nil
}

// writeCounters prints every non-zero save counter as name{labels} value.
func (a *app) writeCounters(w io.Writer) error {
	families, err := a.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			v := m.GetCounter().GetValue()
			if v == 0 {
				continue
			}
			labels := ""
			for _, l := range m.GetLabel() {
				if labels != "" {
					labels += ","
				}
				labels += l.GetName() + "=" + l.GetValue()
			}
			lines = append(lines, fmt.Sprintf("%s{%s} %g", mf.GetName(), labels, v))
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) close() error { return a.items.Close() }
