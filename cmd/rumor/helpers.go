package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesh-intelligence/rumor/internal/client"
	"github.com/mesh-intelligence/rumor/internal/logging"
	"github.com/mesh-intelligence/rumor/internal/service"
	"github.com/mesh-intelligence/rumor/internal/sqlite"
	"github.com/mesh-intelligence/rumor/internal/syncstore"
	"github.com/mesh-intelligence/rumor/pkg/types"
)

// attachBackend attaches the configured backend in dataDir. The memory
// backend has no storage and returns nil. The caller must Detach a non-nil
// backend.
func attachBackend(dataDir string) (*sqlite.Backend, error) {
	c := types.Config{Backend: cfg.GetString(cfgKeyBackend), DataDir: dataDir}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("backend %q: %w", c.Backend, err)
	}
	if c.Backend == types.BackendMemory {
		return nil, nil
	}
	backend := sqlite.NewBackend()
	if err := backend.Attach(c); err != nil {
		return nil, fmt.Errorf("attach backend: %w", err)
	}
	return backend, nil
}

// openService builds a service over the configured backend. reg may be nil.
// The returned close function detaches the backend.
func openService(reg prometheus.Registerer) (*service.Service, func() error, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve data dir: %w", err)
	}
	backend, err := attachBackend(dataDir)
	if err != nil {
		return nil, nil, err
	}

	opts := []service.Option{service.WithLogger(logging.Component(logger, "service"))}
	closeFn := func() error { return nil }
	if backend != nil {
		opts = append(opts, service.WithBackend(backend))
		closeFn = backend.Detach
	}
	if reg != nil {
		opts = append(opts, service.WithMetrics(service.NewMetrics(reg)))
	}

	svc, err := service.New(opts...)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return svc, closeFn, nil
}

// newClient returns an HTTP client for the configured server.
func newClient() (*client.Client, error) {
	return client.New(cfg.GetString(cfgKeyBaseURL), client.WithTimeout(clientTimeout(cfg)))
}

// newStore returns a sync store on top of a client for the configured
// server. opts are applied after the configured ones.
func newStore(opts ...syncstore.Option) (*syncstore.Store, error) {
	c, err := newClient()
	if err != nil {
		return nil, err
	}
	base := []syncstore.Option{
		syncstore.WithTimeout(clientTimeout(cfg)),
		syncstore.WithSearchDelay(cfg.GetDuration(cfgKeySearchDelay)),
		syncstore.WithLogger(logging.Component(logger, "syncstore")),
	}
	return syncstore.New(c, append(base, opts...)...), nil
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// printGuests writes guests as an aligned table.
func printGuests(w io.Writer, guests []types.Guest) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tHANDLE\tFOLLOWERS\tTAGS")
	for _, g := range guests {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			g.ID, g.FullName, g.RSVPStatus, g.InstagramHandle, g.FollowerCount, strings.Join(g.Tags, ","))
	}
	return tw.Flush()
}

func printTags(w io.Writer, tags []types.Tag) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOLOR")
	for _, t := range tags {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.Name, t.Color)
	}
	return tw.Flush()
}
