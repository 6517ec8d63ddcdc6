package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rumor/internal/seed"
	"github.com/mesh-intelligence/rumor/pkg/types"
)

// guestCreator is the part of the client and the service seeding needs.
type guestCreator interface {
	CreateGuest(ctx context.Context, in types.GuestInput) (types.Guest, error)
	ListTags(ctx context.Context) ([]types.Tag, error)
}

var seedFlags struct {
	local bool
	seed  uint64
}

var seedCmd = &cobra.Command{
	Use:   "seed <count>",
	Short: "Generate mock guests",
	Long: `Seed creates count mock guests tagged from the current catalog. By default
guests are sent to the server; with --local they are written straight to the
configured backend, which must not be in use by a running server.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("%w: count must be a positive integer, got %q", errUsage, args[0])
		}

		var target guestCreator
		if seedFlags.local {
			svc, closeBackend, err := openService(nil)
			if err != nil {
				return err
			}
			defer closeBackend()
			target = svc
		} else {
			c, err := newClient()
			if err != nil {
				return err
			}
			target = c
		}

		created, err := seedGuests(cmd.Context(), target, n, seedFlags.seed)
		fmt.Fprintf(cmd.OutOrStdout(), "created %d guests\n", created)
		return err
	},
}

// seedGuests creates n generated guests through target. A zero seed draws
// a random one.
func seedGuests(ctx context.Context, target guestCreator, n int, seedValue uint64) (int, error) {
	tags, err := target.ListTags(ctx)
	if err != nil {
		return 0, fmt.Errorf("load tags: %w", err)
	}
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}

	var r *rand.Rand
	if seedValue != 0 {
		r = rand.New(rand.NewPCG(seedValue, seedValue))
	}
	gen := seed.NewGenerator(r, names)

	created := 0
	for _, in := range gen.Inputs(n) {
		if _, err := target.CreateGuest(ctx, in); err != nil {
			return created, fmt.Errorf("create guest %d: %w", created+1, err)
		}
		created++
	}
	logger.Info().Int("count", created).Msg("seeded guests")
	return created, nil
}

func init() {
	seedCmd.Flags().BoolVar(&seedFlags.local, "local", false, "write to the local backend instead of the server")
	seedCmd.Flags().Uint64Var(&seedFlags.seed, "seed", 0, "random seed for reproducible output")
}
