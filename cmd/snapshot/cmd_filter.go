package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"snapshot-keeper/internal/derive"
	"snapshot-keeper/internal/domain"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newFilterCmd() *cobra.Command {
	var (
		file     string
		capacity int
	)

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Rank a local snapshot file and print the derived list",
		Long: `Read a raw snapshot from --file (or stdin with "-") and print the derived
list the pipeline would persist, without reading or writing the store.
Capacity defaults to DERIVED_CAPACITY.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("capacity") {
				capacity = loadConfigFunc().DerivedCapacity
			}

			list, err := derive.Filter(raw, capacity)
			if errors.Is(err, domain.ErrMalformedSnapshot) {
				log.Warn().Err(err).Msg("snapshot has no asset sequence")
			} else if err != nil {
				return err
			}

			out, err := derive.Encode(list)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", `Raw snapshot file, "-" for stdin`)
	cmd.Flags().IntVarP(&capacity, "capacity", "n", 16, "Maximum number of entries")
	return cmd
}

func readInput(stdin io.Reader, file string) ([]byte, error) {
	if file == "" || file == "-" {
		return io.ReadAll(stdin)
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return raw, nil
}
