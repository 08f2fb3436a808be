package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"samesky/internal/footprint"
)

func fieldsCmd(configArg *string) *cobra.Command {
	var ra, dec float64
	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List the ZTF fields whose footprint contains a sky position",
		Long: `List the ZTF fields whose footprint contains a sky position.

Examples:
  samesky fields --ra 180.5 --dec 30.2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(*configArg)
			if err != nil {
				return err
			}
			fp := cfg.SameSky.Footprint
			fields, err := footprint.LoadFields(fp.FieldsPath)
			if err != nil {
				return fmt.Errorf("failed to load ZTF fields: %w", err)
			}
			resolver, err := footprint.NewGridResolver(fields, footprint.Config{
				HalfWidthDeg:  fp.HalfWidthDeg,
				HalfHeightDeg: fp.HalfHeightDeg,
			})
			if err != nil {
				return err
			}
			ids, err := resolver.Resolve(ra, dec)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ra=%g dec=%g fields=%d\n", ra, dec, len(ids))
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&ra, "ra", 0, "Right ascension in degrees")
	cmd.Flags().Float64Var(&dec, "dec", 0, "Declination in degrees")
	_ = cmd.MarkFlagRequired("ra")
	_ = cmd.MarkFlagRequired("dec")
	return cmd
}
