package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"finitefield.org/trip-planner/internal/days"
	"finitefield.org/trip-planner/internal/itinerary"
	"finitefield.org/trip-planner/internal/render"
)

func newRenderCmd() *cobra.Command {
	var (
		o    flagOverrides
		lang string
	)
	cmd := &cobra.Command{
		Use:   "render <day>",
		Short: "Print the rendered summary and cards of one day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := itinerary.ParseDay(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(o)
			if err != nil {
				return err
			}
			bundle, err := loadBundle(cfg)
			if err != nil {
				return fmt.Errorf("load locales: %w", err)
			}
			if lang == "" {
				lang = bundle.Fallback()
			} else if lang = bundle.Normalize(lang); lang == "" {
				return fmt.Errorf("unsupported language; choose one of %v", bundle.Supported())
			}

			res := days.NewLoader(newSource(cfg)).Load(cmd.Context(), render.New(bundle.For(lang)), day)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Summary)
			fmt.Fprintln(out, res.Cards)
			if res.State == days.StateError {
				return res.Err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "output language")
	o.register(cmd)
	return cmd
}
