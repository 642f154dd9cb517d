package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"faraid/internal/inheritance/fiqh"
)

func newMadhabsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "madhabs",
		Short: "List the four schools and their rule toggles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all := fiqh.All()
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), all)
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tARABIC\tGRANDFATHER\tRADD TO SPOUSE\tBLOOD RELATIVES\tMUSHARRAKA\tAKDARIYYA")
			for _, m := range all {
				r := m.Rules
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%t\t%t\t%t\n",
					m.ID, m.Name, m.ArabicName, r.GrandfatherWithSiblings,
					r.RaddToSpouse, r.BloodRelativesEnabled, r.MusharrakaEnabled, r.AkdariyyaEnabled)
			}
			return tw.Flush()
		},
	}
}

func newHeirsCmd(opts *rootOptions) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "heirs",
		Short: "List the supported heir keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var heirs []fiqh.Heir
			for _, h := range fiqh.AllHeirs() {
				if category == "" || strings.EqualFold(string(h.Category()), category) {
					heirs = append(heirs, h)
				}
			}
			if opts.jsonOutput {
				keys := make([]string, 0, len(heirs))
				for _, h := range heirs {
					keys = append(keys, h.String())
				}
				return writeJSON(cmd.OutOrStdout(), keys)
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "KEY\tNAME\tARABIC\tCATEGORY\tMAX")
			for _, h := range heirs {
				limit := "-"
				if h.Max() != fiqh.Unbounded {
					limit = fmt.Sprint(h.Max())
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", h, h.Name(), h.ArabicName(), h.Category(), limit)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only heirs of this category")
	return cmd
}
