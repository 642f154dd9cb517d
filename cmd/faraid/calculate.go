package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"faraid/internal/inheritance/engine"
)

func addCaseFlags(cmd *cobra.Command, in *caseInput) {
	f := cmd.Flags()
	f.StringVarP(&in.file, "file", "f", "", "YAML case file")
	f.StringVar(&in.total, "total", "", "gross estate")
	f.StringVar(&in.funeral, "funeral", "", "funeral expenses")
	f.StringVar(&in.debts, "debts", "", "debts of the deceased")
	f.StringVar(&in.will, "will", "", "bequest, capped at one third of what remains")
	f.StringVar(&in.currency, "currency", "", "ISO 4217 currency code (default SAR)")
	f.StringToIntVar(&in.heirs, "heir", nil, "heir counts, e.g. --heir husband=1,daughter=2")
}

func newCalculateCmd(opts *rootOptions) *cobra.Command {
	in := &caseInput{}
	var showSteps bool
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Distribute an estate under one school",
		Example: `  faraid calculate --madhab shafii --total 120000 --heir husband=1,father=1,mother=1
  faraid calculate -f case.yaml --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := in.merge(); err != nil {
				return err
			}
			madhab, err := in.parsedMadhab()
			if err != nil {
				return err
			}
			estate, err := in.estate()
			if err != nil {
				return err
			}
			heirs, err := in.heirCounts()
			if err != nil {
				return err
			}
			svc, err := opts.service(cmd)
			if err != nil {
				return err
			}

			calc, err := svc.Calculate(cmd.Context(), madhab, estate, heirs)
			if err != nil {
				return describeFailure(err)
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), calc)
			}
			return printResult(cmd.OutOrStdout(), calc.Result, showSteps)
		},
	}
	cmd.Flags().StringVarP(&in.madhab, "madhab", "m", "", "shafii, hanafi, maliki or hanbali")
	cmd.Flags().BoolVar(&showSteps, "steps", false, "print the audit trace")
	addCaseFlags(cmd, in)
	return cmd
}

func newCompareCmd(opts *rootOptions) *cobra.Command {
	in := &caseInput{}
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Distribute the same estate under all four schools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := in.merge(); err != nil {
				return err
			}
			estate, err := in.estate()
			if err != nil {
				return err
			}
			heirs, err := in.heirCounts()
			if err != nil {
				return err
			}
			svc, err := opts.service(cmd)
			if err != nil {
				return err
			}

			cmp, err := svc.Compare(cmd.Context(), estate, heirs)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), cmp)
			}
			return printComparison(cmd.OutOrStdout(), cmp)
		},
	}
	addCaseFlags(cmd, in)
	return cmd
}

func describeFailure(err error) error {
	var failure *engine.Failure
	if errors.As(err, &failure) {
		return fmt.Errorf("%s error (%s): %s", failure.Kind, failure.Madhab, strings.Join(failure.Messages, "; "))
	}
	return err
}
