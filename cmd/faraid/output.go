package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/models"
	"faraid/internal/inheritance/service"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printResult(w io.Writer, res *models.Result, showSteps bool) error {
	fmt.Fprintf(w, "%s  net estate %s %s  asl %d", res.MadhabName, res.NetEstate.String(), res.Estate.Currency, res.Asl)
	if res.AwlApplied && res.AwlRatio != nil {
		fmt.Fprintf(w, "  awl %d (ratio %s)", res.FinalBase, res.AwlRatio)
	}
	fmt.Fprintln(w)

	tw := newTable(w)
	fmt.Fprintln(tw, "HEIR\tCOUNT\tSHARE\tPERCENT\tAMOUNT\tEACH\tBASIS")
	for _, s := range res.Shares {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			s.Name, s.Count, s.Fraction, s.Percent(), s.Amount.String(), s.AmountPerPerson.String(), s.Classification)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, b := range res.BlockedHeirs {
		fmt.Fprintf(w, "blocked: %s by %s\n", b.Heir.Name(), b.BlockedBy)
	}
	for _, sc := range res.SpecialCases {
		fmt.Fprintf(w, "case: %s\n", sc.Name)
	}
	for _, note := range res.MadhabNotes {
		fmt.Fprintf(w, "note: %s\n", note)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	fmt.Fprintf(w, "confidence: %.2f\n", res.Confidence)

	if showSteps {
		for i, st := range res.Steps {
			fmt.Fprintf(w, "%2d. [%s] %s: %s\n", i+1, st.Level, st.Title, st.Description)
		}
	}
	return nil
}

// printComparison prints one row per share line and one column per school.
func printComparison(w io.Writer, cmp *service.Comparison) error {
	var keys []fiqh.ShareKey
	seen := make(map[fiqh.ShareKey]bool)
	for _, e := range cmp.Entries {
		if e.Result == nil {
			continue
		}
		for _, s := range e.Result.Shares {
			if !seen[s.Key] {
				seen[s.Key] = true
				keys = append(keys, s.Key)
			}
		}
	}

	tw := newTable(w)
	header := []string{"HEIR"}
	for _, e := range cmp.Entries {
		header = append(header, strings.ToUpper(string(e.Madhab)))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, key := range keys {
		row := []string{key.Name()}
		for _, e := range cmp.Entries {
			switch {
			case e.Result == nil:
				row = append(row, "-")
			default:
				sh, ok := e.Result.Share(key)
				if !ok {
					row = append(row, "0")
					continue
				}
				row = append(row, sh.Fraction.String())
			}
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, e := range cmp.Entries {
		if e.Failure != nil {
			fmt.Fprintf(w, "%s: %s\n", e.Madhab, strings.Join(e.Failure.Messages, "; "))
		}
	}
	fmt.Fprintf(w, "%d share lines differ between schools\n", len(cmp.Differences))
	return nil
}
