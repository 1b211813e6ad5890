package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/flowsupport/internal/domain/entities"
)

func newAskCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a single support question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ag, _, closeFn, err := a.agent(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			resp, err := ag.GenerateResponse(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(resp)
			}
			printResponse(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full response as JSON")
	return cmd
}

func printResponse(w io.Writer, r *entities.AgentResponse) {
	fmt.Fprintln(w, r.Response)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Confidence: %s   Relevance: %.1f%%   Time: %d ms\n",
		r.Confidence, r.AvgRelevanceScore*100, r.ProcessingTimeMs)
	if r.Escalation.ShouldEscalate {
		fmt.Fprintf(w, "Escalated to %s (%s priority): %s\n",
			r.Escalation.Team("General Support"), r.Escalation.Priority, r.Escalation.Reason)
	}
	for i, d := range r.RetrievedDocs {
		if i == 3 {
			break
		}
		fmt.Fprintf(w, "  [%d] %s p.%s (%.1f%%)\n", i+1, d.Source, d.Page, d.RelevanceScore*100)
	}
}
