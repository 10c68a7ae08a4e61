package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sweep/internal/rules"
)

func newRulesCommand(ctx *commandContext) *cobra.Command {
	var showTypes bool

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the configured watch rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()

			if len(cfg.Rules) == 0 {
				fmt.Fprintln(stdout, "No rules configured")
				return nil
			}

			rows := make([][]string, 0, len(cfg.Rules))
			for _, rule := range cfg.Rules {
				rows = append(rows, []string{
					rule.Name,
					rule.WatchDirectory,
					yesNo(rule.IsEnabled()),
					strings.Join(rule.RedirectDomains, ", "),
					fmt.Sprintf("%d", len(rule.Types)),
				})
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"Rule", "Watch Directory", "Enabled", "Redirect Domains", "Types"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))

			if !showTypes {
				return nil
			}

			for _, rule := range rules.Compile(cfg) {
				fmt.Fprintf(stdout, "\n%s type rules (first match wins):\n", rule.Name)
				typeRows := make([][]string, 0, len(rule.Types))
				for _, typeRule := range rule.Types {
					typeRows = append(typeRows, []string{
						typeRule.Name,
						strings.Join(typeRule.Extensions(), ", "),
						typeRule.Destination,
					})
				}
				if len(typeRows) == 0 {
					fmt.Fprintln(stdout, "  (none)")
					continue
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Type", "Extensions", "Destination"},
					typeRows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showTypes, "types", false, "Also list each rule's type rules in match order")
	return cmd
}
