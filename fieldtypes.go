package main

import (
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/parisxmas/formcraft/internal/fieldtypes"
)

var fieldTypesCategory string

var fieldTypesCmd = &cobra.Command{
	Use:   "field-types",
	Short: "List the available field types",
	RunE: func(cmd *cobra.Command, args []string) error {
		types := fieldtypes.GetAllFieldTypes()
		if fieldTypesCategory != "" {
			if !slices.Contains(fieldtypes.Categories(), fieldTypesCategory) {
				return fmt.Errorf("unknown category %q (one of %v)", fieldTypesCategory, fieldtypes.Categories())
			}
			types = fieldtypes.GetFieldsByCategory(fieldTypesCategory)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tDESCRIPTION")
		for _, ft := range types {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ft.ID, ft.Name, ft.Category, ft.Description)
		}
		return tw.Flush()
	},
}

func init() {
	fieldTypesCmd.Flags().StringVar(&fieldTypesCategory, "category", "", "only list one category")
}
