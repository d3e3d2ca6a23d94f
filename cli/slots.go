package cli

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"go.viam.com/pointpca/pointpca"
)

// SlotsAction prints the predictor slot enumeration.
func SlotsAction(c *cli.Context) error {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Name", "Identity", "Description"})
	for _, s := range pointpca.Slots {
		identity := "reference only"
		if s.HasIdentity() {
			identity = strconv.FormatFloat(s.Identity, 'g', -1, 64)
		}
		t.AppendRow(table.Row{s.Index, s.Name, identity, s.Description})
	}
	printf(c.App.Writer, "%s", t.Render())
	return nil
}
