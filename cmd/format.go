package main

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/sells-group/hotleads/internal/model"
	"github.com/sells-group/hotleads/internal/pipeline"
)

func formatLeads(w io.Writer, snap model.Snapshot) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSCORE\tDAYS\tNAME\tPHONE\tADDRESS\tOPENED\tOUTCOME")
	for i, l := range snap.Leads {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1, l.Score, l.DaysSinceOpening, l.Name, l.Phone, l.Address, l.OpeningDate, l.Outcome)
	}
	tw.Flush() //nolint:errcheck

	fmt.Fprintf(w, "\n%d leads for %s\n", len(snap.Leads), snap.PostalCode)
	fmt.Fprintf(w, "SMS: %s\n", snap.SMSTemplate())
}

func formatChanges(w io.Writer, changes []pipeline.Change) {
	if len(changes) == 0 {
		fmt.Fprintln(w, "No outcome changes.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tID\tFROM\tTO")
	for _, c := range changes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.Row+1, c.ID, c.Previous, c.Outcome)
	}
	tw.Flush() //nolint:errcheck
}

func formatOutcomes(w io.Writer, outcomes map[string]model.Outcome) {
	ids := make([]string, 0, len(outcomes))
	for id := range outcomes {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tOUTCOME")
	for _, id := range ids {
		fmt.Fprintf(tw, "%s\t%s\n", id, outcomes[id])
	}
	tw.Flush() //nolint:errcheck
}
