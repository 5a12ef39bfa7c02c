package goals

import (
	"fmt"
	"text/tabwriter"

	"github.com/julianstephens/streaks/internal/cli"
	"github.com/julianstephens/streaks/internal/constants"
	"github.com/julianstephens/streaks/internal/stats"
)

type GoalListCmd struct{}

func (c *GoalListCmd) Run(ctx *cli.Context) error {
	goals, err := ctx.Service.Goals(ctx.Ctx())
	if err != nil {
		return fmt.Errorf("failed to list goals: %w", err)
	}
	if len(goals) == 0 {
		ctx.Printf("No goals yet. Add one with 'streaks goal add'.\n")
		return nil
	}

	now := ctx.Service.Now()
	w := tabwriter.NewWriter(ctx.Writer(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tFREQUENCY\tNET\tSTREAK\tCREATED")
	for _, g := range goals {
		events, err := ctx.Service.Events(ctx.Ctx(), g.ID)
		if err != nil {
			return fmt.Errorf("failed to load events for %q: %w", g.Name, err)
		}
		agg := stats.Compute(events, now)
		name := g.Name
		if g.Icon != "" {
			name = g.Icon + " " + name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%+d\t%d\t%s\n",
			g.ID, name, g.Frequency, agg.NetScore, agg.Streak,
			g.CreatedAt.In(now.Location()).Format(constants.DateFormat))
	}
	return w.Flush()
}
