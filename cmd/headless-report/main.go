package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/Garsondee/Waypoint/internal/logging"
	"github.com/Garsondee/Waypoint/internal/sim"
)

type runStats struct {
	scenario string
	ticks    int
	settled  int // tick the world went quiet, -1 if it never did

	firstFoundTick   int
	firstNoPathTick  int
	firstArrivalTick int
	lastArrivalTick  int

	orders   int
	rejected int
	arrivals int
	rebuilds int
	stats    sim.PathStats
	stranded map[string]struct{} // units that asked for a path and got none

	report sim.Report
	tail   []sim.Event
}

func main() {
	var scenario string
	var ticks int
	var events int
	var logLevel string
	var verbose bool
	var stopWhenSettled bool

	flag.StringVar(&scenario, "scenario", "all", "scenario file, embedded name, or \"all\"")
	flag.IntVar(&ticks, "ticks", 1800, "ticks per run")
	flag.IntVar(&events, "events", 20, "trailing events printed per run")
	flag.StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flag.BoolVar(&verbose, "verbose", false, "record per-tick positions in the event log")
	flag.BoolVar(&stopWhenSettled, "until-settled", false, "stop a run once nothing is moving")
	flag.Parse()

	if ticks <= 0 {
		fmt.Println("error: -ticks must be > 0")
		return
	}
	logger, err := logging.New(os.Stderr, logLevel)
	if err != nil {
		log.Fatal(err)
	}

	names := []string{scenario}
	if scenario == "all" {
		names = sim.ScenarioNames()
	}

	fmt.Printf("=== Headless Pathfinding Report ===\n")
	fmt.Printf("scenarios=%s ticks=%d until_settled=%v\n\n", strings.Join(names, ","), ticks, stopWhenSettled)

	all := make([]runStats, 0, len(names))
	for _, name := range names {
		sc, err := sim.LoadScenario(name)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			os.Exit(1)
		}
		w, err := sim.NewWorldFromScenario(sc, sim.WithLogger(logger), sim.WithVerbose(verbose))
		if err != nil {
			fmt.Printf("error: %v\n", err)
			os.Exit(1)
		}
		rs := runScenario(sc.Name, w, ticks, stopWhenSettled, events)
		all = append(all, rs)
		printRun(os.Stdout, rs)
	}
	printAggregate(os.Stdout, all)
}

func runScenario(name string, w *sim.World, ticks int, stopWhenSettled bool, tail int) runStats {
	settled := -1
	for range ticks {
		w.Step()
		if !quiet(w) {
			settled = -1
			continue
		}
		if settled < 0 {
			settled = w.Tick()
		}
		if stopWhenSettled {
			break
		}
	}
	return summarize(name, w, settled, tail)
}

// quiet reports whether nothing is moving and no order is still scheduled.
func quiet(w *sim.World) bool {
	return w.Pending() == 0 && w.Settled()
}

func summarize(name string, w *sim.World, settled, tail int) runStats {
	entries := w.Log.Entries()
	stranded := map[string]struct{}{}
	for _, e := range w.Log.Filter(sim.CatPath, "no_path") {
		stranded[e.Entity] = struct{}{}
	}
	return runStats{
		scenario:         name,
		ticks:            w.Tick(),
		settled:          settled,
		firstFoundTick:   firstTick(entries, sim.CatPath, "found", ""),
		firstNoPathTick:  firstTick(entries, sim.CatPath, "no_path", ""),
		firstArrivalTick: firstTick(entries, sim.CatMove, "arrived", ""),
		lastArrivalTick:  lastTick(entries, sim.CatMove, "arrived"),
		orders:           countOrders(entries),
		rejected:         w.Log.CountCategory(sim.CatOrder, "rejected"),
		arrivals:         w.Log.CountCategory(sim.CatMove, "arrived"),
		rebuilds:         w.Rebuilds,
		stats:            w.Stats,
		stranded:         stranded,
		report:           w.Report(),
		tail:             w.Log.Tail(tail),
	}
}

func countOrders(entries []sim.Event) int {
	n := 0
	for _, e := range entries {
		if e.Category == sim.CatOrder && e.Key != "rejected" && e.Key != "error" {
			n++
		}
	}
	return n
}

func firstTick(entries []sim.Event, category, key, contains string) int {
	for _, e := range entries {
		if e.Category != category || e.Key != key {
			continue
		}
		if contains == "" || strings.Contains(e.Value, contains) {
			return e.Tick
		}
	}
	return -1
}

func lastTick(entries []sim.Event, category, key string) int {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Category == category && entries[i].Key == key {
			return entries[i].Tick
		}
	}
	return -1
}

func printRun(out io.Writer, rs runStats) {
	fmt.Fprintf(out, "--- Run %s (ticks=%d settled=%d) ---\n", rs.scenario, rs.ticks, rs.settled)
	fmt.Fprintf(out, "phase_markers: first_found=%d first_no_path=%d first_arrival=%d last_arrival=%d\n",
		rs.firstFoundTick, rs.firstNoPathTick, rs.firstArrivalTick, rs.lastArrivalTick)
	fmt.Fprintf(out, "event_totals: orders=%d rejected=%d arrivals=%d rebuilds=%d\n",
		rs.orders, rs.rejected, rs.arrivals, rs.rebuilds)
	fmt.Fprintf(out, "stranded_labels: %s\n", joinSet(rs.stranded))
	fmt.Fprint(out, rs.report.String())
	if len(rs.tail) > 0 {
		fmt.Fprintln(out, "events:")
		for _, e := range rs.tail {
			fmt.Fprintf(out, "  %s\n", e)
		}
	}
	fmt.Fprintln(out)
}

func printAggregate(out io.Writer, all []runStats) {
	var total sim.PathStats
	arrivals, rejected, rebuilds := 0, 0, 0
	settledTicks := make([]int, 0, len(all))
	strandedGlobal := map[string]struct{}{}
	for _, rs := range all {
		total.Requests += rs.stats.Requests
		total.Found += rs.stats.Found
		total.AlreadyThere += rs.stats.AlreadyThere
		total.NoPath += rs.stats.NoPath
		total.Substituted += rs.stats.Substituted
		total.Expanded += rs.stats.Expanded
		arrivals += rs.arrivals
		rejected += rs.rejected
		rebuilds += rs.rebuilds
		if rs.settled >= 0 {
			settledTicks = append(settledTicks, rs.settled)
		}
		for label := range rs.stranded {
			strandedGlobal[rs.scenario+"/"+label] = struct{}{}
		}
	}

	fmt.Fprintln(out, "=== Aggregate ===")
	fmt.Fprintf(out, "runs=%d\n", len(all))
	fmt.Fprintf(out, "paths: requests=%d found=%d already_there=%d no_path=%d substituted=%d\n",
		total.Requests, total.Found, total.AlreadyThere, total.NoPath, total.Substituted)
	fmt.Fprintf(out, "avg_expanded_per_search=%s\n", ratio(total.Expanded, total.Requests))
	fmt.Fprintf(out, "avg_per_run: arrivals=%.1f rejected=%.1f rebuilds=%.1f\n",
		avg(arrivals, len(all)), avg(rejected, len(all)), avg(rebuilds, len(all)))
	fmt.Fprintf(out, "avg_settle_tick=%s (%d/%d runs settled)\n", avgTickString(settledTicks), len(settledTicks), len(all))
	fmt.Fprintf(out, "stranded=%d [%s]\n", len(strandedGlobal), joinSet(strandedGlobal))
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func ratio(num, den int) string {
	if den <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", float64(num)/float64(den))
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}

func joinSet(s map[string]struct{}) string {
	if len(s) == 0 {
		return "none"
	}
	labels := make([]string, 0, len(s))
	for k := range s {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return strings.Join(labels, ",")
}
