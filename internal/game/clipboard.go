package game

import (
	"strings"

	"github.com/atotto/clipboard"
)

// reportTail is how many recent events go under the copied report.
const reportTail = 40

// reportText is the world report followed by the latest events.
func (g *Game) reportText() string {
	var b strings.Builder
	if g.scenario != nil {
		b.WriteString("scenario=" + g.scenario.Name + "\n")
	}
	b.WriteString(g.world.Report().String())
	b.WriteString("events:\n")
	for _, e := range g.world.Log.Tail(reportTail) {
		b.WriteString("  ")
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// copyReport puts reportText on the system clipboard.
func (g *Game) copyReport() {
	if err := clipboard.WriteAll(g.reportText()); err != nil {
		g.logger.Warn("clipboard write failed", "err", err)
		g.setStatus("clipboard unavailable")
		return
	}
	g.setStatus("report copied")
}
