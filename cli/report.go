// ABOUTME: Styled terminal summaries for sync runs and ledger status
// ABOUTME: Uses lipgloss the same way for every command's closing report
package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ProxiMyti/proximyti-monday-integration/models"
	"github.com/ProxiMyti/proximyti-monday-integration/sync"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Underline(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
)

func statusStyle(status string) lipgloss.Style {
	switch status {
	case models.StatusComplete, models.SyncStatusIdle:
		return okStyle
	case models.StatusPartialChildren, models.SyncStatusSyncing:
		return warnStyle
	default:
		return errorStyle
	}
}

// printReport writes the closing summary of one sync run.
func printReport(w io.Writer, title, runID string, report *sync.Report) {
	_, _ = fmt.Fprintln(w, titleStyle.Render(title))
	if runID != "" {
		_, _ = fmt.Fprintln(w, messageStyle.Render("run "+runID))
	}
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintf(w, "  %s %d\n", okStyle.Render("✓ succeeded:"), report.Succeeded())
	_, _ = fmt.Fprintf(w, "  %s %d\n", errorStyle.Render("✗ failed:"), report.Failed())
	_, _ = fmt.Fprintf(w, "  created %d, updated %d, contacts written %d, total %d\n",
		report.Created(), report.Updated(), report.ChildrenWritten(), report.Total())

	incomplete := report.Incomplete()
	if len(incomplete) == 0 {
		return
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, headerStyle.Render("Needs attention"))
	for _, o := range incomplete {
		reason := ""
		if err := o.Joined(); err != nil {
			reason = strings.ReplaceAll(err.Error(), "\n", "; ")
		}
		_, _ = fmt.Fprintf(w, "  %s %s (%s) %s\n",
			statusStyle(o.Status).Render(o.Status), o.Name, o.Key, messageStyle.Render(reason))
	}
}

// printZoneCounts lists how many vendors landed in each zone, largest first.
func printZoneCounts(w io.Writer, counts map[string]int) {
	zonesSeen := make([]string, 0, len(counts))
	for zone := range counts {
		zonesSeen = append(zonesSeen, zone)
	}
	sort.Slice(zonesSeen, func(i, j int) bool {
		if counts[zonesSeen[i]] != counts[zonesSeen[j]] {
			return counts[zonesSeen[i]] > counts[zonesSeen[j]]
		}
		return zonesSeen[i] < zonesSeen[j]
	})

	_, _ = fmt.Fprintln(w, headerStyle.Render("Service zones"))
	for _, zone := range zonesSeen {
		_, _ = fmt.Fprintf(w, "  %-20s %d\n", zone, counts[zone])
	}
}
