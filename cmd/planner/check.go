package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"finitefield.org/trip-planner/internal/itinerary"
)

var (
	checkOK   = color.New(color.FgGreen).SprintFunc()
	checkWarn = color.New(color.FgYellow).SprintFunc()
	checkFail = color.New(color.FgRed).SprintFunc()
)

var dayFilePattern = regexp.MustCompile(`^day([1-9][0-9]*)\.json$`)

// errCheckFailed is returned when at least one day document is unusable.
var errCheckFailed = errors.New("one or more day documents failed to load")

type dayReport struct {
	Day    int
	File   string
	Cards  int
	Title  string
	Err    error
	Absent bool
}

func newCheckCmd() *cobra.Command {
	var o flagOverrides
	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "Validate day documents",
		Long: `Check parses every day<N>.json in dir (default: <data-dir>/days) and reports
its card count. Days without cards and days missing from the selector range are
warnings; unreadable or malformed documents fail the check.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(o)
			if err != nil {
				return err
			}
			dir := filepath.Join(cfg.DataDir, "days")
			if len(args) == 1 {
				dir = args[0]
			}
			reports, err := checkDir(dir, cfg.Days)
			if err != nil {
				return err
			}
			return printReports(cmd.OutOrStdout(), dir, reports)
		},
	}
	o.register(cmd)
	return cmd
}

// checkDir decodes every day document in dir and adds an absent entry for
// each selector day without a file.
func checkDir(dir string, selectorDays int) ([]dayReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	seen := map[int]bool{}
	var reports []dayReport
	for _, e := range entries {
		m := dayFilePattern.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		seen[day] = true
		r := dayReport{Day: day, File: e.Name()}
		body, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err == nil {
			var doc itinerary.DayDocument
			if doc, err = itinerary.DecodeDay(body); err == nil {
				r.Cards = len(doc.Cards)
				r.Title = doc.Title
			}
		}
		r.Err = err
		reports = append(reports, r)
	}
	for d := 1; d <= selectorDays; d++ {
		if !seen[d] {
			reports = append(reports, dayReport{Day: d, File: itinerary.DayFile(d), Absent: true})
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Day < reports[j].Day })
	return reports, nil
}

func printReports(w io.Writer, dir string, reports []dayReport) error {
	fmt.Fprintf(w, "Checking %s\n", dir)
	failed := 0
	for _, r := range reports {
		switch {
		case r.Absent:
			fmt.Fprintf(w, "  %s %-12s missing\n", checkWarn("WARN"), r.File)
		case r.Err != nil:
			failed++
			fmt.Fprintf(w, "  %s %-12s %v\n", checkFail("FAIL"), r.File, r.Err)
		case r.Cards == 0:
			fmt.Fprintf(w, "  %s %-12s no cards\n", checkWarn("WARN"), r.File)
		default:
			fmt.Fprintf(w, "  %s %-12s %d cards  %s\n", checkOK("OK"), r.File, r.Cards, r.Title)
		}
	}
	if failed > 0 {
		fmt.Fprintf(w, "%s: %d of %d documents\n", checkFail("failed"), failed, len(reports))
		return errCheckFailed
	}
	return nil
}
