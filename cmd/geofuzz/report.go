package main

import (
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/geofuzz"
)

// printSummary writes the human-readable batch report.
func printSummary(w io.Writer, s *geofuzz.Summary, batchID string) {
	p := message.NewPrinter(language.English)

	// Seeds are identifiers; keep them free of digit grouping.
	p.Fprintf(w, "batch seed %s: %d runs in %v\n",
		strconv.FormatUint(uint64(s.BatchSeed), 10), len(s.Records), s.Duration.Round(time.Millisecond))
	p.Fprintf(w, "  passed %d, failed %d, canceled %d\n", s.Passed, s.Failed, s.Canceled)
	p.Fprintf(w, "  %d shapes accepted, %s written\n", s.Results, humanize.Bytes(uint64(max(s.Bytes, 0))))
	p.Fprintf(w, "  asset cache: %d hits, %d misses\n", s.Cache.Hits, s.Cache.Misses)
	if batchID != "" {
		p.Fprintf(w, "  ledger batch %s\n", batchID)
	}
	if s.SinkErrors > 0 {
		p.Fprintf(w, "  %d records could not be stored\n", s.SinkErrors)
	}

	kinds := make([]geofuzz.ErrorKind, 0, len(s.ByKind))
	for k := range s.ByKind {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	for _, k := range kinds {
		p.Fprintf(w, "  %s errors: %d\n", k.String(), s.ByKind[k])
	}

	for _, r := range s.Failures() {
		p.Fprintf(w, "%s run %d (%s %v, shapes %s)\n", failLabel(r), r.Index, r.Kind, r.Assets, r.Shapes)
		p.Fprintf(w, "    seed %s, step %d: %s\n", strconv.FormatUint(r.Seed, 16), r.FailStep, r.Error)
	}
}

func failLabel(r geofuzz.RunRecord) string {
	if r.Status == geofuzz.StatusCanceled {
		return "CANCELED"
	}
	return "FAIL"
}
