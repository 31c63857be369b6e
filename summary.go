package geofuzz

import "time"

// Exit codes of the harness process.
const (
	ExitOK     = 0 // every run passed
	ExitFailed = 1 // the batch completed but at least one run failed
	ExitSetup  = 2 // unrecoverable setup error
)

// Summary aggregates the records of one batch.
type Summary struct {
	BatchSeed uint32
	Records   []RunRecord // ordered by run index

	Passed   int
	Failed   int
	Canceled int
	ByKind   map[ErrorKind]int

	Results    int   // accepted shapes across passed and failed runs
	Bytes      int64 // bytes written
	SinkErrors int
	Cache      CacheStats
	Duration   time.Duration
}

func newSummary(seed uint32, records []RunRecord, d time.Duration) *Summary {
	s := &Summary{
		BatchSeed: seed,
		Records:   records,
		ByKind:    make(map[ErrorKind]int),
		Duration:  d,
	}
	for _, r := range records {
		switch r.Status {
		case StatusPassed:
			s.Passed++
		case StatusCanceled:
			s.Canceled++
		default:
			s.Failed++
		}
		if r.ErrorKind != 0 {
			s.ByKind[r.ErrorKind]++
		}
		s.Results += r.Results
		s.Bytes += r.Bytes
	}
	return s
}

// Failures returns the records of runs that did not pass.
func (s *Summary) Failures() []RunRecord {
	var out []RunRecord
	for _, r := range s.Records {
		if r.Failed() {
			out = append(out, r)
		}
	}
	return out
}

// ExitCode returns ExitOK when every run passed and ExitFailed otherwise.
func (s *Summary) ExitCode() int {
	if s.Failed > 0 || s.Canceled > 0 {
		return ExitFailed
	}
	return ExitOK
}
