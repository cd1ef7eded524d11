// Package report aggregates a run's outcomes into totals.
package report

import (
	"log"
	"strings"

	"github.com/psyger-labs/ftpferry/internal/model"
)

// Summarize folds outcomes into aggregate counts. Pure: no side effects,
// safe to call any number of times.
func Summarize(outcomes map[string]model.Outcome) model.Summary {
	s := model.Summary{Total: len(outcomes)}
	for _, out := range outcomes {
		if out.Success {
			s.Succeeded++
			s.TotalBytes += out.ByteSize
		} else {
			s.Failed++
		}
		s.TotalTime += out.Elapsed
	}
	return s
}

// Log writes the run banner through the runtime logger.
func Log(s model.Summary) {
	rule := strings.Repeat("=", 50)
	log.Print(rule)
	log.Print("PROCESSING SUMMARY")
	log.Print(rule)
	log.Printf("Total sources: %d", s.Total)
	log.Printf("Successful: %d", s.Succeeded)
	log.Printf("Failed: %d", s.Failed)
	log.Printf("Total data processed: %d bytes", s.TotalBytes)
	log.Printf("Total processing time: %.2f seconds", s.TotalTime.Seconds())
	log.Print(rule)
}
