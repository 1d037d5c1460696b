// Package cli provides output formatting for the Book Whisperer CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/bookwhisperer/bookwhisperer/internal/models"
	"github.com/bookwhisperer/bookwhisperer/pkg/utils"
)

// OutputFormat is the format for CLI output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteBookTable writes the catalog as a table to w.
func WriteBookTable(w io.Writer, books []*models.Book) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Title", "Author", "Topic"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	for _, book := range books {
		table.Append([]string{
			book.ID,
			utils.Truncate(book.Title, 60),
			utils.Truncate(book.Author, 40),
			utils.Truncate(book.Topic, 30),
		})
	}
	table.Render()
	fmt.Fprintf(w, "\n%d books\n", len(books))
}

// WriteRecommendations writes a recommendation response to w in the
// given format. Use OutputJSON for parseable output.
func WriteRecommendations(w io.Writer, response *models.RecommendResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	default:
		writeRecommendationsText(w, response)
		return nil
	}
}

func writeRecommendationsText(w io.Writer, response *models.RecommendResponse) {
	if len(response.Books) == 0 {
		fmt.Fprintln(w, "No recommendations. Every matching book may have been recommended already.")
		return
	}
	strategy := response.Strategy
	if response.FellBack {
		strategy += " (no close title match, ranked by query instead)"
	}
	fmt.Fprintf(w, "\nRecommended via %s in %dms:\n\n", strategy, response.QueryTime)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Title", "Author", "Topic"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	for _, rec := range response.Books {
		table.Append([]string{
			fmt.Sprintf("%d", rec.Rank),
			utils.Truncate(rec.Book.Title, 60),
			utils.Truncate(rec.Book.Author, 40),
			utils.Truncate(rec.Book.Topic, 30),
		})
	}
	table.Render()
}

// WriteHistory writes past recommendations to w, newest first.
func WriteHistory(w io.Writer, recs []*models.Recommendation, titles map[string]string) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No recommendations recorded yet.")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Date", "Book ID", "Title"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	for _, rec := range recs {
		title := titles[rec.BookID]
		if title == "" {
			title = "(no longer in catalog)"
		}
		table.Append([]string{rec.RecDate, rec.BookID, utils.Truncate(title, 60)})
	}
	table.Render()
	fmt.Fprintf(w, "\n%d recommendations\n", len(recs))
}
