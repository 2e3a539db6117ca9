package review

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"cinematch/internal/language"
	"cinematch/internal/services"
)

// Terminal prompts an operator over a line-oriented reader and writer.
// Lines are read by a single goroutine so a cancelled prompt never leaves a
// half-consumed read behind.
type Terminal struct {
	in  io.Reader
	out io.Writer

	once    sync.Once
	lines   chan string
	readErr error
}

// NewTerminal builds a Terminal. Typical use passes os.Stdin and os.Stderr.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out, lines: make(chan string)}
}

func (t *Terminal) start() {
	t.once.Do(func() {
		go func() {
			scanner := bufio.NewScanner(t.in)
			for scanner.Scan() {
				t.lines <- scanner.Text()
			}
			t.readErr = scanner.Err()
			close(t.lines)
		}()
	})
}

// Review prints the shown candidates and waits for "1".."n" or "s".
func (t *Terminal) Review(ctx context.Context, req Request) (Decision, error) {
	shown := req.Shown()
	if len(shown) == 0 {
		return Declined{}, nil
	}
	t.start()

	fmt.Fprintf(t.out, "\n%s\n", req.Filename)
	if req.Title != "" {
		query := req.Title
		if req.Year > 0 {
			query += " (" + strconv.Itoa(req.Year) + ")"
		}
		fmt.Fprintf(t.out, "Parsed as: %s\n", query)
	}
	if req.Reason != "" {
		fmt.Fprintf(t.out, "Needs review: %s\n", req.Reason)
	}
	fmt.Fprintln(t.out, renderCandidates(req))

	for {
		fmt.Fprintf(t.out, "Select 1-%d or s to skip: ", len(shown))
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(t.out)
			return nil, ctx.Err()
		case l, ok := <-t.lines:
			if !ok {
				cause := t.readErr
				if cause == nil {
					cause = io.EOF
				}
				return nil, services.Wrap(services.ErrReviewUnavailable, "review", "read answer", "input closed", cause)
			}
			line = l
		}

		answer := strings.ToLower(strings.TrimSpace(line))
		if answer == "s" || answer == "skip" {
			return Declined{}, nil
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(shown) {
			return Chosen{Candidate: shown[n-1].Candidate, Confidence: ManualConfidence}, nil
		}
		fmt.Fprintf(t.out, "Invalid choice %q.\n", line)
	}
}

func renderCandidates(req Request) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Title", "Year", "Original title", "Language", "Score", "TMDB"})
	for i, sc := range req.Shown() {
		c := sc.Candidate
		year := ""
		if c.Year > 0 {
			year = strconv.Itoa(c.Year)
		}
		original := ""
		if c.OriginalTitle != c.Title {
			original = c.OriginalTitle
		}
		lang := ""
		if c.OriginalLanguage != "" {
			lang = language.DisplayName(c.OriginalLanguage)
		}
		tw.AppendRow(table.Row{i + 1, c.Title, year, original, lang, fmt.Sprintf("%.2f", sc.Score), c.ID})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	return tw.Render()
}
