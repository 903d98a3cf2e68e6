package diff

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Print writes the §6 statistics report to w, formatting counts through a
// locale-aware printer keyed by lang (e.g. "en", "de", ""), matching the
// reference stack's convention of formatting numbers by an operator-chosen
// language tag rather than assuming a fixed locale.
func (s Stats) Print(w io.Writer, lang string) error {
	p := message.NewPrinter(language.Make(lang))

	if _, err := p.Fprintf(w, "left rows:    %d\n", s.LeftCount); err != nil {
		return err
	}
	if _, err := p.Fprintf(w, "right rows:   %d\n", s.RightCount); err != nil {
		return err
	}
	if _, err := p.Fprintf(w, "factor:       %d\n", s.Factor); err != nil {
		return err
	}
	if _, err := p.Fprintf(w, "levels:       %d\n", s.Levels); err != nil {
		return err
	}
	if _, err := p.Fprintf(w, "updates:      %d\n", s.Updates); err != nil {
		return err
	}
	if _, err := p.Fprintf(w, "inserts:      %d\n", s.Inserts); err != nil {
		return err
	}
	if _, err := p.Fprintf(w, "deletes:      %d\n", s.Deletes); err != nil {
		return err
	}
	if _, err := p.Fprintf(w, "total diffs:  %d\n", s.Total()); err != nil {
		return err
	}
	if _, err := p.Fprintf(w, "checksum:     %s\n", s.ChecksumTime); err != nil {
		return err
	}
	if _, err := p.Fprintf(w, "summary:      %s\n", s.SummaryTime); err != nil {
		return err
	}
	if _, err := p.Fprintf(w, "merge:        %s\n", s.MergeTime); err != nil {
		return err
	}
	_, err := p.Fprintf(w, "bulk:         %s\n", s.BulkTime)
	return err
}
