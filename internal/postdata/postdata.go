// Package postdata collects the statements that can only run after every
// table has been created and loaded: typecasts, foreign keys, sequences,
// column comments and full text indexes.
package postdata

import (
	"fmt"
	"io"
	"strings"
)

// Section groups deferred statements. Sections are written in declaration order.
type Section int

const (
	SectionTypecasts Section = iota
	SectionForeignKeys
	SectionSequences
	SectionComments
	SectionFulltext

	sectionCount
)

// Sections returns every section in output order.
func Sections() []Section {
	return []Section{
		SectionTypecasts,
		SectionForeignKeys,
		SectionSequences,
		SectionComments,
		SectionFulltext,
	}
}

// String returns the machine-readable section key.
func (s Section) String() string {
	switch s {
	case SectionTypecasts:
		return "typecasts"
	case SectionForeignKeys:
		return "foreign_keys"
	case SectionSequences:
		return "sequences"
	case SectionComments:
		return "comments"
	case SectionFulltext:
		return "fulltext"
	default:
		return fmt.Sprintf("section(%d)", int(s))
	}
}

// Title returns the heading written above the section.
func (s Section) Title() string {
	switch s {
	case SectionTypecasts:
		return "Typecasts"
	case SectionForeignKeys:
		return "Foreign keys"
	case SectionSequences:
		return "Sequences"
	case SectionComments:
		return "Comments"
	case SectionFulltext:
		return "Full Text keys"
	default:
		return s.String()
	}
}

// PostData holds deferred statements per section, in insertion order.
type PostData struct {
	sections [sectionCount][]string
}

// New returns an empty PostData.
func New() *PostData {
	return &PostData{}
}

// Add appends stmt to sec. Surrounding whitespace and a trailing semicolon
// are dropped; the writer adds its own terminator.
func (p *PostData) Add(sec Section, stmt string) {
	if sec < 0 || sec >= sectionCount {
		return
	}
	stmt = strings.TrimSuffix(strings.TrimSpace(stmt), ";")
	if stmt = strings.TrimSpace(stmt); stmt == "" {
		return
	}
	p.sections[sec] = append(p.sections[sec], stmt)
}

func (p *PostData) AddCast(stmt string)       { p.Add(SectionTypecasts, stmt) }
func (p *PostData) AddForeignKey(stmt string) { p.Add(SectionForeignKeys, stmt) }
func (p *PostData) AddSequence(stmt string)   { p.Add(SectionSequences, stmt) }
func (p *PostData) AddComment(stmt string)    { p.Add(SectionComments, stmt) }
func (p *PostData) AddFulltext(stmt string)   { p.Add(SectionFulltext, stmt) }

// Statements returns the statements queued in sec.
func (p *PostData) Statements(sec Section) []string {
	if sec < 0 || sec >= sectionCount {
		return nil
	}
	return p.sections[sec]
}

// Len returns the number of statements in sec.
func (p *PostData) Len(sec Section) int {
	return len(p.Statements(sec))
}

// Total returns the number of statements across all sections.
func (p *PostData) Total() int {
	n := 0
	for i := range p.sections {
		n += len(p.sections[i])
	}
	return n
}

// Counts returns the statement count per section key.
func (p *PostData) Counts() map[string]int {
	counts := make(map[string]int, sectionCount)
	for _, sec := range Sections() {
		counts[sec.String()] = p.Len(sec)
	}
	return counts
}

// Merge appends every statement of other after the statements already held,
// section by section.
func (p *PostData) Merge(other *PostData) {
	if other == nil {
		return
	}
	for i := range other.sections {
		p.sections[i] = append(p.sections[i], other.sections[i]...)
	}
}

// WriteTo writes each section as a "-- Title --" heading followed by its
// statements, one per line and terminated by a semicolon. Empty sections
// still get their heading.
func (p *PostData) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, sec := range Sections() {
		n, err := fmt.Fprintf(w, "\n-- %s --\n", sec.Title())
		total += int64(n)
		if err != nil {
			return total, err
		}
		for _, stmt := range p.sections[sec] {
			n, err = io.WriteString(w, stmt+";\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}
