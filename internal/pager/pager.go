// Package pager maintains a session's growing output log and derives
// bounded-size display pages from it.
//
// Pages are never stored; they are recomputed from the log and a cursor on
// every render. The cursor walks backward (newest page first), wrapping
// around so repeated renders cycle through the whole log, and every append
// resets it so the next render lands on the most recent page.
package pager

import (
	"strings"
	"sync"
	"unicode/utf8"
)

// DefaultBudget is the default per-page character budget.
const DefaultBudget = 1400

// Pager holds an append-only log of text blocks and a page cursor.
// It is safe for concurrent use.
type Pager struct {
	mu     sync.Mutex
	blocks []string
	cursor int // next page to render; -1 means "newest page"
	budget int
}

// New creates a Pager with the given per-page character budget.
// Budgets smaller than one fall back to DefaultBudget.
func New(budget int) *Pager {
	if budget < 1 {
		budget = DefaultBudget
	}
	return &Pager{cursor: -1, budget: budget}
}

// Append adds a block to the log and resets the cursor so the next render
// shows the newest page. Any previously derived page layout is implicitly
// invalidated; pages are re-derived lazily on the next render.
func (p *Pager) Append(block string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocks = append(p.blocks, block)
	p.cursor = -1
}

// Reset moves the cursor back to the newest page without touching the log.
func (p *Pager) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursor = -1
}

// Len returns the number of blocks appended so far.
func (p *Pager) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.blocks)
}

// Render re-wraps the full log into pages, returns the page under the
// cursor, and steps the cursor backward by one page (wrapping at the start).
// Repeated renders therefore visit every page once, newest first, before
// repeating. Page numbering is 1-based.
func (p *Pager) Render() (text string, page, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pages := paginate(p.joined(), p.budget)
	total = len(pages)

	idx := p.cursor
	if idx < 0 || idx >= total {
		// Sentinel cursor, or the log grew/shrank under us: show newest.
		idx = total - 1
	}

	p.cursor = idx - 1
	if p.cursor < 0 {
		p.cursor += total
	}

	return strings.TrimSpace(pages[idx]), idx + 1, total
}

// joined flattens the log into one newline-separated string, trimming each
// block the way the display expects.
func (p *Pager) joined() string {
	trimmed := make([]string, len(p.blocks))
	for i, b := range p.blocks {
		trimmed[i] = strings.TrimSpace(b)
	}
	return strings.Join(trimmed, "\n")
}

// paginate splits s into pages of at most budget bytes, preferring line
// boundaries. A single line longer than the budget is split at the rightmost
// whitespace that fits, or cut at the budget boundary if it has none.
// Always returns at least one page; an empty input yields one empty page.
func paginate(s string, budget int) []string {
	lines := strings.Split(s, "\n")

	var pages []string
	var page string
	for i := 0; i < len(lines); {
		line := lines[i]

		candidate := line
		if page != "" {
			candidate = page + "\n" + line
		}
		if len(candidate) <= budget {
			page = candidate
			i++
			continue
		}

		if page == "" {
			// The line alone exceeds the budget.
			cut := strings.LastIndexAny(line[:budget], " \t")
			if cut < 1 {
				// Hard cut, backed up so it never lands inside a
				// multibyte rune.
				cut = budget
				for cut > 0 && !utf8.RuneStart(line[cut]) {
					cut--
				}
				if cut == 0 {
					cut = budget
				}
			}
			pages = append(pages, line[:cut])
			lines[i] = strings.TrimLeft(line[cut:], " \t")
			continue
		}

		pages = append(pages, page)
		page = ""
	}

	if page != "" || len(pages) == 0 {
		pages = append(pages, page)
	}
	return pages
}
