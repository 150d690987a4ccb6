package pagination

import (
	"strconv"
	"strings"
)

const (
	// FirstPage is the page requested when none is provided.
	FirstPage = 1
	// WindowSize is how many numbered links surround the current page.
	WindowSize = 2
	// MaxPage is the highest page a visitor can ask for.
	MaxPage = 10000
)

// Link is one entry of the rendered pager.
type Link struct {
	Label  string
	Page   int
	Active bool
}

// Pager describes the controls rendered under a product listing. The upstream
// API does not report a page count, so Next is offered while a page has items.
type Pager struct {
	Current int
	Prev    int
	Next    int
	Links   []Link
}

// ParsePage reads a page number from a query value, falling back to FirstPage
// and capping at MaxPage.
func ParsePage(value string) int {
	page, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || page < FirstPage {
		return FirstPage
	}
	return Clamp(page)
}

// Clamp bounds page to [FirstPage, MaxPage].
func Clamp(page int) int {
	switch {
	case page < FirstPage:
		return FirstPage
	case page > MaxPage:
		return MaxPage
	}
	return page
}

// Build returns the pager for current. hasItems reports whether the current
// page returned anything.
func Build(current int, hasItems bool) Pager {
	current = Clamp(current)
	p := Pager{Current: current}
	if current > FirstPage {
		p.Prev = current - 1
	}
	last := current
	if hasItems && current < MaxPage {
		p.Next = current + 1
		last = min(current+WindowSize, MaxPage)
	}
	first := current - WindowSize
	if first < FirstPage {
		first = FirstPage
	}
	for page := first; page <= last; page++ {
		p.Links = append(p.Links, Link{
			Label:  strconv.Itoa(page),
			Page:   page,
			Active: page == current,
		})
	}
	return p
}
