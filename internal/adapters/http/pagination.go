package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Saved-route lists are small; the defaults keep one page comfortably
// above a realistic list size while still bounding the response.
const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// PaginatedResponse wraps a list payload with its page window.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination is an offset/limit window over a list of Total items.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// ParsePagination reads the offset/limit query parameters, clamping them
// to sane bounds. Total is filled in by the caller.
func ParsePagination(c *fiber.Ctx) Pagination {
	p := Pagination{
		Offset: c.QueryInt("offset", 0),
		Limit:  c.QueryInt("limit", defaultPageLimit),
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 || p.Limit > maxPageLimit {
		p.Limit = defaultPageLimit
	}
	return p
}

// Window returns the [start, end) slice bounds of the page within a list
// of p.Total items. An offset past the end yields an empty window.
func (p Pagination) Window() (int, int) {
	if p.Offset >= p.Total {
		return 0, 0
	}
	end := p.Offset + p.Limit
	if end > p.Total {
		end = p.Total
	}
	return p.Offset, end
}

// SetLinkHeaders advertises the page neighbours as RFC 8288 Link headers
// on the current request path.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	base := c.Path()
	link := func(offset int, rel string) string {
		return fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="%s"`, base, offset, p.Limit, rel)
	}

	links := []string{link(0, "first")}
	if p.Offset > 0 {
		prev := p.Offset - p.Limit
		if prev < 0 {
			prev = 0
		}
		links = append(links, link(prev, "prev"))
	}
	if p.Offset+p.Limit < p.Total {
		links = append(links, link(p.Offset+p.Limit, "next"))
	}
	last := p.Total - p.Limit
	if last < 0 {
		last = 0
	}
	links = append(links, link(last, "last"))

	c.Set("Link", strings.Join(links, ", "))
}
