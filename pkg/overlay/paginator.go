package overlay

// Paginator tracks the active page (1-based) of a document. Requests outside
// [1, Count] are clamped. With no pages loaded it stays on page 1.
type Paginator struct {
	current int
	count   int
}

func NewPaginator(count int) *Paginator {
	p := &Paginator{current: 1}
	p.SetCount(count)
	return p
}

func (p *Paginator) Current() int {
	return p.current
}

func (p *Paginator) Count() int {
	return p.count
}

// SetCount installs a new page count and returns to the first page.
func (p *Paginator) SetCount(count int) {
	if count < 0 {
		count = 0
	}
	p.count = count
	p.current = 1
}

// GoTo moves to page n, clamped, and returns the resulting page.
func (p *Paginator) GoTo(n int) int {
	if p.count == 0 {
		return p.current
	}
	if n < 1 {
		n = 1
	}
	if n > p.count {
		n = p.count
	}
	p.current = n
	return p.current
}

func (p *Paginator) Next() int {
	return p.GoTo(p.current + 1)
}

func (p *Paginator) Prev() int {
	return p.GoTo(p.current - 1)
}
