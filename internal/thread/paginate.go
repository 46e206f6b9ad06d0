package thread

// Window is one page of the root-level paginator. It positions over root
// comments only: a root's reply subtree is always rendered in full once the
// root is in the window, so reply counts never shift which page a root
// lands on.
type Window struct {
	Page        int
	PerPage     int
	Offset      int
	TotalPages  int
	HasPrevious bool
	HasNext     bool
}

// PageWindow computes the window over totalRoots roots ordered oldest-first.
// requestedPage <= 0 means no explicit page was asked for: the window
// defaults to the last page, surfacing the most recent discussion first.
// An out-of-range request clamps to the nearest valid page.
func PageWindow(totalRoots, requestedPage, perPage int) Window {
	if perPage <= 0 {
		perPage = 25
	}

	totalPages := (totalRoots + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}

	page := requestedPage
	if page <= 0 {
		page = totalPages
	}
	if page > totalPages {
		page = totalPages
	}

	return Window{
		Page:        page,
		PerPage:     perPage,
		Offset:      (page - 1) * perPage,
		TotalPages:  totalPages,
		HasPrevious: page > 1,
		HasNext:     page < totalPages,
	}
}
