package search

import "errors"

// ErrNoSearchService is reported in the status bar when the view was built
// without a search port.
var ErrNoSearchService = errors.New("search view: no search service")
