// Package listing drives paginated, sortable tables whose rows are fetched
// page by page from a backend.
//
// # Controller
//
// A Controller holds the table state (sort column, direction, page, page
// size) and turns user interactions into fetch requests:
//
//	c := listing.New(listing.Options[applications.Application]{
//		Columns:            columns,
//		DefaultOrderBy:     "updatedAt",
//		DefaultRowsPerPage: 20,
//		Fetcher: func(d listing.FetchDescriptor, force bool) {
//			go load(d)  // calls c.SetData when the page arrives
//		},
//	})
//	c.Sort("studyName")
//	c.NextPage()
//	c.Refresh()
//
// A fetch is skipped when its descriptor equals the last one issued, unless
// forced. Refresh always forces.
//
// Without a Fetcher the controller sorts and pages the rows it was given.
//
// # Server side
//
// ParseDescriptor reads a FetchDescriptor from query parameters so list
// endpoints accept the same paging the controller produces.
package listing
