package repository

// Query narrows FindAll to one page. A zero Limit returns every record and a
// nil Paginator starts from the first id.
type Query struct {
	Limit     int
	Paginator *Paginator
}

func NewQuery() *Query {
	return &Query{}
}

// ApplyPagination sets the page size, capped at the maximum, and the
// starting point encoded in token. Non-positive limits leave the query unbounded.
func (q *Query) ApplyPagination(limit int32, token string) error {
	if limit > 0 {
		q.Limit = min(maxPaginationLimit, int(limit))
	}
	if token == "" {
		return nil
	}

	paginator, err := DecodePageToken(token)
	if err != nil {
		return err
	}
	q.Paginator = paginator
	return nil
}
