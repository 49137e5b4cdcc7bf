package sql

// InTransaction reports whether the repository runs its statements inside a transaction.
func (c conn) InTransaction() bool {
	return c.txn != nil
}
