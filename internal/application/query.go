package application

// ActivityFilter narrows a journal query. Zero values match everything.
type ActivityFilter struct {
	ChainID   *uint64
	Wallet    string
	Operation string
	TxHash    string
	Limit     int
}

const (
	defaultActivityLimit = 100
	maxActivityLimit     = 1000
)

// NormalizeLimit clamps limit to the journal's page bounds.
func NormalizeLimit(limit int) int {
	if limit <= 0 || limit > maxActivityLimit {
		return defaultActivityLimit
	}
	return limit
}
