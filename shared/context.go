package shared

type ContextKey string

const (
	CoinKey    ContextKey = "coin"
	DatasetKey ContextKey = "dataset"
	TableKey   ContextKey = "tableName"
)
