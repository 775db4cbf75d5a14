package constants

type ContextKey string

const (
	PoolKey     ContextKey = "pool"
	TxKey       ContextKey = "tx"
	TenantIDKey ContextKey = "tenant_id"
	UserKey     ContextKey = "user"
	ParamsKey   ContextKey = "params"
	LoggerKey   ContextKey = "logger"
	SessionKey  ContextKey = "session"
)
