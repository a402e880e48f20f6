package dto

type HealthInfo struct {
	Status    string `json:"status"`
	PoolSize  int64  `json:"pool_size"`
	PoolEmpty bool   `json:"pool_empty"`
}
