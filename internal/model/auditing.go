package model

import "time"

// Auditing 所有实体共用的审计字段，以组合方式嵌入
type Auditing struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}
