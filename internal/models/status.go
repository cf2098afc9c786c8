package models

import (
	"time"

	"gorm.io/gorm"
)

// Коды состояний цикла отстрела (журнал статусов, не источник истины).
const (
	StateInit              = "init"
	StatePermissionQueried = "permission-queried"
	StateSyncQueried       = "sync-queried"
	StateActuating         = "actuating"
	StateReleased          = "released"
)

// BuoyStatus — последняя известная фаза буя, last-write-wins.
type BuoyStatus struct {
	gorm.Model
	BuoyID     string    `gorm:"column:buoy_id;uniqueIndex"`
	State      string    `gorm:"column:state"`
	LastUpdate time.Time `gorm:"column:last_update"`
}

// BuoyStatusHistory — append-only история переходов (телеметрия).
type BuoyStatusHistory struct {
	gorm.Model
	BuoyID string `gorm:"column:buoy_id;index"`
	State  string `gorm:"column:state"`
}
