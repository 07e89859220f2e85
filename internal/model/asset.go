package model

import "time"

// AssetType はインフラ資産の種別を表す。
type AssetType string

const (
	AssetTypeBarrier AssetType = "barrier"
	AssetTypeLock    AssetType = "lock"
	AssetTypeBridge  AssetType = "bridge"
	AssetTypeRoad    AssetType = "road"
)

// Valid は定義済みの資産種別かどうかを返す。
func (t AssetType) Valid() bool {
	switch t {
	case AssetTypeBarrier, AssetTypeLock, AssetTypeBridge, AssetTypeRoad:
		return true
	default:
		return false
	}
}

// AssetStatus は資産の稼働状態を表す。
type AssetStatus string

const (
	AssetStatusOperational AssetStatus = "operational"
	AssetStatusMaintenance AssetStatus = "maintenance"
	AssetStatusWarning     AssetStatus = "warning"
	AssetStatusCritical    AssetStatus = "critical"
)

// Valid は定義済みの稼働状態かどうかを返す。
func (s AssetStatus) Valid() bool {
	switch s {
	case AssetStatusOperational, AssetStatusMaintenance, AssetStatusWarning, AssetStatusCritical:
		return true
	default:
		return false
	}
}

// Asset は監視対象のインフラ資産（防潮堤、閘門、橋梁、道路）を表す。
type Asset struct {
	ID              string
	Name            string
	Type            AssetType
	Location        string
	Latitude        float64
	Longitude       float64
	Status          AssetStatus
	HealthScore     int
	LastInspection  *time.Time
	NextMaintenance *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AssetFilter は資産一覧の絞り込み条件。空文字のフィールドは条件に含めない。
type AssetFilter struct {
	Type   AssetType
	Status AssetStatus
}
