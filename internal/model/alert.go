package model

import "time"

// AlertType はアラートの発生種別を表す。
type AlertType string

const (
	AlertTypePredictive AlertType = "predictive"
	AlertTypeWarning    AlertType = "warning"
	AlertTypeCritical   AlertType = "critical"
)

// Valid は定義済みのアラート種別かどうかを返す。
func (t AlertType) Valid() bool {
	switch t {
	case AlertTypePredictive, AlertTypeWarning, AlertTypeCritical:
		return true
	default:
		return false
	}
}

// AlertSeverity はアラートの重大度を表す。
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityHigh     AlertSeverity = "high"
	SeverityMedium   AlertSeverity = "medium"
	SeverityLow      AlertSeverity = "low"
)

// Valid は定義済みの重大度かどうかを返す。
func (s AlertSeverity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	default:
		return false
	}
}

// AlertStatus はアラートの対応状況を表す。
// active -> acknowledged -> resolved、または active -> resolved の順にのみ遷移する。
type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "active"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
)

// Valid は定義済みの対応状況かどうかを返す。
func (s AlertStatus) Valid() bool {
	switch s {
	case AlertStatusActive, AlertStatusAcknowledged, AlertStatusResolved:
		return true
	default:
		return false
	}
}

// CanTransitionTo は現在の状態から指定状態への遷移が許可されるかを返す。
func (s AlertStatus) CanTransitionTo(next AlertStatus) bool {
	switch next {
	case AlertStatusAcknowledged:
		return s == AlertStatusActive
	case AlertStatusResolved:
		return s == AlertStatusActive || s == AlertStatusAcknowledged
	default:
		return false
	}
}

// Alert は資産に関するアラートを表す。
type Alert struct {
	ID             string
	AssetID        string
	AssetName      string
	Type           AlertType
	Severity       AlertSeverity
	Title          string
	Description    string
	Status         AlertStatus
	CreatedAt      time.Time
	AcknowledgedAt *time.Time
	AcknowledgedBy *string
	ResolvedAt     *time.Time
	ResolvedBy     *string
}
