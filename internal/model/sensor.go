package model

import "time"

// SensorKind は計測センサーの種類を表す。
type SensorKind string

const (
	SensorWaterLevel  SensorKind = "water_level"
	SensorPressure    SensorKind = "pressure"
	SensorTemperature SensorKind = "temperature"
	SensorVibration   SensorKind = "vibration"
	SensorWindSpeed   SensorKind = "wind_speed"
)

// SensorStatus は計測値から導出される状態を表す。
type SensorStatus string

const (
	SensorStatusNormal   SensorStatus = "normal"
	SensorStatusWarning  SensorStatus = "warning"
	SensorStatusCritical SensorStatus = "critical"
)

// SensorProfile はセンサー種別ごとの単位、値域、閾値を定義する。
// Value >= Critical で critical、Value >= Warning で warning と判定する。
type SensorProfile struct {
	Unit     string
	Min      float64
	Max      float64
	Warning  float64
	Critical float64
}

// sensorProfiles はセンサー種別ごとの定義。
var sensorProfiles = map[SensorKind]SensorProfile{
	SensorWaterLevel:  {Unit: "m", Min: -1.0, Max: 5.0, Warning: 3.0, Critical: 4.0},
	SensorPressure:    {Unit: "kPa", Min: 90, Max: 130, Warning: 115, Critical: 125},
	SensorTemperature: {Unit: "°C", Min: -10, Max: 40, Warning: 30, Critical: 36},
	SensorVibration:   {Unit: "mm/s", Min: 0, Max: 12, Warning: 7, Critical: 10},
	SensorWindSpeed:   {Unit: "m/s", Min: 0, Max: 35, Warning: 20, Critical: 28},
}

// SensorKinds は定義済みの全センサー種別を表示順で返す。
func SensorKinds() []SensorKind {
	return []SensorKind{SensorWaterLevel, SensorPressure, SensorTemperature, SensorVibration, SensorWindSpeed}
}

// Profile はセンサー種別の定義を返す。未定義の種別の場合はfalseを返す。
func (k SensorKind) Profile() (SensorProfile, bool) {
	profile, ok := sensorProfiles[k]
	return profile, ok
}

// Valid は定義済みのセンサー種別かどうかを返す。
func (k SensorKind) Valid() bool {
	_, ok := sensorProfiles[k]
	return ok
}

// StatusOf は計測値から状態を導出する。
func (s SensorProfile) StatusOf(value float64) SensorStatus {
	switch {
	case value >= s.Critical:
		return SensorStatusCritical
	case value >= s.Warning:
		return SensorStatusWarning
	default:
		return SensorStatusNormal
	}
}

// SensorValue は単一センサーの計測値を表す。
type SensorValue struct {
	Value  float64
	Unit   string
	Status SensorStatus
}

// SensorSnapshot は資産の全センサーの計測値の集合を表す。
type SensorSnapshot struct {
	AssetID   string
	Timestamp time.Time
	Sensors   map[SensorKind]SensorValue
}

// SensorReading は送信された単一の計測値を表す。
type SensorReading struct {
	ID         string
	AssetID    string
	Sensor     SensorKind
	Value      float64
	Unit       string
	Status     SensorStatus
	RecordedAt time.Time
}
