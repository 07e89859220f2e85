package model

import "time"

// ContactStatusPending は未対応の問い合わせを表す。
const ContactStatusPending = "pending"

// ContactRequest はランディングページからのデモ・情報請求を表す。
type ContactRequest struct {
	ID           string
	Name         string
	Email        string
	Organization *string
	Message      string
	Status       string
	CreatedAt    time.Time
}

// StatusCheck はクライアントからの疎通確認記録を表す。
type StatusCheck struct {
	ID         string
	ClientName string
	Timestamp  time.Time
}
