package models

import "time"

// ShortIdentifierLength длина сгенерированного короткого идентификатора.
const ShortIdentifierLength = 8

// ClickDay количество переходов по ссылке за календарный день (UTC).
type ClickDay struct {
	Date  time.Time `json:"date"`
	Count int64     `json:"count"`
}

// Link структура модели короткой ссылки.
//
// Clicks всегда равен сумме Count по ClickHistory, а ClickHistory упорядочена по дате
// и содержит не более одной записи на день.
type Link struct {
	ID           string     `json:"_id"`
	Owner        string     `json:"user"`
	LongURL      string     `json:"longUrl"`
	ShortID      string     `json:"shortId"`
	Alias        *string    `json:"alias"`
	Clicks       int64      `json:"clicks"`
	ClickHistory []ClickDay `json:"clickHistory"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Day приводит момент времени к началу календарного дня в UTC.
func Day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour) //nolint:mnd
}
