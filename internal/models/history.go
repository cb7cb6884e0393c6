package models

import (
	"slices"
	"time"
)

// AddClick учитывает один переход за день day: увеличивает счетчик дня (или добавляет новый день
// с сохранением порядка по дате) и общий счетчик ссылки.
func (l *Link) AddClick(day time.Time) {
	day = Day(day)
	l.Clicks++

	i, found := slices.BinarySearchFunc(l.ClickHistory, day, func(c ClickDay, d time.Time) int {
		return c.Date.Compare(d)
	})
	if found {
		l.ClickHistory[i].Count++
		return
	}
	l.ClickHistory = slices.Insert(l.ClickHistory, i, ClickDay{Date: day, Count: 1})
}

// TodayClicks возвращает количество переходов за день day.
func (l *Link) TodayClicks(day time.Time) int64 {
	day = Day(day)
	for i := len(l.ClickHistory) - 1; i >= 0; i-- {
		if l.ClickHistory[i].Date.Equal(day) {
			return l.ClickHistory[i].Count
		}
	}
	return 0
}
