package domain

import "time"

// Day represents a calendar day with review activity
type Day struct {
	Date        time.Time
	ReviewCount int
}

// DateString returns date in YYYYMMDD format
func (d Day) DateString() string {
	return d.Date.Format("20060102")
}

// DisplayString returns user-friendly date string
func (d Day) DisplayString() string {
	now := time.Now().In(d.Date.Location())
	date := d.Date

	if sameDay(date, now) {
		return "Сегодня"
	}

	if sameDay(date, now.AddDate(0, 0, -1)) {
		return "Вчера"
	}

	months := []string{
		"", "янв", "фев", "мар", "апр", "мая", "июн",
		"июл", "авг", "сен", "окт", "ноя", "дек",
	}

	return date.Format("2 ") + months[date.Month()] + date.Format(" 2006")
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
