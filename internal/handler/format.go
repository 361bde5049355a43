package handler

import (
	"fmt"
	"strings"

	"lexis/internal/domain"
	"lexis/internal/service"
)

var difficultyStars = []string{"", "⭐", "⭐⭐", "⭐⭐⭐", "⭐⭐⭐⭐", "⭐⭐⭐⭐⭐"}

func stars(difficulty int) string {
	if difficulty < 1 || difficulty >= len(difficultyStars) {
		return ""
	}
	return difficultyStars[difficulty]
}

// formatCard renders the front side of a card
func formatCard(word domain.Word, remaining int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📝 %s %s\n\n", word.Term, stars(word.Difficulty))
	if remaining > 0 {
		fmt.Fprintf(&b, "На повторении: %d\n", remaining)
	} else {
		b.WriteString("🆕 Новое слово\n")
	}
	b.WriteString("Вспомни перевод и открой карточку")
	return b.String()
}

// formatRevealed renders the back side of a card with the rating hint
func formatRevealed(word domain.Word) string {
	return fmt.Sprintf(
		"📝 %s\n🔄 %s\n\nНасколько легко вспомнил?\n0-2 не вспомнил, 3 с трудом, 4 хорошо, 5 сразу",
		word.Term, word.Translation,
	)
}

// formatReviewResult renders what a review earned
func formatReviewResult(r *service.ReviewResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✨ +%d XP (всего %d)\n", r.XPEarned, r.TotalXP)
	fmt.Fprintf(&b, "🔥 Серия: %d %s\n", r.Streak, pluralDays(r.Streak))
	fmt.Fprintf(&b, "📆 Следующее повторение через %d %s\n", r.Progress.Interval, pluralDays(r.Progress.Interval))

	if r.NewLevel != nil {
		fmt.Fprintf(&b, "\n🎉 Новый уровень: %d!\n", *r.NewLevel)
	}

	if len(r.NewBadges) > 0 {
		b.WriteString("\n🏅 Новые значки:\n")
		for _, badge := range r.NewBadges {
			fmt.Fprintf(&b, "%s %s\n", badge.Icon, badge.Name)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatNewWords renders a preview of upcoming words
func formatNewWords(words []domain.Word) string {
	var b strings.Builder
	b.WriteString("🆕 Скоро в повторении:\n\n")
	for i, w := range words {
		fmt.Fprintf(&b, "%d. %s — %s %s\n", i+1, w.Term, w.Translation, stars(w.Difficulty))
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatOverview renders learner stats
func formatOverview(o *service.Overview) string {
	var b strings.Builder
	b.WriteString("📊 Статистика\n\n")
	fmt.Fprintf(&b, "🎓 Уровень: %d\n", o.Stats.Level)
	fmt.Fprintf(&b, "✨ Опыт: %d (до следующего уровня %d)\n", o.Stats.TotalXP, o.XPToNextLevel)
	fmt.Fprintf(&b, "🔥 Серия: %d (рекорд %d)\n\n", o.Stats.CurrentStreak, o.Stats.LongestStreak)
	fmt.Fprintf(&b, "📚 Начато слов: %d\n", o.Summary.WordsStarted)
	fmt.Fprintf(&b, "🧠 Выучено: %d\n", o.Summary.WordsMastered)
	fmt.Fprintf(&b, "🔁 Повторений: %d\n", o.Summary.TotalReviews)
	fmt.Fprintf(&b, "⏰ Ждут повторения: %d", o.DueCount)
	return b.String()
}

// formatEarnedBadges renders earned badges oldest first
func formatEarnedBadges(earned []domain.EarnedBadge) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏅 Твои значки (%d):\n\n", len(earned))
	for _, e := range earned {
		fmt.Fprintf(&b, "%s %s\n%s\n\n", e.Badge.Icon, e.Badge.Name, e.Badge.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatActivity renders a page of days with review counts
func formatActivity(days []domain.Day) string {
	var b strings.Builder
	b.WriteString("📅 Твоя активность:\n\n")
	for _, day := range days {
		fmt.Fprintf(&b, "%s: %d\n", day.DisplayString(), day.ReviewCount)
	}
	return strings.TrimRight(b.String(), "\n")
}

// pluralDays picks the Russian plural form of "день"
func pluralDays(n int) string {
	n100 := n % 100
	n10 := n % 10
	switch {
	case n100 >= 11 && n100 <= 14:
		return "дней"
	case n10 == 1:
		return "день"
	case n10 >= 2 && n10 <= 4:
		return "дня"
	default:
		return "дней"
	}
}
