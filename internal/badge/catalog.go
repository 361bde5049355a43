package badge

import "lexis/internal/domain"

// DefaultCatalog returns the built-in badges. The seed migration inserts the same rows.
func DefaultCatalog() []domain.Badge {
	return []domain.Badge{
		{ID: "first_word", Name: "First Word", Description: "Recall your first word", Icon: "🌱", Category: "words", Predicate: "words_recalled >= 1"},
		{ID: "words_10", Name: "Word Collector", Description: "Recall 10 different words", Icon: "📚", Category: "words", Predicate: "words_recalled >= 10"},
		{ID: "words_50", Name: "Bookworm", Description: "Recall 50 different words", Icon: "🐛", Category: "words", Predicate: "words_recalled >= 50"},
		{ID: "words_100", Name: "Lexicon", Description: "Recall 100 different words", Icon: "📖", Category: "words", Predicate: "words_recalled >= 100"},
		{ID: "mastered_10", Name: "Long Memory", Description: "Push 10 words to a 3-week interval", Icon: "🧠", Category: "words", Predicate: "words_mastered >= 10"},
		{ID: "streak_3", Name: "Warming Up", Description: "Review 3 days in a row", Icon: "🔥", Category: "streak", Predicate: "current_streak >= 3"},
		{ID: "streak_7", Name: "Week Streak", Description: "Review 7 days in a row", Icon: "⚡", Category: "streak", Predicate: "current_streak >= 7"},
		{ID: "streak_30", Name: "Unstoppable", Description: "Review 30 days in a row", Icon: "🏆", Category: "streak", Predicate: "current_streak >= 30"},
		{ID: "level_5", Name: "Apprentice", Description: "Reach level 5", Icon: "⭐", Category: "level", Predicate: "level >= 5"},
		{ID: "level_10", Name: "Scholar", Description: "Reach level 10", Icon: "🎓", Category: "level", Predicate: "level >= 10"},
		{ID: "all_modes", Name: "All-Rounder", Description: "Use every learning mode", Icon: "🎯", Category: "modes", Predicate: "modes_used >= total_modes"},
		{ID: "perfect_25", Name: "Perfectionist", Description: "Give 25 perfect answers", Icon: "💎", Category: "accuracy", Predicate: "perfect_reviews >= 25"},
		{ID: "reviews_500", Name: "Marathon", Description: "Complete 500 reviews", Icon: "🏃", Category: "accuracy", Predicate: "total_reviews >= 500"},
		{ID: "quick_recall", Name: "Quick Recall", Description: "Answer well in under two seconds", Icon: "⏱️", Category: "accuracy", Predicate: "last_score >= 4 && last_response_ms > 0 && last_response_ms < 2000"},
		{ID: "night_owl", Name: "Night Owl", Description: "Review after 11 pm", Icon: "🦉", Category: "time", Predicate: "hour >= 23 || hour < 4"},
		{ID: "early_bird", Name: "Early Bird", Description: "Review before 8 am", Icon: "🐦", Category: "time", Predicate: "hour >= 5 && hour < 8"},
	}
}
