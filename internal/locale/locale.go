// Package locale is the single indirection point for localized text. The
// pipeline asks for (locale, key) pairs and never branches on the locale
// itself.
package locale

import "strings"

// Locale is a supported UI language.
type Locale string

const (
	RU Locale = "ru"
	EN Locale = "en"
)

// Normalize maps an arbitrary locale tag (or a full Accept-Language
// header) to a supported Locale, defaulting to Russian (the product's
// home market).
func Normalize(tag string) Locale {
	if i := strings.IndexAny(tag, ",;"); i >= 0 {
		tag = tag[:i]
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(tag)), "en") {
		return EN
	}
	return RU
}

// Key identifies a localized message.
type Key string

const (
	KeyMockDisclaimer    Key = "mock_disclaimer"
	KeyTimeoutError      Key = "timeout_error"
	KeyGenerationError   Key = "generation_error"
	KeyPaywallTitle      Key = "paywall_title"
	KeyPaywallDesc       Key = "paywall_desc"
	KeyHistoryEmpty      Key = "history_empty"
	KeyPlaceholderName   Key = "placeholder_name"
	KeyLanguageName      Key = "language_name"
)

var messages = map[Locale]map[Key]string{
	RU: {
		KeyMockDisclaimer:  " (Примечание: Демо-режим. Проверьте соединение с сетью).",
		KeyTimeoutError:    "Космическая связь была прервана.",
		KeyGenerationError: "Звезды молчат. Попробуйте еще раз.",
		KeyPaywallTitle:    "Вселенная требует обмена",
		KeyPaywallDesc:     "Вы использовали 3 бесплатных предсказания. Чтобы продолжить получать мудрость звезд, откройте доступ к безграничному источнику.",
		KeyHistoryEmpty:    "Страницы пусты. Звезды еще не шептали вам.",
		KeyPlaceholderName: "Странник",
		KeyLanguageName:    "Russian",
	},
	EN: {
		KeyMockDisclaimer:  " (Note: demo mode. Check your network connection.)",
		KeyTimeoutError:    "The cosmic connection was interrupted.",
		KeyGenerationError: "The stars are silent. Please try again.",
		KeyPaywallTitle:    "The universe demands an exchange",
		KeyPaywallDesc:     "You have used your 3 free predictions. Unlock the unlimited source to keep receiving the wisdom of the stars.",
		KeyHistoryEmpty:    "The pages are empty. The stars have not whispered to you yet.",
		KeyPlaceholderName: "Wanderer",
		KeyLanguageName:    "English",
	},
}

// T resolves a message for a locale. Unknown keys resolve to the empty
// string; unknown locales fall back to Russian.
func T(l Locale, k Key) string {
	table, ok := messages[l]
	if !ok {
		table = messages[RU]
	}
	return table[k]
}

// Color is a power-color candidate for the simulated generator.
type Color struct {
	Name string
	Hex  string
}

var mockHeadlines = map[Locale][]string{
	RU: {
		"Время действовать",
		"Фокус на главном",
		"День планирования",
		"Важный разговор",
		"Эмоциональный баланс",
		"Новые возможности",
		"Время для отдыха",
	},
	EN: {
		"Time to act",
		"Focus on what matters",
		"A day for planning",
		"An important conversation",
		"Emotional balance",
		"New opportunities",
		"Time to rest",
	},
}

var mockInsights = map[Locale][]string{
	RU: {
		"Сегодня отличный день для завершения старых дел. Не беритесь за новое, пока не разберетесь с \"хвостами\". Ваша продуктивность сейчас на пике.",
		"Звезды советуют обратить внимание на финансы. Возможно, стоит пересмотреть бюджет или отложить крупную покупку на пару дней.",
		"В отношениях возможны небольшие разногласия. Постарайтесь слушать больше, чем говорить, и не принимайте критику близко к сердцу.",
		"Ваша энергия сегодня стабильна. Хорошее время для спорта или физической активности. Это поможет прочистить мысли.",
		"Интуиция подскажет правильное решение в рабочем вопросе. Доверяйте первому впечатлению, оно сегодня самое верное.",
		"Сделайте паузу. Вы много работали в последнее время, организму требуется перезагрузка. Вечер лучше провести в спокойной обстановке.",
	},
	EN: {
		"Today is a great day to finish old business. Do not start anything new until the loose ends are tied up. Your productivity is at its peak.",
		"The stars suggest paying attention to finances. Consider reviewing your budget or postponing a large purchase for a couple of days.",
		"Minor disagreements are possible in relationships. Try to listen more than you speak, and do not take criticism personally.",
		"Your energy is stable today. A good time for sport or physical activity. It will help clear your mind.",
		"Intuition will point to the right call on a work question. Trust your first impression, today it is the most accurate.",
		"Take a pause. You have been working hard lately and your body needs a reset. Spend the evening somewhere calm.",
	},
}

var mockColors = map[Locale][]Color{
	RU: {
		{Name: "Золотистый", Hex: "#FFD700"},
		{Name: "Темно-синий", Hex: "#1e3a8a"},
		{Name: "Изумрудный", Hex: "#047857"},
		{Name: "Серый металлик", Hex: "#9ca3af"},
		{Name: "Бордовый", Hex: "#9f1239"},
		{Name: "Бежевый", Hex: "#d6d3d1"},
	},
	EN: {
		{Name: "Golden", Hex: "#FFD700"},
		{Name: "Navy blue", Hex: "#1e3a8a"},
		{Name: "Emerald", Hex: "#047857"},
		{Name: "Steel gray", Hex: "#9ca3af"},
		{Name: "Burgundy", Hex: "#9f1239"},
		{Name: "Beige", Hex: "#d6d3d1"},
	},
}

// MockHeadlines returns the headline candidates for a locale.
func MockHeadlines(l Locale) []string {
	if v, ok := mockHeadlines[l]; ok {
		return v
	}
	return mockHeadlines[RU]
}

// MockInsights returns the insight candidates for a locale.
func MockInsights(l Locale) []string {
	if v, ok := mockInsights[l]; ok {
		return v
	}
	return mockInsights[RU]
}

// MockColors returns the power-color candidates for a locale.
func MockColors(l Locale) []Color {
	if v, ok := mockColors[l]; ok {
		return v
	}
	return mockColors[RU]
}
