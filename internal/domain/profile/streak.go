package profile

import "time"

// ══════════════════════════════════════════════════════════════════════════════
// STREAK (Серия активных дней)
// Правила продления серии вынесены в политику, чтобы их можно было
// заменить без изменения сущности профиля.
// ══════════════════════════════════════════════════════════════════════════════

// StreakState представляет состояние серии активных дней.
type StreakState struct {
	// Current - текущая серия дней.
	Current int

	// Longest - лучшая серия дней.
	Longest int

	// LastActivity - дата последней засчитанной активности (начало дня UTC).
	LastActivity time.Time
}

// StreakChange описывает результат обновления серии.
type StreakChange struct {
	// Before - состояние до обновления.
	Before StreakState

	// After - состояние после обновления.
	After StreakState

	// Extended - серия выросла.
	Extended bool

	// Broken - серия была сброшена из-за пропущенных дней.
	Broken bool
}

// StreakPolicy определяет правила обновления серии при активности.
// Реализации должны быть чистыми функциями от состояния и момента времени.
type StreakPolicy interface {
	// Update возвращает новое состояние серии после активности в момент at.
	Update(state StreakState, at time.Time) StreakState

	// Name возвращает имя политики для логирования и конфигурации.
	Name() string
}

// ──────────────────────────────────────────────────────────────────────────────
// CalendarDayPolicy - политика по умолчанию
// ──────────────────────────────────────────────────────────────────────────────

// CalendarDayPolicy - классические правила серии по календарным дням UTC:
//
//   - первая активность начинает серию с 1;
//   - повторная активность в тот же день ничего не меняет;
//   - активность на следующий день продлевает серию на 1;
//   - пропуск хотя бы одного дня сбрасывает серию до 1.
type CalendarDayPolicy struct{}

// Name реализует StreakPolicy.
func (CalendarDayPolicy) Name() string {
	return "calendar_day"
}

// Update реализует StreakPolicy.
func (CalendarDayPolicy) Update(state StreakState, at time.Time) StreakState {
	day := startOfDay(at)

	// Первая активность
	if state.LastActivity.IsZero() {
		return StreakState{
			Current:      1,
			Longest:      max(1, state.Longest),
			LastActivity: day,
		}
	}

	lastDay := startOfDay(state.LastActivity)
	daysDiff := int(day.Sub(lastDay).Hours() / 24)

	switch {
	case daysDiff <= 0:
		// Тот же день (или активность из прошлого) - ничего не меняем
		return state
	case daysDiff == 1:
		// Следующий день - продолжаем серию
		current := state.Current + 1
		return StreakState{
			Current:      current,
			Longest:      max(current, state.Longest),
			LastActivity: day,
		}
	default:
		// Пропущены дни - сбрасываем серию
		return StreakState{
			Current:      1,
			Longest:      max(1, state.Longest),
			LastActivity: day,
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// GraceDayPolicy - политика с "запасными" днями
// ──────────────────────────────────────────────────────────────────────────────

// GraceDayPolicy продлевает серию даже при пропуске до GraceDays дней.
// Используется для премиум-тарифа, где один пропущенный день не
// сбрасывает серию.
type GraceDayPolicy struct {
	// GraceDays - сколько пропущенных дней прощается (обычно 1).
	GraceDays int
}

// Name реализует StreakPolicy.
func (g GraceDayPolicy) Name() string {
	return "grace_day"
}

// Update реализует StreakPolicy.
func (g GraceDayPolicy) Update(state StreakState, at time.Time) StreakState {
	day := startOfDay(at)

	if state.LastActivity.IsZero() {
		return StreakState{
			Current:      1,
			Longest:      max(1, state.Longest),
			LastActivity: day,
		}
	}

	lastDay := startOfDay(state.LastActivity)
	daysDiff := int(day.Sub(lastDay).Hours() / 24)

	switch {
	case daysDiff <= 0:
		return state
	case daysDiff <= 1+g.GraceDays:
		// Пропуск в пределах допуска - серия продолжается
		current := state.Current + 1
		return StreakState{
			Current:      current,
			Longest:      max(current, state.Longest),
			LastActivity: day,
		}
	default:
		return StreakState{
			Current:      1,
			Longest:      max(1, state.Longest),
			LastActivity: day,
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

// IsBroken проверяет, сломана ли серия на момент now (пропущен вчерашний день).
// Обновлять состояние не нужно: серия считается сброшенной при следующей
// активности.
func (s StreakState) IsBroken(now time.Time) bool {
	if s.LastActivity.IsZero() || s.Current == 0 {
		return false
	}

	daysDiff := int(startOfDay(now).Sub(startOfDay(s.LastActivity)).Hours() / 24)
	return daysDiff > 1
}

// DaysUntilBreak возвращает количество дней до сброса серии.
// Возвращает 0, если серия уже сброшена, или 1, если нужно быть активным сегодня.
func (s StreakState) DaysUntilBreak(now time.Time) int {
	if s.LastActivity.IsZero() || s.Current == 0 {
		return 0
	}

	daysDiff := int(startOfDay(now).Sub(startOfDay(s.LastActivity)).Hours() / 24)

	switch daysDiff {
	case 0:
		return 2 // Был активен сегодня, есть завтра целый день
	case 1:
		return 1 // Нужно быть активным сегодня
	default:
		return 0 // Серия уже сброшена
	}
}

func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
