// Package profile содержит доменную модель пользователя LuckCash.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package profile

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Role определяет роль пользователя в системе.
type Role string

const (
	// RoleUser - обычный пользователь.
	RoleUser Role = "user"
	// RoleAdmin - администратор (управление каталогом).
	RoleAdmin Role = "admin"
)

// IsValid проверяет, что роль корректна.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAdmin возвращает true для административной роли.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// Profile - центральная сущность системы, представляющая пользователя LuckCash.
type Profile struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// Email - адрес электронной почты (уникальный).
	Email shared.Email

	// PasswordHash - bcrypt-хеш пароля. Никогда не сериализуется наружу.
	PasswordHash string

	// DisplayName - отображаемое имя.
	DisplayName string

	// AvatarURL - ссылка на аватар (опционально).
	AvatarURL string

	// Bio - краткое описание профиля.
	Bio string

	// FavoriteColor - любимый цвет для оформления профиля.
	FavoriteColor string

	// SelectedAvatar - выбранный встроенный аватар (эмодзи или ключ).
	SelectedAvatar string

	// Role - роль пользователя.
	Role Role

	// Plan - текущий тарифный план.
	Plan shared.Plan

	// TotalCoins - баланс монет. Никогда не отрицательный.
	TotalCoins shared.Coins

	// ExperiencePoints - накопленные очки опыта.
	ExperiencePoints shared.XP

	// Level - текущий уровень. Меняется только явными операциями.
	Level shared.Level

	// CurrentStreak - текущая серия активных дней.
	CurrentStreak int

	// LongestStreak - лучшая серия активных дней.
	// Инвариант: LongestStreak >= CurrentStreak.
	LongestStreak int

	// LastActivityDate - дата последней засчитанной активности (начало дня UTC).
	// Нулевое значение - активности ещё не было.
	LastActivityDate time.Time

	// Version - версия записи для оптимистичной блокировки.
	Version int

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidDisplayName - невалидное отображаемое имя.
	ErrInvalidDisplayName = errors.New("invalid display name: must be 1-100 chars")

	// ErrInvalidBio - слишком длинное описание профиля.
	ErrInvalidBio = errors.New("invalid bio: must be at most 500 chars")

	// ErrInvalidRole - невалидная роль.
	ErrInvalidRole = errors.New("invalid profile role")

	// ErrProfileNotFound - профиль не найден.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProfileAlreadyExists - профиль уже существует.
	ErrProfileAlreadyExists = errors.New("profile already exists")

	// ErrStreakInvariant - нарушен инвариант серии (longest < current).
	ErrStreakInvariant = errors.New("longest streak cannot be less than current streak")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewProfileParams содержит параметры для создания нового профиля.
type NewProfileParams struct {
	ID           string
	Email        shared.Email
	PasswordHash string
	DisplayName  string
	Plan         shared.Plan
	Role         Role
}

// NewProfile создаёт новый профиль с валидацией всех полей.
// Новый пользователь начинает с нулевым балансом, первым уровнем
// и пустой серией активных дней.
func NewProfile(params NewProfileParams) (*Profile, error) {
	if params.ID == "" {
		return nil, errors.New("profile id is required")
	}

	if !params.Email.IsValid() {
		return nil, shared.ErrInvalidEmail
	}

	if params.PasswordHash == "" {
		return nil, errors.New("password hash is required")
	}

	displayName := strings.TrimSpace(params.DisplayName)
	if len(displayName) == 0 || len(displayName) > 100 {
		return nil, ErrInvalidDisplayName
	}

	plan := params.Plan
	if plan == "" {
		plan = shared.PlanFree
	}
	if !plan.IsValid() {
		return nil, shared.ErrInvalidPlan
	}

	role := params.Role
	if role == "" {
		role = RoleUser
	}
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	now := time.Now().UTC()

	return &Profile{
		ID:               params.ID,
		Email:            params.Email.Normalize(),
		PasswordHash:     params.PasswordHash,
		DisplayName:      displayName,
		Role:             role,
		Plan:             plan,
		TotalCoins:       0,
		ExperiencePoints: 0,
		Level:            shared.MinLevel,
		CurrentStreak:    0,
		LongestStreak:    0,
		LastActivityDate: time.Time{},
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// Credit начисляет монеты и опыт одной операцией.
// Используется леджером прогресса при завершении урока или миссии.
func (p *Profile) Credit(coins, xp int) error {
	if coins < 0 || xp < 0 {
		return shared.ErrNegativeValue
	}

	p.TotalCoins = p.TotalCoins.Add(coins)
	p.ExperiencePoints = p.ExperiencePoints.Add(xp)
	p.UpdatedAt = time.Now().UTC()

	return nil
}

// SpendCoins списывает монеты. Возвращает ErrInsufficientFunds,
// если баланса не хватает - баланс никогда не уходит в минус.
func (p *Profile) SpendCoins(cost int) error {
	remaining, err := p.TotalCoins.Spend(cost)
	if err != nil {
		return err
	}

	p.TotalCoins = remaining
	p.UpdatedAt = time.Now().UTC()

	return nil
}

// LevelProgress возвращает долю пути до следующего уровня [0, 1].
// Уровень при пересечении порога не меняется - это только
// отображаемое значение.
func (p *Profile) LevelProgress() float64 {
	return p.Level.ProgressRatio(p.ExperiencePoints)
}

// NextLevelThreshold возвращает порог опыта для следующего уровня.
func (p *Profile) NextLevelThreshold() int {
	return p.Level.NextThreshold()
}

// SetLevel явно устанавливает уровень (административная операция).
func (p *Profile) SetLevel(level shared.Level) error {
	if !level.IsValid() {
		return shared.ErrValueOutOfRange
	}

	p.Level = level
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// RecordActivity засчитывает активность пользователя за указанный момент
// времени и обновляет серию по переданной политике.
// Возвращает описание изменения серии.
func (p *Profile) RecordActivity(at time.Time, policy StreakPolicy) StreakChange {
	before := StreakState{
		Current:      p.CurrentStreak,
		Longest:      p.LongestStreak,
		LastActivity: p.LastActivityDate,
	}

	after := policy.Update(before, at)

	// Инвариант: лучшая серия не может быть меньше текущей.
	if after.Longest < after.Current {
		after.Longest = after.Current
	}

	p.CurrentStreak = after.Current
	p.LongestStreak = after.Longest
	p.LastActivityDate = after.LastActivity
	p.UpdatedAt = time.Now().UTC()

	return StreakChange{
		Before:   before,
		After:    after,
		Extended: after.Current > before.Current,
		Broken:   before.Current > 1 && after.Current == 1 && !sameDay(before.LastActivity, after.LastActivity),
	}
}

// UpdateInfo обновляет отображаемые поля профиля.
func (p *Profile) UpdateInfo(displayName, bio, avatarURL, favoriteColor, selectedAvatar string) error {
	displayName = strings.TrimSpace(displayName)
	if len(displayName) == 0 || len(displayName) > 100 {
		return ErrInvalidDisplayName
	}
	if len(bio) > 500 {
		return ErrInvalidBio
	}

	p.DisplayName = displayName
	p.Bio = bio
	p.AvatarURL = avatarURL
	p.FavoriteColor = favoriteColor
	p.SelectedAvatar = selectedAvatar
	p.UpdatedAt = time.Now().UTC()

	return nil
}

// ChangePlan переключает тарифный план и возвращает предыдущий.
func (p *Profile) ChangePlan(plan shared.Plan) (shared.Plan, error) {
	if !plan.IsValid() {
		return p.Plan, shared.ErrInvalidPlan
	}

	old := p.Plan
	p.Plan = plan
	p.UpdatedAt = time.Now().UTC()

	return old, nil
}

// Validate проверяет инварианты профиля. Используется репозиторием
// перед записью.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return errors.New("profile id is required")
	}
	if !p.Email.IsValid() {
		return shared.ErrInvalidEmail
	}
	if !p.TotalCoins.IsValid() {
		return shared.ErrNegativeValue
	}
	if !p.ExperiencePoints.IsValid() {
		return shared.ErrValueOutOfRange
	}
	if !p.Level.IsValid() {
		return shared.ErrValueOutOfRange
	}
	if p.CurrentStreak < 0 || p.LongestStreak < 0 {
		return shared.ErrNegativeValue
	}
	if p.LongestStreak < p.CurrentStreak {
		return ErrStreakInvariant
	}
	return nil
}

// WasActiveToday проверяет, была ли засчитана активность сегодня (UTC).
func (p *Profile) WasActiveToday(now time.Time) bool {
	if p.LastActivityDate.IsZero() {
		return false
	}
	return sameDay(p.LastActivityDate, now)
}

// String возвращает строковое представление профиля для логирования.
func (p *Profile) String() string {
	return fmt.Sprintf(
		"Profile{ID: %s, Name: %s, Coins: %d, XP: %d, Level: %d, Streak: %d}",
		p.ID, p.DisplayName, p.TotalCoins, p.ExperiencePoints, p.Level, p.CurrentStreak,
	)
}

// Clone создаёт глубокую копию профиля.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}

	clone := *p
	return &clone
}

// sameDay сравнивает два момента времени по календарному дню UTC.
func sameDay(t1, t2 time.Time) bool {
	u1, u2 := t1.UTC(), t2.UTC()
	return u1.Year() == u2.Year() && u1.YearDay() == u2.YearDay()
}
