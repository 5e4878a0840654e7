// Package postgres implements PostgreSQL persistence layer for LuckCash.
package postgres

import (
	"context"
	"fmt"

	"github.com/luckcash/luckcash-server/internal/domain/catalog"
	"github.com/luckcash/luckcash-server/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// LESSON REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const lessonColumns = `id, title, description, category, difficulty, order_index,
	   coins_reward, xp_reward, content, min_plan, created_at, updated_at`

// LessonRepository implements catalog.LessonRepository for PostgreSQL.
type LessonRepository struct {
	conn *Connection
}

// NewLessonRepository creates a new LessonRepository.
func NewLessonRepository(conn *Connection) *LessonRepository {
	return &LessonRepository{conn: conn}
}

// Create creates a new lesson.
func (r *LessonRepository) Create(ctx context.Context, l *catalog.Lesson) error {
	query := `
		INSERT INTO lessons (
			id, title, description, category, difficulty, order_index,
			coins_reward, xp_reward, content, min_plan, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.conn.Exec(ctx, query,
		l.ID,
		l.Title,
		l.Description,
		l.Category,
		string(l.Difficulty),
		l.OrderIndex,
		l.CoinsReward,
		l.XPReward,
		l.Content,
		l.MinPlan,
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}

	return nil
}

// GetByID returns a lesson by ID.
func (r *LessonRepository) GetByID(ctx context.Context, id string) (*catalog.Lesson, error) {
	query := fmt.Sprintf("SELECT %s FROM lessons WHERE id = $1", lessonColumns)

	row := r.conn.QueryRow(ctx, query, id)
	lesson, err := scanLesson(row)
	if IsNoRows(err) {
		return nil, shared.ErrLessonNotFound
	}
	return lesson, err
}

// List returns lessons ordered by category and position.
func (r *LessonRepository) List(ctx context.Context) ([]*catalog.Lesson, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM lessons ORDER BY category ASC, order_index ASC",
		lessonColumns,
	)

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	defer rows.Close()

	return scanLessons(rows)
}

// ListByCategory returns lessons of a category in order_index order.
func (r *LessonRepository) ListByCategory(ctx context.Context, category string) ([]*catalog.Lesson, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM lessons WHERE category = $1 ORDER BY order_index ASC",
		lessonColumns,
	)

	rows, err := r.conn.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons by category: %w", err)
	}
	defer rows.Close()

	return scanLessons(rows)
}

// Update updates a lesson.
func (r *LessonRepository) Update(ctx context.Context, l *catalog.Lesson) error {
	query := `
		UPDATE lessons SET
			title = $1, description = $2, category = $3, difficulty = $4,
			order_index = $5, coins_reward = $6, xp_reward = $7,
			content = $8, min_plan = $9
		WHERE id = $10
	`

	result, err := r.conn.Exec(ctx, query,
		l.Title,
		l.Description,
		l.Category,
		string(l.Difficulty),
		l.OrderIndex,
		l.CoinsReward,
		l.XPReward,
		l.Content,
		l.MinPlan,
		l.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update lesson: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrLessonNotFound
	}

	return nil
}

// Delete removes a lesson.
func (r *LessonRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, "DELETE FROM lessons WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrLessonNotFound
	}

	return nil
}

// Count returns the total number of lessons.
func (r *LessonRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM lessons").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return count, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MISSION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const missionColumns = `id, title, description, mission_type, target_value,
	   coins_reward, xp_reward, icon, active, created_at, updated_at`

// MissionRepository implements catalog.MissionRepository for PostgreSQL.
type MissionRepository struct {
	conn *Connection
}

// NewMissionRepository creates a new MissionRepository.
func NewMissionRepository(conn *Connection) *MissionRepository {
	return &MissionRepository{conn: conn}
}

// Create creates a new mission.
func (r *MissionRepository) Create(ctx context.Context, m *catalog.Mission) error {
	query := `
		INSERT INTO daily_missions (
			id, title, description, mission_type, target_value,
			coins_reward, xp_reward, icon, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.conn.Exec(ctx, query,
		m.ID,
		m.Title,
		m.Description,
		string(m.Type),
		m.TargetValue,
		m.CoinsReward,
		m.XPReward,
		m.Icon,
		m.Active,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create mission: %w", err)
	}

	return nil
}

// GetByID returns a mission by ID.
func (r *MissionRepository) GetByID(ctx context.Context, id string) (*catalog.Mission, error) {
	query := fmt.Sprintf("SELECT %s FROM daily_missions WHERE id = $1", missionColumns)

	row := r.conn.QueryRow(ctx, query, id)
	mission, err := scanMission(row)
	if IsNoRows(err) {
		return nil, shared.ErrMissionNotFound
	}
	return mission, err
}

// ListActive returns the active daily mission set.
func (r *MissionRepository) ListActive(ctx context.Context) ([]*catalog.Mission, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM daily_missions WHERE active = TRUE ORDER BY created_at ASC",
		missionColumns,
	)

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active missions: %w", err)
	}
	defer rows.Close()

	var missions []*catalog.Mission
	for rows.Next() {
		mission, err := scanMission(rows)
		if err != nil {
			return nil, err
		}
		missions = append(missions, mission)
	}

	return missions, rows.Err()
}

// Update updates a mission.
func (r *MissionRepository) Update(ctx context.Context, m *catalog.Mission) error {
	query := `
		UPDATE daily_missions SET
			title = $1, description = $2, mission_type = $3, target_value = $4,
			coins_reward = $5, xp_reward = $6, icon = $7, active = $8
		WHERE id = $9
	`

	result, err := r.conn.Exec(ctx, query,
		m.Title,
		m.Description,
		string(m.Type),
		m.TargetValue,
		m.CoinsReward,
		m.XPReward,
		m.Icon,
		m.Active,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update mission: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrMissionNotFound
	}

	return nil
}

// Delete removes a mission.
func (r *MissionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, "DELETE FROM daily_missions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete mission: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrMissionNotFound
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const achievementColumns = `id, name, description, badge_icon,
	   requirement_type, requirement_value, coins_reward, created_at`

// AchievementRepository implements catalog.AchievementRepository for PostgreSQL.
type AchievementRepository struct {
	conn *Connection
}

// NewAchievementRepository creates a new AchievementRepository.
func NewAchievementRepository(conn *Connection) *AchievementRepository {
	return &AchievementRepository{conn: conn}
}

// Create creates a new achievement.
func (r *AchievementRepository) Create(ctx context.Context, a *catalog.Achievement) error {
	query := `
		INSERT INTO achievements (
			id, name, description, badge_icon,
			requirement_type, requirement_value, coins_reward, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.conn.Exec(ctx, query,
		a.ID,
		a.Name,
		a.Description,
		a.BadgeIcon,
		string(a.RequirementType),
		a.RequirementValue,
		a.CoinsReward,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create achievement: %w", err)
	}

	return nil
}

// GetByID returns an achievement by ID.
func (r *AchievementRepository) GetByID(ctx context.Context, id string) (*catalog.Achievement, error) {
	query := fmt.Sprintf("SELECT %s FROM achievements WHERE id = $1", achievementColumns)

	row := r.conn.QueryRow(ctx, query, id)
	achievement, err := scanAchievement(row)
	if IsNoRows(err) {
		return nil, shared.ErrAchievementNotFound
	}
	return achievement, err
}

// List returns all achievements.
func (r *AchievementRepository) List(ctx context.Context) ([]*catalog.Achievement, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM achievements ORDER BY requirement_type ASC, requirement_value ASC",
		achievementColumns,
	)

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	var achievements []*catalog.Achievement
	for rows.Next() {
		achievement, err := scanAchievement(rows)
		if err != nil {
			return nil, err
		}
		achievements = append(achievements, achievement)
	}

	return achievements, rows.Err()
}

// Update updates an achievement.
func (r *AchievementRepository) Update(ctx context.Context, a *catalog.Achievement) error {
	query := `
		UPDATE achievements SET
			name = $1, description = $2, badge_icon = $3,
			requirement_type = $4, requirement_value = $5, coins_reward = $6
		WHERE id = $7
	`

	result, err := r.conn.Exec(ctx, query,
		a.Name,
		a.Description,
		a.BadgeIcon,
		string(a.RequirementType),
		a.RequirementValue,
		a.CoinsReward,
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update achievement: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrAchievementNotFound
	}

	return nil
}

// Delete removes an achievement.
func (r *AchievementRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, "DELETE FROM achievements WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete achievement: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrAchievementNotFound
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STORE ITEM REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const storeItemColumns = `id, name, description, category, cost_coins,
	   stock, image_url, active, created_at, updated_at`

// StoreItemRepository implements catalog.StoreItemRepository for PostgreSQL.
type StoreItemRepository struct {
	conn *Connection
}

// NewStoreItemRepository creates a new StoreItemRepository.
func NewStoreItemRepository(conn *Connection) *StoreItemRepository {
	return &StoreItemRepository{conn: conn}
}

// Create creates a new store item.
func (r *StoreItemRepository) Create(ctx context.Context, item *catalog.StoreItem) error {
	query := `
		INSERT INTO store_items (
			id, name, description, category, cost_coins,
			stock, image_url, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.conn.Exec(ctx, query,
		item.ID,
		item.Name,
		item.Description,
		item.Category,
		item.CostCoins,
		item.Stock,
		item.ImageURL,
		item.Active,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create store item: %w", err)
	}

	return nil
}

// GetByID returns a store item by ID.
func (r *StoreItemRepository) GetByID(ctx context.Context, id string) (*catalog.StoreItem, error) {
	query := fmt.Sprintf("SELECT %s FROM store_items WHERE id = $1", storeItemColumns)

	row := r.conn.QueryRow(ctx, query, id)
	item, err := scanStoreItem(row)
	if IsNoRows(err) {
		return nil, shared.ErrStoreItemNotFound
	}
	return item, err
}

// ListActive returns items available for purchase.
func (r *StoreItemRepository) ListActive(ctx context.Context) ([]*catalog.StoreItem, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM store_items WHERE active = TRUE ORDER BY category ASC, cost_coins ASC",
		storeItemColumns,
	)

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list store items: %w", err)
	}
	defer rows.Close()

	return scanStoreItems(rows)
}

// ListByCategory returns active items of a category.
func (r *StoreItemRepository) ListByCategory(ctx context.Context, category string) ([]*catalog.StoreItem, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM store_items WHERE active = TRUE AND category = $1 ORDER BY cost_coins ASC",
		storeItemColumns,
	)

	rows, err := r.conn.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list store items by category: %w", err)
	}
	defer rows.Close()

	return scanStoreItems(rows)
}

// Update updates a store item (including stock).
func (r *StoreItemRepository) Update(ctx context.Context, item *catalog.StoreItem) error {
	query := `
		UPDATE store_items SET
			name = $1, description = $2, category = $3, cost_coins = $4,
			stock = $5, image_url = $6, active = $7
		WHERE id = $8
	`

	result, err := r.conn.Exec(ctx, query,
		item.Name,
		item.Description,
		item.Category,
		item.CostCoins,
		item.Stock,
		item.ImageURL,
		item.Active,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update store item: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrStoreItemNotFound
	}

	return nil
}

// Delete removes a store item.
func (r *StoreItemRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, "DELETE FROM store_items WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete store item: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrStoreItemNotFound
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SCAN HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// scanLesson scans a single lesson from a row.
func scanLesson(row pgx.Row) (*catalog.Lesson, error) {
	var l catalog.Lesson
	var difficulty string

	err := row.Scan(
		&l.ID,
		&l.Title,
		&l.Description,
		&l.Category,
		&difficulty,
		&l.OrderIndex,
		&l.CoinsReward,
		&l.XPReward,
		&l.Content,
		&l.MinPlan,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan lesson: %w", err)
	}

	l.Difficulty = catalog.Difficulty(difficulty)
	return &l, nil
}

// scanLessons scans multiple lessons from rows.
func scanLessons(rows pgx.Rows) ([]*catalog.Lesson, error) {
	var lessons []*catalog.Lesson
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, lesson)
	}
	return lessons, rows.Err()
}

// scanMission scans a single mission from a row.
func scanMission(row pgx.Row) (*catalog.Mission, error) {
	var m catalog.Mission
	var missionType string

	err := row.Scan(
		&m.ID,
		&m.Title,
		&m.Description,
		&missionType,
		&m.TargetValue,
		&m.CoinsReward,
		&m.XPReward,
		&m.Icon,
		&m.Active,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan mission: %w", err)
	}

	m.Type = catalog.MissionType(missionType)
	return &m, nil
}

// scanAchievement scans a single achievement from a row.
func scanAchievement(row pgx.Row) (*catalog.Achievement, error) {
	var a catalog.Achievement
	var requirementType string

	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Description,
		&a.BadgeIcon,
		&requirementType,
		&a.RequirementValue,
		&a.CoinsReward,
		&a.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan achievement: %w", err)
	}

	a.RequirementType = catalog.RequirementType(requirementType)
	return &a, nil
}

// scanStoreItem scans a single store item from a row.
func scanStoreItem(row pgx.Row) (*catalog.StoreItem, error) {
	var item catalog.StoreItem

	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.Category,
		&item.CostCoins,
		&item.Stock,
		&item.ImageURL,
		&item.Active,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan store item: %w", err)
	}

	return &item, nil
}

// scanStoreItems scans multiple store items from rows.
func scanStoreItems(rows pgx.Rows) ([]*catalog.StoreItem, error) {
	var items []*catalog.StoreItem
	for rows.Next() {
		item, err := scanStoreItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
