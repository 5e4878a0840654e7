// Package postgres implements PostgreSQL persistence layer for LuckCash.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/progression"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
	"github.com/luckcash/luckcash-server/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProgressionRepository implements progression.Repository for PostgreSQL.
type ProgressionRepository struct {
	conn *Connection
}

// NewProgressionRepository creates a new ProgressionRepository.
func NewProgressionRepository(conn *Connection) *ProgressionRepository {
	return &ProgressionRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Lesson Progress
// ─────────────────────────────────────────────────────────────────────────────

// UpsertLessonProgress creates or updates a lesson progress record.
func (r *ProgressionRepository) UpsertLessonProgress(ctx context.Context, p *progression.LessonProgress) error {
	query := `
		INSERT INTO user_lesson_progress (
			profile_id, lesson_id, progress, completed, completed_at, score, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT(profile_id, lesson_id) DO UPDATE SET
			progress = EXCLUDED.progress,
			completed = user_lesson_progress.completed OR EXCLUDED.completed,
			completed_at = COALESCE(user_lesson_progress.completed_at, EXCLUDED.completed_at),
			score = GREATEST(user_lesson_progress.score, EXCLUDED.score)
	`

	_, err := r.conn.Exec(ctx, query,
		p.ProfileID,
		p.LessonID,
		p.Progress,
		p.Completed,
		nullableTime(p.CompletedAt),
		p.Score,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert lesson progress: %w", err)
	}

	return nil
}

// GetLessonProgress returns lesson progress, or nil if no record exists.
func (r *ProgressionRepository) GetLessonProgress(ctx context.Context, profileID, lessonID string) (*progression.LessonProgress, error) {
	query := `
		SELECT profile_id, lesson_id, progress, completed, completed_at, score, created_at, updated_at
		FROM user_lesson_progress
		WHERE profile_id = $1 AND lesson_id = $2
	`

	var p progression.LessonProgress
	var completedAt *time.Time

	err := r.conn.QueryRow(ctx, query, profileID, lessonID).Scan(
		&p.ProfileID,
		&p.LessonID,
		&p.Progress,
		&p.Completed,
		&completedAt,
		&p.Score,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson progress: %w", err)
	}

	if completedAt != nil {
		p.CompletedAt = *completedAt
	}

	return &p, nil
}

// ListLessonProgress returns all lesson progress records for a profile.
func (r *ProgressionRepository) ListLessonProgress(ctx context.Context, profileID string) ([]*progression.LessonProgress, error) {
	query := `
		SELECT profile_id, lesson_id, progress, completed, completed_at, score, created_at, updated_at
		FROM user_lesson_progress
		WHERE profile_id = $1
		ORDER BY updated_at DESC
	`

	rows, err := r.conn.Query(ctx, query, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lesson progress: %w", err)
	}
	defer rows.Close()

	var records []*progression.LessonProgress
	for rows.Next() {
		var p progression.LessonProgress
		var completedAt *time.Time

		err := rows.Scan(
			&p.ProfileID,
			&p.LessonID,
			&p.Progress,
			&p.Completed,
			&completedAt,
			&p.Score,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lesson progress: %w", err)
		}

		if completedAt != nil {
			p.CompletedAt = *completedAt
		}

		records = append(records, &p)
	}

	return records, rows.Err()
}

// CountCompletedLessons returns the number of completed lessons.
func (r *ProgressionRepository) CountCompletedLessons(ctx context.Context, profileID string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM user_lesson_progress WHERE profile_id = $1 AND completed = TRUE",
		profileID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Mission Progress
// ─────────────────────────────────────────────────────────────────────────────

// UpsertMissionProgress creates or updates a mission progress record.
func (r *ProgressionRepository) UpsertMissionProgress(ctx context.Context, p *progression.MissionProgress) error {
	query := `
		INSERT INTO user_daily_missions (
			profile_id, mission_id, day, progress, completed, completed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT(profile_id, mission_id, day) DO UPDATE SET
			progress = EXCLUDED.progress,
			completed = user_daily_missions.completed OR EXCLUDED.completed,
			completed_at = COALESCE(user_daily_missions.completed_at, EXCLUDED.completed_at)
	`

	_, err := r.conn.Exec(ctx, query,
		p.ProfileID,
		p.MissionID,
		timeutil.StartOfDay(p.Day),
		p.Progress,
		p.Completed,
		nullableTime(p.CompletedAt),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert mission progress: %w", err)
	}

	return nil
}

// GetMissionProgress returns mission progress for a day, or nil if absent.
func (r *ProgressionRepository) GetMissionProgress(ctx context.Context, profileID, missionID string, day time.Time) (*progression.MissionProgress, error) {
	query := `
		SELECT profile_id, mission_id, day, progress, completed, completed_at, created_at, updated_at
		FROM user_daily_missions
		WHERE profile_id = $1 AND mission_id = $2 AND day = $3
	`

	var p progression.MissionProgress
	var completedAt *time.Time

	err := r.conn.QueryRow(ctx, query, profileID, missionID, timeutil.StartOfDay(day)).Scan(
		&p.ProfileID,
		&p.MissionID,
		&p.Day,
		&p.Progress,
		&p.Completed,
		&completedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mission progress: %w", err)
	}

	if completedAt != nil {
		p.CompletedAt = *completedAt
	}

	return &p, nil
}

// ListMissionProgressForDay returns all mission records for a profile and day.
func (r *ProgressionRepository) ListMissionProgressForDay(ctx context.Context, profileID string, day time.Time) ([]*progression.MissionProgress, error) {
	query := `
		SELECT profile_id, mission_id, day, progress, completed, completed_at, created_at, updated_at
		FROM user_daily_missions
		WHERE profile_id = $1 AND day = $2
		ORDER BY created_at ASC
	`

	rows, err := r.conn.Query(ctx, query, profileID, timeutil.StartOfDay(day))
	if err != nil {
		return nil, fmt.Errorf("failed to list mission progress: %w", err)
	}
	defer rows.Close()

	var records []*progression.MissionProgress
	for rows.Next() {
		var p progression.MissionProgress
		var completedAt *time.Time

		err := rows.Scan(
			&p.ProfileID,
			&p.MissionID,
			&p.Day,
			&p.Progress,
			&p.Completed,
			&completedAt,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mission progress: %w", err)
		}

		if completedAt != nil {
			p.CompletedAt = *completedAt
		}

		records = append(records, &p)
	}

	return records, rows.Err()
}

// CountClaimedMissions returns the number of claimed rewards for a day.
func (r *ProgressionRepository) CountClaimedMissions(ctx context.Context, profileID string, day time.Time) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM user_daily_missions WHERE profile_id = $1 AND day = $2 AND completed = TRUE",
		profileID,
		timeutil.StartOfDay(day),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count claimed missions: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Purchases
// ─────────────────────────────────────────────────────────────────────────────

// CreatePurchase saves a new purchase.
func (r *ProgressionRepository) CreatePurchase(ctx context.Context, p *progression.Purchase) error {
	query := `
		INSERT INTO user_purchases (
			id, profile_id, item_id, coins_spent, redeemed, redeemed_at, purchased_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		p.ID,
		p.ProfileID,
		p.ItemID,
		p.CoinsSpent,
		p.Redeemed,
		nullableTime(p.RedeemedAt),
		p.PurchasedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create purchase: %w", err)
	}

	return nil
}

// GetPurchase returns a purchase by ID.
func (r *ProgressionRepository) GetPurchase(ctx context.Context, id string) (*progression.Purchase, error) {
	query := `
		SELECT id, profile_id, item_id, coins_spent, redeemed, redeemed_at, purchased_at
		FROM user_purchases
		WHERE id = $1
	`

	var p progression.Purchase
	var redeemedAt *time.Time

	err := r.conn.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.ProfileID,
		&p.ItemID,
		&p.CoinsSpent,
		&p.Redeemed,
		&redeemedAt,
		&p.PurchasedAt,
	)
	if IsNoRows(err) {
		return nil, shared.ErrPurchaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}

	if redeemedAt != nil {
		p.RedeemedAt = *redeemedAt
	}

	return &p, nil
}

// ListPurchases returns purchases for a profile, newest first.
func (r *ProgressionRepository) ListPurchases(ctx context.Context, profileID string) ([]*progression.Purchase, error) {
	query := `
		SELECT id, profile_id, item_id, coins_spent, redeemed, redeemed_at, purchased_at
		FROM user_purchases
		WHERE profile_id = $1
		ORDER BY purchased_at DESC
	`

	rows, err := r.conn.Query(ctx, query, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []*progression.Purchase
	for rows.Next() {
		var p progression.Purchase
		var redeemedAt *time.Time

		err := rows.Scan(
			&p.ID,
			&p.ProfileID,
			&p.ItemID,
			&p.CoinsSpent,
			&p.Redeemed,
			&redeemedAt,
			&p.PurchasedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}

		if redeemedAt != nil {
			p.RedeemedAt = *redeemedAt
		}

		purchases = append(purchases, &p)
	}

	return purchases, rows.Err()
}

// UpdatePurchase updates a purchase (redeemed flag).
func (r *ProgressionRepository) UpdatePurchase(ctx context.Context, p *progression.Purchase) error {
	query := `
		UPDATE user_purchases SET redeemed = $1, redeemed_at = $2
		WHERE id = $3
	`

	result, err := r.conn.Exec(ctx, query,
		p.Redeemed,
		nullableTime(p.RedeemedAt),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update purchase: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrPurchaseNotFound
	}

	return nil
}

// CountPurchases returns the number of purchases for a profile.
func (r *ProgressionRepository) CountPurchases(ctx context.Context, profileID string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM user_purchases WHERE profile_id = $1",
		profileID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count purchases: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Unlocked Achievements
// ─────────────────────────────────────────────────────────────────────────────

// SaveUnlockedAchievement records an unlock. Duplicate unlocks are no-ops.
func (r *ProgressionRepository) SaveUnlockedAchievement(ctx context.Context, u *progression.UnlockedAchievement) error {
	query := `
		INSERT INTO user_achievements (profile_id, achievement_id, unlocked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT(profile_id, achievement_id) DO NOTHING
	`

	_, err := r.conn.Exec(ctx, query, u.ProfileID, u.AchievementID, u.UnlockedAt)
	if err != nil {
		return fmt.Errorf("failed to save unlocked achievement: %w", err)
	}

	return nil
}

// ListUnlockedAchievements returns unlocked achievements for a profile.
func (r *ProgressionRepository) ListUnlockedAchievements(ctx context.Context, profileID string) ([]*progression.UnlockedAchievement, error) {
	query := `
		SELECT profile_id, achievement_id, unlocked_at
		FROM user_achievements
		WHERE profile_id = $1
		ORDER BY unlocked_at DESC
	`

	rows, err := r.conn.Query(ctx, query, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlocked achievements: %w", err)
	}
	defer rows.Close()

	var unlocked []*progression.UnlockedAchievement
	for rows.Next() {
		var u progression.UnlockedAchievement
		if err := rows.Scan(&u.ProfileID, &u.AchievementID, &u.UnlockedAt); err != nil {
			return nil, fmt.Errorf("failed to scan unlocked achievement: %w", err)
		}
		unlocked = append(unlocked, &u)
	}

	return unlocked, rows.Err()
}

// HasUnlockedAchievement checks if an achievement is unlocked.
func (r *ProgressionRepository) HasUnlockedAchievement(ctx context.Context, profileID, achievementID string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM user_achievements WHERE profile_id = $1 AND achievement_id = $2)",
		profileID,
		achievementID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check unlocked achievement: %w", err)
	}
	return exists, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Daily Stats
// ─────────────────────────────────────────────────────────────────────────────

// UpsertDailyStats saves a daily stats snapshot.
func (r *ProgressionRepository) UpsertDailyStats(ctx context.Context, s *progression.DailyStats) error {
	query := `
		INSERT INTO stats_history (
			profile_id, day, coins_earned, xp_earned, lessons_completed,
			missions_claimed, streak_at_end, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT(profile_id, day) DO UPDATE SET
			coins_earned = EXCLUDED.coins_earned,
			xp_earned = EXCLUDED.xp_earned,
			lessons_completed = EXCLUDED.lessons_completed,
			missions_claimed = EXCLUDED.missions_claimed,
			streak_at_end = EXCLUDED.streak_at_end
	`

	_, err := r.conn.Exec(ctx, query,
		s.ProfileID,
		timeutil.StartOfDay(s.Day),
		s.CoinsEarned,
		s.XPEarned,
		s.LessonsCompleted,
		s.MissionsClaimed,
		s.StreakAtEnd,
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert daily stats: %w", err)
	}

	return nil
}

// GetDailyStatsHistory returns snapshots for the last N days, oldest first.
func (r *ProgressionRepository) GetDailyStatsHistory(ctx context.Context, profileID string, days int) ([]*progression.DailyStats, error) {
	query := `
		SELECT profile_id, day, coins_earned, xp_earned, lessons_completed,
			   missions_claimed, streak_at_end, created_at
		FROM (
			SELECT profile_id, day, coins_earned, xp_earned, lessons_completed,
				   missions_claimed, streak_at_end, created_at
			FROM stats_history
			WHERE profile_id = $1
			ORDER BY day DESC
			LIMIT $2
		) recent
		ORDER BY day ASC
	`

	rows, err := r.conn.Query(ctx, query, profileID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily stats history: %w", err)
	}
	defer rows.Close()

	var history []*progression.DailyStats
	for rows.Next() {
		var s progression.DailyStats
		err := rows.Scan(
			&s.ProfileID,
			&s.Day,
			&s.CoinsEarned,
			&s.XPEarned,
			&s.LessonsCompleted,
			&s.MissionsClaimed,
			&s.StreakAtEnd,
			&s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily stats: %w", err)
		}
		history = append(history, &s)
	}

	return history, rows.Err()
}

// nullableTime maps a zero time to NULL for timestamp columns.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
