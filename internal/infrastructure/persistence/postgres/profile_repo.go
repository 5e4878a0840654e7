// Package postgres implements PostgreSQL persistence layer for LuckCash.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/profile"
	"github.com/luckcash/luckcash-server/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const profileColumns = `id, email, password_hash, display_name, avatar_url, bio,
	   favorite_color, selected_avatar, role, plan, total_coins,
	   experience_points, level, current_streak, longest_streak,
	   last_activity_date, version, created_at, updated_at`

// ProfileRepository implements profile.Repository for PostgreSQL.
type ProfileRepository struct {
	conn *Connection
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// CRUD Operations
// ─────────────────────────────────────────────────────────────────────────────

// Create creates a new profile.
func (r *ProfileRepository) Create(ctx context.Context, p *profile.Profile) error {
	query := `
		INSERT INTO profiles (
			id, email, password_hash, display_name, avatar_url, bio,
			favorite_color, selected_avatar, role, plan, total_coins,
			experience_points, level, current_streak, longest_streak,
			last_activity_date, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err := r.conn.Exec(ctx, query,
		p.ID,
		p.Email.String(),
		p.PasswordHash,
		p.DisplayName,
		p.AvatarURL,
		p.Bio,
		p.FavoriteColor,
		p.SelectedAvatar,
		string(p.Role),
		string(p.Plan),
		int(p.TotalCoins),
		int(p.ExperiencePoints),
		int(p.Level),
		p.CurrentStreak,
		p.LongestStreak,
		nullableDate(p.LastActivityDate),
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return profile.ErrProfileAlreadyExists
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// GetByID returns a profile by internal ID.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*profile.Profile, error) {
	query := fmt.Sprintf("SELECT %s FROM profiles WHERE id = $1", profileColumns)

	row := r.conn.QueryRow(ctx, query, id)
	return r.scanProfile(row)
}

// GetByEmail returns a profile by email.
func (r *ProfileRepository) GetByEmail(ctx context.Context, email shared.Email) (*profile.Profile, error) {
	query := fmt.Sprintf("SELECT %s FROM profiles WHERE email = $1", profileColumns)

	row := r.conn.QueryRow(ctx, query, email.String())
	return r.scanProfile(row)
}

// Update updates a profile with optimistic concurrency control.
// The row is updated only if the stored version matches profile.Version;
// otherwise shared.ErrOptimisticLock is returned and the caller should
// reload and retry. On success profile.Version is incremented.
func (r *ProfileRepository) Update(ctx context.Context, p *profile.Profile) error {
	query := `
		UPDATE profiles SET
			email = $1,
			password_hash = $2,
			display_name = $3,
			avatar_url = $4,
			bio = $5,
			favorite_color = $6,
			selected_avatar = $7,
			role = $8,
			plan = $9,
			total_coins = $10,
			experience_points = $11,
			level = $12,
			current_streak = $13,
			longest_streak = $14,
			last_activity_date = $15,
			version = version + 1,
			updated_at = $16
		WHERE id = $17 AND version = $18
	`

	result, err := r.conn.Exec(ctx, query,
		p.Email.String(),
		p.PasswordHash,
		p.DisplayName,
		p.AvatarURL,
		p.Bio,
		p.FavoriteColor,
		p.SelectedAvatar,
		string(p.Role),
		string(p.Plan),
		int(p.TotalCoins),
		int(p.ExperiencePoints),
		int(p.Level),
		p.CurrentStreak,
		p.LongestStreak,
		nullableDate(p.LastActivityDate),
		time.Now().UTC(),
		p.ID,
		p.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Either the row is gone or the version moved underneath us.
		exists, existsErr := r.Exists(ctx, p.ID)
		if existsErr != nil {
			return existsErr
		}
		if !exists {
			return profile.ErrProfileNotFound
		}
		return shared.ErrOptimisticLock
	}

	p.Version++
	return nil
}

// Delete removes a profile.
func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, "DELETE FROM profiles WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	if result.RowsAffected() == 0 {
		return profile.ErrProfileNotFound
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Bulk Operations
// ─────────────────────────────────────────────────────────────────────────────

// GetAll returns all profiles with pagination.
func (r *ProfileRepository) GetAll(ctx context.Context, opts profile.ListOptions) ([]*profile.Profile, error) {
	query := fmt.Sprintf("SELECT %s FROM profiles", profileColumns)
	query += r.buildOrderBy(opts)
	query += " LIMIT $1 OFFSET $2"

	rows, err := r.conn.Query(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	return r.scanProfiles(rows)
}

// GetByIDs returns profiles by a list of IDs.
func (r *ProfileRepository) GetByIDs(ctx context.Context, ids []string) ([]*profile.Profile, error) {
	if len(ids) == 0 {
		return []*profile.Profile{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(
		"SELECT %s FROM profiles WHERE id IN (%s)",
		profileColumns,
		strings.Join(placeholders, ", "),
	)

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles by ids: %w", err)
	}
	defer rows.Close()

	return r.scanProfiles(rows)
}

// Count returns the total number of profiles.
func (r *ProfileRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM profiles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Leaderboard Queries
// ─────────────────────────────────────────────────────────────────────────────

// TopByCoins returns profiles with the highest coin balance.
func (r *ProfileRepository) TopByCoins(ctx context.Context, limit int) ([]*profile.Profile, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM profiles ORDER BY total_coins DESC, display_name ASC LIMIT $1",
		profileColumns,
	)

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top by coins: %w", err)
	}
	defer rows.Close()

	return r.scanProfiles(rows)
}

// TopByStreak returns profiles with the longest current streak.
func (r *ProfileRepository) TopByStreak(ctx context.Context, limit int) ([]*profile.Profile, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM profiles WHERE current_streak > 0 ORDER BY current_streak DESC, display_name ASC LIMIT $1",
		profileColumns,
	)

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top by streak: %w", err)
	}
	defer rows.Close()

	return r.scanProfiles(rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Streak Maintenance
// ─────────────────────────────────────────────────────────────────────────────

// FindWithBrokenStreaks finds profiles whose streak counter is stale:
// last activity before the cutoff but current_streak still positive.
// Used by the nightly maintenance job.
func (r *ProfileRepository) FindWithBrokenStreaks(ctx context.Context, before time.Time) ([]*profile.Profile, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM profiles
		WHERE current_streak > 0
		  AND (last_activity_date IS NULL OR last_activity_date < $1)
		ORDER BY last_activity_date ASC
	`, profileColumns)

	rows, err := r.conn.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("failed to find broken streaks: %w", err)
	}
	defer rows.Close()

	return r.scanProfiles(rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Existence Checks
// ─────────────────────────────────────────────────────────────────────────────

// Exists checks if a profile exists by ID.
func (r *ProfileRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM profiles WHERE id = $1)",
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check profile existence: %w", err)
	}
	return exists, nil
}

// ExistsByEmail checks if a profile exists by email.
func (r *ProfileRepository) ExistsByEmail(ctx context.Context, email shared.Email) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM profiles WHERE email = $1)",
		email.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check profile existence by email: %w", err)
	}
	return exists, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

// scanProfile scans a single profile from a row.
func (r *ProfileRepository) scanProfile(row pgx.Row) (*profile.Profile, error) {
	var p profile.Profile
	var email, role, plan string
	var coins, xp, level int
	var lastActivity *time.Time

	err := row.Scan(
		&p.ID,
		&email,
		&p.PasswordHash,
		&p.DisplayName,
		&p.AvatarURL,
		&p.Bio,
		&p.FavoriteColor,
		&p.SelectedAvatar,
		&role,
		&plan,
		&coins,
		&xp,
		&level,
		&p.CurrentStreak,
		&p.LongestStreak,
		&lastActivity,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, profile.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	p.Email = shared.Email(email)
	p.Role = profile.Role(role)
	p.Plan = shared.Plan(plan)
	p.TotalCoins = shared.Coins(coins)
	p.ExperiencePoints = shared.XP(xp)
	p.Level = shared.Level(level)
	if lastActivity != nil {
		p.LastActivityDate = *lastActivity
	}

	return &p, nil
}

// scanProfiles scans multiple profiles from rows.
func (r *ProfileRepository) scanProfiles(rows pgx.Rows) ([]*profile.Profile, error) {
	var profiles []*profile.Profile

	for rows.Next() {
		var p profile.Profile
		var email, role, plan string
		var coins, xp, level int
		var lastActivity *time.Time

		err := rows.Scan(
			&p.ID,
			&email,
			&p.PasswordHash,
			&p.DisplayName,
			&p.AvatarURL,
			&p.Bio,
			&p.FavoriteColor,
			&p.SelectedAvatar,
			&role,
			&plan,
			&coins,
			&xp,
			&level,
			&p.CurrentStreak,
			&p.LongestStreak,
			&lastActivity,
			&p.Version,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}

		p.Email = shared.Email(email)
		p.Role = profile.Role(role)
		p.Plan = shared.Plan(plan)
		p.TotalCoins = shared.Coins(coins)
		p.ExperiencePoints = shared.XP(xp)
		p.Level = shared.Level(level)
		if lastActivity != nil {
			p.LastActivityDate = *lastActivity
		}

		profiles = append(profiles, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return profiles, nil
}

// buildOrderBy builds ORDER BY clause from a whitelist of sortable fields.
func (r *ProfileRepository) buildOrderBy(opts profile.ListOptions) string {
	orderField := "total_coins"
	validFields := map[string]string{
		"total_coins":    "total_coins",
		"coins":          "total_coins",
		"xp":             "experience_points",
		"level":          "level",
		"current_streak": "current_streak",
		"streak":         "current_streak",
		"display_name":   "display_name",
		"name":           "display_name",
		"created_at":     "created_at",
	}

	if field, ok := validFields[opts.SortBy]; ok {
		orderField = field
	}

	direction := "DESC"
	if !opts.SortDesc {
		direction = "ASC"
	}

	return fmt.Sprintf(" ORDER BY %s %s", orderField, direction)
}

// nullableDate maps a zero time to NULL for DATE columns.
func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	d := t.UTC().Truncate(24 * time.Hour)
	return &d
}
