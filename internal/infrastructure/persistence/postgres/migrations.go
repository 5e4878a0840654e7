// Package postgres implements PostgreSQL persistence layer for LuckCash.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE PROFILES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create profiles table
-- Version: 001
-- Philosophy: "Учись управлять деньгами играя"

CREATE TABLE IF NOT EXISTS profiles (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email VARCHAR(255) NOT NULL UNIQUE,
    password_hash VARCHAR(255) NOT NULL,
    display_name VARCHAR(100) NOT NULL,
    avatar_url TEXT NOT NULL DEFAULT '',
    bio TEXT NOT NULL DEFAULT '',
    favorite_color VARCHAR(20) NOT NULL DEFAULT '',
    selected_avatar VARCHAR(20) NOT NULL DEFAULT '',
    role VARCHAR(20) NOT NULL DEFAULT 'user',
    plan VARCHAR(20) NOT NULL DEFAULT 'free',
    total_coins INTEGER NOT NULL DEFAULT 0,
    experience_points INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 1,
    current_streak INTEGER NOT NULL DEFAULT 0,
    longest_streak INTEGER NOT NULL DEFAULT 0,
    last_activity_date DATE,
    version INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- Constraints for data integrity
    CONSTRAINT valid_role CHECK (role IN ('user', 'admin')),
    CONSTRAINT valid_plan CHECK (plan IN ('free', 'basic', 'premium')),
    CONSTRAINT valid_coins CHECK (total_coins >= 0),
    CONSTRAINT valid_xp CHECK (experience_points >= 0),
    CONSTRAINT valid_level CHECK (level >= 1),
    CONSTRAINT valid_streaks CHECK (current_streak >= 0 AND longest_streak >= current_streak)
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_profiles_email ON profiles(email);
CREATE INDEX IF NOT EXISTS idx_profiles_total_coins ON profiles(total_coins DESC);
CREATE INDEX IF NOT EXISTS idx_profiles_current_streak ON profiles(current_streak DESC);
CREATE INDEX IF NOT EXISTS idx_profiles_last_activity ON profiles(last_activity_date);

-- Updated_at trigger function for automatic timestamp updates
CREATE OR REPLACE FUNCTION update_updated_at_column()
RETURNS TRIGGER AS $$
BEGIN
    NEW.updated_at = NOW();
    RETURN NEW;
END;
$$ language 'plpgsql';

DROP TRIGGER IF EXISTS update_profiles_updated_at ON profiles;
CREATE TRIGGER update_profiles_updated_at
    BEFORE UPDATE ON profiles
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();
`

const migration001Down = `
DROP TRIGGER IF EXISTS update_profiles_updated_at ON profiles;
DROP FUNCTION IF EXISTS update_updated_at_column();
DROP TABLE IF EXISTS profiles;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE CATALOG
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create catalog tables
-- Version: 002
-- Purpose: Lessons, daily missions, achievements and the rewards store

CREATE TABLE IF NOT EXISTS lessons (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    title VARCHAR(255) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category VARCHAR(50) NOT NULL,
    difficulty VARCHAR(20) NOT NULL DEFAULT 'beginner',
    order_index INTEGER NOT NULL DEFAULT 0,
    coins_reward INTEGER NOT NULL DEFAULT 0,
    xp_reward INTEGER NOT NULL DEFAULT 0,
    content TEXT NOT NULL DEFAULT '',
    min_plan VARCHAR(20) NOT NULL DEFAULT 'free',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_difficulty CHECK (difficulty IN ('beginner', 'intermediate', 'advanced')),
    CONSTRAINT valid_min_plan CHECK (min_plan IN ('free', 'basic', 'premium')),
    CONSTRAINT valid_rewards CHECK (coins_reward >= 0 AND xp_reward >= 0)
);

CREATE INDEX IF NOT EXISTS idx_lessons_category ON lessons(category);
CREATE INDEX IF NOT EXISTS idx_lessons_order ON lessons(category, order_index);

CREATE TABLE IF NOT EXISTS daily_missions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    title VARCHAR(255) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    mission_type VARCHAR(30) NOT NULL,
    target_value INTEGER NOT NULL,
    coins_reward INTEGER NOT NULL DEFAULT 0,
    xp_reward INTEGER NOT NULL DEFAULT 0,
    icon VARCHAR(20) NOT NULL DEFAULT '',
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_mission_type CHECK (mission_type IN (
        'complete_lessons', 'earn_coins', 'earn_xp', 'login_streak', 'quiz_score'
    )),
    CONSTRAINT valid_target CHECK (target_value > 0)
);

CREATE INDEX IF NOT EXISTS idx_daily_missions_active ON daily_missions(active) WHERE active = TRUE;

CREATE TABLE IF NOT EXISTS achievements (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(100) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    badge_icon VARCHAR(20) NOT NULL DEFAULT '',
    requirement_type VARCHAR(30) NOT NULL,
    requirement_value INTEGER NOT NULL,
    coins_reward INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_requirement_type CHECK (requirement_type IN (
        'lessons_completed', 'total_coins', 'experience_points',
        'streak_days', 'level', 'purchases'
    )),
    CONSTRAINT valid_requirement CHECK (requirement_value > 0)
);

CREATE TABLE IF NOT EXISTS store_items (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(100) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category VARCHAR(50) NOT NULL,
    cost_coins INTEGER NOT NULL,
    stock INTEGER NOT NULL DEFAULT -1,
    image_url TEXT NOT NULL DEFAULT '',
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_cost CHECK (cost_coins >= 0)
);

CREATE INDEX IF NOT EXISTS idx_store_items_category ON store_items(category);
CREATE INDEX IF NOT EXISTS idx_store_items_active ON store_items(active) WHERE active = TRUE;

DROP TRIGGER IF EXISTS update_lessons_updated_at ON lessons;
CREATE TRIGGER update_lessons_updated_at
    BEFORE UPDATE ON lessons
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();

DROP TRIGGER IF EXISTS update_store_items_updated_at ON store_items;
CREATE TRIGGER update_store_items_updated_at
    BEFORE UPDATE ON store_items
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();

DROP TRIGGER IF EXISTS update_daily_missions_updated_at ON daily_missions;
CREATE TRIGGER update_daily_missions_updated_at
    BEFORE UPDATE ON daily_missions
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();
`

const migration002Down = `
DROP TRIGGER IF EXISTS update_daily_missions_updated_at ON daily_missions;
DROP TRIGGER IF EXISTS update_store_items_updated_at ON store_items;
DROP TRIGGER IF EXISTS update_lessons_updated_at ON lessons;
DROP TABLE IF EXISTS store_items;
DROP TABLE IF EXISTS achievements;
DROP TABLE IF EXISTS daily_missions;
DROP TABLE IF EXISTS lessons;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE PROGRESSION
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create progression tables
-- Version: 003
-- Purpose: Per-user lesson progress, mission claims, purchases and stats

CREATE TABLE IF NOT EXISTS user_lesson_progress (
    profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    lesson_id UUID NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
    progress INTEGER NOT NULL DEFAULT 0,
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    completed_at TIMESTAMP WITH TIME ZONE,
    score INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (profile_id, lesson_id),
    CONSTRAINT valid_progress CHECK (progress >= 0 AND progress <= 100)
);

CREATE INDEX IF NOT EXISTS idx_lesson_progress_profile ON user_lesson_progress(profile_id);
CREATE INDEX IF NOT EXISTS idx_lesson_progress_completed
    ON user_lesson_progress(profile_id) WHERE completed = TRUE;

CREATE TABLE IF NOT EXISTS user_daily_missions (
    profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    mission_id UUID NOT NULL REFERENCES daily_missions(id) ON DELETE CASCADE,
    day DATE NOT NULL,
    progress INTEGER NOT NULL DEFAULT 0,
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    completed_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (profile_id, mission_id, day),
    CONSTRAINT valid_mission_progress CHECK (progress >= 0)
);

CREATE INDEX IF NOT EXISTS idx_user_missions_day ON user_daily_missions(profile_id, day);

CREATE TABLE IF NOT EXISTS user_purchases (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    item_id UUID NOT NULL REFERENCES store_items(id) ON DELETE CASCADE,
    coins_spent INTEGER NOT NULL,
    redeemed BOOLEAN NOT NULL DEFAULT FALSE,
    redeemed_at TIMESTAMP WITH TIME ZONE,
    purchased_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_coins_spent CHECK (coins_spent >= 0)
);

CREATE INDEX IF NOT EXISTS idx_purchases_profile ON user_purchases(profile_id, purchased_at DESC);

CREATE TABLE IF NOT EXISTS user_achievements (
    profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    achievement_id UUID NOT NULL REFERENCES achievements(id) ON DELETE CASCADE,
    unlocked_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (profile_id, achievement_id)
);

CREATE INDEX IF NOT EXISTS idx_user_achievements_unlocked ON user_achievements(unlocked_at DESC);

CREATE TABLE IF NOT EXISTS stats_history (
    profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    day DATE NOT NULL,
    coins_earned INTEGER NOT NULL DEFAULT 0,
    xp_earned INTEGER NOT NULL DEFAULT 0,
    lessons_completed INTEGER NOT NULL DEFAULT 0,
    missions_claimed INTEGER NOT NULL DEFAULT 0,
    streak_at_end INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (profile_id, day)
);

CREATE INDEX IF NOT EXISTS idx_stats_history_day ON stats_history(profile_id, day DESC);

DROP TRIGGER IF EXISTS update_lesson_progress_updated_at ON user_lesson_progress;
CREATE TRIGGER update_lesson_progress_updated_at
    BEFORE UPDATE ON user_lesson_progress
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();

DROP TRIGGER IF EXISTS update_user_missions_updated_at ON user_daily_missions;
CREATE TRIGGER update_user_missions_updated_at
    BEFORE UPDATE ON user_daily_missions
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();
`

const migration003Down = `
DROP TRIGGER IF EXISTS update_user_missions_updated_at ON user_daily_missions;
DROP TRIGGER IF EXISTS update_lesson_progress_updated_at ON user_lesson_progress;
DROP TABLE IF EXISTS stats_history;
DROP TABLE IF EXISTS user_achievements;
DROP TABLE IF EXISTS user_purchases;
DROP TABLE IF EXISTS user_daily_missions;
DROP TABLE IF EXISTS user_lesson_progress;
`
