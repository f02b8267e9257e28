package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("storage: not found")

// Repository handles all database operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new repository with SQLite
func NewRepository(dbPath string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection avoids busy errors
	// under the checkers' fan-out
	db.SetMaxOpenConns(1)

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := &Repository{db: db}

	// Run migrations
	if err := repo.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate creates the database schema
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS summoners (
			game_name VARCHAR(50) NOT NULL,
			tag_line VARCHAR(10) NOT NULL,
			puuid VARCHAR(100) UNIQUE NOT NULL,
			summoner_id VARCHAR(100) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (game_name, tag_line)
		)`,
		`CREATE TABLE IF NOT EXISTS game_records (
			puuid VARCHAR(100) NOT NULL,
			game_id VARCHAR(50) NOT NULL,
			champion VARCHAR(50) NOT NULL,
			queue_name VARCHAR(50) NOT NULL,
			message_id VARCHAR(20) NOT NULL DEFAULT '',
			thread_id VARCHAR(20) NOT NULL DEFAULT '',
			post_game_sent BOOLEAN NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (puuid, game_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_game_records_open ON game_records(post_game_sent)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Summoner identity cache

// GetSummoner finds a cached identity by Riot ID components.
// Returns ErrNotFound on a cache miss.
func (r *Repository) GetSummoner(ctx context.Context, gameName, tagLine string) (*Summoner, error) {
	s := &Summoner{}
	err := r.db.QueryRowContext(ctx,
		`SELECT game_name, tag_line, puuid, summoner_id, created_at FROM summoners WHERE game_name = ? AND tag_line = ?`,
		gameName, tagLine,
	).Scan(&s.GameName, &s.TagLine, &s.PUUID, &s.SummonerID, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CreateSummoner inserts a resolved identity into the cache. Racing
// inserts for the same player collapse onto the first row.
func (r *Repository) CreateSummoner(ctx context.Context, s *Summoner) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO summoners (game_name, tag_line, puuid, summoner_id) VALUES (?, ?, ?, ?)
		 ON CONFLICT(game_name, tag_line) DO NOTHING`,
		s.GameName, s.TagLine, s.PUUID, s.SummonerID,
	)
	return err
}

// GetSummonerByPUUID finds a cached identity by PUUID.
func (r *Repository) GetSummonerByPUUID(ctx context.Context, puuid string) (*Summoner, error) {
	s := &Summoner{}
	err := r.db.QueryRowContext(ctx,
		`SELECT game_name, tag_line, puuid, summoner_id, created_at FROM summoners WHERE puuid = ?`,
		puuid,
	).Scan(&s.GameName, &s.TagLine, &s.PUUID, &s.SummonerID, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Game records

// CreateGameRecordIfAbsent inserts a record keyed by (puuid, game id)
// only if none exists. The single INSERT ... ON CONFLICT DO NOTHING
// statement is the atomicity guarantee; concurrent callers racing on
// the same key result in exactly one creation.
func (r *Repository) CreateGameRecordIfAbsent(ctx context.Context, rec *GameRecord) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO game_records (puuid, game_id, champion, queue_name, message_id, thread_id, post_game_sent)
		 VALUES (?, ?, ?, ?, '', '', 0)
		 ON CONFLICT(puuid, game_id) DO NOTHING`,
		rec.PUUID, rec.GameID, rec.Champion, rec.QueueName,
	)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// GetOpenGameRecords returns all records awaiting a post-game update
func (r *Repository) GetOpenGameRecords(ctx context.Context) ([]*GameRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT puuid, game_id, champion, queue_name, message_id, thread_id, post_game_sent, created_at, updated_at
		 FROM game_records WHERE post_game_sent = 0`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*GameRecord
	for rows.Next() {
		rec := &GameRecord{}
		if err := rows.Scan(&rec.PUUID, &rec.GameID, &rec.Champion, &rec.QueueName,
			&rec.MessageID, &rec.ThreadID, &rec.PostGameSent, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetGameRecord finds a record by its key
func (r *Repository) GetGameRecord(ctx context.Context, puuid, gameID string) (*GameRecord, error) {
	rec := &GameRecord{}
	err := r.db.QueryRowContext(ctx,
		`SELECT puuid, game_id, champion, queue_name, message_id, thread_id, post_game_sent, created_at, updated_at
		 FROM game_records WHERE puuid = ? AND game_id = ?`,
		puuid, gameID,
	).Scan(&rec.PUUID, &rec.GameID, &rec.Champion, &rec.QueueName,
		&rec.MessageID, &rec.ThreadID, &rec.PostGameSent, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// SetGameRecordMessage stores the live alert's message id on a record
func (r *Repository) SetGameRecordMessage(ctx context.Context, puuid, gameID, messageID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE game_records SET message_id = ?, updated_at = ? WHERE puuid = ? AND game_id = ?`,
		messageID, time.Now().UTC(), puuid, gameID,
	)
	return err
}

// SetGameRecordThread stores the post-game thread id on a record
func (r *Repository) SetGameRecordThread(ctx context.Context, puuid, gameID, threadID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE game_records SET thread_id = ?, updated_at = ? WHERE puuid = ? AND game_id = ?`,
		threadID, time.Now().UTC(), puuid, gameID,
	)
	return err
}

// MarkPostGameSent closes a record after its follow-up published
func (r *Repository) MarkPostGameSent(ctx context.Context, puuid, gameID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE game_records SET post_game_sent = 1, updated_at = ? WHERE puuid = ? AND game_id = ?`,
		time.Now().UTC(), puuid, gameID,
	)
	return err
}

// LoadTrackedPlayers reads the JSON players file
func LoadTrackedPlayers(path string) ([]TrackedPlayer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read players file: %w", err)
	}

	var players []TrackedPlayer
	if err := json.Unmarshal(data, &players); err != nil {
		return nil, fmt.Errorf("failed to parse players file: %w", err)
	}

	for _, p := range players {
		if p.GameName == "" || p.TagLine == "" {
			return nil, fmt.Errorf("players file entry missing gameName or tagLine")
		}
	}

	return players, nil
}
