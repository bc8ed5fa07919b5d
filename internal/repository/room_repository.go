package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// RoomRepository reads rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs a RoomRepository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// FindByID fetches a room by ID.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	const query = `SELECT id, name, capacity, active, created_at, updated_at FROM rooms WHERE id = $1`
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// ListRooms returns active rooms seating at least minCapacity, smallest first.
func (r *RoomRepository) ListRooms(ctx context.Context, minCapacity int) ([]models.Room, error) {
	const query = `SELECT id, name, capacity, active, created_at, updated_at FROM rooms
WHERE active = TRUE AND capacity >= $1 ORDER BY capacity ASC, name ASC`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, minCapacity); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}
