package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/barbershop-api/internal/models"
)

// ServiceRepository reads the service catalogue.
type ServiceRepository struct {
	db *sqlx.DB
}

// NewServiceRepository creates a new service repository.
func NewServiceRepository(db *sqlx.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// FindByID loads a catalogue item by id.
func (r *ServiceRepository) FindByID(ctx context.Context, id string) (*models.Service, error) {
	const query = `SELECT id, name, duration_minutes, price_cents, active, created_at, updated_at FROM services WHERE id = $1`
	var svc models.Service
	if err := r.db.GetContext(ctx, &svc, query, id); err != nil {
		return nil, err
	}
	return &svc, nil
}

// ClientRepository persists shop clients.
type ClientRepository struct {
	db *sqlx.DB
}

// NewClientRepository creates a new client repository.
func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// FindByPhone loads a client by phone number.
func (r *ClientRepository) FindByPhone(ctx context.Context, phone string) (*models.Client, error) {
	const query = `SELECT id, full_name, phone, email, created_at, updated_at FROM clients WHERE phone = $1`
	var client models.Client
	if err := r.db.GetContext(ctx, &client, query, strings.TrimSpace(phone)); err != nil {
		return nil, err
	}
	return &client, nil
}

// Create stores a new client. A phone already on file yields ErrDuplicate.
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now

	const query = `INSERT INTO clients (id, full_name, phone, email, created_at, updated_at) VALUES (:id, :full_name, :phone, :email, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, client); err != nil {
		return fmt.Errorf("create client: %w", translatePQError(err))
	}
	return nil
}
