package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/garage-api/internal/repository"
)

type operationRepository struct {
	db *sqlx.DB
}

type staffRepository struct {
	db *sqlx.DB
}

type bayRepository struct {
	db *sqlx.DB
}

type customerRepository struct {
	db *sqlx.DB
}

type closureRepository struct {
	db *sqlx.DB
}

type appointmentRepository struct {
	db *sqlx.DB
}

type outboxRepository struct {
	db *sqlx.DB
}

func NewOperationRepository(db *sqlx.DB) repository.OperationRepository {
	return &operationRepository{db: db}
}

func NewStaffRepository(db *sqlx.DB) repository.StaffRepository {
	return &staffRepository{db: db}
}

func NewBayRepository(db *sqlx.DB) repository.BayRepository {
	return &bayRepository{db: db}
}

func NewCustomerRepository(db *sqlx.DB) repository.CustomerRepository {
	return &customerRepository{db: db}
}

func NewClosureRepository(db *sqlx.DB) repository.ClosureRepository {
	return &closureRepository{db: db}
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}
